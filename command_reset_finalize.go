package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type FinalizePasswordResetMessage struct {
	Token      string `json:"token" doc:"Reset token from the password reset link"`
	Password   string `json:"password" example:"some_secret_word" doc:"Replacement password"`
	OnResponse func(*FinalizePasswordResetResponse)
}

func (p FinalizePasswordResetMessage) Type() string { return "account.password_reset.finalize" }

type FinalizePasswordResetResponse struct {
	Status    RegistrationStatus `json:"status" example:"password-changed" doc:"Reset outcome stage."`
	AccountID string             `json:"account_id,omitempty"`
}

type FinalizePasswordResetHandler struct {
	repo     RepositoryManager
	tokens   *TokenService
	activity ActivitySink
	logger   Logger
}

// NewFinalizePasswordResetHandler creates a handler with sane defaults.
// The token service must be configured for password reset.
func NewFinalizePasswordResetHandler(repo RepositoryManager, tokens *TokenService) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		repo:     repo,
		tokens:   tokens,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit password reset events.
func (h *FinalizePasswordResetHandler) WithActivitySink(sink ActivitySink) *FinalizePasswordResetHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	account := &Account{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	payload := ResetCompletePayload{Password: event.Password}
	if err := payload.Validate(); err != nil {
		return err
	}

	// First gate: the token has to verify cryptographically and be
	// unexpired.
	claims, err := h.tokens.VerifyReset(event.Token)
	if err != nil {
		return err
	}

	passwordHash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Second gate: the exact token string must still be the one
		// stored on the account. A newer reset request, or a completed
		// one, leaves this lookup empty.
		account, err = h.repo.Accounts().GetByResetTokenTx(ctx, tx, event.Token)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrResetTokenNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve account by reset token")
		}

		if account.ID.String() != claims.AccountID {
			return ErrResetTokenNotFound
		}

		// Swaps the hash and clears the stored token in one statement,
		// which is what makes the token single use.
		if err := h.repo.Accounts().ResetPasswordTx(ctx, tx, account.ID, passwordHash); err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrResetTokenNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account password")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	h.recordActivity(ctx, account)

	if event.OnResponse != nil {
		event.OnResponse(&FinalizePasswordResetResponse{
			Status:    StatusPasswordChanged,
			AccountID: account.ID.String(),
		})
	}

	return nil
}

func (h *FinalizePasswordResetHandler) recordActivity(ctx context.Context, account *Account) {
	if account == nil {
		return
	}

	event := ActivityEvent{
		EventType:  ActivityEventPasswordResetSuccess,
		AccountID:  account.ID.String(),
		Email:      account.Email,
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during password reset: %v", err)
	}
}
