package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type ActivateAccountMessage struct {
	Token      string `json:"token" doc:"Activation token from the verification link"`
	UseHashid  bool
	OnResponse func(*ActivateAccountResponse)
}

func (e ActivateAccountMessage) Type() string { return "account.activate" }

type ActivateAccountResponse struct {
	Status  RegistrationStatus `json:"status" example:"activated" doc:"Registration outcome stage."`
	Account *Account           `json:"account,omitempty"`
}

type ActivateAccountHandler struct {
	repo     RepositoryManager
	tokens   *TokenService
	activity ActivitySink
	logger   Logger
}

// NewActivateAccountHandler creates a handler with sane defaults. The
// token service must be configured for activation.
func NewActivateAccountHandler(repo RepositoryManager, tokens *TokenService) *ActivateAccountHandler {
	return &ActivateAccountHandler{
		repo:     repo,
		tokens:   tokens,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit activation events.
func (h *ActivateAccountHandler) WithActivitySink(sink ActivitySink) *ActivateAccountHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *ActivateAccountHandler) WithLogger(logger Logger) *ActivateAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ActivateAccountHandler) Execute(ctx context.Context, event ActivateAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account activation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ActivateAccountHandler) execute(ctx context.Context, event ActivateAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	// An expired, tampered, or malformed link means the pending
	// registration is gone; the user has to register again.
	claims, err := h.tokens.VerifyActivation(event.Token)
	if err != nil {
		return err
	}

	account := &Account{
		Name:          claims.Name,
		Email:         claims.Email,
		PasswordHash:  claims.PasswordHash,
		EmailVerified: true,
	}

	if event.UseHashid {
		if id, err := hashid.NewUUID(claims.Email); err == nil {
			account.ID = id
		}
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// A replayed token, or the loser of two concurrent activations,
		// finds the account already materialized.
		if _, err := h.repo.Accounts().GetByEmailTx(ctx, tx, claims.Email); err == nil {
			return ErrDuplicateEmail
		} else if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
		}

		created, err := h.repo.Accounts().CreateTx(ctx, tx, account)
		if err != nil {
			// CreateTx already classifies the unique-index race as a
			// duplicate email conflict.
			if IsDuplicateEmail(err) {
				return err
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create account")
		}

		account = created
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account activation transaction failed")
	}

	h.recordActivity(ctx, account)

	if event.OnResponse != nil {
		event.OnResponse(&ActivateAccountResponse{
			Status:  StatusActivated,
			Account: account,
		})
	}

	return nil
}

func (h *ActivateAccountHandler) recordActivity(ctx context.Context, account *Account) {
	if account == nil {
		return
	}

	event := ActivityEvent{
		EventType:  ActivityEventAccountActivated,
		AccountID:  account.ID.String(),
		Email:      account.Email,
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during activation: %v", err)
	}
}
