package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "account.password_reset" }

type InitializePasswordResetResponse struct {
	Email   string `json:"email"`
	Success bool   `json:"success"`
	// Token is the issued reset token, already persisted on the account.
	Token string `json:"-"`
}

type InitializePasswordResetHandler struct {
	repo     RepositoryManager
	tokens   *TokenService
	notifier Notifier
	activity ActivitySink
	logger   Logger
	baseURL  string
}

// NewInitializePasswordResetHandler creates a handler with sane
// defaults. The token service must be configured for password reset.
func NewInitializePasswordResetHandler(repo RepositoryManager, tokens *TokenService) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:     repo,
		tokens:   tokens,
		notifier: noopNotifier{},
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithNotifier sets the notifier used to deliver the reset link.
func (h *InitializePasswordResetHandler) WithNotifier(n Notifier) *InitializePasswordResetHandler {
	h.notifier = normalizeNotifier(n)
	return h
}

// WithActivitySink sets the sink used to emit password reset events.
func (h *InitializePasswordResetHandler) WithActivitySink(sink ActivitySink) *InitializePasswordResetHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithBaseURL sets the base URL embedded in reset links.
func (h *InitializePasswordResetHandler) WithBaseURL(baseURL string) *InitializePasswordResetHandler {
	h.baseURL = baseURL
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	payload := ResetRequestPayload{Email: event.Email}
	if err := payload.Validate(); err != nil {
		return err
	}

	email := NormalizeEmail(event.Email)

	account, err := h.repo.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrAccountNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for password reset")
	}

	token, err := h.tokens.IssueReset(account.ID)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue reset token")
	}

	// Persist before dispatch. Overwriting invalidates any previous
	// outstanding token: at most one reset token is ever valid.
	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return h.repo.Accounts().SetResetTokenTx(ctx, tx, account.ID, token)
	})
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrAccountNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store reset token")
	}

	resp := &InitializePasswordResetResponse{
		Email: email,
		Token: token,
	}

	h.recordActivity(ctx, account)

	subject, html := ResetEmail(h.baseURL, token)
	if err := h.notifier.Send(ctx, email, subject, html); err != nil {
		// The stored token stays in place; a retried request simply
		// overwrites it. Known rough edge inherited from the upstream
		// behavior: the user sees a failure while a valid token exists.
		h.logger.Error("reset notification dispatch failed for %s: %v", email, err)
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return NewNotificationError(err)
	}

	resp.Success = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func (h *InitializePasswordResetHandler) recordActivity(ctx context.Context, account *Account) {
	if account == nil {
		return
	}

	event := ActivityEvent{
		EventType:  ActivityEventPasswordResetRequest,
		AccountID:  account.ID.String(),
		Email:      account.Email,
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during password reset: %v", err)
	}
}
