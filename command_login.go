package accounts

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type LoginMessage struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	OnResponse func(*LoginResponse)
}

func (e LoginMessage) Type() string { return "account.login" }

type LoginResponse struct {
	Status  RegistrationStatus `json:"status" example:"authenticated" doc:"Login outcome stage."`
	Account *Account           `json:"account,omitempty"`
}

type LoginHandler struct {
	repo     RepositoryManager
	activity ActivitySink
	logger   Logger
}

// NewLoginHandler creates a handler with sane defaults.
func NewLoginHandler(repo RepositoryManager) *LoginHandler {
	return &LoginHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithActivitySink sets the sink used to emit login events.
func (h *LoginHandler) WithActivitySink(sink ActivitySink) *LoginHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *LoginHandler) WithLogger(logger Logger) *LoginHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *LoginHandler) Execute(ctx context.Context, event LoginMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during login",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *LoginHandler) execute(ctx context.Context, event LoginMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	payload := LoginPayload{
		Email:    event.Email,
		Password: event.Password,
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	account, err := h.repo.Accounts().GetByEmail(ctx, NormalizeEmail(event.Email))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			h.recordActivity(ctx, ActivityEventLoginFailure, "", NormalizeEmail(event.Email), map[string]any{
				"reason": "email not found",
			})
			return ErrAccountNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for login")
	}

	if err := ComparePasswordAndHash(event.Password, account.PasswordHash); err != nil {
		if !errors.Is(err, ErrMismatchedHashAndPassword) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to compare password hash")
		}
		h.recordActivity(ctx, ActivityEventLoginFailure, account.ID.String(), account.Email, map[string]any{
			"reason": "password mismatch",
		})
		return ErrInvalidCredentials
	}

	h.recordActivity(ctx, ActivityEventLoginSuccess, account.ID.String(), account.Email, nil)

	if event.OnResponse != nil {
		event.OnResponse(&LoginResponse{
			Status:  StatusAuthenticated,
			Account: account,
		})
	}

	return nil
}

func (h *LoginHandler) recordActivity(ctx context.Context, eventType ActivityEventType, accountID, email string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		AccountID:  accountID,
		Email:      email,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during login: %v", err)
	}
}
