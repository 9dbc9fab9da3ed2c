package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type RegisterAccountMessage struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	OnResponse func(*RegisterAccountResponse)
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

type RegisterAccountResponse struct {
	Status RegistrationStatus `json:"status" example:"pending" doc:"Registration outcome stage."`
	Email  string             `json:"email" example:"pepe.rone@example.com" doc:"Address the activation link was sent to."`
	// Token is the issued activation token. Exposed so callers can offer
	// out-of-band delivery when the notification bounces.
	Token string `json:"-"`
}

type RegisterAccountHandler struct {
	repo     RepositoryManager
	tokens   *TokenService
	notifier Notifier
	activity ActivitySink
	logger   Logger
	baseURL  string
}

// NewRegisterAccountHandler creates a handler with sane defaults. The
// token service must be configured for activation.
func NewRegisterAccountHandler(repo RepositoryManager, tokens *TokenService) *RegisterAccountHandler {
	return &RegisterAccountHandler{
		repo:     repo,
		tokens:   tokens,
		notifier: noopNotifier{},
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithNotifier sets the notifier used to deliver the activation link.
func (h *RegisterAccountHandler) WithNotifier(n Notifier) *RegisterAccountHandler {
	h.notifier = normalizeNotifier(n)
	return h
}

// WithActivitySink sets the sink used to emit registration events.
func (h *RegisterAccountHandler) WithActivitySink(sink ActivitySink) *RegisterAccountHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterAccountHandler) WithLogger(logger Logger) *RegisterAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithBaseURL sets the base URL embedded in activation links.
func (h *RegisterAccountHandler) WithBaseURL(baseURL string) *RegisterAccountHandler {
	h.baseURL = baseURL
	return h
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	payload := RegisterPayload{
		Name:     event.Name,
		Email:    event.Email,
		Password: event.Password,
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	email := NormalizeEmail(event.Email)

	// The message stays uniform whether the existing account is verified
	// or not, to avoid account enumeration.
	if _, err := h.repo.Accounts().GetByEmail(ctx, email); err == nil {
		return ErrDuplicateEmail
	} else if !repository.IsRecordNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check email availability")
	}

	// Hash before issuing: the token travels through email and logs, so
	// it must never carry the plaintext password.
	hash, err := HashPassword(event.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	token, err := h.tokens.IssueActivation(payload.Name, email, hash)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue activation token")
	}

	resp := &RegisterAccountResponse{
		Status: StatusPending,
		Email:  email,
		Token:  token,
	}

	h.recordActivity(ctx, ActivityEventRegistrationPending, "", email, nil)

	subject, html := ActivationEmail(h.baseURL, payload.Name, token)
	if err := h.notifier.Send(ctx, email, subject, html); err != nil {
		// The token stays valid: the user can retry activation if the
		// link reaches them out of band. No rollback, there is nothing
		// persisted yet.
		h.logger.Error("activation notification dispatch failed for %s: %v", email, err)
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return NewNotificationError(err)
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}

func (h *RegisterAccountHandler) recordActivity(ctx context.Context, eventType ActivityEventType, accountID, email string, metadata map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		AccountID:  accountID,
		Email:      email,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during registration: %v", err)
	}
}
