package accounts

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RegisterAccountRoutes mounts the account flows on a router.
func RegisterAccountRoutes[T any](app router.Router[T], opts ...AccountsControllerOption) {

	controller := NewAccountsController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost).
		SetName("account-register.post")

	app.Get(fmt.Sprintf("%s/:token", controller.Routes.Activation), controller.ActivationGet).
		SetName("account-activation.get")

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("account-login.post")

	app.Post(controller.Routes.ForgotPassword, controller.ForgotPasswordPost).
		SetName("account-pwd-reset.post")

	app.Post(fmt.Sprintf("%s/:token", controller.Routes.ResetPassword), controller.ResetPasswordPost).
		SetName("account-pwd-reset-do.post")
}

type AccountsControllerRoutes struct {
	Register       string
	Activation     string
	Login          string
	ForgotPassword string
	ResetPassword  string
}

type AccountsController struct {
	Debug    bool
	Logger   Logger
	Repo     RepositoryManager
	Config   Config
	Notifier Notifier
	Activity ActivitySink
	Routes   *AccountsControllerRoutes

	activationTokens *TokenService
	resetTokens      *TokenService
}

type AccountsControllerOption func(*AccountsController) *AccountsController

func NewAccountsController(opts ...AccountsControllerOption) *AccountsController {
	c := &AccountsController{
		Logger: defLogger{},
		Routes: &AccountsControllerRoutes{
			Register:       "/register",
			Activation:     "/activation",
			Login:          "/login",
			ForgotPassword: "/forgotpassword",
			ResetPassword:  "/resetpassword",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in accounts controller...")
	}

	if c.Config == nil {
		panic("Missing Config in accounts controller...")
	}

	c.activationTokens = NewActivationTokenService(c.Config, c.Logger)
	c.resetTokens = NewResetTokenService(c.Config, c.Logger)

	return c
}

func WithControllerRepo(repo RepositoryManager) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Repo = repo
		return c
	}
}

func WithControllerConfig(cfg Config) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Config = cfg
		return c
	}
}

func WithControllerNotifier(n Notifier) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Notifier = n
		return c
	}
}

func WithControllerActivitySink(sink ActivitySink) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Activity = sink
		return c
	}
}

func WithControllerLogger(logger Logger) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Debug = debug
		return c
	}
}

func (a *AccountsController) RegisterPost(ctx router.Context) error {
	payload := new(RegisterPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register account parse payload: ", "error", err)
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "error parsing body").
			WithCode(goerrors.CodeBadRequest))
	}

	if a.Debug {
		fmt.Println("======= ACCOUNT REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("===============================")
	}

	var res *RegisterAccountResponse

	req := RegisterAccountMessage{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(resp *RegisterAccountResponse) {
			res = resp
		},
	}

	handler := NewRegisterAccountHandler(a.Repo, a.activationTokens).
		WithNotifier(a.Notifier).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger).
		WithBaseURL(a.Config.GetBaseURL())

	if err := handler.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register account error: ", "error", err)
		return a.respondError(ctx, err)
	}

	return a.respond(ctx, fiber.StatusOK, fmt.Sprintf("Verification link has been sent to %s", res.Email), res)
}

func (a *AccountsController) ActivationGet(ctx router.Context) error {
	token := ctx.Param("token", "")

	var res *ActivateAccountResponse

	req := ActivateAccountMessage{
		Token: token,
		OnResponse: func(resp *ActivateAccountResponse) {
			res = resp
		},
	}

	handler := NewActivateAccountHandler(a.Repo, a.activationTokens).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)

	if err := handler.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("account activation error: ", "error", err)
		return a.respondError(ctx, err)
	}

	return a.respond(ctx, fiber.StatusCreated, "Signup success", res)
}

func (a *AccountsController) LoginPost(ctx router.Context) error {
	payload := new(LoginPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: ", "error", err)
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "error parsing body").
			WithCode(goerrors.CodeBadRequest))
	}

	var res *LoginResponse

	req := LoginMessage{
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(resp *LoginResponse) {
			res = resp
		},
	}

	handler := NewLoginHandler(a.Repo).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)

	if err := handler.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("login error: ", "error", err)
		return a.respondError(ctx, err)
	}

	return a.respond(ctx, fiber.StatusOK, "Login successful", res)
}

func (a *AccountsController) ForgotPasswordPost(ctx router.Context) error {
	payload := new(ResetRequestPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("password reset parse payload: ", "error", err)
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "error parsing body").
			WithCode(goerrors.CodeBadRequest))
	}

	var res *InitializePasswordResetResponse

	req := InitializePasswordResetMessage{
		Email: payload.Email,
		OnResponse: func(resp *InitializePasswordResetResponse) {
			res = resp
		},
	}

	handler := NewInitializePasswordResetHandler(a.Repo, a.resetTokens).
		WithNotifier(a.Notifier).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger).
		WithBaseURL(a.Config.GetBaseURL())

	if err := handler.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("password reset request error: ", "error", err)
		return a.respondError(ctx, err)
	}

	if a.Debug {
		fmt.Println("================")
		fmt.Println(print.MaybePrettyJSON(res))
		fmt.Println("================")
	}

	return a.respond(ctx, fiber.StatusOK, fmt.Sprintf("Password reset link has been sent to %s", res.Email), res)
}

func (a *AccountsController) ResetPasswordPost(ctx router.Context) error {
	token := ctx.Param("token", "")
	payload := new(ResetCompletePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("password reset parse payload: ", "error", err)
		return a.respondError(ctx, goerrors.Wrap(err, goerrors.CategoryBadInput, "error parsing body").
			WithCode(goerrors.CodeBadRequest))
	}

	var res *FinalizePasswordResetResponse

	req := FinalizePasswordResetMessage{
		Token:    token,
		Password: payload.Password,
		OnResponse: func(resp *FinalizePasswordResetResponse) {
			res = resp
		},
	}

	handler := NewFinalizePasswordResetHandler(a.Repo, a.resetTokens).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)

	if err := handler.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("password reset error: ", "error", err)
		return a.respondError(ctx, err)
	}

	return a.respond(ctx, fiber.StatusOK, "Your password has been changed", res)
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func (a *AccountsController) respond(ctx router.Context, status int, message string, data any) error {
	return ctx.JSON(status, apiResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// respondError exposes only the taxonomy kind and a human readable
// message, never wrapped internals.
func (a *AccountsController) respondError(ctx router.Context, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "an unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := richErr.Code
	if status <= 0 {
		status = fiber.StatusInternalServerError
	}

	return ctx.JSON(status, apiResponse{
		Success: false,
		Message: richErr.Message,
	})
}
