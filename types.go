package accounts

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Notifier delivers a message containing a link to an address. The
// transport (mailgun, SMTP, console) is up to the implementation; flows
// only depend on the send succeeding or failing.
type Notifier interface {
	Send(ctx context.Context, toAddress, subject, htmlBody string) error
}

// NotifierFunc adapts a function into a Notifier.
type NotifierFunc func(ctx context.Context, toAddress, subject, htmlBody string) error

// Send satisfies the Notifier interface.
func (f NotifierFunc) Send(ctx context.Context, toAddress, subject, htmlBody string) error {
	if f == nil {
		return nil
	}
	return f(ctx, toAddress, subject, htmlBody)
}

// Config holds account flow options
type Config interface {
	GetActivationSecret() string
	GetResetSecret() string
	GetActivationTTL() time.Duration
	GetResetTTL() time.Duration
	GetIssuer() string
	GetBaseURL() string
}

// DefaultTokenTTL is the expiry applied to activation and reset tokens
// when the configuration does not provide one.
var DefaultTokenTTL = 20 * time.Minute

// FlowConfig is a plain Config implementation for wiring.
type FlowConfig struct {
	ActivationSecret string
	ResetSecret      string
	ActivationTTL    time.Duration
	ResetTTL         time.Duration
	Issuer           string
	BaseURL          string
}

func (c FlowConfig) GetActivationSecret() string { return c.ActivationSecret }

func (c FlowConfig) GetResetSecret() string { return c.ResetSecret }

func (c FlowConfig) GetActivationTTL() time.Duration {
	if c.ActivationTTL <= 0 {
		return DefaultTokenTTL
	}
	return c.ActivationTTL
}

func (c FlowConfig) GetResetTTL() time.Duration {
	if c.ResetTTL <= 0 {
		return DefaultTokenTTL
	}
	return c.ResetTTL
}

func (c FlowConfig) GetIssuer() string { return c.Issuer }

func (c FlowConfig) GetBaseURL() string { return c.BaseURL }

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
