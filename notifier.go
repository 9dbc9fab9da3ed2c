package accounts

import (
	"context"
	"fmt"
)

type noopNotifier struct{}

func (noopNotifier) Send(context.Context, string, string, string) error {
	return nil
}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// LogNotifier writes notifications to the logger instead of delivering
// them. Useful during development.
type LogNotifier struct {
	Logger Logger
}

// Send satisfies the Notifier interface.
func (n LogNotifier) Send(_ context.Context, toAddress, subject, htmlBody string) error {
	logger := n.Logger
	if logger == nil {
		logger = defLogger{}
	}
	logger.Info("====== SENDING EMAIL NOTIFICATION =======")
	logger.Info("to: %s", toAddress)
	logger.Info("subject: %s", subject)
	logger.Info("body: %s", htmlBody)
	return nil
}

// ActivationEmail renders the verification message for a pending
// registration. The link embeds the activation token.
func ActivationEmail(baseURL, name, token string) (subject, html string) {
	subject = "Verification Link"
	html = fmt.Sprintf(`<div>
      <p>Hey %s</p>

      <p>Click this link to verify your email address</p>

      <p>%s/activation/%s</p>

      <p>All The Best</p>
    </div>`, name, baseURL, token)
	return subject, html
}

// ResetEmail renders the password reset message. The link embeds the
// reset token.
func ResetEmail(baseURL, token string) (subject, html string) {
	subject = "Password Reset Link"
	html = fmt.Sprintf(`<div>
      <p>Click this link to reset your password</p>

      <p>%s/resetpassword/%s</p>

      <p>All The Best</p>
    </div>`, baseURL, token)
	return subject, html
}
