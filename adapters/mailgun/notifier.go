// Package mailgun adapts the Mailgun messages API to the accounts
// Notifier contract.
package mailgun

import (
	"context"
	"fmt"

	"github.com/goliatone/go-accounts"
	"github.com/mailgun/mailgun-go/v4"
)

// Notifier delivers account notifications through Mailgun.
type Notifier struct {
	client *mailgun.MailgunImpl
	from   string
}

// New creates a Notifier for the given Mailgun domain and API key. The
// from address is used as the sender on every message.
func New(domain, apiKey, from string) *Notifier {
	return &Notifier{
		client: mailgun.NewMailgun(domain, apiKey),
		from:   from,
	}
}

var _ accounts.Notifier = (*Notifier)(nil)

// Send satisfies the accounts.Notifier interface. A failed delivery is
// returned to the caller; flows classify it without rolling back.
func (n *Notifier) Send(ctx context.Context, toAddress, subject, htmlBody string) error {
	message := n.client.NewMessage(n.from, subject, "", toAddress)
	message.SetHtml(htmlBody)

	if _, _, err := n.client.Send(ctx, message); err != nil {
		return fmt.Errorf("mailgun send to %s: %w", toAddress, err)
	}

	return nil
}
