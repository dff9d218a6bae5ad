package notifxconsole

import (
	"context"

	"github.com/Abraxas-365/credit-intake/pkg/logx"
	"github.com/Abraxas-365/credit-intake/pkg/notifx"
)

// ConsoleProvider prints emails to the terminal via logx. Intended for development and testing.
type ConsoleProvider struct{}

// NewConsoleProvider creates a new console email provider.
func NewConsoleProvider() *ConsoleProvider {
	return &ConsoleProvider{}
}

// SendEmail logs the email details instead of sending it. Recipients go
// under the "email" key so the logger redacts them.
func (p *ConsoleProvider) SendEmail(ctx context.Context, msg notifx.EmailMessage, opts ...notifx.Option) error {
	so := notifx.ApplyOptions(opts)

	logx.WithContext(ctx).WithFields(logx.Fields{
		"from":       msg.From,
		"email":      msg.To,
		"recipients": len(msg.To),
		"subject":    msg.Subject,
		"tags":       so.Tags,
	}).Info("notifx/console: email sent (dev mode)")

	if msg.TextBody != "" {
		logx.Debugf("notifx/console: text body:\n%s", msg.TextBody)
	}
	if msg.HTMLBody != "" {
		logx.Debugf("notifx/console: html body:\n%s", msg.HTMLBody)
	}

	return nil
}
