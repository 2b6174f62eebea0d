// Package notifier delivers rendered run reports.
package notifier

import (
	"fmt"
	"log/slog"

	"github.com/ibeckermayer/leadscout/internal/config"
	"github.com/ibeckermayer/leadscout/internal/notifier/providers"
	"github.com/ibeckermayer/leadscout/internal/report"
)

// Notifier handles sending report notifications
type Notifier struct {
	sender Sender
	to     string
}

// Sender defines the interface for email sending
type Sender interface {
	Send(to, subject, htmlBody, plainBody string) error
}

// New creates a new notifier delivering to the given address
func New(sender Sender, to string) *Notifier {
	return &Notifier{sender: sender, to: to}
}

// NewFromConfig creates a notifier based on configuration. It returns nil
// and no error when email is not configured.
func NewFromConfig(cfg config.EmailConfig) (*Notifier, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	var sender Sender

	switch cfg.Provider {
	case "", "smtp":
		sender = providers.NewSMTPSender(
			cfg.SMTPHost,
			cfg.SMTPPort,
			cfg.SMTPUser,
			cfg.SMTPPass,
			cfg.FromAddr,
		)
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.Provider)
	}

	return New(sender, cfg.ToAddr), nil
}

// SendReport emails a rendered run report
func (n *Notifier) SendReport(r *report.Rendered) error {
	if err := n.sender.Send(n.to, r.Subject, r.HTMLBody, r.PlainBody); err != nil {
		return err
	}
	slog.Info("[notifier] report sent", "to", n.to, "subject", r.Subject)
	return nil
}
