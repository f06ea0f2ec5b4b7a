// Package mail implements the confirmation Mailer: a thin SMTP sender for
// the fixed pre-join confirmation template. Transport settings come from
// the environment (see config.SMTPConfig); delivery is a single one-shot
// attempt with no retries. Whether a failure is surfaced or swallowed is
// decided by the caller: the intake path runs the Mailer detached and
// discards errors, while the diagnostic test-email endpoint calls it
// synchronously and reports the first failure.
package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	gomail "github.com/wneessen/go-mail"

	"github.com/vexa-app/go-prejoin-backend/internal/config"
)

// DefaultRecipientName is the generic salutation used when no recipient
// name is available (diagnostic sends without a name parameter).
const DefaultRecipientName = "Değerli Kullanıcı"

// confirmationSubject is the fixed subject of the confirmation message.
const confirmationSubject = "Vexa ön kaydınız alındı"

// confirmationBody is the fixed body template; %s is the recipient name.
// Opaque locale-specific text, not logic.
const confirmationBody = "Merhaba %s,\n\n" +
	"Ön kaydınızı aldık. Lansman ile ilgili ilk siz bilgilendirileceksiniz.\n\n" +
	"Teşekkürler,\nVexa Ekibi"

// sendTimeout bounds one delivery attempt end to end.
const sendTimeout = 10 * time.Second

// emailsTotal counts delivery attempts by outcome ("sent" / "failed").
// Fire-and-forget sends are otherwise invisible to callers; this counter
// and the warn logs are the only place their failures show up.
var emailsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "prejoin_confirmation_emails_total",
		Help: "Confirmation email delivery attempts by outcome.",
	},
	[]string{"outcome"},
)

// Mailer sends the pre-join confirmation message over SMTP.
// The zero value is not usable; construct with New.
type Mailer struct {
	cfg config.SMTPConfig
}

// New returns a Mailer bound to the given SMTP settings.
func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// SendConfirmation builds the confirmation message for recipientName and
// attempts delivery to toEmail. It returns the first failure encountered
// (connection, negotiation, authentication, or send); callers on the
// fire-and-forget path are expected to discard it.
func (m *Mailer) SendConfirmation(ctx context.Context, toEmail, recipientName string) error {
	if recipientName == "" {
		recipientName = DefaultRecipientName
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("invalid from address %q: %w", m.cfg.From, err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", toEmail, err)
	}
	msg.Subject(confirmationSubject)
	msg.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf(confirmationBody, recipientName))

	client, err := gomail.NewClient(m.cfg.Host, m.clientOptions()...)
	if err != nil {
		emailsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		emailsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("send to %s: %w", toEmail, err)
	}
	emailsTotal.WithLabelValues("sent").Inc()
	return nil
}

// clientOptions translates SMTPConfig into go-mail client options.
// STARTTLS is attempted opportunistically, and only on the ports where an
// upgrade is plausible (587/25); everywhere else the session stays plain,
// which is what local dev relays like MailHog on 1025 expect.
func (m *Mailer) clientOptions() []gomail.Option {
	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithTimeout(sendTimeout),
	}
	if m.cfg.StartTLS && (m.cfg.Port == 587 || m.cfg.Port == 25) {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}
	if m.cfg.User != "" && m.cfg.Pass != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.User),
			gomail.WithPassword(m.cfg.Pass),
		)
	}
	return opts
}
