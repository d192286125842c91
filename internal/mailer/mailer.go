package mailer

import (
	"context"
	"fmt"

	"github.com/metrobox/forestry-pots/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"
)

// Mailer is the narrow outbound-mail contract the portal depends on. Delivery
// is best-effort: callers log failures and move on.
type Mailer interface {
	SendRFPReceived(ctx context.Context, to, userName string, rfpID string) error
	SendAccessRequestNotice(ctx context.Context, name, company, email string) error
	SendAccessApproved(ctx context.Context, to, name, tempPassword string) error
}

// Module provides the configured Mailer implementation.
var Module = fx.Module("mailer",
	fx.Provide(New),
)

// New returns an SMTP mailer, or a logging no-op when SMTP is unconfigured.
func New(cfg config.Config, log *zap.Logger) Mailer {
	if !cfg.MailEnabled() {
		log.Info("smtp not configured, outbound mail disabled")
		return &noopMailer{log: log.Named("mailer")}
	}
	return &smtpMailer{
		cfg:    cfg.SMTP,
		dialer: gomail.NewDialer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password),
		log:    log.Named("mailer"),
	}
}

type smtpMailer struct {
	cfg    config.SMTPConfig
	dialer *gomail.Dialer
	log    *zap.Logger
}

func (m *smtpMailer) SendRFPReceived(ctx context.Context, to, userName string, rfpID string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nWe received your request for proposal (reference %s). Our team will get back to you shortly.\n\nForestry Pots",
		userName, rfpID,
	)
	return m.send(to, "Your RFP has been received", body)
}

func (m *smtpMailer) SendAccessRequestNotice(ctx context.Context, name, company, email string) error {
	if m.cfg.AdminTo == "" {
		return nil
	}
	body := fmt.Sprintf(
		"New portal access request:\n\nName: %s\nCompany: %s\nEmail: %s\n",
		name, company, email,
	)
	return m.send(m.cfg.AdminTo, "New access request", body)
}

func (m *smtpMailer) SendAccessApproved(ctx context.Context, to, name, tempPassword string) error {
	body := fmt.Sprintf(
		"Hi %s,\n\nYour access to the Forestry Pots portal has been approved.\nTemporary password: %s\n\nPlease change it after your first login.",
		name, tempPassword,
	)
	return m.send(to, "Portal access approved", body)
}

func (m *smtpMailer) send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.log.Error("send mail failed", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		return err
	}
	return nil
}

type noopMailer struct {
	log *zap.Logger
}

func (m *noopMailer) SendRFPReceived(ctx context.Context, to, userName string, rfpID string) error {
	m.log.Debug("mail suppressed", zap.String("kind", "rfp_received"), zap.String("to", to))
	return nil
}

func (m *noopMailer) SendAccessRequestNotice(ctx context.Context, name, company, email string) error {
	m.log.Debug("mail suppressed", zap.String("kind", "access_request"), zap.String("email", email))
	return nil
}

func (m *noopMailer) SendAccessApproved(ctx context.Context, to, name, tempPassword string) error {
	m.log.Debug("mail suppressed", zap.String("kind", "access_approved"), zap.String("to", to))
	return nil
}
