package email

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

// Service delivers transactional mail.
type Service interface {
	SendPasswordReset(to, token string) error
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	ResetURL string `mapstructure:"reset_url"`
}

type smtpService struct {
	dialer   *gomail.Dialer
	from     string
	resetURL string
}

func NewSMTPService(cfg SMTPConfig) Service {
	return &smtpService{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:     cfg.From,
		resetURL: cfg.ResetURL,
	}
}

func (s *smtpService) SendPasswordReset(to, token string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Password reset")
	m.SetBody("text/html", fmt.Sprintf(
		`<p>A password reset was requested for your account.</p>
		<p><a href="%s?token=%s">Reset your password</a></p>
		<p>The link expires in 15 minutes. If you did not request this, ignore this email.</p>`,
		s.resetURL, token,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}
	return nil
}
