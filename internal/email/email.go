package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/medilink/pharmacare-api/internal/config"
)

// Service sends transactional notifications.
type Service interface {
	SendClaimSubmitted(ctx context.Context, to, companyName string, totalAmount float64, itemCount int) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewService(cfg config.EmailConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendClaimSubmitted(_ context.Context, to, companyName string, totalAmount float64, itemCount int) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "New claim report submitted")
	m.SetBody("text/html", fmt.Sprintf(
		"<p>Hello %s,</p><p>A pharmacy has submitted a new claim report covering %d prescriptions for a total of %.2f.</p><p>Please review it in your claims dashboard.</p>",
		companyName, itemCount, totalAmount,
	))

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send claim notification: %w", err)
	}
	return nil
}
