package email

import (
	"fmt"
	"net/smtp"

	"github.com/Dan9191/outbreak-estimator/internal/config"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendCapacityAlert warns that the severe projection for a region exceeds
// the hospital beds available for severe cases
func (s *Sender) SendCapacityAlert(to, region string, deficit int64, days int) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Hospital capacity alert: %s", regionName(region))

	body := fmt.Sprintf(
		"The severe outbreak projection for %s exceeds available hospital beds.\n\n"+
			"Projected bed shortfall after %d days: %d\n\n"+
			"This estimate assumes infections double every 3 days and that 35%% of beds are available for severe cases.\n",
		regionName(region), days, -deficit,
	)
	body += "\nOutbreak Estimator"
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send capacity alert to %s: %v", to, err)
		return fmt.Errorf("failed to send capacity alert: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

func regionName(name string) string {
	if name == "" {
		return "unnamed region"
	}
	return name
}
