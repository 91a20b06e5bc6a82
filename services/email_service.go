package services

import (
	"fmt"
	"net/smtp"
)

// Notifier sends alert notifications. Failures are best-effort: the caller
// logs them and the trigger stands regardless.
type Notifier interface {
	SendAlertEmail(toEmail, symbol string, price float64, condition string) error
}

// EmailService sends alert emails over SMTP with STARTTLS
type EmailService struct {
	host string
	port string
	user string
	pass string
}

// NewEmailService creates an SMTP notifier
func NewEmailService(host, port, user, pass string) *EmailService {
	return &EmailService{host: host, port: port, user: user, pass: pass}
}

// SendAlertEmail sends a triggered-alert email to the owner
func (s *EmailService) SendAlertEmail(toEmail, symbol string, price float64, condition string) error {
	subject := fmt.Sprintf("Stock Alert: %s price is %s $%.2f", symbol, condition, price)
	body := fmt.Sprintf(
		"Your alert has been triggered!\r\nStock: %s\r\nCurrent Price: $%.2f\r\nCondition: Price is %s your target\r\n",
		symbol, price, condition,
	)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.user, toEmail, subject, body,
	))

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	addr := s.host + ":" + s.port

	if err := smtp.SendMail(addr, auth, s.user, []string{toEmail}, msg); err != nil {
		return fmt.Errorf("failed to send alert email to %s: %w", toEmail, err)
	}
	return nil
}
