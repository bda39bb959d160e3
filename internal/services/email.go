package services

import (
	"fmt"
	"log"
	"net/smtp"

	"quizforge-backend/internal/config"
)

// EmailQueueKey is the redis list the auth service pushes delivery jobs to
// and the worker pool pops from.
const EmailQueueKey = "queue:email-delivery"

const EmailKindVerification = "verification"

// EmailJob is the queue payload for one outbound email.
type EmailJob struct {
	To   string `json:"to"`
	Kind string `json:"kind"`
	Code string `json:"code,omitempty"`
}

type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

// Deliver dispatches a queued job to the right template.
func (s *EmailService) Deliver(job EmailJob) error {
	switch job.Kind {
	case EmailKindVerification:
		return s.SendVerificationEmail(job.To, job.Code)
	default:
		return fmt.Errorf("unknown email kind: %s", job.Kind)
	}
}

func (s *EmailService) SendVerificationEmail(to, code string) error {
	subject := "Verify your QuizForge account"
	body := fmt.Sprintf(`
		<html>
		<body style="font-family: Arial, sans-serif;">
			<h2>Welcome to QuizForge!</h2>
			<p>Enter this code to verify your email address:</p>
			<p style="font-size: 32px; font-weight: bold; letter-spacing: 6px;">%s</p>
			<p>The code expires in 10 minutes.</p>
			<p>If you didn't create an account, you can safely ignore this email.</p>
		</body>
		</html>
	`, code)

	return s.send(to, subject, body)
}

func (s *EmailService) send(to, subject, htmlBody string) error {
	// In development mode without SMTP configured, log instead of sending
	if s.cfg.Env == "development" && s.cfg.SMTPHost == "" {
		log.Printf("[Email] (dev mode) To: %s, Subject: %s", to, subject)
		log.Printf("[Email] Body: %s", htmlBody)
		return nil
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.cfg.SMTPFrom, to, subject, htmlBody,
	))

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	if err := smtp.SendMail(addr, auth, s.cfg.SMTPFrom, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	log.Printf("[Email] Sent %q to %s", subject, to)
	return nil
}
