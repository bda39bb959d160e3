package services

import (
	"testing"

	"quizforge-backend/internal/config"
)

func TestSendVerificationEmail_DevMode(t *testing.T) {
	svc := NewEmailService(&config.Config{Env: "development"})

	if err := svc.SendVerificationEmail("gopher@example.com", "123456"); err != nil {
		t.Errorf("Dev mode send should log instead of failing, got %v", err)
	}
}

func TestDeliver_UnknownKind(t *testing.T) {
	svc := NewEmailService(&config.Config{Env: "development"})

	if err := svc.Deliver(EmailJob{To: "gopher@example.com", Kind: "newsletter"}); err == nil {
		t.Error("Expected error for unknown email kind")
	}
}

func TestDeliver_Verification(t *testing.T) {
	svc := NewEmailService(&config.Config{Env: "development"})

	if err := svc.Deliver(EmailJob{To: "gopher@example.com", Kind: EmailKindVerification, Code: "123456"}); err != nil {
		t.Errorf("Deliver failed: %v", err)
	}
}
