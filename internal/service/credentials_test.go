package service

import (
	"errors"
	"testing"
)

func TestCredentials(t *testing.T) {
	creds, err := NewCredentials("watson", "s3cret")
	if err != nil {
		t.Fatalf("new credentials: %v", err)
	}
	if creds.Username() != "watson" {
		t.Fatalf("unexpected username %q", creds.Username())
	}
	if err := creds.Authenticate("watson", "s3cret"); err != nil {
		t.Fatalf("expected valid credentials, got %v", err)
	}
	if err := creds.Authenticate("watson", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad password, got %v", err)
	}
	if err := creds.Authenticate("other", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for bad username, got %v", err)
	}

	if _, err := NewCredentials(" ", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected error for empty username, got %v", err)
	}
	var nilCreds *Credentials
	if err := nilCreds.Authenticate("watson", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected error for nil credentials, got %v", err)
	}
}
