package services

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/richardquay/urg-ride-maker/internal/config"
)

func testAuthService(t *testing.T) *AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return NewAuthService(&config.Config{
		AdminUsername:     "admin",
		AdminPasswordHash: string(hash),
		JWTSecret:         "test-secret",
	})
}

func TestLoginAndValidate(t *testing.T) {
	svc := testAuthService(t)

	token, err := svc.Login("admin", "hunter2")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	sub, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if sub != "admin" {
		t.Errorf("expected subject admin, got %s", sub)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := testAuthService(t)
	if _, err := svc.Login("admin", "wrong"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginWrongUsername(t *testing.T) {
	svc := testAuthService(t)
	if _, err := svc.Login("root", "hunter2"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginDisabledWithoutHash(t *testing.T) {
	svc := NewAuthService(&config.Config{AdminUsername: "admin", JWTSecret: "s"})
	if _, err := svc.Login("admin", "anything"); err != ErrInvalidCredentials {
		t.Errorf("expected ErrInvalidCredentials when unconfigured, got %v", err)
	}
}

func TestValidateGarbageToken(t *testing.T) {
	svc := testAuthService(t)
	if _, err := svc.ValidateToken("not.a.token"); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidateForeignToken(t *testing.T) {
	svc := testAuthService(t)
	other := NewAuthService(&config.Config{
		AdminUsername:     "admin",
		AdminPasswordHash: svc.passwordHash,
		JWTSecret:         "different-secret",
	})
	token, err := other.Login("admin", "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}
