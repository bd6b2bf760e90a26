package services

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/config"
)

func newTestAuthService() *AuthService {
	return NewAuthService(config.JWTConfig{
		Secret:      "test-secret-key",
		ExpiryHours: 24,
	})
}

func TestIssueAndAuthorize(t *testing.T) {
	svc := newTestAuthService()

	token, err := svc.IssueToken("ops", ScopeAdmin)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	if token == "" {
		t.Fatal("token should not be empty")
	}

	claims, err := svc.Authorize(token, ScopeAdmin)
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if claims.Operator != "ops" {
		t.Errorf("Operator = %q, want %q", claims.Operator, "ops")
	}
	if claims.Subject != "ops" || claims.Issuer != tokenIssuer {
		t.Errorf("Subject, Issuer = %q, %q", claims.Subject, claims.Issuer)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Error("ExpiresAt and IssuedAt should be set")
	}
}

func TestAuthorizeScopes(t *testing.T) {
	svc := newTestAuthService()
	admin, _ := svc.IssueToken("ops", ScopeAdmin)
	reader, _ := svc.IssueToken("dashboard", ScopeRead)

	tests := []struct {
		name    string
		token   string
		scope   string
		wantErr error
	}{
		{"admin reads", admin, ScopeRead, nil},
		{"admin administers", admin, ScopeAdmin, nil},
		{"reader reads", reader, ScopeRead, nil},
		{"reader cannot administer", reader, ScopeAdmin, ErrInsufficientScope},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authorize(tt.token, tt.scope)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Authorize() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAuthorizeRejects(t *testing.T) {
	svc := newTestAuthService()

	t.Run("malformed", func(t *testing.T) {
		if _, err := svc.Authorize("invalid.token.string", ScopeRead); err == nil {
			t.Error("expected error for invalid token")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewAuthService(config.JWTConfig{Secret: "secret-2", ExpiryHours: 24})
		token, _ := other.IssueToken("ops", ScopeAdmin)
		if _, err := svc.Authorize(token, ScopeRead); err == nil {
			t.Error("expected error when validating with wrong secret")
		}
	})

	t.Run("expired", func(t *testing.T) {
		expired := NewAuthService(config.JWTConfig{Secret: "test-secret-key", ExpiryHours: -1})
		token, err := expired.IssueToken("ops", ScopeAdmin)
		if err != nil {
			t.Fatalf("IssueToken failed: %v", err)
		}
		if _, err := svc.Authorize(token, ScopeRead); !errors.Is(err, jwt.ErrTokenExpired) {
			t.Errorf("error = %v, want token expired", err)
		}
	})

	t.Run("foreign issuer", func(t *testing.T) {
		token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			Scope: ScopeAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "someone-else",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString([]byte("test-secret-key"))
		if _, err := svc.Authorize(token, ScopeRead); !errors.Is(err, jwt.ErrTokenInvalidIssuer) {
			t.Errorf("error = %v, want invalid issuer", err)
		}
	})
}

func TestIssueTokenErrors(t *testing.T) {
	if _, err := NewAuthService(config.JWTConfig{}).IssueToken("ops", ScopeAdmin); !errors.Is(err, ErrAuthDisabled) {
		t.Errorf("error = %v, want ErrAuthDisabled", err)
	}
	if NewAuthService(config.JWTConfig{}).Enabled() {
		t.Error("Enabled() = true, want false without a secret")
	}
	if _, err := newTestAuthService().IssueToken("ops", "root"); !errors.Is(err, ErrUnknownScope) {
		t.Errorf("error = %v, want ErrUnknownScope", err)
	}
}
