package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"tablebook/pkg/auth"
	"tablebook/pkg/config"
	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/logger"

	jwt "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		AdminUsername: "admin",
		AdminPassword: "123",
		JWTSecret:     "secret",
		JWTTTL:        time.Hour,
		Log:           logger.Discard(),
	}
}

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword() error = %v", err)
	}

	tests := []struct {
		name     string
		mutate   func(cfg *config.Config)
		username string
		password string
		wantErr  bool
	}{
		{name: "plain password", username: "admin", password: "123"},
		{name: "wrong password", username: "admin", password: "1234", wantErr: true},
		{name: "wrong username", username: "root", password: "123", wantErr: true},
		{name: "empty credentials", wantErr: true},
		{
			name:     "hash takes precedence",
			mutate:   func(cfg *config.Config) { cfg.AdminPasswordHash = string(hash) },
			username: "admin",
			password: "s3cret",
		},
		{
			name:     "plain password ignored when hash set",
			mutate:   func(cfg *config.Config) { cfg.AdminPasswordHash = string(hash) },
			username: "admin",
			password: "123",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			svc, err := NewAdminService(cfg)
			if err != nil {
				t.Fatalf("NewAdminService() error = %v", err)
			}

			result, err := svc.Login(context.Background(), tt.username, tt.password)
			if tt.wantErr {
				appErr := apperrors.AsAppError(err)
				if appErr == nil || appErr.Code != apperrors.CodeUnauthorized || appErr.HTTPStatus != http.StatusUnauthorized {
					t.Fatalf("expected UNAUTHORIZED, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}

			claims := &auth.Claims{}
			_, err = jwt.ParseWithClaims(result.Token, claims, func(*jwt.Token) (any, error) {
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil {
				t.Fatalf("issued token does not validate: %v", err)
			}
			if claims.Role != auth.RoleAdmin || claims.Subject != "admin" {
				t.Errorf("unexpected claims %+v", claims)
			}
			if !result.ExpiresAt.After(time.Now()) {
				t.Errorf("expected future expiry, got %v", result.ExpiresAt)
			}
		})
	}
}

func TestNewAdminService_RejectsMalformedHash(t *testing.T) {
	cfg := testConfig()
	cfg.AdminPasswordHash = "not-a-bcrypt-hash"
	if _, err := NewAdminService(cfg); err == nil {
		t.Error("expected error for malformed hash")
	}
}
