package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"tablebook/pkg/auth"
	"tablebook/pkg/config"
	apperrors "tablebook/pkg/errors"

	"golang.org/x/crypto/bcrypt"
)

const invalidCredentialsMessage = "Invalid credentials"

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
}

type AdminService interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
}

type adminService struct {
	username     string
	passwordHash []byte
	jwtSecret    string
	jwtTTL       time.Duration
	cfg          *config.Config
}

// NewAdminService prefers AdminPasswordHash and otherwise hashes the plain
// AdminPassword once at startup.
func NewAdminService(cfg *config.Config) (AdminService, error) {
	hash := []byte(cfg.AdminPasswordHash)
	if len(hash) == 0 {
		generated, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		hash = generated
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, fmt.Errorf("invalid admin password hash: %w", err)
	}

	return &adminService{
		username:     cfg.AdminUsername,
		passwordHash: hash,
		jwtSecret:    cfg.JWTSecret,
		jwtTTL:       cfg.JWTTTL,
		cfg:          cfg,
	}, nil
}

func (s *adminService) Login(_ context.Context, username, password string) (*LoginResult, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	// bcrypt runs even when the username does not match.
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		s.cfg.Log.Warn("Admin login rejected", "username", username)
		return nil, apperrors.Unauthorized(invalidCredentialsMessage)
	}

	token, expiresAt, err := auth.CreateAccessToken(s.jwtSecret, s.username, auth.RoleAdmin, s.jwtTTL)
	if err != nil {
		s.cfg.Log.Error("Failed to issue admin token", "error", err)
		return nil, apperrors.Internal("Failed to issue token", err)
	}

	s.cfg.Log.Info("Admin login succeeded", "username", username)
	return &LoginResult{Token: token, ExpiresAt: expiresAt}, nil
}
