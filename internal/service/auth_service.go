package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"photoboard/api/internal/config"
	"photoboard/api/internal/ids"
	"photoboard/api/internal/security"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Sessions is the server-side session surface. The redis-backed store
// implements it.
type Sessions interface {
	Create(ctx context.Context, sessionID string, ttl time.Duration) error
	Check(ctx context.Context, sessionID string) error
	Revoke(ctx context.Context, sessionID string) error
}

// AuthService gates the dashboard behind a single operator credential.
type AuthService struct {
	sessions Sessions
	cfg      *config.AppConfig
	log      zerolog.Logger
}

func NewAuthService(sessions Sessions, cfg *config.AppConfig, log zerolog.Logger) *AuthService {
	return &AuthService{
		sessions: sessions,
		cfg:      cfg,
		log:      log,
	}
}

// Login verifies the operator password and returns a signed access token
// bound to a fresh session.
func (s *AuthService) Login(ctx context.Context, password string) (string, error) {
	if !s.verify(password) {
		return "", ErrInvalidCredentials
	}

	sessionID := ids.New()
	if err := s.sessions.Create(ctx, sessionID, s.cfg.Auth.SessionTTL); err != nil {
		return "", err
	}

	token, err := security.GenerateAccessToken(s.cfg.Auth.JWTSecret, sessionID, s.cfg.Auth.SessionTTL)
	if err != nil {
		_ = s.sessions.Revoke(ctx, sessionID)
		return "", err
	}

	s.log.Info().Str("session_id", sessionID).Msg("operator logged in")
	return token, nil
}

func (s *AuthService) verify(password string) bool {
	if hash := s.cfg.Auth.AdminPasswordHash; hash != "" {
		ok, err := security.VerifyPassword(password, hash)
		if err != nil {
			s.log.Error().Err(err).Msg("password hash verification failed")
			return false
		}
		return ok
	}

	if s.cfg.Auth.AdminPassword == "" {
		return false
	}
	return security.ComparePlain(password, s.cfg.Auth.AdminPassword)
}

// Validate checks a bearer token and confirms its session is still live.
func (s *AuthService) Validate(ctx context.Context, token string) (*security.AccessClaims, error) {
	claims, err := security.ParseAccessToken(token, s.cfg.Auth.JWTSecret)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Check(ctx, claims.SessionID); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID)
}
