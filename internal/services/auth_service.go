package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/justsurfingit/job-application-tracker/internal/auth"
	"github.com/justsurfingit/job-application-tracker/internal/domain"
	apperrors "github.com/justsurfingit/job-application-tracker/internal/errors"
	"github.com/justsurfingit/job-application-tracker/internal/models"
	"github.com/justsurfingit/job-application-tracker/internal/repository"
)

// Session is what a client receives after signing up or logging in.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      domain.User `json:"user"`
}

type AuthService struct {
	backend  repository.Backend
	sessions *SessionManager
	ttl      time.Duration
	logger   *zap.Logger

	Now func() time.Time
}

func NewAuthService(backend repository.Backend, sessions *SessionManager, ttl time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{backend: backend, sessions: sessions, ttl: ttl, logger: logger, Now: time.Now}
}

// Signup creates an account and logs it in.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (Session, error) {
	if len(password) > auth.MaxPasswordBytes {
		return Session{}, apperrors.Validation("password must be at most 72 bytes", auth.ErrPasswordTooLong)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return Session{}, apperrors.Internal("hashing password", err)
	}

	user, err := s.backend.CreateUser(ctx, models.User{
		Email:        normalizeEmail(email),
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return Session{}, apperrors.Conflict("an account with this email already exists", err)
	}
	if err != nil {
		return Session{}, apperrors.Backend("creating account", err)
	}

	s.logger.Info("account created", zap.String("user_id", user.ID))
	return s.startSession(ctx, user)
}

// Login checks the credentials, opens a session and loads its job store.
func (s *AuthService) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.backend.FindUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, apperrors.NotAuthenticated("invalid email or password", auth.ErrInvalidCredentials)
	}
	if err != nil {
		return Session{}, apperrors.Backend("finding account", err)
	}
	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return Session{}, apperrors.NotAuthenticated("invalid email or password", err)
	}
	return s.startSession(ctx, *user)
}

// Logout ends the session and discards its job store.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	s.sessions.Close(token)
	if err := s.backend.DeleteSession(ctx, token); err != nil {
		return apperrors.Backend("deleting session", err)
	}
	return nil
}

// Me resolves the user behind token.
func (s *AuthService) Me(ctx context.Context, token string) (*domain.User, error) {
	user, err := s.backend.LookupUser(ctx, token)
	if err != nil {
		return nil, apperrors.Backend("looking up session", err)
	}
	if user == nil {
		return nil, apperrors.NotAuthenticated("Not authenticated", nil)
	}
	return user, nil
}

func (s *AuthService) startSession(ctx context.Context, user models.User) (Session, error) {
	now := s.Now()
	session := models.Session{
		Token:     auth.NewToken(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.backend.CreateSession(ctx, session); err != nil {
		return Session{}, apperrors.Backend("creating session", err)
	}

	// A failed initial load is recorded on the store; the login still stands.
	_, _ = s.sessions.Open(ctx, session.Token, session.ExpiresAt)

	out := Session{Token: session.Token, ExpiresAt: session.ExpiresAt, User: domain.User{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	}}
	if user.AvatarURL != nil {
		out.User.AvatarURL = *user.AvatarURL
	}
	return out, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
