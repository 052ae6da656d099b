package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/account-dashboard/internal/core/domain"
	"github.com/99minutos/account-dashboard/internal/core/ports"
)

// AuthService implements registration and the session lifecycle. Sessions
// are HS256 JWTs whose jti is tracked in a SessionRegistry, so a token stops
// validating as soon as its session is revoked.
type AuthService struct {
	repo      ports.AuthRepository
	profiles  ports.ProfileProvisioner
	sessions  ports.SessionRegistry
	jwtSecret string
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewAuthService(
	repo ports.AuthRepository,
	profiles ports.ProfileProvisioner,
	sessions ports.SessionRegistry,
	jwtSecret string,
	tokenTTL time.Duration,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		repo:      repo,
		profiles:  profiles,
		sessions:  sessions,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// Register creates an account and its profile record. When the profile
// cannot be created the account is removed again, so registration can be
// retried.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	profile := &domain.Profile{
		ID:        created.ID,
		FirstName: optional(in.FirstName),
		LastName:  optional(in.LastName),
		Email:     &created.Email,
	}
	if err := s.profiles.Provision(ctx, profile); err != nil {
		if delErr := s.repo.Delete(context.WithoutCancel(ctx), created.ID); delErr != nil {
			return nil, fmt.Errorf("provision profile: %w (remove user %s: %v)", err, created.ID, delErr)
		}
		return nil, fmt.Errorf("provision profile: %w", err)
	}
	return created, nil
}

// SignIn checks the credentials and issues a new session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*domain.Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issue(ctx, user.ID, user.Email)
}

// Validate returns the live session behind token.
func (s *AuthService) Validate(ctx context.Context, token string) (*domain.Session, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.Find(ctx, claims.id)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w: %w", domain.ErrAuthFailure, err)
	}
	if session.UserID != claims.userID {
		return nil, domain.ErrSessionNotFound
	}

	session.Token = token
	return session, nil
}

// Refresh issues a new session for the owner of token and revokes the old
// one.
func (s *AuthService) Refresh(ctx context.Context, token string) (*domain.Session, error) {
	old, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	next, err := s.issue(ctx, old.UserID, old.Email)
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Revoke(ctx, old.ID); err != nil {
		_ = s.sessions.Revoke(ctx, next.ID)
		return nil, fmt.Errorf("revoke session: %w: %w", domain.ErrAuthFailure, err)
	}
	return next, nil
}

// SignOut revokes the session behind token. Revoking a session that is
// already gone succeeds.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	if err := s.sessions.Revoke(ctx, claims.id); err != nil {
		return fmt.Errorf("revoke session: %w: %w", domain.ErrAuthFailure, err)
	}
	return nil
}

func (s *AuthService) issue(ctx context.Context, userID, email string) (*domain.Session, error) {
	now := s.now().UTC().Truncate(time.Second)
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: now.Add(s.tokenTTL),
	}

	token, err := s.generateToken(session)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w: %w", domain.ErrAuthFailure, err)
	}
	session.Token = token
	return session, nil
}

func (s *AuthService) generateToken(session *domain.Session) (string, error) {
	claims := jwt.MapClaims{
		"sub":   session.UserID,
		"email": session.Email,
		"jti":   session.ID,
		"iat":   session.CreatedAt.Unix(),
		"exp":   session.ExpiresAt.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

type tokenClaims struct {
	id     string
	userID string
}

func (s *AuthService) parse(token string) (tokenClaims, error) {
	if token == "" {
		return tokenClaims{}, domain.ErrSessionNotFound
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return tokenClaims{}, domain.ErrSessionNotFound
	}

	id, _ := claims["jti"].(string)
	sub, _ := claims.GetSubject()
	if id == "" || sub == "" {
		return tokenClaims{}, domain.ErrSessionNotFound
	}
	return tokenClaims{id: id, userID: sub}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
