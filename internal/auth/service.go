package auth

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fieldline/workdesk/internal/models"
	"github.com/fieldline/workdesk/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Authentication errors surfaced to the HTTP layer.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("authentication required")
	ErrForbidden          = errors.New("admin access required")
)

// DefaultSessionTTL applies when no session lifetime is configured.
const DefaultSessionTTL = 72 * time.Hour

const minPasswordLength = 8

// UserRepositoryInterface is the subset of the user repository the service needs
type UserRepositoryInterface interface {
	Create(tx *sql.Tx, user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByUID(uid string) (*models.User, error)
}

// SessionRepositoryInterface is the subset of the session repository the service needs
type SessionRepositoryInterface interface {
	Create(tx *sql.Tx, session *models.Session) error
	GetByToken(token string) (*models.Session, error)
	Delete(token string) error
	DeleteForUser(tx *sql.Tx, userUID string) error
}

// Service implements email+password login with opaque bearer-token sessions
type Service struct {
	users    UserRepositoryInterface
	sessions SessionRepositoryInterface
	ttl      time.Duration
	logger   *zap.Logger
}

// NewService creates an authentication service
func NewService(users UserRepositoryInterface, sessions SessionRepositoryInterface, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Service{
		users:    users,
		sessions: sessions,
		ttl:      ttl,
		logger:   logger,
	}
}

// Login verifies the credentials and opens a new session. Unknown email
// and wrong password both return ErrInvalidCredentials, so a caller cannot
// probe which addresses have accounts.
func (s *Service) Login(email, password string) (*models.Session, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Warn("Login rejected", zap.String("email", email))
		return nil, nil, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	session := &models.Session{
		Token:     token,
		UserUID:   user.UID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.sessions.Create(nil, session); err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("User logged in",
		zap.String("uid", user.UID),
		zap.String("email", user.Email))

	return session, user, nil
}

// Logout terminates a session. Unknown tokens are not an error.
func (s *Service) Logout(token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(token)
}

// ResolveActor maps a bearer token to the live actor behind it. Expired
// sessions are removed on sight.
func (s *Service) ResolveActor(token string) (*models.Actor, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	session, err := s.sessions.GetByToken(token)
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil {
		return nil, ErrUnauthorized
	}

	if session.Expired(time.Now().UTC()) {
		if err := s.sessions.Delete(token); err != nil {
			s.logger.Warn("Failed to remove expired session", zap.Error(err))
		}
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetByUID(session.UserUID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		// Account removed while the session was live.
		if err := s.sessions.Delete(token); err != nil {
			s.logger.Warn("Failed to remove orphaned session", zap.Error(err))
		}
		return nil, ErrUnauthorized
	}

	return &models.Actor{
		UID:   user.UID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}, nil
}

// EnsureAdmin resolves the actor and requires the admin role. A non-admin
// account presenting itself at the admin surface has every session revoked.
func (s *Service) EnsureAdmin(token string) (*models.Actor, error) {
	actor, err := s.ResolveActor(token)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		s.logger.Warn("Non-admin session terminated at admin surface",
			zap.String("uid", actor.UID),
			zap.String("email", actor.Email))
		if err := s.sessions.DeleteForUser(nil, actor.UID); err != nil {
			s.logger.Error("Failed to revoke sessions", zap.String("uid", actor.UID), zap.Error(err))
		}
		return nil, ErrForbidden
	}

	return actor, nil
}

// CreateUser registers an account with a bcrypt-hashed password
func (s *Service) CreateUser(email, name, password string, role models.Role) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := utils.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrValidation, err)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", models.ErrValidation, minPasswordLength)
	}
	if role != models.RoleAdmin && role != models.RoleStaff {
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrValidation, role)
	}

	existing, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: account %s already exists", models.ErrValidation, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		Role:         role,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(nil, user); err != nil {
		return nil, err
	}

	s.logger.Info("User created",
		zap.String("uid", user.UID),
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)))

	return user, nil
}

// EnsureBootstrapAdmin creates the configured admin account on first start.
// An existing account with the same email is left untouched.
func (s *Service) EnsureBootstrapAdmin(email, name, password string) error {
	if email == "" {
		return nil
	}

	existing, err := s.users.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return fmt.Errorf("failed to look up bootstrap admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	if _, err := s.CreateUser(email, name, password, models.RoleAdmin); err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}
	return nil
}

// newToken returns a 256-bit random token in hex.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
