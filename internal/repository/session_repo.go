package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fieldline/workdesk/internal/models"
	"go.uber.org/zap"
)

// SessionRepository handles login session database operations
type SessionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sql.DB, logger *zap.Logger) *SessionRepository {
	return &SessionRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new session
func (r *SessionRepository) Create(tx *sql.Tx, session *models.Session) error {
	query := `
		INSERT INTO sessions (token, user_uid, created_at, expires_at)
		VALUES (?, ?, ?, ?)
	`

	var err error
	if tx != nil {
		_, err = tx.Exec(query, session.Token, session.UserUID, session.CreatedAt, session.ExpiresAt)
	} else {
		_, err = r.db.Exec(query, session.Token, session.UserUID, session.CreatedAt, session.ExpiresAt)
	}

	if err != nil {
		r.logger.Error("Failed to create session", zap.String("user_uid", session.UserUID), zap.Error(err))
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetByToken retrieves a session by its token. Returns (nil, nil) when absent.
func (r *SessionRepository) GetByToken(token string) (*models.Session, error) {
	query := `
		SELECT token, user_uid, created_at, expires_at
		FROM sessions
		WHERE token = ?
	`

	var session models.Session
	err := r.db.QueryRow(query, token).Scan(
		&session.Token,
		&session.UserUID,
		&session.CreatedAt,
		&session.ExpiresAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get session", zap.Error(err))
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}

// Delete removes a session by token
func (r *SessionRepository) Delete(token string) error {
	query := `DELETE FROM sessions WHERE token = ?`

	if _, err := r.db.Exec(query, token); err != nil {
		r.logger.Error("Failed to delete session", zap.Error(err))
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// DeleteForUser removes every session belonging to a user
func (r *SessionRepository) DeleteForUser(tx *sql.Tx, userUID string) error {
	query := `DELETE FROM sessions WHERE user_uid = ?`

	var err error
	if tx != nil {
		_, err = tx.Exec(query, userUID)
	} else {
		_, err = r.db.Exec(query, userUID)
	}

	if err != nil {
		r.logger.Error("Failed to delete user sessions", zap.String("user_uid", userUID), zap.Error(err))
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}

	return nil
}

// DeleteExpired removes sessions past their expiry, returning the count
func (r *SessionRepository) DeleteExpired(now time.Time) (int64, error) {
	query := `DELETE FROM sessions WHERE expires_at <= ?`

	result, err := r.db.Exec(query, now)
	if err != nil {
		r.logger.Error("Failed to delete expired sessions", zap.Error(err))
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return deleted, nil
}
