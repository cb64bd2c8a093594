package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fieldline/workdesk/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserRepository handles user account database operations
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new user account
func (r *UserRepository) Create(tx *sql.Tx, user *models.User) error {
	if user.UID == "" {
		user.UID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO users (uid, email, name, role, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	var err error
	if tx != nil {
		_, err = tx.Exec(query, user.UID, user.Email, user.Name, user.Role, user.PasswordHash, user.CreatedAt)
	} else {
		_, err = r.db.Exec(query, user.UID, user.Email, user.Name, user.Role, user.PasswordHash, user.CreatedAt)
	}

	if err != nil {
		r.logger.Error("Failed to create user", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByEmail retrieves a user by email. Returns (nil, nil) when absent.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := `
		SELECT uid, email, name, role, password_hash, created_at
		FROM users
		WHERE email = ?
	`

	var user models.User
	err := r.db.QueryRow(query, email).Scan(
		&user.UID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user by email", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GetByUID retrieves a user by UID. Returns (nil, nil) when absent.
func (r *UserRepository) GetByUID(uid string) (*models.User, error) {
	query := `
		SELECT uid, email, name, role, password_hash, created_at
		FROM users
		WHERE uid = ?
	`

	var user models.User
	err := r.db.QueryRow(query, uid).Scan(
		&user.UID,
		&user.Email,
		&user.Name,
		&user.Role,
		&user.PasswordHash,
		&user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user by UID", zap.String("uid", uid), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// List retrieves all user accounts, oldest first
func (r *UserRepository) List() ([]*models.User, error) {
	query := `
		SELECT uid, email, name, role, password_hash, created_at
		FROM users
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		r.logger.Error("Failed to list users", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.UID,
			&user.Email,
			&user.Name,
			&user.Role,
			&user.PasswordHash,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	return users, rows.Err()
}
