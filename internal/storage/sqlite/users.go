package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mmynk/scrtch/internal/models"
)

const userColumns = "id, email, display_name, password_hash, oidc_subject, created_at, updated_at"

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		nullString(user.OIDCSubject),
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.getUser(ctx, "email", email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.getUser(ctx, "id", id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// GetUserByOIDCSubject retrieves the user linked to a federated identity.
func (s *SQLiteStore) GetUserByOIDCSubject(ctx context.Context, subject string) (*models.User, error) {
	user, err := s.getUser(ctx, "oidc_subject", subject)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by OIDC subject: %w", err)
	}
	return user, nil
}

// SetUserOIDCSubject links a federated identity to an existing user.
func (s *SQLiteStore) SetUserOIDCSubject(ctx context.Context, userID, subject string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET oidc_subject = ?, updated_at = ? WHERE id = ?",
		subject, time.Now().Unix(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to link OIDC subject: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user not found: %s", userID)
	}
	return nil
}

// getUser looks a user up by a single column. Returns nil, nil when absent.
func (s *SQLiteStore) getUser(ctx context.Context, column, value string) (*models.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE " + column + " = ?"

	user := &models.User{}
	var subject sql.NullString
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&subject,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil // User not found
	}
	if err != nil {
		return nil, err
	}

	user.OIDCSubject = subject.String
	return user, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
