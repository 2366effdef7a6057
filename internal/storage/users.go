package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/mindzap/internal/domain"
)

const userColumns = `id, username, password_hash, full_name, phone_number, country, created_at`

// CreateUser inserts u and sets its ID and CreatedAt.
func (db *DB) CreateUser(ctx context.Context, u *domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	err := db.conn.QueryRowxContext(ctx, db.rebind(`
		INSERT INTO users (username, password_hash, full_name, phone_number, country, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`), u.Username, u.PasswordHash, u.FullName, u.PhoneNumber, u.Country, u.CreatedAt.UTC()).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to insert user %s: %w", u.Username, err)
	}
	return nil
}

// FindUserByUsername returns ErrUserNotFound when no such user exists.
func (db *DB) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := db.conn.GetContext(ctx, &u, db.rebind(`SELECT `+userColumns+` FROM users WHERE username = ?`), username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user %s: %w", username, err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// FindUserByID returns ErrUserNotFound when no such user exists.
func (db *DB) FindUserByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := db.conn.GetContext(ctx, &u, db.rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user %d: %w", id, err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// UpdateProfile applies the non-nil fields of upd and returns the updated user.
func (db *DB) UpdateProfile(ctx context.Context, userID int64, upd domain.ProfileUpdate) (*domain.User, error) {
	u, err := db.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if upd.FullName != nil {
		u.FullName = *upd.FullName
	}
	if upd.PhoneNumber != nil {
		u.PhoneNumber = *upd.PhoneNumber
	}
	if upd.Country != nil {
		u.Country = *upd.Country
	}

	_, err = db.conn.ExecContext(ctx, db.rebind(`
		UPDATE users SET full_name = ?, phone_number = ?, country = ? WHERE id = ?
	`), u.FullName, u.PhoneNumber, u.Country, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile for user %d: %w", userID, err)
	}
	return u, nil
}

// UpdateCredentials changes the username and/or password hash. Nil arguments are left as they are.
func (db *DB) UpdateCredentials(ctx context.Context, userID int64, username, passwordHash *string) (*domain.User, error) {
	u, err := db.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if username != nil {
		u.Username = *username
	}
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}

	_, err = db.conn.ExecContext(ctx, db.rebind(`
		UPDATE users SET username = ?, password_hash = ? WHERE id = ?
	`), u.Username, u.PasswordHash, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to update credentials for user %d: %w", userID, err)
	}
	return u, nil
}
