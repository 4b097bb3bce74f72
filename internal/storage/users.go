package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/m3rciful/scriptbot/internal/marketplace"
)

// User is an account of the script platform, optionally linked to Telegram.
type User struct {
	ID         uuid.UUID      `db:"id"`
	Nickname   string         `db:"nickname"`
	TelegramID sql.NullInt64  `db:"telegram_id"`
	LastLogin  sql.NullTime   `db:"last_login"`
	Scripts    pq.StringArray `db:"scripts"`
	CreatedAt  time.Time      `db:"created_at"`
}

// Selection returns the user's selected scripts.
func (u User) Selection() marketplace.Selection {
	return marketplace.NewSelection(u.Scripts...)
}

// UserRepository stores users and link tokens.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository returns a repository backed by db.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, nickname, telegram_id, last_login, scripts, created_at`

// FindByTelegramID returns the user linked to tgID or ErrNotFound.
func (r *UserRepository) FindByTelegramID(ctx context.Context, tgID int64) (User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `
		SELECT `+userColumns+` FROM users
		WHERE telegram_id = $1
	`, tgID)
	if err != nil {
		return User{}, fmt.Errorf("UserRepository.FindByTelegramID: %w", notFound(err))
	}
	return u, nil
}

// Update writes the mutable fields of u.
func (r *UserRepository) Update(ctx context.Context, u User) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET nickname = $1, telegram_id = $2, last_login = $3, scripts = $4
		WHERE id = $5
	`, u.Nickname, u.TelegramID, u.LastLogin, u.Scripts, u.ID)
	if err != nil {
		return fmt.Errorf("UserRepository.Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("UserRepository.Update: %w", ErrNotFound)
	}
	return nil
}

// LinkByToken binds tgID to the owner of an unused, unexpired token and
// burns the token. It reports false when the token is unknown or spent.
func (r *UserRepository) LinkByToken(ctx context.Context, token string, tgID int64) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("UserRepository.LinkByToken: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var userID uuid.UUID
	err = tx.GetContext(ctx, &userID, `
		SELECT user_id FROM link_tokens
		WHERE token = $1 AND used_at IS NULL AND expires_at > NOW()
		FOR UPDATE
	`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("UserRepository.LinkByToken: lookup: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE users SET telegram_id = $1, last_login = NOW() WHERE id = $2
	`, tgID, userID); err != nil {
		return false, fmt.Errorf("UserRepository.LinkByToken: link: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE link_tokens SET used_at = NOW() WHERE token = $1
	`, token); err != nil {
		return false, fmt.Errorf("UserRepository.LinkByToken: burn: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("UserRepository.LinkByToken: commit: %w", err)
	}
	return true, nil
}

// UnlinkTelegram clears the Telegram link of userID.
func (r *UserRepository) UnlinkTelegram(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE users SET telegram_id = NULL WHERE id = $1
	`, userID); err != nil {
		return fmt.Errorf("UserRepository.UnlinkTelegram: %w", err)
	}
	return nil
}

// FindLoggedInSince returns users whose last login is at or after since,
// most recent first.
func (r *UserRepository) FindLoggedInSince(ctx context.Context, since time.Time) ([]User, error) {
	var users []User
	if err := r.db.SelectContext(ctx, &users, `
		SELECT `+userColumns+` FROM users
		WHERE last_login >= $1
		ORDER BY last_login DESC
	`, since); err != nil {
		return nil, fmt.Errorf("UserRepository.FindLoggedInSince: %w", err)
	}
	return users, nil
}

// LoadSelection returns the stored selection of userID.
func (r *UserRepository) LoadSelection(ctx context.Context, userID uuid.UUID) (marketplace.Selection, error) {
	var names pq.StringArray
	err := r.db.GetContext(ctx, &names, `SELECT scripts FROM users WHERE id = $1`, userID)
	if err != nil {
		return marketplace.Selection{}, fmt.Errorf("UserRepository.LoadSelection: %w", notFound(err))
	}
	return marketplace.NewSelection(names...), nil
}

// SaveSelection overwrites the stored selection of userID.
func (r *UserRepository) SaveSelection(ctx context.Context, userID uuid.UUID, sel marketplace.Selection) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE users SET scripts = $1 WHERE id = $2
	`, pq.StringArray(sel.Names()), userID); err != nil {
		return fmt.Errorf("UserRepository.SaveSelection: %w", err)
	}
	return nil
}
