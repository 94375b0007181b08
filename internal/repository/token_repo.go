package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrResetNotFound is returned when a reset token is unknown or expired.
var ErrResetNotFound = errors.New("reset token not found or expired")

type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

var _ Tokens = (*TokenRepository)(nil)

const (
	insertResetSQL   = `INSERT INTO password_resets (token, user_id, expires_at) VALUES (?, ?, ?)`
	selectResetSQL   = `SELECT user_id, expires_at FROM password_resets WHERE token = ?`
	deleteResetSQL   = `DELETE FROM password_resets WHERE token = ?`
	insertRevokedSQL = `INSERT OR IGNORE INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`
	selectRevokedSQL = `SELECT 1 FROM revoked_tokens WHERE jti = ?`
)

func (r *TokenRepository) SaveReset(ctx context.Context, token, userID string, expiresAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, insertResetSQL, token, userID, expiresAt.UTC()); err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}
	return nil
}

// ConsumeReset deletes the token and returns its user id. A token is usable once.
func (r *TokenRepository) ConsumeReset(ctx context.Context, token string, now time.Time) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin reset tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		userID    string
		expiresAt time.Time
	)
	if err := tx.QueryRowContext(ctx, selectResetSQL, token).Scan(&userID, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrResetNotFound
		}
		return "", fmt.Errorf("select reset token: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deleteResetSQL, token); err != nil {
		return "", fmt.Errorf("delete reset token: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit reset tx: %w", err)
	}
	if !now.Before(expiresAt) {
		return "", ErrResetNotFound
	}
	return userID, nil
}

func (r *TokenRepository) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, insertRevokedSQL, jti, expiresAt.UTC()); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *TokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, selectRevokedSQL, jti).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("select revoked token: %w", err)
	}
	return true, nil
}
