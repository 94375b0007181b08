package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"homedash/internal/models"

	"github.com/google/uuid"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Ensure implementation of Authorization interface at compile time.
var _ Authorization = (*UserRepository)(nil)

// ErrEmailTaken is returned by Create when the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

const (
	insertUserSQL        = `INSERT INTO users (id, email, password_hash) VALUES (?, ?, ?)`
	selectUserByEmailSQL = `SELECT id, email, password_hash FROM users WHERE email = ?`
	selectUserByIDSQL    = `SELECT id, email, password_hash FROM users WHERE id = ?`
	updatePasswordSQL    = `UPDATE users SET password_hash = ? WHERE id = ?`
	selectEmailExistsSQL = `SELECT 1 FROM users WHERE email = ?`
)

// Create inserts a new user and returns its generated UID.
func (r *UserRepository) Create(email, passwordHash string) (string, error) {
	var one int
	err := r.db.QueryRow(selectEmailExistsSQL, email).Scan(&one)
	switch {
	case err == nil:
		return "", ErrEmailTaken
	case !errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("check user %q: %w", email, err)
	}

	id := uuid.NewString()
	if _, err := r.db.Exec(insertUserSQL, id, email, passwordHash); err != nil {
		return "", fmt.Errorf("insert user %q: %w", email, err)
	}
	return id, nil
}

// GetByEmail fetches a user by email. Returns (nil, nil) if not found.
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	return r.getOne(selectUserByEmailSQL, email)
}

// GetByID fetches a user by UID. Returns (nil, nil) if not found.
func (r *UserRepository) GetByID(id string) (*models.User, error) {
	return r.getOne(selectUserByIDSQL, id)
}

func (r *UserRepository) getOne(query, arg string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select user %q: %w", arg, err)
	}
	return &u, nil
}

// UpdatePassword replaces the stored hash for a user.
func (r *UserRepository) UpdatePassword(id, passwordHash string) error {
	res, err := r.db.Exec(updatePasswordSQL, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password for %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %q: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("update password for %q: %w", id, sql.ErrNoRows)
	}
	return nil
}
