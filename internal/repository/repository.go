package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"homedash/internal/models"
)

type Authorization interface {
	Create(email, hash string) (string, error)
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	UpdatePassword(id, hash string) error
}

// Tokens stores password reset tokens and revoked session ids.
type Tokens interface {
	SaveReset(ctx context.Context, token, userID string, expiresAt time.Time) error
	ConsumeReset(ctx context.Context, token string, now time.Time) (string, error)
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Node is one stored document of the realtime tree.
type Node struct {
	Path  string
	Key   string
	Value json.RawMessage
}

// KeyRange bounds a children query. Empty bounds are open; Limit 0 is unlimited.
// With a limit, the last Limit keys of the range are returned.
type KeyRange struct {
	StartAt string
	EndAt   string
	Limit   int
}

type NodeRepo interface {
	Put(ctx context.Context, path string, value json.RawMessage) error
	Delete(ctx context.Context, path string) error
	Subtree(ctx context.Context, path string) ([]Node, error)
	// Children returns the rows at or below the selected direct children of
	// parent, grouped by child key in ascending order.
	Children(ctx context.Context, parent string, r KeyRange) ([]Node, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.HomeEvent) error
	List(ctx context.Context, homeID string, from, to time.Time, typ string) ([]models.HomeEvent, error)
}

type Repository struct {
	Nodes     NodeRepo
	EventRepo EventRepo
	Auth      Authorization
	Tokens    Tokens
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Nodes:     NewNodeSQLite(db),
		EventRepo: NewEventSQLite(db),
		Auth:      NewUserRepository(db),
		Tokens:    NewTokenRepository(db),
	}
}
