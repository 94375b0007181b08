package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"homedash/internal/logger"
	"homedash/internal/models"
	"homedash/internal/repository"
	"homedash/internal/store"
)

var (
	ErrInvalidHomeID    = errors.New("invalid home id: use 3-32 letters, digits, '_' or '-'")
	ErrHomeAlreadyBound = errors.New("account is already bound to another home")
	ErrHomeNotBound     = errors.New("no home bound to this account")
	homeIDPattern       = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)
)

// ValidateHomeID checks the home id format.
func ValidateHomeID(id string) error {
	if !homeIDPattern.MatchString(id) {
		return ErrInvalidHomeID
	}
	return nil
}

// HomeService resolves and binds the home of a user.
type HomeService struct {
	store     store.Store
	eventRepo repository.EventRepo
	log       *logger.Logger
}

func NewHomeService(st store.Store, eventRepo repository.EventRepo, log *logger.Logger) *HomeService {
	return &HomeService{store: st, eventRepo: eventRepo, log: log}
}

// Resolve returns the home id bound to uid, or "" when there is none.
func (s *HomeService) Resolve(ctx context.Context, uid string) (string, error) {
	p, err := store.UserHomePath(uid)
	if err != nil {
		return "", err
	}
	snap, err := s.store.Read(ctx, p)
	if err != nil {
		return "", fmt.Errorf("resolve home: %w", err)
	}
	return homeFromSnapshot(snap), nil
}

// Associate binds uid to the home id typed by the user and returns the
// cleaned id. A binding never changes once made; submitting the same id
// again is a no-op.
func (s *HomeService) Associate(ctx context.Context, uid, raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if err := ValidateHomeID(id); err != nil {
		return "", err
	}

	current, err := s.Resolve(ctx, uid)
	if err != nil {
		return "", err
	}
	switch current {
	case id:
		return id, nil
	case "":
	default:
		return "", ErrHomeAlreadyBound
	}

	p, err := store.UserHomePath(uid)
	if err != nil {
		return "", err
	}
	if err := s.store.Write(ctx, p, id); err != nil {
		return "", fmt.Errorf("bind home: %w", err)
	}

	recordEvent(ctx, s.eventRepo, s.log, models.HomeEvent{
		HomeID:      id,
		Type:        models.EventHomeBound,
		Description: "Account bound to home " + id,
		Metadata:    map[string]any{"uid": uid},
	})
	return id, nil
}

// WatchHome streams the home id bound to uid; "" means unbound.
func (s *HomeService) WatchHome(ctx context.Context, uid string) (<-chan string, error) {
	p, err := store.UserHomePath(uid)
	if err != nil {
		return nil, err
	}
	snaps, err := s.store.Subscribe(ctx, p, nil)
	if err != nil {
		return nil, err
	}
	out := make(chan string)
	go func() {
		defer close(out)
		for snap := range snaps {
			select {
			case out <- homeFromSnapshot(snap):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func homeFromSnapshot(snap store.Snapshot) string {
	var id any
	if err := snap.Decode(&id); err != nil {
		return ""
	}
	s, _ := id.(string)
	return strings.TrimSpace(s)
}
