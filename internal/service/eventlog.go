package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"homedash/internal/logger"
	"homedash/internal/models"
	"homedash/internal/repository"

	"github.com/google/uuid"
)

// Event log filter errors.
var (
	ErrInvalidTimeRange = errors.New("invalid time range: from must be <= to")
	ErrUnknownEventType = errors.New("unknown event type")
)

var eventTypes = map[string]bool{
	models.EventLamp:      true,
	models.EventSettings:  true,
	models.EventHomeBound: true,
}

// EventLogService reads the audit trail of a home.
type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

// normalize returns f with UTC bounds and a canonical type. Zero bounds
// stay zero (open range).
func (f LogFilter) normalize() (LogFilter, error) {
	if !f.From.IsZero() {
		f.From = f.From.UTC()
	}
	if !f.To.IsZero() {
		f.To = f.To.UTC()
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return LogFilter{}, ErrInvalidTimeRange
	}

	f.Type = strings.ToUpper(strings.TrimSpace(f.Type))
	if f.Type != "" && !eventTypes[f.Type] {
		return LogFilter{}, fmt.Errorf("%w %q", ErrUnknownEventType, f.Type)
	}
	return f, nil
}

// List returns the events of homeID matching f, oldest first.
func (s *EventLogService) List(ctx context.Context, homeID string, f LogFilter) ([]models.HomeEvent, error) {
	if err := ValidateHomeID(homeID); err != nil {
		return nil, err
	}
	f, err := f.normalize()
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.List(ctx, homeID, f.From, f.To, f.Type)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// recordEvent appends an audit entry. The change it describes has already
// been written, so a failure is logged and swallowed.
func recordEvent(ctx context.Context, repo repository.EventRepo, log *logger.Logger, e models.HomeEvent) {
	if repo == nil {
		return
	}
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := repo.Append(ctx, e); err != nil && log != nil {
		log.Errorw("event_append_failed", "home_id", e.HomeID, "type", e.Type, "err", err)
	}
}
