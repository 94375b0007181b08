package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"homedash/internal/logger"
	"homedash/internal/models"
	"homedash/internal/relay"
	"homedash/internal/repository"
	"homedash/internal/store"
)

var ErrInvalidLogPeriod = errors.New("invalid log period")

// SettingsService edits homes/{homeId}/settings.
type SettingsService struct {
	store     store.Store
	eventRepo repository.EventRepo
	relay     relay.Publisher
	log       *logger.Logger
}

func NewSettingsService(st store.Store, eventRepo repository.EventRepo, pub relay.Publisher, log *logger.Logger) *SettingsService {
	return &SettingsService{store: st, eventRepo: eventRepo, relay: pub, log: log}
}

// ParseLogPeriod turns user input into a stored interval: rounded to whole
// seconds and clamped to [MinLogPeriodSec, MaxLogPeriodSec].
func ParseLogPeriod(raw string) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidLogPeriod
	}
	return clampLogPeriod(f), nil
}

func clampLogPeriod(f float64) int {
	f = math.Round(f)
	if f < models.MinLogPeriodSec {
		return models.MinLogPeriodSec
	}
	if f > models.MaxLogPeriodSec {
		return models.MaxLogPeriodSec
	}
	return int(f)
}

// SetLogPeriod validates, clamps and stores the logging interval, then
// returns the value actually written.
func (s *SettingsService) SetLogPeriod(ctx context.Context, homeID, raw string) (int, error) {
	if err := ValidateHomeID(homeID); err != nil {
		return 0, err
	}
	sec, err := ParseLogPeriod(raw)
	if err != nil {
		return 0, err
	}

	p, err := store.LogPeriodPath(homeID)
	if err != nil {
		return 0, err
	}
	if err := s.store.Write(ctx, p, sec); err != nil {
		return 0, fmt.Errorf("save log period: %w", err)
	}

	recordEvent(ctx, s.eventRepo, s.log, models.HomeEvent{
		HomeID:      homeID,
		Type:        models.EventSettings,
		Description: fmt.Sprintf("Log period set to %ds", sec),
		Metadata:    map[string]any{"log_period_sec": sec},
	})
	if err := s.relay.PublishSettings(homeID, sec); err != nil && s.log != nil {
		s.log.Warnw("settings_relay_failed", "home_id", homeID, "err", err)
	}
	return sec, nil
}

// LogPeriod returns the stored interval, or DefaultLogPeriodSec when unset
// or unreadable.
func (s *SettingsService) LogPeriod(ctx context.Context, homeID string) (int, error) {
	p, err := store.LogPeriodPath(homeID)
	if err != nil {
		return 0, err
	}
	snap, err := s.store.Read(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("read log period: %w", err)
	}
	return logPeriodFromSnapshot(snap), nil
}

func (s *SettingsService) WatchLogPeriod(ctx context.Context, homeID string) (<-chan int, error) {
	p, err := store.LogPeriodPath(homeID)
	if err != nil {
		return nil, err
	}
	snaps, err := s.store.Subscribe(ctx, p, nil)
	if err != nil {
		return nil, err
	}
	out := make(chan int)
	go func() {
		defer close(out)
		for snap := range snaps {
			select {
			case out <- logPeriodFromSnapshot(snap):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func logPeriodFromSnapshot(snap store.Snapshot) int {
	var v any
	if err := snap.Decode(&v); err != nil {
		return models.DefaultLogPeriodSec
	}
	n := models.AsNumber(v)
	if n == nil {
		return models.DefaultLogPeriodSec
	}
	return clampLogPeriod(*n)
}
