package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"homedash/internal/chart"
	"homedash/internal/models"
	"homedash/internal/store"
)

var (
	ErrEmptySearch   = errors.New("choose a date and time")
	ErrInvalidSearch = errors.New("invalid date/time")
)

// searchLayouts are the accepted point-in-time inputs, interpreted in the
// caller's location unless they carry an offset.
var searchLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// ReadingsService reads the measurements of a home.
type ReadingsService struct {
	store store.Store
	opts  HistoryOptions
}

func NewReadingsService(st store.Store, opts HistoryOptions) *ReadingsService {
	return &ReadingsService{store: st, opts: opts}
}

// ParseSearchTime parses a user supplied instant. The whole minute is
// searched: seconds are set to 59.999 before converting to UTC.
func ParseSearchTime(input string, loc *time.Location) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, ErrEmptySearch
	}
	if loc == nil {
		loc = time.UTC
	}

	t, err := time.Parse(time.RFC3339, input)
	if err != nil {
		for _, layout := range searchLayouts {
			if t, err = time.ParseInLocation(layout, input, loc); err == nil {
				break
			}
		}
	}
	if err != nil {
		return time.Time{}, ErrInvalidSearch
	}

	t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 59, 999_000_000, t.Location())
	return t.UTC(), nil
}

// LookupAt finds the last measurement at or before the given instant with a
// single bounded query.
func (s *ReadingsService) LookupAt(ctx context.Context, homeID, input string, loc *time.Location) (LookupResult, error) {
	target, err := ParseSearchTime(input, loc)
	if err != nil {
		return LookupResult{}, err
	}
	res := LookupResult{Target: models.FormatKey(target)}

	p, err := store.MeasurementsPath(homeID)
	if err != nil {
		return LookupResult{}, err
	}
	snap, err := s.store.Query(ctx, p, store.Query{EndAt: res.Target, LimitToLast: 1})
	if err != nil {
		return LookupResult{}, fmt.Errorf("lookup measurement: %w", err)
	}
	if c, ok := snap.First(); ok {
		res.Found = true
		res.Point = models.DecodePoint(c.Key, c.Value)
	}
	return res, nil
}

// Latest returns the most recent measurement; false when the home has none.
func (s *ReadingsService) Latest(ctx context.Context, homeID string) (models.GraphPoint, bool, error) {
	p, err := store.MeasurementsPath(homeID)
	if err != nil {
		return models.GraphPoint{}, false, err
	}
	snap, err := s.store.Query(ctx, p, store.Query{LimitToLast: 1})
	if err != nil {
		return models.GraphPoint{}, false, fmt.Errorf("latest measurement: %w", err)
	}
	c, ok := snap.First()
	if !ok {
		return models.GraphPoint{}, false, nil
	}
	return models.DecodePoint(c.Key, c.Value), true, nil
}

// WatchLatest mirrors the most recent measurement. Snapshots without any
// measurement are skipped.
func (s *ReadingsService) WatchLatest(ctx context.Context, homeID string) (<-chan models.GraphPoint, error) {
	p, err := store.MeasurementsPath(homeID)
	if err != nil {
		return nil, err
	}
	snaps, err := s.store.Subscribe(ctx, p, &store.Query{LimitToLast: 1})
	if err != nil {
		return nil, err
	}
	out := make(chan models.GraphPoint)
	go func() {
		defer close(out)
		for snap := range snaps {
			c, ok := snap.First()
			if !ok {
				continue
			}
			select {
			case out <- models.DecodePoint(c.Key, c.Value):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// History returns the last limit measurements, downsampled to maxPoints.
// Non-positive arguments fall back to the configured defaults and larger
// ones are capped.
func (s *ReadingsService) History(ctx context.Context, homeID string, limit, maxPoints int) ([]models.GraphPoint, error) {
	limit, maxPoints = s.opts.withDefaults(limit, maxPoints)
	p, err := store.MeasurementsPath(homeID)
	if err != nil {
		return nil, err
	}
	snap, err := s.store.Query(ctx, p, store.Query{LimitToLast: limit})
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return toSeries(snap, maxPoints), nil
}

// WatchHistory emits the whole downsampled series after every change.
func (s *ReadingsService) WatchHistory(ctx context.Context, homeID string, limit, maxPoints int) (<-chan []models.GraphPoint, error) {
	limit, maxPoints = s.opts.withDefaults(limit, maxPoints)
	p, err := store.MeasurementsPath(homeID)
	if err != nil {
		return nil, err
	}
	snaps, err := s.store.Subscribe(ctx, p, &store.Query{LimitToLast: limit})
	if err != nil {
		return nil, err
	}
	out := make(chan []models.GraphPoint)
	go func() {
		defer close(out)
		for snap := range snaps {
			select {
			case out <- toSeries(snap, maxPoints):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Record stores a measurement under its UTC second key and returns the key.
func (s *ReadingsService) Record(ctx context.Context, homeID string, at time.Time, m models.MeasurementNode) (string, error) {
	if err := ValidateHomeID(homeID); err != nil {
		return "", err
	}
	key := models.FormatKey(at)
	p, err := store.MeasurementPath(homeID, key)
	if err != nil {
		return "", err
	}
	if err := s.store.Write(ctx, p, m); err != nil {
		return "", fmt.Errorf("record measurement: %w", err)
	}
	return key, nil
}

func toSeries(snap store.Snapshot, maxPoints int) []models.GraphPoint {
	pts := make([]models.GraphPoint, 0, len(snap.Children))
	for _, c := range snap.Children {
		pts = append(pts, models.DecodePoint(c.Key, c.Value))
	}
	return chart.Downsample(pts, maxPoints)
}
