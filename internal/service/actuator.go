package service

import (
	"context"
	"fmt"
	"time"

	"homedash/internal/logger"
	"homedash/internal/models"
	"homedash/internal/relay"
	"homedash/internal/repository"
	"homedash/internal/store"
)

// ActuatorService toggles the lamp of a home.
type ActuatorService struct {
	store     store.Store
	eventRepo repository.EventRepo
	relay     relay.Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewActuatorService(st store.Store, eventRepo repository.EventRepo, pub relay.Publisher, log *logger.Logger) *ActuatorService {
	return &ActuatorService{store: st, eventRepo: eventRepo, relay: pub, log: log, now: time.Now}
}

// Toggle flips the lamp and stamps the command. Stamps have second
// precision and strictly increase per home, so a toggle within the same
// second as the previous one is stamped one second later.
func (s *ActuatorService) Toggle(ctx context.Context, homeID string) (models.LampCommand, error) {
	if err := ValidateHomeID(homeID); err != nil {
		return models.LampCommand{}, err
	}
	prev, err := s.State(ctx, homeID)
	if err != nil {
		return models.LampCommand{}, err
	}

	stamp := s.now().UTC().Truncate(time.Second)
	if last, err := time.Parse(models.KeyLayout, prev.Timestamp); err == nil && !stamp.After(last) {
		stamp = last.Add(time.Second)
	}
	next := models.LampCommand{State: models.Flip(prev.State), Timestamp: models.FormatKey(stamp)}

	p, err := store.LampPath(homeID)
	if err != nil {
		return models.LampCommand{}, err
	}
	if err := s.store.Write(ctx, p, next); err != nil {
		return models.LampCommand{}, fmt.Errorf("write lamp command: %w", err)
	}

	recordEvent(ctx, s.eventRepo, s.log, models.HomeEvent{
		HomeID:      homeID,
		OccurredAt:  stamp,
		Type:        models.EventLamp,
		Description: "Lamp switched " + next.State,
		Metadata:    map[string]any{"state": next.State, "previous": prev.State},
	})
	if err := s.relay.PublishLamp(homeID, next); err != nil && s.log != nil {
		s.log.Warnw("lamp_relay_failed", "home_id", homeID, "err", err)
	}
	return next, nil
}

// State returns the current lamp command. A home that never toggled is OFF.
func (s *ActuatorService) State(ctx context.Context, homeID string) (models.LampCommand, error) {
	p, err := store.LampPath(homeID)
	if err != nil {
		return models.LampCommand{}, err
	}
	snap, err := s.store.Read(ctx, p)
	if err != nil {
		return models.LampCommand{}, fmt.Errorf("read lamp command: %w", err)
	}
	return lampFromSnapshot(snap), nil
}

func (s *ActuatorService) WatchLamp(ctx context.Context, homeID string) (<-chan models.LampCommand, error) {
	p, err := store.LampPath(homeID)
	if err != nil {
		return nil, err
	}
	snaps, err := s.store.Subscribe(ctx, p, nil)
	if err != nil {
		return nil, err
	}
	out := make(chan models.LampCommand)
	go func() {
		defer close(out)
		for snap := range snaps {
			select {
			case out <- lampFromSnapshot(snap):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func lampFromSnapshot(snap store.Snapshot) models.LampCommand {
	var cmd models.LampCommand
	if err := snap.Decode(&cmd); err != nil || cmd.State != models.LampOn {
		cmd.State = models.LampOff
	}
	return cmd
}
