package service

import (
	"context"
	"time"

	"homedash/internal/logger"
	"homedash/internal/models"
	"homedash/internal/relay"
	"homedash/internal/repository"
	"homedash/internal/store"
)

type Authorization interface {
	SignUp(email, password string) (string, error)
	GenerateToken(email, password string) (string, error)
	ParseToken(ctx context.Context, accessToken string) (string, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPassword(ctx context.Context, email string) error
	ConfirmReset(ctx context.Context, token, newPassword string) error
}

// Homes binds users to the home whose data they see.
type Homes interface {
	Resolve(ctx context.Context, uid string) (string, error)
	Associate(ctx context.Context, uid, raw string) (string, error)
	WatchHome(ctx context.Context, uid string) (<-chan string, error)
}

// Readings exposes measurements: latest, history and point-in-time lookup.
type Readings interface {
	Latest(ctx context.Context, homeID string) (models.GraphPoint, bool, error)
	WatchLatest(ctx context.Context, homeID string) (<-chan models.GraphPoint, error)
	History(ctx context.Context, homeID string, limit, maxPoints int) ([]models.GraphPoint, error)
	WatchHistory(ctx context.Context, homeID string, limit, maxPoints int) (<-chan []models.GraphPoint, error)
	LookupAt(ctx context.Context, homeID, input string, loc *time.Location) (LookupResult, error)
	Record(ctx context.Context, homeID string, at time.Time, m models.MeasurementNode) (string, error)
}

// Actuator drives the lamp of a home.
type Actuator interface {
	Toggle(ctx context.Context, homeID string) (models.LampCommand, error)
	State(ctx context.Context, homeID string) (models.LampCommand, error)
	WatchLamp(ctx context.Context, homeID string) (<-chan models.LampCommand, error)
}

// Settings edits the logging interval of a home.
type Settings interface {
	SetLogPeriod(ctx context.Context, homeID, raw string) (int, error)
	LogPeriod(ctx context.Context, homeID string) (int, error)
	WatchLogPeriod(ctx context.Context, homeID string) (<-chan int, error)
}

// EventLog exposes the append-only audit trail of a home.
type EventLog interface {
	List(ctx context.Context, homeID string, f LogFilter) ([]models.HomeEvent, error)
}

// Simulator feeds synthetic measurements into a demo home.
// Stop via context cancellation in main() for graceful shutdown.
type Simulator interface {
	Run(ctx context.Context, homeID string)
}

// Service aggregates all sub-services.
type Service struct {
	Authorization
	Homes
	Readings
	Actuator
	Settings
	EventLog
	Simulator

	Busy *BusyGuard
}

// Options carries the tunables services need from configuration.
type Options struct {
	Auth    AuthOptions
	History HistoryOptions
}

// NewService wires the repository layer, the realtime store and the
// command relay into concrete services.
func NewService(repos *repository.Repository, st store.Store, pub relay.Publisher, mailer Mailer, opts Options, log *logger.Logger) *Service {
	if pub == nil {
		pub = relay.NopPublisher{}
	}
	settings := NewSettingsService(st, repos.EventRepo, pub, log)
	readings := NewReadingsService(st, opts.History)
	return &Service{
		Authorization: NewAuthService(repos.Auth, repos.Tokens, mailer, opts.Auth),
		Homes:         NewHomeService(st, repos.EventRepo, log),
		Readings:      readings,
		Actuator:      NewActuatorService(st, repos.EventRepo, pub, log),
		Settings:      settings,
		EventLog:      NewEventLogService(repos.EventRepo),
		Simulator:     NewSimulatorService(readings, settings, log),
		Busy:          NewBusyGuard(),
	}
}
