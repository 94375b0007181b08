package cli

import (
	"database/sql"
	"fmt"

	"homedash/internal/config"
	"homedash/internal/logger"
	"homedash/internal/relay"
	"homedash/internal/repository"
	"homedash/internal/repository/db"
	"homedash/internal/service"
	"homedash/internal/store"
)

// app is the wired dependency graph shared by every command.
type app struct {
	cfg      config.Config
	log      *logger.Logger
	db       *sql.DB
	store    *store.Realtime
	relay    relay.Publisher
	services *service.Service
}

// newApp loads the configuration and wires storage, relay and services.
func newApp() (*app, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("init sqlite: %w", err)
	}

	pub, err := newRelay(cfg.MQTT, log)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	repos := repository.NewRepository(conn)
	st := store.NewRealtime(repos.Nodes, log)
	services := service.NewService(repos, st, pub, service.NewLogMailer(log), service.Options{
		Auth: service.AuthOptions{
			SigningKey: cfg.Auth.SigningKey,
			TokenTTL:   cfg.Auth.TokenTTL,
			ResetTTL:   cfg.Auth.ResetTTL,
		},
		History: service.HistoryOptions{
			Limit:     cfg.History.Limit,
			MaxPoints: cfg.History.MaxPoints,
		},
	}, log)

	return &app{cfg: cfg, log: log, db: conn, store: st, relay: pub, services: services}, nil
}

// newRelay connects to the MQTT broker when one is configured.
func newRelay(cfg config.MQTTConfig, log *logger.Logger) (relay.Publisher, error) {
	if cfg.Broker == "" {
		log.Infow("mqtt relay disabled")
		return relay.NopPublisher{}, nil
	}
	pub, err := relay.NewRealPublisher(cfg.Broker, cfg.ClientID, cfg.TopicPrefix)
	if err != nil {
		return nil, fmt.Errorf("connect mqtt %s: %w", cfg.Broker, err)
	}
	log.Infow("mqtt relay connected", "broker", cfg.Broker, "prefix", cfg.TopicPrefix)
	return pub, nil
}

func (a *app) Close() {
	if err := a.relay.Close(); err != nil {
		a.log.Warnw("failed to close mqtt relay", "err", err)
	}
	if err := a.db.Close(); err != nil {
		a.log.Errorw("failed to close sqlite", "err", err)
	}
	_ = a.log.Sync()
}
