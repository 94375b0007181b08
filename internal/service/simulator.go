package service

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"homedash/internal/logger"
	"homedash/internal/models"
)

// ----------- Simulation constants -----------
const (
	InsideBaseC        = 21.0 // inside temperature set point °C
	OutsideBaseC       = 12.0 // daily mean outside temperature °C
	OutsideSwingC      = 6.0  // half amplitude of the day/night cycle °C
	InsideBaseRH       = 45.0 // % relative humidity
	OutsideBaseRH      = 70.0
	TempJitterC        = 0.3 // max random step per sample °C
	HumidityJitterRH   = 1.5 // max random step per sample %
	InsideReturnFactor = 0.1 // pull back toward the set point per sample
)

// SimulatorService writes synthetic measurements to a demo home at the
// home's own logging interval.
type SimulatorService struct {
	readings Readings
	settings Settings
	log      *logger.Logger
	now      func() time.Time

	mu     sync.Mutex
	rng    *rand.Rand
	inside struct{ temp, rh float64 }
	outRH  float64
}

// NewSimulatorService returns a simulator with defaults.
func NewSimulatorService(readings Readings, settings Settings, log *logger.Logger) *SimulatorService {
	s := &SimulatorService{
		readings: readings,
		settings: settings,
		log:      log,
		now:      time.Now,
		rng:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
		outRH:    OutsideBaseRH,
	}
	s.inside.temp = InsideBaseC
	s.inside.rh = InsideBaseRH
	return s
}

// Run records a sample, then sleeps for the home's current logging
// interval, until ctx is canceled.
func (s *SimulatorService) Run(ctx context.Context, homeID string) {
	for {
		if _, err := s.Step(ctx, homeID); err != nil {
			if ctx.Err() != nil {
				return
			}
			if s.log != nil {
				s.log.Errorw("simulator_step_failed", "home_id", homeID, "err", err)
			}
		}

		period, err := s.settings.LogPeriod(ctx, homeID)
		if err != nil {
			period = models.DefaultLogPeriodSec
		}
		t := time.NewTimer(time.Duration(period) * time.Second)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// Step records one synthetic measurement and returns its key.
func (s *SimulatorService) Step(ctx context.Context, homeID string) (string, error) {
	now := s.now().UTC()
	m := s.sample(now)
	return s.readings.Record(ctx, homeID, now, m)
}

func (s *SimulatorService) sample(now time.Time) models.MeasurementNode {
	s.mu.Lock()
	defer s.mu.Unlock()

	// random walk pulled back toward the set point
	s.inside.temp += s.jitter(TempJitterC) + (InsideBaseC-s.inside.temp)*InsideReturnFactor
	s.inside.rh = clampFloat(s.inside.rh+s.jitter(HumidityJitterRH), 20, 80)
	s.outRH = clampFloat(s.outRH+s.jitter(HumidityJitterRH), 30, 100)

	// coldest around 04:00 UTC, warmest around 16:00
	hours := float64(now.Hour()) + float64(now.Minute())/60
	outside := OutsideBaseC + OutsideSwingC*math.Sin((hours-10)/24*2*math.Pi) + s.jitter(TempJitterC)

	return models.MeasurementNode{
		Inside:  &models.SensorNode{Temperature: round1(s.inside.temp), Humidity: round1(s.inside.rh)},
		Outside: &models.SensorNode{Temperature: round1(outside), Humidity: round1(s.outRH)},
	}
}

func (s *SimulatorService) jitter(amp float64) float64 {
	return (s.rng.Float64()*2 - 1) * amp
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
