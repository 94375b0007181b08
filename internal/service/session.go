package service

import (
	"context"
	"sync"

	"homedash/internal/models"
)

// Update kinds pushed to a session client.
const (
	UpdateIdentity = "identity"
	UpdateHome     = "home"
	UpdateReading  = "reading"
	UpdateHistory  = "history"
	UpdateLamp     = "lamp"
	UpdateSettings = "settings"
	UpdateError    = "error"
)

// Update is one change of a session's view.
type Update struct {
	Type       string `json:"type"`
	Generation uint64 `json:"generation"`
	Data       any    `json:"data,omitempty"`
}

// SessionState is what a signed-in client currently sees.
type SessionState struct {
	UID       string              `json:"uid"`
	HomeID    string              `json:"home_id"`
	Latest    *models.GraphPoint  `json:"latest,omitempty"`
	Lamp      *models.LampCommand `json:"lamp,omitempty"`
	LogPeriod *int                `json:"log_period_sec,omitempty"`
	History   []models.GraphPoint `json:"history"`
}

// Session follows one client through identity changes. Every identity
// change tears down all subscriptions, resets the state and starts a new
// generation; updates from an older generation are dropped.
type Session struct {
	parent    context.Context
	svc       *Service
	emit      func(Update)
	limit     int
	maxPoints int

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	state  SessionState
}

// NewSession creates a signed-out session. emit receives every accepted
// update, in order, and must not call back into the session.
func NewSession(parent context.Context, svc *Service, emit func(Update)) *Session {
	if emit == nil {
		emit = func(Update) {}
	}
	return &Session{parent: parent, svc: svc, emit: emit}
}

// WithHistory overrides the history window of the session.
func (s *Session) WithHistory(limit, maxPoints int) *Session {
	s.limit, s.maxPoints = limit, maxPoints
	return s
}

// SetIdentity is called whenever the authenticated user changes; "" signs out.
func (s *Session) SetIdentity(uid string) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
	gen := s.gen
	s.state = SessionState{UID: uid}
	s.emit(Update{Type: UpdateIdentity, Generation: gen, Data: uid})
	if uid == "" {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(s.parent)
	s.cancel = cancel
	s.mu.Unlock()

	go s.watchHome(ctx, gen, uid)
}

// Close tears down every subscription.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}

// Generation returns the current identity generation.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// State returns a copy of the current view.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.History = append([]models.GraphPoint(nil), s.state.History...)
	return st
}

// apply mutates the state and emits u, unless gen is stale.
func (s *Session) apply(gen uint64, mutate func(*SessionState), u Update) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	if mutate != nil {
		mutate(&s.state)
	}
	u.Generation = gen
	s.emit(u)
	return true
}

func (s *Session) fail(gen uint64, err error) {
	s.apply(gen, nil, Update{Type: UpdateError, Data: err.Error()})
}

// watchHome waits for the user's home binding. Once a home is seen it is
// fixed for the rest of the generation.
func (s *Session) watchHome(ctx context.Context, gen uint64, uid string) {
	hctx, stop := context.WithCancel(ctx)
	defer stop()

	homes, err := s.svc.WatchHome(hctx, uid)
	if err != nil {
		s.fail(gen, err)
		return
	}
	for id := range homes {
		ok := s.apply(gen, func(st *SessionState) { st.HomeID = id }, Update{Type: UpdateHome, Data: id})
		if !ok {
			return
		}
		if id != "" {
			s.watchReadings(ctx, gen, id)
			return
		}
	}
}

func (s *Session) watchReadings(ctx context.Context, gen uint64, homeID string) {
	if latest, err := s.svc.WatchLatest(ctx, homeID); err != nil {
		s.fail(gen, err)
	} else {
		go func() {
			for p := range latest {
				s.apply(gen, func(st *SessionState) { st.Latest = &p }, Update{Type: UpdateReading, Data: p})
			}
		}()
	}

	if history, err := s.svc.WatchHistory(ctx, homeID, s.limit, s.maxPoints); err != nil {
		s.fail(gen, err)
	} else {
		go func() {
			for pts := range history {
				s.apply(gen, func(st *SessionState) { st.History = pts }, Update{Type: UpdateHistory, Data: pts})
			}
		}()
	}

	if lamp, err := s.svc.WatchLamp(ctx, homeID); err != nil {
		s.fail(gen, err)
	} else {
		go func() {
			for cmd := range lamp {
				s.apply(gen, func(st *SessionState) { st.Lamp = &cmd }, Update{Type: UpdateLamp, Data: cmd})
			}
		}()
	}

	if periods, err := s.svc.WatchLogPeriod(ctx, homeID); err != nil {
		s.fail(gen, err)
	} else {
		go func() {
			for sec := range periods {
				s.apply(gen, func(st *SessionState) { st.LogPeriod = &sec }, Update{Type: UpdateSettings, Data: sec})
			}
		}()
	}
}
