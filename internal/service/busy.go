package service

import (
	"errors"
	"sync"
)

// ErrBusy is returned while the same control of the same user is still
// being submitted or fetched.
var ErrBusy = errors.New("operation already in progress")

// Controls guarded by BusyGuard.
const (
	ControlHome     = "home"
	ControlSettings = "settings"
	ControlLamp     = "lamp"
	ControlLookup   = "lookup"
)

// BusyGuard keeps at most one in-flight submission or lookup per user and control.
type BusyGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewBusyGuard() *BusyGuard {
	return &BusyGuard{inflight: make(map[string]struct{})}
}

// Try claims control for uid. The returned release must be called once the
// submission completes, whatever its outcome.
func (g *BusyGuard) Try(uid, control string) (func(), error) {
	key := uid + "\x00" + control

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inflight[key]; busy {
		return nil, ErrBusy
	}
	g.inflight[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inflight, key)
			g.mu.Unlock()
		})
	}, nil
}
