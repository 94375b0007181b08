// Package store is the realtime document store: a JSON tree addressed by
// slash-separated paths, with key-ordered child queries and push
// subscriptions that re-deliver a fresh snapshot after every related write.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"homedash/internal/logger"
	"homedash/internal/repository"
)

// Query selects children of a path by key. Keys compare as strings, which
// for measurement keys is chronological order.
type Query struct {
	StartAt     string // inclusive; empty means unbounded
	EndAt       string // inclusive; empty means unbounded
	LimitToLast int    // 0 means no limit
}

// Child is one child of a queried path.
type Child struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Snapshot is the state of a path (Read) or of a child query (Query) at one moment.
type Snapshot struct {
	Path     string
	Exists   bool
	Value    json.RawMessage
	Children []Child
}

// First returns the first child of a query snapshot.
func (s Snapshot) First() (Child, bool) {
	if len(s.Children) == 0 {
		return Child{}, false
	}
	return s.Children[0], true
}

// Decode unmarshals the snapshot value into dst. Missing values leave dst untouched.
func (s Snapshot) Decode(dst any) error {
	if !s.Exists {
		return nil
	}
	return json.Unmarshal(s.Value, dst)
}

type Store interface {
	Read(ctx context.Context, path string) (Snapshot, error)
	Query(ctx context.Context, path string, q Query) (Snapshot, error)
	Write(ctx context.Context, path string, value any) error
	// Subscribe delivers a snapshot immediately and after every related write.
	// q == nil watches the value at path; otherwise the child query.
	// The channel is closed once ctx is done; nothing is delivered after that.
	Subscribe(ctx context.Context, path string, q *Query) (<-chan Snapshot, error)
}

// Realtime implements Store on a NodeRepo.
type Realtime struct {
	nodes repository.NodeRepo
	log   *logger.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]*subscriber
}

type subscriber struct {
	path   string
	notify chan struct{}
}

func NewRealtime(nodes repository.NodeRepo, log *logger.Logger) *Realtime {
	return &Realtime{nodes: nodes, log: log, subs: make(map[int]*subscriber)}
}

var _ Store = (*Realtime)(nil)

// Read assembles the value at path from the stored document and anything
// written below it.
func (r *Realtime) Read(ctx context.Context, path string) (Snapshot, error) {
	if err := ValidatePath(path); err != nil {
		return Snapshot{}, err
	}
	nodes, err := r.nodes.Subtree(ctx, path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %q: %w", path, err)
	}
	val, ok, err := assemble(path, nodes)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %q: %w", path, err)
	}
	return Snapshot{Path: path, Exists: ok, Value: val}, nil
}

func (r *Realtime) Query(ctx context.Context, path string, q Query) (Snapshot, error) {
	if err := ValidatePath(path); err != nil {
		return Snapshot{}, err
	}
	nodes, err := r.nodes.Children(ctx, path, repository.KeyRange{
		StartAt: q.StartAt,
		EndAt:   q.EndAt,
		Limit:   q.LimitToLast,
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("query %q: %w", path, err)
	}
	snap := Snapshot{Path: path, Exists: len(nodes) > 0, Children: make([]Child, 0, len(nodes))}
	for start := 0; start < len(nodes); {
		key := repository.ChildKey(path, nodes[start].Path)
		end := start + 1
		for end < len(nodes) && repository.ChildKey(path, nodes[end].Path) == key {
			end++
		}
		val, _, err := assemble(path+"/"+key, nodes[start:end])
		if err != nil {
			return Snapshot{}, fmt.Errorf("query %q: %w", path, err)
		}
		snap.Children = append(snap.Children, Child{Key: key, Value: val})
		start = end
	}
	return snap, nil
}

// Write replaces the value at path. A nil value deletes it.
func (r *Realtime) Write(ctx context.Context, path string, value any) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if value == nil {
		if err := r.nodes.Delete(ctx, path); err != nil {
			return fmt.Errorf("write %q: %w", path, err)
		}
	} else {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %q: %w", path, err)
		}
		if err := r.nodes.Put(ctx, path, raw); err != nil {
			return fmt.Errorf("write %q: %w", path, err)
		}
	}
	r.publish(path)
	return nil
}

func (r *Realtime) Subscribe(ctx context.Context, path string, q *Query) (<-chan Snapshot, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}

	sub := &subscriber{path: path, notify: make(chan struct{}, 1)}
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = sub
	r.mu.Unlock()

	out := make(chan Snapshot)
	sub.notify <- struct{}{} // initial delivery

	go func() {
		defer close(out)
		defer r.unsubscribe(id)

		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.notify:
			}

			snap, err := r.fetch(ctx, path, q)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if r.log != nil {
					r.log.Errorw("store_subscription_fetch_failed", "path", path, "err", err)
				}
				continue
			}
			if ctx.Err() != nil {
				return
			}
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (r *Realtime) fetch(ctx context.Context, path string, q *Query) (Snapshot, error) {
	if q == nil {
		return r.Read(ctx, path)
	}
	return r.Query(ctx, path, *q)
}

func (r *Realtime) unsubscribe(id int) {
	r.mu.Lock()
	delete(r.subs, id)
	r.mu.Unlock()
}

// publish wakes every subscriber whose view may have changed. Notifications
// coalesce: a subscriber that is already due for a refresh is skipped.
func (r *Realtime) publish(written string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		if !related(s.path, written) {
			continue
		}
		select {
		case s.notify <- struct{}{}:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (r *Realtime) Subscribers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
