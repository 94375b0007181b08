package repository

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

// MemoryNodes is an in-process NodeRepo with the same semantics as NodeSQLite.
// It backs the store in tests.
type MemoryNodes struct {
	mu    sync.RWMutex
	nodes map[string]json.RawMessage
}

func NewMemoryNodes() *MemoryNodes {
	return &MemoryNodes{nodes: make(map[string]json.RawMessage)}
}

var _ NodeRepo = (*MemoryNodes)(nil)

func (m *MemoryNodes) Put(_ context.Context, path string, value json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropBelow(path)
	m.nodes[path] = append(json.RawMessage(nil), value...)
	return nil
}

func (m *MemoryNodes) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropBelow(path)
	delete(m.nodes, path)
	return nil
}

func (m *MemoryNodes) dropBelow(path string) {
	prefix := path + "/"
	for p := range m.nodes {
		if strings.HasPrefix(p, prefix) {
			delete(m.nodes, p)
		}
	}
}

func (m *MemoryNodes) Subtree(_ context.Context, path string) ([]Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefix := path + "/"
	var out []Node
	for p, v := range m.nodes {
		if p == path || strings.HasPrefix(p, prefix) {
			_, key := SplitPath(p)
			out = append(out, Node{Path: p, Key: key, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (m *MemoryNodes) Children(_ context.Context, parent string, kr KeyRange) ([]Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byChild := make(map[string][]Node)
	for p, v := range m.nodes {
		child := ChildKey(parent, p)
		if child == "" {
			continue
		}
		if kr.StartAt != "" && child < kr.StartAt {
			continue
		}
		if kr.EndAt != "" && child > kr.EndAt {
			continue
		}
		_, key := SplitPath(p)
		byChild[child] = append(byChild[child], Node{Path: p, Key: key, Value: v})
	}

	keys := make([]string, 0, len(byChild))
	for k := range byChild {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if kr.Limit > 0 && len(keys) > kr.Limit {
		keys = keys[len(keys)-kr.Limit:]
	}

	var out []Node
	for _, k := range keys {
		group := byChild[k]
		sort.Slice(group, func(i, j int) bool { return group[i].Path < group[j].Path })
		out = append(out, group...)
	}
	return out, nil
}
