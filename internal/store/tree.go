package store

import (
	"encoding/json"
	"strings"

	"homedash/internal/repository"
)

// assemble merges the document stored at root with every document below it
// into a single JSON value. Documents deeper in the tree win over fields of
// the same name in an ancestor document.
func assemble(root string, nodes []repository.Node) (json.RawMessage, bool, error) {
	if len(nodes) == 0 {
		return nil, false, nil
	}
	if len(nodes) == 1 && nodes[0].Path == root {
		return nodes[0].Value, true, nil
	}

	var tree any
	for _, n := range nodes {
		var v any
		if err := json.Unmarshal(n.Value, &v); err != nil {
			return nil, false, err
		}
		if n.Path == root {
			tree = v
			continue
		}
		rel := strings.Split(strings.TrimPrefix(n.Path, root+"/"), "/")
		tree = setIn(tree, rel, v)
	}

	raw, err := json.Marshal(tree)
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func setIn(tree any, rel []string, v any) any {
	m, ok := tree.(map[string]any)
	if !ok {
		m = make(map[string]any)
	}
	if len(rel) == 1 {
		m[rel[0]] = v
		return m
	}
	m[rel[0]] = setIn(m[rel[0]], rel[1:], v)
	return m
}
