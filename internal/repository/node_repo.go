package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// NodeSQLite stores the realtime document tree, one row per written path.
// A document may be written whole or field by field, so children of a path
// are derived from every row below it.
type NodeSQLite struct {
	db *sql.DB
}

func NewNodeSQLite(db *sql.DB) *NodeSQLite {
	return &NodeSQLite{db: db}
}

var _ NodeRepo = (*NodeSQLite)(nil)

const (
	upsertNodeSQL = `
		INSERT INTO nodes (path, parent, key, value, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`
	deleteNodeSQL        = `DELETE FROM nodes WHERE path = ?`
	deleteDescendantsSQL = `DELETE FROM nodes WHERE path >= ? AND path < ?`
	selectSubtreeSQL     = `SELECT path, key, value FROM nodes WHERE path = ? OR (path >= ? AND path < ?) ORDER BY path ASC`

	// child is the first segment below the queried parent. picked keeps the
	// requested key range and, with a limit, its last keys.
	selectChildrenSQL = `
		WITH below AS (
			SELECT path, key, value,
				CASE WHEN instr(rest, '/') > 0 THEN substr(rest, 1, instr(rest, '/') - 1) ELSE rest END AS child
			FROM (SELECT path, key, value, substr(path, ?) AS rest FROM nodes WHERE path >= ? AND path < ?)
		),
		picked AS (
			SELECT DISTINCT child FROM below
			WHERE child >= ? AND (? = '' OR child <= ?)
			ORDER BY child DESC
			LIMIT ?
		)
		SELECT path, key, value FROM below
		WHERE child IN (SELECT child FROM picked)
		ORDER BY child ASC, path ASC
	`
)

// SplitPath returns the parent path and last segment of p.
func SplitPath(p string) (parent, key string) {
	i := strings.LastIndexByte(p, '/')
	if i < 0 {
		return "", p
	}
	return p[:i], p[i+1:]
}

// ChildKey returns the segment of path directly below parent, or "" when
// path is not below parent.
func ChildKey(parent, path string) string {
	rest, ok := strings.CutPrefix(path, parent+"/")
	if !ok {
		return ""
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[:i]
	}
	return rest
}

// descendantRange returns [lo, hi) covering every path strictly below p.
// '0' is the byte right after '/', so no LIKE escaping is needed for keys
// containing '_' or '%'.
func descendantRange(p string) (string, string) {
	return p + "/", p + "0"
}

// Put replaces the document at path, dropping anything stored below it.
func (r *NodeSQLite) Put(ctx context.Context, path string, value json.RawMessage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put %q: %w", path, err)
	}
	defer func() { _ = tx.Rollback() }()

	lo, hi := descendantRange(path)
	if _, err := tx.ExecContext(ctx, deleteDescendantsSQL, lo, hi); err != nil {
		return fmt.Errorf("clear below %q: %w", path, err)
	}

	parent, key := SplitPath(path)
	if _, err := tx.ExecContext(ctx, upsertNodeSQL, path, parent, key, string(value), time.Now().UTC()); err != nil {
		return fmt.Errorf("upsert %q: %w", path, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put %q: %w", path, err)
	}
	return nil
}

// Delete removes the document at path and everything below it.
func (r *NodeSQLite) Delete(ctx context.Context, path string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete %q: %w", path, err)
	}
	defer func() { _ = tx.Rollback() }()

	lo, hi := descendantRange(path)
	if _, err := tx.ExecContext(ctx, deleteDescendantsSQL, lo, hi); err != nil {
		return fmt.Errorf("clear below %q: %w", path, err)
	}
	if _, err := tx.ExecContext(ctx, deleteNodeSQL, path); err != nil {
		return fmt.Errorf("delete %q: %w", path, err)
	}
	return tx.Commit()
}

// Subtree returns the document at path and every document below it, ordered by path.
func (r *NodeSQLite) Subtree(ctx context.Context, path string) ([]Node, error) {
	lo, hi := descendantRange(path)
	rows, err := r.db.QueryContext(ctx, selectSubtreeSQL, path, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("select subtree %q: %w", path, err)
	}
	return scanNodes(rows)
}

// Children returns every document at or below the direct children of parent
// selected by r, ordered by child key then path. A child exists when
// anything is stored at or below it. With a limit, only the last r.Limit
// child keys are kept.
func (r *NodeSQLite) Children(ctx context.Context, parent string, kr KeyRange) ([]Node, error) {
	limit := kr.Limit
	if limit <= 0 {
		limit = -1
	}
	lo, hi := descendantRange(parent)
	// substr counts characters from 1.
	start := utf8.RuneCountInString(parent) + 2

	rows, err := r.db.QueryContext(ctx, selectChildrenSQL,
		start, lo, hi, kr.StartAt, kr.EndAt, kr.EndAt, limit)
	if err != nil {
		return nil, fmt.Errorf("select children of %q: %w", parent, err)
	}
	return scanNodes(rows)
}

func scanNodes(rows *sql.Rows) ([]Node, error) {
	defer rows.Close()

	out := make([]Node, 0, 16)
	for rows.Next() {
		var (
			n   Node
			val string
		)
		if err := rows.Scan(&n.Path, &n.Key, &val); err != nil {
			return nil, err
		}
		n.Value = json.RawMessage(val)
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
