// Package store persists built graphs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"callmap/internal/graph"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	root       TEXT NOT NULL,
	language   TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS nodes (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq    INTEGER NOT NULL,
	id     TEXT NOT NULL,
	kind   TEXT NOT NULL,
	label  TEXT NOT NULL,
	origin TEXT NOT NULL,
	size   INTEGER NOT NULL,
	PRIMARY KEY (run_id, id)
);
CREATE TABLE IF NOT EXISTS edges (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	seq    INTEGER NOT NULL,
	src    TEXT NOT NULL,
	dst    TEXT NOT NULL,
	kind   TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_nodes_label ON nodes(run_id, label);
CREATE INDEX IF NOT EXISTS idx_edges_dst ON edges(run_id, dst);
`

// ErrNoRun is returned when no run matches a lookup.
var ErrNoRun = errors.New("no run found")

// Store is a SQLite-backed archive of graph builds.
type Store struct {
	db *sql.DB
}

// Run describes one persisted build.
type Run struct {
	ID        string
	Root      string
	Language  string
	CreatedAt time.Time
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores g as a new run and returns it.
func (s *Store) SaveRun(ctx context.Context, root, language string, g *graph.Graph) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Root:      root,
		Language:  language,
		CreatedAt: time.Now(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, root, language, created_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Root, run.Language, run.CreatedAt.UnixNano()); err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	nodeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO nodes (run_id, seq, id, kind, label, origin, size) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare node insert: %w", err)
	}
	defer nodeStmt.Close()
	for i, n := range g.Nodes() {
		if _, err := nodeStmt.ExecContext(ctx, run.ID, i, n.ID, string(n.Kind), n.Label, string(n.Origin), n.Size); err != nil {
			return nil, fmt.Errorf("failed to insert node %s: %w", n.ID, err)
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO edges (run_id, seq, src, dst, kind) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare edge insert: %w", err)
	}
	defer edgeStmt.Close()
	for i, e := range g.Edges() {
		if _, err := edgeStmt.ExecContext(ctx, run.ID, i, e.Src, e.Dst, string(e.Kind)); err != nil {
			return nil, fmt.Errorf("failed to insert edge %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit run: %w", err)
	}
	return run, nil
}

// LatestRun returns the most recent run for root.
func (s *Store) LatestRun(ctx context.Context, root string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, root, language, created_at FROM runs WHERE root = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, root)
	var run Run
	var created int64
	if err := row.Scan(&run.ID, &run.Root, &run.Language, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRun
		}
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	run.CreatedAt = time.Unix(0, created)
	return &run, nil
}

// LoadRun rebuilds the graph stored under runID, preserving insertion order.
func (s *Store) LoadRun(ctx context.Context, runID string) (*graph.Graph, error) {
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	if exists == 0 {
		return nil, ErrNoRun
	}

	g := graph.New()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, label, origin, size FROM nodes WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	for rows.Next() {
		var id, kind, label, origin string
		var size int
		if err := rows.Scan(&id, &kind, &label, &origin, &size); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		g.AddNode(id, graph.Kind(kind), label, graph.Origin(origin), size)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT src, dst, kind FROM edges WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var src, dst, kind string
		if err := rows.Scan(&src, &dst, &kind); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		g.AddEdge(src, dst, graph.Relation(kind))
	}
	return g, rows.Err()
}
