package order

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/elektrokombinacija/fleetplan/internal/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS completed_orders (
	id           TEXT PRIMARY KEY,
	from_room    TEXT NOT NULL,
	to_room      TEXT NOT NULL,
	agent        INTEGER NOT NULL,
	requested_at INTEGER NOT NULL,
	completed_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_completed_orders_completed_at
	ON completed_orders (completed_at);
`

// Store is the sqlite-backed log of completed orders. The planner never
// touches it; only the simulator writes and the CLI reads.
type Store struct {
	db *sql.DB
}

// Summary aggregates the stored history.
type Summary struct {
	Count      int
	AvgLatency float64
}

// OpenStore opens (and migrates) the order history at path. Use
// ":memory:" for an ephemeral store.
func OpenStore(ctx context.Context, path string) (*Store, error) {
	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&"
	} else {
		dsn += "?"
	}
	dsn += "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open order store: %w", err)
	}

	// SQLite has a single writer; keep one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping order store: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate order store: %w", err)
	}

	return &Store{db: db}, nil
}

// Record appends a completed order to the history.
func (s *Store) Record(ctx context.Context, o *Order) error {
	if o.Status != StatusCompleted {
		return fmt.Errorf("order %s is %s, only completed orders are recorded", o.ID, o.Status)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO completed_orders (id, from_room, to_room, agent, requested_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID.String(), o.From, o.To, int(o.AssignedTo), o.RequestedAt, o.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("record order %s: %w", o.ID, err)
	}
	return nil
}

// Recent returns the most recently completed orders, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, from_room, to_room, agent, requested_at, completed_at
		 FROM completed_orders ORDER BY completed_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query order history: %w", err)
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		var (
			id    string
			o     Order
			agent int
		)
		if err := rows.Scan(&id, &o.From, &o.To, &agent, &o.RequestedAt, &o.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		o.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse order id %q: %w", id, err)
		}
		o.Status = StatusCompleted
		o.AssignedTo = core.AgentID(agent)
		o.Assigned = true
		out = append(out, &o)
	}
	return out, rows.Err()
}

// Summarize returns count and average latency over the whole history.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(completed_at - requested_at), 0) FROM completed_orders`)

	var sum Summary
	if err := row.Scan(&sum.Count, &sum.AvgLatency); err != nil {
		return Summary{}, fmt.Errorf("summarize order history: %w", err)
	}
	return sum, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
