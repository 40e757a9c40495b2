package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charleschow/futures-bot/internal/events"
	"github.com/charleschow/futures-bot/internal/telemetry"

	_ "modernc.org/sqlite"
)

const (
	maxRows        int64 = 200_000
	evictBatchSize       = 500
	vacuumInterval       = 20 // run incremental vacuum every N evictions
)

// Entry is one recorded submission attempt.
type Entry struct {
	ID            int64
	Ts            time.Time
	Command       string
	Symbol        string
	Side          string
	Type          string
	Quantity      string
	Price         string
	StopPrice     string
	ClientOrderID string
	OrderID       int64
	Status        string
	Success       bool
	ErrKind       string
	Err           string
	LatencyMs     int64
	TWAPRunID     string
	Slice         int
	Raw           string
}

// Store persists order outcomes in a FIFO SQLite database capped at
// maxRows. Writes are synchronous: the CLI exits right after the last order
// and must not lose it.
type Store struct {
	db           *sql.DB
	mu           sync.Mutex
	rowCount     int64
	evictCounter int
}

func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`PRAGMA auto_vacuum = INCREMENTAL`,
		`CREATE TABLE IF NOT EXISTS order_journal (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			ts              TEXT    NOT NULL,
			command         TEXT    NOT NULL,
			symbol          TEXT    NOT NULL,
			side            TEXT    NOT NULL,
			type            TEXT    NOT NULL,
			quantity        TEXT    NOT NULL,
			price           TEXT,
			stop_price      TEXT,
			client_order_id TEXT,
			order_id        INTEGER,
			status          TEXT,
			success         INTEGER NOT NULL,
			err_kind        TEXT,
			err             TEXT,
			latency_ms      INTEGER NOT NULL DEFAULT 0,
			twap_run_id     TEXT,
			slice           INTEGER,
			raw             TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_oj_ts ON order_journal(ts)`,
		`CREATE INDEX IF NOT EXISTS idx_oj_twap ON order_journal(twap_run_id)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema (%s): %w", stmt, err)
		}
	}

	var count int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM order_journal`).Scan(&count); err != nil {
		db.Close()
		return nil, fmt.Errorf("read row count: %w", err)
	}

	telemetry.Debugf("journal: opened %s  rows=%d", path, count)

	return &Store{db: db, rowCount: count}, nil
}

// Subscribe records every order_result event published on bus.
func (s *Store) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventOrderResult, s.onOrderResult)
}

func (s *Store) onOrderResult(evt events.Event) error {
	outcome, ok := evt.Payload.(events.OrderOutcome)
	if !ok {
		return nil
	}
	return s.Record(context.Background(), evt.Timestamp, outcome)
}

// Record inserts one outcome.
func (s *Store) Record(ctx context.Context, ts time.Time, o events.OrderOutcome) error {
	if ts.IsZero() {
		ts = time.Now()
	}
	req := o.Request

	var price, stop sql.NullString
	if req.Price != nil {
		price = sql.NullString{String: req.Price.String(), Valid: true}
	}
	if req.StopPrice != nil {
		stop = sql.NullString{String: req.StopPrice.String(), Valid: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO order_journal
			(ts, command, symbol, side, type, quantity, price, stop_price, client_order_id,
			 order_id, status, success, err_kind, err, latency_ms, twap_run_id, slice, raw)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.UTC().Format(time.RFC3339Nano),
		o.Command,
		req.Symbol,
		string(req.Side),
		string(req.Type),
		req.Quantity.String(),
		price,
		stop,
		nullStr(req.ClientOrderID),
		nullInt(o.OrderID),
		nullStr(o.Status),
		o.Success,
		nullStr(o.ErrKind),
		nullStr(o.Err),
		o.Latency.Milliseconds(),
		nullStr(o.TWAPRunID),
		nullInt(int64(o.Slice)),
		nullStr(string(o.Raw)),
	)
	if err != nil {
		return fmt.Errorf("journal insert: %w", err)
	}

	s.rowCount++
	if s.rowCount > maxRows {
		s.evict()
	}
	return nil
}

// evict removes oldest rows until the count is under budget.
// Must be called with s.mu held.
func (s *Store) evict() {
	for s.rowCount > maxRows {
		res, err := s.db.Exec(
			`DELETE FROM order_journal WHERE id IN (SELECT id FROM order_journal ORDER BY id ASC LIMIT ?)`,
			evictBatchSize,
		)
		if err != nil {
			telemetry.Warnf("journal: evict failed: %v", err)
			return
		}
		n, _ := res.RowsAffected()
		if n == 0 {
			return
		}
		s.rowCount -= n
		s.evictCounter++

		if s.evictCounter%vacuumInterval == 0 {
			s.db.Exec(`PRAGMA incremental_vacuum`)
		}
	}
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	return s.query(ctx, `SELECT `+entryColumns+` FROM order_journal ORDER BY id DESC LIMIT ?`, n)
}

// TWAPRun returns the slices of one TWAP run in submission order.
func (s *Store) TWAPRun(ctx context.Context, runID string) ([]Entry, error) {
	return s.query(ctx, `SELECT `+entryColumns+` FROM order_journal WHERE twap_run_id = ? ORDER BY id ASC`, runID)
}

const entryColumns = `id, ts, command, symbol, side, type, quantity,
	COALESCE(price,''), COALESCE(stop_price,''), COALESCE(client_order_id,''),
	COALESCE(order_id,0), COALESCE(status,''), success, COALESCE(err_kind,''),
	COALESCE(err,''), latency_ms, COALESCE(twap_run_id,''), COALESCE(slice,0), COALESCE(raw,'')`

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			ts string
		)
		if err := rows.Scan(&e.ID, &ts, &e.Command, &e.Symbol, &e.Side, &e.Type, &e.Quantity,
			&e.Price, &e.StopPrice, &e.ClientOrderID, &e.OrderID, &e.Status, &e.Success,
			&e.ErrKind, &e.Err, &e.LatencyMs, &e.TWAPRunID, &e.Slice, &e.Raw); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		e.Ts, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func nullStr(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
