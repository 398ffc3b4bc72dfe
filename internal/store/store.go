// Package store persists completed runs. A run is stored as one row holding
// the profile's identity columns and its results and logs as JSON. SQLite
// (modernc.org/sqlite) and Postgres (pgx stdlib) are supported.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite

	"github.com/dshills/psyche/internal/schema"
)

// Driver names a supported database.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// DefaultLimit caps List results when no limit is given.
const DefaultLimit = 1000

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("store: run not found")

// Run is a persisted profile.
type Run struct {
	ID        string               `json:"id"`
	CreatedAt time.Time            `json:"createdAt"`
	Profile   *schema.ModelProfile `json:"profile"`
}

// Store reads and writes runs.
type Store struct {
	db     *sql.DB
	driver Driver

	now   func() time.Time
	newID func() string
}

// ParseDriver maps a configured driver name, including common aliases, to a
// Driver.
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "postgresql", "pg", "pgx":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("store: unsupported driver %q (available: sqlite, postgres)", s)
}

// Open connects to the database, tunes the pool for the driver and ensures
// the schema exists. An empty dsn selects a local default.
func Open(ctx context.Context, driver Driver, dsn string) (*Store, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite"
		if dsn == "" {
			dsn = "file:psyche.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx"
		if dsn == "" {
			dsn = "postgres://localhost:5432/psyche?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	tunePool(driver, db)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if err := ensureSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, driver: driver, now: time.Now, newID: uuid.NewString}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Insert stores p under a new id. The run's creation time is the profile
// timestamp, or the current time when the profile has none.
func (s *Store) Insert(ctx context.Context, p *schema.ModelProfile) (Run, error) {
	if p == nil {
		return Run{}, errors.New("store: insert: nil profile")
	}
	if p.ModelName == "" {
		return Run{}, errors.New("store: insert: profile has no model name")
	}
	results, err := json.Marshal(p.Results)
	if err != nil {
		return Run{}, fmt.Errorf("store: encode results: %w", err)
	}
	logs, err := json.Marshal(p.Logs)
	if err != nil {
		return Run{}, fmt.Errorf("store: encode logs: %w", err)
	}
	created := p.Timestamp
	if created == 0 {
		created = s.now().UnixMilli()
	}
	id := s.newID()

	_, err = s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO runs (id, model_name, persona, system_prompt, results_json, logs_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`),
		id, p.ModelName, p.PersonaOrDefault(), p.SystemPrompt, string(results), string(logs), created)
	if err != nil {
		return Run{}, fmt.Errorf("store: insert run: %w", err)
	}

	stored := *p
	stored.Persona = p.PersonaOrDefault()
	stored.Timestamp = created
	return Run{ID: id, CreatedAt: time.UnixMilli(created).UTC(), Profile: &stored}, nil
}

const runColumns = `id, model_name, persona, system_prompt, results_json, logs_json, created_at`

// Get returns the run with the given id.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+runColumns+` FROM runs WHERE id = ?`), id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("store: get run: %w", err)
	}
	return r, nil
}

// List returns up to limit runs, newest first. A limit <= 0 means
// DefaultLimit.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	return s.query(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, clampLimit(limit))
}

// ListByModel returns up to limit runs of one model, newest first.
func (s *Store) ListByModel(ctx context.Context, model string, limit int) ([]Run, error) {
	return s.query(ctx, `SELECT `+runColumns+` FROM runs WHERE model_name = ? ORDER BY created_at DESC, id DESC LIMIT ?`, model, clampLimit(limit))
}

// Models returns the distinct model names with at least one run, sorted.
func (s *Store) Models(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT model_name FROM runs ORDER BY model_name`)
	if err != nil {
		return nil, fmt.Errorf("store: list models: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("store: scan model: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Delete removes a run.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM runs WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("store: delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Profiles returns the profiles of runs in order.
func Profiles(runs []Run) []*schema.ModelProfile {
	out := make([]*schema.ModelProfile, len(runs))
	for i, r := range runs {
		out[i] = r.Profile
	}
	return out
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list runs: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r                   Run
		p                   schema.ModelProfile
		resultsJSON, logsJS string
		created             int64
	)
	if err := sc.Scan(&r.ID, &p.ModelName, &p.Persona, &p.SystemPrompt, &resultsJSON, &logsJS, &created); err != nil {
		return Run{}, err
	}
	if err := json.Unmarshal([]byte(resultsJSON), &p.Results); err != nil {
		return Run{}, fmt.Errorf("decode results of %s: %w", r.ID, err)
	}
	if logsJS != "" && logsJS != "null" {
		if err := json.Unmarshal([]byte(logsJS), &p.Logs); err != nil {
			return Run{}, fmt.Errorf("decode logs of %s: %w", r.ID, err)
		}
	}
	p.Timestamp = created
	r.CreatedAt = time.UnixMilli(created).UTC()
	r.Profile = &p
	return r, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > DefaultLimit {
		return DefaultLimit
	}
	return limit
}

// rebind rewrites ? placeholders as $1..$n for Postgres.
func (s *Store) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
