// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive persists completed research reports in SQLite so they
// can be listed, searched and re-read after the run that produced them.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/deep-research/pkg/types"
)

const (
	dbFile       = "research.db"
	defaultLimit = 20
)

// ErrNotFound is returned by Get for an unknown report ID.
var ErrNotFound = errors.New("report not found")

// Summary is the listing view of an archived report.
type Summary struct {
	ID          string    `json:"id" yaml:"id"`
	Query       string    `json:"query" yaml:"query"`
	CreatedAt   time.Time `json:"createdAt" yaml:"created_at"`
	ResultCount int       `json:"resultCount" yaml:"result_count"`
	DurationMS  int64     `json:"durationMs" yaml:"duration_ms"`
}

// Store manages the report archive database.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates the archive at cfg.Dir/research.db and creates
// the schema if it does not exist.
func NewStore(cfg types.ArchiveConfig) (*Store, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("archive directory not configured")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			result_count INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			body TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save stores report, replacing any earlier report with the same ID.
func (s *Store) Save(ctx context.Context, report *types.ResearchReport) error {
	if report == nil || report.ID == "" {
		return fmt.Errorf("report has no ID")
	}
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	created := report.Timestamp
	if created.IsZero() {
		created = time.Now()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, query, created_at, result_count, duration_ms, body)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			query=excluded.query, created_at=excluded.created_at,
			result_count=excluded.result_count, duration_ms=excluded.duration_ms,
			body=excluded.body`,
		report.ID, report.Query, created.UnixMilli(), report.ResultCount(),
		report.Stats.TotalDuration, string(body),
	)
	if err != nil {
		return fmt.Errorf("saving report %s: %w", report.ID, err)
	}
	return nil
}

// Get returns the full report with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*types.ResearchReport, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM reports WHERE id = ?`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("looking up report: %w", err)
	}

	var report types.ResearchReport
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", id, err)
	}
	return &report, nil
}

// List returns the most recent reports, newest first. A limit of zero
// uses the default of 20.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	return s.summaries(ctx, "", limit)
}

// Search returns reports whose query contains term, case-insensitively,
// newest first.
func (s *Store) Search(ctx context.Context, term string, limit int) ([]Summary, error) {
	if strings.TrimSpace(term) == "" {
		return nil, fmt.Errorf("search term is empty")
	}
	return s.summaries(ctx, term, limit)
}

func (s *Store) summaries(ctx context.Context, term string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT id, query, created_at, result_count, duration_ms FROM reports`)
	if term != "" {
		qb.WriteString(` WHERE query LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(term)+"%")
	}
	qb.WriteString(` ORDER BY created_at DESC, id LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying archive: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			created int64
		)
		if err := rows.Scan(&sum.ID, &sum.Query, &created, &sum.ResultCount, &sum.DurationMS); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		sum.CreatedAt = time.UnixMilli(created).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
