package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Aman-CERP/patclust/internal/clustering"
	apperrors "github.com/Aman-CERP/patclust/internal/errors"
)

// RunsFile is the name of the run history database inside the data dir.
const RunsFile = "runs.db"

// Run is a stored clustering run.
type Run struct {
	ID          int64        `json:"id"`
	CreatedAt   time.Time    `json:"created_at"`
	Source      string       `json:"source"`
	Threshold   float64      `json:"threshold"`
	NumLines    int          `json:"num_lines"`
	NumClusters int          `json:"num_clusters"`
	Assignments []Assignment `json:"assignments,omitempty"`
}

// Assignment is the cluster of one line of a run.
type Assignment struct {
	Row     int    `json:"row"`
	Cluster int    `json:"cluster"`
	Line    string `json:"line"`
}

// Clusters returns the cluster list of the run, ordered by row.
func (r *Run) Clusters() []int {
	out := make([]int, len(r.Assignments))
	for i, a := range r.Assignments {
		out[i] = a.Cluster
	}
	return out
}

// NewRun builds a Run from a clustering result.
func NewRun(source string, threshold float64, res *clustering.Result) *Run {
	run := &Run{
		CreatedAt:   time.Now().UTC(),
		Source:      source,
		Threshold:   threshold,
		NumLines:    len(res.Lines),
		NumClusters: res.NumClusters(),
		Assignments: make([]Assignment, len(res.Lines)),
	}
	for i, line := range res.Lines {
		run.Assignments[i] = Assignment{Row: i, Cluster: res.Clusters[i], Line: line}
	}
	return run
}

// Store is the SQLite run history. Writers take a cross-process file lock.
type Store struct {
	db    *sql.DB
	lock  *FileLock
	retry apperrors.RetryConfig
}

// Option configures Open.
type Option func(*Store)

// WithRetry overrides how long writers wait for the lock.
func WithRetry(cfg apperrors.RetryConfig) Option {
	return func(s *Store) { s.retry = cfg }
}

// Open opens (creating if needed) the run history stored in dir.
func Open(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeWriteFailed,
			fmt.Sprintf("cannot create data directory %s", dir), err)
	}

	path := filepath.Join(dir, RunsFile)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrCodeStoreCorrupt, "cannot open run history", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, apperrors.New(apperrors.ErrCodeStoreCorrupt, "cannot configure run history", err)
		}
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, apperrors.New(apperrors.ErrCodeStoreCorrupt, "cannot initialize run history", err)
	}

	s := &Store{db: db, lock: NewFileLock(dir), retry: apperrors.DefaultRetryConfig()}
	for _, opt := range opts {
		opt(s)
	}
	slog.Debug("run_store_opened", slog.String("path", path))
	return s, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT NOT NULL,
		source TEXT NOT NULL,
		threshold REAL NOT NULL,
		num_lines INTEGER NOT NULL,
		num_clusters INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS assignments (
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		line_no INTEGER NOT NULL,
		cluster INTEGER NOT NULL,
		line TEXT NOT NULL,
		PRIMARY KEY (run_id, line_no)
	);

	-- Full-text index of the assignment lines. content holds the tokens of
	-- the line joined by spaces.
	CREATE VIRTUAL TABLE IF NOT EXISTS lines_fts USING fts5(
		content,
		run_id UNINDEXED,
		line_no UNINDEXED,
		tokenize='unicode61'
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// withWriteLock runs fn holding the file lock, retrying while another
// process holds it.
func (s *Store) withWriteLock(ctx context.Context, fn func() error) error {
	err := apperrors.Retry(ctx, s.retry, func() error {
		ok, err := s.lock.TryLock()
		if err != nil {
			return apperrors.New(apperrors.ErrCodeWriteFailed, "cannot lock run history", err)
		}
		if !ok {
			return apperrors.New(apperrors.ErrCodeStoreLocked, "run history is locked by another process", nil).
				WithDetail("lock", s.lock.Path())
		}
		return nil
	})
	if err != nil {
		return err
	}
	defer func() { _ = s.lock.Unlock() }()
	return fn()
}

// SaveRun stores run and its assignments and returns its identifier.
func (s *Store) SaveRun(ctx context.Context, run *Run) (int64, error) {
	var id int64
	err := s.withWriteLock(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(ctx, `
			INSERT INTO runs (created_at, source, threshold, num_lines, num_clusters)
			VALUES (?, ?, ?, ?, ?)
		`, run.CreatedAt.UTC().Format(time.RFC3339Nano), run.Source, run.Threshold, run.NumLines, run.NumClusters)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("run id: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO assignments (run_id, line_no, cluster, line) VALUES (?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare statement: %w", err)
		}
		defer stmt.Close()
		ftsStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO lines_fts (content, run_id, line_no) VALUES (?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare FTS statement: %w", err)
		}
		defer ftsStmt.Close()
		for _, a := range run.Assignments {
			if _, err := stmt.ExecContext(ctx, id, a.Row, a.Cluster, a.Line); err != nil {
				return fmt.Errorf("insert assignment: %w", err)
			}
			if _, err := ftsStmt.ExecContext(ctx, strings.Join(TokenizeLine(a.Line), " "), id, a.Row); err != nil {
				return fmt.Errorf("index assignment: %w", err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, wrapStoreError("cannot save run", err)
	}
	run.ID = id
	slog.Info("run_saved",
		slog.Int64("run_id", id),
		slog.Int("lines", run.NumLines),
		slog.Int("clusters", run.NumClusters))
	return id, nil
}

// ListRuns returns the most recent runs first, without assignments. A
// non-positive limit returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, source, threshold, num_lines, num_clusters
		FROM runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, wrapStoreError("cannot list runs", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, wrapStoreError("cannot list runs", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError("cannot list runs", err)
	}
	return runs, nil
}

// GetRun returns a run with its assignments.
func (s *Store) GetRun(ctx context.Context, id int64) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, source, threshold, num_lines, num_clusters
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, runNotFound(id)
	}
	if err != nil {
		return nil, wrapStoreError("cannot read run", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT line_no, cluster, line FROM assignments WHERE run_id = ? ORDER BY line_no
	`, id)
	if err != nil {
		return nil, wrapStoreError("cannot read assignments", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.Row, &a.Cluster, &a.Line); err != nil {
			return nil, wrapStoreError("cannot read assignments", err)
		}
		run.Assignments = append(run.Assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError("cannot read assignments", err)
	}
	return run, nil
}

// DeleteRun removes a run and its assignments.
func (s *Store) DeleteRun(ctx context.Context, id int64) error {
	var affected int64
	err := s.withWriteLock(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
		if affected, err = res.RowsAffected(); err != nil {
			return err
		}
		// FTS5 tables do not take part in foreign key cascades.
		if _, err := tx.ExecContext(ctx, `DELETE FROM lines_fts WHERE run_id = ?`, id); err != nil {
			return fmt.Errorf("delete line index: %w", err)
		}
		return tx.Commit()
	})
	if err != nil {
		return wrapStoreError("cannot delete run", err)
	}
	if affected == 0 {
		return runNotFound(id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run     Run
		created string
	)
	if err := row.Scan(&run.ID, &created, &run.Source, &run.Threshold, &run.NumLines, &run.NumClusters); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", created, err)
	}
	run.CreatedAt = t
	return &run, nil
}

func runNotFound(id int64) error {
	return apperrors.New(apperrors.ErrCodeRunNotFound, fmt.Sprintf("run %d not found", id), nil).
		WithSuggestion("run 'patclust runs list' to see the stored runs")
}

func wrapStoreError(msg string, err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.New(apperrors.ErrCodeReadFailed, msg, err)
}
