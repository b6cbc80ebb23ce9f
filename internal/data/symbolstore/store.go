// Package symbolstore exports the resolved symbol tree and boundary-type list
// of a run to SQLite so other tools can query them by absolute path. The
// engine never reads it back.
package symbolstore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"idlbind/internal/core/errors"
	"idlbind/internal/engine/symtab"
)

const (
	driverName  = "sqlite"
	maxAttempts = 5
)

// Boundary is one numbered boundary type in its canonical rendering.
type Boundary struct {
	ID   int
	Type string
}

// Run is everything a single pipeline run exports.
type Run struct {
	ID        uuid.UUID
	StartedAt time.Time
	Modules   int
	Symbols   []symtab.Record
	Boundary  []Boundary
}

// RunInfo summarizes a stored run.
type RunInfo struct {
	ID            uuid.UUID
	StartedAt     time.Time
	Modules       int
	Symbols       int
	BoundaryTypes int
}

type Store struct {
	path       string
	projectKey string
	db         *sql.DB
	mu         sync.Mutex
}

// Open creates or opens the database at path. All reads and writes are scoped
// to projectKey.
func Open(path, projectKey string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("symbol store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("symbol store path %q is a directory, expected file", cleanPath)
	}
	projectKey = strings.TrimSpace(projectKey)
	if projectKey == "" {
		projectKey = "default"
	}

	if dir := filepath.Dir(cleanPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create symbol store directory %q: %w", dir, err)
		}
	}

	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite symbol store %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite symbol store %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}
	return &Store{path: cleanPath, projectKey: projectKey, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func (s *Store) ProjectKey() string { return s.projectKey }

// SaveRun replaces the project's symbols and boundary types with run's and
// records the run, in one transaction.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	return s.withRetry("save run", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		if err := s.saveRun(ctx, tx, run); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
}

func (s *Store) saveRun(ctx context.Context, tx *sql.Tx, run Run) error {
	runID := run.ID.String()
	for _, table := range []string{"symbols", "boundary_types"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE project_key = ?`, s.projectKey); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	symStmt, err := tx.PrepareContext(ctx, `
INSERT INTO symbols (project_key, run_id, path, module, name, kind, public, imported, canonical, file, line)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer symStmt.Close()
	for _, rec := range run.Symbols {
		if _, err := symStmt.ExecContext(ctx,
			s.projectKey, runID, rec.Path, rec.Module, rec.Name, rec.Kind,
			boolInt(rec.Public), boolInt(rec.Imported), rec.Canonical, rec.File, rec.Line,
		); err != nil {
			return fmt.Errorf("insert symbol %s: %w", rec.Path, err)
		}
	}

	btStmt, err := tx.PrepareContext(ctx, `INSERT INTO boundary_types (project_key, run_id, id, type) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer btStmt.Close()
	for _, bt := range run.Boundary {
		if _, err := btStmt.ExecContext(ctx, s.projectKey, runID, bt.ID, bt.Type); err != nil {
			return fmt.Errorf("insert boundary type %d: %w", bt.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO runs (run_id, project_key, started_at_utc, module_count, symbol_count, boundary_count)
VALUES (?, ?, ?, ?, ?, ?)`,
		runID, s.projectKey, run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Modules, len(run.Symbols), len(run.Boundary),
	)
	return err
}

// Lookup returns the stored row for an absolute path such as crate::pci::Bar.
func (s *Store) Lookup(ctx context.Context, path string) (symtab.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		rec              symtab.Record
		public, imported int
	)
	err := s.withRetry("lookup symbol", func() error {
		return s.db.QueryRowContext(ctx, `
SELECT path, module, name, kind, public, imported, canonical, file, line
FROM symbols WHERE project_key = ? AND path = ?`, s.projectKey, strings.TrimSpace(path),
		).Scan(&rec.Path, &rec.Module, &rec.Name, &rec.Kind, &public, &imported, &rec.Canonical, &rec.File, &rec.Line)
	})
	if stderrors.Is(err, sql.ErrNoRows) {
		return symtab.Record{}, errors.Newf(errors.CodeNotFound, "no symbol stored at %s", path).
			WithContext(errors.CtxPath, path)
	}
	if err != nil {
		return symtab.Record{}, err
	}
	rec.Public = public != 0
	rec.Imported = imported != 0
	return rec, nil
}

// BoundaryTypes returns the stored boundary list ordered by id.
func (s *Store) BoundaryTypes(ctx context.Context) ([]Boundary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows *sql.Rows
	err := s.withRetry("load boundary types", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, `SELECT id, type FROM boundary_types WHERE project_key = ? ORDER BY id`, s.projectKey)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Boundary
	for rows.Next() {
		var bt Boundary
		if err := rows.Scan(&bt.ID, &bt.Type); err != nil {
			return nil, err
		}
		out = append(out, bt)
	}
	return out, rows.Err()
}

// LatestRun returns the most recent run recorded for the project.
func (s *Store) LatestRun(ctx context.Context) (RunInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		info    RunInfo
		idRaw   string
		startTS string
	)
	err := s.withRetry("load latest run", func() error {
		return s.db.QueryRowContext(ctx, `
SELECT run_id, started_at_utc, module_count, symbol_count, boundary_count
FROM runs WHERE project_key = ? ORDER BY rowid DESC LIMIT 1`, s.projectKey,
		).Scan(&idRaw, &startTS, &info.Modules, &info.Symbols, &info.BoundaryTypes)
	})
	if stderrors.Is(err, sql.ErrNoRows) {
		return RunInfo{}, errors.Newf(errors.CodeNotFound, "no runs stored for project %q", s.projectKey)
	}
	if err != nil {
		return RunInfo{}, err
	}
	if info.ID, err = uuid.Parse(idRaw); err != nil {
		return RunInfo{}, fmt.Errorf("parse run id %q: %w", idRaw, err)
	}
	if info.StartedAt, err = time.Parse(time.RFC3339Nano, startTS); err != nil {
		return RunInfo{}, fmt.Errorf("parse run timestamp %q: %w", startTS, err)
	}
	return info, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if stderrors.Is(err, sql.ErrNoRows) {
			return err
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
