package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"clusterlog-go/internal/types"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := migrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	// m is not closed: that would close db.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...any) {
	log.Printf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, path, source, settings, size_bytes, lines, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.Path, run.Source, run.Settings, run.Size, run.Lines, run.StartedAt.UTC())
	return err
}

func (s *SQLiteStore) SaveFrame(ctx context.Context, runID string, rec types.FrameRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO frames (run_id, frame_index, capture_time, running_time, pixel_count)
		VALUES (?, ?, ?, ?, ?)
	`, runID, rec.Index, rec.CaptureTime, rec.RunningTime, len(rec.Pixels)); err != nil {
		return fmt.Errorf("insert frame %d: %w", rec.Index, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pixels (run_id, frame_index, pixel_key, x, y, count)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, p := range rec.Pixels {
		if _, err := stmt.ExecContext(ctx, runID, rec.Index, int64(p.Key), p.X, p.Y, p.Count); err != nil {
			return fmt.Errorf("insert pixel %d of frame %d: %w", p.Key, rec.Index, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) FinishRun(ctx context.Context, runID string, frames int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE runs SET frames = ?, finished_at = CURRENT_TIMESTAMP WHERE id = ?
	`, frames, runID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

func (s *SQLiteStore) CountFrames(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM frames WHERE run_id = ?", runID).Scan(&n)
	return n, err
}

// Pixels returns the stored pixels of one frame in key order.
func (s *SQLiteStore) Pixels(ctx context.Context, runID string, frameIndex int) ([]types.PixelRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pixel_key, x, y, count FROM pixels
		WHERE run_id = ? AND frame_index = ?
		ORDER BY pixel_key
	`, runID, frameIndex)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.PixelRecord
	for rows.Next() {
		var p types.PixelRecord
		var key int64
		if err := rows.Scan(&key, &p.X, &p.Y, &p.Count); err != nil {
			return nil, err
		}
		p.Key = uint(key)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
