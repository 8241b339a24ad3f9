package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"clusterlog-go/internal/types"
)

type PostgresStore struct {
	conn *pgx.Conn
}

// OpenPostgres connects and creates the schema if it is missing.
func OpenPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	return &PostgresStore{conn: conn}, nil
}

func initSchema(ctx context.Context, conn *pgx.Conn) error {
	schema, err := migrationsFS.ReadFile("migrations/000001_init.up.sql")
	if err != nil {
		return err
	}
	_, err = conn.Exec(ctx, string(schema))
	return err
}

func (s *PostgresStore) SaveRun(ctx context.Context, run Run) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO runs (id, path, source, settings, size_bytes, lines, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, run.ID, run.Path, run.Source, run.Settings, run.Size, run.Lines, run.StartedAt.UTC())
	return err
}

func (s *PostgresStore) SaveFrame(ctx context.Context, runID string, rec types.FrameRecord) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO frames (run_id, frame_index, capture_time, running_time, pixel_count)
		VALUES ($1, $2, $3, $4, $5)
	`, runID, rec.Index, rec.CaptureTime, rec.RunningTime, len(rec.Pixels)); err != nil {
		return fmt.Errorf("insert frame %d: %w", rec.Index, err)
	}

	rows := make([][]any, 0, len(rec.Pixels))
	for _, p := range rec.Pixels {
		rows = append(rows, []any{runID, int64(rec.Index), int64(p.Key), p.X, p.Y, p.Count})
	}
	if _, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{"pixels"},
		[]string{"run_id", "frame_index", "pixel_key", "x", "y", "count"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("copy pixels of frame %d: %w", rec.Index, err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) FinishRun(ctx context.Context, runID string, frames int) error {
	tag, err := s.conn.Exec(ctx, `
		UPDATE runs SET frames = $1, finished_at = NOW() WHERE id = $2
	`, frames, runID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

func (s *PostgresStore) CountFrames(ctx context.Context, runID string) (int, error) {
	var n int
	err := s.conn.QueryRow(ctx, "SELECT COUNT(*) FROM frames WHERE run_id = $1", runID).Scan(&n)
	return n, err
}

func (s *PostgresStore) Close() error {
	return s.conn.Close(context.Background())
}
