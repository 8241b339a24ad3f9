// Package store persists parsed runs, frames and pixels to SQLite or
// PostgreSQL.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"clusterlog-go/internal/types"
)

// Run describes one ingested cluster log.
type Run struct {
	ID        string
	Path      string
	Source    string
	Settings  string
	Size      int64
	Lines     int
	StartedAt time.Time
}

type Store interface {
	SaveRun(ctx context.Context, run Run) error
	SaveFrame(ctx context.Context, runID string, rec types.FrameRecord) error
	FinishRun(ctx context.Context, runID string, frames int) error
	CountFrames(ctx context.Context, runID string) (int, error)
	Close() error
}

func NewRunID() string {
	return uuid.NewString()
}

// Open picks the backend from the DSN: postgres:// and postgresql:// URLs
// go to PostgreSQL, anything else is a SQLite path (an optional sqlite://
// prefix is stripped).
func Open(ctx context.Context, dsn string) (Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return OpenPostgres(ctx, dsn)
	}
	return OpenSQLite(strings.TrimPrefix(dsn, "sqlite://"))
}

var ErrRunNotFound = errors.New("run not found")
