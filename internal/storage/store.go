// Package storage persists the run history: one audit record per upload
// and per generated report. Datasets themselves are never persisted.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/vigia-platform/vigia/internal/core"
)

// Run kinds recorded in the audit history.
const (
	RunUpload = "upload"
	RunReport = "report"
)

// RunRecord is one audit entry.
type RunRecord struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Kind        string    `json:"kind"`
	Filename    string    `json:"filename"`
	RowsKept    int       `json:"rows_kept"`
	RowsDropped int       `json:"rows_dropped"`
	DurationMS  int64     `json:"duration_ms"`
}

// Store is the run-history backend. Implementations are safe for
// concurrent use.
type Store interface {
	SaveRun(ctx context.Context, rec *RunRecord) error
	RecentRuns(ctx context.Context, limit int) ([]RunRecord, error)
	Health(ctx context.Context) error
	Close()
}

// NewStore opens the backend named by the configuration driver.
func NewStore(cfg *core.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		return NewPostgresStore(cfg.GetDatabaseURL(), cfg.Storage.MaxConnections)
	case "sqlite":
		return NewSQLiteStore(cfg.Storage.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.Storage.Driver)
	}
}
