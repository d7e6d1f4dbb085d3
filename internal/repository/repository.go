package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/outbreak-estimator/internal/config"
	"github.com/Dan9191/outbreak-estimator/internal/models"
)

// RequestLogStore keeps the append-only request audit log
type RequestLogStore interface {
	Append(ctx context.Context, entry *models.RequestLog) error
	List(ctx context.Context) ([]models.RequestLog, error)
	// Prune removes entries created before the given time and reports how many were removed
	Prune(ctx context.Context, before time.Time) (int64, error)
	Close() error
}

// NewRequestLogStore opens the store selected by cfg.LogStore
func NewRequestLogStore(cfg *config.Config) (RequestLogStore, error) {
	switch cfg.LogStore {
	case config.StoreFile:
		return NewFileStore(cfg.LogFile), nil
	case config.StorePostgres, config.StoreSQLite:
		return OpenSQLStore(cfg.LogStore, cfg.LogDSN)
	default:
		return nil, fmt.Errorf("unknown log store %q", cfg.LogStore)
	}
}
