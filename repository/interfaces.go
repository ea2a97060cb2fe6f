// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/wbtools/tariff-sync/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
}

// WarehouseRepository defines operations for the warehouse dimension
type WarehouseRepository interface {
	Repository[models.Warehouse, models.WarehouseFilter]
	// UpsertBatch inserts or merges warehouses matched on the normalized
	// (name, geo name) pair and returns a map from dedupe key to the
	// persisted surrogate id. Display columns are overwritten on conflict;
	// ids are stable across merges.
	UpsertBatch(ctx context.Context, warehouses []*models.Warehouse) (map[string]uint, error)
	ByDedupeKey(ctx context.Context, nameNorm, geoNameNorm string) (*models.Warehouse, error)
	CountAll(ctx context.Context) (int64, error)
}

// TariffDailyRepository defines operations for tariff fact rows
type TariffDailyRepository interface {
	Repository[models.TariffDaily, models.TariffDailyFilter]
	// ListForDate returns the stored fact rows for the given date restricted
	// to the given warehouse ids.
	ListForDate(ctx context.Context, tariffDate time.Time, warehouseIDs []uint) ([]*models.TariffDaily, error)
	// UpsertBatch writes fact rows with insert-or-merge semantics on the
	// (tariff_date, warehouse_id) primary key.
	UpsertBatch(ctx context.Context, rows []*models.TariffDaily) error
	// ListExportRows returns the day's facts joined with warehouse display
	// fields, ordered by delivery coefficient then warehouse name.
	ListExportRows(ctx context.Context, tariffDate time.Time) ([]*TariffExportRow, error)
	// MaxFetchedAt returns the newest fetched_at for the given date, or nil
	// when the date has no rows.
	MaxFetchedAt(ctx context.Context, tariffDate time.Time) (*time.Time, error)
}

// TariffIngestRepository defines operations for the append-only ingest log
type TariffIngestRepository interface {
	Repository[models.TariffIngest, any]
	// Append writes one immutable audit entry for a raw feed response.
	Append(ctx context.Context, entry *models.TariffIngest) error
	CountAll(ctx context.Context) (int64, error)
}

// ExportTargetRepository defines operations for spreadsheet export targets
type ExportTargetRepository interface {
	Repository[models.ExportTarget, models.ExportTargetFilter]
	ListEnabled(ctx context.Context) ([]*models.ExportTarget, error)
	// UpdateSyncState records a completed sync for a target.
	UpdateSyncState(ctx context.Context, targetID uint, sourceFetchedAt time.Time, syncHash string) error
}
