// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/wbtools/tariff-sync/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WarehouseRepositoryImpl implements WarehouseRepository
type WarehouseRepositoryImpl struct {
	*BaseRepository[models.Warehouse, models.WarehouseFilter]
}

// NewWarehouseRepository creates a new warehouse repository
func NewWarehouseRepository(db *gorm.DB) WarehouseRepository {
	return &WarehouseRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Warehouse, models.WarehouseFilter](db),
	}
}

// UpsertBatch inserts or merges warehouses in one statement. Conflicts are
// matched on (name_norm, geo_name_norm); display name/geo are overwritten
// with the incoming values while the surrogate id stays stable. The returned
// map resolves dedupe keys to persisted ids.
func (r *WarehouseRepositoryImpl) UpsertBatch(ctx context.Context, warehouses []*models.Warehouse) (map[string]uint, error) {
	idByKey := make(map[string]uint, len(warehouses))
	if len(warehouses) == 0 {
		return idByKey, nil
	}

	// Deduplicate by conflict key to avoid ON CONFLICT hitting same row twice in one statement
	seen := make(map[string]struct{}, len(warehouses))
	deduped := make([]*models.Warehouse, 0, len(warehouses))
	for _, w := range warehouses {
		if w == nil {
			continue
		}
		key := w.DedupeKey()
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, w)
	}

	db := r.getDB(ctx)
	err := db.Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "name_norm"}, {Name: "geo_name_norm"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":     clause.Expr{SQL: "EXCLUDED.name"},
				"geo_name": clause.Expr{SQL: "EXCLUDED.geo_name"},
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "id"}}},
	).Create(&deduped).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert warehouses: %w", err)
	}

	for _, w := range deduped {
		idByKey[w.DedupeKey()] = w.ID
	}
	return idByKey, nil
}

// ByDedupeKey retrieves a warehouse by its normalized natural key
func (r *WarehouseRepositoryImpl) ByDedupeKey(ctx context.Context, nameNorm, geoNameNorm string) (*models.Warehouse, error) {
	db := r.getDB(ctx)

	var warehouse models.Warehouse
	err := db.Where("name_norm = ? AND geo_name_norm = ?", nameNorm, geoNameNorm).First(&warehouse).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find warehouse by dedupe key: %w", err)
	}

	return &warehouse, nil
}

func (r *WarehouseRepositoryImpl) CountAll(ctx context.Context) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	if err := db.Model(&models.Warehouse{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count warehouses: %w", err)
	}
	return count, nil
}
