// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/wbtools/tariff-sync/models"
	"github.com/wbtools/tariff-sync/utils"
	"gorm.io/gorm"
)

// ExportTargetRepositoryImpl implements ExportTargetRepository
type ExportTargetRepositoryImpl struct {
	*BaseRepository[models.ExportTarget, models.ExportTargetFilter]
}

// NewExportTargetRepository creates a new export target repository
func NewExportTargetRepository(db *gorm.DB) ExportTargetRepository {
	return &ExportTargetRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ExportTarget, models.ExportTargetFilter](db),
	}
}

// ListEnabled returns all targets the exporter should consider
func (r *ExportTargetRepositoryImpl) ListEnabled(ctx context.Context) ([]*models.ExportTarget, error) {
	db := r.getDB(ctx)

	var targets []*models.ExportTarget
	err := db.Where("enabled = ?", true).
		Order("id ASC").
		Find(&targets).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled export targets: %w", err)
	}

	return targets, nil
}

// UpdateSyncState records a completed sync for a target
func (r *ExportTargetRepositoryImpl) UpdateSyncState(ctx context.Context, targetID uint, sourceFetchedAt time.Time, syncHash string) error {
	db := r.getDB(ctx)

	err := db.Model(&models.ExportTarget{}).
		Where("id = ?", targetID).
		Updates(map[string]any{
			"last_sync_at":           utils.UTCNow(),
			"last_source_fetched_at": sourceFetchedAt,
			"last_sync_hash":         syncHash,
			"updated_at":             utils.UTCNow(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to update export target sync state: %w", err)
	}

	return nil
}
