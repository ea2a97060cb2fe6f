// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"

	"github.com/wbtools/tariff-sync/models"
	"gorm.io/gorm"
)

// TariffIngestRepositoryImpl implements TariffIngestRepository
type TariffIngestRepositoryImpl struct {
	*BaseRepository[models.TariffIngest, any]
}

// NewTariffIngestRepository creates a new ingest log repository
func NewTariffIngestRepository(db *gorm.DB) TariffIngestRepository {
	return &TariffIngestRepositoryImpl{
		BaseRepository: NewBaseRepository[models.TariffIngest, any](db),
	}
}

// Append writes one immutable audit entry. There is deliberately no update
// or delete path for this table.
func (r *TariffIngestRepositoryImpl) Append(ctx context.Context, entry *models.TariffIngest) error {
	return r.Save(ctx, entry)
}

func (r *TariffIngestRepositoryImpl) CountAll(ctx context.Context) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	if err := db.Model(&models.TariffIngest{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count ingest entries: %w", err)
	}
	return count, nil
}
