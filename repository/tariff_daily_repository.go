// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/wbtools/tariff-sync/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TariffExportRow is a denormalized tariff fact joined with warehouse
// display fields, shaped for the spreadsheet export.
type TariffExportRow struct {
	TariffDate    time.Time  `json:"tariff_date"`
	WarehouseName string     `json:"warehouse_name"`
	GeoName       *string    `json:"geo_name"`
	DtTillMax     *time.Time `json:"dt_till_max"`

	BoxDeliveryCoefExpr *int    `json:"box_delivery_coef_expr"`
	BoxDeliveryBase     *string `json:"box_delivery_base"`
	BoxDeliveryLiter    *string `json:"box_delivery_liter"`

	BoxDeliveryMpCoefExpr *int    `json:"box_delivery_mp_coef_expr"`
	BoxDeliveryMpBase     *string `json:"box_delivery_mp_base"`
	BoxDeliveryMpLiter    *string `json:"box_delivery_mp_liter"`

	BoxStorageCoefExpr *int    `json:"box_storage_coef_expr"`
	BoxStorageBase     *string `json:"box_storage_base"`
	BoxStorageLiter    *string `json:"box_storage_liter"`

	FetchedAt time.Time `json:"fetched_at"`
}

// TariffDailyRepositoryImpl implements TariffDailyRepository
type TariffDailyRepositoryImpl struct {
	*BaseRepository[models.TariffDaily, models.TariffDailyFilter]
}

// NewTariffDailyRepository creates a new tariff fact repository
func NewTariffDailyRepository(db *gorm.DB) TariffDailyRepository {
	return &TariffDailyRepositoryImpl{
		BaseRepository: NewBaseRepository[models.TariffDaily, models.TariffDailyFilter](db),
	}
}

// ListForDate returns stored fact rows for one date and the given warehouses
func (r *TariffDailyRepositoryImpl) ListForDate(ctx context.Context, tariffDate time.Time, warehouseIDs []uint) ([]*models.TariffDaily, error) {
	if len(warehouseIDs) == 0 {
		return nil, nil
	}

	db := r.getDB(ctx)

	var rows []*models.TariffDaily
	err := db.Where("tariff_date = ?", tariffDate).
		Where("warehouse_id IN ?", warehouseIDs).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tariffs for date: %w", err)
	}

	return rows, nil
}

// UpsertBatch writes fact rows, merging on the composite primary key. Every
// merge refreshes fetched_at and the source payload snapshot alongside the
// measures.
func (r *TariffDailyRepositoryImpl) UpsertBatch(ctx context.Context, rows []*models.TariffDaily) error {
	if len(rows) == 0 {
		return nil
	}

	db := r.getDB(ctx)
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "tariff_date"}, {Name: "warehouse_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"dt_till_max":               clause.Expr{SQL: "EXCLUDED.dt_till_max"},
			"fetched_at":                clause.Expr{SQL: "EXCLUDED.fetched_at"},
			"box_delivery_base":         clause.Expr{SQL: "EXCLUDED.box_delivery_base"},
			"box_delivery_coef_expr":    clause.Expr{SQL: "EXCLUDED.box_delivery_coef_expr"},
			"box_delivery_liter":        clause.Expr{SQL: "EXCLUDED.box_delivery_liter"},
			"box_delivery_mp_base":      clause.Expr{SQL: "EXCLUDED.box_delivery_mp_base"},
			"box_delivery_mp_coef_expr": clause.Expr{SQL: "EXCLUDED.box_delivery_mp_coef_expr"},
			"box_delivery_mp_liter":     clause.Expr{SQL: "EXCLUDED.box_delivery_mp_liter"},
			"box_storage_base":          clause.Expr{SQL: "EXCLUDED.box_storage_base"},
			"box_storage_coef_expr":     clause.Expr{SQL: "EXCLUDED.box_storage_coef_expr"},
			"box_storage_liter":         clause.Expr{SQL: "EXCLUDED.box_storage_liter"},
			"source_payload":            clause.Expr{SQL: "EXCLUDED.source_payload"},
		}),
	}).Create(&rows).Error
}

// ListExportRows returns the day's facts joined with warehouse names,
// cheapest delivery coefficient first, nulls last.
func (r *TariffDailyRepositoryImpl) ListExportRows(ctx context.Context, tariffDate time.Time) ([]*TariffExportRow, error) {
	db := r.getDB(ctx)

	var rows []*TariffExportRow
	err := db.Table("wb_tariff_daily AS td").
		Select(`td.tariff_date, w.name AS warehouse_name, w.geo_name, td.dt_till_max,
			td.box_delivery_coef_expr, td.box_delivery_base, td.box_delivery_liter,
			td.box_delivery_mp_coef_expr, td.box_delivery_mp_base, td.box_delivery_mp_liter,
			td.box_storage_coef_expr, td.box_storage_base, td.box_storage_liter,
			td.fetched_at`).
		Joins("JOIN wb_warehouse AS w ON w.id = td.warehouse_id").
		Where("td.tariff_date = ?", tariffDate).
		Order("td.box_delivery_coef_expr ASC NULLS LAST, w.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list export rows: %w", err)
	}

	return rows, nil
}

// MaxFetchedAt returns the newest fetched_at for the date, nil when absent
func (r *TariffDailyRepositoryImpl) MaxFetchedAt(ctx context.Context, tariffDate time.Time) (*time.Time, error) {
	db := r.getDB(ctx)

	var result struct {
		Max *time.Time
	}
	err := db.Table("wb_tariff_daily").
		Select("MAX(fetched_at) AS max").
		Where("tariff_date = ?", tariffDate).
		Scan(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query max fetched_at: %w", err)
	}

	return result.Max, nil
}
