// Package models contains domain entities and business models for the tariff sync service
package models

import (
	"time"
)

// Warehouse is a named delivery/storage location from the WB tariff feed.
// Identity is the normalized (name, geo name) pair; display fields keep the
// casing of the most recent ingest.
type Warehouse struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"type:text;not null" json:"name"`
	GeoName     *string   `gorm:"type:text" json:"geo_name,omitempty"`
	NameNorm    string    `gorm:"type:text;not null;uniqueIndex:wb_warehouse_name_geo_name_norm_uk" json:"name_norm"`
	GeoNameNorm string    `gorm:"type:text;not null;uniqueIndex:wb_warehouse_name_geo_name_norm_uk" json:"geo_name_norm"`
	CreatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Warehouse) TableName() string {
	return "wb_warehouse"
}

// DedupeKey returns the normalized natural key that identifies this
// warehouse across ingests regardless of casing/whitespace variance.
func (w *Warehouse) DedupeKey() string {
	return w.NameNorm + "|" + w.GeoNameNorm
}

// WarehouseFilter represents filter criteria for warehouse queries
type WarehouseFilter struct {
	ID          *uint
	NameNorm    *string
	GeoNameNorm *string
}
