// Package models contains domain entities and business models for the tariff sync service
package models

import (
	"encoding/json"
	"time"
)

// TariffDaily is one warehouse's box-tariff measures for one calendar date.
// Monetary and liter measures are stored as fixed-precision decimals and
// carried in Go as canonical 4-decimal strings; coefficient expressions are
// integers. All nine measures are nullable because the feed is noisy.
type TariffDaily struct {
	TariffDate  time.Time  `gorm:"type:date;primaryKey" json:"tariff_date"`
	WarehouseID uint       `gorm:"primaryKey" json:"warehouse_id"`
	Warehouse   *Warehouse `gorm:"foreignKey:WarehouseID;references:ID" json:"warehouse,omitempty"`

	DtTillMax *time.Time `gorm:"type:date" json:"dt_till_max,omitempty"`
	FetchedAt time.Time  `gorm:"default:CURRENT_TIMESTAMP;not null" json:"fetched_at"`

	BoxDeliveryBase     *string `gorm:"type:numeric(14,4)" json:"box_delivery_base,omitempty"`
	BoxDeliveryCoefExpr *int    `json:"box_delivery_coef_expr,omitempty"`
	BoxDeliveryLiter    *string `gorm:"type:numeric(14,4)" json:"box_delivery_liter,omitempty"`

	BoxDeliveryMpBase     *string `gorm:"type:numeric(14,4)" json:"box_delivery_mp_base,omitempty"`
	BoxDeliveryMpCoefExpr *int    `json:"box_delivery_mp_coef_expr,omitempty"`
	BoxDeliveryMpLiter    *string `gorm:"type:numeric(14,4)" json:"box_delivery_mp_liter,omitempty"`

	BoxStorageBase     *string `gorm:"type:numeric(14,4)" json:"box_storage_base,omitempty"`
	BoxStorageCoefExpr *int    `json:"box_storage_coef_expr,omitempty"`
	BoxStorageLiter    *string `gorm:"type:numeric(14,4)" json:"box_storage_liter,omitempty"`

	SourcePayload json.RawMessage `gorm:"type:jsonb;not null" json:"source_payload"`
}

func (TariffDaily) TableName() string {
	return "wb_tariff_daily"
}

// TariffDailyFilter represents filter criteria for tariff fact queries
type TariffDailyFilter struct {
	TariffDate   *time.Time
	WarehouseID  *uint
	WarehouseIDs []uint
}
