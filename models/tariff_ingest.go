// Package models contains domain entities and business models for the tariff sync service
package models

import (
	"encoding/json"
	"time"
)

// Ingest status constants
const (
	IngestStatusOK = "ok"
)

// TariffIngest is an append-only audit record of one raw feed response.
// Rows are immutable once written; one row per pipeline invocation.
type TariffIngest struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	FetchedAt time.Time       `gorm:"default:CURRENT_TIMESTAMP;not null" json:"fetched_at"`
	Payload   json.RawMessage `gorm:"type:jsonb;not null" json:"payload"`
	Status    string          `gorm:"type:text;not null;default:ok" json:"status"`
}

func (TariffIngest) TableName() string {
	return "wb_tariff_ingest"
}
