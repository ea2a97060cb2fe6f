// Package models contains domain entities and business models for the tariff sync service
package models

import (
	"time"
)

// ExportTarget is a registered destination for the daily spreadsheet export.
// LastSyncHash lets the exporter skip targets whose source rows have not
// changed since the previous sync.
type ExportTarget struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	Name                string     `gorm:"type:text;not null" json:"name"`
	OutputPath          string     `gorm:"type:text;not null" json:"output_path"`
	Enabled             *bool      `gorm:"default:true" json:"enabled"`
	LastSyncAt          *time.Time `json:"last_sync_at,omitempty"`
	LastSourceFetchedAt *time.Time `json:"last_source_fetched_at,omitempty"`
	LastSyncHash        *string    `gorm:"type:text" json:"last_sync_hash,omitempty"`
	CreatedAt           time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ExportTarget) TableName() string {
	return "export_targets"
}

func (t *ExportTarget) IsEnabled() bool {
	return t.Enabled != nil && *t.Enabled
}

// ExportTargetFilter represents filter criteria for export target queries
type ExportTargetFilter struct {
	ID      *uint
	Enabled *bool
}
