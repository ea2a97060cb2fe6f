package dto

// CreateExportTargetRequest registers a new spreadsheet export destination
type CreateExportTargetRequest struct {
	Name       string `json:"name" validate:"required,min=1,max=255"`
	OutputPath string `json:"output_path" validate:"required,min=1"`
	Enabled    *bool  `json:"enabled,omitempty"`
}

// ExportTargetDTO is the API view of an export target
type ExportTargetDTO struct {
	ID                  uint    `json:"id"`
	Name                string  `json:"name"`
	OutputPath          string  `json:"output_path"`
	Enabled             bool    `json:"enabled"`
	LastSyncAt          *string `json:"last_sync_at,omitempty"`
	LastSourceFetchedAt *string `json:"last_source_fetched_at,omitempty"`
	LastSyncHash        *string `json:"last_sync_hash,omitempty"`
}

// ExportRunResult summarizes one export pass over all enabled targets
type ExportRunResult struct {
	Date           string `json:"date"`
	TargetsTotal   int    `json:"targets_total"`
	TargetsWritten int    `json:"targets_written"`
	TargetsSkipped int    `json:"targets_skipped"`
	RowsExported   int    `json:"rows_exported"`
}
