// Package businessflow contains the core business logic for tariff ingestion and export
package businessflow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/wbtools/tariff-sync/app/dto"
	"github.com/wbtools/tariff-sync/models"
	"github.com/wbtools/tariff-sync/repository"
	"github.com/wbtools/tariff-sync/utils"
	"github.com/xuri/excelize/v2"
)

// exportSheetName is the single worksheet every exported workbook carries
const exportSheetName = "tariffs"

var exportHeader = []any{
	"warehouse_name", "geo_name", "tariff_date", "dt_till_max",
	"box_delivery_coef_expr", "box_delivery_base", "box_delivery_liter",
	"box_delivery_mp_coef_expr", "box_delivery_mp_base", "box_delivery_mp_liter",
	"box_storage_coef_expr", "box_storage_base", "box_storage_liter",
}

// ExportFlow writes the day's tariff rows to registered spreadsheet targets
type ExportFlow interface {
	RunExport(ctx context.Context, date string) (*dto.ExportRunResult, error)
	CreateTarget(ctx context.Context, req *dto.CreateExportTargetRequest) (*dto.ExportTargetDTO, error)
	ListTargets(ctx context.Context) ([]*dto.ExportTargetDTO, error)
}

// ExportFlowImpl implements ExportFlow
type ExportFlowImpl struct {
	tariffRepo repository.TariffDailyRepository
	targetRepo repository.ExportTargetRepository
}

// NewExportFlow creates a new spreadsheet export flow
func NewExportFlow(tariffRepo repository.TariffDailyRepository, targetRepo repository.ExportTargetRepository) ExportFlow {
	return &ExportFlowImpl{
		tariffRepo: tariffRepo,
		targetRepo: targetRepo,
	}
}

// RunExport writes the given date's rows to every enabled target. A target
// whose last recorded sync hash matches the current content hash is skipped;
// everything else gets a freshly written workbook and updated sync state.
// One failing target does not block the others; the first error is returned
// after the pass completes.
func (f *ExportFlowImpl) RunExport(ctx context.Context, date string) (*dto.ExportRunResult, error) {
	tariffDate, err := utils.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	rows, err := f.tariffRepo.ListExportRows(ctx, tariffDate)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTariffRowsForDate, date)
	}

	fetchedAt, err := f.tariffRepo.MaxFetchedAt(ctx, tariffDate)
	if err != nil {
		return nil, err
	}
	if fetchedAt == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoTariffRowsForDate, date)
	}

	contentHash := ExportContentHash(rows)

	targets, err := f.targetRepo.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}

	result := &dto.ExportRunResult{
		Date:         date,
		TargetsTotal: len(targets),
		RowsExported: len(rows),
	}

	var firstErr error
	for _, target := range targets {
		if target.LastSyncHash != nil && *target.LastSyncHash == contentHash {
			result.TargetsSkipped++
			continue
		}

		if err := WriteExportWorkbook(target.OutputPath, rows); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("target %q: %w", target.Name, err)
			}
			continue
		}

		if err := f.targetRepo.UpdateSyncState(ctx, target.ID, *fetchedAt, contentHash); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("target %q: %w", target.Name, err)
			}
			continue
		}

		result.TargetsWritten++
	}

	return result, firstErr
}

// CreateTarget registers a new export destination
func (f *ExportFlowImpl) CreateTarget(ctx context.Context, req *dto.CreateExportTargetRequest) (*dto.ExportTargetDTO, error) {
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	target := &models.ExportTarget{
		Name:       req.Name,
		OutputPath: req.OutputPath,
		Enabled:    &enabled,
		CreatedAt:  utils.UTCNow(),
		UpdatedAt:  utils.UTCNow(),
	}
	if err := f.targetRepo.Save(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to save export target: %w", err)
	}

	return toExportTargetDTO(target), nil
}

// ListTargets returns every enabled export destination
func (f *ExportFlowImpl) ListTargets(ctx context.Context) ([]*dto.ExportTargetDTO, error) {
	targets, err := f.targetRepo.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]*dto.ExportTargetDTO, 0, len(targets))
	for _, target := range targets {
		dtos = append(dtos, toExportTargetDTO(target))
	}
	return dtos, nil
}

func toExportTargetDTO(target *models.ExportTarget) *dto.ExportTargetDTO {
	out := &dto.ExportTargetDTO{
		ID:           target.ID,
		Name:         target.Name,
		OutputPath:   target.OutputPath,
		Enabled:      target.IsEnabled(),
		LastSyncHash: target.LastSyncHash,
	}
	if target.LastSyncAt != nil {
		out.LastSyncAt = utils.ToPtr(target.LastSyncAt.UTC().Format(time.RFC3339))
	}
	if target.LastSourceFetchedAt != nil {
		out.LastSourceFetchedAt = utils.ToPtr(target.LastSourceFetchedAt.UTC().Format(time.RFC3339))
	}
	return out
}

// ExportContentHash hashes the ordered export rows so unchanged content can
// be detected per target without rereading previously written files. The
// encoding reuses the fact fingerprint's nil-tagged length-prefixed scheme.
func ExportContentHash(rows []*repository.TariffExportRow) string {
	h := sha256.New()

	writeField := func(value *string) {
		if value == nil {
			h.Write([]byte("n;"))
			return
		}
		h.Write([]byte("v" + strconv.Itoa(len(*value)) + ":" + *value + ";"))
	}
	writeInt := func(value *int) {
		if value == nil {
			writeField(nil)
			return
		}
		writeField(utils.ToPtr(strconv.Itoa(*value)))
	}
	writeDate := func(value *time.Time) {
		if value == nil {
			writeField(nil)
			return
		}
		writeField(utils.ToPtr(value.Format(utils.DateLayout)))
	}

	for _, row := range rows {
		writeField(utils.ToPtr(row.WarehouseName))
		writeField(row.GeoName)
		writeDate(utils.ToPtr(row.TariffDate))
		writeDate(row.DtTillMax)

		writeInt(row.BoxDeliveryCoefExpr)
		writeField(row.BoxDeliveryBase)
		writeField(row.BoxDeliveryLiter)

		writeInt(row.BoxDeliveryMpCoefExpr)
		writeField(row.BoxDeliveryMpBase)
		writeField(row.BoxDeliveryMpLiter)

		writeInt(row.BoxStorageCoefExpr)
		writeField(row.BoxStorageBase)
		writeField(row.BoxStorageLiter)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// WriteExportWorkbook writes the rows to an xlsx workbook at outputPath,
// header row first, preserving the incoming row order.
func WriteExportWorkbook(outputPath string, rows []*repository.TariffExportRow) error {
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", exportSheetName); err != nil {
		return fmt.Errorf("failed to rename export sheet: %w", err)
	}

	if err := file.SetSheetRow(exportSheetName, "A1", &exportHeader); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			row.WarehouseName,
			derefOrEmpty(row.GeoName),
			row.TariffDate.Format(utils.DateLayout),
			formatNullableDate(row.DtTillMax),
			formatNullableInt(row.BoxDeliveryCoefExpr),
			derefOrEmpty(row.BoxDeliveryBase),
			derefOrEmpty(row.BoxDeliveryLiter),
			formatNullableInt(row.BoxDeliveryMpCoefExpr),
			derefOrEmpty(row.BoxDeliveryMpBase),
			derefOrEmpty(row.BoxDeliveryMpLiter),
			formatNullableInt(row.BoxStorageCoefExpr),
			derefOrEmpty(row.BoxStorageBase),
			derefOrEmpty(row.BoxStorageLiter),
		}
		if err := file.SetSheetRow(exportSheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write export row %d: %w", i+1, err)
		}
	}

	if err := file.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save export workbook: %w", err)
	}
	return nil
}

func derefOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func formatNullableInt(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}

func formatNullableDate(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format(utils.DateLayout)
}
