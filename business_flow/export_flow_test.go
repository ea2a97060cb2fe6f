package businessflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbtools/tariff-sync/models"
	"github.com/wbtools/tariff-sync/repository"
	"github.com/wbtools/tariff-sync/utils"
	"github.com/xuri/excelize/v2"
)

func exportRow(name string, coef int, base string) *repository.TariffExportRow {
	return &repository.TariffExportRow{
		TariffDate:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		WarehouseName:       name,
		GeoName:             utils.ToPtr("Центральный ФО"),
		BoxDeliveryCoefExpr: utils.ToPtr(coef),
		BoxDeliveryBase:     utils.ToPtr(base),
		BoxDeliveryLiter:    utils.ToPtr("11.2000"),
		FetchedAt:           time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestExportContentHash(t *testing.T) {
	rows := []*repository.TariffExportRow{exportRow("Коледино", 125, "48.0000")}

	// Stable for identical content
	assert.Equal(t, ExportContentHash(rows), ExportContentHash(rows))

	// Sensitive to measure changes
	other := []*repository.TariffExportRow{exportRow("Коледино", 125, "49.0000")}
	assert.NotEqual(t, ExportContentHash(rows), ExportContentHash(other))

	// Sensitive to row order
	two := []*repository.TariffExportRow{exportRow("А", 100, "1.0000"), exportRow("Б", 200, "2.0000")}
	reversed := []*repository.TariffExportRow{two[1], two[0]}
	assert.NotEqual(t, ExportContentHash(two), ExportContentHash(reversed))
}

func TestWriteExportWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tariffs.xlsx")
	rows := []*repository.TariffExportRow{
		exportRow("Коледино", 125, "48.0000"),
		exportRow("Тула", 130, "52.0000"),
	}

	require.NoError(t, WriteExportWorkbook(path, rows))

	file, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer file.Close()

	got, err := file.GetRows("tariffs")
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "warehouse_name", got[0][0])
	assert.Equal(t, "Коледино", got[1][0])
	assert.Equal(t, "2026-03-01", got[1][2])
	assert.Equal(t, "125", got[1][4])
	assert.Equal(t, "48.0000", got[1][5])
	assert.Equal(t, "Тула", got[2][0])
}

// fakeTariffDailyRepo serves canned export rows
type fakeTariffDailyRepo struct {
	repository.TariffDailyRepository
	rows      []*repository.TariffExportRow
	fetchedAt time.Time
}

func (f *fakeTariffDailyRepo) ListExportRows(_ context.Context, _ time.Time) ([]*repository.TariffExportRow, error) {
	return f.rows, nil
}

func (f *fakeTariffDailyRepo) MaxFetchedAt(_ context.Context, _ time.Time) (*time.Time, error) {
	if len(f.rows) == 0 {
		return nil, nil
	}
	return &f.fetchedAt, nil
}

// fakeExportTargetRepo keeps targets in memory and records sync-state updates
type fakeExportTargetRepo struct {
	repository.ExportTargetRepository
	targets []*models.ExportTarget
	synced  []uint
}

func (f *fakeExportTargetRepo) ListEnabled(_ context.Context) ([]*models.ExportTarget, error) {
	enabled := make([]*models.ExportTarget, 0, len(f.targets))
	for _, t := range f.targets {
		if t.IsEnabled() {
			enabled = append(enabled, t)
		}
	}
	return enabled, nil
}

func (f *fakeExportTargetRepo) UpdateSyncState(_ context.Context, targetID uint, sourceFetchedAt time.Time, syncHash string) error {
	f.synced = append(f.synced, targetID)
	for _, t := range f.targets {
		if t.ID == targetID {
			t.LastSyncHash = utils.ToPtr(syncHash)
			t.LastSourceFetchedAt = utils.ToPtr(sourceFetchedAt)
			t.LastSyncAt = utils.UTCNowPtr()
		}
	}
	return nil
}

func TestRunExportHashSkip(t *testing.T) {
	ctx := context.Background()
	outputPath := filepath.Join(t.TempDir(), "tariffs.xlsx")

	tariffRepo := &fakeTariffDailyRepo{
		rows:      []*repository.TariffExportRow{exportRow("Коледино", 125, "48.0000")},
		fetchedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	enabled := true
	targetRepo := &fakeExportTargetRepo{
		targets: []*models.ExportTarget{{ID: 1, Name: "main", OutputPath: outputPath, Enabled: &enabled}},
	}

	flow := NewExportFlow(tariffRepo, targetRepo)

	result, err := flow.RunExport(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, result.TargetsWritten)
	assert.Equal(t, 0, result.TargetsSkipped)
	assert.Len(t, targetRepo.synced, 1)

	written, err := os.Stat(outputPath)
	require.NoError(t, err)

	// Unchanged rows: the second pass skips the target and leaves the file alone
	result, err = flow.RunExport(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 0, result.TargetsWritten)
	assert.Equal(t, 1, result.TargetsSkipped)
	assert.Len(t, targetRepo.synced, 1)

	after, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Equal(t, written.ModTime(), after.ModTime())

	// A content change invalidates the stored hash and rewrites the file
	tariffRepo.rows = []*repository.TariffExportRow{exportRow("Коледино", 125, "51.0000")}
	result, err = flow.RunExport(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, result.TargetsWritten)
	assert.Len(t, targetRepo.synced, 2)
}

func TestRunExportNoRowsForDate(t *testing.T) {
	flow := NewExportFlow(&fakeTariffDailyRepo{}, &fakeExportTargetRepo{})

	_, err := flow.RunExport(context.Background(), "2026-03-01")
	assert.True(t, IsNoTariffRowsForDate(err))

	_, err = flow.RunExport(context.Background(), "bad-date")
	assert.True(t, IsInvalidDate(err))
}

func TestWriteExportWorkbookNilMeasures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tariffs.xlsx")
	row := exportRow("Коледино", 125, "48.0000")
	row.BoxDeliveryCoefExpr = nil
	row.GeoName = nil

	require.NoError(t, WriteExportWorkbook(path, []*repository.TariffExportRow{row}))

	file, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer file.Close()

	cell, err := file.GetCellValue("tariffs", "E2")
	require.NoError(t, err)
	assert.Equal(t, "", cell)
}
