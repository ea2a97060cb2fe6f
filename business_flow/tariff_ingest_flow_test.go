package businessflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wbtools/tariff-sync/app/services"
	businessflow "github.com/wbtools/tariff-sync/business_flow"
	"github.com/wbtools/tariff-sync/repository"
	testingutil "github.com/wbtools/tariff-sync/testing"
)

func setupIngestFlow(t *testing.T) (*testingutil.TestDB, func(raw []byte) businessflow.TariffIngestFlow) {
	t.Helper()

	testDB, err := testingutil.SetupTestDB()
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := testDB.TeardownTestDB(); err != nil {
			t.Logf("teardown: %v", err)
		}
	})

	build := func(raw []byte) businessflow.TariffIngestFlow {
		client, err := services.NewMockTariffsClient(raw)
		require.NoError(t, err)
		return businessflow.NewTariffIngestFlow(
			client,
			repository.NewWarehouseRepository(testDB.DB),
			repository.NewTariffDailyRepository(testDB.DB),
			repository.NewTariffIngestRepository(testDB.DB),
			testDB.DB,
		)
	}
	return testDB, build
}

func TestIngestDatePipeline(t *testing.T) {
	testDB, build := setupIngestFlow(t)
	ctx := context.Background()

	item1 := testingutil.SampleFeedItem("Коледино", "Центральный ФО", "48", "125", "11,2")
	item2 := testingutil.SampleFeedItem("Тула", "Центральный ФО", "52", "130", "12,0")
	raw, _, err := testingutil.SampleFeedResponse("2026-03-31", item1, item2)
	require.NoError(t, err)

	flow := build(raw)

	result, err := flow.IngestDate(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalWarehouses)
	assert.Equal(t, 2, result.UpsertedTariffs)
	assert.Equal(t, 0, result.SkippedTariffs)

	// One audit entry per run
	ingestRepo := repository.NewTariffIngestRepository(testDB.DB)
	count, err := ingestRepo.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Unchanged re-run skips every row but still logs the fetch
	result, err = flow.IngestDate(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalWarehouses)
	assert.Equal(t, 0, result.UpsertedTariffs)
	assert.Equal(t, 2, result.SkippedTariffs)

	count, err = ingestRepo.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestIngestDateChangedValueUpserts(t *testing.T) {
	testDB, build := setupIngestFlow(t)
	ctx := context.Background()

	item := testingutil.SampleFeedItem("Коледино", "Центральный ФО", "48", "125", "11,2")
	raw, _, err := testingutil.SampleFeedResponse("2026-03-31", item)
	require.NoError(t, err)

	result, err := build(raw).IngestDate(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, result.UpsertedTariffs)

	// Same warehouse, one measure changed
	changed := testingutil.SampleFeedItem("Коледино", "Центральный ФО", "51", "125", "11,2")
	raw2, _, err := testingutil.SampleFeedResponse("2026-03-31", changed)
	require.NoError(t, err)

	result, err = build(raw2).IngestDate(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, 1, result.UpsertedTariffs)
	assert.Equal(t, 0, result.SkippedTariffs)

	// Warehouse dimension did not grow
	warehouseRepo := repository.NewWarehouseRepository(testDB.DB)
	count, err := warehouseRepo.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestIngestDateDifferentDatesCoexist(t *testing.T) {
	testDB, build := setupIngestFlow(t)
	ctx := context.Background()

	item := testingutil.SampleFeedItem("Коледино", "Центральный ФО", "48", "125", "11,2")
	raw, _, err := testingutil.SampleFeedResponse("2026-03-31", item)
	require.NoError(t, err)
	flow := build(raw)

	_, err = flow.IngestDate(ctx, "2026-03-01")
	require.NoError(t, err)
	_, err = flow.IngestDate(ctx, "2026-03-02")
	require.NoError(t, err)

	var count int64
	require.NoError(t, testDB.DB.Table("wb_tariff_daily").Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestIngestDateInvalidDate(t *testing.T) {
	_, build := setupIngestFlow(t)

	item := testingutil.SampleFeedItem("Коледино", "Центральный ФО", "48", "125", "11,2")
	raw, _, err := testingutil.SampleFeedResponse("2026-03-31", item)
	require.NoError(t, err)

	_, err = build(raw).IngestDate(context.Background(), "01-03-2026")
	assert.True(t, businessflow.IsInvalidDate(err))
}

func TestIngestDateMissingNameRollsBack(t *testing.T) {
	testDB, build := setupIngestFlow(t)
	ctx := context.Background()

	item := testingutil.SampleFeedItem(" ", "Центральный ФО", "48", "125", "11,2")
	raw, _, err := testingutil.SampleFeedResponse("2026-03-31", item)
	require.NoError(t, err)

	_, err = build(raw).IngestDate(ctx, "2026-03-01")
	assert.True(t, businessflow.IsMissingWarehouseName(err))

	// Normalization fails before any write, so nothing is persisted
	ingestRepo := repository.NewTariffIngestRepository(testDB.DB)
	count, err := ingestRepo.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
