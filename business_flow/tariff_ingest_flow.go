// Package businessflow contains the core business logic for tariff ingestion and export
package businessflow

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/wbtools/tariff-sync/app/dto"
	"github.com/wbtools/tariff-sync/models"
	"github.com/wbtools/tariff-sync/repository"
	"github.com/wbtools/tariff-sync/utils"
	"gorm.io/gorm"
)

var (
	tariffRowsUpserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tariff_rows_upserted_total",
		Help: "Tariff fact rows written because their content changed",
	})
	tariffRowsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tariff_rows_skipped_total",
		Help: "Tariff fact rows skipped as unchanged",
	})
)

// TariffsFetcher is the minimal feed client contract the ingest flow needs.
// This keeps the flow independent of the HTTP client and easy to test.
type TariffsFetcher interface {
	FetchBoxTariffs(ctx context.Context, date string) (*dto.BoxTariffsResponse, json.RawMessage, error)
}

// TariffIngestFlow runs the normalization, change-detection and
// transactional-upsert pipeline for one target date.
type TariffIngestFlow interface {
	IngestDate(ctx context.Context, date string) (*dto.IngestResult, error)
}

// TariffIngestFlowImpl implements TariffIngestFlow
type TariffIngestFlowImpl struct {
	client        TariffsFetcher
	warehouseRepo repository.WarehouseRepository
	tariffRepo    repository.TariffDailyRepository
	ingestRepo    repository.TariffIngestRepository
	db            *gorm.DB
}

// NewTariffIngestFlow creates a new ingestion pipeline
func NewTariffIngestFlow(
	client TariffsFetcher,
	warehouseRepo repository.WarehouseRepository,
	tariffRepo repository.TariffDailyRepository,
	ingestRepo repository.TariffIngestRepository,
	db *gorm.DB,
) TariffIngestFlow {
	return &TariffIngestFlowImpl{
		client:        client,
		warehouseRepo: warehouseRepo,
		tariffRepo:    tariffRepo,
		ingestRepo:    ingestRepo,
		db:            db,
	}
}

// IngestDate executes fetch -> normalize -> resolve -> detect -> persist for
// one date and returns the summary. The three writes (audit entry, warehouse
// upsert, changed-fact upsert) happen in one transaction; any failure rolls
// all of them back and propagates to the caller, which owns retry policy.
//
// Concurrent invocations for the same date are tolerated, not coordinated:
// the store's insert-or-merge semantics keep the final rows consistent, at
// the accepted cost of an extra audit entry per re-run.
func (f *TariffIngestFlowImpl) IngestDate(ctx context.Context, date string) (*dto.IngestResult, error) {
	tariffDate, err := utils.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	resp, raw, err := f.client.FetchBoxTariffs(ctx, date)
	if err != nil {
		return nil, err
	}

	normalized, err := NormalizePayload(raw, resp)
	if err != nil {
		return nil, err
	}

	var result *dto.IngestResult
	err = repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		fetchedAt := utils.UTCNow()

		if err := f.ingestRepo.Append(txCtx, &models.TariffIngest{
			FetchedAt: fetchedAt,
			Payload:   normalized.Raw,
			Status:    models.IngestStatusOK,
		}); err != nil {
			return fmt.Errorf("failed to append ingest log entry: %w", err)
		}

		idByKey, err := f.warehouseRepo.UpsertBatch(txCtx, normalized.Warehouses)
		if err != nil {
			return err
		}

		rows, err := BuildTariffRows(tariffDate, fetchedAt, normalized.Tariffs, idByKey)
		if err != nil {
			return err
		}

		warehouseIDs := make([]uint, 0, len(rows))
		for _, row := range rows {
			warehouseIDs = append(warehouseIDs, row.WarehouseID)
		}

		existing, err := f.tariffRepo.ListForDate(txCtx, tariffDate, warehouseIDs)
		if err != nil {
			return err
		}

		changed := FilterChanged(rows, existing)
		if err := f.tariffRepo.UpsertBatch(txCtx, changed); err != nil {
			return fmt.Errorf("failed to upsert tariff rows: %w", err)
		}

		result = BuildIngestResult(len(rows), len(changed))
		return nil
	})
	if err != nil {
		return nil, err
	}

	tariffRowsUpserted.Add(float64(result.UpsertedTariffs))
	tariffRowsSkipped.Add(float64(result.SkippedTariffs))

	return result, nil
}

// BuildIngestResult derives the pipeline summary from total and upserted counts
func BuildIngestResult(total, upserted int) *dto.IngestResult {
	return &dto.IngestResult{
		TotalWarehouses: total,
		UpsertedTariffs: upserted,
		SkippedTariffs:  total - upserted,
	}
}
