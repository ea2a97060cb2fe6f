// Package scheduler
package scheduler

import (
	"context"
	"log"
	"time"

	businessflow "github.com/wbtools/tariff-sync/business_flow"
	"github.com/wbtools/tariff-sync/utils"
)

// ExportScheduler periodically runs the spreadsheet export for the current UTC date
type ExportScheduler struct {
	flow     businessflow.ExportFlow
	logger   *log.Logger
	interval time.Duration
}

func NewExportScheduler(flow businessflow.ExportFlow, interval time.Duration) *ExportScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ExportScheduler{
		flow:     flow,
		logger:   log.New(log.Writer(), "export-scheduler ", log.LstdFlags|log.LUTC),
		interval: interval,
	}
}

// Start launches the export loop in a background goroutine and returns a stop function
func (s *ExportScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *ExportScheduler) runOnce(ctx context.Context) {
	date := utils.TodayDate()
	result, err := s.flow.RunExport(ctx, date)
	if err != nil {
		if businessflow.IsExportTargetNotFound(err) || businessflow.IsNoTariffRowsForDate(err) {
			s.logger.Printf("export for %s skipped: %v", date, err)
			return
		}
		s.logger.Printf("export for %s failed: %v", date, err)
		return
	}
	s.logger.Printf("export for %s: %d/%d targets written, %d skipped, %d rows",
		date, result.TargetsWritten, result.TargetsTotal, result.TargetsSkipped, result.RowsExported)
}
