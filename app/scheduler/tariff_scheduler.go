// Package scheduler
package scheduler

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/wbtools/tariff-sync/app/queue"
	"github.com/wbtools/tariff-sync/utils"
)

// TariffScheduler periodically enqueues an ingestion job for the current UTC date
type TariffScheduler struct {
	q        queue.TariffsQueue
	logger   *log.Logger
	interval time.Duration

	logFile *os.File
}

func NewTariffScheduler(q queue.TariffsQueue, interval time.Duration) *TariffScheduler {
	if interval <= 0 {
		interval = time.Hour
	}

	s := &TariffScheduler{
		q:        q,
		interval: interval,
	}

	// Initialize scheduler-specific logger (to stdout and persistent file)
	if err := s.initSchedulerLogger(); err != nil {
		// Fallback to default stdout logger if file logger init fails
		s.logger = log.Default()
		s.logger.Printf("scheduler: failed to initialize file logger: %v", err)
	}

	return s
}

// initSchedulerLogger configures a logger that writes to both stdout and a persistent file under data/ (or /data)
func (s *TariffScheduler) initSchedulerLogger() error {
	// Prefer relative data/ then fallback to /data for containerized environments
	candidates := []string{
		filepath.Join("data"),
		"/data",
	}
	for _, dir := range candidates {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			continue
		}
		logPath := filepath.Join(dir, "scheduler.log")
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			continue
		}
		s.logFile = f
		mw := io.MultiWriter(os.Stdout, f)
		s.logger = log.New(mw, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
		return nil
	}
	return fmt.Errorf("could not create scheduler log file in any candidate directory")
}

// Start launches the scheduler loop in a background goroutine and returns a stop function
func (s *TariffScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return func() {
		cancel()
		if s.logFile != nil {
			_ = s.logFile.Close()
		}
	}
}

func (s *TariffScheduler) runOnce(ctx context.Context) {
	date := utils.TodayDate()
	jobID, err := s.q.Enqueue(ctx, date)
	if err != nil {
		s.logger.Printf("failed to enqueue ingestion for %s: %v", date, err)
		return
	}
	s.logger.Printf("enqueued ingestion job %s for %s", jobID, date)
}
