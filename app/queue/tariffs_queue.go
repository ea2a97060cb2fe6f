// Package queue provides the Redis-backed ingestion job queue
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/wbtools/tariff-sync/config"
)

var (
	ingestJobsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tariff_ingest_jobs_enqueued_total",
		Help: "Total ingestion jobs pushed onto the queue",
	})
	ingestJobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tariff_ingest_jobs_processed_total",
		Help: "Total ingestion jobs processed, partitioned by outcome",
	}, []string{"outcome"})
	ingestJobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tariff_ingest_job_duration_seconds",
		Help:    "Ingestion job handler latencies in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

// IngestJob is one queued request to ingest the feed for a date
type IngestJob struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Attempt int    `json:"attempt"`
}

// JobHandler processes one ingestion job
type JobHandler func(ctx context.Context, job *IngestJob) error

// TariffsQueue pushes and consumes ingestion jobs on a Redis list
type TariffsQueue interface {
	Enqueue(ctx context.Context, date string) (string, error)
	// Start launches the consumer goroutines and returns a stop function
	// that blocks until in-flight jobs finish.
	Start(ctx context.Context, handler JobHandler) func()
	Depth(ctx context.Context) (int64, error)
}

// TariffsQueueImpl implements TariffsQueue on a Redis list with blocking pops
type TariffsQueueImpl struct {
	rc  *redis.Client
	cfg config.QueueConfig
}

// NewTariffsQueue creates a new ingestion queue
func NewTariffsQueue(rc *redis.Client, cfg config.QueueConfig) TariffsQueue {
	return &TariffsQueueImpl{rc: rc, cfg: cfg}
}

// Enqueue pushes a first-attempt job for the date and returns its id
func (q *TariffsQueueImpl) Enqueue(ctx context.Context, date string) (string, error) {
	job := &IngestJob{
		ID:      uuid.New().String(),
		Date:    date,
		Attempt: 1,
	}
	if err := q.push(ctx, job); err != nil {
		return "", err
	}
	ingestJobsEnqueued.Inc()
	return job.ID, nil
}

func (q *TariffsQueueImpl) push(ctx context.Context, job *IngestJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode ingest job: %w", err)
	}
	if err := q.rc.RPush(ctx, q.cfg.Name, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue ingest job: %w", err)
	}
	return nil
}

// Depth returns the number of jobs waiting on the queue
func (q *TariffsQueueImpl) Depth(ctx context.Context) (int64, error) {
	return q.rc.LLen(ctx, q.cfg.Name).Result()
}

// Start launches Concurrency consumer goroutines. Each blocks on the list,
// runs the handler, and on failure re-enqueues the job with the next attempt
// number after an exponential backoff, up to MaxAttempts.
func (q *TariffsQueueImpl) Start(ctx context.Context, handler JobHandler) func() {
	workerCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup

	for i := 0; i < q.cfg.Concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			q.consume(workerCtx, worker, handler)
		}(i)
	}

	return func() {
		cancel()
		wg.Wait()
	}
}

func (q *TariffsQueueImpl) consume(ctx context.Context, worker int, handler JobHandler) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		values, err := q.rc.BLPop(ctx, q.cfg.PopTimeout, q.cfg.Name).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			log.Printf("queue worker %d: pop failed: %v", worker, err)
			continue
		}
		if len(values) < 2 {
			continue
		}

		var job IngestJob
		if err := json.Unmarshal([]byte(values[1]), &job); err != nil {
			log.Printf("queue worker %d: dropping undecodable job: %v", worker, err)
			ingestJobsProcessed.WithLabelValues("malformed").Inc()
			continue
		}

		q.runJob(ctx, worker, &job, handler)
	}
}

func (q *TariffsQueueImpl) runJob(ctx context.Context, worker int, job *IngestJob, handler JobHandler) {
	start := time.Now()
	err := handler(ctx, job)
	ingestJobDuration.Observe(time.Since(start).Seconds())

	if err == nil {
		ingestJobsProcessed.WithLabelValues("ok").Inc()
		log.Printf("queue worker %d: job %s date=%s attempt=%d done in %s",
			worker, job.ID, job.Date, job.Attempt, time.Since(start).Round(time.Millisecond))
		return
	}

	if job.Attempt >= q.cfg.MaxAttempts {
		ingestJobsProcessed.WithLabelValues("dead").Inc()
		log.Printf("queue worker %d: job %s date=%s exhausted %d attempts: %v",
			worker, job.ID, job.Date, job.Attempt, err)
		return
	}

	delay := BackoffDelay(q.cfg.BackoffDelay, job.Attempt)
	log.Printf("queue worker %d: job %s date=%s attempt=%d failed, retrying in %s: %v",
		worker, job.ID, job.Date, job.Attempt, delay, err)
	ingestJobsProcessed.WithLabelValues("retried").Inc()

	select {
	case <-ctx.Done():
		return
	case <-time.After(delay):
	}

	retry := &IngestJob{ID: job.ID, Date: job.Date, Attempt: job.Attempt + 1}
	if err := q.push(ctx, retry); err != nil {
		log.Printf("queue worker %d: failed to re-enqueue job %s: %v", worker, job.ID, err)
	}
}

// BackoffDelay doubles the base delay per completed attempt, capped at 5 minutes
func BackoffDelay(base time.Duration, attempt int) time.Duration {
	const maxDelay = 5 * time.Minute

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= maxDelay {
			return maxDelay
		}
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}
