package payout

import (
	"context"
	"sync"
	"time"

	"bidr_backend/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	transferAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payout_transfer_attempts_total",
			Help: "Transfer attempts made by the payout queue",
		},
	)
	transferFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payout_transfer_failures_total",
			Help: "Failed transfer attempts",
		},
	)
	transferExhausted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payout_transfer_exhausted_total",
			Help: "Jobs dropped after exhausting retries",
		},
	)
)

func init() {
	prometheus.MustRegister(transferAttempts, transferFailures, transferExhausted)
}

const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 5000 * time.Millisecond
)

// Job is one seller transfer. ID is the durable payout row id, zero when the
// job is not persisted.
type Job struct {
	ID         int64
	AuctionID  int64
	SellerID   int64
	AccountID  string
	Amount     float64 // decimal dollars
	Retries    int
	MaxRetries int
}

// TransferFunc performs the transfer against the payment processor and
// returns the processor's transfer id.
type TransferFunc func(ctx context.Context, job Job) (string, error)

// Store records terminal job outcomes so a restart can resume pending work.
// A nil store gives purely in-memory behavior.
type Store interface {
	MarkCompleted(ctx context.Context, id int64, transferID string) error
	MarkFailed(ctx context.Context, id int64, reason string) error
}

// Queue is a single-consumer FIFO of seller transfer jobs. One job is in
// flight at a time; a failed job keeps its place at the head and is retried
// after a flat delay until it succeeds or exhausts MaxRetries, at which point
// it is dropped and logged for manual reconciliation.
type Queue struct {
	mu      sync.Mutex
	jobs    []Job
	running bool
	wg      sync.WaitGroup

	transfer   TransferFunc
	store      Store
	delay      time.Duration
	maxRetries int
}

func NewQueue(transfer TransferFunc, store Store, delay time.Duration, maxRetries int) *Queue {
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Queue{
		transfer:   transfer,
		store:      store,
		delay:      delay,
		maxRetries: maxRetries,
	}
}

// Enqueue appends a job and starts the worker if it is idle.
func (q *Queue) Enqueue(job Job) {
	if job.MaxRetries <= 0 {
		job.MaxRetries = q.maxRetries
	}

	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	if !q.running {
		q.running = true
		q.wg.Add(1)
		go q.run()
	}
	q.mu.Unlock()
}

// Len returns the number of queued jobs, including the one in flight.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// Wait blocks until the worker drains the queue and goes idle.
func (q *Queue) Wait() {
	q.wg.Wait()
}

func (q *Queue) run() {
	defer q.wg.Done()

	for {
		q.mu.Lock()
		if len(q.jobs) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		// Peek, don't pop: a failure keeps the job at the head for retry.
		job := q.jobs[0]
		q.mu.Unlock()

		transferAttempts.Inc()
		transferID, err := q.transfer(context.Background(), job)
		if err == nil {
			q.pop()
			q.markCompleted(job, transferID)
			logger.Info("payout transfer completed",
				"auction_id", job.AuctionID, "seller_id", job.SellerID,
				"amount", job.Amount, "transfer_id", transferID)
			continue
		}

		transferFailures.Inc()
		q.mu.Lock()
		q.jobs[0].Retries++
		retries := q.jobs[0].Retries
		q.mu.Unlock()

		if retries >= job.MaxRetries {
			q.pop()
			transferExhausted.Inc()
			logger.Error("payout transfer exhausted retries, manual intervention required",
				"auction_id", job.AuctionID, "seller_id", job.SellerID,
				"amount", job.Amount, "retries", retries, "error", err)
			q.markFailed(job, err)
			continue
		}

		logger.Warn("payout transfer failed, will retry",
			"auction_id", job.AuctionID, "retries", retries,
			"max_retries", job.MaxRetries, "error", err)
		time.Sleep(q.delay)
	}
}

func (q *Queue) pop() {
	q.mu.Lock()
	q.jobs = q.jobs[1:]
	q.mu.Unlock()
}

func (q *Queue) markCompleted(job Job, transferID string) {
	if q.store == nil || job.ID == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := q.store.MarkCompleted(ctx, job.ID, transferID); err != nil {
		logger.Error("failed to record completed payout", "payout_id", job.ID, "error", err)
	}
}

func (q *Queue) markFailed(job Job, cause error) {
	if q.store == nil || job.ID == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := q.store.MarkFailed(ctx, job.ID, cause.Error()); err != nil {
		logger.Error("failed to record failed payout", "payout_id", job.ID, "error", err)
	}
}
