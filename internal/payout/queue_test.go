package payout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingStore struct {
	mu        sync.Mutex
	completed map[int64]string
	failed    map[int64]string
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		completed: make(map[int64]string),
		failed:    make(map[int64]string),
	}
}

func (s *recordingStore) MarkCompleted(_ context.Context, id int64, transferID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed[id] = transferID
	return nil
}

func (s *recordingStore) MarkFailed(_ context.Context, id int64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[id] = reason
	return nil
}

func TestQueueSuccess(t *testing.T) {
	store := newRecordingStore()
	var calls int
	var mu sync.Mutex

	q := NewQueue(func(_ context.Context, job Job) (string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return "tr_1", nil
	}, store, time.Millisecond, 3)

	q.Enqueue(Job{ID: 1, AuctionID: 10, SellerID: 2, AccountID: "acct_1", Amount: 95})
	q.Wait()

	if calls != 1 {
		t.Fatalf("expected 1 transfer call, got %d", calls)
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", q.Len())
	}
	if store.completed[1] != "tr_1" {
		t.Fatalf("expected completion recorded with tr_1, got %q", store.completed[1])
	}
}

func TestQueueRetriesThenExhausts(t *testing.T) {
	store := newRecordingStore()
	var calls int
	var mu sync.Mutex

	q := NewQueue(func(_ context.Context, job Job) (string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return "", errors.New("processor unavailable")
	}, store, time.Millisecond, 3)

	q.Enqueue(Job{ID: 7, AuctionID: 1, SellerID: 2, AccountID: "acct_1", Amount: 10})
	q.Wait()

	// Total attempts equal the retry budget, then the job is dropped.
	if calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", calls)
	}
	if q.Len() != 0 {
		t.Fatalf("exhausted job must be dropped, queue has %d", q.Len())
	}
	if store.failed[7] == "" {
		t.Fatal("expected failure recorded for payout 7")
	}
}

func TestQueueFailureDoesNotBlockNextJob(t *testing.T) {
	store := newRecordingStore()
	var mu sync.Mutex
	attempts := make(map[int64]int)

	q := NewQueue(func(_ context.Context, job Job) (string, error) {
		mu.Lock()
		attempts[job.ID]++
		mu.Unlock()
		if job.ID == 1 {
			return "", errors.New("account closed")
		}
		return "tr_ok", nil
	}, store, time.Millisecond, 2)

	q.Enqueue(Job{ID: 1, AuctionID: 1, SellerID: 1, AccountID: "bad", Amount: 5})
	q.Enqueue(Job{ID: 2, AuctionID: 2, SellerID: 2, AccountID: "good", Amount: 5})
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	if attempts[1] != 2 {
		t.Fatalf("job 1 expected 2 attempts, got %d", attempts[1])
	}
	if attempts[2] != 1 {
		t.Fatalf("job 2 expected 1 attempt, got %d", attempts[2])
	}
	if store.completed[2] != "tr_ok" {
		t.Fatal("job 2 should complete after job 1 is dropped")
	}
}

func TestQueueFIFOOrder(t *testing.T) {
	var mu sync.Mutex
	var order []int64

	q := NewQueue(func(_ context.Context, job Job) (string, error) {
		mu.Lock()
		order = append(order, job.ID)
		mu.Unlock()
		return "tr", nil
	}, nil, time.Millisecond, 3)

	for i := int64(1); i <= 5; i++ {
		q.Enqueue(Job{ID: i, AuctionID: i, Amount: 1})
	}
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 5 {
		t.Fatalf("expected 5 transfers, got %d", len(order))
	}
	for i, id := range order {
		if id != int64(i+1) {
			t.Fatalf("out of order at %d: got %v", i, order)
		}
	}
}

func TestQueueRestartsWorkerAfterDrain(t *testing.T) {
	var mu sync.Mutex
	var calls int

	q := NewQueue(func(_ context.Context, job Job) (string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return "tr", nil
	}, nil, time.Millisecond, 3)

	q.Enqueue(Job{ID: 1, Amount: 1})
	q.Wait()
	q.Enqueue(Job{ID: 2, Amount: 1})
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Fatalf("expected 2 transfers across restarts, got %d", calls)
	}
}

func TestQueueResumedJobKeepsRetryBudget(t *testing.T) {
	var mu sync.Mutex
	var calls int

	q := NewQueue(func(_ context.Context, job Job) (string, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return "", errors.New("down")
	}, nil, time.Millisecond, 5)

	// A job enqueued without MaxRetries inherits the queue default.
	q.Enqueue(Job{ID: 1, Amount: 1})
	q.Wait()

	mu.Lock()
	defer mu.Unlock()
	if calls != 5 {
		t.Fatalf("expected 5 attempts from queue default, got %d", calls)
	}
}
