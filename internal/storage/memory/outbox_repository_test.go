package memory_test

import (
	"errors"
	"testing"

	"github.com/Harish222600/sonica-backend/internal/domain"
	"github.com/Harish222600/sonica-backend/internal/storage/memory"
)

func TestOutboxRepository_EnqueuePull(t *testing.T) {
	repo := memory.NewOutboxRepository()

	first, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   "o1",
		EventType:     "order.created",
		Payload:       []byte(`{"order_id":"o1"}`),
	})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected generated message id")
	}

	second, _ := repo.Enqueue(domain.OutboxMessage{AggregateType: "order", AggregateID: "o2", EventType: "order.paid"})

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("PullPending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending, got %d", len(pending))
	}
	// Старые первыми.
	if pending[0].ID != first.ID || pending[1].ID != second.ID {
		t.Fatalf("expected FIFO order, got %s %s", pending[0].ID, pending[1].ID)
	}
}

func TestOutboxRepository_MarkSentRemovesFromBacklog(t *testing.T) {
	repo := memory.NewOutboxRepository()
	msg, _ := repo.Enqueue(domain.OutboxMessage{AggregateType: "order", EventType: "order.created"})

	if err := repo.MarkSent(msg.ID); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}

	pending, _ := repo.PullPending(10)
	if len(pending) != 0 {
		t.Fatalf("expected empty backlog, got %d", len(pending))
	}

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.PendingCount != 0 {
		t.Fatalf("expected 0 pending in stats, got %d", stats.PendingCount)
	}
}

func TestOutboxRepository_MarkUnknown(t *testing.T) {
	repo := memory.NewOutboxRepository()
	if err := repo.MarkSent("ghost"); !errors.Is(err, domain.ErrOutboxPublish) {
		t.Fatalf("expected ErrOutboxPublish, got %v", err)
	}
	if err := repo.MarkFailed("ghost"); !errors.Is(err, domain.ErrOutboxPublish) {
		t.Fatalf("expected ErrOutboxPublish, got %v", err)
	}
}

func TestOutboxRepository_Stats(t *testing.T) {
	repo := memory.NewOutboxRepository()
	first, _ := repo.Enqueue(domain.OutboxMessage{AggregateType: "order", EventType: "order.created"})
	_, _ = repo.Enqueue(domain.OutboxMessage{AggregateType: "order", EventType: "order.paid"})

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.PendingCount != 2 || stats.OldestPendingAt.IsZero() {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	_ = repo.MarkFailed(first.ID)
	stats, _ = repo.Stats()
	if stats.PendingCount != 1 {
		t.Fatalf("expected 1 pending after failure, got %d", stats.PendingCount)
	}
}
