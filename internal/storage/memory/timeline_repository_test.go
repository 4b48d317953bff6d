package memory_test

import (
	"testing"
	"time"

	"github.com/retailx/orders/internal/domain"
	"github.com/retailx/orders/internal/storage/memory"
)

func TestTimelineRepository_AppendList(t *testing.T) {
	repo := memory.NewTimelineRepository()
	base := time.Now().UTC()

	// Добавляем события не по порядку: List обязан вернуть хронологию.
	events := []domain.TimelineEvent{
		{OrderID: "ORD-AAAA0001", Type: domain.TimelineEventOrderStatusChanged, Reason: "SHIPPED", Occurred: base.Add(2 * time.Second)},
		{OrderID: "ORD-AAAA0001", Type: domain.TimelineEventOrderCreated, Occurred: base},
		{OrderID: "ORD-AAAA0001", Type: domain.TimelineEventOrderStatusChanged, Reason: "CONFIRMED", Occurred: base.Add(time.Second)},
	}
	for _, event := range events {
		if err := repo.Append(event); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	listed, err := repo.List("ORD-AAAA0001")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 events, got %d", len(listed))
	}
	if listed[0].Type != domain.TimelineEventOrderCreated {
		t.Fatalf("expected OrderCreated first, got %s", listed[0].Type)
	}
	if listed[1].Reason != "CONFIRMED" || listed[2].Reason != "SHIPPED" {
		t.Fatalf("expected chronological order, got %s then %s", listed[1].Reason, listed[2].Reason)
	}
}

func TestTimelineRepository_ListUnknownOrder(t *testing.T) {
	repo := memory.NewTimelineRepository()

	listed, err := repo.List("ORD-MISSING1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected no events, got %d", len(listed))
	}
}
