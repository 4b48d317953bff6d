package memory_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/retailx/orders/internal/domain"
	"github.com/retailx/orders/internal/storage/memory"
)

func newOrder(id string) domain.Order {
	now := time.Now().UTC()
	items := []domain.OrderItem{
		{ProductID: "P1", Quantity: 5, UnitPrice: decimal.RequireFromString("1.00")},
	}
	return domain.Order{
		ID:            id,
		CustomerEmail: "customer@example.com",
		Items:         items,
		TotalAmount:   domain.ComputeTotal(items),
		Status:        domain.OrderStatusPending,
		Version:       0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestOrderRepository_CreateGet(t *testing.T) {
	repo := memory.NewOrderRepository()
	order := newOrder("ORD-AAAA0001")

	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.Get(order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.ID != order.ID {
		t.Fatalf("expected id %s, got %s", order.ID, stored.ID)
	}
	if !stored.TotalAmount.Equal(order.TotalAmount) {
		t.Fatalf("expected total %s, got %s", order.TotalAmount, stored.TotalAmount)
	}
}

func TestOrderRepository_CreateDuplicate(t *testing.T) {
	repo := memory.NewOrderRepository()
	order := newOrder("ORD-AAAA0001")

	if err := repo.Create(order); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(order); err != domain.ErrOrderExists {
		t.Fatalf("expected ErrOrderExists, got %v", err)
	}
}

func TestOrderRepository_GetMissing(t *testing.T) {
	repo := memory.NewOrderRepository()

	if _, err := repo.Get("ORD-MISSING1"); !domain.IsNotFound(err) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_ListInsertionOrder(t *testing.T) {
	repo := memory.NewOrderRepository()

	ids := []string{"ORD-CCCC0003", "ORD-AAAA0001", "ORD-BBBB0002"}
	for _, id := range ids {
		if err := repo.Create(newOrder(id)); err != nil {
			t.Fatalf("create %s failed: %v", id, err)
		}
	}

	orders, err := repo.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != len(ids) {
		t.Fatalf("expected %d orders, got %d", len(ids), len(orders))
	}
	// Порядок выдачи — порядок добавления, не лексикографический.
	for i, id := range ids {
		if orders[i].ID != id {
			t.Fatalf("expected order %s at position %d, got %s", id, i, orders[i].ID)
		}
	}
}

func TestOrderRepository_ListByCustomer(t *testing.T) {
	repo := memory.NewOrderRepository()

	alice := newOrder("ORD-AAAA0001")
	alice.CustomerEmail = "alice@example.com"
	bob := newOrder("ORD-BBBB0002")
	bob.CustomerEmail = "bob@example.com"
	aliceAgain := newOrder("ORD-CCCC0003")
	aliceAgain.CustomerEmail = "alice@example.com"

	for _, order := range []domain.Order{alice, bob, aliceAgain} {
		if err := repo.Create(order); err != nil {
			t.Fatalf("create %s failed: %v", order.ID, err)
		}
	}

	orders, err := repo.ListByCustomer("alice@example.com")
	if err != nil {
		t.Fatalf("list by customer failed: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders for alice, got %d", len(orders))
	}
	if orders[0].ID != alice.ID || orders[1].ID != aliceAgain.ID {
		t.Fatalf("expected insertion order [%s %s], got [%s %s]",
			alice.ID, aliceAgain.ID, orders[0].ID, orders[1].ID)
	}

	none, err := repo.ListByCustomer("nobody@example.com")
	if err != nil {
		t.Fatalf("list by customer failed: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no orders for unknown customer, got %d", len(none))
	}
}

func TestOrderRepository_SaveBumpsVersion(t *testing.T) {
	repo := memory.NewOrderRepository()
	if err := repo.Create(newOrder("ORD-AAAA0001")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.Get("ORD-AAAA0001")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	stored.Status = domain.OrderStatusShipped
	if err := repo.Save(stored); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	updated, err := repo.Get("ORD-AAAA0001")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if updated.Status != domain.OrderStatusShipped {
		t.Fatalf("expected status SHIPPED, got %s", updated.Status)
	}
	if updated.Version != stored.Version+1 {
		t.Fatalf("expected version %d, got %d", stored.Version+1, updated.Version)
	}
}

func TestOrderRepository_SaveVersionConflict(t *testing.T) {
	repo := memory.NewOrderRepository()
	if err := repo.Create(newOrder("ORD-AAAA0001")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	first, _ := repo.Get("ORD-AAAA0001")
	second, _ := repo.Get("ORD-AAAA0001")

	first.Status = domain.OrderStatusConfirmed
	if err := repo.Save(first); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	// Второй писатель держит устаревшую версию и должен получить конфликт.
	second.Status = domain.OrderStatusCancelled
	if err := repo.Save(second); !domain.IsVersionConflict(err) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestOrderRepository_SaveMissing(t *testing.T) {
	repo := memory.NewOrderRepository()
	if err := repo.Save(newOrder("ORD-MISSING1")); !domain.IsNotFound(err) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

// Гонка из двух писателей: версии не дают потерять или перемешать обновление.
func TestOrderRepository_ConcurrentSaves(t *testing.T) {
	repo := memory.NewOrderRepository()
	const orders = 8
	for i := 0; i < orders; i++ {
		if err := repo.Create(newOrder(fmt.Sprintf("ORD-%08d", i))); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < orders; i++ {
		id := fmt.Sprintf("ORD-%08d", i)
		for _, status := range []domain.OrderStatus{domain.OrderStatusConfirmed, domain.OrderStatusShipped} {
			wg.Add(1)
			go func(status domain.OrderStatus) {
				defer wg.Done()
				for {
					current, err := repo.Get(id)
					if err != nil {
						t.Errorf("get failed: %v", err)
						return
					}
					current.Status = status
					err = repo.Save(current)
					if err == nil {
						return
					}
					if !domain.IsVersionConflict(err) {
						t.Errorf("unexpected save error: %v", err)
						return
					}
				}
			}(status)
		}
	}
	wg.Wait()

	for i := 0; i < orders; i++ {
		order, err := repo.Get(fmt.Sprintf("ORD-%08d", i))
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if order.Status != domain.OrderStatusConfirmed && order.Status != domain.OrderStatusShipped {
			t.Fatalf("expected one of the written statuses, got %s", order.Status)
		}
		if order.Version != 2 {
			t.Fatalf("expected exactly two committed saves, version=%d", order.Version)
		}
	}
}
