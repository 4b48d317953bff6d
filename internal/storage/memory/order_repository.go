package memory

import (
	"sort"
	"sync"

	"github.com/retailx/orders/internal/domain"
)

// orderRecord хранит заказ вместе с порядковым номером вставки,
// чтобы List возвращал стабильный порядок добавления.
type orderRecord struct {
	order domain.Order
	seq   uint64
}

// orderRepositoryInMemory — потокобезопасная in-memory реализация OrderRepository.
type orderRepositoryInMemory struct {
	mu      sync.RWMutex
	items   map[string]orderRecord
	nextSeq uint64
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items: make(map[string]orderRecord),
	}
}

// Create сохраняет новый заказ, если ID ещё не занят.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.ErrOrderExists
	}
	// Сохраняем копию позиций, чтобы избежать непредсказуемых мутаций извне.
	order.Items = copyItems(order.Items)
	r.items[order.ID] = orderRecord{order: order, seq: r.nextSeq}
	r.nextSeq++
	return nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	order := record.order
	order.Items = copyItems(order.Items)
	return order, nil
}

// List возвращает все заказы в порядке добавления.
func (r *orderRepositoryInMemory) List() ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]orderRecord, 0, len(r.items))
	for _, record := range r.items {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].seq < records[j].seq
	})

	result := make([]domain.Order, 0, len(records))
	for _, record := range records {
		order := record.order
		order.Items = copyItems(order.Items)
		result = append(result, order)
	}
	return result, nil
}

// ListByCustomer возвращает заказы покупателя в порядке добавления.
func (r *orderRepositoryInMemory) ListByCustomer(customerEmail string) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]orderRecord, 0)
	for _, record := range r.items {
		if record.order.CustomerEmail == customerEmail {
			records = append(records, record)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].seq < records[j].seq
	})

	result := make([]domain.Order, 0, len(records))
	for _, record := range records {
		order := record.order
		order.Items = copyItems(order.Items)
		result = append(result, order)
	}
	return result, nil
}

// Save перезаписывает заказ, проверяя версию (optimistic locking).
func (r *orderRepositoryInMemory) Save(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.items[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if record.order.Version != order.Version {
		return domain.ErrOrderVersionConflict
	}
	// Инкрементируем версию перед сохранением.
	order.Version++
	order.Items = copyItems(order.Items)
	record.order = order
	r.items[order.ID] = record
	return nil
}

func copyItems(items []domain.OrderItem) []domain.OrderItem {
	if items == nil {
		return nil
	}
	out := make([]domain.OrderItem, len(items))
	copy(out, items)
	return out
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
