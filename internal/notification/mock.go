package notification

import (
	"context"
	"sync"

	"github.com/retailx/orders/internal/domain"
)

// MockService — конфигурируемая заглушка NotificationService для тестов.
type MockService struct {
	mu sync.Mutex

	ConfirmErr error
	StatusErr  error
	// BlockUntil, если задан, удерживает вызов до закрытия канала или отмены ctx.
	BlockUntil chan struct{}

	ConfirmCalls int
	StatusCalls  int

	LastOrderID string
	LastStatus  domain.OrderStatus
}

// NewMockService возвращает mock с успешным сценарием по умолчанию.
func NewMockService() *MockService {
	return &MockService{}
}

// SendOrderConfirmation возвращает заранее настроенный результат и считает вызовы.
func (m *MockService) SendOrderConfirmation(ctx context.Context, order domain.Order) error {
	if err := m.maybeBlock(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.ConfirmCalls++
	m.LastOrderID = order.ID
	return m.ConfirmErr
}

// SendStatusUpdate возвращает настроенный результат и считает вызовы.
func (m *MockService) SendStatusUpdate(ctx context.Context, order domain.Order, newStatus domain.OrderStatus) error {
	if err := m.maybeBlock(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatusCalls++
	m.LastOrderID = order.ID
	m.LastStatus = newStatus
	return m.StatusErr
}

// Calls возвращает количество вызовов под мьютексом (для конкурентных тестов).
func (m *MockService) Calls() (confirm, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ConfirmCalls, m.StatusCalls
}

func (m *MockService) maybeBlock(ctx context.Context) error {
	m.mu.Lock()
	block := m.BlockUntil
	m.mu.Unlock()
	if block == nil {
		return nil
	}
	select {
	case <-block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ domain.NotificationService = (*MockService)(nil)
