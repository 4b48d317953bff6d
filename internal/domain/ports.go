package domain

import (
	"context"
	"time"
)

// NotificationService описывает взаимодействие с внешним сервисом
// клиентских уведомлений. Вызовы ограничиваются по времени через ctx;
// результат для бизнес-операции заказа ни на что не влияет.
type NotificationService interface {
	// SendOrderConfirmation уведомляет покупателя о подтверждении заказа.
	SendOrderConfirmation(ctx context.Context, order Order) error
	// SendStatusUpdate уведомляет покупателя о смене статуса заказа.
	SendStatusUpdate(ctx context.Context, order Order, newStatus OrderStatus) error
}

// EventPublisher публикует доменные события заказа во внешний брокер.
// Публикация выполняется после фиксации состояния и лучшей попыткой.
type EventPublisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// Типы доменных событий заказа.
const (
	OrderEventCreated       = "order.created"
	OrderEventStatusChanged = "order.status_changed"
)

// OrderEvent описывает доменное событие жизненного цикла заказа.
type OrderEvent struct {
	ID            string
	Type          string
	OrderID       string
	CustomerEmail string
	Status        OrderStatus
	OccurredAt    time.Time
}

// TimelineRepository хранит события жизненного цикла заказа (audit trail).
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(orderID string) ([]TimelineEvent, error)
}
