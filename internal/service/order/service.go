// Package order реализует бизнес-логику жизненного цикла заказа:
// создание, чтение, смену статуса и best-effort уведомление покупателя
// после каждого зафиксированного изменения состояния.
package order

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/retailx/orders/internal/domain"
	"github.com/retailx/orders/internal/metrics"
)

const (
	// defaultNotifyTimeout ограничивает ожидание внешнего сервиса уведомлений.
	defaultNotifyTimeout = 3 * time.Second
	// maxSaveAttempts ограничивает retry цикла read-modify-write при
	// конкурентных обновлениях одного заказа.
	maxSaveAttempts = 5

	orderIDPrefix = "ORD-"
	orderIDLength = 8

	resultSuccess = "success"
	resultFailure = "failure"
)

// CreateRequest описывает вход операции создания заказа.
type CreateRequest struct {
	CustomerEmail   string
	Items           []ItemRequest
	DeliveryAddress string
}

// ItemRequest описывает одну позицию создаваемого заказа.
type ItemRequest struct {
	ProductID string
	Quantity  int32
	UnitPrice decimal.Decimal
}

// Service управляет жизненным циклом заказов поверх OrderRepository.
type Service struct {
	repo      domain.OrderRepository
	notifier  domain.NotificationService
	timeline  domain.TimelineRepository
	publisher domain.EventPublisher
	logger    *log.Entry
	metrics   *metrics.OrderMetrics

	notifyTimeout time.Duration
	now           func() time.Time

	dispatchMu     sync.Mutex
	dispatchClosed bool
	dispatchWG     sync.WaitGroup
}

// Option настраивает Service.
type Option func(*Service)

// WithTimeline подключает audit trail событий заказа.
func WithTimeline(timeline domain.TimelineRepository) Option {
	return func(s *Service) { s.timeline = timeline }
}

// WithPublisher подключает публикацию доменных событий в брокер.
func WithPublisher(publisher domain.EventPublisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

// WithLogger задаёт logger сервиса.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics задаёт метрики сервиса; nil отключает их (для тестов).
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithNotifyTimeout ограничивает ожидание сервиса уведомлений.
func WithNotifyTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.notifyTimeout = timeout
		}
	}
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService конструирует сервис жизненного цикла заказов.
func NewService(repo domain.OrderRepository, notifier domain.NotificationService, options ...Option) *Service {
	s := &Service{
		repo:          repo,
		notifier:      notifier,
		notifyTimeout: defaultNotifyTimeout,
		now:           time.Now,
	}
	for _, option := range options {
		option(s)
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "order-service")
	}
	return s
}

// Create проверяет вход, создаёт заказ со статусом PENDING и фиксирует его
// в хранилище. Уведомление о подтверждении отправляется после фиксации и
// лучшей попыткой: его неудача не влияет ни на результат, ни на состояние.
func (s *Service) Create(ctx context.Context, req CreateRequest) (domain.Order, error) {
	if err := validateCreate(req); err != nil {
		return domain.Order{}, err
	}

	now := s.now().UTC()
	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	order := domain.Order{
		ID:              newOrderID(),
		CustomerEmail:   strings.TrimSpace(req.CustomerEmail),
		Items:           items,
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		TotalAmount:     domain.ComputeTotal(items),
		Status:          domain.OrderStatusPending,
		Version:         0,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// Фиксация в хранилище обязана успеть до любых побочных эффектов:
	// при ошибке заказ не существует и уведомление не отправляется.
	if err := s.repo.Create(order); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("failed to persist order")
		return domain.Order{}, fmt.Errorf("persist order: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
	}
	s.appendTimeline(order.ID, domain.TimelineEventOrderCreated, "", now)

	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"total":    order.TotalAmount.String(),
	}).Info("order created")

	s.dispatchAsync(order.ID, func() {
		s.notifyConfirmation(order)
		s.publishEvent(domain.OrderEvent{
			ID:            uuid.NewString(),
			Type:          domain.OrderEventCreated,
			OrderID:       order.ID,
			CustomerEmail: order.CustomerEmail,
			Status:        order.Status,
			OccurredAt:    now,
		})
	})

	return order, nil
}

// GetByID возвращает заказ или ErrOrderNotFound. Побочных эффектов нет.
func (s *Service) GetByID(_ context.Context, orderID string) (domain.Order, error) {
	order, err := s.repo.Get(orderID)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.Order{}, err
		}
		return domain.Order{}, fmt.Errorf("lookup order: %w", err)
	}
	return order, nil
}

// List возвращает все заказы в порядке добавления. Побочных эффектов нет.
func (s *Service) List(_ context.Context) ([]domain.Order, error) {
	orders, err := s.repo.List()
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ListByCustomer возвращает заказы покупателя в порядке добавления.
// Побочных эффектов нет.
func (s *Service) ListByCustomer(_ context.Context, customerEmail string) ([]domain.Order, error) {
	email := strings.TrimSpace(customerEmail)
	if email == "" {
		return nil, domain.ErrCustomerEmailRequired
	}
	orders, err := s.repo.ListByCustomer(email)
	if err != nil {
		return nil, fmt.Errorf("list orders by customer: %w", err)
	}
	return orders, nil
}

// History возвращает audit trail заказа (пустой, если timeline не подключён).
func (s *Service) History(_ context.Context, orderID string) ([]domain.TimelineEvent, error) {
	if _, err := s.repo.Get(orderID); err != nil {
		if domain.IsNotFound(err) {
			return nil, err
		}
		return nil, fmt.Errorf("lookup order: %w", err)
	}
	if s.timeline == nil {
		return nil, nil
	}
	events, err := s.timeline.List(orderID)
	if err != nil {
		return nil, fmt.Errorf("list order history: %w", err)
	}
	return events, nil
}

// UpdateStatus переводит заказ в новый статус через цикл
// read-modify-write с optimistic locking: конкурентные обновления одного
// заказа сериализуются версией записи и не перемешивают поля. Уведомление
// о смене статуса отправляется после фиксации, лучшей попыткой.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, newStatus domain.OrderStatus) (domain.Order, error) {
	if _, err := domain.ParseStatus(string(newStatus)); err != nil {
		return domain.Order{}, err
	}

	var order domain.Order
	for attempt := 0; ; attempt++ {
		current, err := s.repo.Get(orderID)
		if err != nil {
			if domain.IsNotFound(err) {
				s.logger.WithField("order_id", orderID).Warn("order not found for status update")
				return domain.Order{}, err
			}
			return domain.Order{}, fmt.Errorf("lookup order: %w", err)
		}

		if !domain.CanTransition(current.Status, newStatus) {
			return domain.Order{}, fmt.Errorf("%w: %s -> %s", domain.ErrTransitionDenied, current.Status, newStatus)
		}

		current.Status = newStatus
		current.UpdatedAt = s.now().UTC()

		err = s.repo.Save(current)
		if err == nil {
			// Репозиторий инкрементирует версию при сохранении.
			current.Version++
			order = current
			break
		}
		if domain.IsVersionConflict(err) && attempt < maxSaveAttempts-1 {
			continue
		}
		s.logger.WithError(err).WithField("order_id", orderID).Error("failed to persist status update")
		return domain.Order{}, fmt.Errorf("persist status update: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordStatusUpdate(string(newStatus))
	}
	s.appendTimeline(order.ID, domain.TimelineEventOrderStatusChanged, string(newStatus), order.UpdatedAt)

	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"status":   newStatus,
	}).Info("order status updated")

	occurred := order.UpdatedAt
	s.dispatchAsync(order.ID, func() {
		s.notifyStatusUpdate(order, newStatus)
		s.publishEvent(domain.OrderEvent{
			ID:            uuid.NewString(),
			Type:          domain.OrderEventStatusChanged,
			OrderID:       order.ID,
			CustomerEmail: order.CustomerEmail,
			Status:        newStatus,
			OccurredAt:    occurred,
		})
	})

	return order, nil
}

// Shutdown ожидает завершения фоновых уведомлений и публикаций.
func (s *Service) Shutdown(ctx context.Context) error {
	s.dispatchMu.Lock()
	s.dispatchClosed = true
	s.dispatchMu.Unlock()

	waitDone := make(chan struct{})
	go func() {
		s.dispatchWG.Wait()
		close(waitDone)
	}()

	select {
	case <-waitDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dispatchAsync запускает побочный эффект в отслеживаемой горутине.
// Эффекты выполняются только после фиксации состояния и вне какой-либо
// блокировки хранилища: зависший внешний сервис не тормозит другие операции.
func (s *Service) dispatchAsync(orderID string, fn func()) {
	s.dispatchMu.Lock()
	if s.dispatchClosed {
		s.dispatchMu.Unlock()
		s.logger.WithField("order_id", orderID).Warn("side-effect dispatch skipped during shutdown")
		return
	}
	s.dispatchWG.Add(1)
	s.dispatchMu.Unlock()

	go func() {
		defer s.dispatchWG.Done()
		fn()
	}()
}

func (s *Service) notifyConfirmation(order domain.Order) {
	s.notify(order.ID, func(ctx context.Context) error {
		return s.notifier.SendOrderConfirmation(ctx, order)
	})
}

func (s *Service) notifyStatusUpdate(order domain.Order, newStatus domain.OrderStatus) {
	s.notify(order.ID, func(ctx context.Context) error {
		return s.notifier.SendStatusUpdate(ctx, order, newStatus)
	})
}

// notify выполняет один ограниченный по времени вызов сервиса уведомлений.
// Любая ошибка логируется и поглощается: заказ — свершившийся факт
// независимо от того, удалось ли сообщить о нём покупателю.
func (s *Service) notify(orderID string, send func(ctx context.Context) error) {
	if s.notifier == nil {
		return
	}

	if s.metrics != nil {
		s.metrics.RecordNotificationInFlightStarted()
		defer s.metrics.RecordNotificationInFlightFinished()
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
	defer cancel()

	start := time.Now()
	err := send(ctx)
	duration := time.Since(start)

	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordNotificationAttempt(resultFailure, duration)
		}
		s.logger.WithError(err).WithField("order_id", orderID).Warn("notification failed")
		return
	}

	if s.metrics != nil {
		s.metrics.RecordNotificationAttempt(resultSuccess, duration)
	}
	s.logger.WithField("order_id", orderID).Info("notification sent")
}

// publishEvent отправляет доменное событие в брокер лучшей попыткой.
func (s *Service) publishEvent(event domain.OrderEvent) {
	if s.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, event); err != nil {
		if s.metrics != nil {
			s.metrics.RecordEventPublished(resultFailure)
		}
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": event.OrderID,
			"event":    event.Type,
		}).Warn("failed to publish order event")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordEventPublished(resultSuccess)
	}
}

func (s *Service) appendTimeline(orderID, eventType, reason string, occurred time.Time) {
	if s.timeline == nil {
		return
	}
	event := domain.TimelineEvent{
		OrderID:  orderID,
		Type:     eventType,
		Reason:   reason,
		Occurred: occurred,
	}
	if err := s.timeline.Append(event); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"event":    eventType,
		}).Warn("failed to append timeline event")
	}
}

// validateCreate дублирует проверку входа на границе сервиса: upstream
// обязан отсеивать мусор, но сервис не доверяет этому и проверяет сам.
func validateCreate(req CreateRequest) error {
	if strings.TrimSpace(req.CustomerEmail) == "" {
		return domain.ErrCustomerEmailRequired
	}
	if len(req.Items) == 0 {
		return domain.ErrItemsRequired
	}
	for i, item := range req.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return fmt.Errorf("item[%d]: %w", i, domain.ErrItemProductRequired)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("item[%d]: %w", i, domain.ErrItemQuantityInvalid)
		}
		if !item.UnitPrice.IsPositive() {
			return fmt.Errorf("item[%d]: %w", i, domain.ErrItemPriceInvalid)
		}
	}
	return nil
}

// newOrderID генерирует человекочитаемый идентификатор заказа:
// префикс ORD- и первые 8 символов свежего UUID в верхнем регистре.
func newOrderID() string {
	return orderIDPrefix + strings.ToUpper(uuid.NewString()[:orderIDLength])
}
