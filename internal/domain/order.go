package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл розничного заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, подтверждение ещё не выполнено.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusConfirmed — заказ подтверждён и передан в обработку.
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "SHIPPED"
	// OrderStatusDelivered — заказ доставлен покупателю.
	OrderStatusDelivered OrderStatus = "DELIVERED"
	// OrderStatusCancelled — заказ отменён; запись сохраняется, удаления нет.
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// knownStatuses перечисляет допустимые значения статуса.
var knownStatuses = map[OrderStatus]struct{}{
	OrderStatusPending:   {},
	OrderStatusConfirmed: {},
	OrderStatusShipped:   {},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// ParseStatus разбирает строковое представление статуса (регистронезависимо).
func ParseStatus(raw string) (OrderStatus, error) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := knownStatuses[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrStatusUnknown, raw)
	}
	return status, nil
}

// CanTransition — единая точка принятия решения о допустимости перехода
// статусов. Сейчас разрешён любой переход между известными статусами;
// будущие правила workflow меняют только эту функцию, а не вызывающий код.
func CanTransition(from, to OrderStatus) bool {
	_, okFrom := knownStatuses[from]
	_, okTo := knownStatuses[to]
	return okFrom && okTo
}

// OrderItem представляет одну позицию заказа. Позиция — value object:
// идентичности не имеет, после создания заказа не меняется.
type OrderItem struct {
	// ProductID — внешний идентификатор товара.
	ProductID string
	// Quantity — количество единиц товара, строго больше нуля.
	Quantity int32
	// UnitPrice — цена за единицу; точная десятичная арифметика.
	UnitPrice decimal.Decimal
}

// Order агрегирует состояние заказа и его позиции.
type Order struct {
	ID              string
	CustomerEmail   string
	Items           []OrderItem
	DeliveryAddress string
	// TotalAmount вычисляется один раз при создании и далее не пересчитывается:
	// позиции после создания неизменяемы.
	TotalAmount decimal.Decimal
	Status      OrderStatus
	// Version используется хранилищем для optimistic locking.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ComputeTotal возвращает сумму quantity × unitPrice по всем позициям.
// Результат воспроизводим бит-в-бит для одних и тех же входных данных.
func ComputeTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.ID == "" {
		errs = append(errs, ErrOrderIDRequired)
	}
	if strings.TrimSpace(o.CustomerEmail) == "" {
		errs = append(errs, ErrCustomerEmailRequired)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if _, ok := knownStatuses[o.Status]; !ok {
		errs = append(errs, ErrStatusUnknown)
	}

	for _, item := range o.Items {
		if item.ProductID == "" {
			errs = append(errs, ErrItemProductRequired)
		}
		if item.Quantity <= 0 {
			errs = append(errs, ErrItemQuantityInvalid)
		}
		if !item.UnitPrice.IsPositive() {
			errs = append(errs, ErrItemPriceInvalid)
		}
	}

	// Сверяем зафиксированную сумму заказа с суммой позиций.
	if !o.TotalAmount.Equal(ComputeTotal(o.Items)) {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
