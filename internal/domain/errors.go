package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора заказа.
	ErrOrderIDRequired = errors.New("order_id is required")
	// Ошибка отсутствующего e-mail покупателя.
	ErrCustomerEmailRequired = errors.New("customer_email is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка отсутствующего идентификатора товара в позиции.
	ErrItemProductRequired = errors.New("item product_id is required")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQuantityInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка при неположительной цене позиции.
	ErrItemPriceInvalid = errors.New("item unit_price must be greater than zero")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrTotalMismatch = errors.New("order total does not match items sum")
	// ErrStatusUnknown возвращается для статуса вне известного набора.
	ErrStatusUnknown = errors.New("unknown order status")
	// ErrTransitionDenied возвращается, если переход статусов запрещён политикой.
	ErrTransitionDenied = errors.New("status transition is not allowed")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	// Отсутствие записи — штатная ситуация, а не исключительная.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists сигнализирует о коллизии идентификатора при создании.
	// Идентификаторы генерируются сервисом, поэтому коллизия — ошибка программы.
	ErrOrderExists = errors.New("order already exists")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
)

// IsNotFound проверяет, является ли ошибка отсутствием заказа.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}

// IsValidation проверяет, относится ли ошибка к нарушению входных инвариантов.
func IsValidation(err error) bool {
	switch {
	case errors.Is(err, ErrCustomerEmailRequired),
		errors.Is(err, ErrItemsRequired),
		errors.Is(err, ErrItemProductRequired),
		errors.Is(err, ErrItemQuantityInvalid),
		errors.Is(err, ErrItemPriceInvalid),
		errors.Is(err, ErrStatusUnknown),
		errors.Is(err, ErrTransitionDenied):
		return true
	}
	return false
}
