package domain

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ. Возвращает ErrOrderExists, если запись
	// с таким ID уже существует.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// List возвращает все заказы в порядке добавления.
	List() ([]Order, error)
	// ListByCustomer возвращает заказы покупателя в порядке добавления.
	ListByCustomer(customerEmail string) ([]Order, error)
	// Save применяет обновления к заказу с учётом optimistic locking:
	// при несовпадении версии возвращается ErrOrderVersionConflict.
	Save(order Order) error
}
