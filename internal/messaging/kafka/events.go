package kafka

// Топик для событий заказов.
const TopicOrderEvents = "retailx.order.events"

// orderEventEnvelope — wire-формат события заказа.
type orderEventEnvelope struct {
	EventID       string `json:"event_id"`
	EventType     string `json:"event_type"`
	OrderID       string `json:"order_id"`
	CustomerEmail string `json:"customer_email"`
	Status        string `json:"status"`
	OccurredAt    string `json:"occurred_at"`
}
