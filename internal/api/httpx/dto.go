package httpx

import (
	"github.com/shopspring/decimal"

	"github.com/retailx/orders/internal/domain"
)

// CreateOrderRequest — тело POST /orders.
type CreateOrderRequest struct {
	CustomerEmail   string               `json:"customerEmail"`
	Items           []CreateOrderItemDTO `json:"items"`
	DeliveryAddress string               `json:"deliveryAddress,omitempty"`
}

// CreateOrderItemDTO — одна позиция создаваемого заказа.
type CreateOrderItemDTO struct {
	ProductID string          `json:"productId"`
	Quantity  int32           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// UpdateStatusRequest — тело PATCH /orders/{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// OrderResponse — представление заказа в ответах API.
type OrderResponse struct {
	OrderID         string              `json:"orderId"`
	CustomerEmail   string              `json:"customerEmail"`
	Items           []OrderItemResponse `json:"items"`
	DeliveryAddress string              `json:"deliveryAddress,omitempty"`
	TotalAmount     decimal.Decimal     `json:"totalAmount"`
	Status          string              `json:"status"`
	CreatedAt       string              `json:"createdAt"`
	UpdatedAt       string              `json:"updatedAt"`
}

// OrderItemResponse — позиция заказа в ответах API.
type OrderItemResponse struct {
	ProductID string          `json:"productId"`
	Quantity  int32           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// TimelineEventResponse — запись audit trail заказа.
type TimelineEventResponse struct {
	OrderID    string `json:"orderId"`
	Type       string `json:"type"`
	Reason     string `json:"reason,omitempty"`
	OccurredAt string `json:"occurredAt"`
}

// ErrorResponse — унифицированное тело ошибки.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func mapOrderToResponse(order domain.Order) OrderResponse {
	return OrderResponse{
		OrderID:         order.ID,
		CustomerEmail:   order.CustomerEmail,
		Items:           mapItems(order.Items),
		DeliveryAddress: order.DeliveryAddress,
		TotalAmount:     order.TotalAmount,
		Status:          string(order.Status),
		CreatedAt:       order.CreatedAt.Format(timeLayout),
		UpdatedAt:       order.UpdatedAt.Format(timeLayout),
	}
}

func mapItems(items []domain.OrderItem) []OrderItemResponse {
	out := make([]OrderItemResponse, len(items))
	for i, item := range items {
		out[i] = OrderItemResponse{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.UnitPrice,
		}
	}
	return out
}

func mapTimelineToResponse(events []domain.TimelineEvent) []TimelineEventResponse {
	out := make([]TimelineEventResponse, len(events))
	for i, event := range events {
		out[i] = TimelineEventResponse{
			OrderID:    event.OrderID,
			Type:       event.Type,
			Reason:     event.Reason,
			OccurredAt: event.Occurred.Format(timeLayout),
		}
	}
	return out
}
