// Package httpx содержит REST-поверхность сервиса заказов.
package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/retailx/orders/internal/domain"
	"github.com/retailx/orders/internal/service/order"
)

const timeLayout = time.RFC3339

// OrderService описывает операции бизнес-слоя, нужные HTTP-поверхности.
type OrderService interface {
	Create(ctx context.Context, req order.CreateRequest) (domain.Order, error)
	GetByID(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListByCustomer(ctx context.Context, customerEmail string) ([]domain.Order, error)
	History(ctx context.Context, orderID string) ([]domain.TimelineEvent, error)
	UpdateStatus(ctx context.Context, orderID string, newStatus domain.OrderStatus) (domain.Order, error)
}

// Handler обрабатывает HTTP-запросы к сервису заказов.
type Handler struct {
	service OrderService
	logger  *log.Entry
}

// NewHandler конструирует HTTP-обработчик поверх бизнес-сервиса.
func NewHandler(service OrderService, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "http-api")
	}
	return &Handler{service: service, logger: logger}
}

// CreateOrder принимает запрос, создаёт заказ и возвращает 201 с его представлением.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	items := make([]order.ItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, order.ItemRequest{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.Price,
		})
	}

	created, err := h.service.Create(r.Context(), order.CreateRequest{
		CustomerEmail:   req.CustomerEmail,
		Items:           items,
		DeliveryAddress: req.DeliveryAddress,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, mapOrderToResponse(created))
}

// GetOrderByID возвращает заказ по идентификатору.
func (h *Handler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "order_id_required", "")
		return
	}

	found, err := h.service.GetByID(r.Context(), orderID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapOrderToResponse(found))
}

// ListOrders возвращает заказы в порядке добавления; query-параметр
// customerEmail сужает выборку до заказов одного покупателя.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var (
		orders []domain.Order
		err    error
	)
	if email := r.URL.Query().Get("customerEmail"); email != "" {
		orders, err = h.service.ListByCustomer(r.Context(), email)
	} else {
		orders, err = h.service.List(r.Context())
	}
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	out := make([]OrderResponse, len(orders))
	for i, o := range orders {
		out[i] = mapOrderToResponse(o)
	}
	writeJSON(w, http.StatusOK, out)
}

// UpdateOrderStatus переводит заказ в новый статус.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "order_id_required", "")
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}

	updated, err := h.service.UpdateStatus(r.Context(), orderID, status)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapOrderToResponse(updated))
}

// GetOrderHistory возвращает audit trail заказа.
func (h *Handler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "order_id_required", "")
		return
	}

	events, err := h.service.History(r.Context(), orderID)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapTimelineToResponse(events))
}

// writeDomainError транслирует ошибки доменного слоя в HTTP-статусы.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsValidation(err):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case domain.IsNotFound(err):
		writeError(w, http.StatusNotFound, "order_not_found", err.Error())
	case domain.IsVersionConflict(err):
		writeError(w, http.StatusConflict, "version_conflict", err.Error())
	default:
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
