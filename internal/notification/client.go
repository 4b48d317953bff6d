// Package notification содержит клиента внешнего сервиса клиентских
// уведомлений (notifications API, POST {base}/v1/notifications).
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/retailx/orders/internal/domain"
)

const (
	defaultTimeout = 3 * time.Second

	notifyPath = "/v1/notifications"

	confirmationTemplate = "Your order %s has been confirmed and is being processed. You will receive updates as your order progresses."
	statusUpdateTemplate = "Order %s status update: %s"
)

// request — формат запроса notifications API.
type request struct {
	Recipient string `json:"recipient"`
	Message   string `json:"message"`
	Type      string `json:"type"`
}

// Client — HTTP-клиент notifications API. Каждый вызов ограничен
// таймаутом http.Client и контекстом вызывающей стороны.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Entry
}

// NewClient создаёт клиента уведомлений. timeout <= 0 заменяется значением
// по умолчанию: неограниченное ожидание внешнего сервиса недопустимо.
func NewClient(baseURL string, timeout time.Duration, logger *log.Entry) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = log.WithField("component", "notification-client")
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SendOrderConfirmation уведомляет покупателя о подтверждении заказа.
func (c *Client) SendOrderConfirmation(ctx context.Context, order domain.Order) error {
	message := fmt.Sprintf(confirmationTemplate, order.ID)
	return c.send(ctx, order.CustomerEmail, message)
}

// SendStatusUpdate уведомляет покупателя о смене статуса заказа.
func (c *Client) SendStatusUpdate(ctx context.Context, order domain.Order, newStatus domain.OrderStatus) error {
	message := fmt.Sprintf(statusUpdateTemplate, order.ID, newStatus)
	return c.send(ctx, order.CustomerEmail, message)
}

func (c *Client) send(ctx context.Context, recipient, message string) error {
	payload, err := json.Marshal(request{
		Recipient: recipient,
		Message:   message,
		Type:      "email",
	})
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	url := c.baseURL + notifyPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call notification service: %w", err)
	}
	defer func() {
		// Дочитываем тело, чтобы соединение вернулось в пул.
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notification service returned status %d", resp.StatusCode)
	}

	c.logger.WithFields(log.Fields{
		"recipient": recipient,
		"status":    resp.StatusCode,
	}).Debug("notification accepted")
	return nil
}

var _ domain.NotificationService = (*Client)(nil)
