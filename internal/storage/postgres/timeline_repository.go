package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/retailx/orders/internal/domain"
)

type timelineRepository struct {
	db *sql.DB
}

// NewTimelineRepository создаёт PostgreSQL-реализацию TimelineRepository.
func NewTimelineRepository(store *Store) domain.TimelineRepository {
	return &timelineRepository{db: store.DB()}
}

var _ domain.TimelineRepository = (*timelineRepository)(nil)

// Append записывает событие в хронику заказа. Нулевое время заменяется
// текущим: вызывающий код может не заполнять Occurred.
func (r *timelineRepository) Append(event domain.TimelineEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	occurred := event.Occurred
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO timeline_events (order_id, type, reason, occurred)
		 VALUES ($1, $2, $3, $4)`,
		event.OrderID, event.Type, event.Reason, occurred)
	if err != nil {
		return fmt.Errorf("append timeline event: %w", err)
	}

	return nil
}

// List возвращает хронику заказа от старых событий к новым. Вторичный
// порядок по id нужен, потому что occurred у соседних событий может совпасть.
func (r *timelineRepository) List(orderID string) ([]domain.TimelineEvent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx,
		`SELECT order_id, type, reason, occurred
		 FROM timeline_events
		 WHERE order_id = $1
		 ORDER BY occurred ASC, id ASC`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("list timeline events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.TimelineEvent, 0)
	for rows.Next() {
		var event domain.TimelineEvent
		if err := rows.Scan(&event.OrderID, &event.Type, &event.Reason, &event.Occurred); err != nil {
			return nil, fmt.Errorf("scan timeline event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timeline events: %w", err)
	}

	return events, nil
}
