package postgres

import (
	"database/sql"
	"database/sql/driver"
	"io"
	"testing"
	"time"

	"github.com/retailx/orders/internal/domain"
)

// conflictDriver эмулирует PostgreSQL, у которого UPDATE никогда не находит
// строку с ожидаемой версией: каждый Save завершается конфликтом или
// "не найдено". DSN "exists" означает, что сам заказ в базе есть.
type conflictDriver struct{}

func (conflictDriver) Open(name string) (driver.Conn, error) {
	return &conflictConn{orderExists: name == "exists"}, nil
}

type conflictConn struct {
	orderExists bool
}

func (c *conflictConn) Prepare(string) (driver.Stmt, error) {
	return &conflictStmt{conn: c}, nil
}

func (c *conflictConn) Close() error              { return nil }
func (c *conflictConn) Begin() (driver.Tx, error) { return noopTx{}, nil }

type noopTx struct{}

func (noopTx) Commit() error   { return nil }
func (noopTx) Rollback() error { return nil }

type conflictStmt struct {
	conn *conflictConn
}

func (s *conflictStmt) Close() error  { return nil }
func (s *conflictStmt) NumInput() int { return -1 }

func (s *conflictStmt) Exec([]driver.Value) (driver.Result, error) {
	return driver.RowsAffected(0), nil
}

func (s *conflictStmt) Query([]driver.Value) (driver.Rows, error) {
	return &idRows{hasRow: s.conn.orderExists}, nil
}

type idRows struct {
	hasRow bool
	served bool
}

func (r *idRows) Columns() []string { return []string{"id"} }
func (r *idRows) Close() error      { return nil }

func (r *idRows) Next(dest []driver.Value) error {
	if !r.hasRow || r.served {
		return io.EOF
	}
	r.served = true
	dest[0] = []byte("ORD-AAAAAAAA")
	return nil
}

func init() {
	sql.Register("orders-save-conflict", conflictDriver{})
}

func openConflictDB(t *testing.T, mode string) *sql.DB {
	t.Helper()
	db, err := sql.Open("orders-save-conflict", mode)
	if err != nil {
		t.Fatalf("open stub db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func staleOrder() domain.Order {
	return domain.Order{
		ID:            "ORD-AAAAAAAA",
		CustomerEmail: "customer@example.com",
		Status:        domain.OrderStatusShipped,
		Version:       1,
		UpdatedAt:     time.Now().UTC(),
	}
}

// Конфликт версий — штатный путь retry-цикла UpdateStatus, поэтому Save
// обязан вернуть соединение в пул, а не оставить его в открытой транзакции.
func TestSave_VersionConflictReleasesConnection(t *testing.T) {
	db := openConflictDB(t, "exists")
	repo := &orderRepository{db: db}

	for i := 0; i < 3; i++ {
		if err := repo.Save(staleOrder()); !domain.IsVersionConflict(err) {
			t.Fatalf("expected version conflict, got %v", err)
		}
	}

	if stats := db.Stats(); stats.InUse != 0 {
		t.Fatalf("%d connection(s) still held by open transactions after Save returned", stats.InUse)
	}
}

func TestSave_NotFoundReleasesConnection(t *testing.T) {
	db := openConflictDB(t, "missing")
	repo := &orderRepository{db: db}

	if err := repo.Save(staleOrder()); !domain.IsNotFound(err) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}

	if stats := db.Stats(); stats.InUse != 0 {
		t.Fatalf("%d connection(s) still held by open transactions after Save returned", stats.InUse)
	}
}
