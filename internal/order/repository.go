package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("order not found")

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// Update carries a partial mutation. Nil fields are left untouched; a
// non-nil empty Items slice clears the item set.
type Update struct {
	Status *Status
	Items  *[]Item
}

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, orderID string) (*Order, error)
	List(ctx context.Context, skip, limit int) ([]Order, error)
	Update(ctx context.Context, orderID string, upd Update) (*Order, error)
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts the order row and all item rows in one transaction, so a
// half-written order is never observable. The total is recomputed from the
// items here, never taken from the caller.
func (r *PostgresRepository) Create(ctx context.Context, o *Order) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.TotalAmount = Total(o.Items)

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO orders (id, user_id, total_amount, status, delivery_method, payment_method, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, o.ID, o.UserID, o.TotalAmount, string(o.Status), string(o.DeliveryMethod), string(o.PaymentMethod), o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.OrderID = o.ID
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price)
			VALUES ($1, $2, $3, $4, $5)
		`, it.ID, it.OrderID, it.ProductID, it.Quantity, it.Price)
		if err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, orderID string) (*Order, error) {
	var (
		o                         Order
		status, delivery, payment string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, total_amount, status, delivery_method, payment_method, created_at
		FROM orders WHERE id = $1
	`, orderID).Scan(&o.ID, &o.UserID, &o.TotalAmount, &status, &delivery, &payment, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select order: %w", err)
	}
	o.Status = Status(status)
	o.DeliveryMethod = DeliveryMethod(delivery)
	o.PaymentMethod = PaymentMethod(payment)

	o.Items, err = r.loadItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PostgresRepository) List(ctx context.Context, skip, limit int) ([]Order, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, total_amount, status, delivery_method, payment_method, created_at
		FROM orders ORDER BY created_at DESC OFFSET $1 LIMIT $2
	`, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var (
			o                         Order
			status, delivery, payment string
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &status, &delivery, &payment, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Status = Status(status)
		o.DeliveryMethod = DeliveryMethod(delivery)
		o.PaymentMethod = PaymentMethod(payment)
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	for i := range orders {
		orders[i].Items, err = r.loadItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// Update overwrites the status and/or replaces the whole item set. The
// delete-then-insert of items and the total recomputation happen in the same
// transaction, so concurrent readers never see a half-replaced set.
func (r *PostgresRepository) Update(ctx context.Context, orderID string, upd Update) (*Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	err = tx.QueryRow(ctx, `SELECT id FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}

	if upd.Status != nil {
		_, err = tx.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, orderID, string(*upd.Status))
		if err != nil {
			return nil, fmt.Errorf("update status: %w", err)
		}
	}

	if upd.Items != nil {
		_, err = tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, orderID)
		if err != nil {
			return nil, fmt.Errorf("delete order_items: %w", err)
		}
		for _, it := range *upd.Items {
			if it.ID == "" {
				it.ID = uuid.NewString()
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO order_items (id, order_id, product_id, quantity, price)
				VALUES ($1, $2, $3, $4, $5)
			`, it.ID, orderID, it.ProductID, it.Quantity, it.Price)
			if err != nil {
				return nil, fmt.Errorf("insert order_item: %w", err)
			}
		}
		_, err = tx.Exec(ctx, `UPDATE orders SET total_amount = $2 WHERE id = $1`, orderID, Total(*upd.Items))
		if err != nil {
			return nil, fmt.Errorf("update total: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return r.GetByID(ctx, orderID)
}

func (r *PostgresRepository) loadItems(ctx context.Context, orderID string) ([]Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items WHERE order_id = $1
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order_items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan order_item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return items, nil
}
