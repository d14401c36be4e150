package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

func TestPostgresRepository_Create_ComputesTotalAndCommits(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	createdAt := time.Now().UTC()
	o := &Order{
		UserID:         "3f6e4a0e-30c6-4d11-9f4e-111111111111",
		Status:         StatusCreated,
		DeliveryMethod: DeliveryPickup,
		PaymentMethod:  PaymentCashOnDelivery,
		CreatedAt:      createdAt,
		// Submitted total is irrelevant; the sum below is 2*10 + 1*5 = 25.
		TotalAmount: 999,
		Items: []Item{
			{ProductID: "p1", Quantity: 2, Price: 10.0},
			{ProductID: "p2", Quantity: 1, Price: 5.0},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO orders`).
		WithArgs(pgxmock.AnyArg(), o.UserID, 25.0, string(StatusCreated), string(DeliveryPickup), string(PaymentCashOnDelivery), createdAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "p1", 2, 10.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "p2", 1, 5.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	if err := repo.Create(ctx, o); err != nil {
		t.Fatalf("create: %v", err)
	}

	if o.TotalAmount != 25.0 {
		t.Fatalf("total not recomputed, got %v", o.TotalAmount)
	}
	if o.ID == "" {
		t.Fatalf("id not generated")
	}
	for _, it := range o.Items {
		if it.ID == "" || it.OrderID != o.ID {
			t.Fatalf("item not linked to order: %+v", it)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresRepository_Create_RollsBackOnItemFailure(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO orders`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO order_items`).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	o := &Order{
		UserID:    "u1",
		CreatedAt: time.Now().UTC(),
		Items:     []Item{{ProductID: "p1", Quantity: 1, Price: 1.0}},
	}
	if err := repo.Create(ctx, o); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	createdAt := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, user_id, total_amount, status, delivery_method, payment_method, created_at`).
		WithArgs("o1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "total_amount", "status", "delivery_method", "payment_method", "created_at"}).
			AddRow("o1", "u1", 25.0, string(StatusCreated), string(DeliveryPickup), string(PaymentCashOnDelivery), createdAt))
	mock.ExpectQuery(`SELECT id, order_id, product_id, quantity, price`).
		WithArgs("o1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "price"}).
			AddRow("i1", "o1", "p1", 2, 10.0).
			AddRow("i2", "o1", "p2", 1, 5.0))

	o, err := repo.GetByID(ctx, "o1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if o.Status != StatusCreated || o.TotalAmount != 25.0 {
		t.Fatalf("unexpected order: %+v", o)
	}
	if len(o.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(o.Items))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresRepository_GetByID_Missing(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	mock.ExpectQuery(`SELECT id, user_id, total_amount`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresRepository_Update_ReplacesItemsAtomically(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	items := []Item{{ProductID: "p3", Quantity: 3, Price: 4.0}}
	st := StatusAssembled

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM orders`).
		WithArgs("o1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("o1"))
	mock.ExpectExec(`UPDATE orders SET status`).
		WithArgs("o1", string(StatusAssembled)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`DELETE FROM order_items`).
		WithArgs("o1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`INSERT INTO order_items`).
		WithArgs(pgxmock.AnyArg(), "o1", "p3", 3, 4.0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`UPDATE orders SET total_amount`).
		WithArgs("o1", 12.0).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	// reload after commit
	createdAt := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, user_id, total_amount`).
		WithArgs("o1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "total_amount", "status", "delivery_method", "payment_method", "created_at"}).
			AddRow("o1", "u1", 12.0, string(StatusAssembled), string(DeliveryPickup), string(PaymentCashOnDelivery), createdAt))
	mock.ExpectQuery(`SELECT id, order_id, product_id, quantity, price`).
		WithArgs("o1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "price"}).
			AddRow("i3", "o1", "p3", 3, 4.0))

	o, err := repo.Update(ctx, "o1", Update{Status: &st, Items: &items})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if o.Status != StatusAssembled || o.TotalAmount != 12.0 || len(o.Items) != 1 {
		t.Fatalf("unexpected order: %+v", o)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresRepository_Update_EmptyItemsClearsOrder(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	empty := []Item{}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM orders`).
		WithArgs("o1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("o1"))
	mock.ExpectExec(`DELETE FROM order_items`).
		WithArgs("o1").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`UPDATE orders SET total_amount`).
		WithArgs("o1", 0.0).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	createdAt := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, user_id, total_amount`).
		WithArgs("o1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "total_amount", "status", "delivery_method", "payment_method", "created_at"}).
			AddRow("o1", "u1", 0.0, string(StatusCreated), string(DeliveryPickup), string(PaymentCashOnDelivery), createdAt))
	mock.ExpectQuery(`SELECT id, order_id, product_id, quantity, price`).
		WithArgs("o1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "price"}))

	o, err := repo.Update(ctx, "o1", Update{Items: &empty})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if o.TotalAmount != 0.0 || len(o.Items) != 0 {
		t.Fatalf("order not cleared: %+v", o)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPostgresRepository_Update_Missing(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	st := StatusReceived
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM orders`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	if _, err := repo.Update(ctx, "missing", Update{Status: &st}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTotal(t *testing.T) {
	items := []Item{
		{Quantity: 2, Price: 10.0},
		{Quantity: 1, Price: 5.0},
	}
	if got := Total(items); got != 25.0 {
		t.Fatalf("expected 25.0, got %v", got)
	}
	if got := Total(nil); got != 0.0 {
		t.Fatalf("expected 0.0 for no items, got %v", got)
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"оформлен", "собран", "получен"} {
		if _, err := ParseStatus(s); err != nil {
			t.Fatalf("expected %q to parse, got %v", s, err)
		}
	}
	if _, err := ParseStatus("shipped"); err == nil {
		t.Fatalf("expected unknown status to fail")
	}
}
