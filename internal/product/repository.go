package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("product not found")
	// ErrInvalidType signals a type_id that does not resolve to a
	// product_types row. Distinct from ErrNotFound so handlers can answer
	// 400 instead of 404.
	ErrInvalidType = errors.New("invalid type_id")
)

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type Repository interface {
	List(ctx context.Context, skip, limit int) ([]Product, error)
	GetByID(ctx context.Context, productID string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, productID string) error
	ListTypes(ctx context.Context, skip, limit int) ([]ProductType, error)
	CreateType(ctx context.Context, name string) (ProductType, error)
	SeedTypes(ctx context.Context) error
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) List(ctx context.Context, skip, limit int) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, type_id, power, lifespan, price, description, image_url, discount
		FROM products ORDER BY name OFFSET $1 LIMIT $2
	`, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	products := make([]Product, 0)
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.TypeID, &p.Power, &p.Lifespan, &p.Price, &p.Description, &p.ImageURL, &p.Discount); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return products, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, productID string) (*Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, type_id, power, lifespan, price, description, image_url, discount
		FROM products WHERE id = $1
	`, productID).Scan(&p.ID, &p.Name, &p.TypeID, &p.Power, &p.Lifespan, &p.Price, &p.Description, &p.ImageURL, &p.Discount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select product: %w", err)
	}
	return &p, nil
}

// Create verifies the type reference and inserts the product in one
// transaction, so no product row survives a failed check.
func (r *PostgresRepository) Create(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := typeExists(ctx, tx, p.TypeID); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO products (id, name, type_id, power, lifespan, price, description, image_url, discount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.Name, p.TypeID, p.Power, p.Lifespan, p.Price, p.Description, p.ImageURL, p.Discount)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInvalidType
		}
		return fmt.Errorf("insert product: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Update replaces every field of the product. The type reference is
// re-validated first, so an invalid type_id answers before a missing row.
func (r *PostgresRepository) Update(ctx context.Context, p *Product) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := typeExists(ctx, tx, p.TypeID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE products
		SET name = $2, type_id = $3, power = $4, lifespan = $5, price = $6,
		    description = $7, image_url = $8, discount = $9
		WHERE id = $1
	`, p.ID, p.Name, p.TypeID, p.Power, p.Lifespan, p.Price, p.Description, p.ImageURL, p.Discount)
	if err != nil {
		if isForeignKeyViolation(err) {
			return ErrInvalidType
		}
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, productID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) ListTypes(ctx context.Context, skip, limit int) ([]ProductType, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name FROM product_types ORDER BY id OFFSET $1 LIMIT $2
	`, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("select product_types: %w", err)
	}
	defer rows.Close()

	types := make([]ProductType, 0)
	for rows.Next() {
		var t ProductType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan product_type: %w", err)
		}
		types = append(types, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return types, nil
}

func (r *PostgresRepository) CreateType(ctx context.Context, name string) (ProductType, error) {
	t := ProductType{Name: name}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO product_types (name) VALUES ($1) RETURNING id`, name,
	).Scan(&t.ID)
	if err != nil {
		return ProductType{}, fmt.Errorf("insert product_type: %w", err)
	}
	return t, nil
}

// SeedTypes inserts the fixed type set on an empty table and does nothing
// otherwise. Runs at startup before the server accepts requests.
func (r *PostgresRepository) SeedTypes(ctx context.Context) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var count int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM product_types`).Scan(&count); err != nil {
		return fmt.Errorf("count product_types: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, name := range SeedTypeNames() {
		if _, err := tx.Exec(ctx, `INSERT INTO product_types (name) VALUES ($1)`, name); err != nil {
			return fmt.Errorf("seed product_type %q: %w", name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func typeExists(ctx context.Context, tx pgx.Tx, typeID int) error {
	var one int
	err := tx.QueryRow(ctx, `SELECT 1 FROM product_types WHERE id = $1`, typeID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidType
		}
		return fmt.Errorf("select product_type: %w", err)
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
