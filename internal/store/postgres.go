package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/lib/pq"

	"github.com/microshop/microshop/internal/models"
)

type PostgresDB struct {
	Conn *sql.DB
}

func NewPostgresDB(host string, port int, user, password, dbname string) (*PostgresDB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname,
	)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Connected to PostgreSQL")
	return &PostgresDB{Conn: conn}, nil
}

func (db *PostgresDB) Close() error {
	return db.Conn.Close()
}

// PostgresProducts implements ProductStore. Inventory writes are
// conditional single statements, so two concurrent deductions can never
// drive inventory negative or lose an update.
type PostgresProducts struct {
	db *sql.DB
}

func NewPostgresProducts(database *PostgresDB) *PostgresProducts {
	return &PostgresProducts{db: database.Conn}
}

func (r *PostgresProducts) FindByID(ctx context.Context, id string) (*models.Product, error) {
	query := "SELECT id, name, price, inventory, created_at FROM products WHERE id = $1"

	var p models.Product
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Name, &p.Price, &p.Inventory, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &p, nil
}

func (r *PostgresProducts) List(ctx context.Context) ([]models.Product, error) {
	query := "SELECT id, name, price, inventory, created_at FROM products ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Inventory, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

func (r *PostgresProducts) Save(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (id, name, price, inventory)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = $2, price = $3, inventory = $4
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query, p.ID, p.Name, p.Price, p.Inventory).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}

	return nil
}

func (r *PostgresProducts) DeductForOrder(ctx context.Context, orderID, productID string, quantity int) (Deduction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Deduction{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// A reservation row under the order id means this event was already
	// processed; report the recorded result without deducting again.
	var prior int
	err = tx.QueryRowContext(ctx,
		"SELECT new_inventory FROM inventory_reservations WHERE order_id = $1", orderID,
	).Scan(&prior)
	if err == nil {
		return Deduction{Applied: false, NewInventory: prior}, nil
	}
	if err != sql.ErrNoRows {
		return Deduction{}, fmt.Errorf("failed to check reservation: %w", err)
	}

	var newInventory int
	err = tx.QueryRowContext(ctx, `
		UPDATE products SET inventory = inventory - $2
		WHERE id = $1 AND inventory >= $2
		RETURNING inventory
	`, productID, quantity).Scan(&newInventory)
	if err == sql.ErrNoRows {
		var exists bool
		if err := tx.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)", productID,
		).Scan(&exists); err != nil {
			return Deduction{}, fmt.Errorf("failed to check product: %w", err)
		}
		if !exists {
			return Deduction{}, models.ErrNotFound
		}
		return Deduction{}, models.ErrInsufficientStock
	}
	if err != nil {
		return Deduction{}, fmt.Errorf("failed to deduct inventory: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO inventory_reservations (order_id, product_id, quantity, new_inventory)
		VALUES ($1, $2, $3, $4)
	`, orderID, productID, quantity, newInventory)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			// Lost a race with another delivery of the same order; the
			// caller requeues and the next delivery finds the reservation.
			return Deduction{}, models.ErrConflict
		}
		return Deduction{}, fmt.Errorf("failed to record reservation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Deduction{}, fmt.Errorf("failed to commit deduction: %w", err)
	}

	return Deduction{Applied: true, NewInventory: newInventory}, nil
}

func (r *PostgresProducts) AdjustInventory(ctx context.Context, productID string, delta int) (int, error) {
	var newInventory int
	err := r.db.QueryRowContext(ctx, `
		UPDATE products SET inventory = inventory + $2
		WHERE id = $1 AND inventory + $2 >= 0
		RETURNING inventory
	`, productID, delta).Scan(&newInventory)
	if err == sql.ErrNoRows {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)", productID,
		).Scan(&exists); err != nil {
			return 0, fmt.Errorf("failed to check product: %w", err)
		}
		if !exists {
			return 0, models.ErrNotFound
		}
		return 0, models.ErrInsufficientStock
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust inventory: %w", err)
	}

	return newInventory, nil
}

// PostgresOrders implements OrderStore.
type PostgresOrders struct {
	db *sql.DB
}

func NewPostgresOrders(database *PostgresDB) *PostgresOrders {
	return &PostgresOrders{db: database.Conn}
}

func (r *PostgresOrders) FindByID(ctx context.Context, id string) (*models.Order, error) {
	query := "SELECT id, user_id, product_id, quantity, status, created_at FROM orders WHERE id = $1"

	var o models.Order
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&o.ID, &o.UserID, &o.ProductID, &o.Quantity, &o.Status, &o.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &o, nil
}

func (r *PostgresOrders) List(ctx context.Context) ([]models.Order, error) {
	query := "SELECT id, user_id, product_id, quantity, status, created_at FROM orders ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		err := rows.Scan(&o.ID, &o.UserID, &o.ProductID, &o.Quantity, &o.Status, &o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

func (r *PostgresOrders) Save(ctx context.Context, o *models.Order) error {
	query := `
		INSERT INTO orders (id, user_id, product_id, quantity, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET status = $5
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query, o.ID, o.UserID, o.ProductID, o.Quantity, o.Status).Scan(&o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}

	return nil
}

func (r *PostgresOrders) UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status = $3 WHERE id = $1 AND status = $2", id, from, to)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)", id,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check order: %w", err)
		}
		if !exists {
			return models.ErrNotFound
		}
		return models.ErrConflict
	}

	return nil
}

// PostgresUsers implements UserStore.
type PostgresUsers struct {
	db *sql.DB
}

func NewPostgresUsers(database *PostgresDB) *PostgresUsers {
	return &PostgresUsers{db: database.Conn}
}

func (r *PostgresUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := "SELECT id, username, email, created_at FROM users WHERE id = $1"

	var u models.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &u, nil
}

func (r *PostgresUsers) Save(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, username, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET username = $2, email = $3
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query, u.ID, u.Username, u.Email).Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}
