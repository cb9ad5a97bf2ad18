// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Persists catalog, inventory, and orders with automatic schema creation

package shop

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is created if it doesn't exist and the demo catalog is
// seeded into an empty database. Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := s.seed(); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding catalog: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			price REAL NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS inventory (
			product_id INTEGER PRIMARY KEY,
			quantity INTEGER NOT NULL,
			FOREIGN KEY (product_id) REFERENCES products(id)
		);

		CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			customer_name TEXT NOT NULL,
			items TEXT NOT NULL,
			total_amount REAL NOT NULL,
			created_at DATETIME NOT NULL
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// seed loads the demo catalog into an empty database.
func (s *SQLiteStore) seed() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return fmt.Errorf("counting products: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range seedProducts {
		if _, err := tx.Exec(
			"INSERT INTO products (id, name, price, description) VALUES (?, ?, ?, ?)",
			p.ID, p.Name, p.Price, p.Description,
		); err != nil {
			return fmt.Errorf("inserting product %d: %w", p.ID, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO inventory (product_id, quantity) VALUES (?, ?)",
			p.ID, seedStock[p.ID],
		); err != nil {
			return fmt.Errorf("inserting inventory for product %d: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// Products returns the catalog.
func (s *SQLiteStore) Products(ctx context.Context) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, price, description FROM products ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Description); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Inventory returns stock levels with product details attached.
func (s *SQLiteStore) Inventory(ctx context.Context) ([]InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.product_id, i.quantity, p.id, p.name, p.price, p.description
		FROM inventory i
		JOIN products p ON p.id = i.product_id
		ORDER BY i.product_id`)
	if err != nil {
		return nil, fmt.Errorf("querying inventory: %w", err)
	}
	defer rows.Close()

	var items []InventoryItem
	for rows.Next() {
		var item InventoryItem
		var p Product
		if err := rows.Scan(&item.ProductID, &item.Quantity, &p.ID, &p.Name, &p.Price, &p.Description); err != nil {
			return nil, fmt.Errorf("scanning inventory: %w", err)
		}
		item.Product = &p
		items = append(items, item)
	}
	return items, rows.Err()
}

// Orders returns all placed orders, newest first.
func (s *SQLiteStore) Orders(ctx context.Context) ([]Order, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, customer_name, items, total_amount, created_at FROM orders ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		var itemsJSON string
		if err := rows.Scan(&o.ID, &o.CustomerName, &itemsJSON, &o.TotalAmount, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		if err := json.Unmarshal([]byte(itemsJSON), &o.Items); err != nil {
			return nil, fmt.Errorf("decoding order %d items: %w", o.ID, err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// Purchase places an order inside a single transaction. The stock check
// and decrement run in the same transaction so concurrent orders cannot
// oversell.
func (s *SQLiteStore) Purchase(ctx context.Context, customerName string, items []OrderItem) (*Order, error) {
	if err := validateOrder(customerName, items); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	// Quantities are aggregated per product so duplicate lines cannot
	// slip past the stock check.
	needed := make(map[int]int, len(items))
	for _, item := range items {
		needed[item.ProductID] += item.Quantity
	}

	var total float64
	prices := make(map[int]float64, len(needed))
	for _, item := range items {
		price, seen := prices[item.ProductID]
		if !seen {
			var name string
			var available int
			err := tx.QueryRowContext(ctx, `
				SELECT p.name, p.price, i.quantity
				FROM products p
				JOIN inventory i ON i.product_id = p.id
				WHERE p.id = ?`, item.ProductID).Scan(&name, &price, &available)
			if err == sql.ErrNoRows {
				return nil, fmt.Errorf("%w: product %d", ErrProductNotFound, item.ProductID)
			}
			if err != nil {
				return nil, fmt.Errorf("looking up product %d: %w", item.ProductID, err)
			}
			if available < needed[item.ProductID] {
				return nil, fmt.Errorf("%w: %s has %d units available, %d requested",
					ErrInsufficientStock, name, available, needed[item.ProductID])
			}
			prices[item.ProductID] = price
		}
		total += price * float64(item.Quantity)
	}

	for id, qty := range needed {
		if _, err := tx.ExecContext(ctx,
			"UPDATE inventory SET quantity = quantity - ? WHERE product_id = ?",
			qty, id,
		); err != nil {
			return nil, fmt.Errorf("decrementing stock for product %d: %w", id, err)
		}
	}

	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encoding order items: %w", err)
	}
	createdAt := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO orders (customer_name, items, total_amount, created_at) VALUES (?, ?, ?, ?)",
		customerName, string(itemsJSON), total, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting order: %w", err)
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading order id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing order: %w", err)
	}

	order := &Order{
		ID:           int(orderID),
		CustomerName: customerName,
		Items:        append([]OrderItem(nil), items...),
		TotalAmount:  total,
		CreatedAt:    createdAt,
	}
	s.logger.Info("order placed", "order_id", order.ID, "customer", customerName, "total", total)
	return order, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
