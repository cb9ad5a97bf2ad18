// ABOUTME: Core shop domain types and the Store interface.
// ABOUTME: Defines products, inventory, orders, and the purchase contract.

package shop

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrProductNotFound is returned when an order references an unknown product.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned when an order exceeds available inventory.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidOrder is returned for orders missing a customer name or items.
	ErrInvalidOrder = errors.New("invalid order")
)

// Product is a catalog entry.
type Product struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// InventoryItem reports stock for one product.
type InventoryItem struct {
	ProductID int      `json:"productId"`
	Quantity  int      `json:"quantity"`
	Product   *Product `json:"product,omitempty"`
}

// OrderItem is one line of an order request.
type OrderItem struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// Order is a completed purchase.
type Order struct {
	ID           int         `json:"id"`
	CustomerName string      `json:"customerName"`
	Items        []OrderItem `json:"items"`
	TotalAmount  float64     `json:"totalAmount"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// Store provides catalog, inventory, and order operations. Purchase is
// atomic: either every line item is in stock and the whole order commits,
// or nothing changes.
type Store interface {
	Products(ctx context.Context) ([]Product, error)
	Inventory(ctx context.Context) ([]InventoryItem, error)
	Orders(ctx context.Context) ([]Order, error)
	Purchase(ctx context.Context, customerName string, items []OrderItem) (*Order, error)
	Close() error
}

// seedProducts is the demo catalog loaded into a fresh store.
var seedProducts = []Product{
	{ID: 1, Name: "Galaxy Smart Watch", Price: 1299, Description: "Smart watch with health tracking and notifications"},
	{ID: 2, Name: "Wireless Bluetooth Earbuds Pro", Price: 899, Description: "Noise-cancelling earbuds with charging case"},
	{ID: 3, Name: "Portable Power Bank", Price: 299, Description: "20000mAh fast-charging portable power bank"},
	{ID: 4, Name: "MateBook X Pro", Price: 1599, Description: "13.9-inch ultrabook with touch display"},
}

// seedStock maps product IDs to their initial inventory.
var seedStock = map[int]int{1: 100, 2: 50, 3: 200, 4: 150}

// validateOrder checks the request shape before any stock is touched.
func validateOrder(customerName string, items []OrderItem) error {
	if customerName == "" {
		return fmt.Errorf("%w: customer name is required", ErrInvalidOrder)
	}
	if len(items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", ErrInvalidOrder)
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: item quantity must be positive", ErrInvalidOrder)
		}
	}
	return nil
}
