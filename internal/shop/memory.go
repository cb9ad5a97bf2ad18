// ABOUTME: In-memory Store implementation with seeded demo data.
// ABOUTME: Purchase holds the lock across the stock check and decrement.

package shop

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store seeded with the demo catalog.
// Safe for concurrent use.
type MemoryStore struct {
	mu        sync.Mutex
	products  []Product
	inventory map[int]int
	orders    []Order
}

// NewMemoryStore creates a store loaded with the demo catalog and stock.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		products:  make([]Product, len(seedProducts)),
		inventory: make(map[int]int, len(seedStock)),
	}
	copy(s.products, seedProducts)
	for id, qty := range seedStock {
		s.inventory[id] = qty
	}
	return s
}

// Products returns the catalog.
func (s *MemoryStore) Products(ctx context.Context) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

// Inventory returns stock levels with product details attached.
func (s *MemoryStore) Inventory(ctx context.Context) ([]InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]InventoryItem, 0, len(s.products))
	for i := range s.products {
		p := s.products[i]
		out = append(out, InventoryItem{
			ProductID: p.ID,
			Quantity:  s.inventory[p.ID],
			Product:   &p,
		})
	}
	return out, nil
}

// Orders returns all placed orders, newest first.
func (s *MemoryStore) Orders(ctx context.Context) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Order, 0, len(s.orders))
	for i := len(s.orders) - 1; i >= 0; i-- {
		out = append(out, s.orders[i])
	}
	return out, nil
}

// Purchase places an order. The stock check and decrement happen under a
// single lock so concurrent orders cannot oversell.
func (s *MemoryStore) Purchase(ctx context.Context, customerName string, items []OrderItem) (*Order, error) {
	if err := validateOrder(customerName, items); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Quantities are aggregated per product so duplicate lines cannot
	// slip past the stock check.
	needed := make(map[int]int, len(items))
	for _, item := range items {
		needed[item.ProductID] += item.Quantity
	}

	var total float64
	checked := make(map[int]bool, len(needed))
	for _, item := range items {
		product := s.findProduct(item.ProductID)
		if product == nil {
			return nil, fmt.Errorf("%w: product %d", ErrProductNotFound, item.ProductID)
		}
		total += product.Price * float64(item.Quantity)

		if checked[item.ProductID] {
			continue
		}
		checked[item.ProductID] = true
		available := s.inventory[item.ProductID]
		if available < needed[item.ProductID] {
			return nil, fmt.Errorf("%w: %s has %d units available, %d requested",
				ErrInsufficientStock, product.Name, available, needed[item.ProductID])
		}
	}

	for id, qty := range needed {
		s.inventory[id] -= qty
	}

	order := Order{
		ID:           len(s.orders) + 1,
		CustomerName: customerName,
		Items:        append([]OrderItem(nil), items...),
		TotalAmount:  total,
		CreatedAt:    time.Now().UTC(),
	}
	s.orders = append(s.orders, order)
	return &order, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) findProduct(id int) *Product {
	for i := range s.products {
		if s.products[i].ID == id {
			return &s.products[i]
		}
	}
	return nil
}
