// ABOUTME: Tests for the shop stores.
// ABOUTME: Runs the same behavioral suite against the memory and SQLite stores.

package shop

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
)

// storeFactories builds a fresh store of each implementation per test.
func storeFactories(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			path := filepath.Join(t.TempDir(), "shop.db")
			s, err := NewSQLiteStore(path)
			if err != nil {
				t.Fatalf("creating sqlite store: %v", err)
			}
			return s
		},
	}
}

func TestSeededCatalog(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()
			ctx := context.Background()

			products, err := s.Products(ctx)
			if err != nil {
				t.Fatalf("Products failed: %v", err)
			}
			if len(products) != 4 {
				t.Fatalf("expected 4 products, got %d", len(products))
			}
			if products[0].Name != "Galaxy Smart Watch" || products[0].Price != 1299 {
				t.Errorf("unexpected first product: %+v", products[0])
			}

			inv, err := s.Inventory(ctx)
			if err != nil {
				t.Fatalf("Inventory failed: %v", err)
			}
			if len(inv) != 4 {
				t.Fatalf("expected 4 inventory items, got %d", len(inv))
			}
			for _, item := range inv {
				if item.Product == nil {
					t.Errorf("inventory item %d missing product details", item.ProductID)
				}
				if item.Quantity != seedStock[item.ProductID] {
					t.Errorf("product %d: expected stock %d, got %d",
						item.ProductID, seedStock[item.ProductID], item.Quantity)
				}
			}
		})
	}
}

func TestPurchaseHappyPath(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()
			ctx := context.Background()

			order, err := s.Purchase(ctx, "Alice", []OrderItem{
				{ProductID: 1, Quantity: 2},
				{ProductID: 3, Quantity: 1},
			})
			if err != nil {
				t.Fatalf("Purchase failed: %v", err)
			}
			if order.ID != 1 {
				t.Errorf("expected order id 1, got %d", order.ID)
			}
			if order.TotalAmount != 2*1299+299 {
				t.Errorf("expected total %v, got %v", 2*1299+299, order.TotalAmount)
			}

			inv, err := s.Inventory(ctx)
			if err != nil {
				t.Fatalf("Inventory failed: %v", err)
			}
			for _, item := range inv {
				switch item.ProductID {
				case 1:
					if item.Quantity != 98 {
						t.Errorf("product 1: expected 98 left, got %d", item.Quantity)
					}
				case 3:
					if item.Quantity != 199 {
						t.Errorf("product 3: expected 199 left, got %d", item.Quantity)
					}
				}
			}

			orders, err := s.Orders(ctx)
			if err != nil {
				t.Fatalf("Orders failed: %v", err)
			}
			if len(orders) != 1 {
				t.Fatalf("expected 1 order, got %d", len(orders))
			}
			if orders[0].CustomerName != "Alice" {
				t.Errorf("expected customer Alice, got %s", orders[0].CustomerName)
			}
			if len(orders[0].Items) != 2 {
				t.Errorf("expected 2 order items, got %d", len(orders[0].Items))
			}
		})
	}
}

func TestPurchaseValidation(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()
			ctx := context.Background()

			_, err := s.Purchase(ctx, "", []OrderItem{{ProductID: 1, Quantity: 1}})
			if !errors.Is(err, ErrInvalidOrder) {
				t.Errorf("missing customer: expected ErrInvalidOrder, got %v", err)
			}

			_, err = s.Purchase(ctx, "Bob", nil)
			if !errors.Is(err, ErrInvalidOrder) {
				t.Errorf("empty items: expected ErrInvalidOrder, got %v", err)
			}

			_, err = s.Purchase(ctx, "Bob", []OrderItem{{ProductID: 99, Quantity: 1}})
			if !errors.Is(err, ErrProductNotFound) {
				t.Errorf("unknown product: expected ErrProductNotFound, got %v", err)
			}

			_, err = s.Purchase(ctx, "Bob", []OrderItem{{ProductID: 2, Quantity: 500}})
			if !errors.Is(err, ErrInsufficientStock) {
				t.Errorf("oversell: expected ErrInsufficientStock, got %v", err)
			}
		})
	}
}

func TestPurchaseFailureLeavesStockUntouched(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()
			ctx := context.Background()

			// First item is in stock, second is not. Nothing may change.
			_, err := s.Purchase(ctx, "Carol", []OrderItem{
				{ProductID: 1, Quantity: 1},
				{ProductID: 2, Quantity: 9999},
			})
			if !errors.Is(err, ErrInsufficientStock) {
				t.Fatalf("expected ErrInsufficientStock, got %v", err)
			}

			inv, err := s.Inventory(ctx)
			if err != nil {
				t.Fatalf("Inventory failed: %v", err)
			}
			for _, item := range inv {
				if item.Quantity != seedStock[item.ProductID] {
					t.Errorf("product %d: stock changed after failed purchase (%d != %d)",
						item.ProductID, item.Quantity, seedStock[item.ProductID])
				}
			}
		})
	}
}

func TestConcurrentPurchasesDoNotOversell(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	// Product 2 has 50 units. Fire 80 single-unit purchases: exactly 50
	// must succeed.
	const attempts = 80
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Purchase(ctx, fmt.Sprintf("customer-%d", i),
				[]OrderItem{{ProductID: 2, Quantity: 1}})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrInsufficientStock) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 50 {
		t.Errorf("expected exactly 50 successful purchases, got %d", succeeded)
	}

	inv, err := s.Inventory(ctx)
	if err != nil {
		t.Fatalf("Inventory failed: %v", err)
	}
	for _, item := range inv {
		if item.ProductID == 2 && item.Quantity != 0 {
			t.Errorf("expected product 2 stock 0, got %d", item.Quantity)
		}
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shop.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	if _, err := s.Purchase(ctx, "Dave", []OrderItem{{ProductID: 4, Quantity: 3}}); err != nil {
		t.Fatalf("Purchase failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer s2.Close()

	orders, err := s2.Orders(ctx)
	if err != nil {
		t.Fatalf("Orders failed: %v", err)
	}
	if len(orders) != 1 || orders[0].CustomerName != "Dave" {
		t.Fatalf("expected Dave's order to persist, got %+v", orders)
	}

	inv, err := s2.Inventory(ctx)
	if err != nil {
		t.Fatalf("Inventory failed: %v", err)
	}
	for _, item := range inv {
		if item.ProductID == 4 && item.Quantity != 147 {
			t.Errorf("expected product 4 stock 147, got %d", item.Quantity)
		}
	}
}

func TestOrdersNewestFirst(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()
			ctx := context.Background()

			first, err := s.Purchase(ctx, "Alice", []OrderItem{{ProductID: 1, Quantity: 1}})
			if err != nil {
				t.Fatalf("first purchase failed: %v", err)
			}
			second, err := s.Purchase(ctx, "Bob", []OrderItem{{ProductID: 3, Quantity: 1}})
			if err != nil {
				t.Fatalf("second purchase failed: %v", err)
			}

			orders, err := s.Orders(ctx)
			if err != nil {
				t.Fatalf("Orders failed: %v", err)
			}
			if len(orders) != 2 {
				t.Fatalf("expected 2 orders, got %d", len(orders))
			}
			if orders[0].ID != second.ID {
				t.Errorf("orders[0] = order %d, want newest order %d first", orders[0].ID, second.ID)
			}
			if orders[1].ID != first.ID {
				t.Errorf("orders[1] = order %d, want oldest order %d last", orders[1].ID, first.ID)
			}
		})
	}
}

func TestPurchaseAggregatesDuplicateLines(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			defer s.Close()
			ctx := context.Background()

			// Product 2 has 50 units. Two lines of 30 each pass any
			// per-line check but must fail in aggregate.
			_, err := s.Purchase(ctx, "Mallory", []OrderItem{
				{ProductID: 2, Quantity: 30},
				{ProductID: 2, Quantity: 30},
			})
			if !errors.Is(err, ErrInsufficientStock) {
				t.Fatalf("expected ErrInsufficientStock, got %v", err)
			}

			inv, err := s.Inventory(ctx)
			if err != nil {
				t.Fatalf("Inventory failed: %v", err)
			}
			for _, item := range inv {
				if item.ProductID == 2 && item.Quantity != 50 {
					t.Errorf("product 2: expected stock untouched at 50, got %d", item.Quantity)
				}
			}

			// Duplicate lines within stock still work and decrement once
			// per unit total.
			order, err := s.Purchase(ctx, "Alice", []OrderItem{
				{ProductID: 2, Quantity: 20},
				{ProductID: 2, Quantity: 20},
			})
			if err != nil {
				t.Fatalf("purchase failed: %v", err)
			}
			if order.TotalAmount != 40*899.0 {
				t.Errorf("expected total %v, got %v", 40*899.0, order.TotalAmount)
			}

			inv, err = s.Inventory(ctx)
			if err != nil {
				t.Fatalf("Inventory failed: %v", err)
			}
			for _, item := range inv {
				if item.ProductID == 2 && item.Quantity != 10 {
					t.Errorf("product 2: expected 10 left, got %d", item.Quantity)
				}
			}
		})
	}
}
