// ABOUTME: Tests for the builtin tool packs against a memory-backed store.
// ABOUTME: Exercises registration, dispatch, and tool-level error shaping.

package builtins

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopstream/shopmcp/internal/services"
	"github.com/shopstream/shopmcp/internal/shop"
	"github.com/shopstream/shopmcp/internal/tools"
)

func newShopRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry(nil)
	if err := RegisterAll(reg, ShopPack(shop.NewMemoryStore())); err != nil {
		t.Fatalf("registering shop pack: %v", err)
	}
	return reg
}

func TestShopPackToolList(t *testing.T) {
	reg := newShopRegistry(t)

	defs := reg.List()
	want := []string{"getProducts", "getInventory", "getOrders", "purchase"}
	if len(defs) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(defs))
	}
	for i, name := range want {
		if defs[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, defs[i].Name)
		}
	}
}

func TestGetProducts(t *testing.T) {
	reg := newShopRegistry(t)

	res, err := reg.Dispatch(context.Background(), "getProducts", nil)
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", res.Text())
	}

	var products []shop.Product
	if err := json.Unmarshal([]byte(res.Text()), &products); err != nil {
		t.Fatalf("decoding products: %v", err)
	}
	if len(products) != 4 {
		t.Errorf("expected 4 products, got %d", len(products))
	}
}

func TestPurchaseFlow(t *testing.T) {
	reg := newShopRegistry(t)
	ctx := context.Background()

	res, err := reg.Dispatch(ctx, "purchase", json.RawMessage(
		`{"customerName":"Alice","items":[{"productId":1,"quantity":2}]}`))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", res.Text())
	}
	if !strings.Contains(res.Text(), "placed successfully") {
		t.Errorf("expected confirmation, got %s", res.Text())
	}

	res, err = reg.Dispatch(ctx, "getOrders", nil)
	if err != nil {
		t.Fatalf("getOrders failed: %v", err)
	}
	var orders []shop.Order
	if err := json.Unmarshal([]byte(res.Text()), &orders); err != nil {
		t.Fatalf("decoding orders: %v", err)
	}
	if len(orders) != 1 || orders[0].CustomerName != "Alice" {
		t.Fatalf("unexpected orders: %+v", orders)
	}
}

func TestPurchaseOversellBecomesErrorResult(t *testing.T) {
	reg := newShopRegistry(t)

	res, err := reg.Dispatch(context.Background(), "purchase", json.RawMessage(
		`{"customerName":"Bob","items":[{"productId":2,"quantity":9999}]}`))
	if err != nil {
		t.Fatalf("oversell should be a tool-level error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError result")
	}
	if !strings.Contains(res.Text(), "insufficient stock") {
		t.Errorf("expected stock message, got %s", res.Text())
	}
	if !strings.Contains(res.Text(), "Wireless Bluetooth Earbuds Pro") {
		t.Errorf("error should name the product, got %s", res.Text())
	}
	if !strings.Contains(res.Text(), "50") {
		t.Errorf("error should state the available quantity, got %s", res.Text())
	}
}

func TestPurchaseMissingCustomerRejectedBySchema(t *testing.T) {
	reg := newShopRegistry(t)

	res, err := reg.Dispatch(context.Background(), "purchase", json.RawMessage(
		`{"items":[{"productId":1,"quantity":1}]}`))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError result for missing customerName")
	}
}

func TestPurchaseCoercesStringQuantities(t *testing.T) {
	reg := newShopRegistry(t)

	res, err := reg.Dispatch(context.Background(), "purchase", json.RawMessage(
		`{"customerName":"Carol","items":[{"productId":"3","quantity":"2"}]}`))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("string numerics should be coerced, got: %s", res.Text())
	}
}

func TestTravelPack(t *testing.T) {
	reg := tools.NewRegistry(nil)
	if err := RegisterAll(reg, TravelPack(services.NewFlightService())); err != nil {
		t.Fatalf("registering travel pack: %v", err)
	}

	res, err := reg.Dispatch(context.Background(), "getFlightTimes", json.RawMessage(
		`{"departure":"LHR","arrival":"JFK"}`))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", res.Text())
	}
	if !strings.Contains(res.Text(), "LHR to JFK") {
		t.Errorf("unexpected result: %s", res.Text())
	}

	res, err = reg.Dispatch(context.Background(), "getFlightTimes", json.RawMessage(
		`{"departure":"LHR","arrival":"HND"}`))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError result for unknown route")
	}
}

func TestBrowserPackRejectsBadActions(t *testing.T) {
	reg := tools.NewRegistry(nil)
	auto := services.NewAutomationService(services.AutomationConfig{Headless: true})
	if err := RegisterAll(reg, BrowserPack(auto)); err != nil {
		t.Fatalf("registering browser pack: %v", err)
	}

	res, err := reg.Dispatch(context.Background(), "automateWebPage", json.RawMessage(
		`{"url":"https://example.com","actions":"teleport: #nowhere"}`))
	if err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError result for unknown action type")
	}
	if !strings.Contains(res.Text(), "teleport") {
		t.Errorf("expected the bad action in the message, got %s", res.Text())
	}
}
