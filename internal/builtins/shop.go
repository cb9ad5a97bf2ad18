// ABOUTME: Shop pack exposes catalog, inventory, order, and purchase tools.
// ABOUTME: Backed by a shop.Store implementation.

package builtins

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopstream/shopmcp/internal/shop"
	"github.com/shopstream/shopmcp/internal/tools"
)

// ShopPack creates the shop pack backed by the given store.
func ShopPack(s shop.Store) *Pack {
	h := &shopHandlers{store: s}
	return &Pack{
		ID: "builtin:shop",
		Tools: []*tools.Tool{
			{
				Definition: tools.Definition{
					Name:        "getProducts",
					Description: "Get a list of all products in the store, including id, name, price, and description",
					InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
				},
				Handler: h.Products,
			},
			{
				Definition: tools.Definition{
					Name:        "getInventory",
					Description: "Get current inventory levels for all products",
					InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
				},
				Handler: h.Inventory,
			},
			{
				Definition: tools.Definition{
					Name:        "getOrders",
					Description: "Get a list of all orders placed so far",
					InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
				},
				Handler: h.Orders,
			},
			{
				Definition: tools.Definition{
					Name:        "purchase",
					Description: "Place an order for one or more products on behalf of a customer",
					InputSchema: json.RawMessage(`{
						"type": "object",
						"properties": {
							"items": {
								"type": "array",
								"items": {
									"type": "object",
									"properties": {
										"productId": {"type": "integer", "description": "Product ID"},
										"quantity": {"type": "integer", "minimum": 1, "description": "Quantity to purchase"}
									},
									"required": ["productId", "quantity"]
								},
								"description": "Products and quantities to purchase"
							},
							"customerName": {"type": "string", "description": "Name of the customer placing the order"}
						},
						"required": ["items", "customerName"]
					}`),
				},
				Handler: h.Purchase,
			},
		},
	}
}

type shopHandlers struct {
	store shop.Store
}

func (h *shopHandlers) Products(ctx context.Context, args json.RawMessage) (*tools.Result, error) {
	products, err := h.store.Products(ctx)
	if err != nil {
		return nil, err
	}
	return tools.JSONResult(products)
}

func (h *shopHandlers) Inventory(ctx context.Context, args json.RawMessage) (*tools.Result, error) {
	inventory, err := h.store.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	return tools.JSONResult(inventory)
}

func (h *shopHandlers) Orders(ctx context.Context, args json.RawMessage) (*tools.Result, error) {
	orders, err := h.store.Orders(ctx)
	if err != nil {
		return nil, err
	}
	return tools.JSONResult(orders)
}

type purchaseInput struct {
	Items        []shop.OrderItem `json:"items"`
	CustomerName string           `json:"customerName"`
}

func (h *shopHandlers) Purchase(ctx context.Context, args json.RawMessage) (*tools.Result, error) {
	var in purchaseInput
	if err := json.Unmarshal(args, &in); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	order, err := h.store.Purchase(ctx, in.CustomerName, in.Items)
	if err != nil {
		return nil, err
	}

	return tools.JSONResult(map[string]any{
		"message": fmt.Sprintf("Order %d placed successfully for %s, total %.2f",
			order.ID, order.CustomerName, order.TotalAmount),
		"order": order,
	})
}
