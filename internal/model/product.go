package model

import "context"

// Product is a catalog entry as served by the persisted backend.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	SKU         string  `json:"sku"`
	ImageURL    string  `json:"image_url,omitempty"`
	Category    string  `json:"category,omitempty"`
}

// CartItem pairs a product with a quantity. Quantity is always >= 1; a cart
// holds at most one item per product id.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// CartTracker mirrors cart mutations to an analytics endpoint. Calls are
// fire-and-forget: implementations must absorb their own failures and never
// surface them to the mutating caller.
type CartTracker interface {
	TrackAdd(ctx context.Context, product Product, quantity int)
	TrackRemove(ctx context.Context, productID string)
	TrackUpdate(ctx context.Context, product Product, quantity int)
	TrackClear(ctx context.Context)
}
