package analytics

import (
	"context"

	"github.com/sellora/storefront/internal/flight"
	"github.com/sellora/storefront/internal/logger"
	"github.com/sellora/storefront/internal/model"
)

// signalsAPI is the Signals surface the bridge depends on, mockable in tests.
type signalsAPI interface {
	Activate(ctx context.Context, authKey string) error
	AddToCart(ctx context.Context, p Payload) error
	RemoveFromCart(ctx context.Context, p Payload) error
	ReplaceCart(ctx context.Context, p Payload) error
	ClearCart(ctx context.Context, p Payload) error
}

// EmailSource supplies the email attached to tracking payloads, normally the
// session store's current identity.
type EmailSource func() string

var _ model.CartTracker = (*Bridge)(nil)

// Bridge translates cart mutations into Signals tracking calls. Activation
// runs at most once via a single-flight initializer shared by all callers;
// every tracking method absorbs its own failures so a cart mutation can
// never fail because analytics failed.
type Bridge struct {
	api    signalsAPI
	init   *flight.Initializer
	cartID string
	email  EmailSource
	logger *logger.Logger
}

// NewBridge creates a Bridge over a Signals client. The auth-key handshake is
// deferred until the first tracking call (or an explicit Arm).
func NewBridge(api signalsAPI, authKey, cartID string, email EmailSource, l *logger.Logger) *Bridge {
	b := &Bridge{
		api:    api,
		cartID: cartID,
		email:  email,
		logger: l,
	}
	b.init = flight.New(func(ctx context.Context) error {
		return api.Activate(ctx, authKey)
	})
	return b
}

// Arm eagerly runs the activation handshake. Callers racing with in-flight
// activation share its outcome.
func (b *Bridge) Arm(ctx context.Context) error {
	return b.init.Run(ctx)
}

// TrackAdd reports a newly added item with the added quantity.
func (b *Bridge) TrackAdd(ctx context.Context, product model.Product, quantity int) {
	if !b.ensureArmed(ctx) {
		return
	}
	if err := b.api.AddToCart(ctx, b.payload(product, quantity)); err != nil {
		b.logger.Error("Analytics bridge: failed to track add to cart",
			"product_id", product.ID,
			"error", err.Error())
	}
}

// TrackRemove reports an item removed from the cart.
func (b *Bridge) TrackRemove(ctx context.Context, productID string) {
	if !b.ensureArmed(ctx) {
		return
	}
	p := Payload{
		CartID: b.cartID,
		Email:  b.email(),
		Items:  []Item{{SKU: productID, Quantity: 0}},
	}
	if err := b.api.RemoveFromCart(ctx, p); err != nil {
		b.logger.Error("Analytics bridge: failed to track remove from cart",
			"product_id", productID,
			"error", err.Error())
	}
}

// TrackUpdate reports an item's new total quantity.
func (b *Bridge) TrackUpdate(ctx context.Context, product model.Product, quantity int) {
	if !b.ensureArmed(ctx) {
		return
	}
	if err := b.api.ReplaceCart(ctx, b.payload(product, quantity)); err != nil {
		b.logger.Error("Analytics bridge: failed to track cart update",
			"product_id", product.ID,
			"error", err.Error())
	}
}

// TrackClear reports the cart being emptied.
func (b *Bridge) TrackClear(ctx context.Context) {
	if !b.ensureArmed(ctx) {
		return
	}
	p := Payload{
		CartID: b.cartID,
		Email:  b.email(),
		Items:  []Item{},
	}
	if err := b.api.ClearCart(ctx, p); err != nil {
		b.logger.Error("Analytics bridge: failed to track cart clear",
			"error", err.Error())
	}
}

// ensureArmed awaits activation, degrading the call to a no-op if activation
// ultimately failed.
func (b *Bridge) ensureArmed(ctx context.Context) bool {
	if err := b.init.Run(ctx); err != nil {
		b.logger.Debug("Analytics bridge: not armed, dropping tracking call",
			"error", err.Error())
		return false
	}
	return true
}

func (b *Bridge) payload(product model.Product, quantity int) Payload {
	return Payload{
		CartID: b.cartID,
		Email:  b.email(),
		Items: []Item{{
			SKU:       product.ID,
			Quantity:  quantity,
			Name:      product.Name,
			BasePrice: product.Price,
			NetPrice:  product.Price * float64(quantity),
		}},
	}
}
