// Package cart holds the shopping cart: an ordered sequence of product and
// quantity pairs mirrored to durable local storage and to the analytics
// tracker on every mutation.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/sellora/storefront/internal/logger"
	"github.com/sellora/storefront/internal/model"
)

const defaultTrackTimeout = 5 * time.Second

// Store is the reactive cart. Every mutation applies in-memory state and
// persistence first, then dispatches the tracking call detached, so a slow
// or failing analytics endpoint can never stall or corrupt the cart.
type Store struct {
	kv           model.KV
	tracker      model.CartTracker
	logger       *logger.Logger
	key          string
	trackTimeout time.Duration

	mu    sync.Mutex
	items []model.CartItem

	tracking sync.WaitGroup
}

// Option customizes a Store.
type Option func(*Store)

// WithTrackTimeout bounds each detached tracking call.
func WithTrackTimeout(d time.Duration) Option {
	return func(s *Store) { s.trackTimeout = d }
}

// New creates the store and restores any persisted cart. Malformed or absent
// stored data yields an empty cart.
func New(kv model.KV, tracker model.CartTracker, key string, l *logger.Logger, opts ...Option) *Store {
	s := &Store{
		kv:           kv,
		tracker:      tracker,
		logger:       l,
		key:          key,
		trackTimeout: defaultTrackTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.restore()
	return s
}

func (s *Store) restore() {
	raw, err := s.kv.Get(s.key)
	if errors.Is(err, model.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Warn("Cart store: failed to read persisted cart, starting empty", "error", err.Error())
		return
	}

	var items []model.CartItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.Warn("Cart store: discarding malformed persisted cart", "error", err.Error())
		return
	}

	s.items = items
}

// Add puts quantity units of product into the cart. Quantities accumulate
// onto an existing entry for the same product id; insertion order is kept.
func (s *Store) Add(product model.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	idx := s.indexOf(product.ID)
	var newQuantity int
	if idx >= 0 {
		s.items[idx].Quantity += quantity
		newQuantity = s.items[idx].Quantity
	} else {
		s.items = append(s.items, model.CartItem{Product: product, Quantity: quantity})
	}
	s.persistLocked()
	s.mu.Unlock()

	if idx >= 0 {
		// Accumulation is reported as an update carrying the new total.
		s.dispatch(func(ctx context.Context) {
			s.tracker.TrackUpdate(ctx, product, newQuantity)
		})
	} else {
		s.dispatch(func(ctx context.Context) {
			s.tracker.TrackAdd(ctx, product, quantity)
		})
	}

	s.logger.Debug("Cart store: item added", "product_id", product.ID, "quantity", quantity)
}

// Remove deletes the item with the given product id.
func (s *Store) Remove(productID string) {
	s.mu.Lock()
	kept := s.items[:0]
	for _, item := range s.items {
		if item.Product.ID != productID {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.persistLocked()
	s.mu.Unlock()

	s.dispatch(func(ctx context.Context) {
		s.tracker.TrackRemove(ctx, productID)
	})

	s.logger.Debug("Cart store: item removed", "product_id", productID)
}

// UpdateQuantity overwrites the quantity of an existing item. Absent items
// and quantities below one are a no-op with no tracking call.
func (s *Store) UpdateQuantity(productID string, quantity int) {
	if quantity < 1 {
		return
	}

	s.mu.Lock()
	idx := s.indexOf(productID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.items[idx].Quantity = quantity
	product := s.items[idx].Product
	s.persistLocked()
	s.mu.Unlock()

	s.dispatch(func(ctx context.Context) {
		s.tracker.TrackUpdate(ctx, product, quantity)
	})

	s.logger.Debug("Cart store: quantity updated", "product_id", productID, "quantity", quantity)
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = []model.CartItem{}
	s.persistLocked()
	s.mu.Unlock()

	s.dispatch(func(ctx context.Context) {
		s.tracker.TrackClear(ctx)
	})

	s.logger.Debug("Cart store: cleared")
}

// Items returns a copy of the cart in insertion order.
func (s *Store) Items() []model.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]model.CartItem, len(s.items))
	copy(items, s.items)
	return items
}

// Total is the derived sum of unit price times quantity, recomputed on read.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, item := range s.items {
		total += item.Product.Price * float64(item.Quantity)
	}
	return total
}

// Close waits for in-flight tracking dispatches to finish.
func (s *Store) Close() {
	s.tracking.Wait()
}

func (s *Store) indexOf(productID string) int {
	for i, item := range s.items {
		if item.Product.ID == productID {
			return i
		}
	}
	return -1
}

// persistLocked serializes the full item sequence under the mutex, so
// durable storage is never out of step with in-memory state.
func (s *Store) persistLocked() {
	raw, err := json.Marshal(s.items)
	if err != nil {
		s.logger.Error("Cart store: failed to marshal cart", "error", err.Error())
		return
	}
	if err := s.kv.Set(s.key, string(raw)); err != nil {
		s.logger.Error("Cart store: failed to persist cart", "error", err.Error())
	}
}

// dispatch runs a tracking call detached from the mutating caller with a
// bounded lifetime.
func (s *Store) dispatch(fn func(ctx context.Context)) {
	s.tracking.Add(1)
	go func() {
		defer s.tracking.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.trackTimeout)
		defer cancel()
		fn(ctx)
	}()
}
