// Package order creates orders at checkout and serves order history.
package order

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/sellora/storefront/internal/logger"
	"github.com/sellora/storefront/internal/model"
)

// Backend is the record-client surface the order service depends on.
type Backend interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// Identity supplies the current session for ownership checks.
type Identity interface {
	Current() *model.Session
}

// Service handles checkout and order history for the signed-in user.
type Service struct {
	backend  Backend
	sessions Identity
	logger   *logger.Logger
}

// New creates an order service.
func New(backend Backend, sessions Identity, l *logger.Logger) *Service {
	return &Service{backend: backend, sessions: sessions, logger: l}
}

// Checkout turns the given cart items into a pending order with its line
// items, capturing each unit price at checkout time. The caller clears the
// cart after a successful checkout.
func (s *Service) Checkout(ctx context.Context, details model.CheckoutDetails, items []model.CartItem) (model.Order, error) {
	sess := s.sessions.Current()
	if sess == nil {
		return model.Order{}, model.ErrNotAuthenticated
	}
	if len(items) == 0 {
		return model.Order{}, fmt.Errorf("cannot check out an empty cart")
	}

	var total float64
	for _, item := range items {
		total += item.Product.Price * float64(item.Quantity)
	}

	order := model.Order{
		ID:          uuid.New(),
		UserID:      sess.User.ID,
		FirstName:   details.FirstName,
		LastName:    details.LastName,
		Email:       details.Email,
		CompanyName: details.CompanyName,
		TotalAmount: total,
		Status:      model.OrderStatusPending,
		CreatedAt:   time.Now(),
	}

	if err := s.backend.Post(ctx, "/rest/v1/orders", order, nil); err != nil {
		return model.Order{}, fmt.Errorf("failed to create order: %w", err)
	}

	lines := make([]model.OrderItem, 0, len(items))
	for _, item := range items {
		lines = append(lines, model.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   item.Product.ID,
			Quantity:    item.Quantity,
			PriceAtTime: item.Product.Price,
		})
	}

	if err := s.backend.Post(ctx, "/rest/v1/order_items", lines, nil); err != nil {
		return model.Order{}, fmt.Errorf("failed to create order items: %w", err)
	}

	s.logger.Info("Order service: checkout completed",
		"order_id", order.ID,
		"user_id", order.UserID,
		"total", order.TotalAmount)

	return order, nil
}

// List returns the signed-in user's order history, newest first.
func (s *Service) List(ctx context.Context) ([]model.Order, error) {
	sess := s.sessions.Current()
	if sess == nil {
		return nil, model.ErrNotAuthenticated
	}

	path := "/rest/v1/orders?select=*&order=created_at.desc&user_id=eq." + url.QueryEscape(sess.User.ID)

	var orders []model.Order
	if err := s.backend.Get(ctx, path, &orders); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// Get returns one of the signed-in user's orders by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (model.Order, error) {
	sess := s.sessions.Current()
	if sess == nil {
		return model.Order{}, model.ErrNotAuthenticated
	}

	path := "/rest/v1/orders?select=*&id=eq." + url.QueryEscape(id.String())

	var orders []model.Order
	if err := s.backend.Get(ctx, path, &orders); err != nil {
		return model.Order{}, fmt.Errorf("failed to get order: %w", err)
	}
	if len(orders) == 0 || orders[0].UserID != sess.User.ID {
		return model.Order{}, model.ErrNotFound
	}

	return orders[0], nil
}
