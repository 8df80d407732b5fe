// Package catalog reads the product catalog from the persisted backend.
package catalog

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sellora/storefront/internal/model"
)

// Backend is the record-client surface the catalog depends on.
type Backend interface {
	Get(ctx context.Context, path string, out any) error
}

// Service serves product listings.
type Service struct {
	backend Backend
}

// New creates a catalog service.
func New(backend Backend) *Service {
	return &Service{backend: backend}
}

// List returns all catalog products.
func (s *Service) List(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	if err := s.backend.Get(ctx, "/rest/v1/products?select=*&order=name", &products); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

// Get returns one product by id.
func (s *Service) Get(ctx context.Context, id string) (model.Product, error) {
	path := "/rest/v1/products?select=*&id=eq." + url.QueryEscape(id)

	var products []model.Product
	if err := s.backend.Get(ctx, path, &products); err != nil {
		return model.Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	if len(products) == 0 {
		return model.Product{}, model.ErrNotFound
	}

	return products[0], nil
}
