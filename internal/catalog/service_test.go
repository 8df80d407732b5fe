package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sellora/storefront/internal/mocks"
	"github.com/sellora/storefront/internal/model"
)

func TestService_List(t *testing.T) {
	ctx := context.Background()
	backend := &mocks.Backend{}

	backend.On("Get", mock.Anything, "/rest/v1/products?select=*&order=name", mock.Anything).
		Run(func(args mock.Arguments) {
			out := args.Get(2).(*[]model.Product)
			*out = []model.Product{
				{ID: "p1", Name: "Gadget", Price: 4},
				{ID: "p2", Name: "Widget", Price: 10},
			}
		}).
		Return(nil)

	s := New(backend)
	products, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Gadget", products[0].Name)
}

func TestService_List_BackendError(t *testing.T) {
	ctx := context.Background()
	backend := &mocks.Backend{}
	backend.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("backend down"))

	s := New(backend)
	_, err := s.List(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list products")
}

func TestService_Get(t *testing.T) {
	ctx := context.Background()
	backend := &mocks.Backend{}

	backend.On("Get", mock.Anything, "/rest/v1/products?select=*&id=eq.p1", mock.Anything).
		Run(func(args mock.Arguments) {
			out := args.Get(2).(*[]model.Product)
			*out = []model.Product{{ID: "p1", Name: "Widget", Price: 10}}
		}).
		Return(nil)

	s := New(backend)
	product, err := s.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Widget", product.Name)
}

func TestService_Get_NotFound(t *testing.T) {
	ctx := context.Background()
	backend := &mocks.Backend{}
	backend.On("Get", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	s := New(backend)
	_, err := s.Get(ctx, "ghost")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
