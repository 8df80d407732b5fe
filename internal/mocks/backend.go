package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// Backend mocks the record-client surface consumed by the catalog and order
// services.
type Backend struct {
	mock.Mock
}

func (m *Backend) Get(ctx context.Context, path string, out any) error {
	args := m.Called(ctx, path, out)
	return args.Error(0)
}

func (m *Backend) Post(ctx context.Context, path string, body, out any) error {
	args := m.Called(ctx, path, body, out)
	return args.Error(0)
}
