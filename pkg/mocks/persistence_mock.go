package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ideonhq/ideon/pkg/models"
)

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) Graphs(ctx context.Context) ([]*models.WorkflowGraph, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.WorkflowGraph), args.Error(1)
}

func (m *MockPersistence) SaveGraph(ctx context.Context, graph *models.WorkflowGraph) error {
	args := m.Called(ctx, graph)

	return args.Error(0)
}

func (m *MockPersistence) GraphByID(ctx context.Context, id string) (*models.WorkflowGraph, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.WorkflowGraph), args.Error(1)
}

func (m *MockPersistence) DeleteGraph(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
