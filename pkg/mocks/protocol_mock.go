package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ideonhq/ideon/pkg/models"
	"github.com/ideonhq/ideon/pkg/protocol"
)

// MockStepExecutor is a mock implementation of protocol.StepExecutor interface.
type MockStepExecutor struct {
	mock.Mock
}

func (m *MockStepExecutor) Execute(ctx context.Context, node *models.WorkflowNode, execCtx models.ExecutionContext) (models.StepResult, error) {
	args := m.Called(ctx, node, execCtx)

	result, _ := args.Get(0).(models.StepResult)

	return result, args.Error(1)
}

// MockTrigger is a mock implementation of protocol.Trigger interface.
type MockTrigger struct {
	mock.Mock
}

func (m *MockTrigger) Start(ctx context.Context, callback protocol.TriggerCallback) error {
	args := m.Called(ctx, callback)

	return args.Error(0)
}

func (m *MockTrigger) Stop(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockTrigger) Validate() error {
	args := m.Called()

	return args.Error(0)
}
