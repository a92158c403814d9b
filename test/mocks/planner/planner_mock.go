package planner

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vultisig/zap-planner/plugin/zap"
)

type MockPlanner struct {
	mock.Mock
}

func (m *MockPlanner) Plan(ctx context.Context, req zap.Request) (*zap.Plan, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*zap.Plan), args.Error(1)
}
