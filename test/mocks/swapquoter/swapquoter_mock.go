package swapquoter

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vultisig/zap-planner/internal/types"
)

type MockSwapQuoter struct {
	mock.Mock
}

func (m *MockSwapQuoter) Quote(ctx context.Context, req types.QuoteRequest) (*types.SwapQuote, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SwapQuote), args.Error(1)
}
