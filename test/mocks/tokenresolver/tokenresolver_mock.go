package tokenresolver

import (
	"context"
	"math/big"

	gcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"

	"github.com/vultisig/zap-planner/internal/types"
)

type MockTokenResolver struct {
	mock.Mock
}

func (m *MockTokenResolver) Resolve(ctx context.Context, chainID uint64, address gcommon.Address) (*types.TokenInfo, error) {
	args := m.Called(ctx, chainID, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TokenInfo), args.Error(1)
}

func (m *MockTokenResolver) PreviewCurveDeposit(ctx context.Context, chainID uint64, pool gcommon.Address, amounts [2]*big.Int) (*big.Int, error) {
	args := m.Called(ctx, chainID, pool, amounts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockTokenResolver) PreviewCurveWithdraw(ctx context.Context, chainID uint64, pool gcommon.Address, lpAmount *big.Int, index int) (*big.Int, error) {
	args := m.Called(ctx, chainID, pool, lpAmount, index)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}
