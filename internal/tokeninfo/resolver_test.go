package tokeninfo

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	gcommon "github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vultisig/zap-planner/common"
	"github.com/vultisig/zap-planner/internal/chains"
	"github.com/vultisig/zap-planner/internal/types"
	"github.com/vultisig/zap-planner/test/mocks/chainreader"
)

const testChainID = 10

var (
	usdc      = gcommon.HexToAddress("0x0b2c639c533813f4aa9d7837caf62653d097ff85")
	dai       = gcommon.HexToAddress("0xda10009cbd5d07dd0cecc66161fc93d7c9000da1")
	weth      = gcommon.HexToAddress("0x4200000000000000000000000000000000000006")
	vault     = gcommon.HexToAddress("0x1000000000000000000000000000000000000001")
	wrapper   = gcommon.HexToAddress("0x1000000000000000000000000000000000000002")
	veloPool  = gcommon.HexToAddress("0x1000000000000000000000000000000000000003")
	curvePool = gcommon.HexToAddress("0x1000000000000000000000000000000000000004")
)

type revertError struct{}

func (revertError) Error() string  { return "execution reverted" }
func (revertError) ErrorCode() int { return 3 }

func newTestResolver(t *testing.T, reader *chainreader.MockChainReader, quoteAssets ...gcommon.Address) *Resolver {
	registry := chains.Registry{
		testChainID: {ChainID: testChainID, WrappedNative: weth, QuoteAssets: quoteAssets},
	}
	resolver, err := NewResolver(map[uint64]ChainReader{testChainID: reader}, registry, time.Second, logrus.StandardLogger())
	require.NoError(t, err)
	return resolver
}

func selectorOf(contract abi.ABI, method string) []byte {
	return contract.Methods[method].ID
}

// expectCall registers a successful read of method on to returning the packed outputs.
func expectCall(t *testing.T, m *chainreader.MockChainReader, to gcommon.Address, contract abi.ABI, method string, outputs ...interface{}) {
	encoded, err := contract.Methods[method].Outputs.Pack(outputs...)
	require.NoError(t, err)
	selector := selectorOf(contract, method)
	m.On("CallContract", mock.Anything, mock.MatchedBy(func(call ethereum.CallMsg) bool {
		return call.To != nil && *call.To == to && bytes.HasPrefix(call.Data, selector)
	}), mock.Anything).Return(encoded, nil)
}

// expectCallWithArgs is expectCall with the packed arguments matched as well.
func expectCallWithArgs(t *testing.T, m *chainreader.MockChainReader, to gcommon.Address, contract abi.ABI, method string, args []interface{}, outputs ...interface{}) {
	encoded, err := contract.Methods[method].Outputs.Pack(outputs...)
	require.NoError(t, err)
	input, err := contract.Pack(method, args...)
	require.NoError(t, err)
	m.On("CallContract", mock.Anything, mock.MatchedBy(func(call ethereum.CallMsg) bool {
		return call.To != nil && *call.To == to && bytes.Equal(call.Data, input)
	}), mock.Anything).Return(encoded, nil)
}

// revertRest makes every other read on to revert.
func revertRest(m *chainreader.MockChainReader, to gcommon.Address) {
	m.On("CallContract", mock.Anything, mock.MatchedBy(func(call ethereum.CallMsg) bool {
		return call.To != nil && *call.To == to
	}), mock.Anything).Return(nil, revertError{})
}

func expectPlain(t *testing.T, m *chainreader.MockChainReader, token gcommon.Address, decimals uint8) {
	expectCall(t, m, token, erc20, "decimals", decimals)
	revertRest(m, token)
}

func TestResolveNative(t *testing.T) {
	reader := new(chainreader.MockChainReader)
	session := newTestResolver(t, reader).NewSession()

	info, err := session.Resolve(context.Background(), testChainID, types.NativeAsset)
	require.NoError(t, err)
	require.IsType(t, types.Native{}, info.Classification)
	require.Equal(t, uint8(18), info.Token.Decimals)
	reader.AssertNotCalled(t, "CallContract", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolvePlain(t *testing.T) {
	reader := new(chainreader.MockChainReader)
	expectPlain(t, reader, usdc, 6)
	session := newTestResolver(t, reader).NewSession()

	info, err := session.Resolve(context.Background(), testChainID, usdc)
	require.NoError(t, err)
	require.IsType(t, types.Plain{}, info.Classification)
	require.Equal(t, uint8(6), info.Token.Decimals)
	require.Nil(t, info.Underlying)
}

func TestResolveVaultShare(t *testing.T) {
	reader := new(chainreader.MockChainReader)
	expectCall(t, reader, vault, erc20, "decimals", uint8(6))
	expectCall(t, reader, vault, erc4626, "asset", usdc)
	expectCallWithArgs(t, reader, vault, erc4626, "convertToAssets", []interface{}{big.NewInt(1_000_000)}, big.NewInt(1_050_000))
	revertRest(reader, vault)
	expectPlain(t, reader, usdc, 6)

	session := newTestResolver(t, reader).NewSession()
	info, err := session.Resolve(context.Background(), testChainID, vault)
	require.NoError(t, err)

	share, ok := info.Classification.(types.VaultShare)
	require.True(t, ok)
	require.Equal(t, usdc, share.Underlying)
	require.Equal(t, "1050000000000000000", share.ExchangeRate.String())
	require.Equal(t, "1000000000001", share.RateStep.String())
	require.NotNil(t, info.Underlying)
	require.IsType(t, types.Plain{}, info.Underlying.Classification)
	require.Equal(t, info.Underlying, info.Inner())
}

func TestResolveYieldWrapperOverVelodrome(t *testing.T) {
	reader := new(chainreader.MockChainReader)
	expectCall(t, reader, wrapper, erc20, "decimals", uint8(18))
	expectCall(t, reader, wrapper, beefy, "want", veloPool)
	expectCall(t, reader, wrapper, beefy, "getPricePerFullShare", big.NewInt(1_100_000_000_000_000_000))
	revertRest(reader, wrapper)

	expectCall(t, reader, veloPool, erc20, "decimals", uint8(18))
	expectCall(t, reader, veloPool, velodrome, "token0", usdc)
	expectCall(t, reader, veloPool, velodrome, "token1", dai)
	expectCall(t, reader, veloPool, velodrome, "getReserves", big.NewInt(5_000), big.NewInt(7_000), big.NewInt(1))
	expectCall(t, reader, veloPool, erc20, "totalSupply", big.NewInt(100))
	expectCall(t, reader, veloPool, velodrome, "stable", true)
	revertRest(reader, veloPool)

	session := newTestResolver(t, reader).NewSession()
	info, err := session.Resolve(context.Background(), testChainID, wrapper)
	require.NoError(t, err)

	share, ok := info.Classification.(types.YieldWrapperShare)
	require.True(t, ok)
	require.Equal(t, veloPool, share.Underlying)
	require.Equal(t, int64(1), share.RateStep.Int64())

	lp, ok := info.Inner().Classification.(types.LpToken)
	require.True(t, ok)
	require.Equal(t, types.LpVelodrome, lp.Kind)
	require.Equal(t, usdc, lp.Token0)
	require.Equal(t, dai, lp.Token1)
	require.Equal(t, int64(5_000), lp.Reserve0.Int64())
	require.Equal(t, int64(7_000), lp.Reserve1.Int64())
	require.Equal(t, int64(100), lp.TotalSupply.Int64())
	require.True(t, lp.Stable)
}

func TestResolveCurve(t *testing.T) {
	testCases := []struct {
		name        string
		quoteAssets []gcommon.Address
		wantBest    *gcommon.Address
	}{
		{
			name:        "quote asset is a coin",
			quoteAssets: []gcommon.Address{weth, dai},
			wantBest:    &dai,
		},
		{
			name:        "order of quote assets wins",
			quoteAssets: []gcommon.Address{usdc, dai},
			wantBest:    &usdc,
		},
		{
			name:        "no quote asset in pool",
			quoteAssets: []gcommon.Address{weth},
			wantBest:    nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reader := new(chainreader.MockChainReader)
			expectCall(t, reader, curvePool, erc20, "decimals", uint8(18))
			expectCallWithArgs(t, reader, curvePool, curve, "coins", []interface{}{big.NewInt(0)}, usdc)
			expectCallWithArgs(t, reader, curvePool, curve, "coins", []interface{}{big.NewInt(1)}, dai)
			expectCallWithArgs(t, reader, curvePool, curve, "balances", []interface{}{big.NewInt(0)}, big.NewInt(1_000))
			expectCallWithArgs(t, reader, curvePool, curve, "balances", []interface{}{big.NewInt(1)}, big.NewInt(2_000))
			expectCall(t, reader, curvePool, erc20, "totalSupply", big.NewInt(3_000))
			revertRest(reader, curvePool)

			session := newTestResolver(t, reader, tc.quoteAssets...).NewSession()
			info, err := session.Resolve(context.Background(), testChainID, curvePool)
			require.NoError(t, err)

			lp, ok := info.Classification.(types.LpToken)
			require.True(t, ok)
			require.Equal(t, types.LpCurve, lp.Kind)
			if tc.wantBest == nil {
				require.Nil(t, lp.BestCurveInputToken)
				return
			}
			require.NotNil(t, lp.BestCurveInputToken)
			require.Equal(t, *tc.wantBest, *lp.BestCurveInputToken)
		})
	}
}

func TestResolveFailures(t *testing.T) {
	t.Run("no decimals is unclassifiable", func(t *testing.T) {
		reader := new(chainreader.MockChainReader)
		revertRest(reader, usdc)
		_, err := newTestResolver(t, reader).NewSession().Resolve(context.Background(), testChainID, usdc)
		require.ErrorIs(t, err, common.ErrUnclassifiableToken)
	})

	t.Run("empty result is unclassifiable", func(t *testing.T) {
		reader := new(chainreader.MockChainReader)
		reader.On("CallContract", mock.Anything, mock.Anything, mock.Anything).Return([]byte{}, nil)
		_, err := newTestResolver(t, reader).NewSession().Resolve(context.Background(), testChainID, usdc)
		require.ErrorIs(t, err, common.ErrUnclassifiableToken)
	})

	t.Run("unreachable chain surfaces", func(t *testing.T) {
		reader := new(chainreader.MockChainReader)
		reader.On("CallContract", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: connection refused"))
		_, err := newTestResolver(t, reader).NewSession().Resolve(context.Background(), testChainID, usdc)
		require.Error(t, err)
		require.False(t, errors.Is(err, common.ErrUnclassifiableToken))
	})

	t.Run("probe timeout is a mismatch", func(t *testing.T) {
		reader := new(chainreader.MockChainReader)
		expectCall(t, reader, usdc, erc20, "decimals", uint8(6))
		reader.On("CallContract", mock.Anything, mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)
		info, err := newTestResolver(t, reader).NewSession().Resolve(context.Background(), testChainID, usdc)
		require.NoError(t, err)
		require.IsType(t, types.Plain{}, info.Classification)
	})

	t.Run("unknown chain", func(t *testing.T) {
		reader := new(chainreader.MockChainReader)
		_, err := newTestResolver(t, reader).NewSession().Resolve(context.Background(), 1, usdc)
		require.ErrorIs(t, err, common.ErrChainNotConfigured)
	})
}

func TestSessionCache(t *testing.T) {
	reader := new(chainreader.MockChainReader)
	expectPlain(t, reader, usdc, 6)
	session := newTestResolver(t, reader).NewSession()

	first, err := session.Resolve(context.Background(), testChainID, usdc)
	require.NoError(t, err)
	calls := len(reader.Calls)

	second, err := session.Resolve(context.Background(), testChainID, usdc)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Len(t, reader.Calls, calls)

	// a new session starts cold
	_, err = newTestResolver(t, reader).NewSession().Resolve(context.Background(), testChainID, usdc)
	require.NoError(t, err)
	require.Greater(t, len(reader.Calls), calls)
}

func TestPreviewCurve(t *testing.T) {
	reader := new(chainreader.MockChainReader)
	amounts := [2]*big.Int{big.NewInt(1_000), big.NewInt(0)}
	expectCallWithArgs(t, reader, curvePool, curve, "calc_token_amount", []interface{}{amounts, true}, big.NewInt(990))
	expectCallWithArgs(t, reader, curvePool, curve, "calc_withdraw_one_coin", []interface{}{big.NewInt(500), big.NewInt(1)}, big.NewInt(505))
	revertRest(reader, curvePool)
	session := newTestResolver(t, reader).NewSession()

	minted, err := session.PreviewCurveDeposit(context.Background(), testChainID, curvePool, amounts)
	require.NoError(t, err)
	require.Equal(t, int64(990), minted.Int64())

	received, err := session.PreviewCurveWithdraw(context.Background(), testChainID, curvePool, big.NewInt(500), 1)
	require.NoError(t, err)
	require.Equal(t, int64(505), received.Int64())

	_, err = session.PreviewCurveWithdraw(context.Background(), testChainID, curvePool, big.NewInt(1), 0)
	require.ErrorIs(t, err, common.ErrRouteUnsupported)
}
