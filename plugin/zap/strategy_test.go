package zap

import (
	"fmt"
	"testing"

	gcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/vultisig/zap-planner/common"
	"github.com/vultisig/zap-planner/internal/types"
)

func staticLookup(infos ...*types.TokenInfo) tokenLookup {
	known := make(map[gcommon.Address]types.Token, len(infos))
	for _, info := range infos {
		known[info.Token.Address] = info.Token
	}
	return func(addr gcommon.Address) (types.Token, error) {
		if tok, ok := known[addr]; ok {
			return tok, nil
		}
		return types.Token{}, fmt.Errorf("unknown token %s", addr.Hex())
	}
}

func TestSelectStrategy(t *testing.T) {
	usdc := plainInfo(usdcAddr, 6)
	dai := plainInfo(daiAddr, 18)
	weth := plainInfo(wethAddr, 18)
	lookup := staticLookup(usdc, dai, weth, plainInfo(usdtAddr, 6))
	rate := bi("1000000000000000000")
	best := usdcAddr

	testCases := []struct {
		name      string
		input     *types.TokenInfo
		output    *types.TokenInfo
		kind      Strategy
		swap      bool
		legs      int
		targets   int
		wantError error
	}{
		{name: "identity", input: usdc, output: usdc, kind: StrategyIdentity},
		{name: "wrap native", input: nativeInfo(), output: weth, kind: StrategyDirect},
		{name: "unwrap native", input: weth, output: nativeInfo(), kind: StrategyDirect},
		{name: "deposit", input: usdc, output: vaultInfo(usdcVaultAddr, 6, rate, usdc), kind: StrategyDirect},
		{name: "redeem", input: vaultInfo(usdcVaultAddr, 6, rate, usdc), output: usdc, kind: StrategyDirect},
		{name: "plain swap", input: usdc, output: dai, kind: StrategySwap, swap: true, legs: 1, targets: 1},
		{name: "native swap", input: nativeInfo(), output: usdc, kind: StrategySwap, swap: true, legs: 1, targets: 1},
		{name: "swap into vault", input: dai, output: vaultInfo(usdcVaultAddr, 6, rate, usdc), kind: StrategySwap, swap: true, legs: 1, targets: 1},
		{name: "velodrome lp", input: usdc, output: veloLPInfo(), kind: StrategyVelodromeLP, swap: true, legs: 1, targets: 2},
		{name: "velodrome lp exit", input: veloLPInfo(), output: dai, kind: StrategySwap, swap: true, legs: 2, targets: 1},
		{name: "curve lp with best coin held", input: usdc, output: curveLPInfo(&best), kind: StrategyCurveLP, legs: 1, targets: 1},
		{name: "curve lp not quotable", input: usdc, output: curveLPInfo(nil), wantError: common.ErrRouteUnsupported},
		{name: "lp exit into curve vault", input: veloLPInfo(), output: vaultInfo(veloVaultAddr, 18, rate, curveLPInfo(&best)),
			kind: StrategyCurveLP, swap: true, legs: 2, targets: 1},
		{name: "nested wrapper", input: usdc, output: vaultInfo(veloVaultAddr, 18, rate, vaultInfo(usdcVaultAddr, 6, rate, usdc)),
			wantError: common.ErrRouteUnsupported},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := selectStrategy(testSettings(), tc.input, tc.output, lookup)
			if tc.wantError != nil {
				require.ErrorIs(t, err, tc.wantError)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.kind, s.kind)
			require.Equal(t, tc.swap, s.swapNeeded())
			require.Len(t, s.legs, tc.legs)
			require.Len(t, s.targets, tc.targets)
		})
	}
}

func TestSelectStrategyNeedsVelodromeRouter(t *testing.T) {
	settings := testSettings()
	settings.VelodromeRouter = gcommon.Address{}
	_, err := selectStrategy(settings, plainInfo(usdcAddr, 6), veloLPInfo(), staticLookup(plainInfo(usdcAddr, 6), plainInfo(daiAddr, 18)))
	require.ErrorIs(t, err, common.ErrRouteUnsupported)
}
