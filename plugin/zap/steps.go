package zap

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	gcommon "github.com/ethereum/go-ethereum/common"

	"github.com/vultisig/zap-planner/internal/types"
)

// Byte offsets of the amount words the router overwrites with its runtime balance. They follow
// from each method's argument layout: 4 bytes of selector plus 32 per static word.
const (
	offsetUnwrapWad          = 4
	offsetVaultDepositAssets = 4
	offsetVaultRedeemShares  = 4
	offsetWrapperDeposit     = 4
	offsetWrapperWithdraw    = 4
	offsetVelodromeAmountA   = 100
	offsetVelodromeAmountB   = 132
	offsetVelodromeLiquidity = 100
	offsetCurveAmount0       = 4
	offsetCurveAmount1       = 36
	offsetCurveBurnAmount    = 4
)

// amountArg is an amount argument of a step. Deferred amounts are packed as zero and replaced
// on-chain by the router.
type amountArg struct {
	value    *big.Int
	deferred bool
}

func staticArg(v *big.Int) amountArg {
	return amountArg{value: new(big.Int).Set(v)}
}

func runtimeArg() amountArg {
	return amountArg{deferred: true}
}

func (a amountArg) packed() *big.Int {
	if a.deferred || a.value == nil {
		return new(big.Int)
	}
	return a.value
}

func (a amountArg) binding(token gcommon.Address, offset int) types.TokenBinding {
	if a.deferred {
		return types.RuntimeBalanceOf(token, offset)
	}
	return types.StaticAmount(token)
}

func packCall(contract abi.ABI, name, method string, args ...interface{}) ([]byte, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("fail to pack %s.%s: %w", name, method, err)
	}
	return data, nil
}

func wrapStep(wnative gcommon.Address, amount *big.Int) (types.RouteStep, error) {
	data, err := packCall(wrappedNative, "wnative", "deposit")
	if err != nil {
		return types.RouteStep{}, err
	}
	return types.RouteStep{
		Kind:   types.StepWrap,
		Target: wnative,
		Value:  new(big.Int).Set(amount),
		Data:   data,
	}, nil
}

func unwrapStep(wnative gcommon.Address, amount amountArg) (types.RouteStep, error) {
	data, err := packCall(wrappedNative, "wnative", "withdraw", amount.packed())
	if err != nil {
		return types.RouteStep{}, err
	}
	return types.RouteStep{
		Kind:          types.StepUnwrap,
		Target:        wnative,
		Value:         new(big.Int),
		Data:          data,
		TokenBindings: []types.TokenBinding{amount.binding(wnative, offsetUnwrapWad)},
	}, nil
}

// swapStep forwards the aggregator calldata untouched. Its amount is fixed at quote time.
func swapStep(from gcommon.Address, quote *types.SwapQuote) types.RouteStep {
	value := new(big.Int)
	if quote.Call.Value != nil {
		value.Set(quote.Call.Value)
	}
	var bindings []types.TokenBinding
	if from != types.NativeAsset {
		bindings = []types.TokenBinding{types.StaticAmount(from)}
	}
	return types.RouteStep{
		Kind:          types.StepSwap,
		Target:        quote.Call.Target,
		Value:         value,
		Data:          append([]byte(nil), quote.Call.Data...),
		TokenBindings: bindings,
	}
}

func vaultDepositStep(vault, underlying, router gcommon.Address, assets amountArg) (types.RouteStep, error) {
	data, err := packCall(erc4626, "vault", "deposit", assets.packed(), router)
	if err != nil {
		return types.RouteStep{}, err
	}
	return types.RouteStep{
		Kind:          types.StepVaultDeposit,
		Target:        vault,
		Value:         new(big.Int),
		Data:          data,
		TokenBindings: []types.TokenBinding{assets.binding(underlying, offsetVaultDepositAssets)},
	}, nil
}

func vaultRedeemStep(vault, router gcommon.Address, shares amountArg) (types.RouteStep, error) {
	data, err := packCall(erc4626, "vault", "redeem", shares.packed(), router, router)
	if err != nil {
		return types.RouteStep{}, err
	}
	return types.RouteStep{
		Kind:          types.StepVaultRedeem,
		Target:        vault,
		Value:         new(big.Int),
		Data:          data,
		TokenBindings: []types.TokenBinding{shares.binding(vault, offsetVaultRedeemShares)},
	}, nil
}

func wrapperDepositStep(wrapper, want gcommon.Address, amount amountArg) (types.RouteStep, error) {
	data, err := packCall(beefyVault, "wrapper", "deposit", amount.packed())
	if err != nil {
		return types.RouteStep{}, err
	}
	return types.RouteStep{
		Kind:          types.StepWrapperDeposit,
		Target:        wrapper,
		Value:         new(big.Int),
		Data:          data,
		TokenBindings: []types.TokenBinding{amount.binding(want, offsetWrapperDeposit)},
	}, nil
}

func wrapperWithdrawStep(wrapper gcommon.Address, shares amountArg) (types.RouteStep, error) {
	data, err := packCall(beefyVault, "wrapper", "withdraw", shares.packed())
	if err != nil {
		return types.RouteStep{}, err
	}
	return types.RouteStep{
		Kind:          types.StepWrapperWithdraw,
		Target:        wrapper,
		Value:         new(big.Int),
		Data:          data,
		TokenBindings: []types.TokenBinding{shares.binding(wrapper, offsetWrapperWithdraw)},
	}, nil
}

// velodromeAddLiquidityStep always spends the router's whole balance of both legs. The mins are
// left at zero because the final output check covers them.
func velodromeAddLiquidityStep(router, zapRouter gcommon.Address, lp types.LpToken, deadline *big.Int) (types.RouteStep, error) {
	zero := new(big.Int)
	data, err := packCall(velodromeRouter, "velodrome", "addLiquidity",
		lp.Token0, lp.Token1, lp.Stable, zero, zero, zero, zero, zapRouter, deadline)
	if err != nil {
		return types.RouteStep{}, err
	}
	return types.RouteStep{
		Kind:   types.StepAddLiquidity,
		Target: router,
		Value:  new(big.Int),
		Data:   data,
		TokenBindings: []types.TokenBinding{
			types.RuntimeBalanceOf(lp.Token0, offsetVelodromeAmountA),
			types.RuntimeBalanceOf(lp.Token1, offsetVelodromeAmountB),
		},
	}, nil
}

func velodromeRemoveLiquidityStep(
	router, zapRouter, lpToken gcommon.Address,
	lp types.LpToken,
	liquidity amountArg,
	min0, min1, deadline *big.Int,
) (types.RouteStep, error) {
	data, err := packCall(velodromeRouter, "velodrome", "removeLiquidity",
		lp.Token0, lp.Token1, lp.Stable, liquidity.packed(), min0, min1, zapRouter, deadline)
	if err != nil {
		return types.RouteStep{}, err
	}
	return types.RouteStep{
		Kind:          types.StepRemoveLiquidity,
		Target:        router,
		Value:         new(big.Int),
		Data:          data,
		TokenBindings: []types.TokenBinding{liquidity.binding(lpToken, offsetVelodromeLiquidity)},
	}, nil
}

// curveAddLiquidityStep deposits the router balance of the coin at index single-sided.
func curveAddLiquidityStep(pool gcommon.Address, lp types.LpToken, index int, minMint *big.Int) (types.RouteStep, error) {
	amounts := [2]*big.Int{new(big.Int), new(big.Int)}
	data, err := packCall(curvePool, "curve", "add_liquidity", amounts, minMint)
	if err != nil {
		return types.RouteStep{}, err
	}
	binding := types.RuntimeBalanceOf(lp.Token0, offsetCurveAmount0)
	if index == 1 {
		binding = types.RuntimeBalanceOf(lp.Token1, offsetCurveAmount1)
	}
	return types.RouteStep{
		Kind:          types.StepAddLiquidity,
		Target:        pool,
		Value:         new(big.Int),
		Data:          data,
		TokenBindings: []types.TokenBinding{binding},
	}, nil
}

func curveRemoveOneCoinStep(pool gcommon.Address, index int, burn amountArg, minReceived *big.Int) (types.RouteStep, error) {
	data, err := packCall(curvePool, "curve", "remove_liquidity_one_coin", burn.packed(), big.NewInt(int64(index)), minReceived)
	if err != nil {
		return types.RouteStep{}, err
	}
	return types.RouteStep{
		Kind:          types.StepRemoveLiquidity,
		Target:        pool,
		Value:         new(big.Int),
		Data:          data,
		TokenBindings: []types.TokenBinding{burn.binding(pool, offsetCurveBurnAmount)},
	}, nil
}
