package zap

import (
	"fmt"
	"math/big"

	gcommon "github.com/ethereum/go-ethereum/common"

	"github.com/vultisig/zap-planner/internal/estimator"
	"github.com/vultisig/zap-planner/internal/types"
)

type buildParams struct {
	amount              *big.Int
	deadline            *big.Int
	lpRemovalHaircutBps uint32
	curveHaircutBps     uint32
}

// dependencies are the on-chain previews and quotes a route needs. All of them are resolved
// before buildRoute runs.
type dependencies struct {
	curveWithdraw *big.Int
	// quotes is indexed like strategy.allocations; nil where no swap is needed.
	quotes       []*types.SwapQuote
	curveDeposit *big.Int
}

type builtRoute struct {
	steps     types.ZapRoute
	amountOut types.AmountBounds
	// touched lists every intermediate token the router may hold, in step order.
	touched []gcommon.Address
}

// rateOf returns the 1e18 scaled conversion rate of a wrapper share and the bound on its
// rounding.
func rateOf(info *types.TokenInfo) (*big.Int, *big.Int, error) {
	switch c := info.Classification.(type) {
	case types.VaultShare:
		return c.ExchangeRate, c.RateStep, nil
	case types.YieldWrapperShare:
		return c.PricePerShare, c.RateStep, nil
	}
	return nil, nil, fmt.Errorf("%s is not a wrapper share", info.Token)
}

// pointBounds is what the router holds once the input share, if any, has been redeemed.
func (s *strategy) pointBounds(amount *big.Int) (types.AmountBounds, error) {
	bounds := estimator.PassThrough(amount)
	if s.redeem == nil {
		return bounds, nil
	}
	rate, _, err := rateOf(s.redeem)
	if err != nil {
		return types.AmountBounds{}, err
	}
	return estimator.SharesToAssets(bounds, rate)
}

// legBounds takes the held point apart into the legs that feed the swaps.
func (s *strategy) legBounds(point types.AmountBounds, curveWithdraw *big.Int, haircutBps uint32) ([]types.AmountBounds, error) {
	if s.removeLP == nil {
		return []types.AmountBounds{point}, nil
	}
	if s.removeLP.Kind == types.LpCurve {
		if curveWithdraw == nil {
			return nil, fmt.Errorf("missing curve withdraw preview for %s", s.inPoint.Token)
		}
		return []types.AmountBounds{estimator.WithHaircut(curveWithdraw, haircutBps)}, nil
	}
	leg0, leg1, err := estimator.RemoveLiquidity(point, *s.removeLP, haircutBps)
	if err != nil {
		return nil, err
	}
	return []types.AmountBounds{leg0, leg1}, nil
}

// allocationAmounts is the share of the held legs each allocation works with.
func (s *strategy) allocationAmounts(legs []types.AmountBounds) []types.AmountBounds {
	out := make([]types.AmountBounds, len(s.allocations))
	for i, a := range s.allocations {
		leg := legs[a.leg]
		if !a.split {
			out[i] = leg
			continue
		}
		expected, _ := estimator.SplitHalf(leg.Expected)
		minimum, _ := estimator.SplitHalf(leg.Min)
		out[i] = types.AmountBounds{Expected: expected, Min: minimum}
	}
	return out
}

// targetAmounts folds the allocations into the bounds of each target token.
func (s *strategy) targetAmounts(amounts []types.AmountBounds, quotes []*types.SwapQuote) ([]types.AmountBounds, error) {
	out := make([]types.AmountBounds, len(s.targets))
	for i, a := range s.allocations {
		got := amounts[i]
		if a.needsSwap(s.settings.WrappedNative) {
			if i >= len(quotes) || quotes[i] == nil {
				return nil, fmt.Errorf("missing quote for %s to %s", a.from, a.to)
			}
			got = estimator.FromQuote(quotes[i])
		}
		if out[a.target].Expected == nil {
			out[a.target] = got
			continue
		}
		out[a.target] = estimator.Sum(out[a.target], got)
	}
	return out, nil
}

type routeWriter struct {
	steps   types.ZapRoute
	touched []gcommon.Address
}

// consume binds an amount statically only for the first step, where it is the caller's input.
// Later steps spend whatever an earlier step left in the router.
func (w *routeWriter) consume(amount *big.Int) amountArg {
	if len(w.steps) == 0 {
		return staticArg(amount)
	}
	return runtimeArg()
}

func (w *routeWriter) add(step types.RouteStep, err error) error {
	if err != nil {
		return err
	}
	w.steps = append(w.steps, step)
	return nil
}

func (w *routeWriter) touch(tokens ...gcommon.Address) {
	w.touched = append(w.touched, tokens...)
}

func buildRoute(s *strategy, p buildParams, deps dependencies) (*builtRoute, error) {
	if s.kind == StrategyIdentity {
		return &builtRoute{amountOut: estimator.PassThrough(p.amount)}, nil
	}

	w := &routeWriter{}
	wnative := s.settings.WrappedNative
	if s.nativeIn || s.nativeOut {
		w.touch(wnative)
	}

	point, err := s.pointBounds(p.amount)
	if err != nil {
		return nil, err
	}
	if s.redeem != nil {
		if err := w.add(redeemStep(s, w.consume(p.amount))); err != nil {
			return nil, err
		}
		w.touch(s.inPoint.Token.Address)
	}

	out := point
	if s.kind == StrategyDirect {
		if s.nativeIn {
			if err := w.add(wrapStep(wnative, p.amount)); err != nil {
				return nil, err
			}
		}
	} else {
		out, err = s.writeSwaps(w, p, deps, point)
		if err != nil {
			return nil, err
		}
	}

	if s.deposit != nil {
		rate, step, err := rateOf(s.deposit)
		if err != nil {
			return nil, err
		}
		if err := w.add(depositStep(s, w.consume(out.Min))); err != nil {
			return nil, err
		}
		if out, err = estimator.AssetsToShares(out, rate, step); err != nil {
			return nil, err
		}
	}
	if s.nativeOut {
		if err := w.add(unwrapStep(wnative, w.consume(out.Min))); err != nil {
			return nil, err
		}
	}

	if err := estimator.Check(out); err != nil {
		return nil, fmt.Errorf("%s to %s: %w", s.input.Token, s.output.Token, err)
	}
	return &builtRoute{steps: w.steps, amountOut: out, touched: w.touched}, nil
}

func (s *strategy) writeSwaps(w *routeWriter, p buildParams, deps dependencies, point types.AmountBounds) (types.AmountBounds, error) {
	wnative := s.settings.WrappedNative
	legs, err := s.legBounds(point, deps.curveWithdraw, p.lpRemovalHaircutBps)
	if err != nil {
		return types.AmountBounds{}, err
	}
	if s.removeLP != nil {
		if err := w.add(removeLiquidityStep(s, w.consume(point.Min), legs, p.deadline)); err != nil {
			return types.AmountBounds{}, err
		}
		for _, leg := range s.legs {
			w.touch(leg.Address)
		}
	}

	amounts := s.allocationAmounts(legs)
	for i, a := range s.allocations {
		switch {
		case a.needsSwap(wnative):
			if i >= len(deps.quotes) || deps.quotes[i] == nil {
				return types.AmountBounds{}, fmt.Errorf("missing quote for %s to %s", a.from, a.to)
			}
			w.steps = append(w.steps, swapStep(a.from.Address, deps.quotes[i]))
		case a.from.IsNative():
			if err := w.add(wrapStep(wnative, amounts[i].Min)); err != nil {
				return types.AmountBounds{}, err
			}
		}
		w.touch(a.to.Address)
	}

	targets, err := s.targetAmounts(amounts, deps.quotes)
	if err != nil {
		return types.AmountBounds{}, err
	}
	if s.addLP == nil {
		return targets[0], nil
	}

	var out types.AmountBounds
	switch s.addLP.Kind {
	case types.LpCurve:
		if deps.curveDeposit == nil {
			return types.AmountBounds{}, fmt.Errorf("missing curve deposit preview for %s", s.outPoint.Token)
		}
		out = estimator.WithHaircut(deps.curveDeposit, p.curveHaircutBps)
		index, _ := s.addLP.CurveInputIndex()
		err = w.add(curveAddLiquidityStep(s.outPoint.Token.Address, *s.addLP, index, out.Min))
	default:
		out, err = estimator.LiquidityFromLegs(targets[0], targets[1], *s.addLP)
		if err != nil {
			return types.AmountBounds{}, err
		}
		err = w.add(velodromeAddLiquidityStep(s.settings.VelodromeRouter, s.settings.ZapRouter, *s.addLP, p.deadline))
	}
	if err != nil {
		return types.AmountBounds{}, err
	}
	w.touch(s.outPoint.Token.Address)
	return out, nil
}

// curveDepositAmounts are the amounts previewed for a single-sided Curve deposit.
func (s *strategy) curveDepositAmounts(targets []types.AmountBounds) [2]*big.Int {
	amounts := [2]*big.Int{new(big.Int), new(big.Int)}
	index, _ := s.addLP.CurveInputIndex()
	amounts[index] = new(big.Int).Set(targets[0].Expected)
	return amounts
}

func redeemStep(s *strategy, shares amountArg) (types.RouteStep, error) {
	if _, ok := s.redeem.Classification.(types.YieldWrapperShare); ok {
		return wrapperWithdrawStep(s.redeem.Token.Address, shares)
	}
	return vaultRedeemStep(s.redeem.Token.Address, s.settings.ZapRouter, shares)
}

func depositStep(s *strategy, assets amountArg) (types.RouteStep, error) {
	underlying := s.outPoint.Token.Address
	if _, ok := s.deposit.Classification.(types.YieldWrapperShare); ok {
		return wrapperDepositStep(s.deposit.Token.Address, underlying, assets)
	}
	return vaultDepositStep(s.deposit.Token.Address, underlying, s.settings.ZapRouter, assets)
}

func removeLiquidityStep(s *strategy, liquidity amountArg, legs []types.AmountBounds, deadline *big.Int) (types.RouteStep, error) {
	pool := s.inPoint.Token.Address
	if s.removeLP.Kind == types.LpCurve {
		index, _ := s.removeLP.CurveInputIndex()
		return curveRemoveOneCoinStep(pool, index, liquidity, legs[0].Min)
	}
	return velodromeRemoveLiquidityStep(s.settings.VelodromeRouter, s.settings.ZapRouter, pool, *s.removeLP, liquidity, legs[0].Min, legs[1].Min, deadline)
}
