// Package estimator derives {expected, min} output bounds for each zap strategy. All functions
// are pure and keep Min <= Expected.
package estimator

import (
	"errors"
	"math/big"

	"github.com/vultisig/zap-planner/internal/types"
)

const BasisPoints = 10_000

var (
	// RateScale is the fixed point scale of vault exchange rates and prices per share.
	RateScale = big.NewInt(1_000_000_000_000_000_000)

	ErrZeroRate    = errors.New("exchange rate is zero")
	ErrZeroReserve = errors.New("pool reserve is zero")
	ErrZeroSupply  = errors.New("lp total supply is zero")
	ErrBadBounds   = errors.New("bounds are invalid")
)

func PassThrough(amount *big.Int) types.AmountBounds {
	return types.ExactBounds(amount)
}

// FromQuote inherits the aggregator bounds as they are. The aggregator min is never loosened.
func FromQuote(quote *types.SwapQuote) types.AmountBounds {
	return types.AmountBounds{
		Expected: new(big.Int).Set(quote.AmountOut.Expected),
		Min:      new(big.Int).Set(quote.AmountOut.Min),
	}
}

// AssetsToShares converts underlying bounds into vault shares: shares = assets * 1e18 / rate.
// rate is a rounded down reading and the true rate lies below rate + step, so the min divides by
// the upper end and never exceeds what the vault mints. A nil step means rate is exact.
func AssetsToShares(assets types.AmountBounds, rate, step *big.Int) (types.AmountBounds, error) {
	if rate == nil || rate.Sign() <= 0 {
		return types.AmountBounds{}, ErrZeroRate
	}
	ceilRate := new(big.Int).Set(rate)
	if step != nil && step.Sign() > 0 {
		ceilRate.Add(ceilRate, step)
	}
	return types.AmountBounds{
		Expected: mulDiv(assets.Expected, RateScale, rate),
		Min:      mulDiv(assets.Min, RateScale, ceilRate),
	}, nil
}

// SharesToAssets converts vault share bounds into underlying: assets = shares * rate / 1e18.
func SharesToAssets(shares types.AmountBounds, rate *big.Int) (types.AmountBounds, error) {
	if rate == nil || rate.Sign() <= 0 {
		return types.AmountBounds{}, ErrZeroRate
	}
	return types.AmountBounds{
		Expected: mulDiv(shares.Expected, rate, RateScale),
		Min:      mulDiv(shares.Min, rate, RateScale),
	}, nil
}

// SplitHalf floor-divides amount into two equal legs. Their sum is amount or amount - 1.
func SplitHalf(amount *big.Int) (*big.Int, *big.Int) {
	half := new(big.Int).Rsh(amount, 1)
	return half, new(big.Int).Set(half)
}

// LiquidityFromLegs estimates the LP tokens minted by depositing both legs into a constant
// product pool. Each leg implies floor(leg * totalSupply / reserve) and the pool mints up to the
// more constrained side; the rule is applied to the expected and the min bound independently.
func LiquidityFromLegs(leg0, leg1 types.AmountBounds, lp types.LpToken) (types.AmountBounds, error) {
	if lp.TotalSupply == nil || lp.TotalSupply.Sign() <= 0 {
		return types.AmountBounds{}, ErrZeroSupply
	}
	if lp.Reserve0 == nil || lp.Reserve0.Sign() <= 0 || lp.Reserve1 == nil || lp.Reserve1.Sign() <= 0 {
		return types.AmountBounds{}, ErrZeroReserve
	}
	liquidity := func(amount0, amount1 *big.Int) *big.Int {
		l0 := mulDiv(amount0, lp.TotalSupply, lp.Reserve0)
		l1 := mulDiv(amount1, lp.TotalSupply, lp.Reserve1)
		if l0.Cmp(l1) < 0 {
			return l0
		}
		return l1
	}
	return types.AmountBounds{
		Expected: liquidity(leg0.Expected, leg1.Expected),
		Min:      liquidity(leg0.Min, leg1.Min),
	}, nil
}

// RemoveLiquidity estimates the two legs returned when burning lpAmount: reserve * lp / supply.
// The pool state may move before execution, so each leg's min is haircut by haircutBps.
func RemoveLiquidity(lpAmount types.AmountBounds, lp types.LpToken, haircutBps uint32) (types.AmountBounds, types.AmountBounds, error) {
	if lp.TotalSupply == nil || lp.TotalSupply.Sign() <= 0 {
		return types.AmountBounds{}, types.AmountBounds{}, ErrZeroSupply
	}
	leg := func(reserve *big.Int) types.AmountBounds {
		expected := mulDiv(lpAmount.Expected, reserve, lp.TotalSupply)
		worst := mulDiv(lpAmount.Min, reserve, lp.TotalSupply)
		return types.AmountBounds{
			Expected: expected,
			Min:      haircut(worst, haircutBps),
		}
	}
	return leg(lp.Reserve0), leg(lp.Reserve1), nil
}

// WithHaircut treats expected as an on-chain preview and derives min = floor(expected *
// (10000 - bps) / 10000).
func WithHaircut(expected *big.Int, haircutBps uint32) types.AmountBounds {
	return types.AmountBounds{
		Expected: new(big.Int).Set(expected),
		Min:      haircut(expected, haircutBps),
	}
}

func Sum(a, b types.AmountBounds) types.AmountBounds {
	return types.AmountBounds{
		Expected: new(big.Int).Add(a.Expected, b.Expected),
		Min:      new(big.Int).Add(a.Min, b.Min),
	}
}

// Check rejects bounds that would break the Min <= Expected ordering.
func Check(b types.AmountBounds) error {
	if !b.Valid() {
		return ErrBadBounds
	}
	return nil
}

func haircut(amount *big.Int, bps uint32) *big.Int {
	if bps >= BasisPoints {
		return new(big.Int)
	}
	return mulDiv(amount, big.NewInt(int64(BasisPoints-bps)), big.NewInt(BasisPoints))
}

func mulDiv(x, y, denominator *big.Int) *big.Int {
	out := new(big.Int).Mul(x, y)
	return out.Quo(out, denominator)
}
