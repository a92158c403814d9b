package zap

import (
	"fmt"
	"math/big"

	gcommon "github.com/ethereum/go-ethereum/common"

	"github.com/vultisig/zap-planner/common"
	"github.com/vultisig/zap-planner/internal/chains"
	"github.com/vultisig/zap-planner/internal/types"
)

type Strategy string

const (
	// StrategyIdentity returns the input untouched.
	StrategyIdentity Strategy = "identity"
	// StrategyDirect only wraps, unwraps, redeems or deposits: no swap is needed.
	StrategyDirect Strategy = "direct"
	// StrategySwap swaps the held legs into a single token.
	StrategySwap        Strategy = "swap"
	StrategyVelodromeLP Strategy = "velodrome_lp"
	StrategyCurveLP     Strategy = "curve_lp"
)

// allocation is one slice of the held balance headed for one target token.
type allocation struct {
	from   types.Token
	to     types.Token
	leg    int
	target int
	split  bool
}

func (a allocation) needsSwap(wnative gcommon.Address) bool {
	return canonical(a.from.Address, wnative) != canonical(a.to.Address, wnative)
}

// strategy is the shape of a route, decided from classifications alone.
type strategy struct {
	kind     Strategy
	settings chains.Settings
	input    *types.TokenInfo
	output   *types.TokenInfo

	nativeIn bool
	redeem   *types.TokenInfo
	inPoint  *types.TokenInfo
	removeLP *types.LpToken
	legs     []types.Token

	targets   []types.Token
	addLP     *types.LpToken
	outPoint  *types.TokenInfo
	deposit   *types.TokenInfo
	nativeOut bool

	allocations []allocation
}

// canonical treats the native asset as its wrapped form.
func canonical(addr, wnative gcommon.Address) gcommon.Address {
	if addr == types.NativeAsset {
		return wnative
	}
	return addr
}

// referencedTokens lists the tokens besides input and output whose metadata the strategy needs.
func referencedTokens(settings chains.Settings, input, output *types.TokenInfo) []gcommon.Address {
	var out []gcommon.Address
	add := func(info *types.TokenInfo) {
		if lp, ok := info.Inner().Classification.(types.LpToken); ok {
			out = append(out, lp.Token0, lp.Token1)
		}
	}
	add(input)
	add(output)
	if input.Token.IsNative() || output.Token.IsNative() {
		out = append(out, settings.WrappedNative)
	}
	return out
}

type tokenLookup func(gcommon.Address) (types.Token, error)

func selectStrategy(settings chains.Settings, input, output *types.TokenInfo, lookup tokenLookup) (*strategy, error) {
	s := &strategy{
		settings: settings,
		input:    input,
		output:   output,
	}
	if input.Token.Address == output.Token.Address {
		s.kind = StrategyIdentity
		return s, nil
	}
	if err := s.selectSource(); err != nil {
		return nil, err
	}
	if err := s.selectTarget(); err != nil {
		return nil, err
	}

	wnative := settings.WrappedNative
	if canonical(s.inPoint.Token.Address, wnative) == canonical(s.outPoint.Token.Address, wnative) {
		s.kind = StrategyDirect
		s.removeLP, s.addLP = nil, nil
		s.legs, s.targets = nil, nil
		return s, nil
	}
	if err := s.unfoldLegs(lookup); err != nil {
		return nil, err
	}
	return s, s.allocate()
}

func (s *strategy) selectSource() error {
	switch s.input.Classification.(type) {
	case types.Native:
		s.nativeIn = true
		s.inPoint = s.input
	case types.VaultShare, types.YieldWrapperShare:
		if s.input.Underlying == nil {
			return fmt.Errorf("%s has no resolved underlying: %w", s.input.Token, common.ErrRouteUnsupported)
		}
		s.redeem = s.input
		s.inPoint = s.input.Underlying
	default:
		s.inPoint = s.input
	}
	switch s.inPoint.Classification.(type) {
	case types.VaultShare, types.YieldWrapperShare:
		return fmt.Errorf("nested wrapper %s: %w", s.inPoint.Token, common.ErrRouteUnsupported)
	case types.Native:
		if s.redeem != nil {
			return fmt.Errorf("wrapper over native %s: %w", s.input.Token, common.ErrRouteUnsupported)
		}
	}
	return nil
}

func (s *strategy) selectTarget() error {
	switch s.output.Classification.(type) {
	case types.Native:
		s.nativeOut = true
		s.outPoint = s.output
	case types.VaultShare, types.YieldWrapperShare:
		if s.output.Underlying == nil {
			return fmt.Errorf("%s has no resolved underlying: %w", s.output.Token, common.ErrRouteUnsupported)
		}
		s.deposit = s.output
		s.outPoint = s.output.Underlying
	default:
		s.outPoint = s.output
	}
	switch s.outPoint.Classification.(type) {
	case types.VaultShare, types.YieldWrapperShare:
		return fmt.Errorf("nested wrapper %s: %w", s.outPoint.Token, common.ErrRouteUnsupported)
	case types.Native:
		if s.deposit != nil {
			return fmt.Errorf("wrapper over native %s: %w", s.output.Token, common.ErrRouteUnsupported)
		}
	}
	return nil
}

// unfoldLegs expands both ends into the tokens held before and after swapping.
func (s *strategy) unfoldLegs(lookup tokenLookup) error {
	legs, lp, err := s.endpointTokens(s.inPoint, lookup)
	if err != nil {
		return err
	}
	s.legs, s.removeLP = legs, lp

	targets, lp, err := s.endpointTokens(s.outPoint, lookup)
	if err != nil {
		return err
	}
	s.targets, s.addLP = targets, lp

	switch {
	case s.addLP != nil && s.addLP.Kind == types.LpCurve:
		s.kind = StrategyCurveLP
	case s.addLP != nil:
		s.kind = StrategyVelodromeLP
	default:
		s.kind = StrategySwap
	}
	return nil
}

func (s *strategy) endpointTokens(point *types.TokenInfo, lookup tokenLookup) ([]types.Token, *types.LpToken, error) {
	wnative := s.settings.WrappedNative
	switch c := point.Classification.(type) {
	case types.Native:
		w, err := lookup(wnative)
		if err != nil {
			return nil, nil, err
		}
		if point == s.outPoint {
			return []types.Token{w}, nil, nil
		}
		return []types.Token{point.Token}, nil, nil
	case types.LpToken:
		switch c.Kind {
		case types.LpVelodrome:
			if s.settings.VelodromeRouter == (gcommon.Address{}) {
				return nil, nil, fmt.Errorf("no velodrome router on chain %d: %w", s.settings.ChainID, common.ErrRouteUnsupported)
			}
			t0, err := lookup(c.Token0)
			if err != nil {
				return nil, nil, err
			}
			t1, err := lookup(c.Token1)
			if err != nil {
				return nil, nil, err
			}
			return []types.Token{t0, t1}, &c, nil
		case types.LpCurve:
			index, ok := c.CurveInputIndex()
			if !ok {
				return nil, nil, fmt.Errorf("curve pool %s has no quotable coin: %w", point.Token, common.ErrRouteUnsupported)
			}
			coin := c.Token0
			if index == 1 {
				coin = c.Token1
			}
			t, err := lookup(coin)
			if err != nil {
				return nil, nil, err
			}
			return []types.Token{t}, &c, nil
		}
		return nil, nil, fmt.Errorf("lp kind %s: %w", c.Kind, common.ErrRouteUnsupported)
	}
	return []types.Token{point.Token}, nil, nil
}

// allocate pairs held legs with targets. One leg feeding two targets is split in half.
func (s *strategy) allocate() error {
	switch {
	case len(s.legs) == 1 && len(s.targets) == 1:
		s.allocations = []allocation{{from: s.legs[0], to: s.targets[0]}}
	case len(s.legs) == 1 && len(s.targets) == 2:
		s.allocations = []allocation{
			{from: s.legs[0], to: s.targets[0], target: 0, split: true},
			{from: s.legs[0], to: s.targets[1], target: 1, split: true},
		}
	case len(s.legs) == 2 && len(s.targets) == 1:
		s.allocations = []allocation{
			{from: s.legs[0], to: s.targets[0], leg: 0},
			{from: s.legs[1], to: s.targets[0], leg: 1},
		}
	default:
		return fmt.Errorf("%s to %s needs a multi-leg rebalance: %w", s.input.Token, s.output.Token, common.ErrRouteUnsupported)
	}
	return nil
}

// quoteRequest builds the aggregator request for an allocation. The sell amount is the
// guaranteed held amount so the swap never spends more than the router owns.
func (s *strategy) quoteRequest(a allocation, amount *big.Int) types.QuoteRequest {
	return types.QuoteRequest{
		ChainID: s.settings.ChainID,
		From:    a.from,
		To:      a.to,
		Amount:  new(big.Int).Set(amount),
		Sender:  s.settings.ZapRouter,
	}
}

func (s *strategy) swapNeeded() bool {
	for _, a := range s.allocations {
		if a.needsSwap(s.settings.WrappedNative) {
			return true
		}
	}
	return false
}
