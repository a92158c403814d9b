package zap

import (
	"context"
	"fmt"
	"math/big"
	"time"

	gcommon "github.com/ethereum/go-ethereum/common"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vultisig/zap-planner/common"
	"github.com/vultisig/zap-planner/internal/chains"
	"github.com/vultisig/zap-planner/internal/types"
)

// TokenResolver classifies tokens and reads Curve previews. Implementations cache for the
// lifetime of one planning request.
type TokenResolver interface {
	Resolve(ctx context.Context, chainID uint64, address gcommon.Address) (*types.TokenInfo, error)
	PreviewCurveDeposit(ctx context.Context, chainID uint64, pool gcommon.Address, amounts [2]*big.Int) (*big.Int, error)
	PreviewCurveWithdraw(ctx context.Context, chainID uint64, pool gcommon.Address, lpAmount *big.Int, index int) (*big.Int, error)
}

// SessionFactory opens a fresh resolver cache per request.
type SessionFactory func() TokenResolver

type SwapQuoter interface {
	Quote(ctx context.Context, req types.QuoteRequest) (*types.SwapQuote, error)
}

type Planner struct {
	registry   chains.Registry
	newSession SessionFactory
	quoter     SwapQuoter
	cfg        Config
	logger     *logrus.Logger
	now        func() time.Time
}

func NewPlanner(registry chains.Registry, newSession SessionFactory, quoter SwapQuoter, logger *logrus.Logger, rawConfig map[string]interface{}) (*Planner, error) {
	var cfg Config
	if err := mapstructure.Decode(rawConfig, &cfg); err != nil {
		return nil, fmt.Errorf("fail to decode planner config: %w", err)
	}
	if newSession == nil || quoter == nil {
		return nil, fmt.Errorf("resolver and quoter are required")
	}
	return &Planner{
		registry:   registry,
		newSession: newSession,
		quoter:     quoter,
		cfg:        cfg.withDefaults(),
		logger:     logger,
		now:        time.Now,
	}, nil
}

func (p *Planner) Plan(ctx context.Context, req Request) (*Plan, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	settings, err := p.registry.Get(req.ChainID)
	if err != nil {
		return nil, err
	}
	logger := p.logger.WithFields(logrus.Fields{
		"chain_id":     req.ChainID,
		"input_token":  req.InputToken.Hex(),
		"output_token": req.OutputToken.Hex(),
	})

	session := p.newSession()
	ends, err := p.resolveAll(ctx, session, req.ChainID, []gcommon.Address{req.InputToken, req.OutputToken})
	if err != nil {
		return nil, err
	}
	input, output := ends[req.InputToken], ends[req.OutputToken]

	refs, err := p.resolveAll(ctx, session, req.ChainID, referencedTokens(settings, input, output))
	if err != nil {
		return nil, err
	}
	lookup := func(addr gcommon.Address) (types.Token, error) {
		if info, ok := refs[addr]; ok {
			return info.Token, nil
		}
		return types.Token{}, fmt.Errorf("token %s was not resolved", addr.Hex())
	}

	s, err := selectStrategy(settings, input, output, lookup)
	if err != nil {
		return nil, err
	}
	logger = logger.WithField("strategy", s.kind)

	params := buildParams{
		amount:              req.InputAmount,
		deadline:            big.NewInt(p.now().Add(time.Duration(p.cfg.DeadlineMinutes) * time.Minute).Unix()),
		lpRemovalHaircutBps: p.cfg.LpRemovalHaircutBps,
		curveHaircutBps:     p.cfg.CurveHaircutBps,
	}
	deps, err := p.fetchDependencies(ctx, session, s, params)
	if err != nil {
		return nil, err
	}
	route, err := buildRoute(s, params, deps)
	if err != nil {
		return nil, err
	}

	final := types.OutputRequirement{Token: req.OutputToken, MinOutputAmount: route.amountOut.Min}
	cfg := assembleConfig(req, final, route.touched)
	calldata, err := EncodeExecuteOrder(cfg, route.steps)
	if err != nil {
		return nil, err
	}
	value := new(big.Int)
	if input.Token.IsNative() {
		value.Set(req.InputAmount)
	}

	logger.WithFields(logrus.Fields{
		"steps":    len(route.steps),
		"expected": route.amountOut.Expected.String(),
		"min":      route.amountOut.Min.String(),
	}).Debug("zap route planned")

	return &Plan{
		Strategy:  s.kind,
		Router:    settings.ZapRouter,
		Value:     value,
		Calldata:  calldata,
		AmountOut: route.amountOut,
		Config:    cfg,
		Route:     route.steps,
	}, nil
}

func validateRequest(req Request) error {
	if req.InputAmount == nil || req.InputAmount.Sign() <= 0 {
		return fmt.Errorf("input amount must be positive: %w", ErrInvalidRequest)
	}
	if req.User == (gcommon.Address{}) {
		return fmt.Errorf("user is required: %w", ErrInvalidRequest)
	}
	if req.InputToken == (gcommon.Address{}) || req.OutputToken == (gcommon.Address{}) {
		return fmt.Errorf("input and output tokens are required: %w", ErrInvalidRequest)
	}
	return nil
}

// resolveAll classifies addresses concurrently and returns once all of them are known.
func (p *Planner) resolveAll(ctx context.Context, session TokenResolver, chainID uint64, addrs []gcommon.Address) (map[gcommon.Address]*types.TokenInfo, error) {
	infos := make([]*types.TokenInfo, len(addrs))
	g, gctx := errgroup.WithContext(ctx)
	for i, addr := range addrs {
		i, addr := i, addr
		g.Go(func() error {
			info, err := session.Resolve(gctx, chainID, addr)
			if err != nil {
				return fmt.Errorf("fail to resolve %s: %w", addr.Hex(), err)
			}
			infos[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[gcommon.Address]*types.TokenInfo, len(addrs))
	for i, addr := range addrs {
		out[addr] = infos[i]
	}
	return out, nil
}

// fetchDependencies gathers every preview and quote the route needs. Quotes for independent
// legs are requested concurrently.
func (p *Planner) fetchDependencies(ctx context.Context, session TokenResolver, s *strategy, params buildParams) (dependencies, error) {
	var deps dependencies
	if s.kind == StrategyIdentity || s.kind == StrategyDirect {
		return deps, nil
	}
	chainID := s.settings.ChainID

	point, err := s.pointBounds(params.amount)
	if err != nil {
		return deps, err
	}
	if s.removeLP != nil && s.removeLP.Kind == types.LpCurve {
		index, _ := s.removeLP.CurveInputIndex()
		deps.curveWithdraw, err = session.PreviewCurveWithdraw(ctx, chainID, s.inPoint.Token.Address, point.Min, index)
		if err != nil {
			return deps, err
		}
	}
	legs, err := s.legBounds(point, deps.curveWithdraw, params.lpRemovalHaircutBps)
	if err != nil {
		return deps, err
	}

	amounts := s.allocationAmounts(legs)
	requests := make(map[int]types.QuoteRequest, len(s.allocations))
	for i, a := range s.allocations {
		if !a.needsSwap(s.settings.WrappedNative) {
			continue
		}
		if amounts[i].Min.Sign() <= 0 {
			return deps, fmt.Errorf("nothing to swap from %s: %w", a.from, common.ErrNoSwapRoute)
		}
		requests[i] = s.quoteRequest(a, amounts[i].Min)
	}

	quotes := make([]*types.SwapQuote, len(s.allocations))
	g, gctx := errgroup.WithContext(ctx)
	for i, req := range requests {
		i, req := i, req
		g.Go(func() error {
			quote, err := p.quote(gctx, req)
			if err != nil {
				return err
			}
			quotes[i] = quote
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return deps, err
	}
	deps.quotes = quotes

	if s.addLP != nil && s.addLP.Kind == types.LpCurve {
		targets, err := s.targetAmounts(amounts, deps.quotes)
		if err != nil {
			return deps, err
		}
		deps.curveDeposit, err = session.PreviewCurveDeposit(ctx, chainID, s.outPoint.Token.Address, s.curveDepositAmounts(targets))
		if err != nil {
			return deps, err
		}
	}
	return deps, nil
}

// quote asks the aggregator once more when the answer was priced for different parameters.
func (p *Planner) quote(ctx context.Context, req types.QuoteRequest) (*types.SwapQuote, error) {
	want := req.Key()
	for attempt := 0; attempt < 2; attempt++ {
		quote, err := p.quoter.Quote(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("fail to quote %s to %s: %w", req.From, req.To, err)
		}
		if quote.Request == want {
			if !quote.AmountOut.Valid() {
				return nil, fmt.Errorf("quote %s to %s has invalid bounds %s", req.From, req.To, quote.AmountOut)
			}
			if quote.AllowanceProxy != quote.Call.Target {
				return nil, fmt.Errorf("quote %s to %s spends through %s, not %s", req.From, req.To, quote.AllowanceProxy.Hex(), quote.Call.Target.Hex())
			}
			return quote, nil
		}
		p.logger.WithFields(logrus.Fields{
			"chain_id": req.ChainID,
			"from":     req.From.Address.Hex(),
			"to":       req.To.Address.Hex(),
			"attempt":  attempt + 1,
		}).Warn("discarding quote priced for a different request")
	}
	return nil, fmt.Errorf("quote %s to %s: %w", req.From, req.To, common.ErrStaleQuote)
}
