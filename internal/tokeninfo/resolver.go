package tokeninfo

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	gcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/zap-planner/common"
	"github.com/vultisig/zap-planner/internal/chains"
	"github.com/vultisig/zap-planner/internal/types"
)

const defaultProbeTimeout = 3 * time.Second

// errProbeMismatch marks a read that reverted, timed out or returned nothing. The token simply
// does not implement the probed interface.
var errProbeMismatch = errors.New("probe does not match")

// ChainReader is satisfied by *ethclient.Client.
type ChainReader interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type Resolver struct {
	readers      map[uint64]ChainReader
	registry     chains.Registry
	probeTimeout time.Duration
	logger       *logrus.Logger
}

func NewResolver(readers map[uint64]ChainReader, registry chains.Registry, probeTimeout time.Duration, logger *logrus.Logger) (*Resolver, error) {
	if len(readers) == 0 {
		return nil, fmt.Errorf("at least one chain reader is required")
	}
	if probeTimeout <= 0 {
		probeTimeout = defaultProbeTimeout
	}
	return &Resolver{
		readers:      readers,
		registry:     registry,
		probeTimeout: probeTimeout,
		logger:       logger,
	}, nil
}

// Session memoises classifications for the lifetime of one planning request.
type Session struct {
	resolver *Resolver
	mu       sync.Mutex
	cache    map[types.TokenKey]*types.TokenInfo
}

func (r *Resolver) NewSession() *Session {
	return &Session{
		resolver: r,
		cache:    make(map[types.TokenKey]*types.TokenInfo),
	}
}

// Resolve classifies a token and, for vault and yield-wrapper shares, its underlying token.
func (s *Session) Resolve(ctx context.Context, chainID uint64, address gcommon.Address) (*types.TokenInfo, error) {
	info, err := s.classify(ctx, chainID, address)
	if err != nil {
		return nil, err
	}
	if !info.IsWrapper() || info.Underlying != nil {
		return info, nil
	}

	var underlying gcommon.Address
	switch c := info.Classification.(type) {
	case types.VaultShare:
		underlying = c.Underlying
	case types.YieldWrapperShare:
		underlying = c.Underlying
	}
	inner, err := s.classify(ctx, chainID, underlying)
	if err != nil {
		return nil, fmt.Errorf("fail to classify underlying of %s: %w", address.Hex(), err)
	}

	resolved := *info
	resolved.Underlying = inner
	s.store(&resolved)
	return &resolved, nil
}

func (s *Session) classify(ctx context.Context, chainID uint64, address gcommon.Address) (*types.TokenInfo, error) {
	key := types.TokenKey{ChainID: chainID, Address: address}
	s.mu.Lock()
	cached, ok := s.cache[key]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	info, err := s.resolver.classify(ctx, chainID, address)
	if err != nil {
		return nil, err
	}
	s.store(info)
	return info, nil
}

func (s *Session) store(info *types.TokenInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[info.Token.Key()] = info
}

func (r *Resolver) classify(ctx context.Context, chainID uint64, address gcommon.Address) (*types.TokenInfo, error) {
	logger := r.logger.WithFields(logrus.Fields{
		"chain_id": chainID,
		"token":    address.Hex(),
	})

	if address == types.NativeAsset {
		return &types.TokenInfo{
			Token:          types.Token{ChainID: chainID, Address: address, Decimals: types.NativeDecimals},
			Classification: types.Native{},
		}, nil
	}

	reader, ok := r.readers[chainID]
	if !ok {
		return nil, fmt.Errorf("chain %d: %w", chainID, common.ErrChainNotConfigured)
	}
	p := prober{reader: reader, timeout: r.probeTimeout, token: address}

	out, err := p.call(ctx, erc20, "decimals")
	if err != nil {
		if errors.Is(err, errProbeMismatch) {
			logger.Debug("token does not expose decimals")
			return nil, fmt.Errorf("%s: %w", address.Hex(), common.ErrUnclassifiableToken)
		}
		return nil, err
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return nil, fmt.Errorf("%s: %w", address.Hex(), common.ErrUnclassifiableToken)
	}
	info := &types.TokenInfo{
		Token: types.Token{ChainID: chainID, Address: address, Decimals: decimals},
	}

	probes := []struct {
		name  string
		probe func(context.Context, prober, uint8) (types.Classification, error)
	}{
		{"vault_share", probeVaultShare},
		{"yield_wrapper", probeYieldWrapper},
		{"velodrome_lp", probeVelodrome},
		{"curve_lp", r.probeCurve(chainID)},
	}
	for _, candidate := range probes {
		classification, err := candidate.probe(ctx, p, decimals)
		if err == nil {
			logger.WithField("kind", classification.Shape()).Debug("token classified")
			info.Classification = classification
			return info, nil
		}
		if !errors.Is(err, errProbeMismatch) {
			return nil, err
		}
		logger.WithField("probe", candidate.name).Debug("probe does not match")
	}

	info.Classification = types.Plain{}
	return info, nil
}

func probeVaultShare(ctx context.Context, p prober, decimals uint8) (types.Classification, error) {
	asset, err := p.address(ctx, erc4626, "asset")
	if err != nil {
		return nil, err
	}
	oneShare := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	assets, err := p.uint256(ctx, erc4626, "convertToAssets", oneShare)
	if err != nil {
		return nil, err
	}
	scale := big.NewInt(1_000_000_000_000_000_000)
	rate := new(big.Int).Mul(assets, scale)
	rate.Quo(rate, oneShare)
	if rate.Sign() == 0 {
		return nil, errProbeMismatch
	}
	// convertToAssets floors to whole underlying units, so the true rate may sit up to one unit
	// per share above the one read, plus one for the scaling division.
	step := new(big.Int).Quo(scale, oneShare)
	step.Add(step, big.NewInt(1))
	return types.VaultShare{Underlying: asset, ExchangeRate: rate, RateStep: step}, nil
}

func probeYieldWrapper(ctx context.Context, p prober, _ uint8) (types.Classification, error) {
	want, err := p.address(ctx, beefy, "want")
	if err != nil {
		return nil, err
	}
	pps, err := p.uint256(ctx, beefy, "getPricePerFullShare")
	if err != nil {
		return nil, err
	}
	if pps.Sign() == 0 {
		return nil, errProbeMismatch
	}
	return types.YieldWrapperShare{Underlying: want, PricePerShare: pps, RateStep: big.NewInt(1)}, nil
}

func probeVelodrome(ctx context.Context, p prober, _ uint8) (types.Classification, error) {
	token0, err := p.address(ctx, velodrome, "token0")
	if err != nil {
		return nil, err
	}
	token1, err := p.address(ctx, velodrome, "token1")
	if err != nil {
		return nil, err
	}
	reserves, err := p.call(ctx, velodrome, "getReserves")
	if err != nil {
		return nil, err
	}
	reserve0, ok0 := reserves[0].(*big.Int)
	reserve1, ok1 := reserves[1].(*big.Int)
	if !ok0 || !ok1 {
		return nil, errProbeMismatch
	}
	totalSupply, err := p.uint256(ctx, erc20, "totalSupply")
	if err != nil {
		return nil, err
	}
	out, err := p.call(ctx, velodrome, "stable")
	if err != nil {
		return nil, err
	}
	stable, _ := out[0].(bool)

	return types.LpToken{
		Kind:        types.LpVelodrome,
		Token0:      token0,
		Token1:      token1,
		Reserve0:    reserve0,
		Reserve1:    reserve1,
		TotalSupply: totalSupply,
		Stable:      stable,
	}, nil
}

func (r *Resolver) probeCurve(chainID uint64) func(context.Context, prober, uint8) (types.Classification, error) {
	return func(ctx context.Context, p prober, _ uint8) (types.Classification, error) {
		var coins [2]gcommon.Address
		var balances [2]*big.Int
		for i := range coins {
			coin, err := p.address(ctx, curve, "coins", big.NewInt(int64(i)))
			if err != nil {
				return nil, err
			}
			balance, err := p.uint256(ctx, curve, "balances", big.NewInt(int64(i)))
			if err != nil {
				return nil, err
			}
			coins[i], balances[i] = coin, balance
		}
		totalSupply, err := p.uint256(ctx, erc20, "totalSupply")
		if err != nil {
			return nil, err
		}

		return types.LpToken{
			Kind:                types.LpCurve,
			Token0:              coins[0],
			Token1:              coins[1],
			Reserve0:            balances[0],
			Reserve1:            balances[1],
			TotalSupply:         totalSupply,
			Stable:              true,
			BestCurveInputToken: r.bestCurveInput(chainID, coins),
		}, nil
	}
}

// bestCurveInput picks the first configured quote asset that is one of the pool coins.
func (r *Resolver) bestCurveInput(chainID uint64, coins [2]gcommon.Address) *gcommon.Address {
	settings, err := r.registry.Get(chainID)
	if err != nil {
		return nil
	}
	for _, asset := range settings.QuoteAssets {
		for _, coin := range coins {
			if coin == asset {
				best := coin
				return &best
			}
		}
	}
	return nil
}

// PreviewCurveDeposit reads the LP amount minted for the given coin amounts.
func (s *Session) PreviewCurveDeposit(ctx context.Context, chainID uint64, pool gcommon.Address, amounts [2]*big.Int) (*big.Int, error) {
	p, err := s.resolver.prober(chainID, pool)
	if err != nil {
		return nil, err
	}
	minted, err := p.uint256(ctx, curve, "calc_token_amount", amounts, true)
	if err != nil {
		return nil, previewError(pool, err)
	}
	return minted, nil
}

// PreviewCurveWithdraw reads the amount of coin index returned for burning lpAmount.
func (s *Session) PreviewCurveWithdraw(ctx context.Context, chainID uint64, pool gcommon.Address, lpAmount *big.Int, index int) (*big.Int, error) {
	p, err := s.resolver.prober(chainID, pool)
	if err != nil {
		return nil, err
	}
	received, err := p.uint256(ctx, curve, "calc_withdraw_one_coin", lpAmount, big.NewInt(int64(index)))
	if err != nil {
		return nil, previewError(pool, err)
	}
	return received, nil
}

func (r *Resolver) prober(chainID uint64, token gcommon.Address) (prober, error) {
	reader, ok := r.readers[chainID]
	if !ok {
		return prober{}, fmt.Errorf("chain %d: %w", chainID, common.ErrChainNotConfigured)
	}
	return prober{reader: reader, timeout: r.probeTimeout, token: token}, nil
}

func previewError(pool gcommon.Address, err error) error {
	if errors.Is(err, errProbeMismatch) {
		return fmt.Errorf("curve preview on %s failed: %w", pool.Hex(), common.ErrRouteUnsupported)
	}
	return err
}

type prober struct {
	reader  ChainReader
	timeout time.Duration
	token   gcommon.Address
}

func (p prober) call(ctx context.Context, contract abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	input, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("fail to pack %s: %w", method, err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	to := p.token
	data, err := p.reader.CallContract(probeCtx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s on %s: %w", method, p.token.Hex(), errProbeMismatch)
		}
		return nil, fmt.Errorf("fail to call %s on %s: %w", method, p.token.Hex(), err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s on %s returned no data: %w", method, p.token.Hex(), errProbeMismatch)
	}

	out, err := contract.Unpack(method, data)
	if err != nil || len(out) == 0 {
		return nil, fmt.Errorf("%s on %s returned malformed data: %w", method, p.token.Hex(), errProbeMismatch)
	}
	return out, nil
}

func (p prober) address(ctx context.Context, contract abi.ABI, method string, args ...interface{}) (gcommon.Address, error) {
	out, err := p.call(ctx, contract, method, args...)
	if err != nil {
		return gcommon.Address{}, err
	}
	addr, ok := out[0].(gcommon.Address)
	if !ok || addr == (gcommon.Address{}) {
		return gcommon.Address{}, errProbeMismatch
	}
	return addr, nil
}

func (p prober) uint256(ctx context.Context, contract abi.ABI, method string, args ...interface{}) (*big.Int, error) {
	out, err := p.call(ctx, contract, method, args...)
	if err != nil {
		return nil, err
	}
	value, ok := out[0].(*big.Int)
	if !ok {
		return nil, errProbeMismatch
	}
	return value, nil
}
