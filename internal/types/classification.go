package types

import (
	"math/big"

	gcommon "github.com/ethereum/go-ethereum/common"
)

// Classification is the closed set of token shapes the planner understands. Every RouteBuilder
// dispatch switches over the concrete types below.
type Classification interface {
	classification()
	Shape() string
}

type Plain struct{}

type Native struct{}

// VaultShare is an ERC-4626 style share. ExchangeRate is underlying raw units per share raw
// unit, scaled by 1e18 and rounded down. The vault's true rate is below ExchangeRate + RateStep.
type VaultShare struct {
	Underlying   gcommon.Address
	ExchangeRate *big.Int
	RateStep     *big.Int
}

type LpKind string

const (
	LpVelodrome LpKind = "velodrome"
	LpCurve     LpKind = "curve"
)

// LpToken is a two-asset liquidity token. For Curve pools the LP token is the pool contract and
// BestCurveInputToken is nil when no configured quote asset is one of the coins.
type LpToken struct {
	Kind                LpKind
	Token0              gcommon.Address
	Token1              gcommon.Address
	Reserve0            *big.Int
	Reserve1            *big.Int
	TotalSupply         *big.Int
	Stable              bool
	BestCurveInputToken *gcommon.Address
}

// YieldWrapperShare is a Beefy style vault share over a "want" token. PricePerShare is scaled by
// 1e18 and rounded down; RateStep bounds that rounding like it does for VaultShare.
type YieldWrapperShare struct {
	Underlying    gcommon.Address
	PricePerShare *big.Int
	RateStep      *big.Int
}

func (Plain) classification()             {}
func (Native) classification()            {}
func (VaultShare) classification()        {}
func (LpToken) classification()           {}
func (YieldWrapperShare) classification() {}

func (Plain) Shape() string             { return "plain" }
func (Native) Shape() string            { return "native" }
func (VaultShare) Shape() string        { return "vault_share" }
func (l LpToken) Shape() string         { return "lp_" + string(l.Kind) }
func (YieldWrapperShare) Shape() string { return "yield_wrapper" }

// CurveInputIndex returns the coin index of BestCurveInputToken.
func (l LpToken) CurveInputIndex() (int, bool) {
	if l.BestCurveInputToken == nil {
		return 0, false
	}
	switch *l.BestCurveInputToken {
	case l.Token0:
		return 0, true
	case l.Token1:
		return 1, true
	}
	return 0, false
}

// Reserve returns the pool reserve of the given leg token.
func (l LpToken) Reserve(token gcommon.Address) *big.Int {
	if token == l.Token1 {
		return l.Reserve1
	}
	return l.Reserve0
}

// TokenInfo is a classified token. Underlying is set for vault and yield-wrapper shares and
// holds the classification of the wrapped asset.
type TokenInfo struct {
	Token          Token
	Classification Classification
	Underlying     *TokenInfo
}

// Inner returns the shape a swap has to produce or consume: the underlying for wrapper shares,
// the token itself otherwise.
func (i *TokenInfo) Inner() *TokenInfo {
	if i.Underlying != nil {
		return i.Underlying
	}
	return i
}

func (i *TokenInfo) IsWrapper() bool {
	switch i.Classification.(type) {
	case VaultShare, YieldWrapperShare:
		return true
	}
	return false
}
