package types

import (
	"math/big"

	gcommon "github.com/ethereum/go-ethereum/common"
)

// Call is a raw contract call.
type Call struct {
	Target gcommon.Address `json:"target"`
	Value  *big.Int        `json:"value"`
	Data   []byte          `json:"data"`
}

// QuoteRequest asks the aggregator to sell Amount of From for To on behalf of Sender.
type QuoteRequest struct {
	ChainID uint64
	From    Token
	To      Token
	Amount  *big.Int
	Sender  gcommon.Address
}

func (r QuoteRequest) Key() QuoteKey {
	return NewQuoteKey(r.From.Address, r.To.Address, r.Amount)
}

type QuoteKey struct {
	From   gcommon.Address
	To     gcommon.Address
	Amount string
}

func NewQuoteKey(from, to gcommon.Address, amount *big.Int) QuoteKey {
	return QuoteKey{From: from, To: to, Amount: amount.String()}
}

// SwapQuote is a single-use aggregator quote. Request echoes the parameters it was priced for.
type SwapQuote struct {
	Request        QuoteKey
	Call           Call
	AmountOut      AmountBounds
	AllowanceProxy gcommon.Address
}

type BindingKind int

const (
	// BindStatic leaves the amount already encoded in the call data untouched.
	BindStatic BindingKind = iota
	// BindRuntimeBalance overwrites 32 bytes of the call data at Offset with the router's
	// balance of Token right before the call.
	BindRuntimeBalance
)

type TokenBinding struct {
	Token  gcommon.Address
	Kind   BindingKind
	Offset int
}

func StaticAmount(token gcommon.Address) TokenBinding {
	return TokenBinding{Token: token, Kind: BindStatic}
}

func RuntimeBalanceOf(token gcommon.Address, offset int) TokenBinding {
	return TokenBinding{Token: token, Kind: BindRuntimeBalance, Offset: offset}
}

// Index is the value the router contract expects: -1 for static amounts.
func (b TokenBinding) Index() int64 {
	if b.Kind == BindStatic {
		return -1
	}
	return int64(b.Offset)
}

func (b TokenBinding) IsDeferred() bool {
	return b.Kind == BindRuntimeBalance
}

type StepKind string

const (
	StepWrap            StepKind = "wrap"
	StepUnwrap          StepKind = "unwrap"
	StepSwap            StepKind = "swap"
	StepVaultDeposit    StepKind = "vault_deposit"
	StepVaultRedeem     StepKind = "vault_redeem"
	StepWrapperDeposit  StepKind = "wrapper_deposit"
	StepWrapperWithdraw StepKind = "wrapper_withdraw"
	StepAddLiquidity    StepKind = "add_liquidity"
	StepRemoveLiquidity StepKind = "remove_liquidity"
)

type RouteStep struct {
	Kind          StepKind
	Target        gcommon.Address
	Value         *big.Int
	Data          []byte
	TokenBindings []TokenBinding
}

type ZapRoute []RouteStep

type TokenAmount struct {
	Token  gcommon.Address `json:"token"`
	Amount *big.Int        `json:"amount"`
}

type OutputRequirement struct {
	Token           gcommon.Address `json:"token"`
	MinOutputAmount *big.Int        `json:"min_output_amount"`
}

type ZapConfig struct {
	Inputs    []TokenAmount       `json:"inputs"`
	Outputs   []OutputRequirement `json:"outputs"`
	Relay     Call                `json:"relay"`
	User      gcommon.Address     `json:"user"`
	Recipient gcommon.Address     `json:"recipient"`
}
