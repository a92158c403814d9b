package zap

import (
	"math/big"

	gcommon "github.com/ethereum/go-ethereum/common"

	"github.com/vultisig/zap-planner/internal/types"
)

// routerToken maps the native sentinel to the zero address the router uses for native value.
func routerToken(addr gcommon.Address) gcommon.Address {
	if addr == types.NativeAsset {
		return gcommon.Address{}
	}
	return addr
}

type outputSet struct {
	order []gcommon.Address
	mins  map[gcommon.Address]*big.Int
}

func newOutputSet() *outputSet {
	return &outputSet{mins: make(map[gcommon.Address]*big.Int)}
}

// declare records a minimum for token. A token declared twice keeps the larger minimum.
func (o *outputSet) declare(token gcommon.Address, minimum *big.Int) {
	token = routerToken(token)
	if minimum == nil {
		minimum = new(big.Int)
	}
	current, ok := o.mins[token]
	if !ok {
		o.order = append(o.order, token)
		o.mins[token] = new(big.Int).Set(minimum)
		return
	}
	if minimum.Cmp(current) > 0 {
		current.Set(minimum)
	}
}

func (o *outputSet) requirements() []types.OutputRequirement {
	out := make([]types.OutputRequirement, 0, len(o.order))
	for _, token := range o.order {
		out = append(out, types.OutputRequirement{
			Token:           token,
			MinOutputAmount: new(big.Int).Set(o.mins[token]),
		})
	}
	return out
}

// assembleConfig builds the router order. Every intermediate token is declared at zero so the
// router sweeps leftovers back to the recipient.
func assembleConfig(req Request, final types.OutputRequirement, touched []gcommon.Address) types.ZapConfig {
	outputs := newOutputSet()
	outputs.declare(req.InputToken, nil)
	outputs.declare(final.Token, final.MinOutputAmount)
	for _, token := range touched {
		outputs.declare(token, nil)
	}

	relay := types.Call{Value: new(big.Int)}
	if req.Relay != nil {
		relay = *req.Relay
		if relay.Value == nil {
			relay.Value = new(big.Int)
		}
	}
	recipient := req.Recipient
	if recipient == (gcommon.Address{}) {
		recipient = req.User
	}
	return types.ZapConfig{
		Inputs: []types.TokenAmount{{
			Token:  routerToken(req.InputToken),
			Amount: new(big.Int).Set(req.InputAmount),
		}},
		Outputs:   outputs.requirements(),
		Relay:     relay,
		User:      req.User,
		Recipient: recipient,
	}
}
