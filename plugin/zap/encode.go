package zap

import (
	"fmt"
	"math/big"

	gcommon "github.com/ethereum/go-ethereum/common"

	"github.com/vultisig/zap-planner/internal/types"
)

type orderInput struct {
	Token  gcommon.Address
	Amount *big.Int
}

type orderOutput struct {
	Token           gcommon.Address
	MinOutputAmount *big.Int
}

type orderRelay struct {
	Target gcommon.Address
	Value  *big.Int
	Data   []byte
}

type order struct {
	Inputs    []orderInput
	Outputs   []orderOutput
	Relay     orderRelay
	User      gcommon.Address
	Recipient gcommon.Address
}

type stepToken struct {
	Token gcommon.Address
	Index *big.Int
}

type orderStep struct {
	Target gcommon.Address
	Value  *big.Int
	Data   []byte
	Tokens []stepToken
}

// EncodeExecuteOrder packs the router call that executes cfg and route in one transaction.
func EncodeExecuteOrder(cfg types.ZapConfig, route types.ZapRoute) ([]byte, error) {
	o := order{
		Inputs:  make([]orderInput, 0, len(cfg.Inputs)),
		Outputs: make([]orderOutput, 0, len(cfg.Outputs)),
		Relay: orderRelay{
			Target: cfg.Relay.Target,
			Value:  orZero(cfg.Relay.Value),
			Data:   orEmpty(cfg.Relay.Data),
		},
		User:      cfg.User,
		Recipient: cfg.Recipient,
	}
	for _, in := range cfg.Inputs {
		o.Inputs = append(o.Inputs, orderInput{Token: in.Token, Amount: orZero(in.Amount)})
	}
	for _, out := range cfg.Outputs {
		o.Outputs = append(o.Outputs, orderOutput{Token: out.Token, MinOutputAmount: orZero(out.MinOutputAmount)})
	}

	steps := make([]orderStep, 0, len(route))
	for _, step := range route {
		tokens := make([]stepToken, 0, len(step.TokenBindings))
		for _, b := range step.TokenBindings {
			tokens = append(tokens, stepToken{Token: routerToken(b.Token), Index: big.NewInt(b.Index())})
		}
		steps = append(steps, orderStep{
			Target: step.Target,
			Value:  orZero(step.Value),
			Data:   orEmpty(step.Data),
			Tokens: tokens,
		})
	}

	data, err := zapRouter.Pack("executeOrder", o, steps)
	if err != nil {
		return nil, fmt.Errorf("fail to pack executeOrder: %w", err)
	}
	return data, nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func orEmpty(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
