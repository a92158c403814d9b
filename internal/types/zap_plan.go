package types

// ZapPlanRequestDto is the HTTP body of a plan request. Amounts are base-10 raw token units.
type ZapPlanRequestDto struct {
	ChainID     uint64 `json:"chain_id" validate:"required,gt=0"`
	InputToken  string `json:"input_token" validate:"required,eth_addr"`
	InputAmount string `json:"input_amount" validate:"required,number"`
	OutputToken string `json:"output_token" validate:"required,eth_addr"`
	User        string `json:"user" validate:"required,eth_addr"`
	Recipient   string `json:"recipient,omitempty" validate:"omitempty,eth_addr"`
}

type ZapPlanResponseDto struct {
	RequestID string      `json:"request_id"`
	Ready     bool        `json:"ready"`
	Reason    string      `json:"reason,omitempty"`
	Plan      *ZapPlanDto `json:"plan,omitempty"`
}

type ZapPlanDto struct {
	Strategy  string         `json:"strategy"`
	Router    string         `json:"router"`
	Value     string         `json:"value"`
	Calldata  string         `json:"calldata"`
	AmountOut AmountOutDto   `json:"amount_out"`
	Config    ZapConfigDto   `json:"config"`
	Route     []RouteStepDto `json:"route"`
}

type AmountOutDto struct {
	Expected string `json:"expected"`
	Min      string `json:"min"`
}

type ZapConfigDto struct {
	Inputs    []TokenAmountDto `json:"inputs"`
	Outputs   []TokenAmountDto `json:"outputs"`
	User      string           `json:"user"`
	Recipient string           `json:"recipient"`
}

type TokenAmountDto struct {
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

type RouteStepDto struct {
	Kind     string            `json:"kind"`
	Target   string            `json:"target"`
	Value    string            `json:"value"`
	Data     string            `json:"data"`
	Bindings []TokenBindingDto `json:"token_bindings"`
}

type TokenBindingDto struct {
	Token string `json:"token"`
	Index int64  `json:"index"`
}
