package zap

import (
	"math/big"

	gcommon "github.com/ethereum/go-ethereum/common"

	"github.com/vultisig/zap-planner/internal/types"
)

// Request asks for a route turning InputAmount of InputToken into OutputToken. Native input or
// output uses types.NativeAsset. A zero Recipient means the user.
type Request struct {
	ChainID     uint64
	InputToken  gcommon.Address
	InputAmount *big.Int
	OutputToken gcommon.Address
	User        gcommon.Address
	Recipient   gcommon.Address
	Relay       *types.Call
}

type Plan struct {
	Strategy  Strategy
	Router    gcommon.Address
	Value     *big.Int
	Calldata  []byte
	AmountOut types.AmountBounds
	Config    types.ZapConfig
	Route     types.ZapRoute
}

type Config struct {
	DeadlineMinutes     int64  `mapstructure:"deadline_minutes" json:"deadline_minutes"`
	CurveHaircutBps     uint32 `mapstructure:"curve_haircut_bps" json:"curve_haircut_bps"`
	LpRemovalHaircutBps uint32 `mapstructure:"lp_removal_haircut_bps" json:"lp_removal_haircut_bps"`
}

const (
	DefaultDeadlineMinutes = 20
	DefaultHaircutBps      = 100
)

func (c Config) withDefaults() Config {
	if c.DeadlineMinutes <= 0 {
		c.DeadlineMinutes = DefaultDeadlineMinutes
	}
	if c.CurveHaircutBps == 0 {
		c.CurveHaircutBps = DefaultHaircutBps
	}
	if c.LpRemovalHaircutBps == 0 {
		c.LpRemovalHaircutBps = DefaultHaircutBps
	}
	return c
}
