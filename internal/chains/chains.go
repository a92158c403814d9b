package chains

import (
	"fmt"

	gcommon "github.com/ethereum/go-ethereum/common"

	"github.com/vultisig/zap-planner/common"
)

// Settings are the per-chain addresses the planner needs. They are injected at construction so
// synthetic chains can be used in tests.
type Settings struct {
	ChainID         uint64
	Name            string
	ZapRouter       gcommon.Address
	WrappedNative   gcommon.Address
	VelodromeRouter gcommon.Address
	// QuoteAssets are tried in order when picking the Curve coin to swap into.
	QuoteAssets []gcommon.Address
}

type Registry map[uint64]Settings

func (r Registry) Get(chainID uint64) (Settings, error) {
	s, ok := r[chainID]
	if !ok {
		return Settings{}, fmt.Errorf("chain %d: %w", chainID, common.ErrChainNotConfigured)
	}
	return s, nil
}

// ChainConfig is the raw, string typed form of Settings as it appears in configuration files.
type ChainConfig struct {
	ChainID         uint64   `mapstructure:"chain_id" json:"chain_id"`
	RpcURL          string   `mapstructure:"rpc_url" json:"rpc_url"`
	ZapRouter       string   `mapstructure:"zap_router" json:"zap_router"`
	WrappedNative   string   `mapstructure:"wrapped_native" json:"wrapped_native"`
	VelodromeRouter string   `mapstructure:"velodrome_router" json:"velodrome_router,omitempty"`
	QuoteAssets     []string `mapstructure:"quote_assets" json:"quote_assets,omitempty"`
}

func NewRegistry(cfg map[string]ChainConfig) (Registry, error) {
	registry := make(Registry, len(cfg))
	for name, c := range cfg {
		if c.ChainID == 0 {
			return nil, fmt.Errorf("chain %s: chain_id is required", name)
		}
		if _, exists := registry[c.ChainID]; exists {
			return nil, fmt.Errorf("chain %s: duplicate chain_id %d", name, c.ChainID)
		}

		zapRouter, err := common.ParseAddress(c.ZapRouter)
		if err != nil {
			return nil, fmt.Errorf("chain %s: zap_router: %w", name, err)
		}
		wrappedNative, err := common.ParseAddress(c.WrappedNative)
		if err != nil {
			return nil, fmt.Errorf("chain %s: wrapped_native: %w", name, err)
		}

		settings := Settings{
			ChainID:       c.ChainID,
			Name:          name,
			ZapRouter:     zapRouter,
			WrappedNative: wrappedNative,
		}
		if c.VelodromeRouter != "" {
			settings.VelodromeRouter, err = common.ParseAddress(c.VelodromeRouter)
			if err != nil {
				return nil, fmt.Errorf("chain %s: velodrome_router: %w", name, err)
			}
		}
		for _, asset := range c.QuoteAssets {
			addr, err := common.ParseAddress(asset)
			if err != nil {
				return nil, fmt.Errorf("chain %s: quote_assets: %w", name, err)
			}
			settings.QuoteAssets = append(settings.QuoteAssets, addr)
		}
		registry[c.ChainID] = settings
	}
	return registry, nil
}
