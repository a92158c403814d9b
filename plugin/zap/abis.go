package zap

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const wrappedNativeABI = `[
	{"name":"deposit","type":"function","stateMutability":"payable","inputs":[],"outputs":[]},
	{"name":"withdraw","type":"function","stateMutability":"nonpayable","inputs":[{"name":"wad","type":"uint256"}],"outputs":[]}
]`

const erc4626ABI = `[
	{"name":"deposit","type":"function","stateMutability":"nonpayable","inputs":[{"name":"assets","type":"uint256"},{"name":"receiver","type":"address"}],"outputs":[{"name":"shares","type":"uint256"}]},
	{"name":"redeem","type":"function","stateMutability":"nonpayable","inputs":[{"name":"shares","type":"uint256"},{"name":"receiver","type":"address"},{"name":"owner","type":"address"}],"outputs":[{"name":"assets","type":"uint256"}]}
]`

const beefyVaultABI = `[
	{"name":"deposit","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_amount","type":"uint256"}],"outputs":[]},
	{"name":"withdraw","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_shares","type":"uint256"}],"outputs":[]}
]`

const velodromeRouterABI = `[
	{"name":"addLiquidity","type":"function","stateMutability":"nonpayable","inputs":[
		{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"},{"name":"stable","type":"bool"},
		{"name":"amountADesired","type":"uint256"},{"name":"amountBDesired","type":"uint256"},
		{"name":"amountAMin","type":"uint256"},{"name":"amountBMin","type":"uint256"},
		{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],
	 "outputs":[{"name":"amountA","type":"uint256"},{"name":"amountB","type":"uint256"},{"name":"liquidity","type":"uint256"}]},
	{"name":"removeLiquidity","type":"function","stateMutability":"nonpayable","inputs":[
		{"name":"tokenA","type":"address"},{"name":"tokenB","type":"address"},{"name":"stable","type":"bool"},
		{"name":"liquidity","type":"uint256"},{"name":"amountAMin","type":"uint256"},{"name":"amountBMin","type":"uint256"},
		{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],
	 "outputs":[{"name":"amountA","type":"uint256"},{"name":"amountB","type":"uint256"}]}
]`

const curvePoolABI = `[
	{"name":"add_liquidity","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_amounts","type":"uint256[2]"},{"name":"_min_mint_amount","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"remove_liquidity_one_coin","type":"function","stateMutability":"nonpayable","inputs":[{"name":"_burn_amount","type":"uint256"},{"name":"i","type":"int128"},{"name":"_min_received","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const zapRouterABI = `[
	{"name":"executeOrder","type":"function","stateMutability":"payable","inputs":[
		{"name":"_order","type":"tuple","components":[
			{"name":"inputs","type":"tuple[]","components":[{"name":"token","type":"address"},{"name":"amount","type":"uint256"}]},
			{"name":"outputs","type":"tuple[]","components":[{"name":"token","type":"address"},{"name":"minOutputAmount","type":"uint256"}]},
			{"name":"relay","type":"tuple","components":[{"name":"target","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"}]},
			{"name":"user","type":"address"},
			{"name":"recipient","type":"address"}]},
		{"name":"_route","type":"tuple[]","components":[
			{"name":"target","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"},
			{"name":"tokens","type":"tuple[]","components":[{"name":"token","type":"address"},{"name":"index","type":"int256"}]}]}],
	 "outputs":[]}
]`

var (
	wrappedNative   = mustParseABI(wrappedNativeABI)
	erc4626         = mustParseABI(erc4626ABI)
	beefyVault      = mustParseABI(beefyVaultABI)
	velodromeRouter = mustParseABI(velodromeRouterABI)
	curvePool       = mustParseABI(curvePoolABI)
	zapRouter       = mustParseABI(zapRouterABI)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}
