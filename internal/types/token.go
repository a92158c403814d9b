package types

import (
	"fmt"
	"math/big"

	gcommon "github.com/ethereum/go-ethereum/common"
)

// NativeAsset is the sentinel address the swap aggregator and the planner use for the chain's
// native asset.
var NativeAsset = gcommon.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

const NativeDecimals = 18

type Token struct {
	ChainID  uint64          `json:"chain_id"`
	Address  gcommon.Address `json:"address"`
	Decimals uint8           `json:"decimals"`
}

func (t Token) IsNative() bool {
	return t.Address == NativeAsset
}

func (t Token) Key() TokenKey {
	return TokenKey{ChainID: t.ChainID, Address: t.Address}
}

func (t Token) String() string {
	return fmt.Sprintf("%d:%s", t.ChainID, t.Address.Hex())
}

// TokenKey identifies a token independently of its metadata.
type TokenKey struct {
	ChainID uint64
	Address gcommon.Address
}

// AmountBounds holds the expected output of an operation and the minimum the router enforces.
// Min never exceeds Expected.
type AmountBounds struct {
	Expected *big.Int `json:"expected"`
	Min      *big.Int `json:"min"`
}

func ExactBounds(amount *big.Int) AmountBounds {
	return AmountBounds{
		Expected: new(big.Int).Set(amount),
		Min:      new(big.Int).Set(amount),
	}
}

func (b AmountBounds) Valid() bool {
	if b.Expected == nil || b.Min == nil {
		return false
	}
	return b.Min.Sign() >= 0 && b.Min.Cmp(b.Expected) <= 0
}

func (b AmountBounds) String() string {
	return fmt.Sprintf("{expected: %s, min: %s}", b.Expected, b.Min)
}
