package common

import (
	"fmt"
	"strings"

	gcommon "github.com/ethereum/go-ethereum/common"
)

// ParseAddress parses a hex address, enforcing the EIP-55 checksum when the input is mixed case.
func ParseAddress(s string) (gcommon.Address, error) {
	mixedCase, err := gcommon.NewMixedcaseAddressFromString(s)
	if err != nil {
		return gcommon.Address{}, fmt.Errorf("invalid address: %s", s)
	}
	if strings.ToLower(s) != s && strings.ToUpper(s[2:]) != s[2:] {
		if !mixedCase.ValidChecksum() {
			return gcommon.Address{}, fmt.Errorf("invalid address checksum: %s", s)
		}
	}
	return mixedCase.Address(), nil
}
