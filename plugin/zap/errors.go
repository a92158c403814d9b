package zap

import (
	"errors"

	"github.com/vultisig/zap-planner/common"
)

var ErrInvalidRequest = errors.New("invalid zap request")

var notReady = []struct {
	err    error
	reason string
}{
	{common.ErrUnclassifiableToken, "unclassifiable_token"},
	{common.ErrNoSwapRoute, "no_swap_route"},
	{common.ErrRouteUnsupported, "route_unsupported"},
	{common.ErrStaleQuote, "stale_quote"},
	{common.ErrChainNotConfigured, "chain_not_configured"},
}

// IsNotReady reports whether err means no route can be offered right now, as opposed to a
// failure of the planner or its collaborators.
func IsNotReady(err error) bool {
	return Reason(err) != ""
}

// Reason returns a stable code for not-ready errors and "" for anything else.
func Reason(err error) string {
	for _, nr := range notReady {
		if errors.Is(err, nr.err) {
			return nr.reason
		}
	}
	return ""
}
