package common

import "errors"

var (
	ErrUnclassifiableToken = errors.New("token could not be classified")
	ErrNoSwapRoute         = errors.New("no swap route found")
	ErrRouteUnsupported    = errors.New("no strategy covers this token combination")
	ErrStaleQuote          = errors.New("quote does not match the current request")
	ErrChainNotConfigured  = errors.New("chain is not configured")
)
