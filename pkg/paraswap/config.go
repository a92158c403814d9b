package paraswap

import (
	"time"
)

const (
	DefaultBaseURL     = "https://api.paraswap.io"
	DefaultSlippageBps = 100
	DefaultTimeout     = 10 * time.Second
)

type Config struct {
	baseURL     string
	slippageBps uint32
	partner     string
	timeout     time.Duration
}

func NewConfig(baseURL string, slippageBps uint32, partner string, timeout time.Duration) *Config {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if slippageBps == 0 {
		slippageBps = DefaultSlippageBps
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Config{
		baseURL:     baseURL,
		slippageBps: slippageBps,
		partner:     partner,
		timeout:     timeout,
	}
}
