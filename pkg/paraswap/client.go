package paraswap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	gcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/sirupsen/logrus"

	"github.com/vultisig/zap-planner/common"
	"github.com/vultisig/zap-planner/internal/types"
)

// APIVersion pins the Augustus generation whose router is also the ERC-20 spender.
const APIVersion = "6.2"

var ErrSpenderMismatch = errors.New("swap spender differs from swap target")

type pricesResponse struct {
	PriceRoute json.RawMessage `json:"priceRoute"`
	Error      string          `json:"error"`
}

type priceRoute struct {
	SrcToken           string `json:"srcToken"`
	DestToken          string `json:"destToken"`
	SrcAmount          string `json:"srcAmount"`
	DestAmount         string `json:"destAmount"`
	TokenTransferProxy string `json:"tokenTransferProxy"`
	ContractAddress    string `json:"contractAddress"`
}

type transactionRequest struct {
	SrcToken     string          `json:"srcToken"`
	SrcDecimals  uint8           `json:"srcDecimals"`
	DestToken    string          `json:"destToken"`
	DestDecimals uint8           `json:"destDecimals"`
	SrcAmount    string          `json:"srcAmount"`
	Slippage     uint32          `json:"slippage"`
	PriceRoute   json.RawMessage `json:"priceRoute"`
	UserAddress  string          `json:"userAddress"`
	Partner      string          `json:"partner,omitempty"`
}

type transactionResponse struct {
	To    string `json:"to"`
	Value string `json:"value"`
	Data  string `json:"data"`
	Error string `json:"error"`
}

type Client struct {
	cfg        *Config
	httpClient http.Client
	logger     logrus.FieldLogger
}

func NewClient(cfg *Config, logger logrus.FieldLogger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: http.Client{Timeout: cfg.timeout},
		logger:     logger,
	}
}

func (c *Client) bodyCloser(body io.ReadCloser) {
	if body != nil {
		if err := body.Close(); err != nil {
			c.logger.Error("Failed to close body,err:", err)
		}
	}
}

// Quote prices a SELL of req.Amount and builds the executable call. The minimum output is the
// expected amount less the configured slippage.
func (c *Client) Quote(ctx context.Context, req types.QuoteRequest) (*types.SwapQuote, error) {
	log := c.logger.WithFields(logrus.Fields{
		"chain_id":   req.ChainID,
		"src_token":  req.From.Address.Hex(),
		"dest_token": req.To.Address.Hex(),
		"amount":     req.Amount.String(),
	})
	log.Debug("Fetching swap quote")

	rawRoute, route, err := c.prices(ctx, req)
	if err != nil {
		log.WithError(err).Warn("Failed to get swap price")
		return nil, err
	}

	expected, ok := new(big.Int).SetString(route.DestAmount, 10)
	if !ok || expected.Sign() <= 0 {
		return nil, fmt.Errorf("dest amount %q: %w", route.DestAmount, common.ErrNoSwapRoute)
	}

	tx, err := c.buildTransaction(ctx, req, rawRoute)
	if err != nil {
		log.WithError(err).Warn("Failed to build swap transaction")
		return nil, err
	}

	value := new(big.Int)
	if tx.Value != "" {
		if _, ok := value.SetString(tx.Value, 10); !ok {
			return nil, fmt.Errorf("fail to parse transaction value: %s", tx.Value)
		}
	}
	data, err := hexutil.Decode(tx.Data)
	if err != nil {
		return nil, fmt.Errorf("fail to decode transaction data: %w", err)
	}

	target := gcommon.HexToAddress(tx.To)
	spender, err := allowanceSpender(route, target)
	if err != nil {
		log.WithError(err).Warn("Swap quote rejected")
		return nil, err
	}

	minOut := new(big.Int).Mul(expected, big.NewInt(int64(10_000-c.cfg.slippageBps)))
	minOut.Quo(minOut, big.NewInt(10_000))

	quote := &types.SwapQuote{
		Request: pricedFor(req, route),
		Call: types.Call{
			Target: target,
			Value:  value,
			Data:   data,
		},
		AmountOut: types.AmountBounds{
			Expected: expected,
			Min:      minOut,
		},
		AllowanceProxy: spender,
	}
	log.WithField("amount_out", quote.AmountOut.String()).Info("Swap quote built")
	return quote, nil
}

// allowanceSpender is the address the router approves before the swap call. Route steps approve
// their own target, so a quote pulling tokens through any other contract is unusable.
func allowanceSpender(route *priceRoute, target gcommon.Address) (gcommon.Address, error) {
	if route.TokenTransferProxy == "" {
		return target, nil
	}
	spender := gcommon.HexToAddress(route.TokenTransferProxy)
	if spender != target {
		return gcommon.Address{}, fmt.Errorf("spender %s is not swap target %s: %w", spender.Hex(), target.Hex(), ErrSpenderMismatch)
	}
	return spender, nil
}

// pricedFor is the request the aggregator actually priced, falling back to ours for fields it
// does not echo.
func pricedFor(req types.QuoteRequest, route *priceRoute) types.QuoteKey {
	key := req.Key()
	if gcommon.IsHexAddress(route.SrcToken) {
		key.From = gcommon.HexToAddress(route.SrcToken)
	}
	if gcommon.IsHexAddress(route.DestToken) {
		key.To = gcommon.HexToAddress(route.DestToken)
	}
	if amount, ok := new(big.Int).SetString(route.SrcAmount, 10); ok {
		key.Amount = amount.String()
	}
	return key
}

func (c *Client) prices(ctx context.Context, req types.QuoteRequest) (json.RawMessage, *priceRoute, error) {
	params := url.Values{}
	params.Set("srcToken", req.From.Address.Hex())
	params.Set("srcDecimals", strconv.Itoa(int(req.From.Decimals)))
	params.Set("destToken", req.To.Address.Hex())
	params.Set("destDecimals", strconv.Itoa(int(req.To.Decimals)))
	params.Set("amount", req.Amount.String())
	params.Set("side", "SELL")
	params.Set("network", strconv.FormatUint(req.ChainID, 10))
	params.Set("version", APIVersion)
	params.Set("userAddress", req.Sender.Hex())
	if c.cfg.partner != "" {
		params.Set("partner", c.cfg.partner)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.baseURL+"/prices?"+params.Encode(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("fail to create prices request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, nil, fmt.Errorf("fail to get prices: %w", err)
	}
	defer c.bodyCloser(resp.Body)

	var body pricesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, nil, fmt.Errorf("fail to decode prices response (%s): %w", resp.Status, err)
	}
	if resp.StatusCode != http.StatusOK {
		if isNoRoute(resp.StatusCode, body.Error) {
			return nil, nil, fmt.Errorf("%s: %w", body.Error, common.ErrNoSwapRoute)
		}
		return nil, nil, fmt.Errorf("fail to get prices: %s %s", resp.Status, body.Error)
	}
	if len(body.PriceRoute) == 0 {
		return nil, nil, fmt.Errorf("empty price route: %w", common.ErrNoSwapRoute)
	}

	var route priceRoute
	if err := json.Unmarshal(body.PriceRoute, &route); err != nil {
		return nil, nil, fmt.Errorf("fail to decode price route: %w", err)
	}
	return body.PriceRoute, &route, nil
}

func (c *Client) buildTransaction(ctx context.Context, req types.QuoteRequest, rawRoute json.RawMessage) (*transactionResponse, error) {
	payload := transactionRequest{
		SrcToken:     req.From.Address.Hex(),
		SrcDecimals:  req.From.Decimals,
		DestToken:    req.To.Address.Hex(),
		DestDecimals: req.To.Decimals,
		SrcAmount:    req.Amount.String(),
		Slippage:     c.cfg.slippageBps,
		PriceRoute:   rawRoute,
		UserAddress:  req.Sender.Hex(),
		Partner:      c.cfg.partner,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("fail to marshal payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/transactions/%d?ignoreChecks=true", c.cfg.baseURL, req.ChainID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("fail to create transaction request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fail to build transaction: %w", err)
	}
	defer c.bodyCloser(resp.Body)

	var tx transactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&tx); err != nil {
		return nil, fmt.Errorf("fail to decode transaction response (%s): %w", resp.Status, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fail to build transaction: %s %s", resp.Status, tx.Error)
	}
	if tx.To == "" || tx.Data == "" {
		return nil, fmt.Errorf("transaction response is missing call data")
	}
	return &tx, nil
}

func isNoRoute(status int, message string) bool {
	if status == http.StatusNotFound {
		return true
	}
	if status != http.StatusBadRequest {
		return false
	}
	message = strings.ToLower(message)
	return strings.Contains(message, "no route") || strings.Contains(message, "liquidity")
}
