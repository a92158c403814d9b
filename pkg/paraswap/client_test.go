package paraswap

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	gcommon "github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/vultisig/zap-planner/common"
	"github.com/vultisig/zap-planner/internal/types"
)

var (
	usdc   = gcommon.HexToAddress("0x0b2c639c533813f4aa9d7837caf62653d097ff85")
	dai    = gcommon.HexToAddress("0xda10009cbd5d07dd0cecc66161fc93d7c9000da1")
	router = gcommon.HexToAddress("0x1111111111111111111111111111111111111111")
	proxy  = gcommon.HexToAddress("0x216b4b4ba9f3e719726886d34a177484278bfcae")
	augus  = gcommon.HexToAddress("0x6a000f20005980200259b80c5102003040001068")
)

func quoteRequest() types.QuoteRequest {
	return types.QuoteRequest{
		ChainID: 10,
		From:    types.Token{ChainID: 10, Address: usdc, Decimals: 6},
		To:      types.Token{ChainID: 10, Address: dai, Decimals: 18},
		Amount:  big.NewInt(1_000_000),
		Sender:  router,
	}
}

func newTestServer(t *testing.T, prices http.HandlerFunc, transactions http.HandlerFunc) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/prices", prices)
	mux.HandleFunc("/transactions/10", transactions)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestQuote(t *testing.T) {
	var built transactionRequest
	server := newTestServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			require.Equal(t, "SELL", q.Get("side"))
			require.Equal(t, "10", q.Get("network"))
			require.Equal(t, "1000000", q.Get("amount"))
			require.Equal(t, "6", q.Get("srcDecimals"))
			require.Equal(t, "18", q.Get("destDecimals"))
			require.Equal(t, router.Hex(), q.Get("userAddress"))
			require.Equal(t, "6.2", q.Get("version"))
			_, _ = w.Write([]byte(`{"priceRoute":{"srcAmount":"1000000","destAmount":"999000000000000000","tokenTransferProxy":"` + augus.Hex() + `","contractAddress":"` + augus.Hex() + `"}}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "true", r.URL.Query().Get("ignoreChecks"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&built))
			_, _ = w.Write([]byte(`{"to":"` + augus.Hex() + `","value":"0","data":"0xa94e78ef0001"}`))
		},
	)

	client := NewClient(NewConfig(server.URL, 100, "zap", 0), logrus.StandardLogger())
	quote, err := client.Quote(context.Background(), quoteRequest())
	require.NoError(t, err)

	require.Equal(t, augus, quote.Call.Target)
	require.Equal(t, []byte{0xa9, 0x4e, 0x78, 0xef, 0x00, 0x01}, quote.Call.Data)
	require.Equal(t, int64(0), quote.Call.Value.Int64())
	require.Equal(t, quote.Call.Target, quote.AllowanceProxy)
	require.Equal(t, "999000000000000000", quote.AmountOut.Expected.String())
	require.Equal(t, "989010000000000000", quote.AmountOut.Min.String())
	require.True(t, quote.AmountOut.Valid())
	require.Equal(t, quoteRequest().Key(), quote.Request)

	require.Equal(t, uint32(100), built.Slippage)
	require.Equal(t, "1000000", built.SrcAmount)
	require.Equal(t, "zap", built.Partner)
	require.Contains(t, string(built.PriceRoute), "destAmount")
}

func TestQuoteFailures(t *testing.T) {
	okTransaction := func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"to":"` + augus.Hex() + `","value":"0","data":"0x00"}`))
	}

	testCases := []struct {
		name        string
		prices      http.HandlerFunc
		transaction http.HandlerFunc
		wantNoRoute bool
	}{
		{
			name: "no liquidity",
			prices: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"No routes found with enough liquidity"}`))
			},
			transaction: okTransaction,
			wantNoRoute: true,
		},
		{
			name: "zero dest amount",
			prices: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"priceRoute":{"destAmount":"0"}}`))
			},
			transaction: okTransaction,
			wantNoRoute: true,
		},
		{
			name: "aggregator outage",
			prices: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`{"error":"upstream"}`))
			},
			transaction: okTransaction,
		},
		{
			name: "transaction build rejected",
			prices: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"priceRoute":{"destAmount":"10"}}`))
			},
			transaction: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"Unable to check price impact"}`))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := newTestServer(t, tc.prices, tc.transaction)
			client := NewClient(NewConfig(server.URL, 0, "", 0), logrus.StandardLogger())

			quote, err := client.Quote(context.Background(), quoteRequest())
			require.Error(t, err)
			require.Nil(t, quote)
			require.Equal(t, tc.wantNoRoute, errors.Is(err, common.ErrNoSwapRoute))
		})
	}
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig("", 0, "", 0)
	require.Equal(t, DefaultBaseURL, cfg.baseURL)
	require.Equal(t, uint32(DefaultSlippageBps), cfg.slippageBps)
	require.Equal(t, DefaultTimeout, cfg.timeout)
}

func TestQuoteEchoesPricedRequest(t *testing.T) {
	server := newTestServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"priceRoute":{"srcToken":"` + usdc.Hex() + `","destToken":"` + dai.Hex() + `","srcAmount":"999","destAmount":"5"}}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"to":"` + augus.Hex() + `","value":"0","data":"0x00"}`))
		},
	)

	client := NewClient(NewConfig(server.URL, 100, "", 0), logrus.StandardLogger())
	quote, err := client.Quote(context.Background(), quoteRequest())
	require.NoError(t, err)
	require.Equal(t, types.NewQuoteKey(usdc, dai, big.NewInt(999)), quote.Request)
	require.NotEqual(t, quoteRequest().Key(), quote.Request)
}

func TestQuoteRejectsForeignSpender(t *testing.T) {
	server := newTestServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"priceRoute":{"srcAmount":"1000000","destAmount":"5","tokenTransferProxy":"` + proxy.Hex() + `","contractAddress":"` + augus.Hex() + `"}}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"to":"` + augus.Hex() + `","value":"0","data":"0x00"}`))
		},
	)

	client := NewClient(NewConfig(server.URL, 100, "", 0), logrus.StandardLogger())
	quote, err := client.Quote(context.Background(), quoteRequest())
	require.ErrorIs(t, err, ErrSpenderMismatch)
	require.Nil(t, quote)
	require.False(t, errors.Is(err, common.ErrNoSwapRoute))
}

func TestQuoteSpenderDefaultsToTarget(t *testing.T) {
	server := newTestServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"priceRoute":{"srcAmount":"1000000","destAmount":"5"}}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"to":"` + augus.Hex() + `","value":"0","data":"0x00"}`))
		},
	)

	client := NewClient(NewConfig(server.URL, 100, "", 0), logrus.StandardLogger())
	quote, err := client.Quote(context.Background(), quoteRequest())
	require.NoError(t, err)
	require.Equal(t, augus, quote.AllowanceProxy)
}

func TestQuoteLogsWithServiceField(t *testing.T) {
	server := newTestServer(t,
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"priceRoute":{"srcAmount":"1000000","destAmount":"5"}}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"to":"` + augus.Hex() + `","value":"0","data":"0x00"}`))
		},
	)

	logger, hook := logtest.NewNullLogger()
	client := NewClient(NewConfig(server.URL, 100, "", 0), logger.WithField("service", "paraswap"))
	_, err := client.Quote(context.Background(), quoteRequest())
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	require.Equal(t, "paraswap", entry.Data["service"])
	require.Equal(t, usdc.Hex(), entry.Data["src_token"])
}
