package feeds

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/fxsentry/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// BROKER BRIDGE - Primary candle provider
// ═══════════════════════════════════════════════════════════════════════════════
//
// A local bridge process exposes the broker terminal's chart data over HTTP:
//   GET /candles?symbol=EURUSD&tf=15m&limit=300
//

// BridgeClient pulls candles from the local broker bridge.
type BridgeClient struct {
	client *resty.Client
}

type bridgeCandle struct {
	Time   int64   `json:"t"` // unix seconds
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume float64 `json:"v"`
}

// NewBridgeClient points at the bridge's /candles endpoint.
func NewBridgeClient(baseURL string) *BridgeClient {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(10 * time.Second)
	return &BridgeClient{client: client}
}

func (b *BridgeClient) Name() string { return "bridge" }

func (b *BridgeClient) FetchOHLC(ctx context.Context, symbol, timeframe string, lookback int) ([]types.Candle, error) {
	var payload []bridgeCandle
	resp, err := b.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"tf":     timeframe,
			"limit":  fmt.Sprintf("%d", lookback),
		}).
		SetResult(&payload).
		Get("")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("bridge returned %s", resp.Status())
	}

	bars := make([]types.Candle, 0, len(payload))
	for _, c := range payload {
		bars = append(bars, types.Candle{
			Time:   time.Unix(c.Time, 0).UTC(),
			Open:   decimal.NewFromFloat(c.Open),
			High:   decimal.NewFromFloat(c.High),
			Low:    decimal.NewFromFloat(c.Low),
			Close:  decimal.NewFromFloat(c.Close),
			Volume: decimal.NewFromFloat(c.Volume),
		})
	}
	return bars, nil
}
