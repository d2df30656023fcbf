package feeds

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/web3guy0/fxsentry/types"
)

// ═══════════════════════════════════════════════════════════════════════════════
// AGGREGATOR FEED - REST kline fallback when the bridge is down
// ═══════════════════════════════════════════════════════════════════════════════

// AggregatorClient pulls time series from a market-data aggregator API.
type AggregatorClient struct {
	client *resty.Client
	apiKey string
}

type aggregatorValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
}

type aggregatorResponse struct {
	Values  []aggregatorValue `json:"values"`
	Status  string            `json:"status"`
	Message string            `json:"message"`
}

// NewAggregatorClient points at the aggregator's time_series endpoint.
func NewAggregatorClient(baseURL, apiKey string) *AggregatorClient {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(15 * time.Second)
	return &AggregatorClient{client: client, apiKey: apiKey}
}

func (a *AggregatorClient) Name() string { return "aggregator" }

func (a *AggregatorClient) FetchOHLC(ctx context.Context, symbol, timeframe string, lookback int) ([]types.Candle, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("aggregator api key not configured")
	}

	var payload aggregatorResponse
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol":     pairSlash(symbol),
			"interval":   aggregatorInterval(timeframe),
			"outputsize": fmt.Sprintf("%d", lookback),
			"apikey":     a.apiKey,
		}).
		SetResult(&payload).
		Get("")
	if err != nil {
		return nil, err
	}
	if resp.IsError() || payload.Status == "error" {
		return nil, fmt.Errorf("aggregator error: %s", payload.Message)
	}

	bars := make([]types.Candle, 0, len(payload.Values))
	for _, v := range payload.Values {
		ts, err := time.Parse("2006-01-02 15:04:05", v.Datetime)
		if err != nil {
			// daily series omit the clock
			if ts, err = time.Parse("2006-01-02", v.Datetime); err != nil {
				continue
			}
		}
		o, errO := decimal.NewFromString(v.Open)
		h, errH := decimal.NewFromString(v.High)
		l, errL := decimal.NewFromString(v.Low)
		c, errC := decimal.NewFromString(v.Close)
		if errO != nil || errH != nil || errL != nil || errC != nil {
			continue
		}
		bars = append(bars, types.Candle{Time: ts.UTC(), Open: o, High: h, Low: l, Close: c})
	}

	// The API returns newest-first; the engine wants chronological.
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// pairSlash rewrites 6-letter tickers into the aggregator's pair form
// (EURUSD -> EUR/USD); everything else passes through.
func pairSlash(symbol string) string {
	if len(symbol) == 6 {
		return symbol[:3] + "/" + symbol[3:]
	}
	return symbol
}

func aggregatorInterval(tf string) string {
	switch tf {
	case "1m":
		return "1min"
	case "5m":
		return "5min"
	case "15m":
		return "15min"
	case "30m":
		return "30min"
	case "1h":
		return "1h"
	case "4h":
		return "4h"
	case "1d":
		return "1day"
	}
	return "15min"
}
