package news

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// ═══════════════════════════════════════════════════════════════════════════════
// NEWS CALENDAR - High-impact macro events, advisory only
// ═══════════════════════════════════════════════════════════════════════════════
//
// A high-impact event within ±30 minutes for a symbol's currency flags the
// factor set. Calendar failures degrade to "no news": this signal is never
// allowed to break a refresh.
//

const (
	defaultCalendarURL = "https://nfs.faireconomy.media/ff_calendar_thisweek.json"

	imminentWindow = 30 * time.Minute
	cacheTTL       = time.Hour
)

// Event is one calendar entry.
type Event struct {
	Title   string    `json:"title"`
	Country string    `json:"country"` // currency code, e.g. USD
	Date    time.Time `json:"date"`
	Impact  string    `json:"impact"`
}

// Calendar fetches and caches the weekly event list.
type Calendar struct {
	client *resty.Client
	apiKey string
	log    zerolog.Logger

	mu        sync.Mutex
	events    []Event
	fetchedAt time.Time
}

// NewCalendar builds a calendar client. An empty URL uses the default feed.
func NewCalendar(url, apiKey string, log zerolog.Logger) *Calendar {
	if url == "" {
		url = defaultCalendarURL
	}
	client := resty.New()
	client.SetBaseURL(url)
	client.SetTimeout(15 * time.Second)
	return &Calendar{client: client, apiKey: apiKey, log: log}
}

// Imminent reports whether a high-impact event for the symbol's currencies
// falls within ±30 minutes of now. Any failure reads as false.
func (c *Calendar) Imminent(ctx context.Context, symbol string, now time.Time) bool {
	events, err := c.cached(ctx, now)
	if err != nil {
		c.log.Warn().Err(err).Msg("⚠️ Calendar fetch failed, assuming no news")
		return false
	}
	return anyImminent(events, symbol, now)
}

func (c *Calendar) cached(ctx context.Context, now time.Time) ([]Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.events != nil && now.Sub(c.fetchedAt) < cacheTTL {
		return c.events, nil
	}

	var payload []Event
	req := c.client.R().SetContext(ctx).SetResult(&payload)
	if c.apiKey != "" {
		req.SetQueryParam("apikey", c.apiKey)
	}
	resp, err := req.Get("")
	if err != nil {
		return c.events, err
	}
	if resp.IsError() {
		return c.events, fmt.Errorf("calendar returned %s", resp.Status())
	}

	c.events = payload
	c.fetchedAt = now
	return c.events, nil
}

// anyImminent is the pure matching rule.
func anyImminent(events []Event, symbol string, now time.Time) bool {
	currencies := symbolCurrencies(symbol)
	for _, ev := range events {
		if !strings.EqualFold(ev.Impact, "high") {
			continue
		}
		if !currencies[strings.ToUpper(ev.Country)] {
			continue
		}
		delta := ev.Date.Sub(now)
		if delta < 0 {
			delta = -delta
		}
		if delta <= imminentWindow {
			return true
		}
	}
	return false
}

// symbolCurrencies maps a ticker to the currencies whose news moves it.
// Metals, energy, and US indices all key off USD.
func symbolCurrencies(symbol string) map[string]bool {
	out := map[string]bool{"USD": true}
	if len(symbol) == 6 {
		base := symbol[:3]
		quote := symbol[3:]
		if base != "XAU" && base != "XAG" {
			out[strings.ToUpper(base)] = true
		}
		out[strings.ToUpper(quote)] = true
	}
	return out
}
