package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"macdbot-go/internal/signal"
)

// DefaultMAXBaseURL is the public MAX REST host.
const DefaultMAXBaseURL = "https://max-api.maicoin.com"

// MAXClient reads public market data from the MAX v2 REST API.
type MAXClient struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewMAXClient returns a client with a 10s request timeout.
func NewMAXClient(baseURL string, log zerolog.Logger) *MAXClient {
	if baseURL == "" {
		baseURL = DefaultMAXBaseURL
	}
	return &MAXClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

// flexFloat accepts both JSON numbers and numeric strings; MAX uses both.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("parse number %q: %w", b, err)
	}
	*f = flexFloat(v)
	return nil
}

type maxTicker struct {
	At   int64     `json:"at"`
	Last flexFloat `json:"last"`
	Vol  flexFloat `json:"vol"`
}

// Candles fetches GET /api/v2/k. Rows arrive as [ts, open, high, low, close, volume]
// with ts in seconds.
func (c *MAXClient) Candles(ctx context.Context, symbol string, interval time.Duration, limit int) ([]signal.Candle, error) {
	period := int(interval / time.Minute)
	if period <= 0 {
		period = 1
	}
	q := url.Values{}
	q.Set("market", strings.ToLower(symbol))
	q.Set("period", strconv.Itoa(period))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var rows [][]flexFloat
	if err := c.get(ctx, "/api/v2/k?"+q.Encode(), &rows); err != nil {
		return nil, err
	}
	out := make([]signal.Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("kline row %d has %d fields", i, len(row))
		}
		out = append(out, signal.Candle{
			Ts:     time.Unix(int64(row[0]), 0).UTC(),
			Open:   float64(row[1]),
			High:   float64(row[2]),
			Low:    float64(row[3]),
			Close:  float64(row[4]),
			Volume: float64(row[5]),
		})
	}
	return out, nil
}

// Price fetches GET /api/v2/tickers/{market} and returns the last trade price.
func (c *MAXClient) Price(ctx context.Context, symbol string) (float64, error) {
	var tk maxTicker
	if err := c.get(ctx, "/api/v2/tickers/"+url.PathEscape(strings.ToLower(symbol)), &tk); err != nil {
		return 0, err
	}
	if tk.Last <= 0 {
		return 0, fmt.Errorf("ticker %s: no last price", symbol)
	}
	return float64(tk.Last), nil
}

func (c *MAXClient) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "macdbot-go/1.0 (paper)")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	c.log.Debug().Str("path", path).Msg("max request")
	return nil
}
