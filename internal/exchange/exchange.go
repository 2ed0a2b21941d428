package exchange

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jaimytreling/AlgoMart/config"

	"github.com/pkg/errors"
)

// Client looks up spot exchange rates from an external rate source
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new exchange-rate client
func NewClient(cfg config.ExchangeConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetRate returns the spot rate converting one unit of source currency into
// target currency.
func (c *Client) GetRate(ctx context.Context, source, target string) (float64, error) {
	url := c.baseURL + "/v2/exchange-rates?currency=" + source
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to build exchange request")
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "exchange rate request failed")
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		data, _ := io.ReadAll(res.Body)
		return 0, errors.Errorf("exchange rate request returned %d: %s", res.StatusCode, string(data))
	}

	var envelope struct {
		Data struct {
			Currency string            `json:"currency"`
			Rates    map[string]string `json:"rates"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return 0, errors.Wrap(err, "failed to decode exchange response")
	}

	raw, ok := envelope.Data.Rates[target]
	if !ok {
		return 0, errors.Errorf("no rate available for %s -> %s", source, target)
	}

	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid rate for %s -> %s", source, target)
	}
	return rate, nil
}
