package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jaimytreling/AlgoMart/config"

	"github.com/pkg/errors"
)

// Client queries the external payment processor. Only card status lookups
// are consumed here; tokenization is handled entirely by the processor.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new payment client
func NewClient(cfg config.PaymentConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GetCardStatus returns the processor-side status of a card
func (c *Client) GetCardStatus(ctx context.Context, externalID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/cards/"+externalID, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to build payment request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "payment card status request failed")
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		data, _ := io.ReadAll(res.Body)
		return "", errors.Errorf("payment card status request returned %d: %s", res.StatusCode, string(data))
	}

	var envelope struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return "", errors.Wrap(err, "failed to decode payment response")
	}
	return envelope.Data.Status, nil
}
