package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// ratesFeedResponse is the document returned by the external reference-rate
// provider: ISO code → units per USD.
type ratesFeedResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// RatesFeedClient fetches reference rates from an external HTTP provider.
// Only the reference rate is ever sourced externally; buy/sell spreads stay
// operator-controlled.
type RatesFeedClient struct {
	feedURL    string
	httpClient *http.Client
}

func NewRatesFeedClient(feedURL string) *RatesFeedClient {
	return &RatesFeedClient{
		feedURL:    feedURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// FetchReferenceRates returns the provider's current units-per-USD map.
func (c *RatesFeedClient) FetchReferenceRates(ctx context.Context) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ratesfeed: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ratesfeed: provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ratesfeed: provider returned %d", resp.StatusCode)
	}

	var result ratesFeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("ratesfeed: decode response: %w", err)
	}
	if result.Base != "" && result.Base != "USD" {
		return nil, fmt.Errorf("ratesfeed: unexpected base currency %q", result.Base)
	}
	return result.Rates, nil
}
