package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"
)

// GammaClient is the REST client for the Polymarket Gamma API, which
// provides market discovery and metadata.
type GammaClient struct {
	baseURL string
	rest    *restClient
}

// NewGammaClient creates a Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
// limiter gates raw requests to the Gamma host.
func NewGammaClient(baseURL string, limiter *rate.Limiter, logger *slog.Logger) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		rest:    newRestClient(limiter, logger.With(slog.String("component", "gamma_client"))),
	}
}

// ActiveMarkets returns one page of active, not-closed markets. The raw
// DTOs are returned rather than domain records because the ingestor filters
// on the embedded price list before paying for the order book fetches.
func (g *GammaClient) ActiveMarkets(ctx context.Context, limit, offset int) ([]APIMarket, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("active", "true")
	params.Set("closed", "false")

	var markets []APIMarket
	if err := g.rest.getJSON(ctx, g.baseURL+"/markets?"+params.Encode(), &markets); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get markets offset %d: %w", offset, err)
	}
	return markets, nil
}
