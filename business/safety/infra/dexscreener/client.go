// Package dexscreener implements the LiquidityChecker port against the
// Dexscreener token-pairs API.
package dexscreener

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/dpolo-eth/flasharb/business/safety/app"
	"github.com/dpolo-eth/flasharb/business/safety/domain"
	"github.com/dpolo-eth/flasharb/internal/apperror"
	"github.com/dpolo-eth/flasharb/internal/httpclient"
	"github.com/dpolo-eth/flasharb/internal/logger"
	"github.com/dpolo-eth/flasharb/internal/ratelimit"
)

// Ensure Client implements LiquidityChecker.
var _ app.LiquidityChecker = (*Client)(nil)

// response mirrors the fields of the tokens payload we consume.
type response struct {
	Pairs []struct {
		Liquidity struct {
			USD float64 `json:"usd"`
		} `json:"liquidity"`
		Volume struct {
			H24 float64 `json:"h24"`
		} `json:"volume"`
	} `json:"pairs"`
}

// Client calls the Dexscreener API with a shared rate limit.
type Client struct {
	http    httpclient.Client
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface
}

// ClientConfig holds the API endpoint and throttling settings.
type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RequestsPerMin int
}

// NewClient creates a Dexscreener client.
func NewClient(cfg ClientConfig, log logger.LoggerInterface) (*Client, error) {
	httpc, err := httpclient.NewInstrumentedClient(
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithProviderName("dexscreener"),
		httpclient.WithRequestTimeout(cfg.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}

	return &Client{
		http:    httpc,
		limiter: ratelimit.New(cfg.RequestsPerMin),
		logger:  log,
	}, nil
}

// Liquidity sums USD liquidity and 24h volume across every pair
// Dexscreener knows for the token. A token absent from the API comes
// back with zero pairs and zero liquidity, which the filter treats as
// untradeable.
func (c *Client) Liquidity(ctx context.Context, token common.Address) (*domain.LiquidityReport, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperror.New(apperror.CodeLiquidityAPIError,
			apperror.WithCause(err),
			apperror.WithContext("rate limiter wait"))
	}

	var payload response
	resp, err := c.http.NewRequest().
		SetResult(&payload).
		Get(ctx, "/latest/dex/tokens/"+token.Hex())
	if err != nil {
		return nil, apperror.New(apperror.CodeLiquidityAPIError,
			apperror.WithCause(err),
			apperror.WithContext("dexscreener request failed"))
	}
	if !resp.IsSuccess() {
		return nil, apperror.New(apperror.CodeLiquidityAPIError,
			apperror.WithContext(fmt.Sprintf("dexscreener returned %d", resp.StatusCode)))
	}

	total := decimal.Zero
	volume := decimal.Zero
	for _, pair := range payload.Pairs {
		total = total.Add(decimal.NewFromFloat(pair.Liquidity.USD))
		volume = volume.Add(decimal.NewFromFloat(pair.Volume.H24))
	}

	report := &domain.LiquidityReport{
		TotalLiquidityUSD: total,
		Volume24hUSD:      volume,
		PairCount:         len(payload.Pairs),
	}

	c.logger.Debug(ctx, "liquidity check",
		"token", token.Hex(),
		"pairs", report.PairCount,
		"liquidity_usd", total.StringFixed(0),
		"volume_24h_usd", volume.StringFixed(0),
	)

	return report, nil
}
