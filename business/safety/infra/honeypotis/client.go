// Package honeypotis implements the HoneypotChecker port against the
// honeypot.is simulation API.
package honeypotis

import (
	"context"
	"fmt"
	"strconv"
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

// Ensure Client implements HoneypotChecker.
var _ app.HoneypotChecker = (*Client)(nil)

// response mirrors the fields of the v2/IsHoneypot payload we consume.
type response struct {
	HoneypotResult struct {
		IsHoneypot bool `json:"isHoneypot"`
	} `json:"honeypotResult"`
	SimulationResult struct {
		BuyTax  float64 `json:"buyTax"`
		SellTax float64 `json:"sellTax"`
	} `json:"simulationResult"`
	Flags []string `json:"flags"`
}

// Client calls the honeypot.is API with a shared rate limit.
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

// NewClient creates a honeypot.is client.
func NewClient(cfg ClientConfig, log logger.LoggerInterface) (*Client, error) {
	httpc, err := httpclient.NewInstrumentedClient(
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithProviderName("honeypotis"),
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

// Check simulates a buy and sell of the token. Transport errors and
// non-2xx responses surface as HONEYPOT_API_ERROR so the caller can
// treat them as inconclusive.
func (c *Client) Check(ctx context.Context, chainID uint64, token common.Address) (*domain.HoneypotReport, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperror.New(apperror.CodeHoneypotAPIError,
			apperror.WithCause(err),
			apperror.WithContext("rate limiter wait"))
	}

	var payload response
	resp, err := c.http.NewRequest().
		SetQueryParam("address", token.Hex()).
		SetQueryParam("chainID", strconv.FormatUint(chainID, 10)).
		SetResult(&payload).
		Get(ctx, "/v2/IsHoneypot")
	if err != nil {
		return nil, apperror.New(apperror.CodeHoneypotAPIError,
			apperror.WithCause(err),
			apperror.WithContext("honeypot.is request failed"))
	}
	if !resp.IsSuccess() {
		return nil, apperror.New(apperror.CodeHoneypotAPIError,
			apperror.WithContext(fmt.Sprintf("honeypot.is returned %d", resp.StatusCode)))
	}

	report := &domain.HoneypotReport{
		IsHoneypot: payload.HoneypotResult.IsHoneypot,
		BuyTaxPct:  decimal.NewFromFloat(payload.SimulationResult.BuyTax),
		SellTaxPct: decimal.NewFromFloat(payload.SimulationResult.SellTax),
		Flags:      payload.Flags,
	}

	c.logger.Debug(ctx, "honeypot check",
		"token", token.Hex(),
		"chain_id", chainID,
		"is_honeypot", report.IsHoneypot,
		"buy_tax", report.BuyTaxPct.StringFixed(2),
		"sell_tax", report.SellTaxPct.StringFixed(2),
	)

	return report, nil
}
