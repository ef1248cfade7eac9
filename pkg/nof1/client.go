package nof1

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const accountTotalsPath = "/account-totals"

// Client fetches position data from the nof1.ai API. Requests are
// rate-limited so a short monitoring interval cannot hammer the upstream.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	logger  *logrus.Logger
}

func NewClient(baseURL string, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	// Callers sometimes configure the full endpoint; normalize to the base.
	baseURL = strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), accountTotalsPath)

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		SetRetryAfter(func(client *resty.Client, resp *resty.Response) (time.Duration, error) {
			if resp.StatusCode() == 429 {
				if retryAfter := resp.Header().Get("Retry-After"); retryAfter != "" {
					if wait, err := time.ParseDuration(retryAfter + "s"); err == nil {
						return wait, nil
					}
				}
				return 10 * time.Second, nil
			}
			return 0, nil
		})

	return &Client{
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
		logger:  logger,
	}
}

// FetchAccountTotals fetches the current position snapshot for all models.
func (c *Client) FetchAccountTotals(ctx context.Context) (*AccountTotals, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var totals AccountTotals
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetResult(&totals).
		Get(accountTotalsPath)
	if err != nil {
		return nil, fmt.Errorf("fetching account totals: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("fetching account totals: unexpected status %d", resp.StatusCode())
	}

	c.logger.WithField("models", len(totals.Positions)).Debug("Fetched account totals")
	return &totals, nil
}
