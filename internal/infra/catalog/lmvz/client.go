// Package lmvz implements the Lehrmittelverlag Zürich catalog client.
package lmvz

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"lehrmarkt-service/internal/domain"
	"lehrmarkt-service/internal/infra/catalog"
)

// Endpoint is the API path for the LMVZ catalog listing.
const Endpoint = "/api/v1/lehrmittel"

// Client implements domain.CatalogProvider for LMVZ.
type Client struct {
	name   string
	client *resty.Client
	cb     *gobreaker.CircuitBreaker[*resty.Response]
	logger *zap.Logger
}

// New creates an LMVZ catalog client.
func New(cfg catalog.ClientConfig, logger *zap.Logger) *Client {
	return &Client{
		name:   "lmvz",
		client: catalog.NewRestyClient(cfg),
		cb:     catalog.NewCircuitBreaker[*resty.Response]("lmvz", cfg.CB),
		logger: logger,
	}
}

// Name returns the publisher identifier.
func (c *Client) Name() string {
	return c.name
}

// Fetch retrieves the full Lehrmittel catalog from LMVZ.
func (c *Client) Fetch(ctx context.Context) ([]*domain.Lehrmittel, error) {
	resp, err := c.cb.Execute(func() (*resty.Response, error) {
		var result Response
		r, err := c.client.R().
			SetContext(ctx).
			SetResult(&result).
			Get(Endpoint)
		if err != nil {
			return nil, err
		}
		if r.IsError() {
			return nil, fmt.Errorf("lmvz returned status %d", r.StatusCode())
		}

		return r, nil
	})

	if err != nil {
		c.logger.Warn("lmvz fetch failed",
			zap.Error(err),
			zap.String("state", c.cb.State().String()),
		)

		return nil, fmt.Errorf("fetching from lmvz: %w", err)
	}

	result := resp.Result().(*Response)
	entries := make([]*domain.Lehrmittel, 0, len(result.Lehrmittel))
	for _, item := range result.Lehrmittel {
		// Entries no longer in print stay out of the filter taxonomy.
		if !item.Lieferbar {
			continue
		}
		entries = append(entries, item.ToDomain(c.name))
	}

	c.logger.Info("lmvz fetch completed",
		zap.Int("count", len(entries)),
		zap.Int("total", result.Total),
	)

	return entries, nil
}

// HealthCheck verifies the LMVZ API is accessible.
func (c *Client) HealthCheck(ctx context.Context) error {
	resp, err := c.client.R().
		SetContext(ctx).
		Get("/health")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("health check returned status %d", resp.StatusCode())
	}

	return nil
}
