// Package catalog provides HTTP client utilities for publisher catalogs.
package catalog

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
)

// ClientConfig holds configuration for a publisher catalog client.
type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Retry   RetryConfig
	CB      CBConfig
}

// RetryConfig holds retry configuration.
type RetryConfig struct {
	MaxAttempts int
	WaitTime    time.Duration
	MaxWaitTime time.Duration
}

// CBConfig holds circuit breaker configuration.
type CBConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
}

// NewRestyClient creates a Resty HTTP client with retry configuration.
func NewRestyClient(cfg ClientConfig) *resty.Client {
	return resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retry.MaxAttempts).
		SetRetryWaitTime(cfg.Retry.WaitTime).
		SetRetryMaxWaitTime(cfg.Retry.MaxWaitTime).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			// Retry on network errors or 5xx status codes
			if err != nil {
				return true
			}

			return r.StatusCode() >= 500
		})
}

// NewCircuitBreaker creates a circuit breaker for a publisher catalog.
func NewCircuitBreaker[T any](name string, cfg CBConfig) *gobreaker.CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)

			return counts.Requests >= 3 && failureRatio >= cfg.FailureRatio
		},
	}

	return gobreaker.NewCircuitBreaker[T](settings)
}
