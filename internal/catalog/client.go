// Folio - Reading Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/folio/internal/config"
	"github.com/tomtom215/folio/internal/metrics"
	"github.com/tomtom215/folio/internal/models"
	"github.com/tomtom215/folio/internal/recommend"
)

// maxIDsPerRequest caps the ids sent in one GetItems call.
const maxIDsPerRequest = 100

const breakerName = "catalog-api"

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("catalog service unavailable")

// Client talks to the remote catalog service.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  zerolog.Logger
}

var (
	_ recommend.Catalog        = (*Client)(nil)
	_ recommend.ReadingHistory = (*Client)(nil)
)

type itemsResponse struct {
	Items []*models.Item `json:"items"`
}

type historyResponse struct {
	Entries []models.HistoryEntry `json:"entries"`
}

type readResponse struct {
	Read bool `json:"read"`
}

// NewClient creates a client for cfg.BaseURL.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewClient(cfg *config.CatalogConfig, logger zerolog.Logger) *Client {
	logger = logger.With().Str("component", "catalog_client").Logger()

	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	burst := max(cfg.Burst, 1)

	c := &Client{
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}

	c.http = resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return r == nil || r.Request == nil || r.Request.Context().Err() == nil
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= http.StatusInternalServerError
		}).
		OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			return c.limiter.Wait(r.Context())
		})

	threshold := cfg.BreakerFailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	c.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, recommend.ErrNotFound) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.RecordBreakerTransition(name, from.String(), to.String())
		},
	})

	return c
}

// get performs a GET of path through the breaker and decodes the body into out.
func (c *Client) get(ctx context.Context, path string, pathParams map[string]string, query url.Values, out any) error {
	_, err := c.breaker.Execute(func() (struct{}, error) {
		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParams(pathParams).
			SetQueryParamsFromValues(query).
			SetResult(out).
			Get(path)
		if err != nil {
			return struct{}{}, fmt.Errorf("catalog request %s: %w", path, err)
		}
		switch {
		case resp.StatusCode() == http.StatusNotFound:
			return struct{}{}, recommend.ErrNotFound
		case resp.IsError():
			return struct{}{}, fmt.Errorf("catalog request %s: unexpected status %d", path, resp.StatusCode())
		}
		return struct{}{}, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		c.logger.Debug().Str("path", path).Msg("catalog request rejected by breaker")
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

// GetItem implements recommend.Catalog.
func (c *Client) GetItem(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	if err := c.get(ctx, "/items/{id}", map[string]string{"id": id}, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetItems implements recommend.Catalog. Unknown ids are absent from the map.
func (c *Client) GetItems(ctx context.Context, ids []string) (map[string]*models.Item, error) {
	items := make(map[string]*models.Item, len(ids))
	for start := 0; start < len(ids); start += maxIDsPerRequest {
		end := min(start+maxIDsPerRequest, len(ids))

		var resp itemsResponse
		if err := c.get(ctx, "/items", nil, url.Values{"id": ids[start:end]}, &resp); err != nil {
			return nil, err
		}
		for _, item := range resp.Items {
			if item != nil {
				items[item.ID] = item
			}
		}
	}
	return items, nil
}

// GetItemsByCategory implements recommend.Catalog.
func (c *Client) GetItemsByCategory(ctx context.Context, names []string, limit int) ([]*models.Item, error) {
	return c.listItems(ctx, "category", names, limit)
}

// GetItemsByAuthor implements recommend.Catalog.
func (c *Client) GetItemsByAuthor(ctx context.Context, names []string, limit int) ([]*models.Item, error) {
	return c.listItems(ctx, "author", names, limit)
}

func (c *Client) listItems(ctx context.Context, field string, names []string, limit int) ([]*models.Item, error) {
	if len(names) == 0 {
		return nil, nil
	}
	query := url.Values{field: names}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp itemsResponse
	if err := c.get(ctx, "/items", nil, query, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// GetPopularItems implements recommend.Catalog.
func (c *Client) GetPopularItems(ctx context.Context, limit int, excludeIDs []string) ([]*models.Item, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if len(excludeIDs) > 0 {
		query["exclude"] = excludeIDs
	}
	var resp itemsResponse
	if err := c.get(ctx, "/items/popular", nil, query, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// GetUserHistory implements recommend.ReadingHistory. A user unknown to the
// service has an empty history.
func (c *Client) GetUserHistory(ctx context.Context, userID string, limit int) ([]models.HistoryEntry, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	return c.history(ctx, userID, query)
}

// GetCompletedItems implements recommend.ReadingHistory.
func (c *Client) GetCompletedItems(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	return c.history(ctx, userID, url.Values{"status": {string(models.ReadingStatusCompleted)}})
}

func (c *Client) history(ctx context.Context, userID string, query url.Values) ([]models.HistoryEntry, error) {
	var resp historyResponse
	err := c.get(ctx, "/users/{user}/history", map[string]string{"user": userID}, query, &resp)
	if errors.Is(err, recommend.ErrNotFound) {
		return []models.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	if resp.Entries == nil {
		resp.Entries = []models.HistoryEntry{}
	}
	return resp.Entries, nil
}

// HasUserRead implements recommend.ReadingHistory.
func (c *Client) HasUserRead(ctx context.Context, userID, itemID string) (bool, error) {
	var resp readResponse
	err := c.get(ctx, "/users/{user}/history/{item}",
		map[string]string{"user": userID, "item": itemID}, nil, &resp)
	if errors.Is(err, recommend.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return resp.Read, nil
}

// BreakerState returns the breaker state name, for health reporting.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}
