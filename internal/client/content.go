package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"

	"firetechnics/site/internal/config"
	"firetechnics/site/internal/domain"
	"firetechnics/site/internal/proxy"
)

// Table names of the hosted content service.
const (
	TableFormations    = "formations"
	TableLevels        = "formation_levels"
	TableBrevets       = "brevets"
	TableGalleryImages = "gallery_images"
)

// RESTPath is the PostgREST mount point of the hosted content service.
const RESTPath = "/rest/v1/"

// ErrCircuitOpen is returned while the content service is being given time to recover.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// errRejectedFilter marks a 400 answer, which PostgREST gives for filter values of the wrong type.
var errRejectedFilter = errors.New("filter rejected by content service")

// ContentClient reads catalog records from a content backend.
type ContentClient interface {
	ListFormations(ctx context.Context, category domain.Category) ([]domain.Formation, error)
	GetFormation(ctx context.Context, id string) (*domain.Formation, error)
	ListLevels(ctx context.Context, formationID string) ([]domain.Level, error)
	ListAllFormations(ctx context.Context) ([]domain.Formation, error)
	ListAllLevels(ctx context.Context) ([]domain.Level, error)
	GetBrevets(ctx context.Context, ids []string) ([]domain.Brevet, error)
	ListBrevets(ctx context.Context) ([]domain.Brevet, error)
	ListGalleryExtras(ctx context.Context) ([]domain.GalleryExtra, error)
}

type restClient struct {
	rl         ratelimit.Limiter
	httpClient *resty.Client
	endpoints  proxy.EndpointSupplier
	schema     domain.Schema

	// Circuit breaker for throttled or failing upstream
	circuitBreakerMutex sync.RWMutex
	openUntil           time.Time
	circuitBreakerDelay time.Duration
}

// NewContentClient creates a PostgREST client for the hosted content service.
func NewContentClient(cfg config.ContentConfig, endpoints proxy.EndpointSupplier, schema domain.Schema) ContentClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Accept", "application/json")

	if cfg.APIKey != "" {
		client.SetHeader("apikey", cfg.APIKey).SetAuthToken(cfg.APIKey)
	}

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	return &restClient{
		rl:                  rl,
		httpClient:          client,
		endpoints:           endpoints,
		schema:              schema,
		circuitBreakerDelay: 30 * time.Second,
	}
}

func (c *restClient) ListFormations(ctx context.Context, category domain.Category) ([]domain.Formation, error) {
	rows, err := c.fetchRows(ctx, TableFormations, map[string]string{
		"select":   "*",
		"category": "eq." + category.String(),
		"order":    "id.asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list formations for %s: %w", category, err)
	}
	return decodeAll(rows, c.schema.Formation), nil
}

func (c *restClient) GetFormation(ctx context.Context, id string) (*domain.Formation, error) {
	rows, err := c.fetchRows(ctx, TableFormations, map[string]string{
		"select": "*",
		"id":     "eq." + id,
		"limit":  "1",
	})
	if errors.Is(err, errRejectedFilter) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get formation %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	f := c.schema.Formation(rows[0])
	return &f, nil
}

func (c *restClient) ListLevels(ctx context.Context, formationID string) ([]domain.Level, error) {
	rows, err := c.fetchRows(ctx, TableLevels, map[string]string{
		"select":       "*",
		"formation_id": "eq." + formationID,
		"order":        "display_order.asc,id.asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list levels for formation %s: %w", formationID, err)
	}
	return decodeAll(rows, c.schema.Level), nil
}

func (c *restClient) ListAllFormations(ctx context.Context) ([]domain.Formation, error) {
	rows, err := c.fetchRows(ctx, TableFormations, map[string]string{
		"select": "*",
		"order":  "id.asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list formations: %w", err)
	}
	return decodeAll(rows, c.schema.Formation), nil
}

func (c *restClient) ListAllLevels(ctx context.Context) ([]domain.Level, error) {
	rows, err := c.fetchRows(ctx, TableLevels, map[string]string{
		"select": "*",
		"order":  "formation_id.asc,display_order.asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	return decodeAll(rows, c.schema.Level), nil
}

func (c *restClient) GetBrevets(ctx context.Context, ids []string) ([]domain.Brevet, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := c.fetchRows(ctx, TableBrevets, map[string]string{
		"select": "*",
		"id":     "in.(" + strings.Join(ids, ",") + ")",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %d brevets: %w", len(ids), err)
	}
	return decodeAll(rows, c.schema.Brevet), nil
}

func (c *restClient) ListBrevets(ctx context.Context) ([]domain.Brevet, error) {
	rows, err := c.fetchRows(ctx, TableBrevets, map[string]string{
		"select": "*",
		"order":  "id.asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list brevets: %w", err)
	}
	return decodeAll(rows, c.schema.Brevet), nil
}

func (c *restClient) ListGalleryExtras(ctx context.Context) ([]domain.GalleryExtra, error) {
	rows, err := c.fetchRows(ctx, TableGalleryImages, map[string]string{
		"select": "*",
		"order":  "id.asc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list gallery images: %w", err)
	}
	return decodeAll(rows, c.schema.GalleryExtra), nil
}

func decodeAll[T any](rows []domain.Row, decode func(domain.Row) T) []T {
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, decode(r))
	}
	return out
}

// fetchRows queries one table, rotating to the next endpoint once when the current one fails.
func (c *restClient) fetchRows(ctx context.Context, table string, params map[string]string) ([]domain.Row, error) {
	if c.isCircuitBreakerOpen() {
		remaining := c.getRemainingCircuitBreakerTime()
		log.Debugf("🚫 Request blocked by circuit breaker. Remaining time: %v", remaining.Round(time.Second))
		return nil, fmt.Errorf("%w: requests disabled for %v more", ErrCircuitOpen, remaining.Round(time.Second))
	}

	attempts := 1
	if c.endpoints.Len() > 1 {
		attempts = 2
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		base := c.endpoints.Current()
		if base == "" {
			return nil, errors.New("no content endpoint configured")
		}

		rows, status, err := c.get(ctx, base+RESTPath+table, params)
		if err == nil {
			return rows, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		if status == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %v", errRejectedFilter, err)
		}
		if status == http.StatusTooManyRequests {
			log.Warnf("🚫 Content service throttled request for %s", table)
		}
		if i+1 < attempts {
			next := c.endpoints.Rotate()
			log.Infof("🔄 Switching content endpoint to %s", next)
		} else if status == http.StatusTooManyRequests {
			c.triggerCircuitBreaker()
		}
	}

	return nil, lastErr
}

func (c *restClient) get(ctx context.Context, url string, params map[string]string) ([]domain.Row, int, error) {
	c.rl.Take()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(url)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch %s: %w", url, err)
	}

	if resp.IsError() {
		return nil, resp.StatusCode(), fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	var raw []map[string]any
	if err := json.Unmarshal(resp.Bytes(), &raw); err != nil {
		return nil, resp.StatusCode(), fmt.Errorf("failed to decode response: %w", err)
	}

	rows := make([]domain.Row, 0, len(raw))
	for _, r := range raw {
		rows = append(rows, domain.Row(r))
	}
	return rows, resp.StatusCode(), nil
}

func (c *restClient) isCircuitBreakerOpen() bool {
	c.circuitBreakerMutex.RLock()
	now := time.Now()
	wasOpen := now.Before(c.openUntil)
	wasTriggered := !c.openUntil.IsZero()
	c.circuitBreakerMutex.RUnlock()

	if !wasOpen && wasTriggered {
		c.circuitBreakerMutex.Lock()
		if !c.openUntil.IsZero() && now.After(c.openUntil) {
			c.openUntil = time.Time{}
			log.Infof("✅ Circuit breaker automatically re-enabled - requests are now allowed")
		}
		c.circuitBreakerMutex.Unlock()
	}

	return wasOpen
}

func (c *restClient) triggerCircuitBreaker() {
	c.circuitBreakerMutex.Lock()
	defer c.circuitBreakerMutex.Unlock()

	c.openUntil = time.Now().Add(c.circuitBreakerDelay)
	log.Warnf("🚫 Circuit breaker activated! Content requests disabled until %v",
		c.openUntil.Format("15:04:05"))
}

func (c *restClient) getRemainingCircuitBreakerTime() time.Duration {
	c.circuitBreakerMutex.RLock()
	defer c.circuitBreakerMutex.RUnlock()

	remaining := time.Until(c.openUntil)
	if remaining < 0 {
		return 0
	}
	return remaining
}
