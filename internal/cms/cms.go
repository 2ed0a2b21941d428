package cms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jaimytreling/AlgoMart/config"
	"github.com/jaimytreling/AlgoMart/internal/cache"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// CollectibleTemplate is the CMS display metadata for a collectible
type CollectibleTemplate struct {
	ID       uuid.UUID `json:"id"`
	Slug     string    `json:"slug"`
	Title    string    `json:"title"`
	ImageURL string    `json:"image_url"`
}

// PackTemplate is the CMS display metadata for a sellable pack
type PackTemplate struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Published bool      `json:"published"`
}

// Client reads display metadata from the content service. Responses are
// cached in Redis; the content service is never mutated from here.
type Client struct {
	baseURL     string
	accessToken string
	cacheTTL    time.Duration
	cache       *cache.RedisCache
	httpClient  *http.Client
}

// NewClient creates a new content client
func NewClient(cfg config.CMSConfig, redisCache *cache.RedisCache) *Client {
	return &Client{
		baseURL:     strings.TrimRight(cfg.URL, "/"),
		accessToken: cfg.AccessToken,
		cacheTTL:    cfg.CacheTTL,
		cache:       redisCache,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "failed to build content request")
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "content request %s failed", path)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return errors.Errorf("content item not found: %s", path)
	}
	if res.StatusCode >= 400 {
		data, _ := io.ReadAll(res.Body)
		return errors.Errorf("content request %s returned %d: %s", path, res.StatusCode, string(data))
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return errors.Wrap(err, "failed to decode content response")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return errors.Wrap(err, "failed to unmarshal content item")
	}
	return nil
}

func (c *Client) getCached(ctx context.Context, cacheKey, path string, out interface{}) error {
	if c.cache.Enabled() {
		if err := c.cache.Get(ctx, cacheKey, out); err == nil {
			return nil
		}
	}

	if err := c.get(ctx, path, out); err != nil {
		return err
	}

	if c.cache.Enabled() {
		if err := c.cache.Set(ctx, cacheKey, out, c.cacheTTL); err != nil {
			log.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache content item")
		}
	}
	return nil
}

// GetCollectibleTemplate returns the display metadata for a collectible
func (c *Client) GetCollectibleTemplate(ctx context.Context, id uuid.UUID) (*CollectibleTemplate, error) {
	var template CollectibleTemplate
	key := "cms:collectible:" + id.String()
	if err := c.getCached(ctx, key, "/items/collectibles/"+id.String(), &template); err != nil {
		return nil, err
	}
	return &template, nil
}

// GetPackTemplate returns the display metadata for a pack
func (c *Client) GetPackTemplate(ctx context.Context, id uuid.UUID) (*PackTemplate, error) {
	var template PackTemplate
	key := "cms:pack:" + id.String()
	if err := c.getCached(ctx, key, "/items/packs/"+id.String(), &template); err != nil {
		return nil, err
	}
	return &template, nil
}

// ListPublishedPackTemplates returns all pack templates available for sale.
// Not cached: pack generation needs the current publication state.
func (c *Client) ListPublishedPackTemplates(ctx context.Context) ([]PackTemplate, error) {
	var templates []PackTemplate
	if err := c.get(ctx, "/items/packs?filter[published][_eq]=true", &templates); err != nil {
		return nil, err
	}
	return templates, nil
}
