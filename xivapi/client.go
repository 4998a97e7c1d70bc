// Package xivapi resolves item and world identifiers to display names via
// the sheet API, with a short-TTL size-bounded cache in front.
package xivapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"market-alerts-go/config"
	"market-alerts-go/metrics"
)

// sheetRow 对应 /api/sheet 返回的行包装。
type sheetRow struct {
	Fields struct {
		Name string `json:"Name"`
	} `json:"fields"`
}

// Client 带缓存的名称解析器。缓存共享且并发安全，过期即失效，无显式清除接口。
type Client struct {
	baseURL    string
	httpClient *http.Client
	items      *lru.LRU[int32, string]
	worlds     *lru.LRU[int32, string]
	log        *zap.Logger
	m          *metrics.Metrics
}

// New 建立解析器；缓存大小与 TTL 来自配置（默认 500 条 / 60 秒）。
func New(cfg config.XIVAPIConfig, log *zap.Logger, m *metrics.Metrics) *Client {
	ttl := time.Duration(cfg.CacheTTLSec) * time.Second
	return &Client{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		items:  lru.NewLRU[int32, string](cfg.CacheSize, nil, ttl),
		worlds: lru.NewLRU[int32, string](cfg.CacheSize, nil, ttl),
		log:    log,
		m:      m,
	}
}

// ItemName resolves an item id to its display name.
func (c *Client) ItemName(ctx context.Context, id int32) (string, error) {
	if name, ok := c.items.Get(id); ok {
		return name, nil
	}
	name, err := c.fetch(ctx, "Item", id)
	if err != nil {
		return "", err
	}
	c.items.Add(id, name)
	return name, nil
}

// WorldName resolves a world id to its display name.
func (c *Client) WorldName(ctx context.Context, id int32) (string, error) {
	if name, ok := c.worlds.Get(id); ok {
		return name, nil
	}
	name, err := c.fetch(ctx, "World", id)
	if err != nil {
		return "", err
	}
	c.worlds.Add(id, name)
	return name, nil
}

func (c *Client) fetch(ctx context.Context, sheet string, id int32) (string, error) {
	url := fmt.Sprintf("%s/api/sheet/%s/%d?language=en&fields=Name", c.baseURL, sheet, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	c.m.XIVAPIRequests.Inc()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sheet %s/%d: %w", sheet, id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("sheet %s/%d: status=%d body=%s", sheet, id, resp.StatusCode, string(raw))
	}

	var row sheetRow
	if err := json.NewDecoder(resp.Body).Decode(&row); err != nil {
		return "", fmt.Errorf("sheet %s/%d: decode: %w", sheet, id, err)
	}
	if row.Fields.Name == "" {
		return "", fmt.Errorf("sheet %s/%d: empty name", sheet, id)
	}
	return row.Fields.Name, nil
}
