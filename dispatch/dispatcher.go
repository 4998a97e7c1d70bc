// Package dispatch renders matched triggers into Discord notifications and
// delivers them, one webhook call per alert.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"market-alerts-go/market"
	"market-alerts-go/metrics"
	"market-alerts-go/trigger"
)

// NameResolver 解析展示名称（由 xivapi 实现）。
type NameResolver interface {
	ItemName(ctx context.Context, id int32) (string, error)
	WorldName(ctx context.Context, id int32) (string, error)
}

// Dispatcher 负责单条告警的渲染与投递。
type Dispatcher struct {
	resolver   NameResolver
	httpClient *http.Client
	log        *zap.Logger
	m          *metrics.Metrics
}

// New 建立投递器。
func New(resolver NameResolver, log *zap.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		resolver: resolver,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
		m:   m,
	}
}

// Dispatch resolves display names, renders the notification and posts it to
// the alert's webhook. An alert without a webhook is a no-op success; the
// trigger still evaluated and was counted upstream.
func (d *Dispatcher) Dispatch(ctx context.Context, itemID, worldID int32, alert trigger.UserAlert, trg *trigger.Trigger, value float64) error {
	if alert.DiscordWebhook == "" {
		return nil
	}

	itemName, err := d.resolver.ItemName(ctx, itemID)
	if err != nil {
		return fmt.Errorf("resolve item %d: %w", itemID, err)
	}
	worldName, err := d.resolver.WorldName(ctx, worldID)
	if err != nil {
		return fmt.Errorf("resolve world %d: %w", worldID, err)
	}

	payload := renderPayload(itemID, itemName, worldName, trg, value)
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, alert.DiscordWebhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("deliver webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook rejected: status=%d body=%s", resp.StatusCode, string(raw))
	}

	d.m.Deliveries.Inc()
	d.log.Info("notification delivered",
		zap.String("alert", alert.Name),
		zap.String("item", itemName),
		zap.String("world", worldName),
		zap.Float64("value", value))
	return nil
}

func renderPayload(itemID int32, itemName, worldName string, trg *trigger.Trigger, value float64) WebhookPayload {
	marketURL := market.URL(itemID)
	title := fmt.Sprintf("Alert triggered for %s on %s", itemName, worldName)
	description := fmt.Sprintf(
		"One of your alerts has been triggered for the following reason(s):\n```c\n%s\n\nValue: %v```\nYou can view the item page on Universalis by clicking [this link](%s).",
		trg, value, marketURL)
	return WebhookPayload{
		Embeds: []Embed{{
			URL:         marketURL,
			Title:       title,
			Description: description,
			Color:       embedColor,
			Footer:      EmbedFooter{Text: footerText, IconURL: footerIconURL},
			Author:      EmbedAuthor{Name: authorName, IconURL: authorIconURL},
		}},
	}
}
