package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"market-alerts-go/metrics"
	"market-alerts-go/trigger"
)

const (
	// wildcardItemID 哨兵值：该行对任意物品生效。
	wildcardItemID = -1

	// Supported stored trigger schema versions; rows outside the range are
	// filtered server-side.
	minTriggerVersion = 1
	maxTriggerVersion = 1
)

// Candidate 是一条待评估的告警：用户设置 + 解析后的规则。
type Candidate struct {
	Alert   trigger.UserAlert
	Trigger *trigger.Trigger
}

// Alerts 提供 users_alerts 表的只读存取。
type Alerts struct {
	db  *sql.DB
	log *zap.Logger
	m   *metrics.Metrics
}

// NewAlerts 建立告警查询实例。
func NewAlerts(db *sql.DB, log *zap.Logger, m *metrics.Metrics) *Alerts {
	return &Alerts{db: db, log: log, m: m}
}

// AlertsForWorldItem fetches alerts scoped to (world, item) plus wildcard
// rows. A row whose stored trigger JSON fails to parse is logged, counted and
// skipped; one corrupt rule never blocks delivery of valid ones.
func (a *Alerts) AlertsForWorldItem(ctx context.Context, worldID, itemID int32) ([]Candidate, error) {
	const q = `
SELECT name, discord_webhook, trigger
FROM users_alerts
WHERE world_id = $1
  AND (item_id = $2 OR item_id = $3)
  AND trigger_version BETWEEN $4 AND $5;
`
	rows, err := a.db.QueryContext(ctx, q,
		worldID, itemID, wildcardItemID, minTriggerVersion, maxTriggerVersion)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var (
			name    string
			webhook sql.NullString
			raw     []byte
		)
		if err := rows.Scan(&name, &webhook, &raw); err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		trg, err := trigger.Parse(raw)
		if err != nil {
			a.m.RowsSkipped.Inc()
			a.log.Warn("skipping alert with malformed trigger",
				zap.String("alert", name),
				zap.Error(err))
			continue
		}
		out = append(out, Candidate{
			Alert:   trigger.UserAlert{Name: name, DiscordWebhook: webhook.String},
			Trigger: trg,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert rows: %w", err)
	}
	return out, nil
}
