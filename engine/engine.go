// Package engine drives the per-frame pipeline: fetch candidate alerts,
// evaluate their triggers against the frame's listings, and fan out matched
// notifications with per-alert failure isolation.
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"market-alerts-go/market"
	"market-alerts-go/metrics"
	"market-alerts-go/store"
	"market-alerts-go/trigger"
)

// AlertSource 提供 (world, item) 下的候选告警。
type AlertSource interface {
	AlertsForWorldItem(ctx context.Context, worldID, itemID int32) ([]store.Candidate, error)
}

// Dispatcher 投递单条匹配的告警。
type Dispatcher interface {
	Dispatch(ctx context.Context, itemID, worldID int32, alert trigger.UserAlert, trg *trigger.Trigger, value float64) error
}

// Engine 实现 gateway.Handler。帧间并发处理、帧内告警并发投递，
// 并发度由加权信号量限制；maxInFlight 为 1 时退化为严格顺序。
type Engine struct {
	alerts          AlertSource
	dispatcher      Dispatcher
	sem             *semaphore.Weighted
	dispatchTimeout time.Duration
	log             *zap.Logger
	m               *metrics.Metrics
	wg              sync.WaitGroup
}

// New 建立流水线引擎。
func New(alerts AlertSource, dispatcher Dispatcher, maxInFlight int, dispatchTimeout time.Duration, log *zap.Logger, m *metrics.Metrics) *Engine {
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	return &Engine{
		alerts:          alerts,
		dispatcher:      dispatcher,
		sem:             semaphore.NewWeighted(int64(maxInFlight)),
		dispatchTimeout: dispatchTimeout,
		log:             log,
		m:               m,
	}
}

// HandleEvent admits the frame into the pipeline. It blocks the read loop
// only when maxInFlight frames are already being processed, which bounds
// resource growth under burst load.
func (e *Engine) HandleEvent(ctx context.Context, ev market.Event) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.sem.Release(1)
		e.process(ctx, ev)
	}()
}

// Drain waits for all in-flight frames to finish; called on shutdown.
func (e *Engine) Drain() {
	e.wg.Wait()
}

func (e *Engine) process(ctx context.Context, ev market.Event) {
	candidates, err := e.alerts.AlertsForWorldItem(ctx, ev.WorldID, ev.ItemID)
	if err != nil {
		// Store unreachable: skip this frame, keep streaming.
		e.m.StoreErrors.Inc()
		e.m.FramesDropped.Inc()
		e.log.Warn("alert fetch failed, skipping frame",
			zap.Int32("world", ev.WorldID),
			zap.Int32("item", ev.ItemID),
			zap.Error(err))
		return
	}

	var wg sync.WaitGroup
	for _, c := range candidates {
		e.m.Evaluations.Inc()
		value, ok := c.Trigger.Evaluate(ev.Listings)
		if !ok {
			continue
		}
		e.m.Matches.Inc()

		wg.Add(1)
		go func(c store.Candidate, value float64) {
			defer wg.Done()
			dctx, cancel := context.WithTimeout(ctx, e.dispatchTimeout)
			defer cancel()
			if err := e.dispatcher.Dispatch(dctx, ev.ItemID, ev.WorldID, c.Alert, c.Trigger, value); err != nil {
				e.m.DeliveryErrors.Inc()
				e.log.Warn("notification delivery failed",
					zap.String("alert", c.Alert.Name),
					zap.Int32("item", ev.ItemID),
					zap.Error(err))
			}
		}(c, value)
	}
	wg.Wait()
}
