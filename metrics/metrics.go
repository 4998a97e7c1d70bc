// Package metrics provides Prometheus metrics for the alert pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "market_alerts"

// Metrics 持有流水线各阶段的计数器，按依赖注入传给各组件。
type Metrics struct {
	WSConnected     prometheus.Gauge
	WSReconnects    prometheus.Counter
	TransportErrors prometheus.Counter
	DecodeErrors    prometheus.Counter
	FramesReceived  prometheus.Counter
	FramesDropped   prometheus.Counter
	StoreErrors     prometheus.Counter
	RowsSkipped     prometheus.Counter
	Evaluations     prometheus.Counter
	Matches         prometheus.Counter
	Deliveries      prometheus.Counter
	DeliveryErrors  prometheus.Counter
	XIVAPIRequests  prometheus.Counter
}

// New registers the pipeline collectors against reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		WSConnected: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "ws_connected",
			Help: "1 while the feed websocket is connected.",
		}),
		WSReconnects: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ws_reconnects_total",
			Help: "Feed reconnect attempts after a lost connection.",
		}),
		TransportErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ws_transport_errors_total",
			Help: "Dial, subscribe and read errors on the feed connection.",
		}),
		DecodeErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "decode_errors_total",
			Help: "Inbound frames that failed BSON decoding.",
		}),
		FramesReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "frames_received_total",
			Help: "Successfully decoded market event frames.",
		}),
		FramesDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "frames_dropped_total",
			Help: "Frames dropped before dispatch (decode or fetch failure).",
		}),
		StoreErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "store_errors_total",
			Help: "Alert store fetch failures.",
		}),
		RowsSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "store_rows_skipped_total",
			Help: "Alert rows skipped because their trigger JSON failed to parse.",
		}),
		Evaluations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "trigger_evaluations_total",
			Help: "Trigger evaluations performed.",
		}),
		Matches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "trigger_matches_total",
			Help: "Trigger evaluations that produced a match.",
		}),
		Deliveries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "deliveries_total",
			Help: "Notifications delivered to a webhook.",
		}),
		DeliveryErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "delivery_errors_total",
			Help: "Notification deliveries that failed.",
		}),
		XIVAPIRequests: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "xivapi_requests_total",
			Help: "Upstream metadata sheet requests (cache misses).",
		}),
	}
}

// NewNop returns collectors bound to a throwaway registry, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// StartMetricsServer 启动Prometheus指标服务器
func StartMetricsServer(addr string) {
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		_ = http.ListenAndServe(addr, nil)
	}()
}
