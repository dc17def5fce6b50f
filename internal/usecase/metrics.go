package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the risk-control loop. Scraped via /metrics.

var monitorTicks = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "riskguard",
		Subsystem: "monitor",
		Name:      "ticks_total",
		Help:      "Total number of position monitor ticks",
	},
)

var positionFetchFailures = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "riskguard",
		Subsystem: "monitor",
		Name:      "fetch_failures_total",
		Help:      "Total number of failed position polls (tick skipped)",
	},
)

var autoLiquidations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "riskguard",
		Subsystem: "monitor",
		Name:      "auto_liquidations_total",
		Help:      "Total number of auto-liquidation close requests issued",
	},
	[]string{"symbol", "result"}, // result: success, failed
)

var lossWarnings = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "riskguard",
		Subsystem: "monitor",
		Name:      "loss_warnings_total",
		Help:      "Total number of approaching-loss-cap warnings emitted",
	},
	[]string{"symbol"},
)

var ordersSubmitted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "riskguard",
		Subsystem: "orders",
		Name:      "submissions_total",
		Help:      "Total number of order submission attempts",
	},
	[]string{"result"}, // result: success, rejected, failed
)

var cooldownTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "riskguard",
		Subsystem: "cooldown",
		Name:      "transitions_total",
		Help:      "Total number of cooldown state transitions",
	},
	[]string{"state"}, // state: active, inactive
)
