// Package metrics exposes the engine's own Prometheus metrics: account
// equity and margin gauges plus counters for trades closed and orders
// triggered. A Collector is a sim.Listener, so wiring it into an
// Account is a call to Account.SetListener.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a dedicated registry so metrics from multiple
// backtest runs in the same process never collide on the default
// global registry.
type Collector struct {
	Registry *prometheus.Registry

	nav         prometheus.Gauge
	balance     prometheus.Gauge
	marginUsed  prometheus.Gauge
	marginLevel prometheus.Gauge

	tradesClosed    *prometheus.CounterVec
	ordersTriggered *prometheus.CounterVec
}

// New builds and registers the engine's metric set.
func New() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		Registry: reg,

		nav: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "iridium_account_nav",
			Help: "Net asset value of the simulated account.",
		}),
		balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "iridium_account_balance",
			Help: "Realized balance of the simulated account.",
		}),
		marginUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "iridium_account_margin_used",
			Help: "Margin currently reserved by open trades.",
		}),
		marginLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "iridium_account_margin_level_pct",
			Help: "NAV as a percentage of margin used.",
		}),
		tradesClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iridium_trades_closed_total",
			Help: "Trades closed, labeled by close reason.",
		}, []string{"reason"}),
		ordersTriggered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "iridium_orders_triggered_total",
			Help: "Trigger orders (take-profit/stop-loss/trailing-stop) fired, labeled by kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(c.nav, c.balance, c.marginUsed, c.marginLevel, c.tradesClosed, c.ordersTriggered)
	return c
}

// UpdateAccount sets the account gauges from a snapshot.
func (c *Collector) UpdateAccount(nav, balance, marginUsed, marginLevel float64) {
	c.nav.Set(nav)
	c.balance.Set(balance)
	c.marginUsed.Set(marginUsed)
	c.marginLevel.Set(marginLevel)
}

// OnTradeClosed implements sim.Listener, counting closes by reason.
// Trigger-order reasons ("TakeProfit", "StopLoss", "TrailingStop") are
// also counted against ordersTriggered so dashboards can separate
// "why did the trade end" from "how many stops actually fired".
func (c *Collector) OnTradeClosed(tradeID, reason string) {
	c.tradesClosed.WithLabelValues(reason).Inc()
	switch reason {
	case "TakeProfit", "StopLoss", "TrailingStop":
		c.ordersTriggered.WithLabelValues(reason).Inc()
	}
}

// Handler returns the promhttp handler serving this Collector's
// registry in Prometheus text exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})
}
