// Package metrics exposes chain and game activity as Prometheus collectors
// fed by committed events.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tolelom/cryptowarriors/events"
)

const namespace = "cryptowarriors"

// Metrics owns a private registry so several nodes (or tests) can coexist in
// one process.
type Metrics struct {
	registry *prometheus.Registry

	txs         *prometheus.CounterVec
	battles     prometheus.Counter
	warriors    prometheus.Counter
	warMinted   *prometheus.CounterVec
	warSpent    *prometheus.CounterVec
	sales       prometheus.Counter
	salesVolume prometheus.Counter
	listings    *prometheus.CounterVec
	height      prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		txs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Executed calls and transactions by type and outcome",
		}, []string{"type", "status"}),
		battles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "battles_total",
			Help:      "Resolved battles",
		}),
		warriors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warriors_created_total",
			Help:      "Warriors minted",
		}),
		warMinted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "war_minted_total",
			Help:      "WAR credited by purchases and rewards",
		}, []string{"source"}),
		warSpent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "war_spent_total",
			Help:      "WAR burned by game actions",
		}, []string{"reason"}),
		sales: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "market_sales_total",
			Help:      "Marketplace purchases",
		}),
		salesVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "market_volume_native_total",
			Help:      "Native units paid for marketplace purchases",
		}),
		listings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "market_listings_total",
			Help:      "Listing changes by action",
		}, []string{"action"}),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "block_height",
			Help:      "Height of the last committed block",
		}),
	}
	m.registry.MustRegister(
		m.txs, m.battles, m.warriors, m.warMinted, m.warSpent,
		m.sales, m.salesVolume, m.listings, m.height,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterGaugeFunc exposes a value sampled at scrape time, such as the
// mempool size.
func (m *Metrics) RegisterGaugeFunc(name, help string, fn func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// Subscribe feeds the collectors from emitter.
func (m *Metrics) Subscribe(emitter *events.Emitter) {
	emitter.Subscribe(events.EventTxExecuted, func(ev events.Event) {
		m.txs.WithLabelValues(str(ev, "type"), "ok").Inc()
	})
	emitter.Subscribe(events.EventTxFailed, func(ev events.Event) {
		m.txs.WithLabelValues(str(ev, "type"), str(ev, "kind")).Inc()
	})
	emitter.Subscribe(events.EventBattleResolved, func(events.Event) { m.battles.Inc() })
	emitter.Subscribe(events.EventWarriorCreated, func(events.Event) { m.warriors.Inc() })
	emitter.Subscribe(events.EventTokenPurchase, func(ev events.Event) {
		m.warMinted.WithLabelValues("purchase").Add(num(ev, "credited"))
	})
	emitter.Subscribe(events.EventTokenReward, func(ev events.Event) {
		m.warMinted.WithLabelValues("reward").Add(num(ev, "amount"))
	})
	emitter.Subscribe(events.EventTokenSpent, func(ev events.Event) {
		m.warSpent.WithLabelValues(str(ev, "reason")).Add(num(ev, "amount"))
	})
	emitter.Subscribe(events.EventListingCreated, func(events.Event) {
		m.listings.WithLabelValues("list").Inc()
	})
	emitter.Subscribe(events.EventListingRemoved, func(events.Event) {
		m.listings.WithLabelValues("delist").Inc()
	})
	emitter.Subscribe(events.EventWarriorSold, func(ev events.Event) {
		m.sales.Inc()
		m.salesVolume.Add(num(ev, "price"))
	})
	emitter.Subscribe(events.EventBlockCommit, func(ev events.Event) {
		m.height.Set(float64(ev.BlockHeight))
	})
}

func str(ev events.Event, key string) string {
	s, _ := ev.Data[key].(string)
	return s
}

func num(ev events.Event, key string) float64 {
	v, _ := ev.Data[key].(uint64)
	return float64(v)
}
