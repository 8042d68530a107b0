// Package metrics exposes an entity's transaction counters as
// Prometheus metrics. It generalizes the teacher's pkg/exporter
// TCPInfoCollector — a mutex-guarded map of live connections paired
// with a fixed list of (*prometheus.Desc, supplier) entries — to a
// mutex-guarded set of per-entity counters updated as transactions are
// created, retried and completed, rather than sampled from a kernel
// struct on every scrape.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ccsds-cfdp/gocfdp/entity"
	"github.com/ccsds-cfdp/gocfdp/pdu"
)

// Collector implements prometheus.Collector over one entity.Engine's
// transaction activity. Values are pushed in by the caller through
// Observe* hooks (wired to entity.Observers in cmd/cfdpd) rather than
// pulled from engine state on every Collect, since a terminal
// transaction is already removed from the engine's registry by the
// time a scrape runs.
type Collector struct {
	entityID string

	transactionsStarted  prometheus.Counter
	transactionsSucceeded prometheus.Counter
	transactionsFailed    *prometheus.CounterVec
	bytesSent             prometheus.Counter
	bytesReceived         prometheus.Counter
	nakRetries            prometheus.Counter
	activeTransactions    prometheus.Gauge
}

// New constructs a Collector labeled with the owning entity's id.
// Register it with a prometheus.Registry the same way cmd/cfdpd wires
// up its separate /metrics server.
func New(entityID pdu.EntityID) *Collector {
	idStr := strconv.FormatUint(uint64(entityID), 10)
	constLabels := prometheus.Labels{"entity_id": idStr}
	return &Collector{
		entityID: idStr,
		transactionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cfdp_transactions_started_total",
			Help:        "CFDP transactions created by this entity, either as originator or as inferred receiver.",
			ConstLabels: constLabels,
		}),
		transactionsSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cfdp_transactions_succeeded_total",
			Help:        "CFDP transactions that reached a successful terminal state.",
			ConstLabels: constLabels,
		}),
		transactionsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "cfdp_transactions_failed_total",
			Help:        "CFDP transactions that reached a terminal state other than full success, labeled by condition code.",
			ConstLabels: constLabels,
		}, []string{"condition_code"}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cfdp_bytes_sent_total",
			Help:        "Encoded PDU octets sent across all transactions.",
			ConstLabels: constLabels,
		}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cfdp_bytes_received_total",
			Help:        "Encoded PDU octets received across all transactions.",
			ConstLabels: constLabels,
		}),
		nakRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cfdp_nak_retries_total",
			Help:        "Timer-driven NAK rounds counted against max_nak_retries.",
			ConstLabels: constLabels,
		}),
		activeTransactions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "cfdp_active_transactions",
			Help:        "Transactions currently registered with the entity engine.",
			ConstLabels: constLabels,
		}),
	}
}

func (c *Collector) Describe(descs chan<- *prometheus.Desc) {
	c.transactionsStarted.Describe(descs)
	c.transactionsSucceeded.Describe(descs)
	c.transactionsFailed.Describe(descs)
	c.bytesSent.Describe(descs)
	c.bytesReceived.Describe(descs)
	c.nakRetries.Describe(descs)
	c.activeTransactions.Describe(descs)
}

func (c *Collector) Collect(metrics chan<- prometheus.Metric) {
	c.transactionsStarted.Collect(metrics)
	c.transactionsSucceeded.Collect(metrics)
	c.transactionsFailed.Collect(metrics)
	c.bytesSent.Collect(metrics)
	c.bytesReceived.Collect(metrics)
	c.nakRetries.Collect(metrics)
	c.activeTransactions.Collect(metrics)
}

// ObserveCreated records a newly registered transaction.
func (c *Collector) ObserveCreated(id pdu.TransactionID) {
	c.transactionsStarted.Inc()
	c.activeTransactions.Inc()
}

// ObserveCompleted records a transaction leaving the registry, tallying
// it as a success or as a failure labeled by its condition code.
func (c *Collector) ObserveCompleted(id pdu.TransactionID, result entity.TransactionResult) {
	c.activeTransactions.Dec()
	if result.Success {
		c.transactionsSucceeded.Inc()
	} else {
		c.transactionsFailed.WithLabelValues(result.ConditionCode.String()).Inc()
	}
}

// ObserveBytesSent adds n octets of outbound encoded PDU.
func (c *Collector) ObserveBytesSent(n uint64) { c.bytesSent.Add(float64(n)) }

// ObserveBytesReceived adds n octets of inbound encoded PDU.
func (c *Collector) ObserveBytesReceived(n uint64) { c.bytesReceived.Add(float64(n)) }

// ObserveNakRetry records one NAK-retransmission cycle.
func (c *Collector) ObserveNakRetry() { c.nakRetries.Inc() }
