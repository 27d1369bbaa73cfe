// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Poller metrics
	BlocksProcessed  prometheus.Counter
	HeadHeight       prometheus.Gauge
	PollErrors       prometheus.Counter
	LoopRestarts     prometheus.Counter
	WSReconnects     prometheus.Counter
	BlockProcessTime prometheus.Histogram

	// Pipeline metrics
	TxsEvaluated     prometheus.Counter
	ApprovalsDecoded prometheus.Counter
	DedupHits        prometheus.Counter
	BlacklistHits    prometheus.Counter
	EvalErrors       *prometheus.CounterVec
	EvalPanics       prometheus.Counter

	// Resolver metrics
	ListingCacheHits      *prometheus.CounterVec
	ProvisionalSuppressed prometheus.Counter
	FactoryQueries        *prometheus.CounterVec
	ListingsFound         *prometheus.CounterVec

	// Heuristic metrics
	HolderEstimates  prometheus.Counter
	HolderExclusions prometheus.Counter
	HolderFallbacks  *prometheus.CounterVec

	// Output metrics
	MetadataFallbacks prometheus.Counter
	AlertsEmitted     prometheus.Counter
	ReportErrors      prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "approval_watch"
	}

	return &Metrics{
		// Poller metrics
		BlocksProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "blocks_processed_total",
			Help:      "Total number of blocks fetched and fully dispatched",
		}),
		HeadHeight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "head_height",
			Help:      "Highest chain head height observed",
		}),
		PollErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "poll_errors_total",
			Help:      "Total number of head or block fetch errors",
		}),
		LoopRestarts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "loop_restarts_total",
			Help:      "Total number of supervisor restarts of the watch loop",
		}),
		WSReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "ws_reconnects_total",
			Help:      "Total number of newHeads WebSocket reconnects",
		}),
		BlockProcessTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "block_process_seconds",
			Help:      "Wall time to evaluate one block's transactions",
			Buckets:   prometheus.DefBuckets,
		}),

		// Pipeline metrics
		TxsEvaluated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "txs_evaluated_total",
			Help:      "Total number of transactions run through the evaluator",
		}),
		ApprovalsDecoded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "approvals_decoded_total",
			Help:      "Total number of relevant approve calls decoded",
		}),
		DedupHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "dedup_hits_total",
			Help:      "Total number of transactions skipped by the seen set",
		}),
		BlacklistHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "blacklist_hits_total",
			Help:      "Total number of approvals dropped by the blacklist",
		}),
		EvalErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "eval_errors_total",
			Help:      "Total number of per-transaction evaluation errors by stage",
		}, []string{"stage"}),
		EvalPanics: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "eval_panics_total",
			Help:      "Total number of recovered panics in transaction evaluation",
		}),

		// Resolver metrics
		ListingCacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "cache_hits_total",
			Help:      "Total number of unexpired listing cache hits by decision",
		}, []string{"decision"}),
		ProvisionalSuppressed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "provisional_suppressed_total",
			Help:      "Total number of lookups suppressed by the provisional-new tier",
		}),
		FactoryQueries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "factory_queries_total",
			Help:      "Total number of factory contract queries by venue",
		}, []string{"venue"}),
		ListingsFound: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "listings_found_total",
			Help:      "Total number of positive listing decisions by venue",
		}, []string{"venue"}),

		// Heuristic metrics
		HolderEstimates: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "holders",
			Name:      "estimates_total",
			Help:      "Total number of holder count estimates",
		}),
		HolderExclusions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "holders",
			Name:      "exclusions_total",
			Help:      "Total number of tokens excluded by the holder threshold",
		}),
		HolderFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "holders",
			Name:      "fallbacks_total",
			Help:      "Total number of estimator failures resolved to the fallback value",
		}, []string{"strategy"}),

		// Output metrics
		MetadataFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "output",
			Name:      "metadata_fallbacks_total",
			Help:      "Total number of metadata fields served from fallback values",
		}),
		AlertsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "output",
			Name:      "alerts_emitted_total",
			Help:      "Total number of alerts reported",
		}),
		ReportErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "output",
			Name:      "report_errors_total",
			Help:      "Total number of reporter delivery errors",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordBlockProcessed increments the blocks processed counter and observes
// the block's evaluation wall time.
func RecordBlockProcessed(seconds float64) {
	DefaultMetrics.BlocksProcessed.Inc()
	DefaultMetrics.BlockProcessTime.Observe(seconds)
}

// UpdateHeadHeight updates the head height gauge.
func UpdateHeadHeight(height uint64) {
	DefaultMetrics.HeadHeight.Set(float64(height))
}

// RecordPollError increments the poll errors counter.
func RecordPollError() {
	DefaultMetrics.PollErrors.Inc()
}

// RecordLoopRestart increments the supervisor restarts counter.
func RecordLoopRestart() {
	DefaultMetrics.LoopRestarts.Inc()
}

// RecordWSReconnect increments the WebSocket reconnects counter.
func RecordWSReconnect() {
	DefaultMetrics.WSReconnects.Inc()
}

// RecordTxEvaluated increments the transactions evaluated counter.
func RecordTxEvaluated() {
	DefaultMetrics.TxsEvaluated.Inc()
}

// RecordApprovalDecoded increments the approvals decoded counter.
func RecordApprovalDecoded() {
	DefaultMetrics.ApprovalsDecoded.Inc()
}

// RecordDedupHit increments the dedup hits counter.
func RecordDedupHit() {
	DefaultMetrics.DedupHits.Inc()
}

// RecordBlacklistHit increments the blacklist hits counter.
func RecordBlacklistHit() {
	DefaultMetrics.BlacklistHits.Inc()
}

// RecordEvalError records a per-transaction evaluation error for a stage.
func RecordEvalError(stage string) {
	DefaultMetrics.EvalErrors.WithLabelValues(stage).Inc()
}

// RecordEvalPanic increments the recovered panics counter.
func RecordEvalPanic() {
	DefaultMetrics.EvalPanics.Inc()
}

// RecordListingCacheHit records an unexpired cache hit ("listed" or "not_listed").
func RecordListingCacheHit(decision string) {
	DefaultMetrics.ListingCacheHits.WithLabelValues(decision).Inc()
}

// RecordProvisionalSuppressed increments the suppression counter.
func RecordProvisionalSuppressed() {
	DefaultMetrics.ProvisionalSuppressed.Inc()
}

// RecordFactoryQuery records one factory contract query ("v3" or "v2").
func RecordFactoryQuery(venue string) {
	DefaultMetrics.FactoryQueries.WithLabelValues(venue).Inc()
}

// RecordListingFound records a positive listing decision ("v3" or "v2").
func RecordListingFound(venue string) {
	DefaultMetrics.ListingsFound.WithLabelValues(venue).Inc()
}

// RecordHolderEstimate increments the holder estimates counter.
func RecordHolderEstimate() {
	DefaultMetrics.HolderEstimates.Inc()
}

// RecordHolderExclusion increments the holder threshold exclusions counter.
func RecordHolderExclusion() {
	DefaultMetrics.HolderExclusions.Inc()
}

// RecordHolderFallback records an estimator failure for a strategy.
func RecordHolderFallback(strategy string) {
	DefaultMetrics.HolderFallbacks.WithLabelValues(strategy).Inc()
}

// RecordMetadataFallback increments the metadata fallbacks counter.
func RecordMetadataFallback() {
	DefaultMetrics.MetadataFallbacks.Inc()
}

// RecordAlertEmitted increments the alerts emitted counter.
func RecordAlertEmitted() {
	DefaultMetrics.AlertsEmitted.Inc()
}

// RecordReportError increments the reporter errors counter.
func RecordReportError() {
	DefaultMetrics.ReportErrors.Inc()
}
