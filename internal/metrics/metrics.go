package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/set-night/clickpulse/internal/domain"
)

const namespace = "clickpulse"

// Payout outcomes
const (
	PayoutProcessing = "processing"
	PayoutRejected   = "rejected"
	PayoutAmbiguous  = "ambiguous"
	PayoutConflict   = "ledger_conflict"
	PayoutSucceeded  = "success"
	PayoutFailed     = "failure"
	PayoutRecovered  = "recovered"
	PayoutAbandoned  = "abandoned"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	submissions     prometheus.Counter
	creditedUnits   prometheus.Counter
	payouts         *prometheus.CounterVec
	ledgerConflicts prometheus.Counter
	txDuration      *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Submissions recorded.",
		}),
		creditedUnits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "credited_minor_units_total",
			Help:      "Minor units credited to worker pending balances.",
		}),
		payouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payouts_total",
			Help:      "Payout attempts by outcome.",
		}, []string{"outcome"}),
		ledgerConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_conflicts_total",
			Help:      "Transfers that moved funds without a matching ledger update.",
		}),
		txDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_tx_duration_seconds",
			Help:      "Duration of store transactions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
	}
	reg.MustRegister(m.submissions, m.creditedUnits, m.payouts, m.ledgerConflicts, m.txDuration)
	return m
}

func (m *Metrics) SubmissionRecorded(credited int64) {
	if m == nil {
		return
	}
	m.submissions.Inc()
	m.creditedUnits.Add(float64(credited))
}

func (m *Metrics) Payout(outcome string) {
	if m == nil {
		return
	}
	m.payouts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) LedgerConflict() {
	if m == nil {
		return
	}
	m.ledgerConflicts.Inc()
}

// ObserveTx matches repository.TxObserver.
func (m *Metrics) ObserveTx(elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.txDuration.WithLabelValues(txResult(err)).Observe(elapsed.Seconds())
}

func txResult(err error) string {
	switch {
	case err == nil:
		return "commit"
	case errors.Is(err, domain.ErrStoreConflict):
		return "conflict"
	case errors.Is(err, domain.ErrStoreTimeout):
		return "timeout"
	default:
		return "rollback"
	}
}
