package utils

import (
	"strconv"
	"time"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is a decorator counting processed transactions per message
// path and outcome, and observing their processing time.
type Metrics struct {
	processed *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

var _ custody.Decorator = (*Metrics)(nil)

// NewMetrics creates a Metrics decorator and registers its collectors
// with given registerer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "custody",
			Name:      "tx_processed_total",
			Help:      "Number of processed transactions.",
		}, []string{"phase", "path", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "custody",
			Name:      "tx_duration_seconds",
			Help:      "Time spent processing a transaction.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"phase", "path"}),
	}
	for _, c := range []prometheus.Collector{m.processed, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(errors.ErrHuman, err.Error())
		}
	}
	return m, nil
}

// Check counts checked transactions.
func (m *Metrics) Check(ctx custody.Context, store custody.KVStore, tx custody.Tx, next custody.Checker) (*custody.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, store, tx)
	m.observe("check", tx, start, err)
	return res, err
}

// Deliver counts delivered transactions.
func (m *Metrics) Deliver(ctx custody.Context, store custody.KVStore, tx custody.Tx, next custody.Deliverer) (*custody.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, store, tx)
	m.observe("deliver", tx, start, err)
	return res, err
}

func (m *Metrics) observe(phase string, tx custody.Tx, start time.Time, err error) {
	path := custody.GetPath(tx)
	code, _ := errors.ABCIInfo(err, false)
	m.processed.WithLabelValues(phase, path, strconv.FormatUint(uint64(code), 10)).Inc()
	m.duration.WithLabelValues(phase, path).Observe(time.Since(start).Seconds())
}
