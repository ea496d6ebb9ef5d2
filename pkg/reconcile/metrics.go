package reconcile

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "regenesis"

// Metrics tracks a snapshot run.
type Metrics struct {
	Accounts    *prometheus.CounterVec
	Pages       prometheus.Counter
	Accumulated prometheus.Gauge
	Expected    prometheus.Gauge
}

// NewMetrics creates and registers the run metrics with reg. Collectors
// already registered by an earlier call are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Accounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accounts_total",
			Help:      "Accounts read from state, by classification.",
		}, []string{"class"}),
		Pages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_total",
			Help:      "Pages of account entries fetched.",
		}),
		Accumulated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accumulated_issuance",
			Help:      "Sum of free and reserved balance over every streamed account.",
		}),
		Expected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "expected_issuance",
			Help:      "Total issuance recorded by the chain at the snapshot block.",
		}),
	}

	var err error
	if m.Accounts, err = register(reg, m.Accounts); err != nil {
		return nil, err
	}
	if m.Pages, err = register(reg, m.Pages); err != nil {
		return nil, err
	}
	if m.Accumulated, err = register(reg, m.Accumulated); err != nil {
		return nil, err
	}
	if m.Expected, err = register(reg, m.Expected); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, or returns the collector already registered
// under the same descriptor.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return c, err
		}
		existing, ok := are.ExistingCollector.(T)
		if !ok {
			return c, err
		}
		return existing, nil
	}
	return c, nil
}

// ObservePage counts one fetched page.
func (m *Metrics) ObservePage(int) {
	if m == nil {
		return
	}
	m.Pages.Inc()
}

func (m *Metrics) observeAccount(class string) {
	if m == nil {
		return
	}
	m.Accounts.WithLabelValues(class).Inc()
}

func (m *Metrics) observeIssuance(accumulated, expected *uint256.Int) {
	if m == nil {
		return
	}
	m.Accumulated.Set(toFloat(accumulated))
	m.Expected.Set(toFloat(expected))
}

// toFloat is lossy above 2^53; the gauges are informational.
func toFloat(v *uint256.Int) float64 {
	f, _ := new(big.Float).SetInt(v.ToBig()).Float64()
	return f
}
