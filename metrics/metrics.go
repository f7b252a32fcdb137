// Package metrics registra os coletores Prometheus do ledger.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "promissory"

// Operations conta as operações do ledger por resultado ("ok" ou o motivo da rejeição).
var Operations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "ledger_operations_total",
	Help:      "Total de operações do ledger por resultado.",
}, []string{"op", "result"})

var OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "ledger_operation_duration_seconds",
	Help:      "Duração das operações do ledger.",
	Buckets:   prometheus.DefBuckets,
}, []string{"op"})

var CustodyExpected = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "custody_expected_units",
	Help:      "Unidades do value token que o ledger deveria custodiar.",
})

var CustodyActual = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "custody_actual_units",
	Help:      "Saldo do value token na custódia do ledger.",
})

var CustodyDrift = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "custody_drift_units",
	Help:      "Saldo real menos saldo esperado na custódia.",
})

// ObserveOperation registra o resultado e a duração de uma operação.
func ObserveOperation(op, result string, started time.Time) {
	if result == "" {
		result = "ok"
	}
	Operations.WithLabelValues(op, result).Inc()
	OperationDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// ObserveCustody publica o resultado de uma reconciliação de custódia.
func ObserveCustody(expected int64, actual uint64) {
	CustodyExpected.Set(float64(expected))
	CustodyActual.Set(float64(actual))
	CustodyDrift.Set(float64(actual) - float64(expected))
}
