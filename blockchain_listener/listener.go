package blockchain_listener

import (
	"context"
	"fmt"
	"time"

	"github.com/ferreirogomes/promissory/metrics"
	"github.com/ferreirogomes/promissory/services"

	"go.uber.org/zap"
)

// CustodySource é a visão do ledger usada na reconciliação.
type CustodySource interface {
	CustodyAddress() string
	ExpectedCustody(ctx context.Context) (int64, error)
	CustodyBalance(ctx context.Context) (uint64, error)
}

// Report é o resultado de uma reconciliação.
type Report struct {
	Custody  string
	Expected int64
	Actual   uint64
	Drift    int64
}

// CustodyListener compara periodicamente o saldo de value token da custódia
// com o que a contabilidade do ledger diz que deveria estar lá.
type CustodyListener struct {
	Source   CustodySource
	Interval time.Duration
	log      *zap.Logger
}

// NewCustodyListener cria o listener. Intervalo zero ou negativo vira 30s.
func NewCustodyListener(source CustodySource, interval time.Duration, log *zap.Logger) *CustodyListener {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CustodyListener{Source: source, Interval: interval, log: log}
}

// StartListening reconcilia a cada intervalo até ctx ser cancelado.
// Falhas de uma rodada são logadas e a próxima rodada tenta de novo.
func (l *CustodyListener) StartListening(ctx context.Context) {
	l.log.Info("iniciando listener de custódia",
		zap.String("custody", l.Source.CustodyAddress()),
		zap.Duration("interval", l.Interval),
	)
	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()

	for {
		if _, err := l.Reconcile(ctx); err != nil && ctx.Err() == nil {
			l.log.Error("falha na reconciliação de custódia", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			l.log.Info("listener de custódia encerrado")
			return
		case <-ticker.C:
		}
	}
}

// Reconcile faz uma rodada de comparação e publica as métricas.
func (l *CustodyListener) Reconcile(ctx context.Context) (Report, error) {
	expected, err := l.Source.ExpectedCustody(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("falha ao calcular custódia esperada: %w", err)
	}
	actual, err := l.Source.CustodyBalance(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("falha ao consultar saldo da custódia: %w", err)
	}

	drift, err := services.CustodyDrift(expected, actual)
	if err != nil {
		return Report{}, fmt.Errorf("falha ao calcular diferença de custódia: %w", err)
	}
	report := Report{
		Custody:  l.Source.CustodyAddress(),
		Expected: expected,
		Actual:   actual,
		Drift:    drift,
	}
	metrics.ObserveCustody(expected, actual)

	fields := []zap.Field{
		zap.String("custody", report.Custody),
		zap.Int64("expected", report.Expected),
		zap.Uint64("actual", report.Actual),
		zap.Int64("drift", report.Drift),
	}
	if report.Drift != 0 {
		l.log.Warn("saldo da custódia diverge da contabilidade", fields...)
	} else {
		l.log.Debug("custódia reconciliada", fields...)
	}
	return report, nil
}
