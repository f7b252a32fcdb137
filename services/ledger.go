package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/ferreirogomes/promissory/metrics"
	"github.com/ferreirogomes/promissory/models"
	"github.com/ferreirogomes/promissory/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PropertyLedger guarda o registro de propriedades e investimentos e decide,
// para cada operação, se ela é válida no estado atual.
//
// As mutações são serializadas por mu. Cada operação roda numa transação do
// store; as transferências de token acontecem por último e, se falharem, a
// transação é desfeita sem deixar contadores alterados.
type PropertyLedger struct {
	mu            sync.RWMutex
	platformOwner string
	store         storage.Store
	valueToken    FungibleToken
	issuer        AllotmentIssuer
	now           func() time.Time
	log           *zap.Logger
}

// LedgerOption ajusta dependências opcionais do ledger.
type LedgerOption func(*PropertyLedger)

// WithClock substitui o relógio usado para aprovação e período de bloqueio.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *PropertyLedger) { l.now = now }
}

// WithLogger define o logger das operações.
func WithLogger(log *zap.Logger) LedgerOption {
	return func(l *PropertyLedger) { l.log = log }
}

// NewPropertyLedger cria o ledger. platformOwner e valueToken são fixos pela
// vida da instância.
func NewPropertyLedger(platformOwner string, store storage.Store, valueToken FungibleToken, issuer AllotmentIssuer, opts ...LedgerOption) (*PropertyLedger, error) {
	if platformOwner == "" {
		return nil, errors.New("endereço do dono da plataforma é obrigatório")
	}
	if store == nil || valueToken == nil || issuer == nil {
		return nil, errors.New("store, value token e emissor são obrigatórios")
	}
	l := &PropertyLedger{
		platformOwner: platformOwner,
		store:         store,
		valueToken:    valueToken,
		issuer:        issuer,
		now:           time.Now,
		log:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// PlatformOwner é quem aprova e bane propriedades.
func (l *PropertyLedger) PlatformOwner() string { return l.platformOwner }

// ValueTokenAddress é o endereço do token de liquidação.
func (l *PropertyLedger) ValueTokenAddress() string { return l.valueToken.Address() }

// CustodyAddress é a identidade do ledger nos tokens que ele custodia.
func (l *PropertyLedger) CustodyAddress() string { return l.valueToken.Holder() }

// effect é uma chamada ao token que só roda depois que a escrita foi preparada.
type effect func(ctx context.Context) error

// mutation valida e prepara uma operação dentro da transação.
type mutation func(tx storage.Tx) (models.Event, []effect, error)

func (l *PropertyLedger) execute(ctx context.Context, op, caller string, fn mutation) (models.Event, error) {
	started := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	var emitted models.Event
	err := l.store.WithTx(ctx, func(tx storage.Tx) error {
		if caller == "" {
			return fmt.Errorf("%w: chamador não identificado", ErrInvalidArgument)
		}
		event, effects, err := fn(tx)
		if err != nil {
			return err
		}
		event.ID = uuid.NewString()
		event.CreatedAt = l.now().UTC()
		if err := tx.SaveEvent(&event); err != nil {
			return err
		}
		for _, apply := range effects {
			if err := apply(ctx); err != nil {
				return err
			}
		}
		emitted = event
		return nil
	})
	result := ErrorKind(err)
	if err != nil && result == "" {
		result = "Internal"
	}
	metrics.ObserveOperation(op, result, started)

	if err != nil {
		fields := []zap.Field{zap.String("op", op), zap.String("caller", caller), zap.Error(err)}
		switch {
		case errors.Is(err, ErrCollaboratorTransferFailed):
			l.log.Warn("operação abortada pelo token", fields...)
		case ErrorKind(err) != "":
			l.log.Debug("operação rejeitada", fields...)
		default:
			l.log.Error("operação falhou", fields...)
		}
		return models.Event{}, err
	}

	l.log.Info("operação confirmada",
		zap.String("op", op),
		zap.String("caller", caller),
		zap.Uint64("property_id", emitted.PropertyID),
		zap.String("event", emitted.String()),
	)
	return emitted, nil
}

// transfer embrulha Transfer do token, tratando false como falha.
func transfer(token FungibleToken, to string, amount uint64) effect {
	return func(ctx context.Context) error {
		ok, err := token.Transfer(ctx, to, amount)
		if err != nil {
			return fmt.Errorf("%w: transfer de %d para %s: %v", ErrCollaboratorTransferFailed, amount, to, err)
		}
		if !ok {
			return fmt.Errorf("%w: transfer de %d para %s recusado", ErrCollaboratorTransferFailed, amount, to)
		}
		return nil
	}
}

func transferFrom(token FungibleToken, from, to string, amount uint64) effect {
	return func(ctx context.Context) error {
		ok, err := token.TransferFrom(ctx, from, to, amount)
		if err != nil {
			return fmt.Errorf("%w: transferFrom de %d de %s para %s: %v", ErrCollaboratorTransferFailed, amount, from, to, err)
		}
		if !ok {
			return fmt.Errorf("%w: transferFrom de %d de %s para %s recusado", ErrCollaboratorTransferFailed, amount, from, to)
		}
		return nil
	}
}

func u64(v uint64) string { return strconv.FormatUint(v, 10) }

func newEvent(propertyID uint64, name string, kv ...string) models.Event {
	fields := make([]models.EventField, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields = append(fields, models.EventField{Name: kv[i], Value: kv[i+1]})
	}
	return models.Event{PropertyID: propertyID, Name: name, Fields: fields}
}

// ─── Leitura ────────────────────────────────────────────────────────────────

func (l *PropertyLedger) view(ctx context.Context, fn func(tx storage.Tx) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.store.WithTx(ctx, fn)
}

// Property retorna a propriedade. Uma propriedade inexistente retorna o valor
// zero com status None, como um mapping do contrato.
func (l *PropertyLedger) Property(ctx context.Context, id uint64) (models.Property, bool, error) {
	var (
		p     models.Property
		found bool
	)
	err := l.view(ctx, func(tx storage.Tx) error {
		var err error
		p, found, err = tx.GetProperty(id)
		return err
	})
	return p, found, err
}

func (l *PropertyLedger) Properties(ctx context.Context) ([]models.Property, error) {
	var out []models.Property
	err := l.view(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.ListProperties()
		return err
	})
	return out, err
}

// Investment retorna o registro do investidor; ausente equivale a zero.
func (l *PropertyLedger) Investment(ctx context.Context, id uint64, investor string) (models.Investment, error) {
	var inv models.Investment
	err := l.view(ctx, func(tx storage.Tx) error {
		found, ok, err := tx.GetInvestment(id, investor)
		if err != nil {
			return err
		}
		if ok {
			inv = found
		} else {
			inv = models.Investment{PropertyID: id, InvestorAddress: investor}
		}
		return nil
	})
	return inv, err
}

func (l *PropertyLedger) LockedTokens(ctx context.Context, id uint64) (uint64, error) {
	p, _, err := l.Property(ctx, id)
	return p.LockedTokens, err
}

func (l *PropertyLedger) TotalInvestedAmount(ctx context.Context, id uint64) (uint64, error) {
	p, _, err := l.Property(ctx, id)
	return p.TotalInvestedAmount, err
}

func (l *PropertyLedger) ClaimedInvestment(ctx context.Context, id uint64) (uint64, error) {
	p, _, err := l.Property(ctx, id)
	return p.ClaimedInvestmentAmount, err
}

// Events retorna os eventos da propriedade em ordem de emissão.
func (l *PropertyLedger) Events(ctx context.Context, id uint64) ([]models.Event, error) {
	var out []models.Event
	err := l.view(ctx, func(tx storage.Tx) error {
		var err error
		out, err = tx.ListEvents(id)
		return err
	})
	return out, err
}

// ErrCustodyOverflow indica totais de custódia fora do intervalo de int64.
var ErrCustodyOverflow = errors.New("total de custódia excede o limite de int64")

// ExpectedCustody calcula quanto value token o ledger deveria custodiar:
// tudo que foi investido, menos o sacado pelos proprietários e o resgatado
// pelos investidores. Pode ficar negativo, já que claimReturn não é limitado
// pelo saque do proprietário. Somas fora de int64 retornam ErrCustodyOverflow.
func (l *PropertyLedger) ExpectedCustody(ctx context.Context) (int64, error) {
	var expected int64
	err := l.view(ctx, func(tx storage.Tx) error {
		props, err := tx.ListProperties()
		if err != nil {
			return err
		}
		for _, p := range props {
			if expected, err = addSigned(expected, p.TotalInvestedAmount, false); err != nil {
				return err
			}
			if expected, err = addSigned(expected, p.ClaimedInvestmentAmount, true); err != nil {
				return err
			}
			invs, err := tx.ListInvestments(p.ID)
			if err != nil {
				return err
			}
			for _, inv := range invs {
				if expected, err = addSigned(expected, inv.ClaimedReturnAmount, true); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return expected, err
}

// CustodyDrift é actual - expected, com o mesmo limite de int64.
func CustodyDrift(expected int64, actual uint64) (int64, error) {
	drift, err := addSigned(0, actual, false)
	if err != nil {
		return 0, err
	}
	if expected < 0 && drift > math.MaxInt64+expected {
		return 0, ErrCustodyOverflow
	}
	return drift - expected, nil
}

func addSigned(total int64, delta uint64, subtract bool) (int64, error) {
	if delta > math.MaxInt64 {
		return 0, ErrCustodyOverflow
	}
	d := int64(delta)
	if subtract {
		if total < math.MinInt64+d {
			return 0, ErrCustodyOverflow
		}
		return total - d, nil
	}
	if total > math.MaxInt64-d {
		return 0, ErrCustodyOverflow
	}
	return total + d, nil
}

// CustodyBalance consulta o saldo real de value token da custódia.
func (l *PropertyLedger) CustodyBalance(ctx context.Context) (uint64, error) {
	return l.valueToken.BalanceOf(ctx, l.valueToken.Holder())
}
