package services

import (
	"context"
	"fmt"
	"math/bits"

	"github.com/ferreirogomes/promissory/models"
	"github.com/ferreirogomes/promissory/storage"
)

// basisPoints é o denominador das taxas: 10000 bps = 100%.
const basisPoints = 10000

func positive(amount uint64) error {
	if amount == 0 {
		return fmt.Errorf("%w: valor deve ser positivo", ErrInvalidArgument)
	}
	return nil
}

// approved carrega uma propriedade aprovada. Inexistente, pendente e banida
// respondem igualmente com ErrNotApproved.
func approved(tx storage.Tx, id uint64) (models.Property, error) {
	p, found, err := tx.GetProperty(id)
	if err != nil {
		return models.Property{}, err
	}
	if !found || p.Status != models.PropertyStatusApproved {
		return models.Property{}, fmt.Errorf("%w: propriedade %d", ErrNotApproved, id)
	}
	return p, nil
}

func ownedBy(tx storage.Tx, caller string, id uint64) (models.Property, error) {
	p, _, err := tx.GetProperty(id)
	if err != nil {
		return models.Property{}, err
	}
	if p.OwnerAddress == "" || p.OwnerAddress != caller {
		return models.Property{}, fmt.Errorf("%w: propriedade %d", ErrNotOwner, id)
	}
	return p, nil
}

func loadInvestment(tx storage.Tx, id uint64, investor string) (models.Investment, error) {
	inv, found, err := tx.GetInvestment(id, investor)
	if err != nil {
		return models.Investment{}, err
	}
	if !found {
		inv = models.Investment{PropertyID: id, InvestorAddress: investor}
	}
	return inv, nil
}

// InvestInProperty puxa amount de value token do chamador para a custódia e
// consome o mesmo tanto do pool de tokens bloqueados.
func (l *PropertyLedger) InvestInProperty(ctx context.Context, caller string, id uint64, amount uint64) (models.Event, error) {
	return l.execute(ctx, "investInProperty", caller, func(tx storage.Tx) (models.Event, []effect, error) {
		p, err := approved(tx, id)
		if err != nil {
			return models.Event{}, nil, err
		}
		if err := positive(amount); err != nil {
			return models.Event{}, nil, err
		}
		if amount > p.LockedTokens {
			return models.Event{}, nil, fmt.Errorf("%w: %d solicitados, %d disponíveis", ErrSupplyExceeded, amount, p.LockedTokens)
		}

		inv, err := loadInvestment(tx, id, caller)
		if err != nil {
			return models.Event{}, nil, err
		}
		inv.InvestedAmount += amount
		p.TotalInvestedAmount += amount
		p.LockedTokens -= amount

		if err := tx.SaveInvestment(inv); err != nil {
			return models.Event{}, nil, err
		}
		if err := tx.SaveProperty(p); err != nil {
			return models.Event{}, nil, err
		}
		event := newEvent(id, models.EventInvested,
			"id", u64(id),
			"investor", caller,
			"amount", u64(amount),
			"tokenSupply", u64(p.TokenSupply),
			"interestRate", u64(p.InterestRateBps),
		)
		return event, []effect{transferFrom(l.valueToken, caller, l.valueToken.Holder(), amount)}, nil
	})
}

// ClaimInvestment transfere ao proprietário parte do value token investido.
func (l *PropertyLedger) ClaimInvestment(ctx context.Context, caller string, id uint64, amount uint64) (models.Event, error) {
	return l.execute(ctx, "claimInvestment", caller, func(tx storage.Tx) (models.Event, []effect, error) {
		p, err := ownedBy(tx, caller, id)
		if err != nil {
			return models.Event{}, nil, err
		}
		if err := positive(amount); err != nil {
			return models.Event{}, nil, err
		}
		if available := p.AvailableInvestment(); amount > available {
			return models.Event{}, nil, fmt.Errorf("%w: %d solicitados, %d disponíveis", ErrExceedsAvailable, amount, available)
		}
		p.ClaimedInvestmentAmount += amount
		if err := tx.SaveProperty(p); err != nil {
			return models.Event{}, nil, err
		}
		event := newEvent(id, models.EventInvestmentClaimed, "owner", caller, "id", u64(id), "amount", u64(amount))
		return event, []effect{transfer(l.valueToken, caller, amount)}, nil
	})
}

// ClaimPropertyTokens devolve ao proprietário tokens de fração ainda bloqueados.
func (l *PropertyLedger) ClaimPropertyTokens(ctx context.Context, caller string, id uint64, amount uint64) (models.Event, error) {
	return l.execute(ctx, "claimPropertyTokens", caller, func(tx storage.Tx) (models.Event, []effect, error) {
		p, err := ownedBy(tx, caller, id)
		if err != nil {
			return models.Event{}, nil, err
		}
		if p.Status != models.PropertyStatusApproved {
			return models.Event{}, nil, fmt.Errorf("%w: propriedade %d", ErrNotApproved, id)
		}
		if err := positive(amount); err != nil {
			return models.Event{}, nil, err
		}
		if amount > p.LockedTokens {
			return models.Event{}, nil, fmt.Errorf("%w: %d solicitados, %d bloqueados", ErrExceedsLocked, amount, p.LockedTokens)
		}

		allotment, err := l.issuer.Open(ctx, p.AllotmentTokenAddress)
		if err != nil {
			return models.Event{}, nil, fmt.Errorf("%w: token de fração %s: %v", ErrCollaboratorTransferFailed, p.AllotmentTokenAddress, err)
		}
		p.LockedTokens -= amount
		if err := tx.SaveProperty(p); err != nil {
			return models.Event{}, nil, err
		}
		event := newEvent(id, models.EventPropertyTokensClaimed, "owner", caller, "id", u64(id), "amount", u64(amount))
		return event, []effect{transfer(allotment, caller, amount)}, nil
	})
}

// ClaimReturn devolve ao investidor parte do principal, pelo valor de face.
// Não consulta liquidações feitas por ReturnInvestment.
func (l *PropertyLedger) ClaimReturn(ctx context.Context, caller string, id uint64, amount uint64) (models.Event, error) {
	return l.execute(ctx, "claimReturn", caller, func(tx storage.Tx) (models.Event, []effect, error) {
		inv, err := loadInvestment(tx, id, caller)
		if err != nil {
			return models.Event{}, nil, err
		}
		if inv.InvestedAmount == 0 {
			return models.Event{}, nil, fmt.Errorf("%w: propriedade %d", ErrNotInvestor, id)
		}
		if err := positive(amount); err != nil {
			return models.Event{}, nil, err
		}
		if remaining := inv.Remaining(); amount > remaining {
			return models.Event{}, nil, fmt.Errorf("%w: %d solicitados, %d disponíveis", ErrExceedsAvailable, amount, remaining)
		}
		inv.ClaimedReturnAmount += amount
		if err := tx.SaveInvestment(inv); err != nil {
			return models.Event{}, nil, err
		}

		name := models.EventClaimedReturn
		if inv.ClaimedReturnAmount == inv.InvestedAmount {
			name = models.EventClaimedInvestment
		}
		event := newEvent(id, name, "investor", caller, "id", u64(id), "amount", u64(amount))
		return event, []effect{transfer(l.valueToken, caller, amount)}, nil
	})
}

// InterestPayable calcula floor(invested * rateBps / 10000) sem estouro.
func InterestPayable(invested, rateBps uint64) (uint64, error) {
	hi, lo := bits.Mul64(invested, rateBps)
	if hi >= basisPoints {
		return 0, fmt.Errorf("%w: juros de %d a %d bps estouram 64 bits", ErrInvalidArgument, invested, rateBps)
	}
	q, _ := bits.Div64(hi, lo, basisPoints)
	return q, nil
}

// ReturnInvestment liquida o investimento de investor com juros: puxa
// principal mais juros do proprietário direto para o investidor. Não altera o
// registro de resgates do investidor.
func (l *PropertyLedger) ReturnInvestment(ctx context.Context, caller string, id uint64, investor string) (models.Event, error) {
	return l.execute(ctx, "returnInvestment", caller, func(tx storage.Tx) (models.Event, []effect, error) {
		p, err := ownedBy(tx, caller, id)
		if err != nil {
			return models.Event{}, nil, err
		}
		if p.Status != models.PropertyStatusApproved {
			return models.Event{}, nil, fmt.Errorf("%w: propriedade %d", ErrNotApproved, id)
		}
		if now := l.now().Unix(); now < p.LockingPeriodEnd() {
			return models.Event{}, nil, fmt.Errorf("%w: libera em %d, agora %d", ErrLockingPeriodActive, p.LockingPeriodEnd(), now)
		}

		inv, err := loadInvestment(tx, id, investor)
		if err != nil {
			return models.Event{}, nil, err
		}
		if inv.InvestedAmount == 0 {
			return models.Event{}, nil, fmt.Errorf("%w: %s na propriedade %d", ErrNotInvestor, investor, id)
		}
		interest, err := InterestPayable(inv.InvestedAmount, p.InterestRateBps)
		if err != nil {
			return models.Event{}, nil, err
		}
		totalDue := interest + inv.InvestedAmount
		if totalDue < interest {
			return models.Event{}, nil, fmt.Errorf("%w: valor devido estoura 64 bits", ErrInvalidArgument)
		}

		event := newEvent(id, models.EventInvestmentReturned,
			"owner", caller,
			"investor", investor,
			"interestPayable", u64(interest),
			"investedAmount", u64(inv.InvestedAmount),
		)
		return event, []effect{transferFrom(l.valueToken, caller, investor, totalDue)}, nil
	})
}
