package services

import (
	"context"
	"fmt"

	"github.com/ferreirogomes/promissory/models"
	"github.com/ferreirogomes/promissory/storage"
)

// AddProperty registra uma propriedade pendente em nome do chamador.
func (l *PropertyLedger) AddProperty(ctx context.Context, caller, name, symbol string, supply, rateBps, lockingPeriodSeconds int64) (models.Event, error) {
	return l.execute(ctx, "addProperty", caller, func(tx storage.Tx) (models.Event, []effect, error) {
		if supply <= 0 {
			return models.Event{}, nil, fmt.Errorf("%w: fornecimento de tokens deve ser positivo", ErrInvalidArgument)
		}
		if rateBps < 0 {
			return models.Event{}, nil, fmt.Errorf("%w: taxa de juros não pode ser negativa", ErrInvalidArgument)
		}
		if lockingPeriodSeconds < 0 {
			return models.Event{}, nil, fmt.Errorf("%w: período de bloqueio não pode ser negativo", ErrInvalidArgument)
		}

		id, err := tx.NextPropertyID()
		if err != nil {
			return models.Event{}, nil, err
		}
		p := models.Property{
			ID:                   id,
			OwnerAddress:         caller,
			TokenName:            name,
			TokenSymbol:          symbol,
			TokenSupply:          uint64(supply),
			InterestRateBps:      uint64(rateBps),
			LockingPeriodSeconds: uint64(lockingPeriodSeconds),
			Status:               models.PropertyStatusPending,
		}
		if err := tx.SaveProperty(p); err != nil {
			return models.Event{}, nil, err
		}
		return newEvent(p.ID, models.EventPropertyAdded,
			"id", u64(p.ID),
			"owner", p.OwnerAddress,
			"tokenName", p.TokenName,
			"tokenSymbol", p.TokenSymbol,
			"tokenSupply", u64(p.TokenSupply),
			"interestRate", u64(p.InterestRateBps),
			"lockingPeriod", u64(p.LockingPeriodSeconds),
			"status", u64(uint64(p.Status)),
		), nil, nil
	})
}

// pendingForOwner carrega a propriedade para uma edição do proprietário.
// Id inexistente tem dono vazio e cai em ErrNotOwner.
func pendingForOwner(tx storage.Tx, caller string, id uint64) (models.Property, error) {
	p, _, err := tx.GetProperty(id)
	if err != nil {
		return models.Property{}, err
	}
	if p.OwnerAddress == "" || p.OwnerAddress != caller {
		return models.Property{}, fmt.Errorf("%w: propriedade %d", ErrNotOwner, id)
	}
	if p.Status != models.PropertyStatusPending {
		return models.Property{}, fmt.Errorf("%w: propriedade %d está %s", ErrAlreadyFinalized, id, p.Status)
	}
	return p, nil
}

// UpdateInterestRate altera a taxa de juros em pontos-base enquanto a propriedade está pendente.
func (l *PropertyLedger) UpdateInterestRate(ctx context.Context, caller string, id uint64, rateBps int64) (models.Event, error) {
	return l.execute(ctx, "updateInterestRate", caller, func(tx storage.Tx) (models.Event, []effect, error) {
		p, err := pendingForOwner(tx, caller, id)
		if err != nil {
			return models.Event{}, nil, err
		}
		if rateBps < 0 {
			return models.Event{}, nil, fmt.Errorf("%w: taxa de juros não pode ser negativa", ErrInvalidArgument)
		}
		p.InterestRateBps = uint64(rateBps)
		if err := tx.SaveProperty(p); err != nil {
			return models.Event{}, nil, err
		}
		return newEvent(id, models.EventInterestRateUpdated, "id", u64(id), "interestRate", u64(p.InterestRateBps)), nil, nil
	})
}

// UpdateTokenSupply altera o supply de frações enquanto a propriedade está pendente.
func (l *PropertyLedger) UpdateTokenSupply(ctx context.Context, caller string, id uint64, supply int64) (models.Event, error) {
	return l.execute(ctx, "updateTokenSupply", caller, func(tx storage.Tx) (models.Event, []effect, error) {
		p, err := pendingForOwner(tx, caller, id)
		if err != nil {
			return models.Event{}, nil, err
		}
		if supply <= 0 {
			return models.Event{}, nil, fmt.Errorf("%w: fornecimento de tokens deve ser positivo", ErrInvalidArgument)
		}
		p.TokenSupply = uint64(supply)
		if err := tx.SaveProperty(p); err != nil {
			return models.Event{}, nil, err
		}
		return newEvent(id, models.EventTokenSupplyUpdated, "id", u64(id), "tokenSupply", u64(p.TokenSupply)), nil, nil
	})
}

// UpdateLockingPeriod altera o período de bloqueio, em segundos, enquanto a propriedade está pendente.
func (l *PropertyLedger) UpdateLockingPeriod(ctx context.Context, caller string, id uint64, seconds int64) (models.Event, error) {
	return l.execute(ctx, "updateLockingPeriod", caller, func(tx storage.Tx) (models.Event, []effect, error) {
		p, err := pendingForOwner(tx, caller, id)
		if err != nil {
			return models.Event{}, nil, err
		}
		if seconds < 0 {
			return models.Event{}, nil, fmt.Errorf("%w: período de bloqueio não pode ser negativo", ErrInvalidArgument)
		}
		p.LockingPeriodSeconds = uint64(seconds)
		if err := tx.SaveProperty(p); err != nil {
			return models.Event{}, nil, err
		}
		return newEvent(id, models.EventLockingPeriodUpdated, "id", u64(id), "lockingPeriod", u64(p.LockingPeriodSeconds)), nil, nil
	})
}

// pendingForPlatform carrega uma propriedade pendente para aprovação ou banimento.
// Inexistente, aprovada e banida respondem todas com ErrNotFound.
func (l *PropertyLedger) pendingForPlatform(tx storage.Tx, caller string, id uint64) (models.Property, error) {
	if caller != l.platformOwner {
		return models.Property{}, fmt.Errorf("%w: chamador não é o dono da plataforma", ErrNotOwner)
	}
	p, found, err := tx.GetProperty(id)
	if err != nil {
		return models.Property{}, err
	}
	if !found || p.Status != models.PropertyStatusPending {
		return models.Property{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return p, nil
}

// ApproveProperty tokeniza a propriedade: emite o token de fração com o
// supply inteiro na custódia do ledger, mantém tokensToLock como pool de
// investimento e transfere o restante ao proprietário.
func (l *PropertyLedger) ApproveProperty(ctx context.Context, caller string, id uint64, tokensToLock uint64) (models.Event, error) {
	return l.execute(ctx, "approveProperty", caller, func(tx storage.Tx) (models.Event, []effect, error) {
		p, err := l.pendingForPlatform(tx, caller, id)
		if err != nil {
			return models.Event{}, nil, err
		}
		if tokensToLock > p.TokenSupply {
			return models.Event{}, nil, fmt.Errorf("%w: %d tokens a bloquear excedem o supply %d", ErrInvalidArgument, tokensToLock, p.TokenSupply)
		}

		allotment, err := l.issuer.Issue(ctx, p.TokenName, p.TokenSymbol, p.TokenSupply)
		if err != nil {
			return models.Event{}, nil, fmt.Errorf("%w: emissão do token de fração: %v", ErrCollaboratorTransferFailed, err)
		}

		p.AllotmentTokenAddress = allotment.Address()
		p.LockedTokens = tokensToLock
		p.ApprovalTimestamp = l.now().Unix()
		p.Status = models.PropertyStatusApproved
		if err := tx.SaveProperty(p); err != nil {
			return models.Event{}, nil, err
		}

		var effects []effect
		if retained := p.TokenSupply - tokensToLock; retained > 0 {
			effects = append(effects, transfer(allotment, p.OwnerAddress, retained))
		}
		return newEvent(id, models.EventPropertyApprovedAndTokenized,
			"id", u64(p.ID),
			"owner", p.OwnerAddress,
			"tokenName", p.TokenName,
			"tokenSymbol", p.TokenSymbol,
			"tokenSupply", u64(p.TokenSupply),
			"tokenAddress", p.AllotmentTokenAddress,
			"status", u64(uint64(p.Status)),
			"lockedTokens", u64(p.LockedTokens),
		), effects, nil
	})
}

// BanProperty encerra uma propriedade pendente sem emitir token.
func (l *PropertyLedger) BanProperty(ctx context.Context, caller string, id uint64) (models.Event, error) {
	return l.execute(ctx, "banProperty", caller, func(tx storage.Tx) (models.Event, []effect, error) {
		p, err := l.pendingForPlatform(tx, caller, id)
		if err != nil {
			return models.Event{}, nil, err
		}
		p.Status = models.PropertyStatusBanned
		if err := tx.SaveProperty(p); err != nil {
			return models.Event{}, nil, err
		}
		return newEvent(id, models.EventPropertyBanned, "id", u64(id), "owner", p.OwnerAddress), nil, nil
	})
}
