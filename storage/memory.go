package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/ferreirogomes/promissory/models"
)

type investmentKey struct {
	propertyID uint64
	investor   string
}

// MemoryStore mantém o estado do ledger em memória. As escritas de uma
// transação ficam numa área de rascunho e só são aplicadas no commit.
type MemoryStore struct {
	mu          sync.Mutex
	properties  map[uint64]models.Property
	investments map[investmentKey]models.Investment
	events      []models.Event
	nextID      uint64
}

// NewMemoryStore cria um store vazio.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		properties:  make(map[uint64]models.Property),
		investments: make(map[investmentKey]models.Investment),
	}
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{
		store:       s,
		properties:  make(map[uint64]models.Property),
		investments: make(map[investmentKey]models.Investment),
		nextID:      s.nextID,
	}
	if err := fn(tx); err != nil {
		return err
	}

	for id, p := range tx.properties {
		s.properties[id] = p
	}
	for k, inv := range tx.investments {
		s.investments[k] = inv
	}
	s.events = append(s.events, tx.events...)
	s.nextID = tx.nextID
	return nil
}

func (s *MemoryStore) Close() error { return nil }

type memoryTx struct {
	store       *MemoryStore
	properties  map[uint64]models.Property
	investments map[investmentKey]models.Investment
	events      []models.Event
	nextID      uint64
}

func (t *memoryTx) NextPropertyID() (uint64, error) {
	id := t.nextID
	t.nextID++
	return id, nil
}

func (t *memoryTx) GetProperty(id uint64) (models.Property, bool, error) {
	if p, ok := t.properties[id]; ok {
		return p, true, nil
	}
	p, ok := t.store.properties[id]
	return p, ok, nil
}

func (t *memoryTx) ListProperties() ([]models.Property, error) {
	merged := make(map[uint64]models.Property, len(t.store.properties)+len(t.properties))
	for id, p := range t.store.properties {
		merged[id] = p
	}
	for id, p := range t.properties {
		merged[id] = p
	}
	out := make([]models.Property, 0, len(merged))
	for _, p := range merged {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memoryTx) SaveProperty(p models.Property) error {
	t.properties[p.ID] = p
	return nil
}

func (t *memoryTx) GetInvestment(propertyID uint64, investor string) (models.Investment, bool, error) {
	k := investmentKey{propertyID, investor}
	if inv, ok := t.investments[k]; ok {
		return inv, true, nil
	}
	inv, ok := t.store.investments[k]
	return inv, ok, nil
}

func (t *memoryTx) ListInvestments(propertyID uint64) ([]models.Investment, error) {
	merged := make(map[string]models.Investment)
	for k, inv := range t.store.investments {
		if k.propertyID == propertyID {
			merged[k.investor] = inv
		}
	}
	for k, inv := range t.investments {
		if k.propertyID == propertyID {
			merged[k.investor] = inv
		}
	}
	out := make([]models.Investment, 0, len(merged))
	for _, inv := range merged {
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvestorAddress < out[j].InvestorAddress })
	return out, nil
}

func (t *memoryTx) SaveInvestment(inv models.Investment) error {
	t.investments[investmentKey{inv.PropertyID, inv.InvestorAddress}] = inv
	return nil
}

func (t *memoryTx) SaveEvent(e *models.Event) error {
	e.Seq = uint64(len(t.store.events)+len(t.events)) + 1
	t.events = append(t.events, *e)
	return nil
}

func (t *memoryTx) ListEvents(propertyID uint64) ([]models.Event, error) {
	var out []models.Event
	for _, list := range [][]models.Event{t.store.events, t.events} {
		for _, e := range list {
			if e.PropertyID == propertyID {
				out = append(out, e)
			}
		}
	}
	return out, nil
}
