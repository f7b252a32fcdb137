package storage

import (
	"context"
	"errors"

	"github.com/ferreirogomes/promissory/models"
)

// ErrUnknownDriver é retornado quando o driver configurado não é suportado.
var ErrUnknownDriver = errors.New("driver de armazenamento desconhecido")

// Store é a camada de persistência do ledger. Toda leitura e escrita acontece
// dentro de WithTx: se fn retornar erro nada do que foi escrito fica visível.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}

// Tx expõe as tabelas do ledger dentro de uma transação.
type Tx interface {
	NextPropertyID() (uint64, error)
	GetProperty(id uint64) (models.Property, bool, error)
	ListProperties() ([]models.Property, error)
	SaveProperty(p models.Property) error

	GetInvestment(propertyID uint64, investor string) (models.Investment, bool, error)
	ListInvestments(propertyID uint64) ([]models.Investment, error)
	SaveInvestment(inv models.Investment) error

	// SaveEvent grava o evento e preenche e.Seq.
	SaveEvent(e *models.Event) error
	ListEvents(propertyID uint64) ([]models.Event, error)
}
