package services

import "errors"

// Erros do ledger. Cada um corresponde a um motivo de rejeição nomeado;
// as chamadas embrulham o sentinela com contexto via fmt.Errorf("%w: ...").
var (
	ErrInvalidArgument = errors.New("argumento inválido")
	// ErrNotFound cobre tanto propriedade inexistente quanto propriedade já decidida.
	ErrNotFound         = errors.New("propriedade não existe")
	ErrNotApproved      = errors.New("propriedade ainda não aprovada")
	ErrNotOwner         = errors.New("chamador não é o proprietário")
	ErrAlreadyFinalized = errors.New("propriedade já finalizada")
	ErrNotInvestor      = errors.New("chamador não investiu nesta propriedade")

	ErrSupplyExceeded   = errors.New("valor excede os tokens de propriedade disponíveis")
	ErrExceedsAvailable = errors.New("valor excede o disponível")
	ErrExceedsLocked    = errors.New("valor excede os tokens bloqueados")

	ErrLockingPeriodActive        = errors.New("período de bloqueio ainda ativo")
	ErrCollaboratorTransferFailed = errors.New("transferência do token falhou")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidArgument, "InvalidArgument"},
	{ErrNotFound, "NotFound"},
	{ErrNotApproved, "NotApproved"},
	{ErrNotOwner, "NotOwner"},
	{ErrAlreadyFinalized, "AlreadyFinalized"},
	{ErrNotInvestor, "NotInvestor"},
	{ErrSupplyExceeded, "SupplyExceeded"},
	{ErrExceedsAvailable, "ExceedsAvailable"},
	{ErrExceedsLocked, "ExceedsLocked"},
	{ErrLockingPeriodActive, "LockingPeriodActive"},
	{ErrCollaboratorTransferFailed, "CollaboratorTransferFailed"},
}

// ErrorKind retorna o nome do motivo de rejeição de err, ou "" se err não
// for um erro do ledger.
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return ""
}
