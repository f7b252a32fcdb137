package services

import "context"

// FungibleToken é a interface padrão de um ledger fungível externo, vista a
// partir de uma identidade fixa (Holder). Transfer move fundos do Holder;
// TransferFrom consome uma allowance concedida ao Holder.
//
// O bool retornado reflete o sucesso informado pelo token; o ledger nunca
// presume sucesso.
type FungibleToken interface {
	Address() string
	Holder() string
	Transfer(ctx context.Context, to string, amount uint64) (bool, error)
	TransferFrom(ctx context.Context, from, to string, amount uint64) (bool, error)
	BalanceOf(ctx context.Context, account string) (uint64, error)
	Allowance(ctx context.Context, owner, spender string) (uint64, error)
}

// AllotmentIssuer emite um token de fração por propriedade aprovada.
type AllotmentIssuer interface {
	// Issue cria um token novo com supply unidades já cunhadas para o Holder.
	Issue(ctx context.Context, name, symbol string, supply uint64) (FungibleToken, error)
	// Open retorna o cliente de um token já emitido.
	Open(ctx context.Context, address string) (FungibleToken, error)
}
