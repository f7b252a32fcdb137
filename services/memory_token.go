package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MemoryToken é um ledger fungível em memória no estilo ERC-20: saldos,
// allowances, transfer e transferFrom. Transferências sem saldo ou sem
// allowance retornam false em vez de erro, como um token ERC-20.
type MemoryToken struct {
	mu          sync.Mutex
	address     string
	name        string
	symbol      string
	totalSupply uint64
	balances    map[string]uint64
	allowances  map[string]map[string]uint64
}

// NewMemoryToken cria um token sem saldo.
func NewMemoryToken(address, name, symbol string) *MemoryToken {
	return &MemoryToken{
		address:    address,
		name:       name,
		symbol:     symbol,
		balances:   make(map[string]uint64),
		allowances: make(map[string]map[string]uint64),
	}
}

func (t *MemoryToken) Address() string { return t.address }
func (t *MemoryToken) Name() string    { return t.name }
func (t *MemoryToken) Symbol() string  { return t.symbol }

func (t *MemoryToken) TotalSupply() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalSupply
}

// Mint cria amount unidades para to.
func (t *MemoryToken) Mint(to string, amount uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.totalSupply+amount < t.totalSupply {
		return fmt.Errorf("%w: supply do token %s estouraria", ErrInvalidArgument, t.address)
	}
	t.totalSupply += amount
	t.balances[to] += amount
	return nil
}

// Approve define a allowance de spender sobre os fundos de owner.
func (t *MemoryToken) Approve(owner, spender string, amount uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[string]uint64)
	}
	t.allowances[owner][spender] = amount
}

func (t *MemoryToken) Balance(account string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.balances[account]
}

func (t *MemoryToken) AllowanceOf(owner, spender string) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.allowances[owner][spender]
}

// TransferAs move amount de from para to.
func (t *MemoryToken) TransferAs(from, to string, amount uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(from, to, amount)
}

// TransferFromAs move amount de from para to consumindo a allowance de spender.
func (t *MemoryToken) TransferFromAs(spender, from, to string, amount uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	allowed := t.allowances[from][spender]
	if allowed < amount || t.balances[from] < amount {
		return false
	}
	t.allowances[from][spender] = allowed - amount
	return t.move(from, to, amount)
}

func (t *MemoryToken) move(from, to string, amount uint64) bool {
	if to == "" || t.balances[from] < amount {
		return false
	}
	t.balances[from] -= amount
	t.balances[to] += amount
	return true
}

// Client retorna a visão do token a partir da identidade holder.
func (t *MemoryToken) Client(holder string) FungibleToken {
	return &memoryTokenClient{token: t, holder: holder}
}

type memoryTokenClient struct {
	token  *MemoryToken
	holder string
}

func (c *memoryTokenClient) Address() string { return c.token.address }
func (c *memoryTokenClient) Holder() string  { return c.holder }

func (c *memoryTokenClient) Transfer(ctx context.Context, to string, amount uint64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return c.token.TransferAs(c.holder, to, amount), nil
}

func (c *memoryTokenClient) TransferFrom(ctx context.Context, from, to string, amount uint64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return c.token.TransferFromAs(c.holder, from, to, amount), nil
}

func (c *memoryTokenClient) BalanceOf(_ context.Context, account string) (uint64, error) {
	return c.token.Balance(account), nil
}

func (c *memoryTokenClient) Allowance(_ context.Context, owner, spender string) (uint64, error) {
	return c.token.AllowanceOf(owner, spender), nil
}

// MemoryIssuer emite tokens de fração em memória, cunhados para holder.
type MemoryIssuer struct {
	mu     sync.Mutex
	holder string
	tokens map[string]*MemoryToken
}

// NewMemoryIssuer cria um emissor cujos tokens nascem na custódia de holder.
func NewMemoryIssuer(holder string) *MemoryIssuer {
	return &MemoryIssuer{holder: holder, tokens: make(map[string]*MemoryToken)}
}

func (i *MemoryIssuer) Issue(ctx context.Context, name, symbol string, supply uint64) (FungibleToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	token := NewMemoryToken("allot-"+uuid.NewString(), name, symbol)
	if err := token.Mint(i.holder, supply); err != nil {
		return nil, err
	}
	i.mu.Lock()
	i.tokens[token.Address()] = token
	i.mu.Unlock()
	return token.Client(i.holder), nil
}

func (i *MemoryIssuer) Open(_ context.Context, address string) (FungibleToken, error) {
	token, ok := i.Token(address)
	if !ok {
		return nil, fmt.Errorf("token de fração %s não encontrado", address)
	}
	return token.Client(i.holder), nil
}

// Token retorna o token emitido em address.
func (i *MemoryIssuer) Token(address string) (*MemoryToken, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	t, ok := i.tokens[address]
	return t, ok
}
