package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferreirogomes/promissory/services"
)

func TestMemoryTokenTransfers(t *testing.T) {
	ctx := context.Background()
	token := services.NewMemoryToken("usdc", "USD Coin", "USDC")
	require.NoError(t, token.Mint("bob", 100))

	bob := token.Client("bob")
	ok, err := bob.Transfer(ctx, "carol", 40)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = bob.Transfer(ctx, "carol", 61)
	require.NoError(t, err)
	assert.False(t, ok, "sem saldo a transferência deve ser recusada")

	balance, err := bob.BalanceOf(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, uint64(40), balance)
	assert.Equal(t, uint64(100), token.TotalSupply())
}

func TestMemoryTokenTransferFromConsumesAllowance(t *testing.T) {
	ctx := context.Background()
	token := services.NewMemoryToken("usdc", "USD Coin", "USDC")
	require.NoError(t, token.Mint("bob", 100))
	token.Approve("bob", "ledger", 30)

	ledger := token.Client("ledger")
	ok, err := ledger.TransferFrom(ctx, "bob", "ledger", 20)
	require.NoError(t, err)
	assert.True(t, ok)

	allowed, err := ledger.Allowance(ctx, "bob", "ledger")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), allowed)

	ok, err = ledger.TransferFrom(ctx, "bob", "ledger", 11)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, uint64(80), token.Balance("bob"))
	assert.Equal(t, uint64(20), token.Balance("ledger"))
}

func TestMemoryTokenMintOverflow(t *testing.T) {
	token := services.NewMemoryToken("usdc", "USD Coin", "USDC")
	require.NoError(t, token.Mint("bob", ^uint64(0)))
	err := token.Mint("carol", 1)
	assert.ErrorIs(t, err, services.ErrInvalidArgument)
}

func TestMemoryIssuer(t *testing.T) {
	ctx := context.Background()
	issuer := services.NewMemoryIssuer("ledger")

	allotment, err := issuer.Issue(ctx, "Casa Azul", "CAZ", 100)
	require.NoError(t, err)
	assert.Equal(t, "ledger", allotment.Holder())

	token, ok := issuer.Token(allotment.Address())
	require.True(t, ok)
	assert.Equal(t, "CAZ", token.Symbol())
	assert.Equal(t, uint64(100), token.Balance("ledger"))

	reopened, err := issuer.Open(ctx, allotment.Address())
	require.NoError(t, err)
	assert.Equal(t, allotment.Address(), reopened.Address())

	_, err = issuer.Open(ctx, "allot-desconhecido")
	assert.Error(t, err)
}
