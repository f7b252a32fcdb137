package services_test

import (
	"bytes"
	"context"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ferreirogomes/promissory/services"
)

// MockSolanaRPC é uma implementação mock do cliente RPC da Solana
type MockSolanaRPC struct {
	mock.Mock
}

func (m *MockSolanaRPC) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	args := m.Called(ctx, commitment)
	return args.Get(0).(*rpc.GetLatestBlockhashResult), args.Error(1)
}

func (m *MockSolanaRPC) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
	args := m.Called(ctx, tx, opts)
	return args.Get(0).(solana.Signature), args.Error(1)
}

func (m *MockSolanaRPC) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error) {
	args := m.Called(ctx, account, commitment)
	return args.Get(0).(*rpc.GetTokenAccountBalanceResult), args.Error(1)
}

func (m *MockSolanaRPC) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	args := m.Called(ctx, account)
	return args.Get(0).(*rpc.GetAccountInfoResult), args.Error(1)
}

func (m *MockSolanaRPC) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64, commitment rpc.CommitmentType) (uint64, error) {
	args := m.Called(ctx, dataSize, commitment)
	return args.Get(0).(uint64), args.Error(1)
}

func blockhashResult() *rpc.GetLatestBlockhashResult {
	return &rpc.GetLatestBlockhashResult{Value: &rpc.LatestBlockhashResult{Blockhash: solana.Hash{7}}}
}

func tokenAccountInfo(t *testing.T, mint, owner solana.PublicKey, delegate *solana.PublicKey, delegated uint64) *rpc.GetAccountInfoResult {
	t.Helper()
	var buf bytes.Buffer
	account := token.Account{
		Mint:            mint,
		Owner:           owner,
		Amount:          1_000,
		Delegate:        delegate,
		State:           token.Initialized,
		DelegatedAmount: delegated,
	}
	require.NoError(t, account.MarshalWithEncoder(bin.NewBinEncoder(&buf)))
	return &rpc.GetAccountInfoResult{Value: &rpc.Account{Data: rpc.DataBytesOrJSONFromBytes(buf.Bytes())}}
}

func TestSolanaTransferSignsWithCustody(t *testing.T) {
	ctx := context.Background()
	client := new(MockSolanaRPC)
	custody := solana.NewWallet().PrivateKey
	svc := services.NewSolanaIntegrationServiceWithClient(client, custody, nil)

	mint := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()
	toATA, _, _ := solana.FindAssociatedTokenAddress(to, mint)
	sig := solana.Signature{9}

	client.On("GetAccountInfo", ctx, toATA).Return(tokenAccountInfo(t, mint, to, nil, 0), nil).Once()
	client.On("GetLatestBlockhash", ctx, rpc.CommitmentFinalized).Return(blockhashResult(), nil).Once()
	client.On("SendTransactionWithOpts", ctx, mock.MatchedBy(func(tx *solana.Transaction) bool {
		return len(tx.Signatures) == 1 &&
			tx.Message.AccountKeys[0].Equals(custody.PublicKey()) &&
			len(tx.Message.Instructions) == 1
	}), mock.AnythingOfType("rpc.TransactionOpts")).Return(sig, nil).Once()

	value, err := svc.ValueToken(mint.String())
	require.NoError(t, err)
	assert.Equal(t, custody.PublicKey().String(), value.Holder())

	ok, err := value.Transfer(ctx, to.String(), 500)
	assert.NoError(t, err)
	assert.True(t, ok)
	client.AssertExpectations(t)
}

func TestSolanaTransferOpensMissingAccount(t *testing.T) {
	ctx := context.Background()
	client := new(MockSolanaRPC)
	custody := solana.NewWallet().PrivateKey
	svc := services.NewSolanaIntegrationServiceWithClient(client, custody, nil)

	mint := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	ownerATA, _, _ := solana.FindAssociatedTokenAddress(owner, mint)

	client.On("GetAccountInfo", ctx, ownerATA).Return((*rpc.GetAccountInfoResult)(nil), rpc.ErrNotFound).Once()
	client.On("GetLatestBlockhash", ctx, rpc.CommitmentFinalized).Return(blockhashResult(), nil).Once()
	client.On("SendTransactionWithOpts", ctx, mock.MatchedBy(func(tx *solana.Transaction) bool {
		if len(tx.Message.Instructions) != 2 {
			return false
		}
		create, err := tx.Message.Program(tx.Message.Instructions[0].ProgramIDIndex)
		if err != nil {
			return false
		}
		transfer, err := tx.Message.Program(tx.Message.Instructions[1].ProgramIDIndex)
		if err != nil {
			return false
		}
		return create.Equals(solana.SPLAssociatedTokenAccountProgramID) && transfer.Equals(token.ProgramID)
	}), mock.AnythingOfType("rpc.TransactionOpts")).Return(solana.Signature{3}, nil).Once()

	allotment, err := svc.ValueToken(mint.String())
	require.NoError(t, err)

	ok, err := allotment.Transfer(ctx, owner.String(), 10)
	assert.NoError(t, err)
	assert.True(t, ok)
	client.AssertExpectations(t)
}

func TestSolanaTransferAccountLookupFailure(t *testing.T) {
	ctx := context.Background()
	client := new(MockSolanaRPC)
	custody := solana.NewWallet().PrivateKey
	svc := services.NewSolanaIntegrationServiceWithClient(client, custody, nil)

	mint := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	ownerATA, _, _ := solana.FindAssociatedTokenAddress(owner, mint)

	client.On("GetAccountInfo", ctx, ownerATA).Return((*rpc.GetAccountInfoResult)(nil), assert.AnError).Once()

	allotment, err := svc.ValueToken(mint.String())
	require.NoError(t, err)

	ok, err := allotment.Transfer(ctx, owner.String(), 10)
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, ok)
	client.AssertNotCalled(t, "SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything)
}

func TestSolanaTransferFromWithoutDelegation(t *testing.T) {
	ctx := context.Background()
	client := new(MockSolanaRPC)
	custody := solana.NewWallet().PrivateKey
	svc := services.NewSolanaIntegrationServiceWithClient(client, custody, nil)

	mint := solana.NewWallet().PublicKey()
	investor := solana.NewWallet().PublicKey()
	investorATA, _, _ := solana.FindAssociatedTokenAddress(investor, mint)

	client.On("GetAccountInfo", ctx, investorATA).
		Return(tokenAccountInfo(t, mint, investor, nil, 0), nil).Once()

	value, err := svc.ValueToken(mint.String())
	require.NoError(t, err)

	ok, err := value.TransferFrom(ctx, investor.String(), custody.PublicKey().String(), 100)
	assert.NoError(t, err)
	assert.False(t, ok)
	client.AssertNotCalled(t, "SendTransactionWithOpts", mock.Anything, mock.Anything, mock.Anything)
	client.AssertExpectations(t)
}

func TestSolanaAllowanceReadsDelegate(t *testing.T) {
	ctx := context.Background()
	client := new(MockSolanaRPC)
	custody := solana.NewWallet().PrivateKey
	svc := services.NewSolanaIntegrationServiceWithClient(client, custody, nil)

	mint := solana.NewWallet().PublicKey()
	investor := solana.NewWallet().PublicKey()
	investorATA, _, _ := solana.FindAssociatedTokenAddress(investor, mint)
	delegate := custody.PublicKey()

	client.On("GetAccountInfo", ctx, investorATA).
		Return(tokenAccountInfo(t, mint, investor, &delegate, 750), nil).Twice()

	value, err := svc.ValueToken(mint.String())
	require.NoError(t, err)

	allowed, err := value.Allowance(ctx, investor.String(), custody.PublicKey().String())
	assert.NoError(t, err)
	assert.Equal(t, uint64(750), allowed)

	other, err := value.Allowance(ctx, investor.String(), solana.NewWallet().PublicKey().String())
	assert.NoError(t, err)
	assert.Zero(t, other)
	client.AssertExpectations(t)
}

func TestSolanaBalanceOf(t *testing.T) {
	ctx := context.Background()
	client := new(MockSolanaRPC)
	custody := solana.NewWallet().PrivateKey
	svc := services.NewSolanaIntegrationServiceWithClient(client, custody, nil)

	mint := solana.NewWallet().PublicKey()
	custodyATA, _, _ := solana.FindAssociatedTokenAddress(custody.PublicKey(), mint)
	client.On("GetTokenAccountBalance", ctx, custodyATA, rpc.CommitmentFinalized).
		Return(&rpc.GetTokenAccountBalanceResult{Value: &rpc.UiTokenAmount{Amount: "123456"}}, nil).Once()

	value, err := svc.ValueToken(mint.String())
	require.NoError(t, err)

	balance, err := value.BalanceOf(ctx, custody.PublicKey().String())
	assert.NoError(t, err)
	assert.Equal(t, uint64(123456), balance)
	client.AssertExpectations(t)
}

func TestSolanaIssueCreatesMint(t *testing.T) {
	ctx := context.Background()
	client := new(MockSolanaRPC)
	custody := solana.NewWallet().PrivateKey
	svc := services.NewSolanaIntegrationServiceWithClient(client, custody, nil)

	client.On("GetMinimumBalanceForRentExemption", ctx, uint64(token.MINT_SIZE), rpc.CommitmentFinalized).Return(uint64(1_461_600), nil).Once()
	client.On("GetLatestBlockhash", ctx, rpc.CommitmentFinalized).Return(blockhashResult(), nil).Once()
	client.On("SendTransactionWithOpts", ctx, mock.MatchedBy(func(tx *solana.Transaction) bool {
		// custódia e novo mint assinam
		return len(tx.Signatures) == 2 && len(tx.Message.Instructions) == 4
	}), mock.AnythingOfType("rpc.TransactionOpts")).Return(solana.Signature{1}, nil).Once()

	allotment, err := svc.Issue(ctx, "Casa Azul", "CAZ", 100)
	require.NoError(t, err)
	assert.NotEmpty(t, allotment.Address())
	assert.Equal(t, custody.PublicKey().String(), allotment.Holder())
	client.AssertExpectations(t)
}

func TestSolanaInvalidMint(t *testing.T) {
	svc := services.NewSolanaIntegrationServiceWithClient(new(MockSolanaRPC), solana.NewWallet().PrivateKey, nil)
	_, err := svc.ValueToken("não-é-base58")
	assert.Error(t, err)
}
