package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// SolanaRPC é o subconjunto do cliente RPC usado pela integração.
type SolanaRPC interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, transaction *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64, commitment rpc.CommitmentType) (uint64, error)
}

// SolanaIntegrationService liga o ledger a tokens SPL. A chave de custódia
// assina e paga as taxas de todas as transações.
type SolanaIntegrationService struct {
	RPCClient  SolanaRPC
	Custody    solana.PrivateKey
	Commitment rpc.CommitmentType
	log        *zap.Logger
}

// NewSolanaIntegrationService conecta ao endpoint RPC com a chave de custódia em base58.
func NewSolanaIntegrationService(rpcEndpoint, custodyKeyBase58 string, log *zap.Logger) (*SolanaIntegrationService, error) {
	custody, err := solana.PrivateKeyFromBase58(custodyKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("falha ao carregar chave privada de custódia: %w", err)
	}
	return NewSolanaIntegrationServiceWithClient(rpc.New(rpcEndpoint), custody, log), nil
}

func NewSolanaIntegrationServiceWithClient(client SolanaRPC, custody solana.PrivateKey, log *zap.Logger) *SolanaIntegrationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SolanaIntegrationService{
		RPCClient:  client,
		Custody:    custody,
		Commitment: rpc.CommitmentFinalized,
		log:        log,
	}
}

// CustodyAddress é a chave pública de custódia em base58.
func (s *SolanaIntegrationService) CustodyAddress() string {
	return s.Custody.PublicKey().String()
}

// sendInstructions monta, assina e envia uma transação paga pela custódia.
func (s *SolanaIntegrationService) sendInstructions(ctx context.Context, extraSigners []solana.PrivateKey, instructions ...solana.Instruction) (solana.Signature, error) {
	resp, err := s.RPCClient.GetLatestBlockhash(ctx, s.Commitment)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("falha ao obter blockhash: %w", err)
	}
	if resp == nil || resp.Value == nil {
		return solana.Signature{}, errors.New("blockhash vazio")
	}

	tx, err := solana.NewTransaction(instructions, resp.Value.Blockhash, solana.TransactionPayer(s.Custody.PublicKey()))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("falha ao criar transação: %w", err)
	}

	signers := append([]solana.PrivateKey{s.Custody}, extraSigners...)
	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range signers {
			if key.Equals(signers[i].PublicKey()) {
				return &signers[i]
			}
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("falha ao assinar transação: %w", err)
	}

	sig, err := s.RPCClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("falha ao enviar transação: %w", err)
	}
	s.log.Debug("transação enviada", zap.String("signature", sig.String()))
	return sig, nil
}

// ValueToken retorna o token de liquidação identificado pelo mint.
func (s *SolanaIntegrationService) ValueToken(mintBase58 string) (FungibleToken, error) {
	mint, err := solana.PublicKeyFromBase58(mintBase58)
	if err != nil {
		return nil, fmt.Errorf("endereço de mint inválido: %w", err)
	}
	return &splToken{svc: s, mint: mint}, nil
}

// Issue cria um mint SPL sem casas decimais, abre a conta associada da
// custódia e cunha supply unidades nela. Nome e símbolo ficam só no ledger.
func (s *SolanaIntegrationService) Issue(ctx context.Context, name, symbol string, supply uint64) (FungibleToken, error) {
	mintKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("falha ao gerar chave do mint: %w", err)
	}
	mint := mintKey.PublicKey()
	custody := s.Custody.PublicKey()

	rent, err := s.RPCClient.GetMinimumBalanceForRentExemption(ctx, token.MINT_SIZE, s.Commitment)
	if err != nil {
		return nil, fmt.Errorf("falha ao obter aluguel mínimo do mint: %w", err)
	}
	custodyATA, _, err := solana.FindAssociatedTokenAddress(custody, mint)
	if err != nil {
		return nil, fmt.Errorf("falha ao derivar conta associada da custódia: %w", err)
	}

	sig, err := s.sendInstructions(ctx, []solana.PrivateKey{mintKey},
		system.NewCreateAccountInstruction(rent, token.MINT_SIZE, token.ProgramID, custody, mint).Build(),
		token.NewInitializeMint2Instruction(0, custody, custody, mint).Build(),
		associatedtokenaccount.NewCreateInstruction(custody, custody, mint).Build(),
		token.NewMintToInstruction(supply, mint, custodyATA, custody, nil).Build(),
	)
	if err != nil {
		return nil, err
	}
	s.log.Info("token de fração emitido",
		zap.String("mint", mint.String()),
		zap.String("name", name),
		zap.String("symbol", symbol),
		zap.Uint64("supply", supply),
		zap.String("signature", sig.String()),
	)
	return &splToken{svc: s, mint: mint}, nil
}

func (s *SolanaIntegrationService) Open(_ context.Context, address string) (FungibleToken, error) {
	return s.ValueToken(address)
}

// splToken é a visão de um mint SPL a partir da custódia.
type splToken struct {
	svc  *SolanaIntegrationService
	mint solana.PublicKey
}

func (t *splToken) Address() string { return t.mint.String() }
func (t *splToken) Holder() string  { return t.svc.CustodyAddress() }

func (t *splToken) ata(walletBase58 string) (solana.PublicKey, error) {
	wallet, err := solana.PublicKeyFromBase58(walletBase58)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("endereço inválido %q: %w", walletBase58, err)
	}
	ata, _, err := solana.FindAssociatedTokenAddress(wallet, t.mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("falha ao derivar conta associada de %s: %w", walletBase58, err)
	}
	return ata, nil
}

// Transfer envia amount da conta associada da custódia para a de to.
func (t *splToken) Transfer(ctx context.Context, to string, amount uint64) (bool, error) {
	return t.transfer(ctx, t.Holder(), to, amount)
}

// TransferFrom move fundos de from usando a custódia como delegate aprovado.
func (t *splToken) TransferFrom(ctx context.Context, from, to string, amount uint64) (bool, error) {
	allowed, err := t.Allowance(ctx, from, t.Holder())
	if err != nil {
		return false, err
	}
	if allowed < amount {
		return false, nil
	}
	return t.transfer(ctx, from, to, amount)
}

func (t *splToken) transfer(ctx context.Context, from, to string, amount uint64) (bool, error) {
	source, err := t.ata(from)
	if err != nil {
		return false, err
	}
	destination, err := t.ata(to)
	if err != nil {
		return false, err
	}
	instructions, err := t.openIfMissing(ctx, to, destination)
	if err != nil {
		return false, err
	}
	instructions = append(instructions,
		token.NewTransferInstruction(amount, source, destination, t.svc.Custody.PublicKey(), nil).Build())
	if _, err := t.svc.sendInstructions(ctx, nil, instructions...); err != nil {
		return false, err
	}
	return true, nil
}

// openIfMissing devolve a criação da conta associada de wallet quando ela
// ainda não existe na rede. A custódia paga o aluguel.
func (t *splToken) openIfMissing(ctx context.Context, wallet string, ata solana.PublicKey) ([]solana.Instruction, error) {
	resp, err := t.svc.RPCClient.GetAccountInfo(ctx, ata)
	switch {
	case errors.Is(err, rpc.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("falha ao buscar conta associada de %s: %w", wallet, err)
	case resp != nil && resp.Value != nil:
		return nil, nil
	}
	owner, err := solana.PublicKeyFromBase58(wallet)
	if err != nil {
		return nil, fmt.Errorf("endereço inválido %q: %w", wallet, err)
	}
	t.svc.log.Debug("criando conta associada",
		zap.String("wallet", wallet),
		zap.String("mint", t.mint.String()),
	)
	return []solana.Instruction{
		associatedtokenaccount.NewCreateInstruction(t.svc.Custody.PublicKey(), owner, t.mint).Build(),
	}, nil
}

func (t *splToken) BalanceOf(ctx context.Context, account string) (uint64, error) {
	ata, err := t.ata(account)
	if err != nil {
		return 0, err
	}
	resp, err := t.svc.RPCClient.GetTokenAccountBalance(ctx, ata, t.svc.Commitment)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("falha ao consultar saldo de %s: %w", account, err)
	}
	if resp == nil || resp.Value == nil {
		return 0, nil
	}
	balance, err := strconv.ParseUint(resp.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("saldo inválido %q: %w", resp.Value.Amount, err)
	}
	return balance, nil
}

// Allowance lê o delegate da conta associada de owner.
func (t *splToken) Allowance(ctx context.Context, owner, spender string) (uint64, error) {
	ata, err := t.ata(owner)
	if err != nil {
		return 0, err
	}
	spenderKey, err := solana.PublicKeyFromBase58(spender)
	if err != nil {
		return 0, fmt.Errorf("endereço inválido %q: %w", spender, err)
	}
	resp, err := t.svc.RPCClient.GetAccountInfo(ctx, ata)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("falha ao buscar conta de %s: %w", owner, err)
	}

	var account token.Account
	if err := account.UnmarshalWithDecoder(bin.NewBinDecoder(resp.GetBinary())); err != nil {
		return 0, fmt.Errorf("falha ao decodificar conta de %s: %w", owner, err)
	}
	if account.Delegate == nil || !account.Delegate.Equals(spenderKey) {
		return 0, nil
	}
	return account.DelegatedAmount, nil
}
