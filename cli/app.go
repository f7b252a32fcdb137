package cli

import (
	"fmt"

	"github.com/ferreirogomes/promissory/config"
	"github.com/ferreirogomes/promissory/handlers"
	"github.com/ferreirogomes/promissory/services"
	"github.com/ferreirogomes/promissory/storage"

	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// app reúne o que o serve precisa, montado a partir da configuração.
type app struct {
	store   storage.Store
	ledger  *services.PropertyLedger
	sandbox *handlers.SandboxHandler
}

func (a *app) Close() error {
	return a.store.Close()
}

func openStore(cfg config.DatabaseConfig, log *zap.Logger) (storage.Store, error) {
	switch cfg.Driver {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "postgres", "sqlite":
		return storage.NewDB(cfg.Driver, cfg.DSN, log)
	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownDriver, cfg.Driver)
	}
}

func buildApp(cfg config.Config, log *zap.Logger) (*app, error) {
	store, err := openStore(cfg.Database, log)
	if err != nil {
		return nil, err
	}

	var (
		valueToken services.FungibleToken
		issuer     services.AllotmentIssuer
		sandbox    *handlers.SandboxHandler
	)
	switch cfg.Ledger.Chain {
	case "memory":
		value := services.NewMemoryToken("value-token", "Value Token", "VAL")
		memoryIssuer := services.NewMemoryIssuer(cfg.Ledger.CustodyAddress)
		valueToken = value.Client(cfg.Ledger.CustodyAddress)
		issuer = memoryIssuer
		sandbox = handlers.NewSandboxHandler(value, memoryIssuer, cfg.Ledger.CustodyAddress)
	case "solana":
		solanaService, err := services.NewSolanaIntegrationService(cfg.Solana.RPCURL, cfg.Solana.CustodyPrivateKey, log)
		if err != nil {
			store.Close()
			return nil, err
		}
		if cfg.Solana.Commitment != "" {
			solanaService.Commitment = rpc.CommitmentType(cfg.Solana.Commitment)
		}
		valueToken, err = solanaService.ValueToken(cfg.Solana.ValueTokenMint)
		if err != nil {
			store.Close()
			return nil, err
		}
		issuer = solanaService
	default:
		store.Close()
		return nil, fmt.Errorf("chain desconhecida %q", cfg.Ledger.Chain)
	}

	ledger, err := services.NewPropertyLedger(cfg.Ledger.PlatformOwner, store, valueToken, issuer, services.WithLogger(log))
	if err != nil {
		store.Close()
		return nil, err
	}
	return &app{store: store, ledger: ledger, sandbox: sandbox}, nil
}
