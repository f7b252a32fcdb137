package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ferreirogomes/promissory/config"
)

func memoryConfig() config.Config {
	cfg := config.Default()
	cfg.Ledger.PlatformOwner = "platform"
	return cfg
}

func TestBuildAppMemory(t *testing.T) {
	a, err := buildApp(memoryConfig(), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.sandbox)
	assert.Equal(t, "platform", a.ledger.PlatformOwner())
	assert.Equal(t, "promissory-custody", a.ledger.CustodyAddress())

	_, err = a.ledger.AddProperty(context.Background(), "alice", "Casa Azul", "CAZ", 100, 725, 1)
	assert.NoError(t, err)
}

func TestBuildAppSQLite(t *testing.T) {
	cfg := memoryConfig()
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = ":memory:"

	a, err := buildApp(cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	event, err := a.ledger.AddProperty(context.Background(), "alice", "Casa Azul", "CAZ", 100, 725, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), event.PropertyID)
}

func TestBuildAppSolanaRejectsBadKey(t *testing.T) {
	cfg := memoryConfig()
	cfg.Ledger.Chain = "solana"
	cfg.Solana.CustodyPrivateKey = "não-é-uma-chave"
	cfg.Solana.ValueTokenMint = "So11111111111111111111111111111111111111112"

	_, err := buildApp(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestBuildAppUnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.Database.Driver = "mysql"
	_, err := buildApp(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "promissory dev")
}
