// Package config carrega a configuração do serviço: valores padrão, arquivo
// TOML opcional, .env opcional e variáveis de ambiente com prefixo PROMISSORY_.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ferreirogomes/promissory/logger"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix é o prefixo das variáveis de ambiente, ex. PROMISSORY_SERVER_ADDR.
const EnvPrefix = "PROMISSORY_"

type Config struct {
	Server   ServerConfig   `toml:"server" envPrefix:"SERVER_"`
	Database DatabaseConfig `toml:"database" envPrefix:"DATABASE_"`
	Ledger   LedgerConfig   `toml:"ledger" envPrefix:"LEDGER_"`
	Solana   SolanaConfig   `toml:"solana" envPrefix:"SOLANA_"`
	Log      logger.Config  `toml:"log" envPrefix:"LOG_"`
	Metrics  MetricsConfig  `toml:"metrics" envPrefix:"METRICS_"`
	Listener ListenerConfig `toml:"listener" envPrefix:"LISTENER_"`
}

type ServerConfig struct {
	Addr            string        `toml:"addr" env:"ADDR"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// DatabaseConfig escolhe o store: memory, postgres ou sqlite.
type DatabaseConfig struct {
	Driver string `toml:"driver" env:"DRIVER"`
	DSN    string `toml:"dsn" env:"DSN"`
}

// LedgerConfig define as identidades do ledger e a chain dos tokens
// (memory ou solana). Com a chain solana a custódia é a chave pública da
// chave privada configurada e CustodyAddress é ignorado.
type LedgerConfig struct {
	PlatformOwner  string `toml:"platform_owner" env:"PLATFORM_OWNER"`
	CustodyAddress string `toml:"custody_address" env:"CUSTODY_ADDRESS"`
	Chain          string `toml:"chain" env:"CHAIN"`
}

type SolanaConfig struct {
	RPCURL            string `toml:"rpc_url" env:"RPC_URL"`
	CustodyPrivateKey string `toml:"custody_private_key" env:"CUSTODY_PRIVATE_KEY"`
	ValueTokenMint    string `toml:"value_token_mint" env:"VALUE_TOKEN_MINT"`
	Commitment        string `toml:"commitment" env:"COMMITMENT"`
}

type MetricsConfig struct {
	Enabled bool `toml:"enabled" env:"ENABLED"`
}

type ListenerConfig struct {
	Enabled  bool          `toml:"enabled" env:"ENABLED"`
	Interval time.Duration `toml:"interval" env:"INTERVAL"`
}

// Default retorna a configuração de desenvolvimento: tudo em memória.
func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		Database: DatabaseConfig{Driver: "memory"},
		Ledger:   LedgerConfig{CustodyAddress: "promissory-custody", Chain: "memory"},
		Solana:   SolanaConfig{RPCURL: "http://127.0.0.1:8899", Commitment: "finalized"},
		Log:      logger.Config{Level: "info", Env: "development"},
		Metrics:  MetricsConfig{Enabled: true},
		Listener: ListenerConfig{Enabled: true, Interval: 30 * time.Second},
	}
}

// Load lê .env (se existir), o arquivo TOML em path (se informado) e por
// último as variáveis de ambiente.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("falha ao carregar .env: %w", err)
	}
	return LoadWithEnv(path, nil)
}

// LoadWithEnv é Load sem .env, lendo o ambiente de environ. environ nil usa o
// ambiente do processo.
func LoadWithEnv(path string, environ map[string]string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("falha ao ler arquivo de configuração %s: %w", path, err)
		}
	}
	opts := env.Options{Prefix: EnvPrefix, Environment: environ}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("falha ao ler variáveis de ambiente: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate confere combinações que impediriam o serviço de subir.
func (c Config) Validate() error {
	if c.Ledger.PlatformOwner == "" {
		return errors.New("ledger.platform_owner é obrigatório")
	}
	switch c.Database.Driver {
	case "memory":
	case "postgres", "sqlite":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn é obrigatório para o driver %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("driver de banco desconhecido %q", c.Database.Driver)
	}
	switch c.Ledger.Chain {
	case "memory":
		if c.Ledger.CustodyAddress == "" {
			return errors.New("ledger.custody_address é obrigatório com a chain memory")
		}
	case "solana":
		if c.Solana.CustodyPrivateKey == "" || c.Solana.ValueTokenMint == "" {
			return errors.New("solana.custody_private_key e solana.value_token_mint são obrigatórios com a chain solana")
		}
	default:
		return fmt.Errorf("chain desconhecida %q", c.Ledger.Chain)
	}
	return nil
}
