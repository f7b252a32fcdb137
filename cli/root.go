package cli

import (
	"fmt"
	"os"

	"github.com/ferreirogomes/promissory/config"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "promissory",
	Short: "Ledger de tokenização de imóveis e custódia de investimentos",
	Long: `Promissory registra propriedades, tokeniza as aprovadas em tokens de fração
e custodia o value token investido até o proprietário sacar ou liquidar com juros.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Arquivo de configuração TOML")
}

// Execute roda o comando raiz e encerra o processo com código 1 em caso de erro.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	return config.Load(configPath)
}
