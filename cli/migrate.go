package cli

import (
	"fmt"

	"github.com/ferreirogomes/promissory/logger"
	"github.com/ferreirogomes/promissory/storage"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Aplica as migrações do banco configurado",
	Long:  `Conecta ao banco (postgres ou sqlite) e aplica as migrações embutidas pendentes.`,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.Driver == "memory" {
		return fmt.Errorf("o driver memory não tem migrações; configure postgres ou sqlite")
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("falha ao criar logger: %w", err)
	}
	defer log.Sync()

	db, err := storage.NewDB(cfg.Database.Driver, cfg.Database.DSN, log)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Migrações aplicadas em %s\n", cfg.Database.Driver)
	return nil
}
