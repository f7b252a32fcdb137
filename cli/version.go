package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version é preenchida no build via -ldflags "-X github.com/ferreirogomes/promissory/cli.Version=...".
var Version = "dev"

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Mostra a versão",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "promissory %s\n", Version)
	},
}
