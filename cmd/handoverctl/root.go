package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "handoverctl",
	Short: "Handover tracker server and administration tool",
	Long: `Run the handover tracker API server and manage its database,
configuration and Google Sheets import.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
