package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fredylg/ReefBuddy-sub001/internal/interfaces/cli/migrate"
	"github.com/fredylg/ReefBuddy-sub001/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "reefbuddy",
		Short: "ReefBuddy - credit ledger and water analysis backend",
		Long:  `ReefBuddy is the backend service for the ReefBuddy aquarium app, providing the device credit ledger, purchase verification and AI water analysis endpoints.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
