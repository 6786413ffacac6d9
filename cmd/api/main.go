package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/journify/core/cmd/api/commands"
)

// @title Journify API
// @version 1.0
// @description Personal journaling service: entries, tags, editor and statistics

// @contact.name Journify Support
// @contact.url https://github.com/journify/core

// @license.name MIT
// @license.url https://github.com/journify/core/blob/main/LICENSE

// @host localhost:8080
// @BasePath /api/v1

func main() {
	rootCmd := &cobra.Command{
		Use:   "journify",
		Short: "Journify API Server",
		Long:  `Journify is a personal journaling service with entries, tags, a draft editor and derived statistics.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewSeedCommand())
	rootCmd.AddCommand(commands.NewStatsCommand())
	rootCmd.AddCommand(commands.NewExportCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
