package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexassist/core/cmd/api/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lexassist",
		Short: "LexAssist API Server",
		Long:  `LexAssist is a legal-document assistant backend with statutory deadline tracking, multi-channel reminder scheduling, and compliance checks.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewNotifyCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
