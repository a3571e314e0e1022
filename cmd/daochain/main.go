package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional
	_ = godotenv.Load(".env")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(pubkeyCmd)
	rootCmd.AddCommand(initializeCmd)
	rootCmd.AddCommand(proposeCmd)
	rootCmd.AddCommand(voteCmd)
	rootCmd.AddCommand(tallyCmd)
	rootCmd.AddCommand(proposalCmd)
	rootCmd.AddCommand(proposalsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(indexerCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
