package main

import (
	"github.com/calehh/daochain/app"
	"github.com/spf13/cobra"
)

// GitCommit is stamped by the build:
//
//	go build -ldflags "-X main.GitCommit=$(git rev-parse HEAD)" ./cmd/daochain
var GitCommit string

const nodeVersion = "0.1.0"

// fullVersion is nodeVersion with the short commit appended when one was
// stamped.
func fullVersion(commit string) string {
	if len(commit) < 8 {
		return nodeVersion
	}
	return nodeVersion + "-" + commit[:8]
}

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print the node and ABCI app versions",
	Aliases: []string{"V"},
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("daochain %s (app version %d)\n", fullVersion(GitCommit), app.AppVersion)
	},
}
