package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calehh/daochain/config"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/spf13/cobra"
)

type indexerArguments struct {
	Url         string
	DatabaseURL string
	Listen      string
	Interval    time.Duration
}

var indexerArgs indexerArguments

var indexerCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Index governance events of a remote node and serve them over HTTP",
	Args:  cobra.NoArgs,
	RunE:  indexerRun,
}

func init() {
	urlFlag(indexerCmd, &indexerArgs.Url)
	indexerCmd.Flags().StringVar(&indexerArgs.DatabaseURL, "db", "indexer.db", "sqlite path or postgres url")
	indexerCmd.Flags().StringVar(&indexerArgs.Listen, "listen", config.DefaultAPIListen, "api listen address")
	indexerCmd.Flags().DurationVar(&indexerArgs.Interval, "interval", 2*time.Second, "poll interval")
}

func indexerRun(cmd *cobra.Command, args []string) error {
	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	cfg := &config.DAOAppConfig{
		Indexer: config.IndexerConfig{
			Enabled:      true,
			DatabaseURL:  indexerArgs.DatabaseURL,
			PollInterval: indexerArgs.Interval,
		},
		API: config.APIConfig{ListenAddr: indexerArgs.Listen},
	}
	if err := cfg.ValidateBasic(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store, api, err := startIndexer(ctx, logger, cfg, indexerArgs.Url)
	if err != nil {
		return err
	}
	defer store.Close()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	cancel()
	return api.Stop()
}
