package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calehh/daochain/app"
	"github.com/calehh/daochain/config"
	"github.com/calehh/daochain/indexer"
	"github.com/calehh/daochain/types"
	cmtconfig "github.com/cometbft/cometbft/config"
	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	nm "github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "daochain",
	Short: "daochain is a token weighted governance chain",
	Long: `A CometBFT application where holders of a governance token
create proposals, vote with their token balance and tally the result.`,
	SilenceUsage: true,
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the node",
	Args:  cobra.NoArgs,
	RunE:  startRun,
}

func init() {
	startCmd.Flags().StringP(types.FlagHome, "d", "", "home directory")
}

func rpcHttpUrl(listenAddr string) (string, error) {
	rpcUrl, err := url.Parse(listenAddr)
	if err != nil {
		return "", err
	}
	rpcUrl.Scheme = "http"
	if rpcUrl.Hostname() == "0.0.0.0" {
		rpcUrl.Host = "127.0.0.1:" + rpcUrl.Port()
	}
	return rpcUrl.String(), nil
}

func startRun(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString(types.FlagHome)
	appConfig, err := config.Load(home)
	if err != nil {
		return err
	}

	pv := privval.LoadFilePV(
		appConfig.PrivValidatorKeyFile(),
		appConfig.PrivValidatorStateFile(),
	)

	nodeKey, err := p2p.LoadNodeKey(appConfig.NodeKeyFile())
	if err != nil {
		return fmt.Errorf("failed to load node's key: %w", err)
	}

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	logger, err = cmtflags.ParseLogLevel(appConfig.LogLevel, logger, cmtconfig.DefaultLogLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	daoApp, err := app.NewDAOApp(appConfig.App, logger)
	if err != nil {
		return fmt.Errorf("new app: %w", err)
	}

	node, err := nm.NewNode(
		appConfig.Config,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(daoApp),
		nm.DefaultGenesisDocProviderFunc(appConfig.Config),
		cmtconfig.DefaultDBProvider,
		nm.DefaultMetricsProvider(appConfig.Instrumentation),
		logger,
	)
	if err != nil {
		return fmt.Errorf("creating node: %w", err)
	}

	daoApp.Start(node.BlockStore())
	if err = node.Start(); err != nil {
		return fmt.Errorf("start comet node: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var api *indexer.Service
	var store *indexer.Store
	if appConfig.App.Indexer.Enabled {
		rpcUrl, err := rpcHttpUrl(appConfig.RPC.ListenAddress)
		if err != nil {
			return fmt.Errorf("parse rpc url: %w", err)
		}
		store, api, err = startIndexer(ctx, logger, appConfig.App, rpcUrl)
		if err != nil {
			return err
		}
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Info("shutting down")
	cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		if api != nil {
			if err := api.Stop(); err != nil {
				logger.Error("stop api fail", "err", err)
			}
		}
		if err := node.Stop(); err != nil {
			logger.Error("stop comet node fail", "err", err)
		}
		node.Wait()
		daoApp.Stop()
		if store != nil {
			store.Close()
		}
	}()
	timer := time.NewTimer(time.Second * 10)
	defer timer.Stop()
	select {
	case <-timer.C:
		return fmt.Errorf("shutdown timed out")
	case <-done:
		return nil
	}
}

// startIndexer opens the indexer database and runs the indexer and its API
// in the background until ctx is done.
func startIndexer(ctx context.Context, logger cmtlog.Logger, cfg *config.DAOAppConfig, rpcUrl string) (*indexer.Store, *indexer.Service, error) {
	dbUrl := cfg.DatabasePath()
	logger.Info("open indexer database", "url", config.MaskDatabaseURL(dbUrl))
	store, err := indexer.OpenStore(dbUrl)
	if err != nil {
		return nil, nil, fmt.Errorf("open indexer database: %w", err)
	}
	idx, err := indexer.NewChainIndexer(logger, store, rpcUrl, cfg.Indexer.PollInterval)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("new chain indexer: %w", err)
	}
	go idx.Start(ctx)

	api := indexer.NewService(cfg.API.ListenAddr, store, logger)
	go func() {
		if err := api.Start(); err != nil {
			logger.Error("api stopped", "err", err)
		}
	}()
	return store, api, nil
}
