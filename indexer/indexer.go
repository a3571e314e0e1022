package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/calehh/daochain/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
)

// GenesisInitializer is recorded as the initializer of a config set by the
// genesis app state.
const GenesisInitializer = "genesis"

// BlockSource is the part of the CometBFT RPC client the indexer reads from.
type BlockSource interface {
	Status(ctx context.Context) (*coretypes.ResultStatus, error)
	Genesis(ctx context.Context) (*coretypes.ResultGenesis, error)
	BlockResults(ctx context.Context, height *int64) (*coretypes.ResultBlockResults, error)
}

type ChainIndexer struct {
	logger        cmtlog.Logger
	Url           string
	Height        int64
	interval      time.Duration
	store         *Store
	cli           BlockSource
	eventHandlers map[string]eventHandler
	genesisDone   bool
}

func NewChainIndexer(logger cmtlog.Logger, store *Store, chainUrl string, interval time.Duration) (*ChainIndexer, error) {
	logger.Info("NewChainIndexer", "url", chainUrl)
	cli, err := comethttp.New(chainUrl, "/websocket")
	if err != nil {
		return nil, err
	}
	c, err := newChainIndexer(logger, store, cli, interval)
	if err != nil {
		return nil, err
	}
	c.Url = chainUrl
	return c, nil
}

func newChainIndexer(logger cmtlog.Logger, store *Store, cli BlockSource, interval time.Duration) (*ChainIndexer, error) {
	h, err := store.Height()
	if err != nil {
		return nil, err
	}
	c := &ChainIndexer{
		logger:   logger.With("module", "indexer"),
		Height:   int64(h + 1),
		interval: interval,
		store:    store,
		cli:      cli,
	}
	c.eventHandlers = map[string]eventHandler{
		types.EventConfigInitializedType: c.handleEventConfigInitialized,
		types.EventProposalCreatedType:   c.handleEventProposalCreated,
		types.EventVoteCastType:          c.handleEventVoteCast,
		types.EventProposalTalliedType:   c.handleEventProposalTallied,
	}
	return c, nil
}

type eventHandler func(event abci.Event, height int64) error

func (c *ChainIndexer) handleEvent(event abci.Event, height int64) error {
	if h, ok := c.eventHandlers[event.Type]; ok {
		return h(event, height)
	}
	return nil
}

func (c *ChainIndexer) handleEventConfigInitialized(event abci.Event, height int64) error {
	ev := types.DecodeEventConfigInitialized(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	return c.store.saveConfig(&GovConfig{
		GovernanceToken: ev.GovernanceToken.Hex(),
		Initializer:     ev.Initializer,
		Height:          uint64(height),
	})
}

func (c *ChainIndexer) handleEventProposalCreated(event abci.Event, height int64) error {
	ev := types.DecodeEventProposalCreated(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	options, err := json.Marshal(ev.Options)
	if err != nil {
		return err
	}
	return c.store.saveProposal(&Proposal{
		Id:             ev.ProposalIndex,
		CreatorAddress: ev.CreatorAddress,
		Title:          ev.Title,
		Description:    ev.Description,
		Options:        string(options),
		StartTime:      ev.StartTime,
		EndTime:        ev.EndTime,
		NewHeight:      uint64(height),
		Winner:         types.NoWinner,
	})
}

func (c *ChainIndexer) handleEventVoteCast(event abci.Event, height int64) error {
	ev := types.DecodeEventVoteCast(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	return c.store.saveVote(&Vote{
		Proposal:     ev.ProposalIndex,
		VoterAddress: ev.VoterAddress,
		Option:       ev.Option,
		Weight:       ev.Weight,
		Height:       uint64(height),
	})
}

func (c *ChainIndexer) handleEventProposalTallied(event abci.Event, height int64) error {
	ev := types.DecodeEventProposalTallied(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	tally := make([]string, len(ev.Tally))
	for i, w := range ev.Tally {
		tally[i] = strconv.FormatUint(w, 10)
	}
	return c.store.saveTally(ev.ProposalIndex, uint64(height), strings.Join(tally, ","), ev.Winner)
}

// indexBlock stores the events of the successful transactions of one block
// and advances the cursor past it.
func (c *ChainIndexer) indexBlock(res *coretypes.ResultBlockResults) error {
	for i, txRes := range res.TxsResults {
		if txRes.Code != types.CodeOK {
			c.logger.Debug("skip failed tx", "height", res.Height, "index", i, "code", txRes.Code)
			continue
		}
		for _, event := range txRes.Events {
			if err := c.handleEvent(event, res.Height); err != nil {
				return err
			}
		}
	}
	if err := c.store.SaveHeight(uint64(res.Height)); err != nil {
		return err
	}
	c.Height = res.Height + 1
	return nil
}

// seedGenesisConfig stores the config of a chain whose governance token was
// set in genesis. InitChain emits no events, so blocks never carry it.
func (c *ChainIndexer) seedGenesisConfig(ctx context.Context) error {
	if c.genesisDone {
		return nil
	}
	_, err := c.store.GetConfig()
	if err == nil {
		c.genesisDone = true
		return nil
	}
	if !errors.Is(err, ErrNotIndexed) {
		return err
	}
	res, err := c.cli.Genesis(ctx)
	if err != nil {
		return err
	}
	if res.Genesis == nil {
		c.genesisDone = true
		return nil
	}
	gs, err := types.ParseAppGenesisState(res.Genesis.AppState)
	if err != nil {
		return err
	}
	c.genesisDone = true
	if gs.GovernanceToken == nil {
		return nil
	}
	c.logger.Info("seed genesis config", "token", gs.GovernanceToken.Hex())
	return c.store.saveConfig(&GovConfig{
		GovernanceToken: gs.GovernanceToken.Hex(),
		Initializer:     GenesisInitializer,
	})
}

// Sync indexes every committed block above the cursor.
func (c *ChainIndexer) Sync(ctx context.Context) error {
	if err := c.seedGenesisConfig(ctx); err != nil {
		c.logger.Error("seed genesis config fail", "err", err)
		return err
	}
	status, err := c.cli.Status(ctx)
	if err != nil {
		return err
	}
	for status.SyncInfo.LatestBlockHeight >= c.Height {
		if err := ctx.Err(); err != nil {
			return err
		}
		height := c.Height
		c.logger.Debug("indexer syncing", "height", height)
		res, err := c.cli.BlockResults(ctx, &height)
		if err != nil {
			return err
		}
		if err := c.indexBlock(res); err != nil {
			c.logger.Error("index block fail", "height", height, "err", err)
			return err
		}
	}
	return nil
}

// Start polls the chain until ctx is done.
func (c *ChainIndexer) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Sync(ctx); err != nil && ctx.Err() == nil {
				c.logger.Error("sync fail", "height", c.Height, "err", err)
			}
		}
	}
}
