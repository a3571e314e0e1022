package app

import (
	"context"
	"fmt"

	"github.com/calehh/daochain/config"
	"github.com/calehh/daochain/state"
	"github.com/calehh/daochain/tx"
	"github.com/calehh/daochain/tx/handler"
	"github.com/calehh/daochain/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/store"
	"github.com/ethereum/go-ethereum/common"
)

// AppVersion is reported to cometbft in Info.
const AppVersion uint64 = 1

type finalizeBlock struct {
	Height uint64
	Hash   common.Hash
}

func (b *finalizeBlock) Set(blk *abcitypes.RequestFinalizeBlock) {
	b.Height = uint64(blk.Height)
	b.Hash = common.BytesToHash(blk.Hash)
}

var _ abcitypes.Application = &DAOApp{}

type DAOApp struct {
	cfg    *config.DAOAppConfig
	logger cmtlog.Logger

	db       *state.StateDB
	lastBlk  finalizeBlock
	txHdlrs  map[tx.TxType]handler.TxHandler
	queriers map[string]Querier

	st *state.State
}

func NewDAOApp(cfg *config.DAOAppConfig, logger cmtlog.Logger) (app *DAOApp, err error) {
	dir := cfg.Home + "/data"
	db, err := state.NewStateDB(dir, logger)
	if err != nil {
		return nil, err
	}
	return newDAOApp(cfg, db, logger), nil
}

func newDAOApp(cfg *config.DAOAppConfig, db *state.StateDB, logger cmtlog.Logger) (app *DAOApp) {
	logger = logger.With("module", "app")
	app = &DAOApp{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		txHdlrs:  make(map[tx.TxType]handler.TxHandler),
		queriers: make(map[string]Querier),
	}
	app.registerTxHandler()
	app.registerQuerier()
	return
}

func (app *DAOApp) Start(bs *store.BlockStore) {
	height := app.db.Header().Height
	if height > 0 {
		blk := bs.LoadBlock(int64(height))
		if blk == nil {
			panic("unexpected BlockStore")
		}
		app.lastBlk.Height = height
		app.lastBlk.Hash = common.BytesToHash(blk.Hash())
	}
}

func (app *DAOApp) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("DAO app stopped")
}

func (app *DAOApp) registerTxHandler() {
	app.txHdlrs = map[tx.TxType]handler.TxHandler{
		tx.TxTypeInitialize:     handler.NewInitializeTxHandler(app.logger),
		tx.TxTypeCreateProposal: handler.NewCreateProposalTxHandler(app.logger),
		tx.TxTypeVote:           handler.NewVoteTxHandler(app.logger),
		tx.TxTypeTallyVotes:     handler.NewTallyVotesTxHandler(app.logger),
	}
}

func (app *DAOApp) registerQuerier() {
	app.queriers["/accounts/"] = NewAccountQuerier(app.db, app.logger)
	app.queriers["/validators/"] = NewValidatorQuerier(app.db, app.logger)
	app.queriers["/config/"] = NewConfigQuerier(app.db, app.logger)
	app.queriers["/proposals/"] = NewProposalQuerier(app.db, app.logger)
	app.queriers["/holdings/"] = NewHoldingQuerier(app.db, app.logger)
}

func (app *DAOApp) InitChain(_ context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	st := app.db.NewState()
	st.SetChainId(chain.ChainId)
	st.SetBlockTime(chain.Time.Unix())
	for _, v := range chain.Validators {
		var acnt state.Account
		acnt.SetPubKey(v.PubKey.GetEd25519())
		acnt.Stake = uint64(v.Power) * config.GWeiPerPower(0)
		err = st.AddAccount(&acnt)
		if err != nil {
			app.logger.Error("InitChain add account fail", "err", err)
			return nil, err
		}
	}
	err = app.applyGenesisState(st, chain.AppStateBytes)
	if err != nil {
		app.logger.Error("InitChain apply app state fail", "err", err)
		return nil, err
	}
	var h common.Hash
	_, err = st.Update()
	if err != nil {
		app.logger.Error("InitChain update state fail", "err", err)
		return nil, err
	}
	h, err = app.db.SetState(st)
	if err != nil {
		app.logger.Error("InitChain apply state fail", "err", err)
		return nil, err
	}
	return &abcitypes.ResponseInitChain{
		AppHash: h.Bytes(),
	}, nil
}

// applyGenesisState allocates genesis token holdings, registering an account
// for every holder not yet known, and initializes the governance config when
// the genesis names a token.
func (app *DAOApp) applyGenesisState(st *state.State, appState []byte) error {
	gs, err := types.ParseAppGenesisState(appState)
	if err != nil {
		return err
	}
	for i, h := range gs.Holdings {
		addr := ed25519.PubKey(h.PubKey).Address()
		acnt, err := st.FindAccount(addr)
		if err != nil {
			return err
		}
		if acnt == nil {
			acnt = &state.Account{Name: h.Name}
			acnt.SetPubKey(h.PubKey)
			if err = st.AddAccount(acnt); err != nil {
				return fmt.Errorf("holding %d: %w", i, err)
			}
		}
		st.SetHolding(addr, h.Token, h.Amount)
		app.logger.Info("genesis holding", "address", addr.String(), "token", h.Token.Hex(), "amount", h.Amount)
	}
	if gs.GovernanceToken != nil {
		cfg, err := st.InitConfig(*gs.GovernanceToken)
		if err != nil {
			return err
		}
		app.logger.Info("genesis governance config", "token", cfg.GovernanceToken.Hex())
	}
	return nil
}

func (app *DAOApp) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	return &abcitypes.ResponseInfo{
		Data:             types.DAOModuleName,
		AppVersion:       AppVersion,
		LastBlockHeight:  int64(header.Height),
		LastBlockAppHash: header.Hash,
	}, nil
}

func (app *DAOApp) ExtendVote(_ context.Context, extend *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *DAOApp) VerifyVoteExtension(_ context.Context, verify *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

func (app *DAOApp) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{}, nil
}

func (app *DAOApp) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

func (app *DAOApp) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

func (app *DAOApp) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{}, nil
}
