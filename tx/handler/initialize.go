package handler

import (
	"github.com/calehh/daochain/state"
	"github.com/calehh/daochain/tx"
	"github.com/calehh/daochain/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type InitializeTxHandler struct {
	baseHandler
}

func NewInitializeTxHandler(logger cmtlog.Logger) (h *InitializeTxHandler) {
	h = &InitializeTxHandler{}
	h.logger = logger.With("module", "initializeTx")
	h.apply = h.applyInitialize
	return
}

func (h *InitializeTxHandler) applyInitialize(st *state.State, btx *tx.DAOTx, checkOnly bool) ([]abcitypes.Event, error) {
	itx, err := payload[tx.InitializeTx](btx)
	if err != nil {
		return nil, err
	}
	cfg, err := st.Initialize(itx, btx.Sender, checkOnly)
	if err != nil {
		return nil, err
	}
	if checkOnly {
		return nil, nil
	}
	a, err := st.GetAccount(btx.Sender)
	if err != nil {
		return nil, err
	}
	h.logger.Info("governance config initialized", "token", cfg.GovernanceToken.Hex(), "initializer", a.Address())
	return []abcitypes.Event{types.EncodeEventConfigInitialized(&types.EventConfigInitialized{
		GovernanceToken: cfg.GovernanceToken,
		Initializer:     a.Address(),
	})}, nil
}
