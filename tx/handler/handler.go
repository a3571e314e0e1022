package handler

import (
	"context"

	"github.com/calehh/daochain/state"
	"github.com/calehh/daochain/tx"
	"github.com/calehh/daochain/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// TxHandler applies one transaction type. Check runs against the committed
// state without mutating it; Prepare and Process mutate st and return the
// result to be recorded in the block.
type TxHandler interface {
	Check(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ResponseCheckTx, err error)
	Prepare(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error)
	Process(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error)
}

type applyFunc func(st *state.State, btx *tx.DAOTx, checkOnly bool) ([]abcitypes.Event, error)

// baseHandler runs apply for all three entry points of a TxHandler.
type baseHandler struct {
	logger cmtlog.Logger
	apply  applyFunc
}

func (h *baseHandler) Check(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: types.CodeOK}
	_, err1 := h.apply(st, btx, true)
	if err1 != nil {
		h.logger.Info("CheckTx fail", "type", btx.Type, "sender", btx.Sender, "err", err1)
		res.Code = types.CodeOf(err1)
		res.Log = err1.Error()
	}
	return
}

func (h *baseHandler) handle(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error) {
	events, err := h.apply(st, btx, false)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{Code: types.CodeOK, Events: events}
	return
}

func (h *baseHandler) Prepare(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *baseHandler) Process(ctx context.Context, st *state.State, btx *tx.DAOTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func payload[T any](btx *tx.DAOTx) (*T, error) {
	p, ok := btx.Tx.(*T)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	return p, nil
}
