package app

import (
	"context"
	"errors"
	"time"

	"github.com/calehh/daochain/state"
	"github.com/calehh/daochain/tx"
	"github.com/calehh/daochain/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

var (
	ErrUnexpectedTxProcess = errors.New("unexpected tx process")
)

// getState opens the working state of the next block with its clock set to
// the block time.
func (app *DAOApp) getState(blockTime time.Time) (st *state.State) {
	st = app.db.NewState()
	st.SetBlockTime(blockTime.Unix())
	return
}

func (app *DAOApp) parseTx(st *state.State, txDat []byte, allowNonceGap bool) (btx *tx.DAOTx, err error) {
	btx, err = tx.UnmarshalDAOTx(txDat)
	if err != nil {
		return
	}
	if btx != nil {
		_, err = st.Verify(btx, allowNonceGap)
	}
	return
}

// applyTx runs one transaction on a clone of st. The clone is returned only
// when the transaction succeeded, so a failing transaction leaves st intact.
func (app *DAOApp) applyTx(ctx context.Context, st *state.State, stx []byte, prepare bool) (next *state.State, res *abcitypes.ExecTxResult, err error) {
	stTmp := st.Clone()
	btx, err := app.parseTx(stTmp, stx, false)
	if err != nil {
		return nil, nil, err
	}
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		return nil, nil, tx.ErrUnsupportedTxType
	}
	if prepare {
		res, err = h.Prepare(ctx, stTmp, btx)
	} else {
		res, err = h.Process(ctx, stTmp, btx)
	}
	if err != nil {
		return nil, nil, err
	}
	if res == nil {
		return nil, nil, ErrUnexpectedTxProcess
	}
	return stTmp, res, nil
}

func (app *DAOApp) CheckTx(ctx context.Context, check *abcitypes.RequestCheckTx) (res *abcitypes.ResponseCheckTx, err error) {
	res = &abcitypes.ResponseCheckTx{Code: types.CodeOK}
	st := app.db.State()
	btx, err := app.parseTx(st, check.Tx, true)
	if err != nil {
		app.logger.Info("parse tx fail", "err", err)
		res.Code = types.CodeOf(err)
		res.Log = err.Error()
		err = nil
		return
	}
	app.logger.Debug("check tx", "type", btx.Type, "sender", btx.Sender)
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		app.logger.Error("unsupported tx", "type", btx.Type)
		res.Code = types.CodeUnsupportedTx
		res.Log = tx.ErrUnsupportedTxType.Error()
		return
	}
	res, err = h.Check(ctx, st, btx)
	if err != nil {
		app.logger.Error("check tx fail", "err", err)
		res = &abcitypes.ResponseCheckTx{Code: types.CodeOf(err), Log: err.Error()}
		err = nil
	}

	return
}

func (app *DAOApp) PrepareProposal(ctx context.Context, proposal *abcitypes.RequestPrepareProposal) (res *abcitypes.ResponsePrepareProposal, err error) {
	app.logger.Info("PrepareProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	st := app.getState(proposal.Time)
	txs := make([][]byte, 0, len(proposal.Txs))
	var size int64
	for _, stx := range proposal.Txs {
		if proposal.MaxTxBytes > 0 && size+int64(len(stx)) > proposal.MaxTxBytes {
			break
		}
		next, _, err := app.applyTx(ctx, st, stx, true)
		if err != nil {
			app.logger.Info("prepare tx dropped", "err", err)
			continue
		}
		st = next
		size += int64(len(stx))
		txs = append(txs, stx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

func (app *DAOApp) ProcessProposal(ctx context.Context, proposal *abcitypes.RequestProcessProposal) (res *abcitypes.ResponseProcessProposal, err error) {
	app.logger.Info("ProcessProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	res = &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}
	st := app.getState(proposal.Time)
	for _, stx := range proposal.Txs {
		next, _, err := app.applyTx(ctx, st, stx, false)
		if err != nil {
			app.logger.Error("process fail", "height", proposal.Height, "err", err)
			return res, nil
		}
		st = next
	}
	res.Status = abcitypes.ResponseProcessProposal_ACCEPT
	return res, nil
}

func (app *DAOApp) finalize(ctx context.Context, st *state.State, txs [][]byte) (next *state.State, res []*abcitypes.ExecTxResult) {
	res = make([]*abcitypes.ExecTxResult, len(txs))
	for i, stx := range txs {
		stTmp, result, err := app.applyTx(ctx, st, stx, false)
		if err != nil {
			app.logger.Error("finalize tx fail", "index", i, "err", err)
			res[i] = &abcitypes.ExecTxResult{Code: types.CodeOf(err), Log: err.Error()}
			continue
		}
		st = stTmp
		res[i] = result
	}
	return st, res
}

func (app *DAOApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.logger.Info("FinalizeBlock", "height", req.Height, "txs", len(req.Txs))
	app.lastBlk.Set(req)
	st := app.getState(req.Time)
	st, res := app.finalize(ctx, st, req.Txs)
	app.st = st
	var events []abcitypes.Event
	curVals, err := st.Validators()
	if err != nil {
		app.logger.Error("get validators fail", "err", err)
		return nil, err
	}
	h, err := st.Update()
	if err != nil {
		app.logger.Error("state update hash fail", "err", err)
		return nil, err
	}
	updateVals, err := st.ValidatorsUpdate(curVals)
	if err != nil {
		app.logger.Error("state update validators hash fail", "err", err)
		return nil, err
	}
	if len(updateVals) != 0 {
		events = append(events, types.EncodeEventUpdateValiators(&types.EventUpdateValiators{Updates: updateVals}))
	}
	return &abcitypes.ResponseFinalizeBlock{
		TxResults:        res,
		AppHash:          h.Bytes(),
		ValidatorUpdates: updateVals,
		Events:           events,
	}, nil
}

func (app *DAOApp) Commit(ctx context.Context, commit *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	if app.st == nil {
		return nil, ErrUnexpectedTxProcess
	}
	_, err := app.db.SetState(app.st)
	if err != nil {
		return nil, err
	}
	app.st = nil
	app.logger.Info("Commit", "height", app.lastBlk.Height)
	return &abcitypes.ResponseCommit{}, nil
}
