package app

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"strings"

	"github.com/calehh/daochain/governance"
	"github.com/calehh/daochain/state"
	"github.com/calehh/daochain/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
)

const CodeQueryNotFound uint32 = 404

func (app *DAOApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = CodeQueryNotFound
		res.Log = "unknown query path " + req.Path
		return
	}
	res, err = q.Query(ctx, req)
	return
}

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

// bytesToIndex decodes a big-endian index of at most 8 bytes.
func bytesToIndex(dat []byte) uint64 {
	var idx uint64
	for _, v := range dat {
		idx <<= 8
		idx |= uint64(v)
	}
	return idx
}

// IndexToBytes encodes idx the way index queries expect it.
func IndexToBytes(idx uint64) []byte {
	dat := make([]byte, 8)
	binary.BigEndian.PutUint64(dat, idx)
	return dat
}

type AccountQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewAccountQuerier(db *state.StateDB, logger cmtlog.Logger) (q *AccountQuerier) {
	q = &AccountQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *AccountQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	var a *state.Account
	var height uint64
	if len(req.Data) == 20 {
		a, height, _ = q.db.GetAccountByAddress(req.Data)
	} else if len(req.Data) <= 8 {
		a, height, _ = q.db.GetAccountByIndex(bytesToIndex(req.Data))
	}
	if a != nil {
		res.Value, _ = a.Marshal()
		res.Height = int64(height)
	} else {
		res.Code = CodeQueryNotFound
		res.Log = state.ErrAccountNoexists.Error()
	}
	return
}

type ValidatorQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewValidatorQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ValidatorQuerier) {
	q = &ValidatorQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *ValidatorQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	validators, height, err := q.db.State().ValidatorAccounts()
	if err != nil {
		res.Code = types.CodeOf(err)
		res.Log = err.Error()
		return res, nil
	}
	res.Height = int64(height)
	res.Value, _ = json.Marshal(validators)
	return
}

type ConfigQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewConfigQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ConfigQuerier) {
	q = &ConfigQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *ConfigQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	cfg, height := q.db.GetConfig()
	res.Height = int64(height)
	if cfg == nil {
		res.Code = types.CodeConfigNoexists
		res.Log = state.ErrConfigNoexists.Error()
		return
	}
	res.Value, _ = cfg.Marshal()
	return
}

// ProposalQuerier returns the proposal whose index is the query data, or all
// proposals in index order when the data is empty.
type ProposalQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewProposalQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ProposalQuerier) {
	q = &ProposalQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *ProposalQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	if len(req.Data) > 8 {
		res.Code = CodeQueryNotFound
		res.Log = state.ErrProposalNoexists.Error()
		return
	}
	if len(req.Data) == 0 {
		max, height := q.db.GetProposalMax()
		proposals := make([]*governance.Proposal, 0, max)
		for idx := uint64(1); idx <= max; idx++ {
			p, _, err := q.db.GetProposal(idx)
			if err != nil {
				q.logger.Error("query proposal fail", "proposal", idx, "err", err)
				res.Code = types.CodeOf(err)
				res.Log = err.Error()
				return res, nil
			}
			proposals = append(proposals, p)
		}
		res.Height = int64(height)
		res.Value, _ = json.Marshal(proposals)
		return
	}
	p, height, err := q.db.GetProposal(bytesToIndex(req.Data))
	if err != nil {
		res.Code = types.CodeOf(err)
		res.Log = err.Error()
		return res, nil
	}
	res.Height = int64(height)
	res.Value, _ = p.Marshal()
	return
}

// HoldingQuerier resolves token evidence; the query data is the 20 byte owner
// address followed by the 20 byte token address.
type HoldingQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewHoldingQuerier(db *state.StateDB, logger cmtlog.Logger) (q *HoldingQuerier) {
	q = &HoldingQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *HoldingQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	if len(req.Data) != 20+common.AddressLength {
		res.Code = types.CodeTokenAccountNoexists
		res.Log = state.ErrTokenAccountNoexists.Error()
		return
	}
	owner := governance.Address(req.Data[:20])
	token := common.BytesToAddress(req.Data[20:])
	ev, height, err := q.db.GetHolding(owner, token)
	if err != nil {
		res.Code = types.CodeOf(err)
		res.Log = err.Error()
		return res, nil
	}
	res.Height = int64(height)
	res.Value, _ = json.Marshal(ev)
	return
}

// HoldingQueryData builds the query data of a holding lookup.
func HoldingQueryData(owner governance.Address, token common.Address) []byte {
	dat := make([]byte, 0, 20+common.AddressLength)
	dat = append(dat, owner...)
	return append(dat, token.Bytes()...)
}
