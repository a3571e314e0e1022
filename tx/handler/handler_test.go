package handler

import (
	"context"
	"testing"

	"github.com/calehh/daochain/state"
	"github.com/calehh/daochain/tx"
	"github.com/calehh/daochain/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenT = common.HexToAddress("0x00000000000000000000000000000000000000a1")

func newTestState(t *testing.T) (*state.State, *state.Account) {
	t.Helper()
	db, err := state.NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	st := db.NewState()
	acnt := &state.Account{}
	acnt.SetPubKey(ed25519.GenPrivKey().PubKey().Bytes())
	require.NoError(t, st.AddAccount(acnt))
	st.SetHolding(acnt.AddrBytes(), tokenT, 5)
	return st, acnt
}

func TestPayloadMismatch(t *testing.T) {
	st, acnt := newTestState(t)
	h := NewVoteTxHandler(cmtlog.NewNopLogger())
	btx := &tx.DAOTx{Type: tx.TxTypeVote, Sender: acnt.Index, Tx: &tx.TallyVotesTx{Proposal: 1}}

	_, err := h.Process(context.Background(), st, btx)
	require.ErrorIs(t, err, tx.ErrUnmatchedTxType)

	res, err := h.Check(context.Background(), st, btx)
	require.NoError(t, err)
	assert.Equal(t, types.CodeInvalidTx, res.Code)
}

func TestCheckDoesNotMutate(t *testing.T) {
	st, acnt := newTestState(t)
	h := NewInitializeTxHandler(cmtlog.NewNopLogger())
	btx := &tx.DAOTx{Type: tx.TxTypeInitialize, Sender: acnt.Index, Tx: &tx.InitializeTx{GovernanceToken: tokenT}}

	res, err := h.Check(context.Background(), st, btx)
	require.NoError(t, err)
	assert.Equal(t, types.CodeOK, res.Code)
	assert.Nil(t, st.Config())

	exec, err := h.Prepare(context.Background(), st, btx)
	require.NoError(t, err)
	require.Len(t, exec.Events, 1)
	assert.Equal(t, types.EventConfigInitializedType, exec.Events[0].Type)
	require.NotNil(t, st.Config())

	res, err = h.Check(context.Background(), st, btx)
	require.NoError(t, err)
	assert.Equal(t, types.CodeConfigAlreadyExists, res.Code)
}

func TestProposalAndVoteEvents(t *testing.T) {
	st, acnt := newTestState(t)
	_, err := st.InitConfig(tokenT)
	require.NoError(t, err)
	st.SetBlockTime(10)
	ref := tx.TokenAccount{Owner: acnt.AddrBytes(), Token: tokenT}

	exec, err := NewCreateProposalTxHandler(cmtlog.NewNopLogger()).Process(context.Background(), st, &tx.DAOTx{
		Type:   tx.TxTypeCreateProposal,
		Sender: acnt.Index,
		Tx:     &tx.CreateProposalTx{Title: "P", Options: []string{"A", "B"}, StartTime: 0, EndTime: 20, TokenAccount: ref},
	})
	require.NoError(t, err)
	created := types.DecodeEventProposalCreated(exec.Events[0])
	require.NotNil(t, created)
	assert.Equal(t, acnt.Address(), created.CreatorAddress)

	exec, err = NewVoteTxHandler(cmtlog.NewNopLogger()).Process(context.Background(), st, &tx.DAOTx{
		Type:   tx.TxTypeVote,
		Sender: acnt.Index,
		Tx:     &tx.VoteTx{Proposal: created.ProposalIndex, Option: 1, TokenAccount: ref},
	})
	require.NoError(t, err)
	vote := types.DecodeEventVoteCast(exec.Events[0])
	require.NotNil(t, vote)
	assert.Equal(t, uint64(5), vote.Weight)
	assert.Equal(t, uint8(1), vote.Option)

	_, err = NewTallyVotesTxHandler(cmtlog.NewNopLogger()).Process(context.Background(), st, &tx.DAOTx{
		Type:   tx.TxTypeTallyVotes,
		Sender: acnt.Index,
		Tx:     &tx.TallyVotesTx{Proposal: created.ProposalIndex},
	})
	require.Error(t, err)

	st.SetBlockTime(21)
	exec, err = NewTallyVotesTxHandler(cmtlog.NewNopLogger()).Process(context.Background(), st, &tx.DAOTx{
		Type:   tx.TxTypeTallyVotes,
		Sender: acnt.Index,
		Tx:     &tx.TallyVotesTx{Proposal: created.ProposalIndex},
	})
	require.NoError(t, err)
	tallied := types.DecodeEventProposalTallied(exec.Events[0])
	require.NotNil(t, tallied)
	assert.Equal(t, int64(1), tallied.Winner)
}
