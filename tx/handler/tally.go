package handler

import (
	"github.com/calehh/daochain/state"
	"github.com/calehh/daochain/tx"
	"github.com/calehh/daochain/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type TallyVotesTxHandler struct {
	baseHandler
}

func NewTallyVotesTxHandler(logger cmtlog.Logger) (h *TallyVotesTxHandler) {
	h = &TallyVotesTxHandler{}
	h.logger = logger.With("module", "tallyTx")
	h.apply = h.applyTally
	return
}

func (h *TallyVotesTxHandler) applyTally(st *state.State, btx *tx.DAOTx, checkOnly bool) ([]abcitypes.Event, error) {
	ttx, err := payload[tx.TallyVotesTx](btx)
	if err != nil {
		return nil, err
	}
	proposal, err := st.TallyVotes(ttx, btx.Sender, checkOnly)
	if err != nil {
		return nil, err
	}
	if checkOnly {
		return nil, nil
	}
	winner := types.NoWinner
	if proposal.Winner != nil {
		winner = int64(*proposal.Winner)
	}
	h.logger.Info("proposal tallied", "proposal", proposal.Index, "winner", winner, "label", proposal.WinnerLabel())
	return []abcitypes.Event{types.EncodeEventProposalTallied(&types.EventProposalTallied{
		ProposalIndex: proposal.Index,
		Winner:        winner,
		Tally:         proposal.Tally,
	})}, nil
}
