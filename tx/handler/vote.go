package handler

import (
	"github.com/calehh/daochain/state"
	"github.com/calehh/daochain/tx"
	"github.com/calehh/daochain/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type VoteTxHandler struct {
	baseHandler
}

func NewVoteTxHandler(logger cmtlog.Logger) (h *VoteTxHandler) {
	h = &VoteTxHandler{}
	h.logger = logger.With("module", "voteTx")
	h.apply = h.applyVote
	return
}

func (h *VoteTxHandler) applyVote(st *state.State, btx *tx.DAOTx, checkOnly bool) ([]abcitypes.Event, error) {
	vtx, err := payload[tx.VoteTx](btx)
	if err != nil {
		return nil, err
	}
	proposal, weight, err := st.Vote(vtx, btx.Sender, checkOnly)
	if err != nil {
		return nil, err
	}
	if checkOnly {
		return nil, nil
	}
	voter := proposal.Voters[len(proposal.Voters)-1]
	h.logger.Debug("vote cast", "proposal", proposal.Index, "voter", voter.String(), "option", vtx.Option, "weight", weight)
	return []abcitypes.Event{types.EncodeEventVoteCast(&types.EventVoteCast{
		ProposalIndex: proposal.Index,
		VoterAddress:  voter.String(),
		Option:        vtx.Option,
		Weight:        weight,
	})}, nil
}
