package handler

import (
	"github.com/calehh/daochain/state"
	"github.com/calehh/daochain/tx"
	"github.com/calehh/daochain/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type CreateProposalTxHandler struct {
	baseHandler
}

func NewCreateProposalTxHandler(logger cmtlog.Logger) (h *CreateProposalTxHandler) {
	h = &CreateProposalTxHandler{}
	h.logger = logger.With("module", "proposalTx")
	h.apply = h.applyCreateProposal
	return
}

func (h *CreateProposalTxHandler) applyCreateProposal(st *state.State, btx *tx.DAOTx, checkOnly bool) ([]abcitypes.Event, error) {
	ptx, err := payload[tx.CreateProposalTx](btx)
	if err != nil {
		return nil, err
	}
	proposal, err := st.CreateProposal(ptx, btx.Sender, checkOnly)
	if err != nil {
		return nil, err
	}
	if checkOnly {
		return nil, nil
	}
	h.logger.Info("proposal created", "proposal", proposal.Index, "creator", proposal.Creator.String(), "options", len(proposal.Options))
	return []abcitypes.Event{types.EncodeEventProposalCreated(&types.EventProposalCreated{
		ProposalIndex:  proposal.Index,
		CreatorAddress: proposal.Creator.String(),
		Title:          proposal.Title,
		Description:    proposal.Description,
		Options:        proposal.Options,
		StartTime:      proposal.StartTime,
		EndTime:        proposal.EndTime,
	})}, nil
}
