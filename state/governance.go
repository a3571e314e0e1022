package state

import (
	"fmt"

	"github.com/calehh/daochain/governance"
	"github.com/calehh/daochain/tx"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
)

func holdingKey(owner governance.Address, token common.Address) string {
	return fmt.Sprintf(KeyHolding, []byte(owner), token.Bytes())
}

// Config returns the governance configuration, or nil before initialization.
func (s *State) Config() *governance.Config {
	return s.config
}

// InitConfig establishes the configuration registry. It can succeed once per
// chain; later calls fail with ErrConfigAlreadyExists.
func (s *State) InitConfig(token common.Address) (*governance.Config, error) {
	if s.config != nil {
		return nil, ErrConfigAlreadyExists
	}
	s.config = governance.NewConfig(token)
	s.modConfig = true
	return s.config, nil
}

// SetHolding allocates amount units of token to owner.
func (s *State) SetHolding(owner governance.Address, token common.Address, amount uint64) {
	key := holdingKey(owner, token)
	s.holdings[key] = amount
	s.modHoldings[key] = true
}

func (s *State) Holding(owner governance.Address, token common.Address) (amount uint64, ok bool, err error) {
	key := holdingKey(owner, token)
	if amount, ok = s.holdings[key]; ok {
		return
	}
	val, err := s.kv.Get([]byte(key))
	if err != nil {
		if err == leveldb.ErrNotFound {
			return 0, false, nil
		}
		return 0, false, err
	}
	if val == nil {
		return 0, false, nil
	}
	err = rlp.DecodeBytes(val, &amount)
	if err != nil {
		return 0, false, err
	}
	s.holdings[key] = amount
	return amount, true, nil
}

// TokenEvidence resolves the holding of token owned by owner.
func (s *State) TokenEvidence(owner governance.Address, token common.Address) (governance.Evidence, error) {
	amount, ok, err := s.Holding(owner, token)
	if err != nil {
		return governance.Evidence{}, err
	}
	if !ok {
		return governance.Evidence{}, ErrTokenAccountNoexists
	}
	return governance.Evidence{
		Owner:   owner,
		Token:   token,
		Balance: amount,
	}, nil
}

func (s *State) ProposalMax() uint64 {
	return s.proposalMaxIndex
}

// GetProposal returns a copy of the proposal at idx.
func (s *State) GetProposal(idx uint64) (*governance.Proposal, error) {
	if idx == 0 || idx > s.proposalMaxIndex {
		return nil, ErrProposalNoexists
	}
	if p, ok := s.modProposals[idx]; ok {
		return p.Clone(), nil
	}
	val, err := s.kv.Get([]byte(fmt.Sprintf(KeyProposalBody, idx)))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ErrProposalNoexists
	}
	return governance.UnmarshalProposal(val)
}

func (s *State) requireConfig() (*governance.Config, error) {
	if s.config == nil {
		return nil, ErrConfigNoexists
	}
	return s.config, nil
}

// Initialize applies an initialize transaction from sender.
func (s *State) Initialize(itx *tx.InitializeTx, sender uint64, checkOnly bool) (cfg *governance.Config, err error) {
	s.logger.Debug("apply initialize", "sender", sender, "height", s.header.Height)
	a, err := s.sender(sender)
	if err != nil {
		return nil, err
	}
	if s.config != nil {
		return nil, ErrConfigAlreadyExists
	}
	if checkOnly {
		return governance.NewConfig(itx.GovernanceToken), nil
	}
	cfg, err = s.InitConfig(itx.GovernanceToken)
	if err != nil {
		return nil, err
	}
	s.bumpNonce(a)
	return cfg, nil
}

// CreateProposal applies a create proposal transaction from sender. The
// sender's address is the proposal creator.
func (s *State) CreateProposal(ptx *tx.CreateProposalTx, sender uint64, checkOnly bool) (proposal *governance.Proposal, err error) {
	s.logger.Debug("apply create proposal", "sender", sender, "height", s.header.Height)
	a, err := s.sender(sender)
	if err != nil {
		return nil, err
	}
	cfg, err := s.requireConfig()
	if err != nil {
		return nil, err
	}
	ev, err := s.TokenEvidence(ptx.TokenAccount.Owner, ptx.TokenAccount.Token)
	if err != nil {
		return nil, err
	}
	proposal, err = governance.NewProposal(cfg, governance.ProposalParams{
		Creator:     a.AddrBytes(),
		Title:       ptx.Title,
		Description: ptx.Description,
		Options:     ptx.Options,
		StartTime:   ptx.StartTime,
		EndTime:     ptx.EndTime,
	}, ev)
	if err != nil {
		return nil, err
	}
	proposal.Index = s.proposalMaxIndex + 1
	proposal.Height = s.header.Height
	if checkOnly {
		return proposal, nil
	}
	s.proposalMaxIndex = proposal.Index
	s.modProposals[proposal.Index] = proposal.Clone()
	s.bumpNonce(a)
	return proposal, nil
}

// Vote applies a vote transaction from sender at the current block time and
// returns the updated proposal together with the weight applied.
func (s *State) Vote(vtx *tx.VoteTx, sender uint64, checkOnly bool) (proposal *governance.Proposal, weight uint64, err error) {
	s.logger.Debug("apply vote", "sender", sender, "proposal", vtx.Proposal, "height", s.header.Height)
	a, err := s.sender(sender)
	if err != nil {
		return nil, 0, err
	}
	cfg, err := s.requireConfig()
	if err != nil {
		return nil, 0, err
	}
	proposal, err = s.GetProposal(vtx.Proposal)
	if err != nil {
		return nil, 0, err
	}
	ev, err := s.TokenEvidence(vtx.TokenAccount.Owner, vtx.TokenAccount.Token)
	if err != nil {
		return nil, 0, err
	}
	weight, err = proposal.CastVote(cfg, a.AddrBytes(), vtx.Option, s.header.LastBlockTime, ev)
	if err != nil {
		return nil, 0, err
	}
	if checkOnly {
		return proposal, weight, nil
	}
	s.modProposals[proposal.Index] = proposal.Clone()
	s.bumpNonce(a)
	return proposal, weight, nil
}

// TallyVotes applies a tally transaction from sender at the current block time.
func (s *State) TallyVotes(ttx *tx.TallyVotesTx, sender uint64, checkOnly bool) (proposal *governance.Proposal, err error) {
	s.logger.Debug("apply tally votes", "sender", sender, "proposal", ttx.Proposal, "height", s.header.Height)
	a, err := s.sender(sender)
	if err != nil {
		return nil, err
	}
	proposal, err = s.GetProposal(ttx.Proposal)
	if err != nil {
		return nil, err
	}
	err = proposal.TallyVotes(s.header.LastBlockTime)
	if err != nil {
		return nil, err
	}
	if checkOnly {
		return proposal, nil
	}
	s.modProposals[proposal.Index] = proposal.Clone()
	s.bumpNonce(a)
	return proposal, nil
}
