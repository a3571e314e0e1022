package governance

// CastVote records voter's weighted vote for option at time now. Preconditions
// are checked in a fixed order and nothing is mutated unless all of them hold.
// The weight is the evidence balance at the time of the call; it is never
// re-read afterwards. Ownership of the evidence is not checked.
func (p *Proposal) CastVote(cfg *Config, voter Address, option uint8, now int64, ev Evidence) (weight uint64, err error) {
	if cfg == nil {
		return 0, ErrNilConfig
	}
	if now < p.StartTime {
		return 0, ErrVotingNotStarted
	}
	if now > p.EndTime {
		return 0, ErrVotingEnded
	}
	if int(option) >= len(p.Options) {
		return 0, ErrInvalidOption
	}
	if p.HasVoted(voter) {
		return 0, ErrAlreadyVoted
	}
	if !cfg.Accepts(ev.Token) {
		return 0, ErrWrongTokenType
	}
	if len(p.Voters) >= MaxVoters {
		return 0, ErrVoterLimitReached
	}
	weight = ev.Balance
	sum := p.Tally[option] + weight
	if sum < p.Tally[option] {
		return 0, ErrTallyOverflow
	}
	p.Tally[option] = sum
	p.Voters = append(p.Voters, cloneAddress(voter))
	return weight, nil
}

// TallyVotes computes the winner once the voting window has closed. Calling it
// again yields the same winner since the tally cannot change after closing.
func (p *Proposal) TallyVotes(now int64) error {
	if now <= p.EndTime {
		return ErrVotingNotEnded
	}
	p.Winner = Winner(p.Tally)
	p.Tallied = true
	return nil
}

// Winner returns the index of the strictly greatest positive counter. Ties go
// to the earliest option; an all-zero tally has no winner.
func Winner(tally []uint64) *uint8 {
	var (
		max    uint64
		winner *uint8
	)
	for i, votes := range tally {
		if votes > max {
			max = votes
			idx := uint8(i)
			winner = &idx
		}
	}
	return winner
}
