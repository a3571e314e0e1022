package governance

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	MaxOptions        = 10
	MaxOptionLen      = 64
	MaxTitleLen       = 256
	MaxDescriptionLen = 256
	MaxVoters         = 100
)

type Phase uint8

const (
	PhasePending Phase = iota + 1
	PhaseOpen
	PhaseClosed
	PhaseTallied
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseOpen:
		return "open"
	case PhaseClosed:
		return "closed"
	case PhaseTallied:
		return "tallied"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// Proposal is the authoritative record of a vote: its content, schedule,
// accumulated weight per option and outcome. Tally always has one counter per
// option and an address appears in Voters at most once.
type Proposal struct {
	Index       uint64    `json:"index"`
	Creator     Address   `json:"creator"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Options     []string  `json:"options"`
	StartTime   int64     `json:"start_time"`
	EndTime     int64     `json:"end_time"`
	Tally       []uint64  `json:"tally"`
	Voters      []Address `json:"voters"`
	Winner      *uint8    `json:"winner"`
	Tallied     bool      `json:"tallied"`
	Height      uint64    `json:"height"`
}

// ProposalParams carries the caller supplied content of a new proposal.
type ProposalParams struct {
	Creator     Address
	Title       string
	Description string
	Options     []string
	StartTime   int64
	EndTime     int64
}

// NewProposal validates the creator's token evidence against cfg and returns
// a proposal with an empty tally. The evidence must belong to the creator and
// be of the governance token; no minimum balance is required. StartTime is not
// required to precede EndTime.
func NewProposal(cfg *Config, params ProposalParams, ev Evidence) (*Proposal, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if !bytes.Equal(ev.Owner, params.Creator) {
		return nil, ErrUnauthorizedEvidence
	}
	if !cfg.Accepts(ev.Token) {
		return nil, ErrWrongTokenType
	}
	if err := validateParams(params); err != nil {
		return nil, err
	}
	options := make([]string, len(params.Options))
	copy(options, params.Options)
	p := &Proposal{
		Creator:     cloneAddress(params.Creator),
		Title:       params.Title,
		Description: params.Description,
		Options:     options,
		StartTime:   params.StartTime,
		EndTime:     params.EndTime,
		Tally:       make([]uint64, len(options)),
		Voters:      []Address{},
	}
	return p, nil
}

func validateParams(params ProposalParams) error {
	if len(params.Options) == 0 || len(params.Options) > MaxOptions {
		return fmt.Errorf("%w: %d options, want 1..%d", ErrInvalidOptions, len(params.Options), MaxOptions)
	}
	for i, opt := range params.Options {
		if len(opt) == 0 || len(opt) > MaxOptionLen {
			return fmt.Errorf("%w: option %d has length %d", ErrInvalidOptions, i, len(opt))
		}
	}
	if len(params.Title) > MaxTitleLen {
		return fmt.Errorf("%w: title", ErrTextTooLong)
	}
	if len(params.Description) > MaxDescriptionLen {
		return fmt.Errorf("%w: description", ErrTextTooLong)
	}
	return nil
}

// Phase reports where the proposal is in its lifecycle at time now.
func (p *Proposal) Phase(now int64) Phase {
	switch {
	case p.Tallied:
		return PhaseTallied
	case now < p.StartTime:
		return PhasePending
	case now <= p.EndTime:
		return PhaseOpen
	default:
		return PhaseClosed
	}
}

func (p *Proposal) HasVoted(voter Address) bool {
	for _, v := range p.Voters {
		if bytes.Equal(v, voter) {
			return true
		}
	}
	return false
}

// TotalWeight sums the tally. It saturates rather than wraps.
func (p *Proposal) TotalWeight() uint64 {
	var sum uint64
	for _, w := range p.Tally {
		if sum+w < sum {
			return ^uint64(0)
		}
		sum += w
	}
	return sum
}

// WinnerLabel returns the winning option text, or "" if there is none.
func (p *Proposal) WinnerLabel() string {
	if p.Winner == nil || int(*p.Winner) >= len(p.Options) {
		return ""
	}
	return p.Options[*p.Winner]
}

func (p *Proposal) Clone() *Proposal {
	n := *p
	n.Creator = cloneAddress(p.Creator)
	n.Options = append([]string(nil), p.Options...)
	n.Tally = append([]uint64(nil), p.Tally...)
	n.Voters = make([]Address, len(p.Voters))
	for i, v := range p.Voters {
		n.Voters[i] = cloneAddress(v)
	}
	if p.Winner != nil {
		w := *p.Winner
		n.Winner = &w
	}
	return &n
}

func (p *Proposal) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

func UnmarshalProposal(dat []byte) (*Proposal, error) {
	p := new(Proposal)
	if err := json.Unmarshal(dat, p); err != nil {
		return nil, err
	}
	if len(p.Tally) != len(p.Options) {
		return nil, fmt.Errorf("proposal %d: %d counters for %d options", p.Index, len(p.Tally), len(p.Options))
	}
	return p, nil
}

func cloneAddress(a Address) Address {
	if a == nil {
		return nil
	}
	n := make(Address, len(a))
	copy(n, a)
	return n
}
