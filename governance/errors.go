package governance

import "errors"

var (
	ErrWrongTokenType       = errors.New("wrong governance token type")
	ErrUnauthorizedEvidence = errors.New("unauthorized token account")
	ErrVotingNotStarted     = errors.New("voting has not started")
	ErrVotingEnded          = errors.New("voting has already ended")
	ErrVotingNotEnded       = errors.New("voting period has not ended")
	ErrInvalidOption        = errors.New("invalid voting option")
	ErrAlreadyVoted         = errors.New("already voted")

	ErrInvalidOptions    = errors.New("invalid proposal options")
	ErrTextTooLong       = errors.New("proposal text too long")
	ErrVoterLimitReached = errors.New("proposal voter limit reached")
	ErrTallyOverflow     = errors.New("option tally overflow")
	ErrNilConfig         = errors.New("governance config not initialized")
)
