package tx

import (
	"errors"
)

type TxType uint8

const (
	TxTypeUnknown        TxType = 0
	TxTypeInitialize     TxType = 1
	TxTypeCreateProposal TxType = 2
	TxTypeVote           TxType = 3
	TxTypeTallyVotes     TxType = 4
)

func (t TxType) String() string {
	switch t {
	case TxTypeInitialize:
		return "initialize"
	case TxTypeCreateProposal:
		return "create_proposal"
	case TxTypeVote:
		return "vote"
	case TxTypeTallyVotes:
		return "tally_votes"
	}
	return "unknown"
}

// TxVersion1 is the newest envelope version; later versions are rejected.
const TxVersion1 uint8 = 1

var (
	ErrInvalidTx            = errors.New("invalid tx")
	ErrUnsupportedTxType    = errors.New("unsupported tx type")
	ErrUnmatchedTxType      = errors.New("unmatched tx type")
	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
)
