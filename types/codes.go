package types

import (
	"errors"

	"github.com/calehh/daochain/governance"
	"github.com/calehh/daochain/state"
	"github.com/calehh/daochain/tx"
)

const (
	CodeOK uint32 = iota
	CodeUnknown
	CodeInvalidTx
	CodeUnsupportedTx
	CodeSenderNoexists
	CodeNonceInvalid
	CodeSigInvalid
	CodeConfigAlreadyExists
	CodeConfigNoexists
	CodeTokenAccountNoexists
	CodeProposalNoexists
	CodeWrongTokenType
	CodeUnauthorizedEvidence
	CodeVotingNotStarted
	CodeVotingEnded
	CodeVotingNotEnded
	CodeInvalidOption
	CodeAlreadyVoted
	CodeInvalidOptions
	CodeTextTooLong
	CodeVoterLimitReached
	CodeTallyOverflow
)

var errCodes = []struct {
	err  error
	code uint32
}{
	{tx.ErrInvalidTx, CodeInvalidTx},
	{tx.ErrUnsupportedTxVersion, CodeInvalidTx},
	{tx.ErrUnmatchedTxType, CodeInvalidTx},
	{tx.ErrUnsupportedTxType, CodeUnsupportedTx},
	{state.ErrTxSenderNoexists, CodeSenderNoexists},
	{state.ErrTxNonceInvalid, CodeNonceInvalid},
	{state.ErrTxSigInvalid, CodeSigInvalid},
	{state.ErrConfigAlreadyExists, CodeConfigAlreadyExists},
	{state.ErrConfigNoexists, CodeConfigNoexists},
	{governance.ErrNilConfig, CodeConfigNoexists},
	{state.ErrTokenAccountNoexists, CodeTokenAccountNoexists},
	{state.ErrProposalNoexists, CodeProposalNoexists},
	{governance.ErrWrongTokenType, CodeWrongTokenType},
	{governance.ErrUnauthorizedEvidence, CodeUnauthorizedEvidence},
	{governance.ErrVotingNotStarted, CodeVotingNotStarted},
	{governance.ErrVotingEnded, CodeVotingEnded},
	{governance.ErrVotingNotEnded, CodeVotingNotEnded},
	{governance.ErrInvalidOption, CodeInvalidOption},
	{governance.ErrAlreadyVoted, CodeAlreadyVoted},
	{governance.ErrInvalidOptions, CodeInvalidOptions},
	{governance.ErrTextTooLong, CodeTextTooLong},
	{governance.ErrVoterLimitReached, CodeVoterLimitReached},
	{governance.ErrTallyOverflow, CodeTallyOverflow},
}

// CodeOf maps err to the ABCI response code reported for it.
func CodeOf(err error) uint32 {
	if err == nil {
		return CodeOK
	}
	for _, c := range errCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeUnknown
}
