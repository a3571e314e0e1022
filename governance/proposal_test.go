package governance

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tokenT     = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	otherToken = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func addr(b byte) Address {
	return Address(bytes.Repeat([]byte{b}, 20))
}

func newTestProposal(t *testing.T, options []string, start, end int64) *Proposal {
	t.Helper()
	creator := addr(1)
	p, err := NewProposal(NewConfig(tokenT), ProposalParams{
		Creator:   creator,
		Title:     "title",
		Options:   options,
		StartTime: start,
		EndTime:   end,
	}, Evidence{Owner: creator, Token: tokenT, Balance: 1})
	require.NoError(t, err)
	return p
}

func TestNewProposal(t *testing.T) {
	cfg := NewConfig(tokenT)
	creator := addr(1)
	params := ProposalParams{
		Creator:     creator,
		Title:       "upgrade",
		Description: "move to v2",
		Options:     []string{"yes", "no", "abstain"},
		StartTime:   100,
		EndTime:     200,
	}

	t.Run("zero balance is enough", func(t *testing.T) {
		p, err := NewProposal(cfg, params, Evidence{Owner: creator, Token: tokenT})
		require.NoError(t, err)
		assert.Equal(t, []uint64{0, 0, 0}, p.Tally)
		assert.Empty(t, p.Voters)
		assert.Nil(t, p.Winner)
		assert.False(t, p.Tallied)
		assert.Equal(t, PhasePending, p.Phase(99))
	})

	t.Run("evidence of another owner", func(t *testing.T) {
		_, err := NewProposal(cfg, params, Evidence{Owner: addr(2), Token: tokenT, Balance: 50})
		assert.ErrorIs(t, err, ErrUnauthorizedEvidence)
	})

	t.Run("ownership checked before token", func(t *testing.T) {
		_, err := NewProposal(cfg, params, Evidence{Owner: addr(2), Token: otherToken})
		assert.ErrorIs(t, err, ErrUnauthorizedEvidence)
	})

	t.Run("wrong token regardless of balance", func(t *testing.T) {
		_, err := NewProposal(cfg, params, Evidence{Owner: creator, Token: otherToken, Balance: 1 << 40})
		assert.ErrorIs(t, err, ErrWrongTokenType)
	})

	t.Run("end before start is accepted", func(t *testing.T) {
		inverted := params
		inverted.StartTime, inverted.EndTime = 200, 100
		_, err := NewProposal(cfg, inverted, Evidence{Owner: creator, Token: tokenT})
		assert.NoError(t, err)
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := NewProposal(nil, params, Evidence{Owner: creator, Token: tokenT})
		assert.ErrorIs(t, err, ErrNilConfig)
	})

	t.Run("params are copied", func(t *testing.T) {
		opts := []string{"a", "b"}
		in := params
		in.Options = opts
		p, err := NewProposal(cfg, in, Evidence{Owner: creator, Token: tokenT})
		require.NoError(t, err)
		opts[0] = "changed"
		assert.Equal(t, "a", p.Options[0])
	})
}

func TestNewProposalBounds(t *testing.T) {
	cfg := NewConfig(tokenT)
	creator := addr(1)
	ev := Evidence{Owner: creator, Token: tokenT}
	tooMany := make([]string, MaxOptions+1)
	for i := range tooMany {
		tooMany[i] = "x"
	}
	cases := []struct {
		name    string
		params  ProposalParams
		wantErr error
	}{
		{"no options", ProposalParams{Creator: creator}, ErrInvalidOptions},
		{"too many options", ProposalParams{Creator: creator, Options: tooMany}, ErrInvalidOptions},
		{"empty label", ProposalParams{Creator: creator, Options: []string{"a", ""}}, ErrInvalidOptions},
		{"long label", ProposalParams{Creator: creator, Options: []string{strings.Repeat("a", MaxOptionLen+1)}}, ErrInvalidOptions},
		{"long title", ProposalParams{Creator: creator, Options: []string{"a"}, Title: strings.Repeat("t", MaxTitleLen+1)}, ErrTextTooLong},
		{"long description", ProposalParams{Creator: creator, Options: []string{"a"}, Description: strings.Repeat("d", MaxDescriptionLen+1)}, ErrTextTooLong},
		{"max options", ProposalParams{Creator: creator, Options: tooMany[:MaxOptions]}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewProposal(cfg, tc.params, ev)
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestProposalRoundTripKeepsInvariants(t *testing.T) {
	p := newTestProposal(t, []string{"A", "B"}, 100, 200)
	_, err := p.CastVote(NewConfig(tokenT), addr(9), 1, 150, Evidence{Owner: addr(9), Token: tokenT, Balance: 3})
	require.NoError(t, err)

	dat, err := p.Marshal()
	require.NoError(t, err)
	got, err := UnmarshalProposal(dat)
	require.NoError(t, err)
	assert.Equal(t, p.Tally, got.Tally)
	assert.True(t, got.HasVoted(addr(9)))

	_, err = UnmarshalProposal([]byte(`{"options":["a","b"],"tally":[1]}`))
	assert.Error(t, err)
}

func TestProposalClone(t *testing.T) {
	p := newTestProposal(t, []string{"A", "B"}, 100, 200)
	c := p.Clone()
	_, err := c.CastVote(NewConfig(tokenT), addr(3), 0, 150, Evidence{Token: tokenT, Balance: 7})
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 0}, p.Tally)
	assert.Empty(t, p.Voters)
	assert.Equal(t, []uint64{7, 0}, c.Tally)
}
