package types

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProposalCreatedEventKeepsCommasInOptions(t *testing.T) {
	in := &EventProposalCreated{
		ProposalIndex:  3,
		CreatorAddress: "ABCD",
		Title:          "budget",
		Options:        []string{"yes, fund it", "no"},
		StartTime:      100,
		EndTime:        200,
	}
	out := DecodeEventProposalCreated(EncodeEventProposalCreated(in))
	require.NotNil(t, out)
	assert.Equal(t, in, out)
}

func TestVoteCastEvent(t *testing.T) {
	in := &EventVoteCast{ProposalIndex: 1, VoterAddress: "AA", Option: 2, Weight: 10}
	ev := EncodeEventVoteCast(in)
	require.Equal(t, EventVoteCastType, ev.Type)
	assert.Equal(t, in, DecodeEventVoteCast(ev))

	ev.Attributes[2].Value = "300"
	assert.Nil(t, DecodeEventVoteCast(ev))
}

func TestProposalTalliedEvent(t *testing.T) {
	out := DecodeEventProposalTallied(EncodeEventProposalTallied(&EventProposalTallied{
		ProposalIndex: 1,
		Winner:        NoWinner,
		Tally:         []uint64{0, 0},
	}))
	require.NotNil(t, out)
	assert.Equal(t, NoWinner, out.Winner)
	assert.Equal(t, []uint64{0, 0}, out.Tally)

	out = DecodeEventProposalTallied(EncodeEventProposalTallied(&EventProposalTallied{
		ProposalIndex: 2,
		Winner:        1,
		Tally:         []uint64{},
	}))
	require.NotNil(t, out)
	assert.Equal(t, int64(1), out.Winner)
	assert.Empty(t, out.Tally)
}

func TestConfigInitializedEvent(t *testing.T) {
	token := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	out := DecodeEventConfigInitialized(EncodeEventConfigInitialized(&EventConfigInitialized{
		GovernanceToken: token,
		Initializer:     "AB",
	}))
	require.NotNil(t, out)
	assert.Equal(t, token, out.GovernanceToken)
	assert.Equal(t, "AB", out.Initializer)
}

func TestParseAppGenesisState(t *testing.T) {
	st, err := ParseAppGenesisState(nil)
	require.NoError(t, err)
	assert.Nil(t, st.GovernanceToken)

	token := common.HexToAddress("0x00000000000000000000000000000000000000a1")
	dat, err := json.Marshal(AppGenesisState{
		GovernanceToken: &token,
		Holdings: []GenesisHolding{
			{PubKey: make([]byte, 32), Name: "x", Token: token, Amount: 10},
		},
	})
	require.NoError(t, err)
	st, err = ParseAppGenesisState(dat)
	require.NoError(t, err)
	require.NotNil(t, st.GovernanceToken)
	assert.Equal(t, token, *st.GovernanceToken)
	assert.Equal(t, uint64(10), st.Holdings[0].Amount)

	dat, err = json.Marshal(AppGenesisState{
		Holdings: []GenesisHolding{{PubKey: []byte{1, 2}, Token: token, Amount: 1}},
	})
	require.NoError(t, err)
	_, err = ParseAppGenesisState(dat)
	require.Error(t, err)
}
