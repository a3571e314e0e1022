package tx

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalDAOTxDispatchesPayload(t *testing.T) {
	owner := bytes.Repeat([]byte{7}, 20)
	token := common.HexToAddress("0x1234")
	btx := &DAOTx{
		Version: TxVersion1,
		Type:    TxTypeVote,
		Nonce:   3,
		Sender:  65536,
		Tx: &VoteTx{
			Proposal:     2,
			Option:       1,
			TokenAccount: TokenAccount{Owner: owner, Token: token},
		},
		Sig: [][]byte{{1, 2, 3}},
	}
	dat, err := MarshalDAOTx(btx)
	require.NoError(t, err)

	got, err := UnmarshalDAOTx(dat)
	require.NoError(t, err)
	vtx, ok := got.Tx.(*VoteTx)
	require.True(t, ok, "payload type %T", got.Tx)
	assert.Equal(t, uint64(2), vtx.Proposal)
	assert.Equal(t, uint8(1), vtx.Option)
	assert.Equal(t, token, vtx.TokenAccount.Token)
	assert.Equal(t, owner, []byte(vtx.TokenAccount.Owner))
	assert.Equal(t, uint64(65536), got.Sender)
}

func TestUnmarshalDAOTxRejects(t *testing.T) {
	_, err := UnmarshalDAOTx([]byte(`{"type":42}`))
	assert.ErrorIs(t, err, ErrUnsupportedTxType)

	_, err = UnmarshalDAOTx([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidTx)

	_, err = UnmarshalDAOTx([]byte(`{"type":3,"tx":{"proposal":"one"}}`))
	assert.ErrorIs(t, err, ErrInvalidTx)

	_, err = UnmarshalDAOTx([]byte(`{"version":9,"type":4,"tx":{"proposal":1}}`))
	assert.ErrorIs(t, err, ErrUnsupportedTxVersion)
}

func TestSigDataIgnoresSignatures(t *testing.T) {
	btx := &DAOTx{Type: TxTypeTallyVotes, Tx: &TallyVotesTx{Proposal: 1}}
	a, err := btx.SigData([]byte("chain-a"))
	require.NoError(t, err)

	btx.Sig = [][]byte{{9, 9}}
	b, err := btx.SigData([]byte("chain-a"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := btx.SigData([]byte("chain-b"))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}
