package crypto

import (
	"path/filepath"
	"testing"

	"github.com/calehh/daochain/tx"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/cometbft/cometbft/privval"
	"github.com/stretchr/testify/require"
)

func TestLoadFilePVAndSignTx(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "priv_validator_key.json")
	filePV := privval.GenFilePV(keyFile, filepath.Join(dir, "priv_validator_state.json"))
	filePV.Save()

	pv, err := LoadFilePV(keyFile)
	require.NoError(t, err)
	require.Equal(t, filePV.Key.PubKey.Bytes(), pv.PublicKey())
	require.Equal(t, filePV.Key.Address, pv.Address())

	btx := &tx.DAOTx{Type: tx.TxTypeTallyVotes, Tx: &tx.TallyVotesTx{Proposal: 1}}
	require.NoError(t, pv.SignTx(btx, "dao-test"))
	require.Len(t, btx.Sig, 1)

	dat, err := btx.SigData([]byte("dao-test"))
	require.NoError(t, err)
	require.True(t, filePV.Key.PubKey.VerifySignature(dat, btx.Sig[0]))
	dat, err = btx.SigData([]byte("other-chain"))
	require.NoError(t, err)
	require.False(t, filePV.Key.PubKey.VerifySignature(dat, btx.Sig[0]))
}

func TestLoadFilePVMissing(t *testing.T) {
	_, err := LoadFilePV(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestNewPV(t *testing.T) {
	priv := ed25519.GenPrivKey()
	pv := NewPV(priv)
	require.Equal(t, priv.PubKey().Address(), pv.Address())
}
