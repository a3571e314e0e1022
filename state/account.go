package state

import (
	"encoding/json"

	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
)

// Account is a registered key. Validators carry Stake; token holders
// allocated at genesis carry none.
type Account struct {
	Index  uint64         `json:"index"`
	PubKey ed25519.PubKey `json:"pubKey"`
	Stake  uint64         `json:"stake"`
	Nonce  uint64         `json:"nonce"`
	Name   string         `json:"name,omitempty"`
}

func (a *Account) Marshal() ([]byte, error) {
	return json.Marshal(a)
}

func unmarshalAccount(dat []byte) (*Account, error) {
	a := new(Account)
	if err := json.Unmarshal(dat, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Account) Clone() *Account {
	n := *a
	if a.PubKey != nil {
		n.PubKey = append(ed25519.PubKey(nil), a.PubKey...)
	}
	return &n
}

func (a *Account) SetPubKey(pkey []byte) {
	if a.PubKey == nil {
		a.PubKey = make([]byte, len(pkey))
	}
	copy(a.PubKey, pkey)
}

func (a *Account) AddrBytes() cmtcrypto.Address {
	return a.PubKey.Address()
}

func (a *Account) Address() string {
	return a.PubKey.Address().String()
}

func (a *Account) Verify(msg []byte, sigs [][]byte) (succ bool) {
	if len(sigs) != 1 {
		return false
	}
	return a.PubKey.VerifySignature(msg, sigs[0])
}
