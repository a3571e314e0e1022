package tx

import (
	"encoding/json"
	"fmt"

	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/ethereum/go-ethereum/common"
)

// DAOTx is the signed envelope of every transaction. Sender is the account
// index of the signer; Sig holds one ed25519 signature over SigData.
type DAOTx struct {
	Version uint8    `json:"version"`
	Type    TxType   `json:"type"`
	Nonce   uint64   `json:"nonce"`
	Sender  uint64   `json:"sender"`
	Tx      any      `json:"tx"`
	Sig     [][]byte `json:"sig"`
}

// TokenAccount references a holding of Token owned by Owner. The state
// resolves it into token evidence.
type TokenAccount struct {
	Owner cmtcrypto.Address `json:"owner"`
	Token common.Address    `json:"token"`
}

type InitializeTx struct {
	GovernanceToken common.Address `json:"governanceToken"`
}

type CreateProposalTx struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Options      []string     `json:"options"`
	StartTime    int64        `json:"startTime"`
	EndTime      int64        `json:"endTime"`
	TokenAccount TokenAccount `json:"tokenAccount"`
}

type VoteTx struct {
	Proposal     uint64       `json:"proposal"`
	Option       uint8        `json:"option"`
	TokenAccount TokenAccount `json:"tokenAccount"`
}

type TallyVotesTx struct {
	Proposal uint64 `json:"proposal"`
}

type daoTxTmpl[Tx any] struct {
	Version uint8    `json:"version"`
	Type    TxType   `json:"type"`
	Nonce   uint64   `json:"nonce"`
	Sender  uint64   `json:"sender"`
	Tx      Tx       `json:"tx"`
	Sig     [][]byte `json:"sig"`
}

// SigData is the payload that gets signed: the envelope with its signatures
// replaced by ext, normally the chain id.
func (tx *DAOTx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = [][]byte{ext}
	dat, err = json.Marshal(ntx)
	return
}

func parseTxType(dat []byte) (TxType, error) {
	var tx struct {
		Type TxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return TxTypeUnknown, fmt.Errorf("%w: %v", ErrInvalidTx, err)
	}
	return tx.Type, nil
}

func unmarshalDAOTx[Tx any](dat []byte) (btx *DAOTx, err error) {
	var txt daoTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTx, err)
	}
	if txt.Version > TxVersion1 {
		return nil, ErrUnsupportedTxVersion
	}
	btx = new(DAOTx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.Sender = txt.Sender
	btx.Tx = &txt.Tx
	btx.Sig = txt.Sig
	return
}

// UnmarshalDAOTx decodes an envelope together with the payload its type
// names. Bytes that are not a well formed envelope fail with ErrInvalidTx.
func UnmarshalDAOTx(dat []byte) (btx *DAOTx, err error) {
	tp, err := parseTxType(dat)
	if err != nil {
		return nil, err
	}
	switch tp {
	case TxTypeInitialize:
		return unmarshalDAOTx[InitializeTx](dat)
	case TxTypeCreateProposal:
		return unmarshalDAOTx[CreateProposalTx](dat)
	case TxTypeVote:
		return unmarshalDAOTx[VoteTx](dat)
	case TxTypeTallyVotes:
		return unmarshalDAOTx[TallyVotesTx](dat)
	default:
		err = ErrUnsupportedTxType
	}
	return
}

func MarshalDAOTx(btx *DAOTx) (dat []byte, err error) {
	return json.Marshal(btx)
}
