package governance

import (
	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/ethereum/go-ethereum/common"
)

// Address identifies an account: the 20 byte address of its ed25519 public key.
type Address = cmtcrypto.Address

// Evidence is a verified claim that Owner holds Balance units of Token.
// The core trusts it as given; resolving it is the job of an EvidenceSource.
type Evidence struct {
	Owner   Address        `json:"owner"`
	Token   common.Address `json:"token"`
	Balance uint64         `json:"balance"`
}

// EvidenceSource resolves token holdings into Evidence.
type EvidenceSource interface {
	TokenEvidence(owner Address, token common.Address) (Evidence, error)
}
