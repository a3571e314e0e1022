package crypto

import (
	"fmt"
	"os"

	"github.com/calehh/daochain/tx"
	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	"github.com/cometbft/cometbft/privval"
)

// PV is a signing key loaded from a cometbft private validator key file.
type PV struct {
	privateKey crypto.PrivKey
	publicKey  crypto.PubKey
}

func NewPV(privateKey crypto.PrivKey) *PV {
	return &PV{
		privateKey: privateKey,
		publicKey:  privateKey.PubKey(),
	}
}

func LoadFilePV(keyFilePath string) (*PV, error) {
	keyJSONBytes, err := os.ReadFile(keyFilePath)
	if err != nil {
		return nil, err
	}
	pvKey := privval.FilePVKey{}
	err = cmtjson.Unmarshal(keyJSONBytes, &pvKey)
	if err != nil {
		return nil, fmt.Errorf("error reading PrivValidator key from %v: %w", keyFilePath, err)
	}

	return &PV{
		privateKey: pvKey.PrivKey,
		publicKey:  pvKey.PubKey,
	}, nil
}

func (k *PV) PublicKey() []byte {
	return k.publicKey.Bytes()
}

func (k *PV) Address() crypto.Address {
	return k.publicKey.Address()
}

func (k *PV) Sign(data []byte) ([]byte, error) {
	return k.privateKey.Sign(data)
}

// SignTx replaces the signatures of btx with one signature over its signing
// payload for chainId.
func (k *PV) SignTx(btx *tx.DAOTx, chainId string) error {
	dat, err := btx.SigData([]byte(chainId))
	if err != nil {
		return err
	}
	sig, err := k.Sign(dat)
	if err != nil {
		return err
	}
	btx.Sig = [][]byte{sig}
	return nil
}
