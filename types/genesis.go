package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/ethereum/go-ethereum/common"
)

type GenesisValidator struct {
	Address crypto.Address `json:"address"`
	PubKey  crypto.PubKey  `json:"pub_key"`
	Power   int64          `json:"power"`
	Name    string         `json:"name"`
}

// GenesisDoc defines the initial conditions for a CometBFT blockchain, in particular its validator set.
type GenesisDoc struct {
	GenesisTime     time.Time                 `json:"genesis_time"`
	ChainID         string                    `json:"chain_id"`
	InitialHeight   int64                     `json:"initial_height"`
	ConsensusParams *cmttypes.ConsensusParams `json:"consensus_params,omitempty"`
	Validators      []GenesisValidator        `json:"validators"`
	AppHash         []byte                    `json:"app_hash"`
	AppState        json.RawMessage           `json:"app_state"`
}

// GenesisHolding allocates Amount units of Token to the account of PubKey.
type GenesisHolding struct {
	PubKey []byte         `json:"pub_key"`
	Name   string         `json:"name,omitempty"`
	Token  common.Address `json:"token"`
	Amount uint64         `json:"amount"`
}

// AppGenesisState is the app_state section of the genesis document. A
// non-zero GovernanceToken initializes the governance config at InitChain.
type AppGenesisState struct {
	GovernanceToken *common.Address  `json:"governance_token,omitempty"`
	Holdings        []GenesisHolding `json:"holdings"`
}

func ParseAppGenesisState(dat []byte) (*AppGenesisState, error) {
	st := &AppGenesisState{}
	if len(dat) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(dat, st); err != nil {
		return nil, fmt.Errorf("decode app_state: %w", err)
	}
	for i, h := range st.Holdings {
		if len(h.PubKey) != 32 {
			return nil, fmt.Errorf("holding %d: invalid ed25519 public key length %d", i, len(h.PubKey))
		}
	}
	return st, nil
}

// SaveAs is a utility method for saving GenensisDoc as a JSON file.
func (genDoc *GenesisDoc) SaveAs(file string) error {
	genDocBytes, err := cmtjson.MarshalIndent(genDoc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, genDocBytes, 0o600)
}

func (ag *GenesisDoc) ValidateAndComplete() error {
	if ag.ChainID == "" {
		return errors.New("genesis doc must include non-empty chain_id")
	}

	if ag.InitialHeight < 0 {
		return fmt.Errorf("initial_height cannot be negative (got %v)", ag.InitialHeight)
	}

	if ag.InitialHeight == 0 {
		ag.InitialHeight = 1
	}

	if ag.GenesisTime.IsZero() {
		ag.GenesisTime = time.Now().Round(0).UTC()
	}

	if _, err := ParseAppGenesisState(ag.AppState); err != nil {
		return err
	}

	return nil
}

func ExportGenesisFile(genesis *GenesisDoc, genFile string) error {
	if err := genesis.ValidateAndComplete(); err != nil {
		return err
	}
	return genesis.SaveAs(genFile)
}

const DAOModuleName = "dao"
const DefaultPower = 1000
