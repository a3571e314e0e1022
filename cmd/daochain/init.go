package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/calehh/daochain/config"
	"github.com/calehh/daochain/types"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/spf13/cobra"
)

type printInfo struct {
	Moniker    string          `json:"moniker" yaml:"moniker"`
	ChainID    string          `json:"chain_id" yaml:"chain_id"`
	NodeID     string          `json:"node_id" yaml:"node_id"`
	AppMessage json.RawMessage `json:"app_message" yaml:"app_message"`
}

func displayInfo(info printInfo) error {
	out, err := json.MarshalIndent(info, "", " ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(os.Stderr, "%s\n", out)

	return err
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize private validator, p2p, genesis, and application configuration files",
	Long: `Initialize validators's and node's configuration files.
With --token the genesis sets the governance token and allocates --amount
of it to the validator key.`,
	Args: cobra.NoArgs,
	RunE: initRun,
}

func init() {
	initCmd.Flags().BoolP(types.FlagOverwrite, "o", false, "overwrite the genesis.json file")
	initCmd.Flags().String(types.FlagChainID, "", "genesis file chain-id, if left blank will be randomly created")
	initCmd.Flags().String(types.FlagHome, "", "home directory")
	initCmd.Flags().String(types.FlagToken, "", "governance token address written to the genesis")
	initCmd.Flags().Uint64(types.FlagAmount, 0, "genesis holding of the governance token for the validator")
}

// genesisAppState builds the app_state of a fresh chain.
func genesisAppState(token string, amount uint64, pubKey []byte, name string) (json.RawMessage, error) {
	gs := types.AppGenesisState{Holdings: []types.GenesisHolding{}}
	if token != "" {
		addr, err := parseToken(token)
		if err != nil {
			return nil, err
		}
		gs.GovernanceToken = &addr
		if amount > 0 {
			gs.Holdings = append(gs.Holdings, types.GenesisHolding{
				PubKey: pubKey,
				Name:   name,
				Token:  addr,
				Amount: amount,
			})
		}
	}
	return json.Marshal(gs)
}

func initRun(cmd *cobra.Command, args []string) error {
	home, _ := cmd.Flags().GetString(types.FlagHome)
	chainID, _ := cmd.Flags().GetString(types.FlagChainID)
	overwrite, _ := cmd.Flags().GetBool(types.FlagOverwrite)
	token, _ := cmd.Flags().GetString(types.FlagToken)
	amount, _ := cmd.Flags().GetUint64(types.FlagAmount)

	if chainID == "" {
		chainID = fmt.Sprintf("test-chain-%v", rand.Uint64())
	}
	appConfig := config.NewDAOConfig(home)

	genFile := appConfig.GenesisFile()
	if _, err := os.Stat(genFile); err == nil && !overwrite {
		return fmt.Errorf("genesis file %s already exists, use --%s to replace it", genFile, types.FlagOverwrite)
	}

	nodeID, pk, err := config.InitializeNodeValidatorFiles(appConfig, nil)
	if err != nil {
		return err
	}
	vals := []types.GenesisValidator{{Address: pk.Address(), PubKey: pk, Power: types.DefaultPower}}

	appState, err := genesisAppState(token, amount, pk.Bytes(), appConfig.Moniker)
	if err != nil {
		return err
	}
	appGenesis := &types.GenesisDoc{
		GenesisTime:     time.Now(),
		ChainID:         chainID,
		ConsensusParams: cmttypes.DefaultConsensusParams(),
		InitialHeight:   1,
		Validators:      vals,
		AppState:        appState,
	}
	if err = types.ExportGenesisFile(appGenesis, genFile); err != nil {
		return fmt.Errorf("failed to export genesis file: %w", err)
	}
	config.WriteConfigFiles(appConfig)
	toPrint := printInfo{
		Moniker:    appConfig.Moniker,
		ChainID:    chainID,
		NodeID:     nodeID,
		AppMessage: appGenesis.AppState,
	}
	return displayInfo(toPrint)
}
