package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
)

const (
	DefaultHomeDir   = ".daochain"
	DefaultAPIListen = "127.0.0.1:8080"
)

type IndexerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	DatabaseURL  string        `mapstructure:"database_url"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

type DAOAppConfig struct {
	Home string `mapstructure:"-"`

	Indexer IndexerConfig `mapstructure:"indexer"`
	API     APIConfig     `mapstructure:"api"`
}

func DefaultDAOAppConfig(home string) *DAOAppConfig {
	return &DAOAppConfig{
		Home: home,
		Indexer: IndexerConfig{
			Enabled:      true,
			DatabaseURL:  "indexer.db",
			PollInterval: 2 * time.Second,
		},
		API: APIConfig{
			ListenAddr: DefaultAPIListen,
		},
	}
}

// DatabasePath resolves a relative sqlite path against the home directory.
// Postgres URLs are returned unchanged.
func (c *DAOAppConfig) DatabasePath() string {
	url := c.Indexer.DatabaseURL
	if url == "" || isPostgresURL(url) || filepath.IsAbs(url) || url == ":memory:" {
		return url
	}
	return filepath.Join(c.Home, url)
}

func (c *DAOAppConfig) ValidateBasic() error {
	if c.Indexer.Enabled {
		if c.Indexer.DatabaseURL == "" {
			return fmt.Errorf("indexer.database_url must be set when the indexer is enabled")
		}
		if c.Indexer.PollInterval <= 0 {
			return fmt.Errorf("indexer.poll_interval must be positive, got %v", c.Indexer.PollInterval)
		}
	}
	return nil
}

func GWeiPerPower(height uint64) uint64 {
	return 1000000000
}

func PowerPerStake(stake uint64, height uint64) int64 {
	return int64(stake / GWeiPerPower(height))
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	App *DAOAppConfig `mapstructure:"app"`
}

func DefaultHome() string {
	return os.ExpandEnv("$HOME/" + DefaultHomeDir)
}

func NewDAOConfig(home string) *Config {
	if len(home) == 0 {
		home = DefaultHome()
	}
	_ = os.MkdirAll(home+"/config", 0755)
	config := &Config{
		DefaultDAOCometConfig(),
		DefaultDAOAppConfig(home),
	}
	config.SetRoot(home)
	return config
}

func (c *Config) ValidateBasic() error {
	if err := c.Config.ValidateBasic(); err != nil {
		return err
	}
	return c.App.ValidateBasic()
}

func InitializeNodeValidatorFiles(config *Config, privKey crypto.PrivKey) (nodeID string, pk crypto.PubKey, err error) {
	nodeKey, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return "", nil, err
	}
	nodeID = string(nodeKey.ID())

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvKeyFile), err)
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvStateFile), err)
	}

	var filePV *privval.FilePV
	if privKey == nil {
		filePV = privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	} else {
		filePV = privval.NewFilePV(privKey, pvKeyFile, pvStateFile)
		filePV.Save()
	}
	pukey, err := filePV.GetPubKey()
	if err != nil {
		return "", nil, err
	}

	return nodeID, pukey, nil
}

func DefaultDAOCometConfig() *config.Config {
	cometConfig := config.DefaultConfig()
	cometConfig.Consensus.TimeoutPropose = time.Second * 3
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Millisecond * 1200
	return cometConfig
}
