package governance

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
)

// Config binds the one token type whose holders may create proposals and vote.
// It is created once at bootstrap and read by every later operation.
type Config struct {
	GovernanceToken common.Address `json:"governance_token"`
}

func NewConfig(token common.Address) *Config {
	return &Config{GovernanceToken: token}
}

func (c *Config) Accepts(token common.Address) bool {
	return c != nil && c.GovernanceToken == token
}

func (c *Config) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

func UnmarshalConfig(dat []byte) (*Config, error) {
	c := new(Config)
	if err := json.Unmarshal(dat, c); err != nil {
		return nil, err
	}
	return c, nil
}
