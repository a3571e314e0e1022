package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "DAOCHAIN"

// Load reads config.toml and app.toml under home into a Config. Environment
// variables prefixed with DAOCHAIN override file values.
func Load(home string) (*Config, error) {
	if home == "" {
		home = DefaultHome()
	}
	conf := &Config{
		Config: DefaultDAOCometConfig(),
		App:    DefaultDAOAppConfig(home),
	}
	conf.SetRoot(home)

	v := viper.New()
	v.SetConfigFile(conf.CometConfigFile())
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if _, err := os.Stat(conf.AppConfigFile()); err == nil {
		v.SetConfigFile(conf.AppConfigFile())
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("reading app config: %w", err)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	conf.SetRoot(home)
	conf.App.Home = home
	if err := conf.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid configuration data: %w", err)
	}
	return conf, nil
}
