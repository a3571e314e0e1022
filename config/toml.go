package config

import (
	"bytes"
	"path/filepath"
	"text/template"

	cmtconfig "github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/libs/os"
)

// DefaultDirPerm is the default permissions used when creating directories.
const DefaultDirPerm = 0o700

const AppConfigFileName = "app.toml"

var appConfigTemplate *template.Template

func init() {
	var err error
	tmpl := template.New("appConfigFileTemplate")
	if appConfigTemplate, err = tmpl.Parse(defaultAppConfigTemplate); err != nil {
		panic(err)
	}
}

func (c *Config) AppConfigFile() string {
	return filepath.Join(c.RootDir, cmtconfig.DefaultConfigDir, AppConfigFileName)
}

func (c *Config) CometConfigFile() string {
	return filepath.Join(c.RootDir, cmtconfig.DefaultConfigDir, cmtconfig.DefaultConfigFileName)
}

// WriteConfigFiles writes config.toml with cometbft's writer and app.toml
// from the app template.
func WriteConfigFiles(config *Config) {
	if err := os.EnsureDir(filepath.Join(config.RootDir, cmtconfig.DefaultConfigDir), DefaultDirPerm); err != nil {
		panic(err)
	}
	cmtconfig.WriteConfigFile(config.CometConfigFile(), config.Config)
	WriteAppConfigFile(config.AppConfigFile(), config.App)
}

// WriteAppConfigFile renders config using the template and writes it to configFilePath.
func WriteAppConfigFile(configFilePath string, config *DAOAppConfig) {
	var buffer bytes.Buffer

	if err := appConfigTemplate.Execute(&buffer, config); err != nil {
		panic(err)
	}

	os.MustWriteFile(configFilePath, buffer.Bytes(), 0o644)
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in the appropriate struct in config/config.go.
const defaultAppConfigTemplate = `# This is a TOML config file for the governance application.
# Every key can be overridden by an environment variable named
# DAOCHAIN_<SECTION>_<KEY>, e.g. DAOCHAIN_APP_INDEXER_DATABASE_URL.

[app.indexer]

# Poll the node's RPC for governance events and keep them in a SQL database.
enabled = {{ .Indexer.Enabled }}

# A sqlite file path, relative to the home directory unless absolute,
# or a postgres:// URL.
database_url = "{{ .Indexer.DatabaseURL }}"

# How often the indexer asks the node for new blocks.
poll_interval = "{{ .Indexer.PollInterval }}"

[app.api]

# Address of the HTTP API serving indexed proposals and votes.
listen_addr = "{{ .API.ListenAddr }}"
`
