package main

import (
	"github.com/spf13/cobra"
)

const DefaultNodeUrl = "http://127.0.0.1:26657"

func urlFlag(cmd *cobra.Command, url *string) {
	cmd.Flags().StringVarP(url, "url", "u", DefaultNodeUrl, "daochain node rpc url")
}

func skeyFlag(cmd *cobra.Command, skey *string) {
	cmd.Flags().StringVarP(skey, "skeyPath", "s", "./config/priv_validator_key.json", "private key path")
}
