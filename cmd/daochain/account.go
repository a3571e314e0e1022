package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type accountArguments struct {
	Url     string
	Address string
	Index   uint64
}

var accountArgs accountArguments

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show an account by address or index",
	Args:  cobra.NoArgs,
	RunE:  accountRun,
}

func init() {
	urlFlag(accountCmd, &accountArgs.Url)
	accountCmd.Flags().StringVarP(&accountArgs.Address, "address", "a", "", "account address")
	accountCmd.Flags().Uint64VarP(&accountArgs.Index, "index", "i", 0, "account index")
}

func accountRun(cmd *cobra.Command, args []string) error {
	cli, err := newClient(accountArgs.Url)
	if err != nil {
		return err
	}
	act, err := queryAccount(context.Background(), cli, accountArgs.Index, accountArgs.Address)
	if err != nil {
		return err
	}
	fmt.Printf("index:%v nonce:%v pk:%X stake:%v addr:%v name:%v\n",
		act.Index, act.Nonce, []byte(act.PubKey), act.Stake, act.Address(), act.Name)
	return nil
}
