package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/calehh/daochain/app"
	"github.com/calehh/daochain/governance"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

type proposalArguments struct {
	Url   string
	Index uint64
}

var proposalArgs proposalArguments

var proposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "Show one proposal",
	Args:  cobra.NoArgs,
	RunE:  proposalRun,
}

var proposalsArgs proposalArguments

var proposalsCmd = &cobra.Command{
	Use:   "proposals",
	Short: "List all proposals",
	Args:  cobra.NoArgs,
	RunE:  proposalsRun,
}

var configArgs proposalArguments

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the governance configuration",
	Args:  cobra.NoArgs,
	RunE:  configRun,
}

func init() {
	urlFlag(proposalCmd, &proposalArgs.Url)
	proposalCmd.Flags().Uint64VarP(&proposalArgs.Index, "proposal", "p", 0, "proposal index")
	_ = proposalCmd.MarkFlagRequired("proposal")
	urlFlag(proposalsCmd, &proposalsArgs.Url)
	urlFlag(configCmd, &configArgs.Url)
}

func proposalRun(cmd *cobra.Command, args []string) error {
	cli, err := newClient(proposalArgs.Url)
	if err != nil {
		return err
	}
	val, err := abciQuery(context.Background(), cli, "/proposals/", app.IndexToBytes(proposalArgs.Index))
	if err != nil {
		return err
	}
	p, err := governance.UnmarshalProposal(val)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	fmt.Printf("phase:%v winner:%v\n", p.Phase(time.Now().Unix()), p.WinnerLabel())
	return nil
}

func proposalsRun(cmd *cobra.Command, args []string) error {
	cli, err := newClient(proposalsArgs.Url)
	if err != nil {
		return err
	}
	val, err := abciQuery(context.Background(), cli, "/proposals/", nil)
	if err != nil {
		return err
	}
	var proposals []*governance.Proposal
	if err := json.Unmarshal(val, &proposals); err != nil {
		return err
	}
	if len(proposals) == 0 {
		fmt.Println("no proposals")
		return nil
	}
	renderProposals(proposals, time.Now().Unix())
	return nil
}

func renderProposals(proposals []*governance.Proposal, now int64) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Title", "Options", "Tally", "Start", "End", "Phase", "Winner"})
	for _, p := range proposals {
		tally := make([]string, len(p.Tally))
		for i, w := range p.Tally {
			tally[i] = strconv.FormatUint(w, 10)
		}
		t.AppendRow(table.Row{
			p.Index,
			p.Title,
			strings.Join(p.Options, " / "),
			strings.Join(tally, " / "),
			time.Unix(p.StartTime, 0).UTC().Format(time.RFC3339),
			time.Unix(p.EndTime, 0).UTC().Format(time.RFC3339),
			p.Phase(now),
			p.WinnerLabel(),
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, WidthMax: 40},
	})
	t.Render()
}

func configRun(cmd *cobra.Command, args []string) error {
	cli, err := newClient(configArgs.Url)
	if err != nil {
		return err
	}
	val, err := abciQuery(context.Background(), cli, "/config/", nil)
	if err != nil {
		return err
	}
	cfg, err := governance.UnmarshalConfig(val)
	if err != nil {
		return err
	}
	fmt.Println("governance token:", cfg.GovernanceToken.Hex())
	return nil
}
