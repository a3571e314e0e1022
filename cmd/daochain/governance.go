package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/calehh/daochain/crypto"
	"github.com/calehh/daochain/tx"
	"github.com/spf13/cobra"
)

func txFlags(cmd *cobra.Command, args *txArguments) {
	urlFlag(cmd, &args.Url)
	skeyFlag(cmd, &args.Skey)
	cmd.Flags().Uint64VarP(&args.Nonce, "nonce", "n", 0, "account nonce, queried from the node when 0")
}

// tokenAccount resolves the holding a transaction presents as evidence. The
// owner defaults to the signing key's address.
func tokenAccount(skey, owner, token string) (tx.TokenAccount, error) {
	tokenAddr, err := parseToken(token)
	if err != nil {
		return tx.TokenAccount{}, err
	}
	if owner == "" {
		pv, err := crypto.LoadFilePV(skey)
		if err != nil {
			return tx.TokenAccount{}, err
		}
		return tx.TokenAccount{Owner: pv.Address(), Token: tokenAddr}, nil
	}
	ownerAddr, err := hex.DecodeString(owner)
	if err != nil || len(ownerAddr) != 20 {
		return tx.TokenAccount{}, fmt.Errorf("invalid owner address %q", owner)
	}
	return tx.TokenAccount{Owner: ownerAddr, Token: tokenAddr}, nil
}

type initializeArguments struct {
	txArguments
	Token string
}

var initializeArgs initializeArguments

var initializeCmd = &cobra.Command{
	Use:   "initialize",
	Short: "Set the governance token of the chain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := parseToken(initializeArgs.Token)
		if err != nil {
			return err
		}
		return sendTx(context.Background(), &initializeArgs.txArguments, tx.TxTypeInitialize, &tx.InitializeTx{
			GovernanceToken: token,
		})
	},
}

type proposeArguments struct {
	txArguments
	Title       string
	Description string
	Options     []string
	Start       int64
	Duration    time.Duration
	Owner       string
	Token       string
}

var proposeArgs proposeArguments

var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Create a proposal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ta, err := tokenAccount(proposeArgs.Skey, proposeArgs.Owner, proposeArgs.Token)
		if err != nil {
			return err
		}
		start := proposeArgs.Start
		if start == 0 {
			start = time.Now().Unix()
		}
		return sendTx(context.Background(), &proposeArgs.txArguments, tx.TxTypeCreateProposal, &tx.CreateProposalTx{
			Title:        proposeArgs.Title,
			Description:  proposeArgs.Description,
			Options:      proposeArgs.Options,
			StartTime:    start,
			EndTime:      start + int64(proposeArgs.Duration.Seconds()),
			TokenAccount: ta,
		})
	},
}

type voteArguments struct {
	txArguments
	Proposal uint64
	Option   uint8
	Owner    string
	Token    string
}

var voteArgs voteArguments

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Vote on a proposal with the weight of a token holding",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ta, err := tokenAccount(voteArgs.Skey, voteArgs.Owner, voteArgs.Token)
		if err != nil {
			return err
		}
		return sendTx(context.Background(), &voteArgs.txArguments, tx.TxTypeVote, &tx.VoteTx{
			Proposal:     voteArgs.Proposal,
			Option:       voteArgs.Option,
			TokenAccount: ta,
		})
	},
}

type tallyArguments struct {
	txArguments
	Proposal uint64
}

var tallyArgs tallyArguments

var tallyCmd = &cobra.Command{
	Use:   "tally",
	Short: "Tally the votes of a proposal whose voting period ended",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTx(context.Background(), &tallyArgs.txArguments, tx.TxTypeTallyVotes, &tx.TallyVotesTx{
			Proposal: tallyArgs.Proposal,
		})
	},
}

func init() {
	txFlags(initializeCmd, &initializeArgs.txArguments)
	initializeCmd.Flags().StringVarP(&initializeArgs.Token, "token", "t", "", "governance token address")
	_ = initializeCmd.MarkFlagRequired("token")

	txFlags(proposeCmd, &proposeArgs.txArguments)
	proposeCmd.Flags().StringVar(&proposeArgs.Title, "title", "", "proposal title")
	proposeCmd.Flags().StringVar(&proposeArgs.Description, "description", "", "proposal description")
	proposeCmd.Flags().StringSliceVar(&proposeArgs.Options, "option", nil, "option label, repeat for every option")
	proposeCmd.Flags().Int64Var(&proposeArgs.Start, "start", 0, "voting start, unix seconds; now when 0")
	proposeCmd.Flags().DurationVar(&proposeArgs.Duration, "duration", 24*time.Hour, "voting period length")
	proposeCmd.Flags().StringVar(&proposeArgs.Owner, "owner", "", "hex address owning the token holding; the signer when empty")
	proposeCmd.Flags().StringVarP(&proposeArgs.Token, "token", "t", "", "token of the holding")
	_ = proposeCmd.MarkFlagRequired("title")
	_ = proposeCmd.MarkFlagRequired("token")

	txFlags(voteCmd, &voteArgs.txArguments)
	voteCmd.Flags().Uint64VarP(&voteArgs.Proposal, "proposal", "p", 0, "proposal index")
	voteCmd.Flags().Uint8VarP(&voteArgs.Option, "option", "o", 0, "option index")
	voteCmd.Flags().StringVar(&voteArgs.Owner, "owner", "", "hex address owning the token holding; the signer when empty")
	voteCmd.Flags().StringVarP(&voteArgs.Token, "token", "t", "", "token of the holding")
	_ = voteCmd.MarkFlagRequired("proposal")
	_ = voteCmd.MarkFlagRequired("token")

	txFlags(tallyCmd, &tallyArgs.txArguments)
	tallyCmd.Flags().Uint64VarP(&tallyArgs.Proposal, "proposal", "p", 0, "proposal index")
	_ = tallyCmd.MarkFlagRequired("proposal")
}
