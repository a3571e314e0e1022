package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/calehh/daochain/config"
	"github.com/calehh/daochain/crypto"
	"github.com/calehh/daochain/governance"
	"github.com/calehh/daochain/state"
	"github.com/calehh/daochain/tx"
	"github.com/calehh/daochain/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChainId = "dao-test"

var (
	tokenT     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	otherToken = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

type testUser struct {
	pv    *crypto.PV
	pub   ed25519.PubKey
	index uint64
	nonce uint64
}

func newTestUser() *testUser {
	priv := ed25519.GenPrivKey()
	return &testUser{pv: crypto.NewPV(priv), pub: priv.PubKey().(ed25519.PubKey)}
}

func (u *testUser) ref(token common.Address) tx.TokenAccount {
	return tx.TokenAccount{Owner: u.pv.Address(), Token: token}
}

// sign builds a signed transaction and advances the user's nonce.
func (u *testUser) sign(t *testing.T, typ tx.TxType, payload any) []byte {
	t.Helper()
	btx := &tx.DAOTx{
		Version: tx.TxVersion1,
		Type:    typ,
		Nonce:   u.nonce,
		Sender:  u.index,
		Tx:      payload,
	}
	require.NoError(t, u.pv.SignTx(btx, testChainId))
	dat, err := tx.MarshalDAOTx(btx)
	require.NoError(t, err)
	u.nonce++
	return dat
}

type testChain struct {
	app    *DAOApp
	height int64
}

func newTestChain(t *testing.T, validator *testUser, appState types.AppGenesisState) *testChain {
	t.Helper()
	db, err := state.NewMemStateDB(cmtlog.NewNopLogger())
	require.NoError(t, err)
	app := newDAOApp(config.DefaultDAOAppConfig(t.TempDir()), db, cmtlog.NewNopLogger())

	dat, err := json.Marshal(appState)
	require.NoError(t, err)
	res, err := app.InitChain(context.Background(), &abcitypes.RequestInitChain{
		Time:          time.Unix(1, 0),
		ChainId:       testChainId,
		Validators:    []abcitypes.ValidatorUpdate{abcitypes.Ed25519ValidatorUpdate(validator.pub, 10)},
		AppStateBytes: dat,
	})
	require.NoError(t, err)
	require.Len(t, res.AppHash, 32)
	return &testChain{app: app}
}

func (c *testChain) lookup(t *testing.T, u *testUser) {
	t.Helper()
	acnt, _, err := c.app.db.GetAccountByAddress(u.pv.Address())
	require.NoError(t, err)
	require.NotNil(t, acnt)
	u.index = acnt.Index
	u.nonce = acnt.Nonce
}

// block runs a full prepare, process, finalize and commit round at unix
// time ts and returns the txs that made it into the block.
func (c *testChain) block(t *testing.T, ts int64, txs ...[]byte) ([][]byte, *abcitypes.ResponseFinalizeBlock) {
	t.Helper()
	ctx := context.Background()
	c.height++
	blockTime := time.Unix(ts, 0)

	prep, err := c.app.PrepareProposal(ctx, &abcitypes.RequestPrepareProposal{
		MaxTxBytes: 1 << 20,
		Txs:        txs,
		Height:     c.height,
		Time:       blockTime,
	})
	require.NoError(t, err)

	proc, err := c.app.ProcessProposal(ctx, &abcitypes.RequestProcessProposal{
		Txs:    prep.Txs,
		Height: c.height,
		Time:   blockTime,
	})
	require.NoError(t, err)
	require.Equal(t, abcitypes.ResponseProcessProposal_ACCEPT, proc.Status)

	fin, err := c.app.FinalizeBlock(ctx, &abcitypes.RequestFinalizeBlock{
		Txs:    prep.Txs,
		Height: c.height,
		Time:   blockTime,
	})
	require.NoError(t, err)
	require.Len(t, fin.TxResults, len(prep.Txs))
	_, err = c.app.Commit(ctx, &abcitypes.RequestCommit{})
	require.NoError(t, err)
	return prep.Txs, fin
}

func (c *testChain) check(t *testing.T, stx []byte) *abcitypes.ResponseCheckTx {
	t.Helper()
	res, err := c.app.CheckTx(context.Background(), &abcitypes.RequestCheckTx{Tx: stx})
	require.NoError(t, err)
	return res
}

func (c *testChain) proposal(t *testing.T, idx uint64) *governance.Proposal {
	t.Helper()
	res, err := c.app.Query(context.Background(), &abcitypes.RequestQuery{Path: "/proposals/", Data: IndexToBytes(idx)})
	require.NoError(t, err)
	require.Equal(t, types.CodeOK, res.Code, res.Log)
	p, err := governance.UnmarshalProposal(res.Value)
	require.NoError(t, err)
	return p
}

func TestGovernanceScenario(t *testing.T) {
	val, creator, x, y := newTestUser(), newTestUser(), newTestUser(), newTestUser()
	chain := newTestChain(t, val, types.AppGenesisState{
		Holdings: []types.GenesisHolding{
			{PubKey: creator.pub, Name: "creator", Token: tokenT, Amount: 1},
			{PubKey: x.pub, Name: "x", Token: tokenT, Amount: 10},
			{PubKey: x.pub, Name: "x", Token: otherToken, Amount: 50},
			{PubKey: y.pub, Name: "y", Token: tokenT, Amount: 4},
		},
	})
	for _, u := range []*testUser{val, creator, x, y} {
		chain.lookup(t, u)
	}

	// configuration registry
	txs, fin := chain.block(t, 50, creator.sign(t, tx.TxTypeInitialize, &tx.InitializeTx{GovernanceToken: tokenT}))
	require.Len(t, txs, 1)
	require.Equal(t, types.CodeOK, fin.TxResults[0].Code)
	ev := types.DecodeEventConfigInitialized(fin.TxResults[0].Events[0])
	require.NotNil(t, ev)
	assert.Equal(t, tokenT, ev.GovernanceToken)

	res := chain.check(t, val.sign(t, tx.TxTypeInitialize, &tx.InitializeTx{GovernanceToken: otherToken}))
	assert.Equal(t, types.CodeConfigAlreadyExists, res.Code)
	val.nonce--

	// proposal store
	txs, fin = chain.block(t, 60, creator.sign(t, tx.TxTypeCreateProposal, &tx.CreateProposalTx{
		Title:        "P",
		Description:  "pick one",
		Options:      []string{"A", "B"},
		StartTime:    100,
		EndTime:      200,
		TokenAccount: creator.ref(tokenT),
	}))
	require.Len(t, txs, 1)
	created := types.DecodeEventProposalCreated(fin.TxResults[0].Events[0])
	require.NotNil(t, created)
	assert.Equal(t, uint64(1), created.ProposalIndex)
	assert.Equal(t, []string{"A", "B"}, created.Options)

	early := x.sign(t, tx.TxTypeVote, &tx.VoteTx{Proposal: 1, Option: 0, TokenAccount: x.ref(tokenT)})
	assert.Equal(t, types.CodeVotingNotStarted, chain.check(t, early).Code)
	x.nonce--

	// voting engine
	voteX := x.sign(t, tx.TxTypeVote, &tx.VoteTx{Proposal: 1, Option: 0, TokenAccount: x.ref(tokenT)})
	voteY := y.sign(t, tx.TxTypeVote, &tx.VoteTx{Proposal: 1, Option: 1, TokenAccount: y.ref(tokenT)})
	wrongToken := x.sign(t, tx.TxTypeVote, &tx.VoteTx{Proposal: 1, Option: 1, TokenAccount: x.ref(otherToken)})
	txs, fin = chain.block(t, 150, voteX, voteY, wrongToken)
	require.Len(t, txs, 2, "the vote of an account that already voted is dropped")
	x.nonce--
	weights := map[string]uint64{}
	for _, r := range fin.TxResults {
		v := types.DecodeEventVoteCast(r.Events[0])
		require.NotNil(t, v)
		weights[v.VoterAddress] = v.Weight
	}
	assert.Equal(t, uint64(10), weights[x.pv.Address().String()])
	assert.Equal(t, uint64(4), weights[y.pv.Address().String()])

	p := chain.proposal(t, 1)
	assert.Equal(t, []uint64{10, 4}, p.Tally)
	assert.Len(t, p.Voters, 2)
	assert.Nil(t, p.Winner)

	again := x.sign(t, tx.TxTypeVote, &tx.VoteTx{Proposal: 1, Option: 1, TokenAccount: x.ref(tokenT)})
	assert.Equal(t, types.CodeAlreadyVoted, chain.check(t, again).Code)
	x.nonce--

	tallyEarly := y.sign(t, tx.TxTypeTallyVotes, &tx.TallyVotesTx{Proposal: 1})
	assert.Equal(t, types.CodeVotingNotEnded, chain.check(t, tallyEarly).Code)
	y.nonce--

	// tally
	txs, fin = chain.block(t, 201, y.sign(t, tx.TxTypeTallyVotes, &tx.TallyVotesTx{Proposal: 1}))
	require.Len(t, txs, 1)
	tallied := types.DecodeEventProposalTallied(fin.TxResults[0].Events[0])
	require.NotNil(t, tallied)
	assert.Equal(t, int64(0), tallied.Winner)
	assert.Equal(t, []uint64{10, 4}, tallied.Tally)

	p = chain.proposal(t, 1)
	require.NotNil(t, p.Winner)
	assert.Equal(t, uint8(0), *p.Winner)
	assert.Equal(t, "A", p.WinnerLabel())
	assert.True(t, p.Tallied)

	// tallying again is harmless
	txs, _ = chain.block(t, 300, creator.sign(t, tx.TxTypeTallyVotes, &tx.TallyVotesTx{Proposal: 1}))
	require.Len(t, txs, 1)
	assert.Equal(t, uint8(0), *chain.proposal(t, 1).Winner)

	info, err := chain.app.Info(context.Background(), &abcitypes.RequestInfo{})
	require.NoError(t, err)
	assert.Equal(t, chain.height, info.LastBlockHeight)
}

func TestFinalizeRecordsFailedTx(t *testing.T) {
	val, creator := newTestUser(), newTestUser()
	token := tokenT
	chain := newTestChain(t, val, types.AppGenesisState{
		GovernanceToken: &token,
		Holdings: []types.GenesisHolding{
			{PubKey: creator.pub, Token: tokenT, Amount: 3},
		},
	})
	chain.lookup(t, creator)

	bad := creator.sign(t, tx.TxTypeCreateProposal, &tx.CreateProposalTx{
		Title:        "P",
		Options:      []string{"A"},
		TokenAccount: creator.ref(otherToken),
	})
	creator.nonce--
	good := creator.sign(t, tx.TxTypeCreateProposal, &tx.CreateProposalTx{
		Title:        "P",
		Options:      []string{"A"},
		TokenAccount: creator.ref(tokenT),
	})

	ctx := context.Background()
	proc, err := chain.app.ProcessProposal(ctx, &abcitypes.RequestProcessProposal{Txs: [][]byte{bad}, Height: 1, Time: time.Unix(10, 0)})
	require.NoError(t, err)
	assert.Equal(t, abcitypes.ResponseProcessProposal_REJECT, proc.Status)

	fin, err := chain.app.FinalizeBlock(ctx, &abcitypes.RequestFinalizeBlock{Txs: [][]byte{bad, good}, Height: 1, Time: time.Unix(10, 0)})
	require.NoError(t, err)
	require.Len(t, fin.TxResults, 2)
	assert.Equal(t, types.CodeTokenAccountNoexists, fin.TxResults[0].Code)
	assert.NotEmpty(t, fin.TxResults[0].Log)
	assert.Equal(t, types.CodeOK, fin.TxResults[1].Code)
	_, err = chain.app.Commit(ctx, &abcitypes.RequestCommit{})
	require.NoError(t, err)

	acnt, _, err := chain.app.db.GetAccountByIndex(creator.index)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), acnt.Nonce)
	max, _ := chain.app.db.GetProposalMax()
	assert.Equal(t, uint64(1), max)
}

func TestGenesisConfigAndQueries(t *testing.T) {
	val, holder := newTestUser(), newTestUser()
	token := tokenT
	chain := newTestChain(t, val, types.AppGenesisState{
		GovernanceToken: &token,
		Holdings: []types.GenesisHolding{
			{PubKey: holder.pub, Token: tokenT, Amount: 7},
		},
	})
	ctx := context.Background()

	res, err := chain.app.Query(ctx, &abcitypes.RequestQuery{Path: "/config"})
	require.NoError(t, err)
	require.Equal(t, types.CodeOK, res.Code)
	cfg, err := governance.UnmarshalConfig(res.Value)
	require.NoError(t, err)
	assert.Equal(t, tokenT, cfg.GovernanceToken)

	res, err = chain.app.Query(ctx, &abcitypes.RequestQuery{Path: "/holdings/", Data: HoldingQueryData(holder.pv.Address(), tokenT)})
	require.NoError(t, err)
	require.Equal(t, types.CodeOK, res.Code)
	var ev governance.Evidence
	require.NoError(t, json.Unmarshal(res.Value, &ev))
	assert.Equal(t, uint64(7), ev.Balance)

	res, err = chain.app.Query(ctx, &abcitypes.RequestQuery{Path: "/holdings/", Data: HoldingQueryData(holder.pv.Address(), otherToken)})
	require.NoError(t, err)
	assert.Equal(t, types.CodeTokenAccountNoexists, res.Code)

	res, err = chain.app.Query(ctx, &abcitypes.RequestQuery{Path: "/proposals/", Data: IndexToBytes(1)})
	require.NoError(t, err)
	assert.Equal(t, types.CodeProposalNoexists, res.Code)

	res, err = chain.app.Query(ctx, &abcitypes.RequestQuery{Path: "/proposals/"})
	require.NoError(t, err)
	require.Equal(t, types.CodeOK, res.Code)
	assert.JSONEq(t, "[]", string(res.Value))

	res, err = chain.app.Query(ctx, &abcitypes.RequestQuery{Path: "/accounts/", Data: holder.pv.Address()})
	require.NoError(t, err)
	require.Equal(t, types.CodeOK, res.Code)
	var acnt state.Account
	require.NoError(t, json.Unmarshal(res.Value, &acnt))
	assert.Equal(t, []byte(holder.pub), []byte(acnt.PubKey))
	assert.Equal(t, uint64(0), acnt.Stake)

	res, err = chain.app.Query(ctx, &abcitypes.RequestQuery{Path: "/unknown/"})
	require.NoError(t, err)
	assert.Equal(t, CodeQueryNotFound, res.Code)
}

func TestQueryServesCommittedState(t *testing.T) {
	val, creator, x := newTestUser(), newTestUser(), newTestUser()
	chain := newTestChain(t, val, types.AppGenesisState{
		GovernanceToken: &tokenT,
		Holdings: []types.GenesisHolding{
			{PubKey: creator.pub, Name: "creator", Token: tokenT, Amount: 1},
			{PubKey: x.pub, Name: "x", Token: tokenT, Amount: 10},
		},
	})
	chain.lookup(t, creator)
	chain.lookup(t, x)

	chain.block(t, 60, creator.sign(t, tx.TxTypeCreateProposal, &tx.CreateProposalTx{
		Title:        "P",
		Options:      []string{"A", "B"},
		StartTime:    100,
		EndTime:      200,
		TokenAccount: creator.ref(tokenT),
	}))

	ctx := context.Background()
	vote := x.sign(t, tx.TxTypeVote, &tx.VoteTx{Proposal: 1, Option: 0, TokenAccount: x.ref(tokenT)})
	chain.height++
	fin, err := chain.app.FinalizeBlock(ctx, &abcitypes.RequestFinalizeBlock{
		Txs:    [][]byte{vote},
		Height: chain.height,
		Time:   time.Unix(150, 0),
	})
	require.NoError(t, err)
	require.Equal(t, types.CodeOK, fin.TxResults[0].Code)

	assert.Equal(t, []uint64{0, 0}, chain.proposal(t, 1).Tally)
	acnt, _, err := chain.app.db.GetAccountByAddress(x.pv.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), acnt.Nonce)

	_, err = chain.app.Commit(ctx, &abcitypes.RequestCommit{})
	require.NoError(t, err)
	assert.Equal(t, []uint64{10, 0}, chain.proposal(t, 1).Tally)
	acnt, _, err = chain.app.db.GetAccountByAddress(x.pv.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), acnt.Nonce)
}

func TestCheckTxRejectsMalformedTx(t *testing.T) {
	chain := newTestChain(t, newTestUser(), types.AppGenesisState{})
	res := chain.check(t, []byte("not a tx"))
	assert.Equal(t, types.CodeInvalidTx, res.Code)
	res = chain.check(t, []byte(`{"type":9}`))
	assert.Equal(t, types.CodeUnsupportedTx, res.Code)
}
