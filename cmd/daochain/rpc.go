package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/calehh/daochain/app"
	"github.com/calehh/daochain/crypto"
	"github.com/calehh/daochain/state"
	"github.com/calehh/daochain/tx"
	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/ethereum/go-ethereum/common"
)

func newClient(url string) (*http.HTTP, error) {
	cli, err := http.New(url, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	return cli, nil
}

// abciQuery runs an app query and fails on any non-zero response code.
func abciQuery(ctx context.Context, cli *http.HTTP, path string, data []byte) ([]byte, error) {
	res, err := cli.ABCIQuery(ctx, path, data)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", path, err)
	}
	if res.Response.Code != 0 {
		return nil, fmt.Errorf("query %s: code %d: %s", path, res.Response.Code, res.Response.Log)
	}
	return res.Response.Value, nil
}

// queryAccount looks an account up by hex address, or by index when address
// is empty.
func queryAccount(ctx context.Context, cli *http.HTTP, index uint64, address string) (*state.Account, error) {
	var dat []byte
	if len(address) > 0 {
		var err error
		dat, err = hex.DecodeString(address)
		if err != nil {
			return nil, fmt.Errorf("invalid address %v: %w", address, err)
		}
	} else {
		dat = app.IndexToBytes(index)
	}
	val, err := abciQuery(ctx, cli, "/accounts/", dat)
	if err != nil {
		return nil, err
	}
	var act state.Account
	if err := json.Unmarshal(val, &act); err != nil {
		return nil, err
	}
	return &act, nil
}

type txArguments struct {
	Url   string
	Skey  string
	Nonce uint64
}

// sendTx signs payload with the key at args.Skey as the account owning that
// key and broadcasts it.
func sendTx(ctx context.Context, args *txArguments, typ tx.TxType, payload any) error {
	cli, err := newClient(args.Url)
	if err != nil {
		return err
	}
	pv, err := crypto.LoadFilePV(args.Skey)
	if err != nil {
		return err
	}
	gres, err := cli.Genesis(ctx)
	if err != nil {
		return fmt.Errorf("get chain genesis: %w", err)
	}
	chainId := gres.Genesis.ChainID
	act, err := queryAccount(ctx, cli, 0, pv.Address().String())
	if err != nil {
		return err
	}
	nonce := args.Nonce
	if nonce == 0 {
		nonce = act.Nonce
	}
	btx := &tx.DAOTx{
		Version: tx.TxVersion1,
		Type:    typ,
		Nonce:   nonce,
		Sender:  act.Index,
		Tx:      payload,
	}
	if err := pv.SignTx(btx, chainId); err != nil {
		return fmt.Errorf("sign tx: %w", err)
	}
	dat, err := tx.MarshalDAOTx(btx)
	if err != nil {
		return err
	}
	res, err := cli.BroadcastTxSync(ctx, dat)
	if err != nil {
		return fmt.Errorf("broadcast tx: %w", err)
	}
	if res.Code != 0 {
		return fmt.Errorf("%v tx rejected: code %d: %s", typ, res.Code, res.Log)
	}
	fmt.Printf("%v tx sent sender:%v nonce:%v hash:%v\n", typ, act.Index, nonce, res.Hash)
	return nil
}

func parseToken(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid token address %q", s)
	}
	return common.HexToAddress(s), nil
}
