package state

import (
	"sync"

	"github.com/calehh/daochain/governance"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
)

// StateDB owns the committed state. Lookups that fill the state's read
// caches take the write lock.
type StateDB struct {
	mtx sync.RWMutex

	dir    string
	logger cmtlog.Logger
	ldb    dbm.DB
	db     *iavl.MutableTree

	state *State
}

func NewStateDB(dir string, logger cmtlog.Logger) (db *StateDB, err error) {
	logger = logger.With("module", "daodb")
	ldb, err := dbm.NewDB("dao", "goleveldb", dir)
	if err != nil {
		return nil, err
	}
	return openStateDB(ldb, dir, logger)
}

// NewMemStateDB opens a state backed by memory only.
func NewMemStateDB(logger cmtlog.Logger) (db *StateDB, err error) {
	logger = logger.With("module", "daodb")
	return openStateDB(dbm.NewMemDB(), "", logger)
}

func openStateDB(ldb dbm.DB, dir string, logger cmtlog.Logger) (db *StateDB, err error) {
	tdb := iavl.NewMutableTree(ldb, 128, true, treeLogger{logger})
	version, err := tdb.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("load db success", "version", version)
	st := newState(tdb, logger)
	err = st.setVersion(version)
	if err != nil {
		return nil, err
	}
	err = st.load()
	if err != nil {
		logger.Error("from daodb load fail", "err", err)
		return nil, err
	}
	db = &StateDB{
		dir:    dir,
		logger: logger,
		ldb:    ldb,
		db:     tdb,
		state:  st,
	}
	return
}

// Close releases the tree and then the store under it. The tree does not
// close the store itself.
func (db *StateDB) Close() (err error) {
	err = db.db.Close()
	if cerr := db.ldb.Close(); err == nil {
		err = cerr
	}
	return
}

func (db *StateDB) Header() (header *StateHeader) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	header = db.state.Header().Clone()
	return
}

func (db *StateDB) State() *State {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state
}

func (db *StateDB) NewState() (st *State) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	st = db.state.nextState()
	return
}

func (db *StateDB) SetState(st *State) (hash common.Hash, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	hash, err = st.save()
	if err != nil {
		return
	}
	db.state = st
	return
}

func (db *StateDB) GetAccountByIndex(idx uint64) (acnt *Account, height uint64, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	acnt, err = db.state.GetAccount(idx)
	if err != nil {
		return
	}
	if acnt != nil {
		acnt = acnt.Clone()
	}
	height = db.state.header.Height

	return

}

func (db *StateDB) GetAccountByAddress(addr []byte) (acnt *Account, height uint64, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	acnt, err = db.state.FindAccount(addr)
	if err != nil {
		return
	}
	if acnt != nil {
		acnt = acnt.Clone()
	}
	height = db.state.header.Height

	return
}

func (db *StateDB) GetConfig() (cfg *governance.Config, height uint64) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	if c := db.state.Config(); c != nil {
		cfg = governance.NewConfig(c.GovernanceToken)
	}
	height = db.state.header.Height
	return
}

func (db *StateDB) GetProposal(idx uint64) (proposal *governance.Proposal, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	proposal, err = db.state.GetProposal(idx)
	height = db.state.header.Height
	return
}

func (db *StateDB) GetProposalMax() (max uint64, height uint64) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state.ProposalMax(), db.state.header.Height
}

func (db *StateDB) GetHolding(owner governance.Address, token common.Address) (ev governance.Evidence, height uint64, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	ev, err = db.state.TokenEvidence(owner, token)
	height = db.state.header.Height
	return
}
