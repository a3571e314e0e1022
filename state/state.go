package state

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/calehh/daochain/governance"
	"github.com/calehh/daochain/tx"
	abci_types "github.com/cometbft/cometbft/abci/types"
	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
)

const (
	StartAccountIdx = 65536

	ModifiedFlagNew = 1 << 0
	ModifiedFlagMod = 1 << 1

	MaxValidators = 100
)

var (
	KeyState         = "s"
	KeyConfig        = "c"
	KeyAccountIndex  = "i%s"
	KeyAccountBody   = "a%x"
	KeyHolding       = "b%x%x"
	KeyProposalBody  = "p%v"
	KeyProposalIndex = "pi"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrTxSenderNoexists     = errors.New("sender noexists")
	ErrTxNonceInvalid       = errors.New("nonce invalid")
	ErrTxSigInvalid         = errors.New("signature invalid")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrAccountNoexists      = errors.New("account noexists")
	ErrProposalNoexists     = errors.New("proposal noexists")
	ErrConfigAlreadyExists  = errors.New("config already exists")
	ErrConfigNoexists       = errors.New("config noexists")
	ErrTokenAccountNoexists = errors.New("token account noexists")
)

var _ governance.EvidenceSource = (*State)(nil)

// treeReader is the read side shared by the working tree and its saved
// versions.
type treeReader interface {
	Get(key []byte) ([]byte, error)
}

// emptyTree stands in for the saved version of a tree that has none.
type emptyTree struct{}

func (emptyTree) Get([]byte) ([]byte, error) { return nil, nil }

// State is the working view of the tree for one block. Reads fall through to
// kv; writes are cached until Update flushes them into the working tree.
// Once saved, a state reads from its own immutable version so blocks being
// finalized stay invisible to it.
type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	kv     treeReader
	dbVer  int64

	header     *StateHeader
	validators []abci_types.ValidatorUpdate
	idxs       map[string]uint64
	acnts      map[uint64]*Account

	modifiedAcnts    map[uint64]uint32
	config           *governance.Config
	modConfig        bool
	proposalMaxIndex uint64
	modProposals     map[uint64]*governance.Proposal
	holdings         map[string]uint64
	modHoldings      map[string]bool
}

func newState(db *iavl.MutableTree, logger cmtlog.Logger) *State {
	s := &State{
		logger:        logger,
		db:            db,
		kv:            db,
		dbVer:         0,
		header:        new(StateHeader),
		validators:    []abci_types.ValidatorUpdate{},
		idxs:          make(map[string]uint64),
		acnts:         make(map[uint64]*Account),
		modifiedAcnts: make(map[uint64]uint32),
		modProposals:  make(map[uint64]*governance.Proposal),
		holdings:      make(map[string]uint64),
		modHoldings:   make(map[string]bool),
	}
	s.header.AccountIdx = StartAccountIdx
	return s
}

func (s *State) nextState() *State {
	n := &State{
		logger:           s.logger,
		db:               s.db,
		kv:               s.db,
		dbVer:            s.dbVer,
		validators:       deepCopySlice(s.validators),
		idxs:             make(map[string]uint64),
		acnts:            make(map[uint64]*Account),
		modifiedAcnts:    make(map[uint64]uint32),
		config:           s.config,
		proposalMaxIndex: s.proposalMaxIndex,
		modProposals:     make(map[uint64]*governance.Proposal),
		holdings:         make(map[string]uint64),
		modHoldings:      make(map[string]bool),
	}
	n.header = s.header.Clone()
	if s.header.GetHash() != nil {
		n.header.Height = s.header.Height + 1
	}

	return n
}

func deepCopyMap[K comparable, V any](source map[K]V) map[K]V {
	res := make(map[K]V, len(source))
	for k, v := range source {
		switch x := any(v).(type) {
		case *Account:
			res[k] = any(x.Clone()).(V)
		case *governance.Proposal:
			res[k] = any(x.Clone()).(V)
		default:
			res[k] = v
		}
	}
	return res
}

func deepCopySlice[E any](source []E) []E {
	res := make([]E, len(source))
	if len(source) == 0 {
		return res
	}
	for idx, ele := range source {
		switch e := any(ele).(type) {
		case abci_types.ValidatorUpdate:
			b, _ := e.Marshal()
			eleClone := abci_types.ValidatorUpdate{}
			eleClone.Unmarshal(b)
			res[idx] = any(eleClone).(E)
		default:
			copy(res, source)
			return res
		}
	}
	return res
}

// Clone returns an independent copy of the working state at the same height.
// Transactions run against a clone that replaces the original only on success.
func (s *State) Clone() *State {
	n := &State{
		logger:           s.logger,
		db:               s.db,
		kv:               s.kv,
		dbVer:            s.dbVer,
		header:           s.header.Clone(),
		validators:       deepCopySlice(s.validators),
		idxs:             deepCopyMap(s.idxs),
		acnts:            deepCopyMap(s.acnts),
		modifiedAcnts:    deepCopyMap(s.modifiedAcnts),
		config:           s.config,
		modConfig:        s.modConfig,
		proposalMaxIndex: s.proposalMaxIndex,
		modProposals:     deepCopyMap(s.modProposals),
		holdings:         deepCopyMap(s.holdings),
		modHoldings:      deepCopyMap(s.modHoldings),
	}
	return n
}

func (s *State) load() (err error) {
	val, err := s.kv.Get([]byte(KeyProposalIndex))
	if err != nil {
		if err != leveldb.ErrNotFound {
			return err
		}
	}
	s.proposalMaxIndex = new(big.Int).SetBytes(val).Uint64()
	val, err = s.kv.Get([]byte(KeyConfig))
	if err != nil {
		if err != leveldb.ErrNotFound {
			return err
		}
	}
	if val != nil {
		s.config, err = governance.UnmarshalConfig(val)
		if err != nil {
			return err
		}
	}
	val, err = s.kv.Get([]byte(KeyState))
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil
		}
		return err
	}
	if val != nil {
		err = s.header.Unmarshal(val)
		if err != nil {
			return
		}
		h := s.db.Hash()
		if h != nil {
			s.calcHash(h, true)
		}
	}
	return
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		s.header.RootHash = append(s.header.RootHash[:0], rootHash...)
		s.header.Hash = append(s.header.Hash[:0], h[:]...)
	}
	return
}

// Update flushes the cached writes into the working tree and returns the
// resulting app hash. The tree is rolled back if any write fails.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	_, err = s.db.Set([]byte(KeyState), s.header.Marshal())
	if err != nil {
		return
	}

	if s.modConfig {
		var val []byte
		val, err = s.config.Marshal()
		if err != nil {
			return
		}
		_, err = s.db.Set([]byte(KeyConfig), val)
		if err != nil {
			return
		}
		s.modConfig = false
	}

	if len(s.modProposals) != 0 {
		_, err = s.db.Set([]byte(KeyProposalIndex), new(big.Int).SetUint64(s.proposalMaxIndex).Bytes())
		if err != nil {
			return
		}
		idxs := make([]uint64, 0, len(s.modProposals))
		for idx := range s.modProposals {
			idxs = append(idxs, idx)
		}
		sort.Slice(idxs, func(i, j int) bool {
			return idxs[i] < idxs[j]
		})
		for _, idx := range idxs {
			var val []byte
			val, err = s.modProposals[idx].Marshal()
			if err != nil {
				return
			}
			_, err = s.db.Set([]byte(fmt.Sprintf(KeyProposalBody, idx)), val)
			if err != nil {
				return
			}
		}
		s.modProposals = make(map[uint64]*governance.Proposal)
	}

	if len(s.modHoldings) != 0 {
		keys := make([]string, 0, len(s.modHoldings))
		for key := range s.modHoldings {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			var val []byte
			val, err = rlp.EncodeToBytes(s.holdings[key])
			if err != nil {
				return
			}
			_, err = s.db.Set([]byte(key), val)
			if err != nil {
				return
			}
		}
		s.modHoldings = make(map[string]bool)
	}

	n := len(s.modifiedAcnts)
	if n > 0 {
		idxs := make([]uint64, n)
		i := 0
		for idx := range s.modifiedAcnts {
			idxs[i] = idx
			i += 1
		}
		sort.Slice(idxs, func(i, j int) bool {
			return idxs[i] < idxs[j]
		})
		for _, idx := range idxs {
			flag := s.modifiedAcnts[idx]
			acnt := s.acnts[idx]
			key := fmt.Sprintf(KeyAccountBody, acnt.Index)
			var val []byte
			val, err = acnt.Marshal()
			if err != nil {
				return
			}
			_, err = s.db.Set([]byte(key), val)
			if err != nil {
				return
			}
			if flag&ModifiedFlagNew == ModifiedFlagNew {
				key = fmt.Sprintf(KeyAccountIndex, acnt.Address())
				val, err = rlp.EncodeToBytes(acnt.Index)
				if err != nil {
					return
				}
				_, err = s.db.Set([]byte(key), val)
				if err != nil {
					return
				}
			}
		}
	}
	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.modifiedAcnts = make(map[uint64]uint32)
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}

	err = s.setVersion(ver)
	if err != nil {
		return h, err
	}
	h = s.calcHash(hash, true)

	return
}

// setVersion points reads at the saved tree version ver.
func (s *State) setVersion(ver int64) error {
	s.dbVer = ver
	if ver == 0 {
		s.kv = emptyTree{}
		return nil
	}
	it, err := s.db.GetImmutable(ver)
	if err != nil {
		return err
	}
	s.kv = it
	return nil
}

func (s *State) GetAccount(idx uint64) (acnt *Account, err error) {
	if idx >= s.header.AccountIdx {
		err = ErrAccountNoexists
		return
	}
	acnt = s.acnts[idx]
	if acnt != nil {
		return
	}
	key := fmt.Sprintf(KeyAccountBody, idx)
	val, err := s.kv.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	if val == nil {
		err = ErrNotFound
		return
	}
	acnt, err = unmarshalAccount(val)
	if err != nil {
		return nil, err
	}
	s.acnts[idx] = acnt
	return
}

func (s *State) FindAccount(addr []byte) (acnt *Account, err error) {
	saddr := cmtcrypto.Address(addr).String()
	idx, ok := s.idxs[saddr]
	if !ok {
		key := fmt.Sprintf(KeyAccountIndex, saddr)
		val, err := s.kv.Get([]byte(key))
		if err != nil {
			if err == leveldb.ErrNotFound {
				return nil, nil
			}
			return nil, err
		}
		if val == nil {
			return nil, nil
		}
		err = rlp.DecodeBytes(val, &idx)
		if err != nil {
			return nil, err
		}
		s.idxs[saddr] = idx
	}
	acnt, err = s.GetAccount(idx)

	return
}

func (s *State) ValidatorAccounts() (acounts []*Account, height uint64, err error) {
	vals := s.validators
	for _, val := range vals {
		pk := ed25519.PubKey(val.PubKey.GetEd25519()[:])
		addr := pk.Address()[:]
		act, _ := s.FindAccount(addr)
		if act != nil {
			acounts = append(acounts, act)
		}
	}
	height = s.header.Height
	return
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

// SetBlockTime sets the clock, in unix seconds, that governance rules observe.
func (s *State) SetBlockTime(t int64) {
	s.header.LastBlockTime = t
}

func (s *State) BlockTime() int64 {
	return s.header.LastBlockTime
}

func (s *State) AddAccount(acnt *Account) (err error) {
	a, err := s.FindAccount(acnt.AddrBytes())
	if err != nil {
		return err
	}
	if a != nil {
		err = ErrAccountAlreadyExists
		return
	}
	acnt.Index = s.header.AccountIdx
	s.header.AccountIdx += 1
	s.acnts[acnt.Index] = acnt.Clone()
	s.idxs[acnt.Address()] = acnt.Index
	s.modifiedAcnts[acnt.Index] = ModifiedFlagNew
	return
}

func (s *State) Verify(tx *tx.DAOTx, allowNonceGap bool) (succ bool, err error) {
	a, err := s.GetAccount(tx.Sender)
	if err != nil {
		if errors.Is(err, ErrAccountNoexists) || errors.Is(err, ErrNotFound) {
			err = ErrTxSenderNoexists
		}
		return succ, err
	}
	if a == nil {
		err = ErrTxSenderNoexists
		return
	}
	if !(a.Nonce == tx.Nonce || (allowNonceGap && a.Nonce < tx.Nonce)) {
		err = ErrTxNonceInvalid
		return
	}
	dat, err := tx.SigData([]byte(s.header.ChainId))
	if err != nil {
		return succ, err
	}
	succ = a.Verify(dat, tx.Sig)
	if !succ {
		err = ErrTxSigInvalid
	}
	return
}

func (s *State) sender(idx uint64) (*Account, error) {
	a, err := s.GetAccount(idx)
	if err != nil {
		if errors.Is(err, ErrAccountNoexists) || errors.Is(err, ErrNotFound) {
			return nil, ErrTxSenderNoexists
		}
		return nil, err
	}
	return a, nil
}

func (s *State) bumpNonce(a *Account) {
	a.Nonce += 1
	v := s.modifiedAcnts[a.Index]
	v |= ModifiedFlagMod
	s.modifiedAcnts[a.Index] = v
	s.acnts[a.Index] = a.Clone()
}

func PrefixEndBytes(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	end := make([]byte, len(prefix))
	copy(end, prefix)

	for {
		if end[len(end)-1] != byte(255) {
			end[len(end)-1]++
			break
		}

		end = end[:len(end)-1]

		if len(end) == 0 {
			end = nil
			break
		}
	}

	return end
}
