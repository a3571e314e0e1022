package state

import (
	"container/heap"
	"fmt"
	"sort"

	"github.com/calehh/daochain/config"
	abci_types "github.com/cometbft/cometbft/abci/types"
)

// Validators rebuilds the validator set from staked accounts, highest power
// first, ties broken by account index.
func (s *State) Validators() (updateVals map[string]abci_types.ValidatorUpdate, err error) {
	updateVals = make(map[string]abci_types.ValidatorUpdate, 0)
	start := []byte(fmt.Sprintf(KeyAccountBody, ""))
	end := PrefixEndBytes(start)
	aIterator, err := s.db.Iterator(start, end, true)
	if err != nil {
		return nil, err
	}
	defer aIterator.Close()

	valsQueue := &PowerQueue{}
	heap.Init(valsQueue)
	for ; aIterator.Valid(); aIterator.Next() {
		act, err := unmarshalAccount(aIterator.Value())
		if err != nil {
			return nil, err
		}
		power := config.PowerPerStake(act.Stake, s.header.Height)
		if power > 0 {
			heap.Push(valsQueue, validatorWithPower{
				Index:  act.Index,
				Pubkey: act.PubKey,
				Power:  power,
			})
		}
	}

	vals := make([]abci_types.ValidatorUpdate, 0)
	for valsQueue.Len() > 0 && len(vals) < MaxValidators {
		val := heap.Pop(valsQueue).(validatorWithPower)
		vals = append(vals, abci_types.Ed25519ValidatorUpdate(val.Pubkey, val.Power))
	}
	s.validators = vals

	for _, val := range vals {
		updateVals[val.PubKey.String()] = val
	}

	return updateVals, nil
}

func (s *State) ValidatorsUpdate(curVals map[string]abci_types.ValidatorUpdate) (updateVals []abci_types.ValidatorUpdate, err error) {
	nextVals, err := s.Validators()
	if err != nil {
		return nil, err
	}

	for key, val := range nextVals {
		if v, ok := curVals[key]; ok {
			if v.Power != val.Power {
				updateVals = append(updateVals, val)
			}
		} else {
			updateVals = append(updateVals, val)
		}
	}

	for key, curVal := range curVals {
		if _, ok := nextVals[key]; !ok {
			curVal.Power = 0
			updateVals = append(updateVals, curVal)
		}
	}
	sort.Slice(updateVals, func(i, j int) bool {
		return updateVals[i].PubKey.String() < updateVals[j].PubKey.String()
	})
	return
}

type validatorWithPower struct {
	Index  uint64
	Pubkey []byte
	Power  int64
}

type PowerQueue []validatorWithPower

func (pq PowerQueue) Len() int { return len(pq) }

func (pq PowerQueue) Less(i, j int) bool {
	if pq[i].Power == pq[j].Power {
		return pq[i].Index < pq[j].Index
	}
	return pq[i].Power > pq[j].Power
}

func (pq PowerQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *PowerQueue) Push(x any) {
	item := x.(validatorWithPower)
	*pq = append(*pq, item)
}

func (pq *PowerQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}
