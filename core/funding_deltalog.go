package core

import "math/big"

// deltaLog is a sparse, cycle-keyed log of (this_cycle, next_cycle) signed
// delta pairs (spec §4.2), backing a receiver's cycle ledger
// (funding_receiver.go). Unlike weightList, nothing reads this structure
// in insertion order — Receiver.walk always addresses it by explicit
// cycle number — so it is a plain map rather than weightList's
// ordered-set-over-map.
type deltaLog struct {
	data map[uint64]*deltaEntry
}

type deltaEntry struct {
	ThisCycle *big.Int
	NextCycle *big.Int
}

func newDeltaLog() *deltaLog {
	return &deltaLog{data: make(map[uint64]*deltaEntry)}
}

func (dl *deltaLog) getOrCreate(cycle uint64) *deltaEntry {
	if e, ok := dl.data[cycle]; ok {
		return e
	}
	e := &deltaEntry{ThisCycle: bigZero(), NextCycle: bigZero()}
	dl.data[cycle] = e
	return e
}

// AddToDelta creates the cycle's entry if absent, otherwise adds dThis/dNext
// componentwise. cycle must lie strictly in (0, 2^64-1).
func (dl *deltaLog) AddToDelta(cycle uint64, dThis, dNext *big.Int) error {
	if cycle == 0 || cycle == ^uint64(0) {
		return ErrInvalidCycle
	}
	e := dl.getOrCreate(cycle)
	if dThis != nil {
		e.ThisCycle.Add(e.ThisCycle, dThis)
	}
	if dNext != nil {
		e.NextCycle.Add(e.NextCycle, dNext)
	}
	return nil
}

// Get returns the raw delta pair stored for cycle.
func (dl *deltaLog) Get(cycle uint64) (thisCycle, nextCycle *big.Int, ok bool) {
	e, ok := dl.data[cycle]
	if !ok {
		return nil, nil, false
	}
	return e.ThisCycle, e.NextCycle, true
}

// Delete removes cycle's entry outright, used by the receiver ledger once
// both of its components have been folded into last_funds_per_cycle.
func (dl *deltaLog) Delete(cycle uint64) {
	delete(dl.data, cycle)
}
