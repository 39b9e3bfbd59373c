package core

import "math/big"

// Receiver is a terminal sink address: a cycle-keyed delta ledger plus the
// running accumulator collection lazily evaluates forward from (spec §4.3).
type Receiver struct {
	Addr               Address
	NextCollectedCycle uint64 // 0 iff never initialised
	LastFundsPerCycle  *big.Int
	ledger             *deltaLog
}

func newReceiver(addr Address) *Receiver {
	return &Receiver{
		Addr:              addr,
		LastFundsPerCycle: bigZero(),
		ledger:            newDeltaLog(),
	}
}

// Initialised reports whether the receiver has ever been touched by a
// positive delta or named in a proxy's weight list.
func (r *Receiver) Initialised() bool { return r.NextCollectedCycle != 0 }

// ensureInitialised sets next_collected_cycle on first touch, per spec
// §4.3: "the first time a positive delta is posted to it or it is named by
// a proxy's weight list, whichever comes first".
func (r *Receiver) ensureInitialised(finishedCycle uint64) {
	if !r.Initialised() {
		r.NextCollectedCycle = finishedCycle + 1
	}
}

// addDelta posts a signed (this_cycle, next_cycle) pair at the given cycle
// key. finishedCycle is the caller's current finished-cycle count, used
// only to decide first-touch initialisation — it has no bearing on
// whether the posting itself is accepted.
func (r *Receiver) addDelta(cycle uint64, dThis, dNext *big.Int, finishedCycle uint64, positive bool) error {
	if positive {
		r.ensureInitialised(finishedCycle)
	}
	return r.ledger.AddToDelta(cycle, dThis, dNext)
}

// walk performs the §4.3 accumulation recurrence from next_collected_cycle
// through finishedCycle inclusive. When mutate is true it commits the new
// last_funds_per_cycle / next_collected_cycle and deletes every consumed
// entry; otherwise it is a pure read (Collectable()).
func (r *Receiver) walk(finishedCycle uint64, mutate bool) *big.Int {
	collected := bigZero()
	if !r.Initialised() {
		return collected
	}
	if r.NextCollectedCycle > finishedCycle {
		return collected
	}

	funds := new(big.Int).Set(r.LastFundsPerCycle)
	toDelete := make([]uint64, 0, finishedCycle-r.NextCollectedCycle+1)
	for c := r.NextCollectedCycle; c <= finishedCycle; c++ {
		if prevThis, prevNext, ok := r.ledger.Get(c - 1); ok {
			funds.Add(funds, prevNext)
			_ = prevThis // this_cycle of c-1 was already folded in at iteration c-1
		}
		if thisCycle, _, ok := r.ledger.Get(c); ok {
			funds.Add(funds, thisCycle)
		}
		collected.Add(collected, funds)
		toDelete = append(toDelete, c-1)
	}

	if mutate {
		r.LastFundsPerCycle = funds
		r.NextCollectedCycle = finishedCycle + 1
		for _, c := range toDelete {
			r.ledger.Delete(c)
		}
	}
	return collected
}

// Collectable returns the amount currently owed to the receiver without
// mutating any state.
func (r *Receiver) Collectable(finishedCycle uint64) *big.Int {
	return r.walk(finishedCycle, false)
}

// Collect performs the walk, committing its side effects, and returns the
// collected amount (invariantly non-negative).
func (r *Receiver) Collect(finishedCycle uint64) *big.Int {
	return r.walk(finishedCycle, true)
}
