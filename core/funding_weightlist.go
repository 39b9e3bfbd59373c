package core

// weightList is the reimplementation the Design Notes invite: an explicit
// ordered set (an append-only slice of addresses plus a position index)
// instead of the source's intrusive sentinel-linked list threaded through a
// hash map. Same asymptotics — O(1) SetReceiverWeight/SetProxyWeight, O(1)
// amortised iteration step — and the same externally observable contract:
// insertion-time LIFO order, lazy pruning of zero-weight entries on
// iteration. Grounded on the id-keyed, mutex-free manager maps used
// throughout core/liquidity_pools.go (pools map[PoolID]*Pool) and
// core/escrow.go's lazily-created per-key records; weightList itself is not
// concurrency-safe and is only accessed under the owning Pool's lock.
type weightList struct {
	order []Address         // insertion order, oldest first
	pos   map[Address]int   // addr -> its (possibly stale) slot in order
	data  map[Address]*weightEntry
}

type weightEntry struct {
	ReceiverWeight uint32
	ProxyWeight    uint32
}

func newWeightList() *weightList {
	return &weightList{
		pos:  make(map[Address]int),
		data: make(map[Address]*weightEntry),
	}
}

func (wl *weightList) getOrCreate(addr Address) *weightEntry {
	if e, ok := wl.data[addr]; ok {
		return e
	}
	e := &weightEntry{}
	wl.data[addr] = e
	wl.pos[addr] = len(wl.order)
	wl.order = append(wl.order, addr)
	return e
}

// SetReceiverWeight attaches addr at the head of the list if not already
// linked and stores w in its receiver-weight field, returning the prior
// value. Rejects either sentinel address.
func (wl *weightList) SetReceiverWeight(addr Address, w uint32) (uint32, error) {
	if isSentinelAddress(addr) {
		return 0, ErrInvalidAddress
	}
	e := wl.getOrCreate(addr)
	prev := e.ReceiverWeight
	e.ReceiverWeight = w
	return prev, nil
}

// SetProxyWeight is the symmetric operation on the proxy-weight field.
func (wl *weightList) SetProxyWeight(addr Address, w uint32) (uint32, error) {
	if isSentinelAddress(addr) {
		return 0, ErrInvalidAddress
	}
	e := wl.getOrCreate(addr)
	prev := e.ProxyWeight
	e.ProxyWeight = w
	return prev, nil
}

// Get returns the current weight pair for addr without mutating the list.
func (wl *weightList) Get(addr Address) (rw, pw uint32, ok bool) {
	e, ok := wl.data[addr]
	if !ok {
		return 0, 0, false
	}
	return e.ReceiverWeight, e.ProxyWeight, true
}

// IsZeroed reports whether the list currently holds no live entry — either
// nothing was ever attached, or every attached entry has since been removed
// by a pruning iteration.
func (wl *weightList) IsZeroed() bool {
	return len(wl.data) == 0
}

// scan walks the list LIFO starting strictly before slot fromIdx (the
// "hint" of the previous step; pass len(order) to start from the newest
// entry). It silently skips orphaned slots left behind by a prior prune,
// and — when prune is true — deletes any live-but-zero-weight entry it
// encounters instead of returning it, mirroring the source's unlink-on-
// iterate behaviour.
func (wl *weightList) scan(fromIdx int, prune bool) (idx int, addr Address, rw, pw uint32, found bool) {
	i := fromIdx - 1
	for i >= 0 {
		a := wl.order[i]
		e, ok := wl.data[a]
		if !ok || wl.pos[a] != i {
			i--
			continue
		}
		if e.ReceiverWeight == 0 && e.ProxyWeight == 0 {
			if prune {
				delete(wl.data, a)
				delete(wl.pos, a)
			}
			i--
			continue
		}
		return i, a, e.ReceiverWeight, e.ProxyWeight, true
	}
	return -1, Address{}, 0, 0, false
}

// NextWeightPruning is an iterator step that also garbage-collects: it
// returns the next live, non-zero entry after hint, deleting any
// exhausted (both-weights-zero) entries it passes over. Returns
// RootAddress to signal end-of-list; the returned hint must be threaded
// into the following call.
func (wl *weightList) NextWeightPruning(hint int) (next Address, newHint int, rw, pw uint32) {
	idx, addr, rw, pw, found := wl.scan(hint, true)
	if !found {
		return RootAddress, 0, 0, 0
	}
	return addr, idx, rw, pw
}

// NextWeight is the read-only counterpart with identical visible output on
// an already-pruned list, but it never deletes an exhausted entry.
func (wl *weightList) NextWeight(hint int) (next Address, newHint int, rw, pw uint32) {
	idx, addr, rw, pw, found := wl.scan(hint, false)
	if !found {
		return RootAddress, 0, 0, 0
	}
	return addr, idx, rw, pw
}

// startHint is the hint value that begins an iteration from the newest
// (LIFO-first) entry.
func (wl *weightList) startHint() int { return len(wl.order) }

// Each calls fn for every live, non-zero entry in LIFO order without
// pruning. fn returning false stops the iteration early.
func (wl *weightList) Each(fn func(addr Address, rw, pw uint32) bool) {
	hint := wl.startHint()
	for {
		addr, next, rw, pw := wl.NextWeight(hint)
		if addr == RootAddress {
			return
		}
		if !fn(addr, rw, pw) {
			return
		}
		hint = next
	}
}

// EachPruning is Each's pruning counterpart, used by the streaming core
// whenever it walks a list as part of tearing down or rebuilding a stream
// (the natural point at which exhausted entries should be reclaimed).
func (wl *weightList) EachPruning(fn func(addr Address, rw, pw uint32) bool) {
	hint := wl.startHint()
	for {
		addr, next, rw, pw := wl.NextWeightPruning(hint)
		if addr == RootAddress {
			return
		}
		if !fn(addr, rw, pw) {
			return
		}
		hint = next
	}
}
