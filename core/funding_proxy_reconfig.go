package core

import (
	"math/big"

	"fundingpool/pkg/utils"
)

// SetProxyWeights reconfigures a proxy's receiver list with immediate,
// cycle-aligned effect (spec §4.4). Every outstanding contribution the
// proxy is currently carrying — one per sender start_sending/stop_sending
// call that has touched it and not yet reached its scheduled end time — is
// re-split at `now`: a fresh stop is posted against the OLD receiver list
// and a fresh start against the NEW one, exactly the way a sender's own
// stop_sending/start_sending pair works (funding_streaming.go). This is
// what makes reconfiguring correct regardless of whether the
// contribution's original start cycle has already finished: replaying the
// stale (this_cycle, next_cycle) pair it originally produced would not be,
// since that pair's own "start" half is long since consumed once its
// cycle is in the past (Design Notes' ambiguity #3 — see DESIGN.md).
// Every bound (PROXY_WEIGHTS_SUM, PROXY_WEIGHTS_COUNT_MAX) is validated
// against the prospective new list before any receiver ledger is touched,
// so a rejected reconfiguration is a pure no-op.
func (p *Pool) SetProxyWeights(now uint64, proxyAddr Address, updates []WeightUpdate) error {
	if isSentinelAddress(proxyAddr) {
		return utils.Wrap(ErrInvalidAddress, "SetProxyWeights")
	}
	for _, u := range updates {
		if isSentinelAddress(u.Addr) {
			return utils.Wrap(ErrInvalidAddress, "SetProxyWeights")
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	proxy := p.getOrCreateProxy(proxyAddr)

	// Stage the prospective new weight map and validate its bounds before
	// mutating anything.
	overlay := make(map[Address]uint32)
	proxy.weights.Each(func(addr Address, rw, _ uint32) bool {
		overlay[addr] = rw
		return true
	})
	for _, u := range updates {
		overlay[u.Addr] = u.Weight
	}
	var newSum uint32
	var newCount int
	for _, w := range overlay {
		if w > 0 {
			newSum += w
			newCount++
		}
	}
	if newCount > ProxyWeightsCountMax {
		return utils.Wrap(ErrProxyTooManyReceivers, "SetProxyWeights")
	}
	if newSum != ProxyWeightsSum {
		return utils.Wrap(ErrProxyBadSum, "SetProxyWeights")
	}

	// Snapshot the OLD (pre-mutation) live receiver list.
	type weightedAddr struct {
		addr Address
		w    uint32
	}
	var oldList []weightedAddr
	proxy.weights.EachPruning(func(addr Address, rw, _ uint32) bool {
		if rw > 0 {
			oldList = append(oldList, weightedAddr{addr, rw})
		}
		return true
	})

	// Only outstanding (not-yet-ended) contributions carry any future
	// effect; ones whose end time has already passed are inert.
	active := make([]proxyContribution, 0, len(proxy.contribs))
	for _, c := range proxy.contribs {
		if c.endTime > now {
			active = append(active, c)
		}
	}
	proxy.contribs = active

	splitOnto := func(addr Address, rate *big.Int, endTime uint64) error {
		recv := p.getOrCreateReceiver(addr)
		return projectReceiverStream(recv, p.cfg.CycleSecs, now, endTime, rate)
	}

	// Stop every outstanding contribution against the OLD receiver list.
	for _, c := range active {
		for _, e := range oldList {
			rate := new(big.Int).Mul(c.ratePerWeight, big.NewInt(-int64(e.w)))
			if err := splitOnto(e.addr, rate, c.endTime); err != nil {
				return utils.Wrap(err, "SetProxyWeights: stop old")
			}
		}
	}

	// Mutate the receiver list itself.
	for _, u := range updates {
		if _, err := proxy.weights.SetReceiverWeight(u.Addr, u.Weight); err != nil {
			return utils.Wrap(err, "SetProxyWeights: apply")
		}
	}

	var newList []weightedAddr
	for addr, w := range overlay {
		if w > 0 {
			newList = append(newList, weightedAddr{addr, w})
		}
	}

	// A receiver named with a non-zero weight is initialised now, unless an
	// earlier positive delta already did so (funding_receiver.go).
	finished := finishedCycleAt(p.cfg.CycleSecs, now)
	for _, e := range newList {
		p.getOrCreateReceiver(e.addr).ensureInitialised(finished)
	}

	// Start every outstanding contribution against the NEW receiver list.
	for _, c := range active {
		for _, e := range newList {
			rate := new(big.Int).Mul(c.ratePerWeight, big.NewInt(int64(e.w)))
			if err := splitOnto(e.addr, rate, c.endTime); err != nil {
				return utils.Wrap(err, "SetProxyWeights: start new")
			}
		}
	}

	for _, u := range updates {
		p.events.emit(ProxyToReceiverUpdated{Proxy: proxyAddr, Receiver: u.Addr, Weight: u.Weight})
	}
	return nil
}
