package core

import "math/big"

// proxyContribution records one still-possibly-live incoming stream onto a
// proxy: a per-single-weight-unit rate and the time it is scheduled to end.
// Every sender-side start_sending/stop_sending posts one of these (signed:
// positive to begin contributing, negative to tear an earlier one down),
// so the net effect of reconfiguring a proxy's receiver list can be
// recomputed by re-splitting each outstanding entry at the reconfiguration
// moment instead of replaying the stale (this_cycle, next_cycle) pair it
// originally produced — which would be wrong once that pair's own start
// cycle has already finished. Entries past their end time are inert and
// pruned the next time SetProxyWeights runs.
type proxyContribution struct {
	ratePerWeight *big.Int
	endTime       uint64
}

// Proxy is the second-level fan-out of spec §3: a weight list (receiver
// weights only — its own "proxy weight" field is never populated) whose
// sum must equal ProxyWeightsSum once the proxy exists, plus the log of
// outstanding contributions used to re-split incoming rate across a new
// receiver set during reconfiguration (spec §4.4).
type Proxy struct {
	Addr     Address
	weights  *weightList
	contribs []proxyContribution
}

func newProxy(addr Address) *Proxy {
	return &Proxy{Addr: addr, weights: newWeightList()}
}

// Exists reports spec §3's proxy lifecycle rule: a proxy is considered
// non-existent until its weight list has first been set to a valid
// sum-of-weights configuration. A present proxy's weights always sum to
// exactly ProxyWeightsSum, so a non-zeroed weight list is sufficient proof.
func (p *Proxy) Exists() bool { return !p.weights.IsZeroed() }

// WeightSum returns the current sum of the proxy's receiver weights.
func (p *Proxy) WeightSum() uint32 {
	var sum uint32
	p.weights.Each(func(addr Address, rw, pw uint32) bool {
		sum += rw
		return true
	})
	return sum
}
