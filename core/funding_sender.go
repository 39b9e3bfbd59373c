package core

import "math/big"

// Sender is the owner-addressed stream source of spec §3. Each non-zero
// proxy entry in its weight list costs ProxyWeightsCountMax against
// WeightCount (spec §3 attribute note), so WeightCount is tracked
// explicitly rather than derived from the weight list's live-entry count.
type Sender struct {
	Addr         Address
	StartTime    uint64
	StartBalance *big.Int
	WeightSum    uint32
	WeightCount  int
	AmtPerSec    *big.Int
	weights      *weightList
}

func newSender(addr Address) *Sender {
	return &Sender{
		Addr:         addr,
		StartBalance: bigZero(),
		AmtPerSec:    bigZero(),
		weights:      newWeightList(),
	}
}

// IsStreaming reports invariant §3.1: a sender streams only when
// weight_sum > 0, amt_per_sec >= weight_sum, and
// start_balance >= amt_per_sec - (amt_per_sec mod weight_sum).
func (s *Sender) IsStreaming() bool {
	if s.WeightSum == 0 {
		return false
	}
	weightSum := big.NewInt(int64(s.WeightSum))
	if s.AmtPerSec.Cmp(weightSum) < 0 {
		return false
	}
	mod := new(big.Int).Mod(s.AmtPerSec, weightSum)
	floor := new(big.Int).Sub(s.AmtPerSec, mod)
	return s.StartBalance.Cmp(floor) >= 0
}
