package core

import "math/big"

// SenderWeightsSumMax and friends are the public constants of the
// streaming engine, mirroring spec §6's constant table. CYCLE_SECS is not
// among them: it is fixed per pool at construction time
// (PoolConfig.CycleSecs).
const (
	SenderWeightsSumMax   = 10_000
	SenderWeightsCountMax = 100
	ProxyWeightsSum       = 100
	ProxyWeightsCountMax  = 10

	// MaxTimestamp caps any scheduled end-time: 2^64 - 3.
	MaxTimestamp uint64 = 1<<64 - 3
)

// WithdrawAll and AmtPerSecUnchanged are the two i128 sentinel values
// (2^128 - 1) used by UpdateSender to mean "withdraw everything available"
// and "leave amt_per_sec untouched" respectively. big.Int has no fixed
// width, so the sentinel is a plain package-level value compared with Cmp
// rather than a wraparound bit pattern.
var (
	WithdrawAll        = twoToThe128MinusOne()
	AmtPerSecUnchanged = twoToThe128MinusOne()
)

func twoToThe128MinusOne() *big.Int {
	v := new(big.Int).Lsh(big.NewInt(1), 128)
	return v.Sub(v, big.NewInt(1))
}

// isSentinel128 reports whether v equals the shared 2^128-1 sentinel value
// used by both WithdrawAll and AmtPerSecUnchanged.
func isSentinel128(v *big.Int) bool {
	return v != nil && v.Cmp(WithdrawAll) == 0
}

// RootAddress and EndAddress are the two reserved weight-list sentinels.
// They alias the teacher's AddressZero and the canonical "address one"
// respectively; neither may be used as a real sender/receiver/proxy key.
var (
	RootAddress = AddressZero
	EndAddress  = func() Address {
		var a Address
		a[len(a)-1] = 1
		return a
	}()
)

func isSentinelAddress(a Address) bool {
	return a == RootAddress || a == EndAddress
}

// WeightUpdate is one entry of the receiver-weight or proxy-weight list
// passed to UpdateSender / SetProxyWeights.
type WeightUpdate struct {
	Addr   Address
	Weight uint32
}

func bigZero() *big.Int { return big.NewInt(0) }

func isZeroBig(v *big.Int) bool { return v == nil || v.Sign() == 0 }
