package core

// Address is a 20-byte account identifier — every sender, receiver and
// proxy key in this engine, reused verbatim from the teacher's own
// account-identifier type rather than redefined.
type Address [20]byte

// min is the unsigned-timestamp minimum used to clamp a projected end-time
// against MaxTimestamp (funding_streaming.go).
func min(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
