package core

import "errors"

// The closed error set of spec §7. Every public Pool method that can fail
// returns one of these, wrapped with call-site context via utils.Wrap so a
// caller can still errors.Is against the sentinel.
var (
	ErrInvalidAddress        = errors.New("funding: invalid address")
	ErrInvalidCycle          = errors.New("funding: invalid cycle")
	ErrInsufficientFunds     = errors.New("funding: insufficient funds")
	ErrWeightSumOverflow     = errors.New("funding: weight sum overflow")
	ErrTooManyReceivers      = errors.New("funding: too many receivers")
	ErrProxyMissing          = errors.New("funding: proxy does not exist")
	ErrProxyWeightNotMult    = errors.New("funding: proxy weight not a multiple of PROXY_WEIGHTS_SUM")
	ErrProxyBadSum           = errors.New("funding: proxy weights do not sum to PROXY_WEIGHTS_SUM")
	ErrProxyTooManyReceivers = errors.New("funding: proxy has too many receivers")
	ErrAssetTransferFailed   = errors.New("funding: asset transfer failed")
)
