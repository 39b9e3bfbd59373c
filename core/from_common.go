package core

import "github.com/ethereum/go-ethereum/common"

// FromCommon converts a go-ethereum common.Address — the type a host
// integrating against an EVM chain already has on hand — into this
// engine's own Address, so senders/receivers/proxies can be keyed
// directly off on-chain accounts without a host-side conversion layer.
func FromCommon(a common.Address) Address {
	var out Address
	copy(out[:], a.Bytes())
	return out
}
