package core

import (
	"math/big"
	"sync"
)

// AssetTransferer is the §6 external collaborator boundary: the token/
// native-value layer this engine treats as out of scope (spec §1) but
// must call into on top-up/withdraw/collect. Grounded on the teacher's
// transferToken helper in core/liquidity_pools.go and the
// Transfer(ctx, AssetRef{...}) call in core/escrow.go — both delegate to
// an injected ledger rather than a concrete token implementation.
type AssetTransferer interface {
	// TransferToContract pulls amount from from into the pool's custody
	// (a top-up). Returns false, nil on a collaborator-reported failure
	// that is not itself a Go error.
	TransferToContract(from Address, amount *big.Int) (bool, error)
	// TransferToCaller pays amount out of the pool's custody to to (a
	// withdrawal or a collection).
	TransferToCaller(to Address, amount *big.Int) (bool, error)
}

// InMemoryAssetLedger is a reference AssetTransferer backed by an
// in-process balance map. It exists for tests and for hosts that have not
// yet wired a real token layer; production engines inject their own
// implementation — the pool never assumes this one.
type InMemoryAssetLedger struct {
	mu      sync.Mutex
	custody *big.Int
	bal     map[Address]*big.Int
}

// NewInMemoryAssetLedger constructs a ledger with empty custody where every
// address starts with a zero balance; tests fund senders outside the pool's
// own StartBalance accounting with Credit.
func NewInMemoryAssetLedger() *InMemoryAssetLedger {
	return &InMemoryAssetLedger{custody: bigZero(), bal: make(map[Address]*big.Int)}
}

func (l *InMemoryAssetLedger) balanceOf(addr Address) *big.Int {
	if b, ok := l.bal[addr]; ok {
		return b
	}
	b := bigZero()
	l.bal[addr] = b
	return b
}

// Credit gives addr additional off-pool balance, used by tests to fund a
// sender before it calls TransferToContract via UpdateSender's top-up.
func (l *InMemoryAssetLedger) Credit(addr Address, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balanceOf(addr).Add(l.balanceOf(addr), amount)
}

func (l *InMemoryAssetLedger) TransferToContract(from Address, amount *big.Int) (bool, error) {
	if amount.Sign() == 0 {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	bal := l.balanceOf(from)
	if bal.Cmp(amount) < 0 {
		return false, nil
	}
	bal.Sub(bal, amount)
	l.custody.Add(l.custody, amount)
	return true, nil
}

func (l *InMemoryAssetLedger) TransferToCaller(to Address, amount *big.Int) (bool, error) {
	if amount.Sign() == 0 {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.custody.Cmp(amount) < 0 {
		return false, nil
	}
	l.custody.Sub(l.custody, amount)
	l.balanceOf(to).Add(l.balanceOf(to), amount)
	return true, nil
}

// BalanceOf returns addr's current off-pool balance, for test assertions.
func (l *InMemoryAssetLedger) BalanceOf(addr Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(big.Int).Set(l.balanceOf(addr))
}
