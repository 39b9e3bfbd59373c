package core

import (
	"math/big"
	"sync"

	log "github.com/sirupsen/logrus"

	"fundingpool/pkg/config"
	"fundingpool/pkg/utils"
)

// PoolConfig parameterises a Pool. A zero CycleSecs defaults to 10, the
// literal value every worked scenario in spec §8 assumes.
type PoolConfig struct {
	// CycleSecs partitions time into numbered cycles; defaults to 10 — the
	// literal value every worked scenario in spec §8 assumes — when left
	// zero.
	CycleSecs uint64
	Assets    AssetTransferer
	Logger    *log.Logger
}

const defaultCycleSecs uint64 = 10

// DefaultConfig returns a PoolConfig with CycleSecs defaulted and an
// in-memory asset ledger wired in, suitable for tests and for hosts that
// have not yet connected a real token layer.
func DefaultConfig() PoolConfig {
	return PoolConfig{CycleSecs: defaultCycleSecs, Assets: NewInMemoryAssetLedger()}
}

// PoolConfigFromFile turns a loaded pkg/config.Config into a PoolConfig.
// Only Config.Pool.CycleSecs is carried over; the file's weight-bound
// fields are not read, as the engine's bounds are package constants.
// A zero CycleSecs in the file config still defaults
// in NewPool, so an all-zero Config.Pool section is valid input.
func PoolConfigFromFile(fc config.Config, assets AssetTransferer, logger *log.Logger) PoolConfig {
	return PoolConfig{CycleSecs: fc.Pool.CycleSecs, Assets: assets, Logger: logger}
}

// Pool is the top-level engine container: the mutex-guarded manager
// structurally grounded on the teacher's AMM singleton in
// core/liquidity_pools.go (id/address-keyed maps plus a *logrus.Logger),
// generalised here to an instance (not a package-level singleton) so a
// host can run more than one pool — e.g. one per asset.
type Pool struct {
	mu sync.RWMutex

	cfg       PoolConfig
	senders   map[Address]*Sender
	proxies   map[Address]*Proxy
	receivers map[Address]*Receiver

	assets AssetTransferer
	events *EventRecorder
	log    *log.Logger
}

// NewPool constructs a Pool. A zero CycleSecs is defaulted; a nil Assets
// collaborator is defaulted to an in-memory reference ledger.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.CycleSecs == 0 {
		cfg.CycleSecs = defaultCycleSecs
	}
	if cfg.Assets == nil {
		cfg.Assets = NewInMemoryAssetLedger()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Pool{
		cfg:       cfg,
		senders:   make(map[Address]*Sender),
		proxies:   make(map[Address]*Proxy),
		receivers: make(map[Address]*Receiver),
		assets:    cfg.Assets,
		events:    newEventRecorder(logger),
		log:       logger,
	}
}

// CycleSecs returns the pool's fixed cycle length.
func (p *Pool) CycleSecs() uint64 { return p.cfg.CycleSecs }

// Events returns the pool's event recorder, for hosts that want to assert
// on or forward emitted events.
func (p *Pool) Events() *EventRecorder { return p.events }

func finishedCycleAt(cycleSecs, now uint64) uint64 { return now / cycleSecs }

func (p *Pool) getOrCreateSender(addr Address) *Sender {
	s, ok := p.senders[addr]
	if !ok {
		s = newSender(addr)
		p.senders[addr] = s
	}
	return s
}

func (p *Pool) getOrCreateProxy(addr Address) *Proxy {
	pr, ok := p.proxies[addr]
	if !ok {
		pr = newProxy(addr)
		p.proxies[addr] = pr
	}
	return pr
}

func (p *Pool) getOrCreateReceiver(addr Address) *Receiver {
	r, ok := p.receivers[addr]
	if !ok {
		r = newReceiver(addr)
		p.receivers[addr] = r
	}
	return r
}

// Collect walks the receiver's ledger forward, transfers the collected
// amount to the receiver via the asset layer, and returns it. Atomic:
// a failed asset transfer leaves the receiver's ledger state untouched.
func (p *Pool) Collect(now uint64, receiver Address) (*big.Int, error) {
	if isSentinelAddress(receiver) {
		return nil, utils.Wrap(ErrInvalidAddress, "Collect")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	r, ok := p.receivers[receiver]
	if !ok || !r.Initialised() {
		return bigZero(), nil
	}
	finished := finishedCycleAt(p.cfg.CycleSecs, now)
	amount := r.Collectable(finished)
	if amount.Sign() == 0 {
		return amount, nil
	}
	ok2, err := p.assets.TransferToCaller(receiver, amount)
	if err != nil {
		return nil, utils.Wrap(err, "Collect: asset transfer")
	}
	if !ok2 {
		return nil, utils.Wrap(ErrAssetTransferFailed, "Collect")
	}
	r.Collect(finished)
	p.events.emit(Collected{Receiver: receiver, Amount: new(big.Int).Set(amount)})
	return amount, nil
}

// Collectable is Collect's pure-read counterpart.
func (p *Pool) Collectable(now uint64, receiver Address) *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.receivers[receiver]
	if !ok {
		return bigZero()
	}
	return r.Collectable(finishedCycleAt(p.cfg.CycleSecs, now))
}

// Withdrawable returns the sender's start_balance as recorded at its last
// update. It does not run stop_sending, so for a streaming sender it does
// not deduct what has streamed out since then, and a WithdrawAll made now
// can return less than this figure; callers that need
// the up-to-the-second figure should call UpdateSender with zero top-up/
// withdraw first.
func (p *Pool) Withdrawable(sender Address) *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.senders[sender]
	if !ok {
		return bigZero()
	}
	return new(big.Int).Set(s.StartBalance)
}

// GetAmtPerSec returns the sender's configured rate.
func (p *Pool) GetAmtPerSec(sender Address) *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.senders[sender]
	if !ok {
		return bigZero()
	}
	return new(big.Int).Set(s.AmtPerSec)
}

// GetAllReceivers returns a snapshot of sender's current weight-list
// entries (receiver-weight, proxy-weight pairs) in LIFO order.
func (p *Pool) GetAllReceivers(sender Address) []struct {
	Addr           Address
	ReceiverWeight uint32
	ProxyWeight    uint32
} {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.senders[sender]
	if !ok {
		return nil
	}
	var out []struct {
		Addr           Address
		ReceiverWeight uint32
		ProxyWeight    uint32
	}
	s.weights.Each(func(addr Address, rw, pw uint32) bool {
		out = append(out, struct {
			Addr           Address
			ReceiverWeight uint32
			ProxyWeight    uint32
		}{addr, rw, pw})
		return true
	})
	return out
}

// GetProxyWeights returns a snapshot of proxy's current receiver weights
// in LIFO order.
func (p *Pool) GetProxyWeights(proxy Address) []WeightUpdate {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pr, ok := p.proxies[proxy]
	if !ok {
		return nil
	}
	var out []WeightUpdate
	pr.weights.Each(func(addr Address, rw, _ uint32) bool {
		out = append(out, WeightUpdate{Addr: addr, Weight: rw})
		return true
	})
	return out
}

// GetSenderState and GetReceiverState are read-only debugging accessors —
// value-copy snapshots, never mutating, analogous to the teacher's
// Escrow_Get/Escrow_List in core/escrow.go. They are not part of spec §6's
// call surface; they exist for test assertions and host dashboards.
type SenderState struct {
	StartTime    uint64
	StartBalance *big.Int
	WeightSum    uint32
	WeightCount  int
	AmtPerSec    *big.Int
	Streaming    bool
}

func (p *Pool) GetSenderState(sender Address) (SenderState, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.senders[sender]
	if !ok {
		return SenderState{}, false
	}
	return SenderState{
		StartTime:    s.StartTime,
		StartBalance: new(big.Int).Set(s.StartBalance),
		WeightSum:    s.WeightSum,
		WeightCount:  s.WeightCount,
		AmtPerSec:    new(big.Int).Set(s.AmtPerSec),
		Streaming:    s.IsStreaming(),
	}, true
}

type ReceiverState struct {
	NextCollectedCycle uint64
	LastFundsPerCycle  *big.Int
	Initialised        bool
}

func (p *Pool) GetReceiverState(receiver Address) (ReceiverState, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.receivers[receiver]
	if !ok {
		return ReceiverState{}, false
	}
	return ReceiverState{
		NextCollectedCycle: r.NextCollectedCycle,
		LastFundsPerCycle:  new(big.Int).Set(r.LastFundsPerCycle),
		Initialised:        r.Initialised(),
	}, true
}
