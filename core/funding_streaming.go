package core

import (
	"math/big"

	"fundingpool/pkg/utils"
)

// splitAtTime implements the two-cycle split of spec §4.4/Design Notes: a
// delta of amplitude amp taking effect at second t is represented as a
// pair on cycle floor(t/CYCLE_SECS)+1 — this_cycle covering the remainder
// of t's cycle, next_cycle covering the elapsed portion. Splitting the two
// halves apart would break the receiver accumulation recurrence (§4.3),
// so every caller posts both components in the same call.
func splitAtTime(cycleSecs, t uint64, amp *big.Int) (key uint64, thisPart, nextPart *big.Int) {
	key = t/cycleSecs + 1
	mod := t % cycleSecs
	thisPart = new(big.Int).Mul(amp, big.NewInt(int64(cycleSecs-mod)))
	nextPart = new(big.Int).Mul(amp, big.NewInt(int64(mod)))
	return key, thisPart, nextPart
}

// projectReceiverStream posts amp at now and its negation at endTime onto
// recv's ledger — a stream that always self-terminates (spec invariant 4).
func projectReceiverStream(recv *Receiver, cycleSecs, now, endTime uint64, amp *big.Int) error {
	finished := finishedCycleAt(cycleSecs, now)
	k1, t1, n1 := splitAtTime(cycleSecs, now, amp)
	if err := recv.addDelta(k1, t1, n1, finished, amp.Sign() > 0); err != nil {
		return err
	}
	negAmp := new(big.Int).Neg(amp)
	k2, t2, n2 := splitAtTime(cycleSecs, endTime, negAmp)
	return recv.addDelta(k2, t2, n2, finished, negAmp.Sign() > 0)
}

// projectSenderContribution walks sender's pruned weight list, posting
// amp = sign * amtPerWeight * entryWeight onto each direct receiver and
// onto each proxy's own log plus — recursing once — onto the proxy's own
// receivers (spec §4.4: "a sender writes O(R + P*Q) receiver-delta
// pairs"). sign is +1 for start_sending, -1 for stop_sending.
func (p *Pool) projectSenderContribution(s *Sender, now, endTime uint64, amtPerWeight *big.Int, sign int64) error {
	var firstErr error
	s.weights.EachPruning(func(addr Address, rw, pw uint32) bool {
		if rw > 0 {
			amp := new(big.Int).Mul(amtPerWeight, big.NewInt(int64(rw)*sign))
			recv := p.getOrCreateReceiver(addr)
			if err := projectReceiverStream(recv, p.cfg.CycleSecs, now, endTime, amp); err != nil {
				firstErr = err
				return false
			}
			p.events.emit(SenderToReceiverUpdated{
				Sender: s.Addr, Receiver: addr, AmtDelta: new(big.Int).Set(amp), EndTime: endTime,
			})
		}
		if pw > 0 {
			proxy, ok := p.proxies[addr]
			if !ok {
				firstErr = utils.Wrap(ErrProxyMissing, "projectSenderContribution")
				return false
			}
			totalToProxy := new(big.Int).Mul(amtPerWeight, big.NewInt(int64(pw)*sign))
			perWeight := new(big.Int).Quo(totalToProxy, big.NewInt(ProxyWeightsSum))
			proxy.contribs = append(proxy.contribs, proxyContribution{
				ratePerWeight: new(big.Int).Set(perWeight), endTime: endTime,
			})
			var recurseErr error
			proxy.weights.Each(func(paddr Address, prw, _ uint32) bool {
				if prw == 0 {
					return true
				}
				ampR := new(big.Int).Mul(perWeight, big.NewInt(int64(prw)))
				rrecv := p.getOrCreateReceiver(paddr)
				if err := projectReceiverStream(rrecv, p.cfg.CycleSecs, now, endTime, ampR); err != nil {
					recurseErr = err
					return false
				}
				return true
			})
			if recurseErr != nil {
				firstErr = recurseErr
				return false
			}
			p.events.emit(SenderToProxyUpdated{
				Sender: s.Addr, Proxy: addr, AmtDelta: new(big.Int).Set(totalToProxy), EndTime: endTime,
			})
		}
		return true
	})
	return firstErr
}

// stopSending is step 1 of UpdateSender (spec §4.4): tears down the
// sender's present contribution if it is currently streaming.
func (p *Pool) stopSending(s *Sender, now uint64) error {
	if !s.IsStreaming() {
		return nil
	}
	weightSumBig := big.NewInt(int64(s.WeightSum))
	amtPerWeight := new(big.Int).Quo(s.AmtPerSec, weightSumBig)
	actualAmtPerSec := new(big.Int).Mul(amtPerWeight, weightSumBig)

	durUncapped := new(big.Int).Quo(s.StartBalance, actualAmtPerSec)
	endTimeUncapped := addClampUint64(s.StartTime, durUncapped)
	endTime := min(endTimeUncapped, MaxTimestamp)

	if endTime <= now {
		s.StartBalance = new(big.Int).Mod(s.StartBalance, actualAmtPerSec)
		return nil
	}

	elapsed := now - s.StartTime
	elapsedAmt := new(big.Int).Mul(big.NewInt(int64(elapsed)), actualAmtPerSec)
	s.StartBalance.Sub(s.StartBalance, elapsedAmt)

	return p.projectSenderContribution(s, now, endTime, amtPerWeight, -1)
}

// startSending is step 7 of UpdateSender: re-projects the (possibly just
// reconfigured) sender as a fresh contribution, only if invariant §3.1
// now holds.
func (p *Pool) startSending(s *Sender, now uint64) error {
	s.StartTime = now
	if !s.IsStreaming() {
		return nil
	}
	weightSumBig := big.NewInt(int64(s.WeightSum))
	amtPerWeight := new(big.Int).Quo(s.AmtPerSec, weightSumBig)
	actualAmtPerSec := new(big.Int).Mul(amtPerWeight, weightSumBig)

	durUncapped := new(big.Int).Quo(s.StartBalance, actualAmtPerSec)
	endTimeUncapped := addClampUint64(now, durUncapped)
	endTime := min(endTimeUncapped, MaxTimestamp)
	if endTime <= now {
		return nil
	}
	return p.projectSenderContribution(s, now, endTime, amtPerWeight, 1)
}

// addClampUint64 adds a non-negative *big.Int duration to a uint64 base,
// clamping to MaxTimestamp instead of overflowing a 64-bit register — the
// scenario the Design Notes call out: "a balance large enough to overflow
// 64-bit block-number arithmetic must still produce a correct end-time".
func addClampUint64(base uint64, dur *big.Int) uint64 {
	if dur.Sign() <= 0 {
		return base
	}
	sum := new(big.Int).Add(big.NewInt(0).SetUint64(base), dur)
	maxB := new(big.Int).SetUint64(MaxTimestamp)
	if sum.Cmp(maxB) >= 0 {
		return MaxTimestamp
	}
	return sum.Uint64()
}

// weightValidation stages the running weight sum and count of a batch so
// UpdateSender can validate every bound across the whole batch before
// mutating any state — the atomicity spec §7 requires ("no partial
// application").
type weightValidation struct {
	sum   uint32
	count int
}

// validateReceiverWeights checks SENDER_WEIGHTS_SUM_MAX and
// SENDER_WEIGHTS_COUNT_MAX across the full batch of receiver updates
// without mutating sender.weights, using an overlay to account for
// duplicate addresses appearing more than once in the same call.
func validateReceiverWeights(s *Sender, updates []WeightUpdate, v *weightValidation) error {
	overlay := make(map[Address]uint32, len(updates))
	for _, u := range updates {
		if isSentinelAddress(u.Addr) {
			return ErrInvalidAddress
		}
		prev, seen := overlay[u.Addr]
		if !seen {
			if rw, _, ok := s.weights.Get(u.Addr); ok {
				prev = rw
			}
		}
		if prev == 0 && u.Weight > 0 {
			v.count++
		} else if prev > 0 && u.Weight == 0 {
			v.count--
		}
		if u.Weight > SenderWeightsSumMax-(v.sum-prev) {
			return ErrWeightSumOverflow
		}
		v.sum = v.sum - prev + u.Weight
		overlay[u.Addr] = u.Weight
	}
	if v.sum > SenderWeightsSumMax {
		return ErrWeightSumOverflow
	}
	if v.count > SenderWeightsCountMax || v.count < 0 {
		return ErrTooManyReceivers
	}
	return nil
}

// validateProxyWeights is validateReceiverWeights' counterpart for the
// proxy-weight half of the update, spending PROXY_WEIGHTS_COUNT_MAX of
// weight_count per non-zero proxy entry (spec §4.4 step 6).
func (p *Pool) validateProxyWeights(s *Sender, updates []WeightUpdate, v *weightValidation) error {
	overlay := make(map[Address]uint32, len(updates))
	for _, u := range updates {
		if isSentinelAddress(u.Addr) {
			return ErrInvalidAddress
		}
		proxy, ok := p.proxies[u.Addr]
		if !ok || !proxy.Exists() {
			return ErrProxyMissing
		}
		if u.Weight%ProxyWeightsSum != 0 {
			return ErrProxyWeightNotMult
		}
		prev, seen := overlay[u.Addr]
		if !seen {
			if _, pw, ok := s.weights.Get(u.Addr); ok {
				prev = pw
			}
		}
		if prev == 0 && u.Weight > 0 {
			v.count += ProxyWeightsCountMax
		} else if prev > 0 && u.Weight == 0 {
			v.count -= ProxyWeightsCountMax
		}
		if u.Weight > SenderWeightsSumMax-(v.sum-prev) {
			return ErrWeightSumOverflow
		}
		v.sum = v.sum - prev + u.Weight
		overlay[u.Addr] = u.Weight
	}
	if v.sum > SenderWeightsSumMax {
		return ErrWeightSumOverflow
	}
	if v.count > SenderWeightsCountMax || v.count < 0 {
		return ErrTooManyReceivers
	}
	return nil
}

// UpdateSender is the pivotal operation of spec §4.4, executed in the
// strict sequence: stop_sending, top_up, withdraw, amt_per_sec, receiver
// updates, proxy updates, start_sending. All validation happens before
// any mutation (steps 5/6's bound checks are staged first), so a
// rejected update leaves every record — sender, receivers, proxies —
// exactly as it was (spec §7: atomic, no partial application).
func (p *Pool) UpdateSender(
	now uint64,
	sender Address,
	topUpAmt *big.Int,
	withdrawAmt *big.Int,
	amtPerSec *big.Int,
	receiverUpdates []WeightUpdate,
	proxyUpdates []WeightUpdate,
) (withdrawn *big.Int, err error) {
	if isSentinelAddress(sender) {
		return nil, utils.Wrap(ErrInvalidAddress, "UpdateSender")
	}
	if topUpAmt == nil {
		topUpAmt = bigZero()
	}
	if withdrawAmt == nil {
		withdrawAmt = bigZero()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.getOrCreateSender(sender)

	// Stage every bound check before mutating anything.
	v := weightValidation{sum: s.WeightSum, count: s.WeightCount}
	if err := validateReceiverWeights(s, receiverUpdates, &v); err != nil {
		return nil, utils.Wrap(err, "UpdateSender: receiver weights")
	}
	if err := p.validateProxyWeights(s, proxyUpdates, &v); err != nil {
		return nil, utils.Wrap(err, "UpdateSender: proxy weights")
	}

	var effectiveWithdraw *big.Int

	// 1. stop_sending
	if err := p.stopSending(s, now); err != nil {
		return nil, utils.Wrap(err, "UpdateSender: stop_sending")
	}

	// 2. top_up
	if topUpAmt.Sign() > 0 {
		ok, terr := p.assets.TransferToContract(sender, topUpAmt)
		if terr != nil {
			return nil, utils.Wrap(terr, "UpdateSender: top_up transfer")
		}
		if !ok {
			return nil, utils.Wrap(ErrAssetTransferFailed, "UpdateSender: top_up")
		}
		s.StartBalance.Add(s.StartBalance, topUpAmt)
	}

	// 3. withdraw
	if isSentinel128(withdrawAmt) {
		effectiveWithdraw = new(big.Int).Set(s.StartBalance)
	} else {
		effectiveWithdraw = new(big.Int).Set(withdrawAmt)
	}
	if effectiveWithdraw.Sign() > 0 {
		if effectiveWithdraw.Cmp(s.StartBalance) > 0 {
			return nil, utils.Wrap(ErrInsufficientFunds, "UpdateSender: withdraw")
		}
		ok, terr := p.assets.TransferToCaller(sender, effectiveWithdraw)
		if terr != nil {
			return nil, utils.Wrap(terr, "UpdateSender: withdraw transfer")
		}
		if !ok {
			return nil, utils.Wrap(ErrAssetTransferFailed, "UpdateSender: withdraw")
		}
		s.StartBalance.Sub(s.StartBalance, effectiveWithdraw)
	}

	// 4. amt_per_sec
	if !isSentinel128(amtPerSec) && amtPerSec != nil {
		s.AmtPerSec = new(big.Int).Set(amtPerSec)
	}

	// 5. receiver updates
	for _, u := range receiverUpdates {
		if _, err := s.weights.SetReceiverWeight(u.Addr, u.Weight); err != nil {
			return nil, utils.Wrap(err, "UpdateSender: apply receiver weight")
		}
	}

	// 6. proxy updates
	for _, u := range proxyUpdates {
		if _, err := s.weights.SetProxyWeight(u.Addr, u.Weight); err != nil {
			return nil, utils.Wrap(err, "UpdateSender: apply proxy weight")
		}
	}
	s.WeightSum = v.sum
	s.WeightCount = v.count

	// 7. start_sending
	if err := p.startSending(s, now); err != nil {
		return nil, utils.Wrap(err, "UpdateSender: start_sending")
	}

	p.events.emit(SenderUpdated{
		Sender: sender, Balance: new(big.Int).Set(s.StartBalance), AmtPerSec: new(big.Int).Set(s.AmtPerSec),
	})
	return effectiveWithdraw, nil
}
