package core

import "testing"

func addrN(n byte) Address {
	var a Address
	a[len(a)-1] = n
	a[len(a)-2] = 0xA0
	return a
}

func TestWeightListLIFOOrder(t *testing.T) {
	wl := newWeightList()
	a, b, c := addrN(1), addrN(2), addrN(3)
	if _, err := wl.SetReceiverWeight(a, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := wl.SetReceiverWeight(b, 1); err != nil {
		t.Fatal(err)
	}
	if _, err := wl.SetReceiverWeight(c, 1); err != nil {
		t.Fatal(err)
	}

	var got []Address
	wl.Each(func(addr Address, rw, pw uint32) bool {
		got = append(got, addr)
		return true
	})
	want := []Address{c, b, a}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %v want %v", i, got, want)
		}
	}
}

func TestWeightListRejectsSentinels(t *testing.T) {
	wl := newWeightList()
	if _, err := wl.SetReceiverWeight(RootAddress, 1); err != ErrInvalidAddress {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
	if _, err := wl.SetProxyWeight(EndAddress, 1); err != ErrInvalidAddress {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestWeightListPruning(t *testing.T) {
	wl := newWeightList()
	a, b, c := addrN(1), addrN(2), addrN(3)
	wl.SetReceiverWeight(a, 1)
	wl.SetReceiverWeight(b, 1)
	wl.SetReceiverWeight(c, 1)

	// Zero out b; a pruning iteration should unlink it permanently.
	wl.SetReceiverWeight(b, 0)

	var got []Address
	wl.EachPruning(func(addr Address, rw, pw uint32) bool {
		got = append(got, addr)
		return true
	})
	want := []Address{c, a}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("pruned order mismatch: got %v want %v", got, want)
	}

	if _, _, ok := wl.Get(b); ok {
		t.Fatal("expected b to be pruned away")
	}

	// A second pruning pass should see the same (now stable) set.
	got = nil
	wl.EachPruning(func(addr Address, rw, pw uint32) bool {
		got = append(got, addr)
		return true
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 entries after second prune, got %v", got)
	}
}

func TestWeightListIsZeroed(t *testing.T) {
	wl := newWeightList()
	if !wl.IsZeroed() {
		t.Fatal("fresh list should be zeroed")
	}
	a := addrN(1)
	wl.SetReceiverWeight(a, 5)
	if wl.IsZeroed() {
		t.Fatal("list with a live entry should not be zeroed")
	}
	wl.SetReceiverWeight(a, 0)
	if wl.IsZeroed() {
		t.Fatal("list should not report zeroed until a pruning iteration removes the entry")
	}
	wl.EachPruning(func(Address, uint32, uint32) bool { return true })
	if !wl.IsZeroed() {
		t.Fatal("list should be zeroed after pruning removes the only entry")
	}
}

func TestWeightListReSetAfterPrune(t *testing.T) {
	wl := newWeightList()
	a := addrN(1)
	wl.SetReceiverWeight(a, 1)
	wl.SetReceiverWeight(a, 0)
	wl.EachPruning(func(Address, uint32, uint32) bool { return true })
	prev, err := wl.SetReceiverWeight(a, 9)
	if err != nil {
		t.Fatal(err)
	}
	if prev != 0 {
		t.Fatalf("expected prev weight 0 after prune+reinsert, got %d", prev)
	}
	rw, _, ok := wl.Get(a)
	if !ok || rw != 9 {
		t.Fatalf("expected re-inserted weight 9, got %d ok=%v", rw, ok)
	}
}
