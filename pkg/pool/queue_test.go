package pool

import (
	"context"
	"strconv"
	"testing"
)

func namedEntry(name string) entry {
	return entry{task: NewNamedTask(name, func(ctx context.Context) {}), id: name}
}

func TestRing_FIFO(t *testing.T) {
	r := newRing(3)

	if !r.empty() {
		t.Error("empty() should be true for a new ring")
	}

	// Keep the ring partly filled so front walks around the slot array
	pushed, popped := 0, 0
	for round := 0; round < 10; round++ {
		for !r.full() {
			r.push(namedEntry(strconv.Itoa(pushed)))
			pushed++
		}
		for i := 0; i < 2; i++ {
			if got, want := r.pop().id, strconv.Itoa(popped); got != want {
				t.Fatalf("pop() = %s, want %s", got, want)
			}
			popped++
		}
	}

	for !r.empty() {
		if got, want := r.pop().id, strconv.Itoa(popped); got != want {
			t.Fatalf("pop() = %s, want %s", got, want)
		}
		popped++
	}
	if popped != pushed {
		t.Errorf("popped %d entries, pushed %d", popped, pushed)
	}
}

func TestRing_PopOrderAcrossWrap(t *testing.T) {
	r := newRing(4)
	var got []string

	push := func(names ...string) {
		for _, n := range names {
			r.push(namedEntry(n))
		}
	}

	push("a", "b", "c")
	got = append(got, r.pop().id, r.pop().id)
	push("d", "e", "f") // tail wraps to slot 0
	for !r.empty() {
		got = append(got, r.pop().id)
	}

	want := []string{"a", "b", "c", "d", "e", "f"}
	if len(got) != len(want) {
		t.Fatalf("popped %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pop #%d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestRing_FullAndReset(t *testing.T) {
	r := newRing(2)
	r.push(namedEntry("a"))
	r.push(namedEntry("b"))

	if !r.full() {
		t.Error("full() should be true at capacity")
	}
	if r.capacity() != 2 {
		t.Errorf("capacity() = %d, want 2", r.capacity())
	}

	if n := r.reset(); n != 2 {
		t.Errorf("reset() = %d, want 2", n)
	}
	if !r.empty() || r.front != 0 {
		t.Errorf("after reset: len = %d, front = %d, want 0, 0", r.len, r.front)
	}
	for i, s := range r.slots {
		if s.task != nil {
			t.Errorf("slot %d still holds a task after reset", i)
		}
	}
}

func TestRing_PopClearsSlot(t *testing.T) {
	r := newRing(2)
	r.push(namedEntry("a"))
	r.pop()

	if r.slots[0].task != nil {
		t.Error("pop() should release the task reference")
	}
}
