package blockmgr

import (
	"testing"
	"unsafe"

	"go.uber.org/mock/gomock"

	"github.com/orizon-lang/heapalloc/internal/blockmgr/providermock"
)

func newTestManager(t *testing.T, strategy Strategy) *Manager {
	t.Helper()
	m, err := NewManager(Params{
		Strategy:  strategy,
		ChunkSize: 4096,
		Provider:  NewMemProvider(4 << 20),
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func bytesAt(p unsafe.Pointer, n int) []byte {
	return unsafe.Slice((*byte)(p), n)
}

func fill(p unsafe.Pointer, n int, b byte) {
	data := bytesAt(p, n)
	for i := range data {
		data[i] = b
	}
}

func assertBytes(t *testing.T, p unsafe.Pointer, n int, b byte) {
	t.Helper()
	data := bytesAt(p, n)
	for i, got := range data {
		if got != b {
			t.Fatalf("byte %d = %#x, want %#x", i, got, b)
		}
	}
}

func requireCheckOK(t *testing.T, m *Manager) {
	t.Helper()
	if res := m.CheckHeap(false); !res.OK() {
		t.Fatalf("CheckHeap reported violations: %v", res.Errors)
	}
}

func TestManagerBothStrategies(t *testing.T) {
	for _, strategy := range []Strategy{StrategyNextFit, StrategySegregated} {
		t.Run(strategy.String(), func(t *testing.T) {
			testManagerScenarios(t, strategy)
		})
	}
}

// testManagerScenarios exercises the end-to-end scenarios from the
// allocator's testable-properties scenario list against both free-index
// strategies.
func testManagerScenarios(t *testing.T, strategy Strategy) {
	t.Run("alloc_free_restores_single_chunk", func(t *testing.T) {
		m := newTestManager(t, strategy)
		before := m.Stats().HeapSize

		p := m.Alloc(24)
		if p == nil {
			t.Fatal("Alloc(24) returned nil")
		}
		requireCheckOK(t, m)

		m.Free(p)
		requireCheckOK(t, m)
		if got := m.Stats().HeapSize; got != before {
			t.Fatalf("heap grew across alloc/free of a block within the initial chunk: %d -> %d", before, got)
		}
	})

	t.Run("middle_free_coalesces_with_prev", func(t *testing.T) {
		m := newTestManager(t, strategy)
		a := m.Alloc(16)
		b := m.Alloc(16)
		c := m.Alloc(16)
		if a == nil || b == nil || c == nil {
			t.Fatal("setup allocations failed")
		}
		m.Free(b)
		requireCheckOK(t, m)
		m.Free(a)
		requireCheckOK(t, m)
		_ = c
	})

	t.Run("freed_region_reused_without_growing_heap", func(t *testing.T) {
		m := newTestManager(t, strategy)
		p := m.Alloc(4096)
		if p == nil {
			t.Fatal("Alloc(4096) failed")
		}
		sizeBefore := m.Stats().HeapSize
		m.Free(p)
		q := m.Alloc(4096)
		if q == nil {
			t.Fatal("Alloc(4096) after free failed")
		}
		if got := m.Stats().HeapSize; got != sizeBefore {
			t.Fatalf("heap size changed reusing the just-freed region: %d -> %d", sizeBefore, got)
		}
		requireCheckOK(t, m)
	})

	t.Run("round_trip_preserves_payload", func(t *testing.T) {
		m := newTestManager(t, strategy)
		p := m.Alloc(100)
		if p == nil {
			t.Fatal("Alloc(100) failed")
		}
		fill(p, 100, 'A')
		assertBytes(t, p, 100, 'A')
		m.Free(p)
	})

	t.Run("realloc_preserves_prefix_on_grow", func(t *testing.T) {
		m := newTestManager(t, strategy)
		p := m.Alloc(100)
		if p == nil {
			t.Fatal("Alloc(100) failed")
		}
		fill(p, 100, 'A')
		q := m.Realloc(p, 200)
		if q == nil {
			t.Fatal("Realloc(100 -> 200) failed")
		}
		assertBytes(t, q, 100, 'A')
		requireCheckOK(t, m)
	})

	t.Run("realloc_preserves_prefix_on_shrink", func(t *testing.T) {
		m := newTestManager(t, strategy)
		p := m.Alloc(200)
		if p == nil {
			t.Fatal("Alloc(200) failed")
		}
		fill(p, 200, 'B')
		q := m.Realloc(p, 50)
		if q == nil {
			t.Fatal("Realloc(200 -> 50) failed")
		}
		assertBytes(t, q, 50, 'B')
		requireCheckOK(t, m)
	})

	t.Run("realloc_null_is_alloc", func(t *testing.T) {
		m := newTestManager(t, strategy)
		p := m.Realloc(nil, 64)
		if p == nil {
			t.Fatal("Realloc(nil, 64) should behave like Alloc(64)")
		}
	})

	t.Run("realloc_zero_frees_and_returns_nil", func(t *testing.T) {
		m := newTestManager(t, strategy)
		p := m.Alloc(64)
		if p == nil {
			t.Fatal("Alloc(64) failed")
		}
		if got := m.Realloc(p, 0); got != nil {
			t.Fatal("Realloc(p, 0) must return nil")
		}
		requireCheckOK(t, m)
	})

	t.Run("realloc_idempotent_when_already_right_size", func(t *testing.T) {
		m := newTestManager(t, strategy)
		p := m.Alloc(56)
		bp := m.h.addr(p)
		csize := m.h.sizeOf(bp)
		q := m.Realloc(p, csize-8)
		if q != p {
			t.Fatalf("Realloc to the current aligned size must be a no-op, got new pointer")
		}
	})

	t.Run("alloc_zero_returns_nil_without_mutation", func(t *testing.T) {
		m := newTestManager(t, strategy)
		before := m.Stats()
		if p := m.Alloc(0); p != nil {
			t.Fatal("Alloc(0) must return nil")
		}
		if m.Stats() != before {
			t.Fatal("Alloc(0) must not mutate allocator state")
		}
	})

	t.Run("alloc_one_byte_yields_minimum_block", func(t *testing.T) {
		m := newTestManager(t, strategy)
		p := m.Alloc(1)
		if p == nil {
			t.Fatal("Alloc(1) failed")
		}
		bp := m.h.addr(p)
		if got := m.h.sizeOf(bp); got != minBlockSize {
			t.Fatalf("Alloc(1) block size = %d, want %d", got, minBlockSize)
		}
	})

	t.Run("free_nil_is_noop", func(t *testing.T) {
		m := newTestManager(t, strategy)
		m.Free(nil) // must not panic
		requireCheckOK(t, m)
	})

	t.Run("large_alloc_placed_in_freed_region", func(t *testing.T) {
		m := newTestManager(t, strategy)
		a := m.Alloc(2000)
		b := m.Alloc(2000)
		if a == nil || b == nil {
			t.Fatal("setup allocations failed")
		}
		m.Free(a)
		c := m.Alloc(1500)
		if c == nil {
			t.Fatal("Alloc(1500) failed")
		}
		requireCheckOK(t, m)
		// b must be untouched.
		bBp := m.h.addr(b)
		if !m.h.isAllocated(bBp) {
			t.Fatal("b was disturbed by an unrelated allocation")
		}
	})

	t.Run("many_alloc_free_interleavings_stay_consistent", func(t *testing.T) {
		m := newTestManager(t, strategy)
		var live []unsafe.Pointer
		sizes := []uintptr{8, 16, 33, 64, 127, 255, 513, 1025, 2049, 4097}
		for round := 0; round < 3; round++ {
			for _, s := range sizes {
				p := m.Alloc(s)
				if p == nil {
					t.Fatalf("Alloc(%d) failed on round %d", s, round)
				}
				live = append(live, p)
				requireCheckOK(t, m)
			}
			for i := 0; i < len(live); i += 2 {
				m.Free(live[i])
			}
			requireCheckOK(t, m)
			next := live[:0]
			for i := 1; i < len(live); i += 2 {
				next = append(next, live[i])
			}
			live = next
		}
		for _, p := range live {
			m.Free(p)
		}
		requireCheckOK(t, m)
	})
}

func TestManagerRealloc_PA_NF_GrowAbsorbsRightNeighbor(t *testing.T) {
	m := newTestManager(t, StrategyNextFit)
	a := m.Alloc(32)
	b := m.Alloc(32)
	c := m.Alloc(32)
	_ = a
	_ = c
	m.Free(b)
	requireCheckOK(t, m)

	// a is prev-allocated; the freed b sits immediately to a's right.
	aBp := m.h.addr(a)
	origSize := m.h.sizeOf(aBp)
	fill(a, int(origSize-8), 'Z')
	grown := m.Realloc(a, uintptr(origSize-8)+16)
	if grown != a {
		t.Fatal("realloc growing into a free right neighbor should not need to relocate-copy")
	}
	assertBytes(t, grown, int(origSize-8), 'Z')
	requireCheckOK(t, m)
}

func TestManagerRealloc_PF_NA_GrowAbsorbsLeftNeighbor(t *testing.T) {
	m := newTestManager(t, StrategyNextFit)
	a := m.Alloc(64)
	b := m.Alloc(32)
	c := m.Alloc(32)
	_ = c
	m.Free(a)
	requireCheckOK(t, m)

	fill(b, 32, 'Y')
	grown := m.Realloc(b, 48)
	if grown == nil {
		t.Fatal("realloc should be able to grow by shrinking a free left neighbor")
	}
	assertBytes(t, grown, 32, 'Y')
	requireCheckOK(t, m)
}

func TestManagerRealloc_PF_NF_MergeBothNeighbors(t *testing.T) {
	m := newTestManager(t, StrategyNextFit)
	a := m.Alloc(64)
	b := m.Alloc(16)
	c := m.Alloc(64)
	m.Free(a)
	m.Free(c)
	requireCheckOK(t, m)

	fill(b, 16, 'X')
	grown := m.Realloc(b, 120)
	if grown == nil {
		t.Fatal("realloc should merge both free neighbors when there is room")
	}
	assertBytes(t, grown, 16, 'X')
	requireCheckOK(t, m)
}

func TestManagerReallocFallsBackToAllocCopyFree(t *testing.T) {
	m := newTestManager(t, StrategyNextFit)
	a := m.Alloc(32)
	b := m.Alloc(32) // pins a's right neighbor allocated
	_ = b
	fill(a, 32, 'Q')

	grown := m.Realloc(a, 10000) // far larger than any in-place path can satisfy
	if grown == nil {
		t.Fatal("fallback realloc should still succeed by growing the heap")
	}
	assertBytes(t, grown, 32, 'Q')
	requireCheckOK(t, m)
}

func TestManagerInitFailsOnProviderRefusal(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := providermock.NewMockProvider(ctrl)
	p.EXPECT().HeapLo().Return(unsafe.Pointer(nil)).AnyTimes()
	p.EXPECT().Extend(gomock.Any()).Return(false).AnyTimes()

	_, err := NewManager(Params{Provider: p})
	if err == nil {
		t.Fatal("NewManager must fail when the provider refuses every extension")
	}
}

func TestManagerAllocReturnsNilOnOOMWithoutMutation(t *testing.T) {
	backing := NewMemProvider(1 << 20)
	ctrl := gomock.NewController(t)
	p := providermock.NewMockProvider(ctrl)
	allowExtend := true
	p.EXPECT().Extend(gomock.Any()).DoAndReturn(func(n uintptr) bool {
		if !allowExtend {
			return false
		}
		return backing.Extend(n)
	}).AnyTimes()
	p.EXPECT().HeapLo().DoAndReturn(backing.HeapLo).AnyTimes()
	p.EXPECT().HeapHi().DoAndReturn(backing.HeapHi).AnyTimes()
	p.EXPECT().HeapSize().DoAndReturn(backing.HeapSize).AnyTimes()
	p.EXPECT().PageSize().DoAndReturn(backing.PageSize).AnyTimes()

	m, err := NewManager(Params{Provider: p, ChunkSize: 4096})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	before := m.Stats()

	allowExtend = false
	if got := m.Alloc(1 << 30); got != nil {
		t.Fatal("Alloc must return nil when the provider refuses to grow")
	}
	if m.Stats() != before {
		t.Fatal("a refused extension must not mutate allocator state")
	}
	requireCheckOK(t, m)
}
