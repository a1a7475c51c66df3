package convert

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"

	"github.com/mogaika/ninja_converter/ninja"
)

func TestVertexCacheNonOverlap(t *testing.T) {
	vc := NewVertexCache()
	type span struct{ start, end int }
	var spans []span
	for _, length := range []int{10, 1, 300, 0, 42, 7} {
		start, _, err := vc.Reserve(length)
		if err != nil {
			t.Fatalf("reserve %d: %v", length, err)
		}
		s := span{start, start + length}
		for _, o := range spans {
			if s.start < o.end && o.start < s.end {
				t.Errorf("range %v overlaps %v", s, o)
			}
		}
		spans = append(spans, s)
	}
	if vc.Active() != 6 {
		t.Errorf("%d active ranges; expected 6", vc.Active())
	}
}

func TestVertexCacheRandomSequences(t *testing.T) {
	type span struct{ start, end int }
	rnd := rand.New(rand.NewSource(0x6e6a))
	vc := NewVertexCache()
	for run := 0; run < 200; run++ {
		vc.Reset()
		active := make(map[int]span)
		for op := 0; op < 50; op++ {
			if len(active) != 0 && rnd.Intn(3) == 0 {
				for h := range active {
					if err := vc.Release(h); err != nil {
						t.Fatalf("run %d: release %d: %v", run, h, err)
					}
					delete(active, h)
					break
				}
				continue
			}
			length := 1 + rnd.Intn(3000)
			start, h, err := vc.Reserve(length)
			if errors.Cause(err) == ErrCacheExhausted {
				continue
			} else if err != nil {
				t.Fatalf("run %d: reserve %d: %v", run, length, err)
			}
			s := span{start, start + length}
			if s.end > ninja.MaxCacheIndex {
				t.Fatalf("run %d: range %v past cache end", run, s)
			}
			for oh, o := range active {
				if s.start < o.end && o.start < s.end {
					t.Fatalf("run %d: range %v overlaps %v of handle %d", run, s, o, oh)
				}
			}
			active[h] = s
		}

		for h := range active {
			if err := vc.Release(h); err != nil {
				t.Fatalf("run %d: release %d: %v", run, h, err)
			}
		}
		if start, _, err := vc.Reserve(1 + rnd.Intn(3000)); err != nil || start != 0 {
			t.Fatalf("run %d: reserve after full release: start %d, %v", run, start, err)
		}
	}
}

func TestVertexCacheReuse(t *testing.T) {
	vc := NewVertexCache()
	_, h0, _ := vc.Reserve(10)
	if _, _, err := vc.Reserve(20); err != nil {
		t.Fatal(err)
	}
	if err := vc.Release(h0); err != nil {
		t.Fatal(err)
	}

	start, _, err := vc.Reserve(5)
	if err != nil || start != 0 {
		t.Errorf("reserve into released space: start %d, %v; expected 0", start, err)
	}
	// does not fit into 5..10, goes after the 10..30 range
	if start, _, _ := vc.Reserve(10); start != 30 {
		t.Errorf("start %d; expected 30", start)
	}

	vc.Reset()
	if start, _, _ := vc.Reserve(1); start != 0 {
		t.Errorf("start %d after reset; expected 0", start)
	}
}

func TestVertexCacheExhausted(t *testing.T) {
	vc := NewVertexCache()
	if _, _, err := vc.Reserve(ninja.MaxCacheIndex + 1); errors.Cause(err) != ErrCacheExhausted {
		t.Errorf("oversized reserve error %v; expected %v", err, ErrCacheExhausted)
	}
	if _, _, err := vc.Reserve(ninja.MaxCacheIndex); err != nil {
		t.Fatalf("full reserve: %v", err)
	}
	if _, _, err := vc.Reserve(1); errors.Cause(err) != ErrCacheExhausted {
		t.Errorf("reserve in full cache error %v; expected %v", err, ErrCacheExhausted)
	}
}

func TestVertexCacheUnknownHandle(t *testing.T) {
	vc := NewVertexCache()
	_, h, _ := vc.Reserve(4)
	if err := vc.Release(h + 1); errors.Cause(err) != ErrUnknownCacheHandle {
		t.Errorf("error %v; expected %v", err, ErrUnknownCacheHandle)
	}
	if err := vc.Release(h); err != nil {
		t.Errorf("release: %v", err)
	}
	if err := vc.Release(h); errors.Cause(err) != ErrUnknownCacheHandle {
		t.Errorf("double release error %v; expected %v", err, ErrUnknownCacheHandle)
	}
}
