package convert

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/mogaika/ninja_converter/ninja"
)

var (
	ErrCacheExhausted     = errors.New("no space in vertex cache")
	ErrUnknownCacheHandle = errors.New("unknown vertex cache handle")
)

type cacheEntry struct {
	start  int
	length int
	handle int
}

func (e cacheEntry) end() int { return e.start + e.length }

// VertexCache hands out ranges of the shared vertex cache. Ranges stay busy
// until released, released space is reused first-fit from the lowest slot.
type VertexCache struct {
	entries    []cacheEntry // sorted by start
	nextHandle int
}

func NewVertexCache() *VertexCache {
	return &VertexCache{}
}

func (vc *VertexCache) Reset() {
	vc.entries = vc.entries[:0]
	vc.nextHandle = 0
}

func (vc *VertexCache) Reserve(length int) (start int, handle int, err error) {
	if length < 0 {
		return 0, 0, errors.Errorf("negative reserve length %d", length)
	}
	for _, e := range vc.entries {
		if e.start < start+length && e.end() > start {
			start = e.end()
		} else if e.start >= start+length {
			break
		}
	}
	if start+length > ninja.MaxCacheIndex {
		return 0, 0, errors.Wrapf(ErrCacheExhausted, "%d vertices from slot %d", length, start)
	}

	entry := cacheEntry{start: start, length: length, handle: vc.nextHandle}
	vc.nextHandle++
	i := sort.Search(len(vc.entries), func(i int) bool { return vc.entries[i].start > start })
	vc.entries = append(vc.entries, cacheEntry{})
	copy(vc.entries[i+1:], vc.entries[i:])
	vc.entries[i] = entry
	return start, entry.handle, nil
}

func (vc *VertexCache) Release(handle int) error {
	for i, e := range vc.entries {
		if e.handle == handle {
			vc.entries = append(vc.entries[:i], vc.entries[i+1:]...)
			return nil
		}
	}
	return errors.Wrapf(ErrUnknownCacheHandle, "handle %d", handle)
}

// Active returns the number of held ranges.
func (vc *VertexCache) Active() int { return len(vc.entries) }
