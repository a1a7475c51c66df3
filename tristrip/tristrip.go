// Package tristrip turns indexed triangle lists into triangle strips.
//
// Strips are grown greedily over shared edges with consistent winding. Strip
// seeds are chosen near recently emitted vertices first, then among the
// triangles with the fewest free neighbours, so isolated triangles do not get
// stranded. Every emitted strip uses the usual convention: triangle k is
// (k, k+1, k+2) for even k and (k+1, k, k+2) for odd k. A strip that has to
// start on an odd triangle is emitted with its first index doubled.
package tristrip

import (
	"github.com/pkg/errors"
)

type PrimitiveType int

const (
	TriangleList PrimitiveType = iota
	TriangleStrip
)

func (pt PrimitiveType) String() string {
	if pt == TriangleStrip {
		return "strip"
	}
	return "list"
}

type PrimitiveGroup struct {
	Type    PrimitiveType
	Indices []uint16
}

type Options struct {
	// size of the post transform vertex cache seeds try to stay in
	CacheSize int
	// join all strips into one group using degenerate triangles
	StitchStrips bool
	// join all strips into one group separated by RestartIndex
	UseRestart   bool
	RestartIndex uint16
	// strips with fewer triangles are emitted in a trailing triangle list
	MinStripSize int
}

func DefaultOptions() Options {
	return Options{
		CacheSize:    16,
		StitchStrips: true,
	}
}

var ErrBadIndexCount = errors.New("index count is not a multiple of 3")

type edge struct {
	from, to uint16
}

type edgeRef struct {
	tri   int
	third uint16
}

type builder struct {
	tris     [][3]uint16
	used     []bool
	mark     []int
	attempt  int
	edges    map[edge][]edgeRef
	vertTris map[uint16][]int

	cache     []uint16
	cacheSize int
}

type strip struct {
	indices []uint16
	odd     bool
	tris    []int
}

func (s *strip) triangles() int { return len(s.indices) - 2 }

// output returns indices in the standard convention.
func (s *strip) output() []uint16 {
	if s.odd {
		return append([]uint16{s.indices[0]}, s.indices...)
	}
	return append([]uint16(nil), s.indices...)
}

func newBuilder(indices []uint16, cacheSize int) *builder {
	b := &builder{
		edges:     make(map[edge][]edgeRef),
		vertTris:  make(map[uint16][]int),
		cacheSize: cacheSize,
	}
	for i := 0; i+2 < len(indices); i += 3 {
		p, q, r := indices[i], indices[i+1], indices[i+2]
		if p == q || q == r || r == p {
			continue
		}
		t := len(b.tris)
		b.tris = append(b.tris, [3]uint16{p, q, r})
		b.edges[edge{p, q}] = append(b.edges[edge{p, q}], edgeRef{t, r})
		b.edges[edge{q, r}] = append(b.edges[edge{q, r}], edgeRef{t, p})
		b.edges[edge{r, p}] = append(b.edges[edge{r, p}], edgeRef{t, q})
		for _, v := range [3]uint16{p, q, r} {
			b.vertTris[v] = append(b.vertTris[v], t)
		}
	}
	b.used = make([]bool, len(b.tris))
	b.mark = make([]int, len(b.tris))
	return b
}

func (b *builder) isFree(t int) bool {
	return !b.used[t] && b.mark[t] != b.attempt
}

func (b *builder) findTri(e edge) (int, uint16, bool) {
	for _, ref := range b.edges[e] {
		if b.isFree(ref.tri) {
			return ref.tri, ref.third, true
		}
	}
	return -1, 0, false
}

// grow extends seq forward, odd tells whether seq starts on an odd triangle.
func (b *builder) grow(seq []uint16, odd bool, tris []int) ([]uint16, []int) {
	parity := 0
	if odd {
		parity = 1
	}
	for {
		l := len(seq)
		u, v := seq[l-2], seq[l-1]
		e := edge{u, v}
		if (l-2+parity)%2 == 1 {
			e = edge{v, u}
		}
		t, third, ok := b.findTri(e)
		if !ok {
			return seq, tris
		}
		b.mark[t] = b.attempt
		tris = append(tris, t)
		seq = append(seq, third)
	}
}

func reversed(seq []uint16) []uint16 {
	r := make([]uint16, len(seq))
	for i, v := range seq {
		r[len(seq)-1-i] = v
	}
	return r
}

func (b *builder) tryStrip(t int, rotation int) *strip {
	b.attempt++
	tri := b.tris[t]
	seq := []uint16{tri[rotation], tri[(rotation+1)%3], tri[(rotation+2)%3]}
	b.mark[t] = b.attempt
	tris := []int{t}

	seq, tris = b.grow(seq, false, tris)
	odd := len(seq)%2 == 1
	seq, tris = b.grow(reversed(seq), odd, tris)
	return &strip{indices: seq, odd: odd, tris: tris}
}

func (b *builder) freeNeighbours(t int) int {
	n := 0
	tri := b.tris[t]
	for i := 0; i < 3; i++ {
		for _, ref := range b.edges[edge{tri[(i+1)%3], tri[i]}] {
			if !b.used[ref.tri] {
				n++
			}
		}
	}
	return n
}

func (b *builder) inCache(v uint16) bool {
	for _, c := range b.cache {
		if c == v {
			return true
		}
	}
	return false
}

func (b *builder) pushCache(v uint16) {
	if b.cacheSize <= 0 || b.inCache(v) {
		return
	}
	b.cache = append(b.cache, v)
	if len(b.cache) > b.cacheSize {
		b.cache = b.cache[1:]
	}
}

func (b *builder) pickSeed() int {
	best, bestHits, bestNeighbours := -1, 0, 0
	for i := len(b.cache) - 1; i >= 0; i-- {
		for _, t := range b.vertTris[b.cache[i]] {
			if b.used[t] {
				continue
			}
			hits := 0
			for _, v := range b.tris[t] {
				if b.inCache(v) {
					hits++
				}
			}
			nb := b.freeNeighbours(t)
			if best == -1 || hits > bestHits || (hits == bestHits && nb < bestNeighbours) {
				best, bestHits, bestNeighbours = t, hits, nb
			}
		}
	}
	if best != -1 {
		return best
	}
	for t := range b.tris {
		if b.used[t] {
			continue
		}
		nb := b.freeNeighbours(t)
		if best == -1 || nb < bestNeighbours {
			best, bestNeighbours = t, nb
			if nb == 0 {
				break
			}
		}
	}
	return best
}

func (b *builder) build() []*strip {
	var strips []*strip
	for remaining := len(b.tris); remaining > 0; {
		seed := b.pickSeed()
		var best *strip
		for r := 0; r < 3; r++ {
			if s := b.tryStrip(seed, r); best == nil || s.triangles() > best.triangles() {
				best = s
			}
		}
		for _, t := range best.tris {
			b.used[t] = true
		}
		for _, v := range best.indices {
			b.pushCache(v)
		}
		remaining -= len(best.tris)
		strips = append(strips, best)
	}
	return strips
}

func stitch(strips [][]uint16) []uint16 {
	var joined []uint16
	for _, s := range strips {
		if len(joined) != 0 {
			joined = append(joined, joined[len(joined)-1], s[0])
			if len(joined)%2 == 1 {
				joined = append(joined, s[0])
			}
		}
		joined = append(joined, s...)
	}
	return joined
}

// Generate converts a triangle list into primitive groups. Degenerate input
// triangles are dropped.
func Generate(indices []uint16, opts Options) ([]PrimitiveGroup, error) {
	if len(indices)%3 != 0 {
		return nil, errors.Wrapf(ErrBadIndexCount, "%d indices", len(indices))
	}
	b := newBuilder(indices, opts.CacheSize)

	var strips [][]uint16
	var list []uint16
	for _, s := range b.build() {
		if s.triangles() < opts.MinStripSize {
			list = append(list, StripTriangles(s.output())...)
		} else {
			strips = append(strips, s.output())
		}
	}

	var groups []PrimitiveGroup
	switch {
	case len(strips) == 0:
	case opts.StitchStrips:
		groups = append(groups, PrimitiveGroup{Type: TriangleStrip, Indices: stitch(strips)})
	case opts.UseRestart:
		var joined []uint16
		for i, s := range strips {
			if i != 0 {
				joined = append(joined, opts.RestartIndex)
			}
			joined = append(joined, s...)
		}
		groups = append(groups, PrimitiveGroup{Type: TriangleStrip, Indices: joined})
	default:
		for _, s := range strips {
			groups = append(groups, PrimitiveGroup{Type: TriangleStrip, Indices: s})
		}
	}
	if len(list) != 0 {
		groups = append(groups, PrimitiveGroup{Type: TriangleList, Indices: list})
	}
	return groups, nil
}

// StripTriangles expands a strip in the standard convention into a triangle
// list, skipping degenerate triangles.
func StripTriangles(s []uint16) []uint16 {
	var result []uint16
	for k := 0; k+2 < len(s); k++ {
		a, b, c := s[k], s[k+1], s[k+2]
		if k%2 == 1 {
			a, b = b, a
		}
		if a == b || b == c || c == a {
			continue
		}
		result = append(result, a, b, c)
	}
	return result
}
