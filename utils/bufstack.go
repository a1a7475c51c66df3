package utils

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// BufStack is a cursor over a byte buffer that remembers sub buffers carved
// from it, so decoded layout can be printed as a tree.
type BufStack struct {
	parent         *BufStack
	childs         []*BufStack
	buf            []byte
	relativeOffset int
	absoluteOffset int
	size           int
	pos            int
	kind           string
	name           string
}

func NewBufStack(kind string, b []byte) *BufStack {
	return &BufStack{
		buf:  b,
		size: len(b),
		kind: kind,
	}
}

func (bs *BufStack) addChild(childBs *BufStack) {
	index := sort.Search(len(bs.childs), func(i int) bool {
		return bs.childs[i].relativeOffset > childBs.relativeOffset
	})
	bs.childs = append(bs.childs, childBs)
	copy(bs.childs[index+1:], bs.childs[index:])
	bs.childs[index] = childBs
}

// SubBuf carves child buffer at offset, size limited by SetSize.
func (bs *BufStack) SubBuf(kind string, offset int) *BufStack {
	childBs := &BufStack{
		parent:         bs,
		relativeOffset: offset,
		absoluteOffset: bs.absoluteOffset + offset,
		kind:           kind,
		buf:            bs.buf[offset:],
	}
	bs.addChild(childBs)
	return childBs
}

func (bs *BufStack) SetName(name string) *BufStack {
	bs.name = name
	return bs
}

func (bs *BufStack) SetSize(size int) *BufStack {
	bs.size = size
	return bs
}

func (bs *BufStack) Name() string { return bs.name }
func (bs *BufStack) Size() int { return bs.size }
func (bs *BufStack) Kind() string { return bs.kind }
func (bs *BufStack) Parent() *BufStack { return bs.parent }
func (bs *BufStack) RelativeOffset() int { return bs.relativeOffset }
func (bs *BufStack) AbsoluteOffset() int { return bs.absoluteOffset }
func (bs *BufStack) Pos() int { return bs.pos }
func (bs *BufStack) SetPos(pos int) { bs.pos = pos }
func (bs *BufStack) Remaining() int { return bs.limit() - bs.pos }

func (bs *BufStack) String() string {
	return fmt.Sprintf("buf<%v>(%v)[o:0x%x,s:0x%x,ao:0x%x,ae:0x%x]",
		bs.kind, bs.name, bs.relativeOffset, bs.size, bs.absoluteOffset, bs.absoluteOffset+bs.size)
}

func (bs *BufStack) StringChain() string {
	s := bs.String()
	if bs.parent != nil {
		s += fmt.Sprintf("::%s", bs.parent.String())
	}
	return s
}

func (bs *BufStack) stringTree(pad int) string {
	sPad := ""
	for i := 0; i < pad; i++ {
		sPad += ".  "
	}
	s := sPad + bs.String() + "\n"
	pos := 0
	for i, child := range bs.childs {
		if pos >= 0 && child.relativeOffset > pos {
			s += fmt.Sprintf("%s.  gap [o:0x%x,s:0x%x]\n", sPad, pos, child.relativeOffset-pos)
		}
		s += child.stringTree(pad + 1)
		if child.size != 0 {
			pos = child.relativeOffset + child.size
		} else {
			pos = -1
		}
		if child.size > 0 && i != len(bs.childs)-1 && pos > bs.childs[i+1].relativeOffset {
			s += fmt.Sprintf("%s. [OVERLAP]\n", sPad)
		}
	}
	return s
}

func (bs *BufStack) StringTree() string {
	return bs.stringTree(0)
}

func (bs *BufStack) limit() int {
	if bs.size != 0 && bs.size < len(bs.buf) {
		return bs.size
	}
	return len(bs.buf)
}

func (bs *BufStack) Raw() []byte {
	return bs.buf[:bs.limit()]
}

// Need returns error if less than amount bytes left after cursor.
func (bs *BufStack) Need(amount int) error {
	if amount < 0 || bs.pos+amount > bs.limit() {
		return errors.Errorf("%s: need 0x%x bytes at 0x%x, have 0x%x", bs.StringChain(), amount, bs.pos, bs.limit()-bs.pos)
	}
	return nil
}

func (bs *BufStack) Read(amount int) []byte {
	oldPos := bs.pos
	bs.pos += amount
	return bs.buf[oldPos:bs.pos]
}

func (bs *BufStack) Skip(amount int) {
	bs.pos += amount
	if bs.pos > bs.limit() {
		panic("skipped over buf")
	}
}

func (bs *BufStack) ReadLU32() uint32 {
	return binary.LittleEndian.Uint32(bs.Read(4))
}

func (bs *BufStack) ReadLU16() uint16 {
	return binary.LittleEndian.Uint16(bs.Read(2))
}

func (bs *BufStack) ReadLS16() int16 {
	return int16(bs.ReadLU16())
}

func (bs *BufStack) ReadU8() byte {
	return bs.Read(1)[0]
}

func (bs *BufStack) ReadLF() float32 {
	return math.Float32frombits(bs.ReadLU32())
}
