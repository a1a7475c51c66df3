package utils

import (
	"encoding/binary"
	"math"
)

// BufWriter appends little endian values to a growing buffer.
type BufWriter struct {
	buf []byte
}

func NewBufWriter() *BufWriter {
	return &BufWriter{}
}

func (bw *BufWriter) Bytes() []byte { return bw.buf }
func (bw *BufWriter) Len() int { return len(bw.buf) }

func (bw *BufWriter) WriteU8(v byte) {
	bw.buf = append(bw.buf, v)
}

func (bw *BufWriter) WriteLU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	bw.buf = append(bw.buf, b[:]...)
}

func (bw *BufWriter) WriteLS16(v int16) {
	bw.WriteLU16(uint16(v))
}

func (bw *BufWriter) WriteLU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	bw.buf = append(bw.buf, b[:]...)
}

func (bw *BufWriter) WriteLF(v float32) {
	bw.WriteLU32(math.Float32bits(v))
}

// PutLU16 overwrites already written value, used to patch size fields.
func (bw *BufWriter) PutLU16(pos int, v uint16) {
	binary.LittleEndian.PutUint16(bw.buf[pos:], v)
}
