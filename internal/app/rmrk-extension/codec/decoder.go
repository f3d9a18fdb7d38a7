package codec

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

var (
	ErrShortInput    = errors.New("unexpected end of input")
	ErrTrailingBytes = errors.New("trailing bytes after value")
	ErrInvalidTag    = errors.New("invalid tag")
	ErrNonCanonical  = errors.New("non-canonical compact encoding")
)

// maxVectorLength bounds compact length prefixes so a corrupt prefix cannot request a huge allocation.
const maxVectorLength = 1 << 24

// Decoder reads values written by Encoder. The first error sticks: later reads return zero values and
// Err/Finish report the first failure. On top of the scale decoder it rejects short reads, bad tags and
// compact integers not written in their shortest form.
type Decoder struct {
	r   *bytes.Reader
	dec *scale.Decoder
	err error
}

func NewDecoder(b []byte) *Decoder {
	r := bytes.NewReader(b)
	return &Decoder{r: r, dec: scale.NewDecoder(r)}
}

func (d *Decoder) Err() error {
	return d.err
}

// Fail records err unless an earlier error is already recorded.
func (d *Decoder) Fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *Decoder) Remaining() int {
	return d.r.Len()
}

func (d *Decoder) offset() int64 {
	return d.r.Size() - int64(d.r.Len())
}

// Finish returns the sticky error, or ErrTrailingBytes when input is left over.
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	if d.Remaining() != 0 {
		return fmt.Errorf("%w: %d", ErrTrailingBytes, d.Remaining())
	}
	return nil
}

// need fails the decoder unless n more bytes are available.
func (d *Decoder) need(n int) bool {
	if d.err != nil {
		return false
	}
	if n < 0 || d.Remaining() < n {
		d.Fail(fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortInput, n, d.offset(), d.Remaining()))
		return false
	}
	return true
}

func (d *Decoder) read(n int) []byte {
	if !d.need(n) {
		return nil
	}
	out := make([]byte, n)
	if n == 0 {
		return out
	}
	if err := d.dec.Read(out); err != nil {
		d.Fail(fmt.Errorf("%w: %s", ErrShortInput, err))
		return nil
	}
	return out
}

func (d *Decoder) U8() uint8 {
	if !d.need(1) {
		return 0
	}
	b, err := d.dec.ReadOneByte()
	if err != nil {
		d.Fail(fmt.Errorf("%w: %s", ErrShortInput, err))
		return 0
	}
	return b
}

func (d *Decoder) Bool() bool {
	switch tag := d.U8(); tag {
	case 0:
		return false
	case 1:
		return true
	default:
		d.Fail(fmt.Errorf("%w: bool %d", ErrInvalidTag, tag))
		return false
	}
}

func (d *Decoder) U32() uint32 {
	var v uint32
	if d.need(4) {
		d.decode(&v)
	}
	return v
}

func (d *Decoder) U64() uint64 {
	var v uint64
	if d.need(8) {
		d.decode(&v)
	}
	return v
}

func (d *Decoder) decode(target interface{}) {
	if err := d.dec.Decode(target); err != nil {
		d.Fail(fmt.Errorf("%w: %s", ErrShortInput, err))
	}
}

func (d *Decoder) U128() *big.Int {
	b := d.read(16)
	if b == nil {
		return new(big.Int)
	}
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return new(big.Int).SetBytes(b)
}

// Compact reads a compact unsigned integer of at most 64 bits. Encodings longer than the shortest form
// for their value fail with ErrNonCanonical.
func (d *Decoder) Compact() uint64 {
	if !d.need(1) || !d.need(compactWidth(d.peek())) {
		return 0
	}
	start := d.Remaining()
	v, err := d.dec.DecodeUintCompact()
	if err != nil {
		d.Fail(fmt.Errorf("%w: %s", ErrShortInput, err))
		return 0
	}
	if !v.IsUint64() {
		d.Fail(fmt.Errorf("%w: compact integer of %d bits", ErrInvalidTag, v.BitLen()))
		return 0
	}
	if used := start - d.Remaining(); used != compactLen(v.Uint64()) {
		d.Fail(fmt.Errorf("%w: %d written in %d bytes", ErrNonCanonical, v.Uint64(), used))
		return 0
	}
	return v.Uint64()
}

func (d *Decoder) peek() byte {
	b, _ := d.r.ReadByte()
	_ = d.r.UnreadByte()
	return b
}

// compactWidth is the encoded length announced by the first byte of a compact integer.
func compactWidth(first byte) int {
	switch first & 0b11 {
	case 0b00:
		return 1
	case 0b01:
		return 2
	case 0b10:
		return 4
	default:
		return int(first>>2) + 5
	}
}

// compactLen is the length of the shortest compact encoding of v.
func compactLen(v uint64) int {
	switch {
	case v <= maxSingleByteCompact:
		return 1
	case v <= maxTwoByteCompact:
		return 2
	case v <= maxFourByteCompact:
		return 4
	default:
		n := 0
		for tmp := v; tmp > 0; tmp >>= 8 {
			n++
		}
		return 1 + n
	}
}

// Bytes reads a length-prefixed byte vector. The result never aliases the input.
func (d *Decoder) Bytes() []byte {
	n := d.Compact()
	if d.err != nil {
		return nil
	}
	if n > maxVectorLength {
		d.Fail(fmt.Errorf("%w: vector length %d", ErrShortInput, n))
		return nil
	}
	return d.read(int(n))
}

// Fixed reads exactly n bytes with no length prefix.
func (d *Decoder) Fixed(n int) []byte {
	return d.read(n)
}

// Option reads an option tag and reports whether a value follows.
func (d *Decoder) Option() bool {
	switch tag := d.U8(); tag {
	case 0:
		return false
	case 1:
		return true
	default:
		d.Fail(fmt.Errorf("%w: option %d", ErrInvalidTag, tag))
		return false
	}
}
