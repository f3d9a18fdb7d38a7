package codec

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/centrifuge/go-substrate-rpc-client/v4/scale"
)

const (
	maxSingleByteCompact = 1<<6 - 1
	maxTwoByteCompact    = 1<<14 - 1
	maxFourByteCompact   = 1<<30 - 1
)

// Encoder appends values in the SCALE wire format the extension speaks. The zero value is ready to use.
type Encoder struct {
	buf bytes.Buffer
	enc *scale.Encoder
	err error
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) scaleEncoder() *scale.Encoder {
	if e.enc == nil {
		e.enc = scale.NewEncoder(&e.buf)
	}
	return e.enc
}

func (e *Encoder) record(err error) {
	if err != nil && e.err == nil {
		e.err = err
	}
}

func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// Err reports the first failed write. Writes to the in-memory buffer only fail on programming errors.
func (e *Encoder) Err() error {
	return e.err
}

func (e *Encoder) PutU8(v uint8) {
	e.record(e.scaleEncoder().PushByte(v))
}

func (e *Encoder) PutBool(v bool) {
	e.record(e.scaleEncoder().Encode(v))
}

func (e *Encoder) PutU32(v uint32) {
	e.record(e.scaleEncoder().Encode(v))
}

func (e *Encoder) PutU64(v uint64) {
	e.record(e.scaleEncoder().Encode(v))
}

// PutU128 writes a non-negative integer below 2^128 as 16 little-endian bytes.
func (e *Encoder) PutU128(v *big.Int) error {
	if v.Sign() < 0 || v.BitLen() > 128 {
		return fmt.Errorf("value %s does not fit in u128", v.String())
	}
	le := v.FillBytes(make([]byte, 16))
	for i, j := 0, len(le)-1; i < j; i, j = i+1, j-1 {
		le[i], le[j] = le[j], le[i]
	}
	e.record(e.scaleEncoder().Write(le))
	return nil
}

// PutCompact writes a compact-encoded unsigned integer.
func (e *Encoder) PutCompact(v uint64) {
	e.record(e.scaleEncoder().EncodeUintCompact(*new(big.Int).SetUint64(v)))
}

// PutBytes writes a length-prefixed byte vector.
func (e *Encoder) PutBytes(b []byte) {
	e.PutCompact(uint64(len(b)))
	e.PutFixed(b)
}

// PutFixed writes raw bytes with no length prefix, used for fixed-size arrays such as account ids.
func (e *Encoder) PutFixed(b []byte) {
	if len(b) == 0 {
		return
	}
	e.record(e.scaleEncoder().Write(b))
}

// PutOption writes the option tag and, for Some, the value written by some.
func (e *Encoder) PutOption(present bool, some func(*Encoder)) {
	if !present {
		e.PutU8(0)
		return
	}
	e.PutU8(1)
	some(e)
}
