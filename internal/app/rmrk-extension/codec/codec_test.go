package codec

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompactEncodingBoundaries(t *testing.T) {
	cases := []struct {
		value    uint64
		expected []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x04}},
		{63, []byte{0xfc}},
		{64, []byte{0x01, 0x01}},
		{16383, []byte{0xfd, 0xff}},
		{16384, []byte{0x02, 0x00, 0x01, 0x00}},
		{1<<30 - 1, []byte{0xfe, 0xff, 0xff, 0xff}},
		{1 << 30, []byte{0x03, 0x00, 0x00, 0x00, 0x40}},
		{1 << 32, []byte{0x07, 0x00, 0x00, 0x00, 0x00, 0x01}},
	}

	for _, tc := range cases {
		e := NewEncoder()
		e.PutCompact(tc.value)
		require.Equal(t, tc.expected, e.Bytes(), "value %d", tc.value)

		d := NewDecoder(tc.expected)
		require.Equal(t, tc.value, d.Compact())
		require.NoError(t, d.Finish())
	}
}

func TestDecoderRejectsNonCanonicalCompact(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		err   error
	}{
		{"one in two bytes", []byte{0x05, 0x00}, ErrNonCanonical},
		{"63 in two bytes", []byte{0xfd, 0x00}, ErrNonCanonical},
		{"64 in four bytes", []byte{0x02, 0x01, 0x00, 0x00}, ErrNonCanonical},
		{"16383 in four bytes", []byte{0xfe, 0xff, 0x00, 0x00}, ErrNonCanonical},
		{"small value in big integer mode", []byte{0x03, 0x01, 0x00, 0x00, 0x00}, ErrNonCanonical},
		{"leading zero byte in big integer mode", []byte{0x07, 0x00, 0x00, 0x00, 0x40, 0x00}, ErrNonCanonical},
		{"wider than 64 bits", []byte{0x17, 1, 2, 3, 4, 5, 6, 7, 8, 9}, ErrInvalidTag},
		{"truncated", []byte{0x01}, ErrShortInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(tt.input)
			require.Equal(t, uint64(0), d.Compact())
			require.ErrorIs(t, d.Finish(), tt.err)
		})
	}
}

func TestDecoderRejectsNonCanonicalLengthPrefix(t *testing.T) {
	d := NewDecoder([]byte{0x05, 0x00, 'x'})
	require.Nil(t, d.Bytes())
	require.ErrorIs(t, d.Finish(), ErrNonCanonical)
}

func TestIntegersAreLittleEndian(t *testing.T) {
	e := NewEncoder()
	e.PutU32(0x01020304)
	e.PutU64(5)
	require.NoError(t, e.PutU128(big.NewInt(258)))

	require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, e.Bytes()[:4])

	d := NewDecoder(e.Bytes())
	require.Equal(t, uint32(0x01020304), d.U32())
	require.Equal(t, uint64(5), d.U64())
	require.Equal(t, int64(258), d.U128().Int64())
	require.NoError(t, d.Finish())
}

func TestPutU128RejectsOutOfRange(t *testing.T) {
	e := NewEncoder()
	require.Error(t, e.PutU128(big.NewInt(-1)))
	require.Error(t, e.PutU128(new(big.Int).Lsh(big.NewInt(1), 128)))
	require.Empty(t, e.Bytes())
}

func TestBytesAndOption(t *testing.T) {
	e := NewEncoder()
	e.PutBytes([]byte("ROO"))
	e.PutOption(true, func(e *Encoder) { e.PutU32(1000) })
	e.PutOption(false, nil)
	e.PutBool(true)

	require.Equal(t, []byte{0x0c, 'R', 'O', 'O', 0x01, 0xe8, 0x03, 0x00, 0x00, 0x00, 0x01}, e.Bytes())

	d := NewDecoder(e.Bytes())
	require.Equal(t, []byte("ROO"), d.Bytes())
	require.True(t, d.Option())
	require.Equal(t, uint32(1000), d.U32())
	require.False(t, d.Option())
	require.True(t, d.Bool())
	require.NoError(t, d.Finish())
}

func TestDecoderStrictness(t *testing.T) {
	t.Run("short input", func(t *testing.T) {
		d := NewDecoder([]byte{0x01, 0x02})
		d.U32()
		require.ErrorIs(t, d.Finish(), ErrShortInput)
	})

	t.Run("trailing bytes", func(t *testing.T) {
		d := NewDecoder([]byte{0x01, 0x00})
		d.U8()
		require.ErrorIs(t, d.Finish(), ErrTrailingBytes)
	})

	t.Run("bad bool", func(t *testing.T) {
		d := NewDecoder([]byte{0x02})
		d.Bool()
		require.ErrorIs(t, d.Finish(), ErrInvalidTag)
	})

	t.Run("bad option", func(t *testing.T) {
		d := NewDecoder([]byte{0x07})
		d.Option()
		require.ErrorIs(t, d.Finish(), ErrInvalidTag)
	})

	t.Run("vector longer than input", func(t *testing.T) {
		d := NewDecoder([]byte{0x10, 0x01})
		require.Nil(t, d.Bytes())
		require.ErrorIs(t, d.Finish(), ErrShortInput)
	})

	t.Run("first error sticks", func(t *testing.T) {
		d := NewDecoder([]byte{0x09})
		d.Bool()
		d.U32()
		require.ErrorIs(t, d.Err(), ErrInvalidTag)
	})
}

func TestDecodedBytesDoNotAliasInput(t *testing.T) {
	input := []byte{0x04, 0xaa}
	d := NewDecoder(input)
	out := d.Bytes()
	input[1] = 0xbb
	require.Equal(t, []byte{0xaa}, out)
}
