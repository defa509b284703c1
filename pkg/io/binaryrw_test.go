package io

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// mocks io.Writer to always fail.
type badRW struct{}

func (w *badRW) Write(p []byte) (int, error) {
	return 0, errors.New("it always fails")
}

func (w *badRW) Read(p []byte) (int, error) {
	return w.Write(p)
}

func TestWriteU64LE(t *testing.T) {
	var (
		val     uint64 = 0xbadc0de15a11dead
		bin            = []byte{0xad, 0xde, 0x11, 0x5a, 0xe1, 0x0d, 0xdc, 0xba}
		bufBinW        = NewBufBinWriter()
	)
	bufBinW.WriteU64LE(val)
	require.NoError(t, bufBinW.Err)
	require.Equal(t, bin, bufBinW.Bytes())

	br := NewBinReaderFromBuf(bin)
	require.Equal(t, val, br.ReadU64LE())
	require.NoError(t, br.Err)
}

func TestWriteU64BE(t *testing.T) {
	bufBinW := NewBufBinWriter()
	bufBinW.WriteU64BE(0x0102030405060708)
	bin := bufBinW.Bytes()
	require.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, bin)

	br := NewBinReaderFromBuf(bin)
	require.Equal(t, uint64(0x0102030405060708), br.ReadU64BE())
	require.Equal(t, 0, br.Len())
}

func TestWriteU32LE(t *testing.T) {
	bufBinW := NewBufBinWriter()
	bufBinW.WriteU32LE(0xdeadbeef)
	bin := bufBinW.Bytes()
	require.Equal(t, []byte{0xef, 0xbe, 0xad, 0xde}, bin)
	require.Equal(t, uint32(0xdeadbeef), NewBinReaderFromBuf(bin).ReadU32LE())
}

func TestWriteU16LE(t *testing.T) {
	bufBinW := NewBufBinWriter()
	bufBinW.WriteU16LE(0xbabe)
	bin := bufBinW.Bytes()
	require.Equal(t, []byte{0xbe, 0xba}, bin)
	require.Equal(t, uint16(0xbabe), NewBinReaderFromBuf(bin).ReadU16LE())
}

func TestWriteBool(t *testing.T) {
	bufBinW := NewBufBinWriter()
	bufBinW.WriteBool(true)
	bufBinW.WriteBool(false)
	bin := bufBinW.Bytes()
	require.Equal(t, []byte{0x01, 0x00}, bin)

	br := NewBinReaderFromBuf(bin)
	require.True(t, br.ReadBool())
	require.False(t, br.ReadBool())
	require.NoError(t, br.Err)
	require.False(t, br.ReadBool())
	require.Error(t, br.Err)
}

func TestVarUint(t *testing.T) {
	for _, val := range []uint64{0, 1, 0xfc, 0xfd, 0xfffe, 0xffff, 0xfffffffe, 0xffffffff, 1 << 63} {
		bw := NewBufBinWriter()
		bw.WriteVarUint(val)
		require.NoError(t, bw.Err)
		br := NewBinReaderFromBuf(bw.Bytes())
		require.Equal(t, val, br.ReadVarUint())
		require.NoError(t, br.Err)
	}
}

func TestWriteVarBytes(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteVarBytes([]byte{1, 2, 3})
	bw.WriteString("spend")
	bin := bw.Bytes()
	require.Equal(t, byte(3), bin[0])

	br := NewBinReaderFromBuf(bin)
	require.Equal(t, []byte{1, 2, 3}, br.ReadVarBytes())
	require.Equal(t, "spend", br.ReadString())
	require.NoError(t, br.Err)

	br = NewBinReaderFromBuf(bin)
	require.Nil(t, br.ReadVarBytes(2))
	require.ErrorIs(t, br.Err, ErrTooBig)
}

type testSerializable uint16

func (t *testSerializable) EncodeBinary(w *BinWriter) {
	w.WriteU16LE(uint16(*t))
}

func (t *testSerializable) DecodeBinary(r *BinReader) {
	*t = testSerializable(r.ReadU16LE())
}

func TestArray(t *testing.T) {
	arr := []*testSerializable{new(testSerializable), new(testSerializable)}
	*arr[0] = 1
	*arr[1] = 2

	w := NewBufBinWriter()
	WriteArray(w.BinWriter, arr)
	require.NoError(t, w.Err)
	bin := w.Bytes()
	require.Equal(t, []byte{2, 1, 0, 2, 0}, bin)

	r := NewBinReaderFromBuf(bin)
	res := ReadArray[testSerializable](r)
	require.NoError(t, r.Err)
	require.Equal(t, []testSerializable{1, 2}, res)

	r = NewBinReaderFromBuf(bin)
	require.Nil(t, ReadArray[testSerializable](r, 1))
	require.Error(t, r.Err)
}

func TestBufBinWriterDrained(t *testing.T) {
	bw := NewBufBinWriter()
	bw.WriteB(1)
	require.Equal(t, 1, bw.Len())
	require.Equal(t, []byte{1}, bw.Bytes())
	require.Nil(t, bw.Bytes())
	require.ErrorIs(t, bw.Err, ErrDrained)
	bw.Reset()
	bw.WriteB(2)
	require.Equal(t, []byte{2}, bw.Bytes())
}

func TestWriterErrHandling(t *testing.T) {
	bw := NewBinWriterFromIO(&badRW{})
	bw.WriteU64LE(1)
	require.Error(t, bw.Err)
	// These should work (not panic), but not do anything.
	bw.WriteVarUint(0xffff)
	bw.WriteVarBytes([]byte{0x55, 0xaa})
	bw.WriteString("neverwritten")
	require.Error(t, bw.Err)

	br := NewBinReaderFromIO(&badRW{})
	require.Equal(t, -1, br.Len())
	require.Equal(t, uint64(0), br.ReadU64LE())
	require.Error(t, br.Err)
	require.Equal(t, uint64(0), br.ReadVarUint())
	require.Equal(t, "", br.ReadString())
}
