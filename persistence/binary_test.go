package persistence

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinaryFormat_WriteRead(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(&buf)

	header := &FileHeader{
		Kind:      KindForest,
		Metric:    1,
		Dimension: 4,
		Count:     2,
	}
	require.NoError(t, writer.WriteHeader(header))
	require.NoError(t, writer.WriteFloat32Slice([]float32{1, 2, 3, 4}))
	require.NoError(t, writer.WriteInt32Slice([]int32{-1, 7}))
	require.NoError(t, writer.WriteUint32Slice([]uint32{9, 10, 11}))
	require.NoError(t, writer.WriteValue(uint64(42)))
	require.NoError(t, writer.WriteBytes([]byte("meta")))

	reader := NewReader(&buf)

	got, err := reader.ReadHeader(KindForest)
	require.NoError(t, err)
	assert.Equal(t, uint32(MagicNumber), got.Magic)
	assert.Equal(t, uint32(4), got.Dimension)
	assert.Equal(t, uint64(2), got.Count)
	assert.Equal(t, uint8(1), got.Metric)

	f32, err := reader.ReadFloat32Slice(4)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, f32)

	i32, err := reader.ReadInt32Slice(2)
	require.NoError(t, err)
	assert.Equal(t, []int32{-1, 7}, i32)

	u32, err := reader.ReadUint32Slice(3)
	require.NoError(t, err)
	assert.Equal(t, []uint32{9, 10, 11}, u32)

	var v uint64
	require.NoError(t, reader.ReadValue(&v))
	assert.Equal(t, uint64(42), v)

	b, err := reader.ReadBytes(16)
	require.NoError(t, err)
	assert.Equal(t, []byte("meta"), b)
}

func TestReadHeaderValidation(t *testing.T) {
	t.Run("Kind", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewWriter(&buf).WriteHeader(&FileHeader{Kind: KindSnapshot}))
		_, err := NewReader(&buf).ReadHeader(KindForest)
		assert.ErrorIs(t, err, ErrInvalidKind)
	})

	t.Run("Magic", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewWriter(&buf).WriteValue(&FileHeader{Magic: 1, Version: Version}))
		_, err := NewReader(&buf).ReadHeader(0)
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("Version", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewWriter(&buf).WriteValue(&FileHeader{Magic: MagicNumber, Version: 99}))
		_, err := NewReader(&buf).ReadHeader(0)
		assert.ErrorIs(t, err, ErrInvalidVersion)
	})
}

func TestReadBytesLimit(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteBytes(make([]byte, 32)))
	_, err := NewReader(&buf).ReadBytes(8)
	assert.Error(t, err)
}

func TestChecksum(t *testing.T) {
	var buf bytes.Buffer
	cw := NewChecksumWriter(&buf)
	_, err := cw.Write([]byte("hello forest"))
	require.NoError(t, err)
	assert.Equal(t, ComputeChecksum([]byte("hello forest")), cw.Sum())
	require.NoError(t, cw.WriteTrailer())
	assert.Equal(t, len("hello forest")+TrailerSize, buf.Len())

	sealed := append([]byte(nil), buf.Bytes()...)

	cr := NewChecksumReader(&buf)
	payload := make([]byte, len("hello forest"))
	_, err = io.ReadFull(cr, payload)
	require.NoError(t, err)
	require.NoError(t, cr.VerifyTrailer())

	err = cr.Verify(cw.Sum() + 1)
	require.Error(t, err)
	assert.True(t, IsChecksumMismatch(err))

	got, err := Unseal(sealed)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello forest"), got)

	sealed[0] ^= 0x01
	_, err = Unseal(sealed)
	assert.True(t, IsChecksumMismatch(err))

	_, err = Unseal(sealed[:2])
	assert.ErrorIs(t, err, ErrCorruptBlock)

	assert.Error(t, NewChecksumReader(bytes.NewReader(nil)).VerifyTrailer())
}

func TestCompressBlock(t *testing.T) {
	data := bytes.Repeat([]byte("metric differential privacy "), 200)

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			block, err := CompressBlock(data, c)
			require.NoError(t, err)
			if c != CompressionNone {
				assert.Less(t, len(block), len(data))
			}

			got, err := DecompressBlock(block, c)
			require.NoError(t, err)
			assert.Equal(t, data, got)
		})
	}

	t.Run("Incompressible", func(t *testing.T) {
		data := []byte{1, 2, 3}
		block, err := CompressBlock(data, CompressionZSTD)
		require.NoError(t, err)
		got, err := DecompressBlock(block, CompressionZSTD)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("Corrupt", func(t *testing.T) {
		_, err := DecompressBlock([]byte{1, 2}, CompressionLZ4)
		assert.ErrorIs(t, err, ErrCorruptBlock)
	})
}

func TestParseCompression(t *testing.T) {
	c, err := ParseCompression("ZSTD")
	require.NoError(t, err)
	assert.Equal(t, CompressionZSTD, c)

	c, err = ParseCompression("")
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, c)

	_, err = ParseCompression("gzip")
	assert.Error(t, err)
}
