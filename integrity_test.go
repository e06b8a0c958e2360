package xmodem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestCRC16CCITTTestVector(t *testing.T) {
	// The classic CCITT CRC-16 test vector, also used by spec.md §8.
	assert.Equal(t, uint16(0x31C3), crc16([]byte("123456789")))
}

func TestCRC16Empty(t *testing.T) {
	assert.Equal(t, uint16(0), crc16(nil))
}

func TestChecksumWraps(t *testing.T) {
	data := make([]byte, 300)
	for i := range data {
		data[i] = 1
	}
	assert.Equal(t, byte(300%256), checksum(data))
}

func TestChecksumBlockVector(t *testing.T) {
	// Sum of the 128 bytes 0x00..0x7F: 0+1+...+127 = 8128 = 0x1FC0,
	// which truncates mod 256 to 0xC0.
	data := make([]byte, 128)
	for i := range data {
		data[i] = byte(i)
	}
	assert.Equal(t, byte(0xC0), checksum(data))
}

func Test_verifyTrailer(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 128, 128).Draw(t, "data")
		mode := IntegrityMode(rapid.IntRange(0, 1).Draw(t, "mode"))

		trailer := writeTrailer(nil, data, mode)
		assert.True(t, verifyTrailer(data, trailer, mode), "freshly written trailer must verify")

		if len(trailer) > 0 {
			corrupted := append([]byte(nil), trailer...)
			corrupted[0] ^= 0xFF
			assert.False(t, verifyTrailer(data, corrupted, mode), "corrupted trailer must not verify")
		}
	})
}

func TestTrailerSizeAndSyncByte(t *testing.T) {
	assert.Equal(t, 1, Checksum.TrailerSize())
	assert.Equal(t, 2, CRC16.TrailerSize())
	assert.Equal(t, byte(NAK), Checksum.SyncByte())
	assert.Equal(t, byte(CRCSOH), CRC16.SyncByte())
}
