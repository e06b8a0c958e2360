package xmodem

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestControlBlockRoundTrip(t *testing.T) {
	cb := ControlBlock{
		Name:    "report.bin",
		Size:    123456,
		ModTime: time.Unix(1700000000, 0),
		Mode:    0644,
	}

	encoded, err := MarshalControlBlock(cb, blockSize128)
	require.NoError(t, err)
	assert.Len(t, encoded, blockSize128)

	decoded, err := ParseControlBlock(encoded)
	require.NoError(t, err)
	assert.Equal(t, cb.Name, decoded.Name)
	assert.Equal(t, cb.Size, decoded.Size)
	assert.Equal(t, cb.ModTime.Unix(), decoded.ModTime.Unix())
	assert.Equal(t, cb.Mode, decoded.Mode)
}

func TestControlBlockStripsDirectories(t *testing.T) {
	cb := ControlBlock{Name: "some/nested\\path/file.txt", Size: 10}
	encoded, err := MarshalControlBlock(cb, blockSize128)
	require.NoError(t, err)
	decoded, err := ParseControlBlock(encoded)
	require.NoError(t, err)
	assert.Equal(t, "file.txt", decoded.Name)
}

func TestControlBlockTooLarge(t *testing.T) {
	cb := ControlBlock{Name: string(make([]byte, 200)), Size: 1}
	_, err := MarshalControlBlock(cb, blockSize128)
	assert.Error(t, err)
}

func TestControlBlockSourceServesOnce(t *testing.T) {
	src := NewControlBlockSource(ControlBlock{Name: "x", Size: 1})
	buf := make([]byte, blockSize128)
	require.NoError(t, src.Fetch(buf))
	assert.Error(t, src.Fetch(buf))
}

func Test_controlBlockRoundTrip_property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cb := ControlBlock{
			Name: rapid.StringMatching(`[a-zA-Z0-9_.]{1,20}`).Draw(t, "name"),
			Size: rapid.Int64Range(0, 1<<40).Draw(t, "size"),
			Mode: uint32(rapid.IntRange(0, 0777).Draw(t, "mode")),
		}
		encoded, err := MarshalControlBlock(cb, blockSize1024)
		require.NoError(t, err)
		decoded, err := ParseControlBlock(encoded)
		require.NoError(t, err)
		assert.Equal(t, cb.Name, decoded.Name)
		assert.Equal(t, cb.Size, decoded.Size)
		assert.Equal(t, cb.Mode, decoded.Mode)
	})
}
