package checksum

import (
	"bytes"
	"hash/adler32"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSumMatchesKnownVector(t *testing.T) {
	// "Wikipedia" -> 0x11E60398, the textbook Adler-32 worked example.
	require.Equal(t, uint32(0x11E60398), Sum([]byte("Wikipedia")))
}

func TestSumEmpty(t *testing.T) {
	require.Equal(t, uint32(1), Sum(nil))
}

func TestSumMatchesStdlibAcrossBlockBoundary(t *testing.T) {
	for _, size := range []int{0, 1, nmax - 1, nmax, nmax + 1, 3*nmax + 17} {
		data := bytes.Repeat([]byte{0xAB, 0x03, 0x91}, size/3+1)[:size]
		require.Equal(t, adler32.Checksum(data), Sum(data), "size=%d", size)
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	sum := Sum([]byte("round trip"))
	require.Equal(t, sum, Unpack(Pack(sum)))
}

func TestVerify(t *testing.T) {
	data := []byte("hello, kvs")
	packed := Pack(Sum(data))
	require.True(t, Verify(data, packed))

	packed[0] ^= 0xFF
	require.False(t, Verify(data, packed))
}
