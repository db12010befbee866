// Package checksum implements the Adler-32 algorithm used to validate
// each persisted JSON document against its companion .hash file.
package checksum

const (
	modulus = 65521
	// nmax is the largest number of bytes that can be summed into a and
	// b without a modulo reduction overflowing a uint32 accumulator;
	// blocks are capped here for throughput while yielding an identical
	// result to reducing after every byte.
	nmax = 5552
)

// Sum computes the Adler-32 checksum of data.
func Sum(data []byte) uint32 {
	var a, b uint32 = 1, 0
	for len(data) > 0 {
		n := len(data)
		if n > nmax {
			n = nmax
		}
		block := data[:n]
		data = data[n:]
		for _, c := range block {
			a += uint32(c)
			b += a
		}
		a %= modulus
		b %= modulus
	}
	return b<<16 | a
}

// Pack big-endian encodes sum into 4 bytes.
func Pack(sum uint32) [4]byte {
	return [4]byte{
		byte(sum >> 24),
		byte(sum >> 16),
		byte(sum >> 8),
		byte(sum),
	}
}

// Unpack decodes 4 big-endian bytes into a checksum.
func Unpack(packed [4]byte) uint32 {
	return uint32(packed[0])<<24 | uint32(packed[1])<<16 | uint32(packed[2])<<8 | uint32(packed[3])
}

// Verify reports whether the packed Adler-32 of data equals packed.
func Verify(data []byte, packed [4]byte) bool {
	return Sum(data) == Unpack(packed)
}
