package seqsimd_test

import (
	"math/rand"
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/marcelm/dnaio/seqsimd"
)

func asciiOnlySlow(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

func TestASCIIOnly(t *testing.T) {
	assert.True(t, seqsimd.ASCIIOnly(nil))
	assert.True(t, seqsimd.ASCIIOnly([]byte{}))
	assert.True(t, seqsimd.ASCIIOnly([]byte{0x7f}))
	assert.False(t, seqsimd.ASCIIOnly([]byte{0x80}))
	assert.True(t, seqsimd.ASCIIOnly([]byte("@read1\nACGT\n+\n!!!!\n")))
	assert.False(t, seqsimd.ASCIIOnly([]byte("ACGT\xffACGT")))
}

func TestASCIIOnlyAgainstSlow(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for iter := 0; iter < 200; iter++ {
		size := rng.Intn(70)
		b := make([]byte, size)
		for i := range b {
			b[i] = byte(rng.Intn(0x90))
		}
		assert.EQ(t, seqsimd.ASCIIOnly(b), asciiOnlySlow(b))
	}
}

func TestASCIIOnlyHighBitPositions(t *testing.T) {
	// One offending byte at every position of a buffer crossing the vector
	// width.
	for size := 1; size <= 48; size++ {
		b := make([]byte, size)
		for i := range b {
			b[i] = 'A'
		}
		for i := range b {
			b[i] = 0x80
			assert.False(t, seqsimd.ASCIIOnly(b))
			b[i] = 'A'
		}
		assert.True(t, seqsimd.ASCIIOnly(b))
	}
}

func BenchmarkASCIIOnly(b *testing.B) {
	buf := make([]byte, 128*1024)
	for i := range buf {
		buf[i] = 'A'
	}
	b.SetBytes(int64(len(buf)))
	for i := 0; i < b.N; i++ {
		if !seqsimd.ASCIIOnly(buf) {
			b.Fatal("unexpected non-ASCII")
		}
	}
}
