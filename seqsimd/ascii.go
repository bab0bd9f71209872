package seqsimd

import (
	"github.com/grailbio/base/simd"
)

// ASCIIOnly reports whether every byte of b has its high bit clear. Empty
// input is ASCII.
func ASCIIOnly(b []byte) bool {
	return simd.FirstGreater8(b, 0x7f, 0) == len(b)
}
