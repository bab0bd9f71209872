// Package seqsimd provides vectorized implementations of the byte
// transforms on sequencing data hot paths: the 7-bit ASCII gate applied to
// every parser refill, the 4-bit-packed BAM sequence expansion and the
// Phred+33 quality translation.
//
// Where a transform maps onto a github.com/grailbio/base/simd primitive it
// uses that (SSE on amd64, scalar elsewhere); the BAM nibble expansion,
// whose high-nibble-first order has no simd counterpart, uses a 256-entry
// table of two-byte values that emits two output bytes per input byte.
package seqsimd
