package seqsimd

import (
	"encoding/binary"

	"github.com/grailbio/base/simd"
)

// SeqASCII maps the 4-bit .bam sequence encoding to ASCII. Index 0 is '=',
// indexes 1/2/4/8 are A/C/G/T, the rest are IUPAC ambiguity codes.
const SeqASCII = "=ACMGRSVTWYHKDBN"

// seqPairTable expands one packed byte (two bases, high nibble first) to the
// two ASCII bytes in output order, little-endian so that PutUint16 writes
// the high nibble's base first.
var seqPairTable = func() (t [256]uint16) {
	for i := range t {
		t[i] = uint16(SeqASCII[i>>4]) | uint16(SeqASCII[i&15])<<8
	}
	return
}()

// UnpackSeq expands a 4-bit-packed .bam sequence field into ASCII bases,
// high nibble first. It panics if len(src) != (len(dst) + 1) / 2. For odd
// len(dst) only the high nibble of the final src byte is used.
func UnpackSeq(dst, src []byte) {
	dstLen := len(dst)
	nSrcFullByte := dstLen >> 1
	srcOdd := dstLen & 1
	if len(src) != nSrcFullByte+srcOdd {
		panic("UnpackSeq() requires len(src) == (len(dst) + 1) / 2.")
	}
	for srcPos := 0; srcPos != nSrcFullByte; srcPos++ {
		binary.LittleEndian.PutUint16(dst[2*srcPos:], seqPairTable[src[srcPos]])
	}
	if srcOdd == 1 {
		dst[dstLen-1] = SeqASCII[src[nSrcFullByte]>>4]
	}
}

// QualsToASCII translates raw .bam quality values to Phred+33 ASCII by
// adding 33 to every byte. It panics if len(dst) != len(src).
func QualsToASCII(dst, src []byte) {
	simd.AddConst8(dst, src, 33)
}
