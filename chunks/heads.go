// Package chunks splits FASTQ, FASTA and unaligned BAM streams into chunks
// of complete records without parsing the records. The chunks can be handed
// to worker goroutines and parsed there.
package chunks

import (
	"bytes"
	"encoding/binary"

	"github.com/marcelm/dnaio"
)

// FastqHead returns the largest n such that buf[:n] contains a whole number
// of complete FASTQ record *pairs*. Keeping an even record count means
// interleaved paired-end data is never split inside a pair.
func FastqHead(buf []byte) int {
	linebreaks := bytes.Count(buf, []byte{'\n'})
	right := len(buf)
	for i := 0; i <= linebreaks%8 && right >= 0; i++ {
		right = bytes.LastIndexByte(buf[:right], '\n')
	}
	return right + 1
}

// FastaHead returns the largest n such that buf[:n] contains only complete
// FASTA records. When the buffer holds no "\n>", a non-empty buffer that
// does not start with '>' or the comment marker '#' is a format error; the
// first byte is not checked otherwise.
func FastaHead(buf []byte) (int, error) {
	if pos := bytes.LastIndex(buf, []byte("\n>")); pos != -1 {
		return pos + 1, nil
	}
	if len(buf) == 0 || buf[0] == '>' || buf[0] == '#' {
		return 0, nil
	}
	return 0, &dnaio.FormatError{
		Kind: dnaio.BadHeader,
		Line: -1,
		Msg:  "FASTA file expected to start with '>', but found '" + string(buf[0]) + "'",
	}
}

// BamHead returns the largest n such that buf[:n] contains only complete
// BAM records, walking the block_size prefixes.
func BamHead(buf []byte) int {
	pos := 0
	for pos+4 <= len(buf) {
		blockSize := int(binary.LittleEndian.Uint32(buf[pos:]))
		if pos+4+blockSize > len(buf) {
			break
		}
		pos += 4 + blockSize
	}
	return pos
}

// PairedFastqHeads returns the greatest (n1, n2) such that buf1[:n1] and
// buf2[:n2] contain the same number of complete lines, that number being a
// multiple of four. It scans both buffers for newlines in lockstep and
// records every fourth synchronized position.
func PairedFastqHeads(buf1, buf2 []byte) (int, int) {
	var len1, len2 int
	pos1, pos2 := 0, 0
	for lines := 1; ; lines++ {
		i := bytes.IndexByte(buf1[pos1:], '\n')
		if i < 0 {
			break
		}
		j := bytes.IndexByte(buf2[pos2:], '\n')
		if j < 0 {
			break
		}
		pos1 += i + 1
		pos2 += j + 1
		if lines%4 == 0 {
			len1, len2 = pos1, pos2
		}
	}
	return len1, len2
}

// PairedFastaHeads returns positions (n1, n2) such that buf1[:n1] and
// buf2[:n2] contain the same number of complete FASTA records.
func PairedFastaHeads(buf1, buf2 []byte) (int, int, error) {
	if len(buf1) == 0 || len(buf2) == 0 {
		return 0, 0, nil
	}
	if buf1[0] != '>' || buf2[0] != '>' {
		return 0, 0, &dnaio.FormatError{
			Kind: dnaio.BadHeader,
			Line: -1,
			Msg:  "FASTA file expected to start with '>'",
		}
	}
	sep := []byte("\n>")
	n1 := bytes.Count(buf1, sep)
	n2 := bytes.Count(buf2, sep)
	n := min(n1, n2)
	pos1, pos2 := 0, 0
	for ; n > 0; n-- {
		pos1 += bytes.Index(buf1[pos1:], sep) + 1
		pos2 += bytes.Index(buf2[pos2:], sep) + 1
	}
	return pos1, pos2, nil
}
