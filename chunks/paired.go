package chunks

import (
	"io"

	"github.com/pkg/errors"

	"github.com/marcelm/dnaio"
)

// PairedChunker reads synchronized chunk pairs from two FASTQ or FASTA
// streams: both chunks of a pair contain the same number of records, so
// paired-end reads stay in sync when chunks are processed independently.
// The final pair at end of input holds the remainder of each stream as is;
// its record counts are not compared.
//
// The chunks returned by Chunks are views into the internal buffers and are
// only valid until the next call to Scan.
type PairedChunker struct {
	r1, r2     io.Reader
	buf1, buf2 []byte

	start1, start2 int
	chunk1, chunk2 []byte
	format         Format

	pendingEnd1, pendingBufEnd1 int
	pendingEnd2, pendingBufEnd2 int
	havePending                 bool

	started bool
	done    bool
	err     error
}

// NewPairedChunker returns a PairedChunker reading R1 records from r1 and
// R2 records from r2. bufferSize bounds the chunk size; zero selects
// DefaultBufferSize.
func NewPairedChunker(r1, r2 io.Reader, bufferSize int) (*PairedChunker, error) {
	if bufferSize == 0 {
		bufferSize = DefaultBufferSize
	}
	if bufferSize < 6 {
		return nil, errors.Errorf("chunks: paired buffer size must be at least 6, got %d", bufferSize)
	}
	return &PairedChunker{
		r1: r1, r2: r2,
		buf1: make([]byte, bufferSize),
		buf2: make([]byte, bufferSize),
	}, nil
}

// Chunks returns the chunk pair produced by the last successful Scan.
func (pc *PairedChunker) Chunks() (c1, c2 []byte) { return pc.chunk1, pc.chunk2 }

// Format returns the detected input format. It is valid once Scan has been
// called.
func (pc *PairedChunker) Format() Format { return pc.format }

// Err returns the terminal error, or nil after a clean end of input.
func (pc *PairedChunker) Err() error { return pc.err }

func readByte(r io.Reader, dst []byte) (int, error) {
	n, err := io.ReadFull(r, dst[:1])
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	return n, err
}

func (pc *PairedChunker) detect() error {
	n1, err := readByte(pc.r1, pc.buf1)
	if err != nil {
		return errors.Wrap(err, "chunks: read")
	}
	n2, err := readByte(pc.r2, pc.buf2)
	if err != nil {
		return errors.Wrap(err, "chunks: read")
	}
	pc.start1, pc.start2 = n1, n2
	if n1 == 0 && n2 == 0 {
		pc.done = true
		return nil
	}
	if (n1 == 0) != (n2 == 0) {
		empty := "R1"
		if n2 == 0 {
			empty = "R2"
		}
		return &dnaio.FormatError{
			Kind: dnaio.PrematureEOF,
			Line: -1,
			Msg:  "paired-end reads not in sync: the file with " + empty + " reads is empty and the other is not",
		}
	}
	b1, b2 := pc.buf1[0], pc.buf2[0]
	switch {
	case b1 == '@' && b2 == '@':
		pc.format = FormatFASTQ
	case b1 == '>' && b2 == '>':
		pc.format = FormatFASTA
	case (b1 == '@') != (b2 == '@'):
		return &dnaio.FormatError{
			Kind: dnaio.UnknownFormat,
			Line: -1,
			Msg:  "paired-end files mix FASTQ and FASTA input",
		}
	default:
		return &dnaio.FormatError{
			Kind: dnaio.UnknownFormat,
			Line: -1,
			Msg:  "first character in paired-end input must be '@' (FASTQ) or '>' (FASTA)",
		}
	}
	return nil
}

func (pc *PairedChunker) heads(b1, b2 []byte) (int, int, error) {
	if pc.format == FormatFASTA {
		return PairedFastaHeads(b1, b2)
	}
	n1, n2 := PairedFastqHeads(b1, b2)
	return n1, n2, nil
}

// Scan advances to the next chunk pair, returning false at end of input or
// on error.
func (pc *PairedChunker) Scan() bool {
	if pc.err != nil || pc.done {
		return false
	}
	if !pc.started {
		pc.started = true
		if err := pc.detect(); err != nil {
			pc.err = err
			return false
		}
		if pc.done {
			return false
		}
	}
	if pc.havePending {
		copy(pc.buf1, pc.buf1[pc.pendingEnd1:pc.pendingBufEnd1])
		pc.start1 = pc.pendingBufEnd1 - pc.pendingEnd1
		copy(pc.buf2, pc.buf2[pc.pendingEnd2:pc.pendingBufEnd2])
		pc.start2 = pc.pendingBufEnd2 - pc.pendingEnd2
		pc.havePending = false
	}
	for {
		if pc.start1 == len(pc.buf1) && pc.start2 == len(pc.buf2) {
			pc.err = ErrRecordTooLarge
			return false
		}
		n1, err := io.ReadFull(pc.r1, pc.buf1[pc.start1:])
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			pc.err = errors.Wrap(err, "chunks: read")
			return false
		}
		n2, err := io.ReadFull(pc.r2, pc.buf2[pc.start2:])
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			pc.err = errors.Wrap(err, "chunks: read")
			return false
		}
		bufEnd1 := pc.start1 + n1
		bufEnd2 := pc.start2 + n2
		if bufEnd1 == pc.start1 && bufEnd2 == pc.start2 {
			pc.done = true
			if pc.start1 > 0 || pc.start2 > 0 {
				pc.chunk1 = pc.buf1[:pc.start1]
				pc.chunk2 = pc.buf2[:pc.start2]
				pc.start1, pc.start2 = 0, 0
				return true
			}
			return false
		}
		end1, end2, err := pc.heads(pc.buf1[:bufEnd1], pc.buf2[:bufEnd2])
		if err != nil {
			pc.err = err
			return false
		}
		if end1 > 0 || end2 > 0 || pc.format == FormatFASTA {
			pc.chunk1 = pc.buf1[:end1]
			pc.chunk2 = pc.buf2[:end2]
			pc.pendingEnd1, pc.pendingBufEnd1 = end1, bufEnd1
			pc.pendingEnd2, pc.pendingBufEnd2 = end2, bufEnd2
			pc.havePending = true
			return true
		}
		extra := ""
		if bufEnd1 == 0 || bufEnd2 == 0 {
			which := "1"
			if bufEnd2 == 0 {
				which = "2"
			}
			extra = "; file " + which + " ended, but more data found in the other file"
		}
		pc.err = &dnaio.FormatError{
			Kind: dnaio.PrematureEOF,
			Line: -1,
			Msg:  "premature end of paired-end input" + extra,
		}
		return false
	}
}
