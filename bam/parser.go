// Package bam decodes unaligned BAM streams into dnaio records.
//
// Only unmapped single reads (flag == 4) are supported; the auxiliary tag
// block of each record is preserved verbatim on the emitted record. The
// input must already be uncompressed: BGZF/gzip handling belongs to the
// caller.
package bam

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/marcelm/dnaio"
	"github.com/marcelm/dnaio/seqsimd"
)

var bamMagic = [4]byte{'B', 'A', 'M', 1}

// DefaultReadInSize is the minimum number of bytes requested per refill.
const DefaultReadInSize = 128 * 1024

// fixedHeaderSize is the size of the per-record fixed fields after
// block_size.
const fixedHeaderSize = 32

// ParserOpts configures a Parser.
type ParserOpts struct {
	// ReadInSize is the minimum refill chunk size. Zero selects
	// DefaultReadInSize; values below 4 are rejected.
	ReadInSize int
}

// Parser reads unmapped single-read BAM records from an io.Reader. Usage
// mirrors fastq.Parser: Scan/Record/Err, one goroutine per parser.
type Parser[T dnaio.Text] struct {
	r      io.Reader
	header []byte

	buf   []byte
	start int
	end   int

	rec *dnaio.Record[T]
	err error
	eof bool

	nRecords   uint64
	readInSize int
}

// NewParser reads the BAM header from r and returns a Parser positioned at
// the first record.
func NewParser[T dnaio.Text](r io.Reader) (*Parser[T], error) {
	return NewParserOpts[T](r, ParserOpts{})
}

// NewParserOpts is NewParser with options.
func NewParserOpts[T dnaio.Text](r io.Reader, opts ParserOpts) (*Parser[T], error) {
	size := opts.ReadInSize
	if size == 0 {
		size = DefaultReadInSize
	}
	if size < 4 {
		return nil, errors.Errorf("bam: read-in size must be at least 4, got %d", size)
	}
	header, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	return &Parser[T]{
		r:          r,
		header:     header,
		buf:        make([]byte, size),
		readInSize: size,
	}, nil
}

// Header returns the BAM text header (the SAM header), verbatim.
func (p *Parser[T]) Header() []byte { return p.header }

// Err returns the terminal error, or nil after a clean end of input.
func (p *Parser[T]) Err() error { return p.err }

// Record returns the record extracted by the last successful Scan.
func (p *Parser[T]) Record() *dnaio.Record[T] { return p.rec }

// RecordsEmitted returns the number of records scanned so far.
func (p *Parser[T]) RecordsEmitted() uint64 { return p.nRecords }

// ReadHeader consumes the BAM magic, the text header and the reference
// list from r and returns the text header. The reference descriptions are
// discarded: unmapped records never refer to them.
func ReadHeader(r io.Reader) ([]byte, error) {
	var magicAndSize [8]byte
	if _, err := io.ReadFull(r, magicAndSize[:]); err != nil {
		return nil, truncated(err)
	}
	if [4]byte(magicAndSize[:4]) != bamMagic {
		return nil, &dnaio.FormatError{
			Kind: dnaio.BadMagic,
			Line: -1,
			Msg:  "not a BAM file: no BAM magic number found",
		}
	}
	header := make([]byte, binary.LittleEndian.Uint32(magicAndSize[4:]))
	return readHeaderBody(r, header)
}

// ReadHeaderAfterMagic reads a BAM header when the four magic bytes have
// already been consumed, returning the text header and skipping the
// reference list. The chunks package uses it after format detection.
func ReadHeaderAfterMagic(r io.Reader) ([]byte, error) {
	var scratch [4]byte
	if _, err := io.ReadFull(r, scratch[:]); err != nil {
		return nil, truncated(err)
	}
	header := make([]byte, binary.LittleEndian.Uint32(scratch[:]))
	return readHeaderBody(r, header)
}

func readHeaderBody(r io.Reader, header []byte) ([]byte, error) {
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, truncated(err)
	}
	var scratch [4]byte
	if _, err := io.ReadFull(r, scratch[:]); err != nil { // n_ref
		return nil, truncated(err)
	}
	nRef := binary.LittleEndian.Uint32(scratch[:])
	for i := uint32(0); i != nRef; i++ {
		if _, err := io.ReadFull(r, scratch[:]); err != nil {
			return nil, truncated(err)
		}
		lName := binary.LittleEndian.Uint32(scratch[:])
		if _, err := io.CopyN(io.Discard, r, int64(lName)+4); err != nil {
			return nil, truncated(err)
		}
	}
	return header, nil
}

func truncated(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return &dnaio.FormatError{Kind: dnaio.Truncated, Line: -1, Msg: "truncated BAM file"}
	}
	return errors.Wrap(err, "bam: read")
}

// Scan advances the parser to the next record, returning false at end of
// input or on error.
func (p *Parser[T]) Scan() bool {
	if p.err != nil {
		return false
	}
	for {
		if p.end-p.start >= 4 {
			blockSize := int(binary.LittleEndian.Uint32(p.buf[p.start:]))
			if p.end-p.start >= 4+blockSize {
				rec, err := p.decodeRecord(p.buf[p.start+4 : p.start+4+blockSize])
				if err != nil {
					p.err = err
					return false
				}
				p.start += 4 + blockSize
				p.rec = rec
				p.nRecords++
				return true
			}
			if p.eof {
				p.err = p.truncatedRecord()
				return false
			}
			if err := p.refill(4 + blockSize); err != nil {
				p.err = err
				return false
			}
			continue
		}
		if p.eof {
			if p.start == p.end {
				return false
			}
			p.err = p.truncatedRecord()
			return false
		}
		if err := p.refill(4); err != nil {
			p.err = err
			return false
		}
	}
}

func (p *Parser[T]) truncatedRecord() error {
	return &dnaio.FormatError{
		Kind: dnaio.Truncated,
		Line: -1,
		Msg:  "truncated BAM file: input ended inside a record",
	}
}

// refill compacts the residual to the front of the buffer, grows the buffer
// to hold at least need bytes, and tops it up with one read.
func (p *Parser[T]) refill(need int) error {
	if p.start > 0 {
		copy(p.buf, p.buf[p.start:p.end])
		p.end -= p.start
		p.start = 0
	}
	if want := max(need, p.readInSize); len(p.buf) < want {
		nb := make([]byte, want)
		copy(nb, p.buf[:p.end])
		p.buf = nb
	} else if p.end == len(p.buf) {
		nb := make([]byte, 2*len(p.buf))
		copy(nb, p.buf[:p.end])
		p.buf = nb
	}
	n, err := p.r.Read(p.buf[p.end:])
	p.end += n
	switch {
	case err == io.EOF:
		p.eof = true
	case err != nil:
		return errors.Wrap(err, "bam: read")
	case n == 0:
		p.eof = true
	}
	return nil
}

// decodeRecord decodes one record body (everything after block_size).
func (p *Parser[T]) decodeRecord(b []byte) (*dnaio.Record[T], error) {
	if len(b) < fixedHeaderSize {
		return nil, p.truncatedRecord()
	}
	lReadName := int(b[8])
	nCigarOp := int(binary.LittleEndian.Uint16(b[12:]))
	flag := binary.LittleEndian.Uint16(b[14:])
	lSeq := int(binary.LittleEndian.Uint32(b[16:]))

	if flag != 4 {
		return nil, &dnaio.FormatError{
			Kind: dnaio.Unsupported,
			Line: -1,
			Msg: fmt.Sprintf("only unmapped single reads (flag == 4) are supported, found flag %d; "+
				"use 'samtools fastq' to convert aligned BAM", flag),
		}
	}

	off := fixedHeaderSize
	if lReadName < 1 || off+lReadName > len(b) {
		return nil, p.truncatedRecord()
	}
	name := b[off : off+lReadName-1] // drop the trailing NUL
	off += lReadName

	off += nCigarOp * 4
	nPacked := (lSeq + 1) / 2
	if off < 0 || off+nPacked+lSeq > len(b) {
		return nil, p.truncatedRecord()
	}
	packed := b[off : off+nPacked]
	off += nPacked
	rawQuals := b[off : off+lSeq]
	off += lSeq
	tags := b[off:]

	seq := make([]byte, lSeq)
	seqsimd.UnpackSeq(seq, packed)

	hasQuals := !(lSeq > 0 && rawQuals[0] == 0xff)
	var quals []byte
	if hasQuals {
		quals = make([]byte, lSeq)
		seqsimd.QualsToASCII(quals, rawQuals)
	}

	rec := dnaio.NewUnsafe(
		dnaio.CopyText[T](name),
		dnaio.AsText[T](seq),
		dnaio.AsText[T](quals),
		hasQuals,
	)
	if len(tags) > 0 {
		rec = rec.WithTags(append([]byte(nil), tags...))
	}
	return rec, nil
}
