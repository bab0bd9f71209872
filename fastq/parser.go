// Package fastq implements a streaming FASTQ parser and writer.
//
// The parser owns a single growable buffer and locates record boundaries
// with a vectorized newline scan, so record fields are not copied until a
// record is emitted. It tolerates CRLF line endings and a missing final
// newline and validates the four-line record structure, including an
// optional repeated header on the separator line.
package fastq

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/marcelm/dnaio"
	"github.com/marcelm/dnaio/seqsimd"
)

// DefaultBufferSize is the initial parse buffer size, matching the chunk
// size used by cat, pigz and friends.
const DefaultBufferSize = 128 * 1024

// ParserOpts configures a Parser.
type ParserOpts[T dnaio.Text] struct {
	// BufferSize is the initial size of the parse buffer. The buffer grows
	// as needed to hold one complete record. Zero selects
	// DefaultBufferSize; negative values are rejected.
	BufferSize int
	// NewRecord, if non-nil, is called with the decoded name, sequence and
	// qualities of every record in place of the internal fast-path
	// constructor.
	NewRecord func(name, sequence, qualities T) (*dnaio.Record[T], error)
}

// Parser reads FASTQ records from an io.Reader. A Parser is consumed by a
// single goroutine:
//
//	p, err := fastq.NewParser[[]byte](r)
//	for p.Scan() {
//		rec := p.Record()
//		...
//	}
//	if err := p.Err(); err != nil { ... }
//
// Once Scan has returned false it never returns true again, and Err keeps
// reporting the same error.
type Parser[T dnaio.Text] struct {
	r         io.Reader
	newRecord func(name, sequence, qualities T) (*dnaio.Record[T], error)

	buf   []byte
	start int // beginning of the next unparsed record
	end   int // total valid bytes in buf

	rec          *dnaio.Record[T]
	err          error
	eof          bool
	extraNewline bool // a synthetic final '\n' was appended at EOF
	done         bool

	nRecords   uint64
	twoHeaders bool
}

// NewParser returns a Parser with default options.
func NewParser[T dnaio.Text](r io.Reader) (*Parser[T], error) {
	return NewParserOpts[T](r, ParserOpts[T]{})
}

// NewParserOpts returns a Parser reading from r with the given options.
func NewParserOpts[T dnaio.Text](r io.Reader, opts ParserOpts[T]) (*Parser[T], error) {
	size := opts.BufferSize
	if size == 0 {
		size = DefaultBufferSize
	}
	if size < 1 {
		return nil, errors.Errorf("fastq: buffer size must be at least 1, got %d", size)
	}
	return &Parser[T]{
		r:         r,
		newRecord: opts.NewRecord,
		buf:       make([]byte, size),
	}, nil
}

// Scan advances the parser to the next record, returning false at end of
// input or on error.
func (p *Parser[T]) Scan() bool {
	if p.err != nil || p.done {
		return false
	}
	for {
		rec, ok, err := p.parseRecord()
		if err != nil {
			p.err = err
			return false
		}
		if ok {
			p.rec = rec
			p.nRecords++
			return true
		}
		if p.eof {
			if p.start == p.end {
				p.done = true
				return false
			}
			if p.buf[p.end-1] != '\n' && !p.extraNewline {
				if p.end == len(p.buf) {
					p.grow()
				}
				p.buf[p.end] = '\n'
				p.end++
				p.extraNewline = true
				continue
			}
			p.err = p.prematureEOF()
			return false
		}
		if err := p.refill(); err != nil {
			p.err = err
			return false
		}
	}
}

// Record returns the record extracted by the last successful Scan.
func (p *Parser[T]) Record() *dnaio.Record[T] { return p.rec }

// Err returns the terminal error, or nil after a clean end of input.
func (p *Parser[T]) Err() error { return p.err }

// RecordsEmitted returns the number of records scanned so far.
func (p *Parser[T]) RecordsEmitted() uint64 { return p.nRecords }

// TwoHeaders reports whether the first record of the stream repeated its
// header on the separator line. It is valid once the first Scan has
// returned; writers use it to keep the output style of the input.
func (p *Parser[T]) TwoHeaders() bool { return p.twoHeaders }

func (p *Parser[T]) grow() {
	nb := make([]byte, 2*len(p.buf))
	copy(nb, p.buf[:p.end])
	p.buf = nb
}

// refill moves the residual [start, end) to the front of the buffer,
// doubling it when a record spans the whole buffer, and tops the buffer up
// with one read. Newly read bytes must be pure ASCII. A read of zero bytes
// marks end of input.
func (p *Parser[T]) refill() error {
	if p.start == 0 {
		if p.end == len(p.buf) {
			p.grow()
		}
	} else {
		copy(p.buf, p.buf[p.start:p.end])
		p.end -= p.start
		p.start = 0
	}
	n, err := p.r.Read(p.buf[p.end:])
	if n > 0 {
		if !seqsimd.ASCIIOnly(p.buf[p.end : p.end+n]) {
			return &dnaio.FormatError{
				Kind: dnaio.NonASCII,
				Line: -1,
				Msg:  "non-ASCII characters found in FASTQ input",
			}
		}
		p.end += n
	}
	switch {
	case err == io.EOF:
		p.eof = true
	case err != nil:
		return errors.Wrap(err, "fastq: read")
	case n == 0:
		p.eof = true
	}
	return nil
}

// parseRecord attempts to extract one record from the buffered bytes. It
// returns ok == false when fewer than four newlines are buffered.
func (p *Parser[T]) parseRecord() (*dnaio.Record[T], bool, error) {
	buf := p.buf[:p.end]
	var nl [4]int
	pos := p.start
	for i := 0; i != 4; i++ {
		j := bytes.IndexByte(buf[pos:], '\n')
		if j < 0 {
			return nil, false, nil
		}
		nl[i] = pos + j
		pos = nl[i] + 1
	}

	line := int(4 * p.nRecords)
	if buf[p.start] != '@' {
		return nil, false, &dnaio.FormatError{
			Kind: dnaio.BadHeader,
			Line: line,
			Msg:  formatBadStart('@', buf[p.start]),
		}
	}
	if buf[nl[1]+1] != '+' {
		return nil, false, &dnaio.FormatError{
			Kind: dnaio.BadSeparator,
			Line: line + 2,
			Msg:  formatBadStart('+', buf[nl[1]+1]),
		}
	}

	name := stripCR(buf[p.start+1 : nl[0]])
	seq := stripCR(buf[nl[0]+1 : nl[1]])
	sep := stripCR(buf[nl[1]+2 : nl[2]])
	qual := stripCR(buf[nl[2]+1 : nl[3]])

	if len(sep) > 0 {
		if !bytes.Equal(sep, name) {
			return nil, false, &dnaio.FormatError{
				Kind: dnaio.HeaderMismatch,
				Line: line + 2,
				Msg: "sequence descriptions don't match ('" +
					string(name) + "' != '" + string(sep) +
					"'); the second description must be either empty or equal to the first",
			}
		}
		if p.nRecords == 0 {
			p.twoHeaders = true
		}
	}
	if len(qual) != len(seq) {
		return nil, false, &dnaio.FormatError{
			Kind: dnaio.LengthMismatch,
			Line: line + 3,
			Msg:  "length of sequence and qualities differ",
		}
	}

	p.start = nl[3] + 1
	rec, err := p.makeRecord(name, seq, qual)
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// makeRecord copies the three spans out of the parse buffer before the next
// refill can invalidate them. The fast path skips re-validation: every
// refill has already passed the ASCII gate, and the length check happened
// during parsing.
func (p *Parser[T]) makeRecord(name, seq, qual []byte) (*dnaio.Record[T], error) {
	n := dnaio.CopyText[T](name)
	s := dnaio.CopyText[T](seq)
	q := dnaio.CopyText[T](qual)
	if p.newRecord != nil {
		return p.newRecord(n, s, q)
	}
	return dnaio.NewUnsafe(n, s, q, true), nil
}

func (p *Parser[T]) prematureEOF() error {
	residual := p.buf[p.start:p.end]
	newlines := bytes.Count(residual, []byte{'\n'})
	if p.extraNewline {
		newlines--
		residual = residual[:len(residual)-1]
	}
	return &dnaio.FormatError{
		Kind: dnaio.PrematureEOF,
		Line: int(4*p.nRecords) + newlines,
		Msg: "premature end of file; the incomplete final record was: '" +
			dnaio.Shorten(string(residual), 500) + "'",
	}
}

func stripCR(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}

func formatBadStart(want, got byte) string {
	return "line expected to start with '" + string(want) + "', but found " + quoteByte(got)
}

func quoteByte(c byte) string {
	switch c {
	case '\n':
		return `'\n'`
	case '\r':
		return `'\r'`
	case '\t':
		return `'\t'`
	}
	return "'" + string(c) + "'"
}
