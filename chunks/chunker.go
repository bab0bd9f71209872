package chunks

import (
	"io"

	"github.com/pkg/errors"

	"github.com/marcelm/dnaio"
	"github.com/marcelm/dnaio/bam"
)

// Format identifies the detected input format of a Chunker.
type Format int

const (
	FormatUnknown Format = iota
	FormatFASTQ
	FormatFASTA
	FormatBAM
)

// DefaultBufferSize is the default chunk buffer size.
const DefaultBufferSize = 4 * 1024 * 1024

// ErrRecordTooLarge is returned when a single record does not fit into the
// chunk buffer.
var ErrRecordTooLarge = errors.New("chunks: record does not fit into buffer")

// Chunker reads chunks of complete records from a FASTQ, FASTA or unaligned
// BAM stream, detecting the format from the first bytes. FASTQ chunks hold
// an even number of records so interleaved pairs stay together; the final
// chunk at end of input is whatever remains and may hold an odd number.
//
// The chunk returned by Chunk is a view into the internal buffer and is
// only valid until the next call to Scan.
type Chunker struct {
	r   io.Reader
	buf []byte

	start  int // leftover bytes at the front of buf
	chunk  []byte
	format Format

	// Residual move deferred until the chunk has been consumed.
	pendingEnd    int
	pendingBufEnd int
	havePending   bool

	bamHeader []byte
	started   bool
	done      bool
	err       error
}

// NewChunker returns a Chunker reading from r. bufferSize bounds the chunk
// size; zero selects DefaultBufferSize.
func NewChunker(r io.Reader, bufferSize int) (*Chunker, error) {
	if bufferSize == 0 {
		bufferSize = DefaultBufferSize
	}
	if bufferSize < 4 {
		return nil, errors.Errorf("chunks: buffer size must be at least 4, got %d", bufferSize)
	}
	return &Chunker{r: r, buf: make([]byte, bufferSize)}, nil
}

// Chunk returns the chunk produced by the last successful Scan.
func (c *Chunker) Chunk() []byte { return c.chunk }

// Format returns the detected input format. It is valid once Scan has been
// called.
func (c *Chunker) Format() Format { return c.format }

// BAMHeader returns the BAM text header for FormatBAM input, nil otherwise.
func (c *Chunker) BAMHeader() []byte { return c.bamHeader }

// Err returns the terminal error, or nil after a clean end of input.
func (c *Chunker) Err() error { return c.err }

// detect reads the first four bytes and selects the head-scan function. For
// BAM input the stream header is consumed here so that chunks start at the
// first record.
func (c *Chunker) detect() error {
	var first [4]byte
	n, err := io.ReadFull(c.r, first[:])
	if n == 0 {
		if err == io.EOF {
			c.done = true
			return nil
		}
		return errors.Wrap(err, "chunks: read")
	}
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return errors.Wrap(err, "chunks: read")
	}
	switch {
	case first[0] == '@':
		c.format = FormatFASTQ
	case first[0] == '>' || first[0] == '#':
		c.format = FormatFASTA
	case n == 4 && first == [4]byte{'B', 'A', 'M', 1}:
		c.format = FormatBAM
		header, err := bam.ReadHeaderAfterMagic(c.r)
		if err != nil {
			return err
		}
		c.bamHeader = header
		return nil
	default:
		return &dnaio.FormatError{
			Kind: dnaio.UnknownFormat,
			Line: -1,
			Msg:  "cannot determine input file format: first character expected to be '@', '>' or '#', or BAM magic",
		}
	}
	copy(c.buf, first[:n])
	c.start = n
	return nil
}

func (c *Chunker) head(buf []byte) (int, error) {
	switch c.format {
	case FormatFASTQ:
		return FastqHead(buf), nil
	case FormatFASTA:
		return FastaHead(buf)
	default:
		return BamHead(buf), nil
	}
}

// Scan advances to the next chunk, returning false at end of input or on
// error.
func (c *Chunker) Scan() bool {
	if c.err != nil || c.done {
		return false
	}
	if !c.started {
		c.started = true
		if err := c.detect(); err != nil {
			c.err = err
			return false
		}
		if c.done {
			return false
		}
	}
	if c.havePending {
		copy(c.buf, c.buf[c.pendingEnd:c.pendingBufEnd])
		c.start = c.pendingBufEnd - c.pendingEnd
		c.havePending = false
	}
	for {
		if c.start == len(c.buf) {
			c.err = ErrRecordTooLarge
			return false
		}
		n, err := io.ReadFull(c.r, c.buf[c.start:])
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			c.err = errors.Wrap(err, "chunks: read")
			return false
		}
		bufEnd := c.start + n
		if bufEnd == c.start {
			c.done = true
			if c.start > 0 {
				c.chunk = c.buf[:c.start]
				c.start = 0
				return true
			}
			return false
		}
		end, err := c.head(c.buf[:bufEnd])
		if err != nil {
			c.err = err
			return false
		}
		if end > 0 {
			c.chunk = c.buf[:end]
			c.pendingEnd, c.pendingBufEnd = end, bufEnd
			c.havePending = true
			return true
		}
		c.start = bufEnd
	}
}
