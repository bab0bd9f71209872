package fastq

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/marcelm/dnaio"
)

var (
	// ErrDiscordant is returned when two successive records of an
	// interleaved stream do not belong to the same fragment.
	ErrDiscordant = errors.New("fastq: interleaved records are improperly paired")
	// ErrOddRecordCount is returned when an interleaved stream ends after
	// the first record of a pair.
	ErrOddRecordCount = errors.New("fastq: interleaved input ended mid-pair")
)

// InterleavedParser reads mate pairs from a single interleaved FASTQ
// stream: records alternate R1, R2, R1, R2, ... and successive records must
// have matching ids.
type InterleavedParser[T dnaio.Text] struct {
	p      *Parser[T]
	r1, r2 *dnaio.Record[T]
	err    error
}

// NewInterleavedParser returns an InterleavedParser reading from r.
func NewInterleavedParser[T dnaio.Text](r io.Reader) (*InterleavedParser[T], error) {
	p, err := NewParser[T](r)
	if err != nil {
		return nil, err
	}
	return &InterleavedParser[T]{p: p}, nil
}

// Scan advances to the next mate pair, returning false at end of input or
// on error.
func (ip *InterleavedParser[T]) Scan() bool {
	if ip.err != nil {
		return false
	}
	if !ip.p.Scan() {
		ip.err = ip.p.Err()
		return false
	}
	r1 := ip.p.Record()
	if !ip.p.Scan() {
		if err := ip.p.Err(); err != nil {
			ip.err = err
		} else {
			ip.err = errors.Wrapf(ErrOddRecordCount, "record %q has no mate", string(r1.ID()))
		}
		return false
	}
	r2 := ip.p.Record()
	if !dnaio.RecordsAreMates(r1, r2) {
		ip.err = errors.Wrap(ErrDiscordant,
			fmt.Sprintf("%q does not match %q", string(r1.ID()), string(r2.ID())))
		return false
	}
	ip.r1, ip.r2 = r1, r2
	return true
}

// Pair returns the mate pair extracted by the last successful Scan.
func (ip *InterleavedParser[T]) Pair() (r1, r2 *dnaio.Record[T]) { return ip.r1, ip.r2 }

// Err returns the terminal error, or nil after a clean end of input.
func (ip *InterleavedParser[T]) Err() error { return ip.err }
