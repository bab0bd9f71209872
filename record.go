package dnaio

import (
	gunsafe "github.com/grailbio/base/unsafe"

	"github.com/marcelm/dnaio/seqsimd"
)

// Text constrains the two storage flavors of a Record.
type Text interface {
	string | []byte
}

// CopyText copies b into a fresh value of flavor T.
func CopyText[T Text](b []byte) T {
	var zero T
	switch any(zero).(type) {
	case string:
		return any(string(b)).(T)
	default:
		c := make([]byte, len(b))
		copy(c, b)
		return any(c).(T)
	}
}

// AsText converts b to flavor T. For T = []byte the result shares b's
// backing array; callers hand over ownership of b.
func AsText[T Text](b []byte) T {
	var zero T
	switch any(zero).(type) {
	case string:
		return any(string(b)).(T)
	default:
		return any(b).(T)
	}
}

// textBytes returns the bytes of t without copying. The result must be
// treated as read-only.
func textBytes[T Text](t T) []byte {
	switch v := any(t).(type) {
	case string:
		return gunsafe.StringToBytes(v)
	case []byte:
		return v
	}
	return nil
}

func appendText[T Text](dst []byte, t T) []byte {
	switch v := any(t).(type) {
	case string:
		return append(dst, v...)
	case []byte:
		return append(dst, v...)
	}
	return dst
}

// Record is an immutable sequencing read: a name, a nucleotide sequence and
// optional per-base qualities, all 7-bit ASCII. Records must not be modified
// after construction; derived records are produced by Slice,
// ReverseComplement and WithTags.
//
// A record decoded from BAM additionally carries its auxiliary tag block
// verbatim (see Tags).
type Record[T Text] struct {
	name      T
	sequence  T
	qualities T
	hasQuals  bool
	tags      []byte
	idLen     int // bytes of name before the first space or tab; -1 until computed
}

// New constructs a record with qualities. It fails with a NonASCII
// FormatError if any field contains a byte >= 0x80, and with LengthMismatch
// if sequence and qualities differ in length.
func New[T Text](name, sequence, qualities T) (*Record[T], error) {
	if err := checkASCII(name, "name"); err != nil {
		return nil, err
	}
	if err := checkASCII(sequence, "sequence"); err != nil {
		return nil, err
	}
	if err := checkASCII(qualities, "qualities"); err != nil {
		return nil, err
	}
	if len(sequence) != len(qualities) {
		return nil, formatErrorf(LengthMismatch, -1,
			"lengths of sequence (%d) and qualities (%d) differ", len(sequence), len(qualities))
	}
	return &Record[T]{name: name, sequence: sequence, qualities: qualities, hasQuals: true, idLen: -1}, nil
}

// NewWithoutQualities constructs a record that carries no quality values,
// as produced by FASTA input or by BAM records with missing qualities.
func NewWithoutQualities[T Text](name, sequence T) (*Record[T], error) {
	if err := checkASCII(name, "name"); err != nil {
		return nil, err
	}
	if err := checkASCII(sequence, "sequence"); err != nil {
		return nil, err
	}
	return &Record[T]{name: name, sequence: sequence, idLen: -1}, nil
}

// NewUnsafe constructs a record without re-validating its fields. It is
// meant for parsers that have already established ASCII purity and length
// agreement for the whole input. The record takes ownership of the values.
func NewUnsafe[T Text](name, sequence, qualities T, hasQualities bool) *Record[T] {
	return &Record[T]{name: name, sequence: sequence, qualities: qualities, hasQuals: hasQualities, idLen: -1}
}

func checkASCII[T Text](t T, field string) error {
	if !seqsimd.ASCIIOnly(textBytes(t)) {
		return formatErrorf(NonASCII, -1, "non-ASCII characters found in record %s", field)
	}
	return nil
}

// Name returns the record name without the leading '@'.
func (r *Record[T]) Name() T { return r.name }

// Sequence returns the nucleotide sequence.
func (r *Record[T]) Sequence() T { return r.sequence }

// Qualities returns the Phred+33 quality string and whether qualities are
// present.
func (r *Record[T]) Qualities() (T, bool) { return r.qualities, r.hasQuals }

// QualitiesAsBytes returns the qualities as raw ASCII bytes, or nil when the
// record has none. The result shares the record's storage and must not be
// modified.
func (r *Record[T]) QualitiesAsBytes() []byte {
	if !r.hasQuals {
		return nil
	}
	return textBytes(r.qualities)
}

// Tags returns the BAM auxiliary tag block carried by this record, verbatim,
// or nil for records without one.
func (r *Record[T]) Tags() []byte { return r.tags }

// WithTags returns a copy of r that carries the given BAM auxiliary tag
// block. The record takes ownership of tags.
func (r *Record[T]) WithTags(tags []byte) *Record[T] {
	nr := *r
	nr.tags = tags
	return &nr
}

// Len returns the number of bases in the sequence.
func (r *Record[T]) Len() int { return len(r.sequence) }

func (r *Record[T]) computeIDLen() int {
	if r.idLen < 0 {
		n := len(r.name)
		r.idLen = n
		for i := 0; i != n; i++ {
			if c := r.name[i]; c == ' ' || c == '\t' {
				r.idLen = i
				break
			}
		}
	}
	return r.idLen
}

// ID returns the prefix of the name up to the first space or tab. The result
// shares the name's storage.
func (r *Record[T]) ID() T {
	return r.name[:r.computeIDLen()]
}

// Comment returns the part of the name after the first whitespace run and
// whether it is non-empty.
func (r *Record[T]) Comment() (T, bool) {
	i := r.computeIDLen()
	n := len(r.name)
	for i != n && (r.name[i] == ' ' || r.name[i] == '\t') {
		i++
	}
	if i == n {
		var zero T
		return zero, false
	}
	return r.name[i:], true
}

// Equal reports whether r and other agree in name, sequence and qualities,
// byte for byte. Two records without qualities have equal qualities; a
// record with qualities never equals one without.
func (r *Record[T]) Equal(other *Record[T]) bool {
	if r.hasQuals != other.hasQuals {
		return false
	}
	if string(r.name) != string(other.name) || string(r.sequence) != string(other.sequence) {
		return false
	}
	return !r.hasQuals || string(r.qualities) == string(other.qualities)
}

// IsMate reports whether r and other belong to the same read pair, i.e.
// their ids agree up to a trailing pair digit ('1', '2' or '3').
func (r *Record[T]) IsMate(other *Record[T]) bool {
	return headersAreMates(r.name, other.name)
}

// complementTable maps each nucleotide byte to its complement, covering the
// IUPAC ambiguity codes in both cases. Bytes outside the alphabet map to
// themselves.
var complementTable = func() (t [256]byte) {
	for i := range t {
		t[i] = byte(i)
	}
	const from = "ACGTUMRWSYKVHDBN"
	const to = "TGCAAKYWSRMBDHVN"
	for i := 0; i != len(from); i++ {
		t[from[i]] = to[i]
		t[from[i]|0x20] = to[i] | 0x20
	}
	return
}()

// ReverseComplement returns a record with the same name, the
// reverse-complemented sequence and, if present, reversed qualities.
// Per-base auxiliary tags (mv, ns, ts, MM, ML, MN, du) are dropped because
// they are defined in sequencing order; all other tags are kept.
func (r *Record[T]) ReverseComplement() *Record[T] {
	n := len(r.sequence)
	seq := make([]byte, n)
	for i := 0; i != n; i++ {
		seq[i] = complementTable[r.sequence[n-1-i]]
	}
	nr := &Record[T]{name: r.name, sequence: AsText[T](seq), hasQuals: r.hasQuals, idLen: r.idLen}
	if r.hasQuals {
		qual := make([]byte, n)
		for i := 0; i != n; i++ {
			qual[i] = r.qualities[n-1-i]
		}
		nr.qualities = AsText[T](qual)
	}
	if r.tags != nil {
		nr.tags = dropPerBaseTags(r.tags)
	}
	return nr
}

// Slice returns the record restricted to bases [start, stop). The name is
// unchanged; sequence and qualities are sliced by the same range and share
// the record's storage. For BAM-sourced records carrying an mv move table,
// the per-base auxiliary tags mv, ns and ts are recomputed for the subrange,
// MN and du are dropped, and all other tags are copied unchanged; without an
// mv tag the tag block is kept unchanged. Slice panics if the range is out of
// bounds; it returns an error only for a corrupt auxiliary tag block.
func (r *Record[T]) Slice(start, stop int) (*Record[T], error) {
	if start < 0 || stop < start || stop > len(r.sequence) {
		panic("dnaio: record slice out of range")
	}
	nr := &Record[T]{
		name:     r.name,
		sequence: r.sequence[start:stop],
		hasQuals: r.hasQuals,
		idLen:    r.idLen,
	}
	if r.hasQuals {
		nr.qualities = r.qualities[start:stop]
	}
	if r.tags != nil {
		tags, err := trimTags(r.tags, start, stop, len(r.sequence))
		if err != nil {
			return nil, err
		}
		nr.tags = tags
	}
	return nr, nil
}

// SliceStep returns the record restricted to every step-th base of
// [start, stop), step >= 1. With step > 1 the per-base auxiliary tags
// (mv, ns, ts, MM, ML, MN, du) are dropped rather than adjusted; the
// remaining tags are kept. SliceStep panics if the range is out of bounds
// or step < 1.
func (r *Record[T]) SliceStep(start, stop, step int) (*Record[T], error) {
	if step == 1 {
		return r.Slice(start, stop)
	}
	if step < 1 {
		panic("dnaio: record slice step must be >= 1")
	}
	if start < 0 || stop < start || stop > len(r.sequence) {
		panic("dnaio: record slice out of range")
	}
	n := (stop - start + step - 1) / step
	seq := make([]byte, n)
	for i := 0; i != n; i++ {
		seq[i] = r.sequence[start+i*step]
	}
	nr := &Record[T]{name: r.name, sequence: AsText[T](seq), hasQuals: r.hasQuals, idLen: r.idLen}
	if r.hasQuals {
		qual := make([]byte, n)
		for i := 0; i != n; i++ {
			qual[i] = r.qualities[start+i*step]
		}
		nr.qualities = AsText[T](qual)
	}
	if r.tags != nil {
		nr.tags = dropPerBaseTags(r.tags)
	}
	return nr, nil
}
