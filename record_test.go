package dnaio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidates(t *testing.T) {
	r, err := New("read1", "ACGT", "!!!!")
	require.NoError(t, err)
	assert.Equal(t, "read1", r.Name())
	assert.Equal(t, "ACGT", r.Sequence())
	q, ok := r.Qualities()
	assert.True(t, ok)
	assert.Equal(t, "!!!!", q)
	assert.Equal(t, 4, r.Len())

	_, err = New("read1", "ACGT", "!!!")
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, LengthMismatch, fe.Kind)

	_, err = New("read1", "ACG\xc3T", "!!!!!")
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, NonASCII, fe.Kind)

	_, err = New("read\xff", "ACGT", "!!!!")
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, NonASCII, fe.Kind)
}

func TestNewWithoutQualities(t *testing.T) {
	r, err := NewWithoutQualities[[]byte]([]byte("r"), []byte("ACGT"))
	require.NoError(t, err)
	_, ok := r.Qualities()
	assert.False(t, ok)
	assert.Nil(t, r.QualitiesAsBytes())

	_, err = r.FastqBytes(false)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, QualitiesRequired, fe.Kind)
}

func TestIDAndComment(t *testing.T) {
	r, err := New("r1 desc", "AC", "BB")
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID())
	c, ok := r.Comment()
	assert.True(t, ok)
	assert.Equal(t, "desc", c)

	// Runs of spaces and tabs before the comment are skipped.
	r, err = New("r1 \t more", "AC", "BB")
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID())
	c, ok = r.Comment()
	assert.True(t, ok)
	assert.Equal(t, "more", c)

	// No whitespace: the id is the whole name, no comment.
	r, err = New("lonely", "AC", "BB")
	require.NoError(t, err)
	assert.Equal(t, "lonely", r.ID())
	_, ok = r.Comment()
	assert.False(t, ok)

	// Trailing whitespace only: comment is absent.
	r, err = New("r1   ", "AC", "BB")
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID())
	_, ok = r.Comment()
	assert.False(t, ok)
}

func TestEqual(t *testing.T) {
	a, _ := New("r", "ACGT", "!!!!")
	b, _ := New("r", "ACGT", "!!!!")
	c, _ := New("r", "ACGT", "!!!#")
	d, _ := NewWithoutQualities("r", "ACGT")
	e, _ := NewWithoutQualities("r", "ACGT")
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
	assert.True(t, d.Equal(e))
}

func TestFastqBytes(t *testing.T) {
	r, err := New("r1 desc", "ACGT", "!!!!")
	require.NoError(t, err)
	b, err := r.FastqBytes(false)
	require.NoError(t, err)
	assert.Equal(t, "@r1 desc\nACGT\n+\n!!!!\n", string(b))

	b, err = r.FastqBytes(true)
	require.NoError(t, err)
	assert.Equal(t, "@r1 desc\nACGT\n+r1 desc\n!!!!\n", string(b))
	assert.Equal(t, len(b), cap(b))
}

func TestReverseComplement(t *testing.T) {
	r, err := New("r", "AACGTN", "!#$%&'")
	require.NoError(t, err)
	rc := r.ReverseComplement()
	assert.Equal(t, "NACGTT", rc.Sequence())
	q, _ := rc.Qualities()
	assert.Equal(t, "'&%$#!", q)
	assert.Equal(t, "r", rc.Name())

	// Involution on the ACGTN alphabet, both cases.
	r, err = New("r", "acgtnACGTN", "0123456789")
	require.NoError(t, err)
	back := r.ReverseComplement().ReverseComplement()
	assert.True(t, r.Equal(back))

	// IUPAC codes complement pairwise; unknown bytes map to themselves.
	r, err = New("r", "RYSWKM-", "0123456")
	require.NoError(t, err)
	assert.Equal(t, "-KMWSRY", r.ReverseComplement().Sequence())

	// Qualities absent stay absent.
	nr, _ := NewWithoutQualities("r", "ACGT")
	_, ok := nr.ReverseComplement().Qualities()
	assert.False(t, ok)
}

func TestSlice(t *testing.T) {
	r, err := New("r", "ACGTACGT", "01234567")
	require.NoError(t, err)
	s, err := r.Slice(2, 6)
	require.NoError(t, err)
	assert.Equal(t, "GTAC", s.Sequence())
	q, _ := s.Qualities()
	assert.Equal(t, "2345", q)
	assert.Equal(t, "r", s.Name())

	// Slice composition: r[2:6][1:3] == r[3:5].
	s2, err := s.Slice(1, 3)
	require.NoError(t, err)
	want, err := r.Slice(3, 5)
	require.NoError(t, err)
	assert.True(t, s2.Equal(want))

	assert.Panics(t, func() { _, _ = r.Slice(3, 100) })
	assert.Panics(t, func() { _, _ = r.Slice(-1, 3) })
}

func TestSliceStep(t *testing.T) {
	r, err := New("r", "ACGTACGT", "01234567")
	require.NoError(t, err)
	s, err := r.SliceStep(0, 8, 2)
	require.NoError(t, err)
	assert.Equal(t, "AGAG", s.Sequence())
	q, _ := s.Qualities()
	assert.Equal(t, "0246", q)

	s, err = r.SliceStep(1, 8, 3)
	require.NoError(t, err)
	assert.Equal(t, "CAT", s.Sequence())

	assert.Panics(t, func() { _, _ = r.SliceStep(0, 4, 0) })
}

func TestBytesFlavor(t *testing.T) {
	r, err := New([]byte("r1 x"), []byte("ACGT"), []byte("!!!!"))
	require.NoError(t, err)
	assert.Equal(t, []byte("r1"), r.ID())
	assert.Equal(t, []byte("!!!!"), r.QualitiesAsBytes())
	b, err := r.FastqBytes(false)
	require.NoError(t, err)
	assert.Equal(t, "@r1 x\nACGT\n+\n!!!!\n", string(b))
}
