package dnaio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intTag(name string, v int32) []byte {
	b := []byte{name[0], name[1], 'i'}
	return binary.LittleEndian.AppendUint32(b, uint32(v))
}

func mvTag(stride int8, table []byte) []byte {
	b := []byte{'m', 'v', 'B', 'c'}
	b = binary.LittleEndian.AppendUint32(b, uint32(len(table)+1))
	b = append(b, byte(stride))
	return append(b, table...)
}

func zTag(name, value string) []byte {
	b := []byte{name[0], name[1], 'Z'}
	b = append(b, value...)
	return append(b, 0)
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// Four bases; their moves begin at table indexes 0, 2, 5 and 6.
var moveTable = []byte{1, 0, 1, 0, 0, 1, 1, 0}

func bamRecord(t *testing.T, tags []byte) *Record[[]byte] {
	t.Helper()
	rec := NewUnsafe([]byte("r"), []byte("ACGT"), []byte("!!!!"), true)
	return rec.WithTags(tags)
}

func TestSliceRetrimsMoveTable(t *testing.T) {
	tags := concat(
		zTag("RG", "grp"),
		mvTag(5, moveTable),
		intTag("ns", 100),
		intTag("ts", 10),
		intTag("MN", 4),
		[]byte{'d', 'u', 'f', 0, 0, 0, 0},
	)
	rec := bamRecord(t, tags)

	s, err := rec.Slice(1, 3)
	require.NoError(t, err)
	// Two leading move entries are trimmed: ts advances by 2*5, the new
	// table keeps entries 2..5, and ns is recomputed from them. MN and du
	// are gone, RG is untouched.
	want := concat(
		zTag("RG", "grp"),
		mvTag(5, []byte{1, 0, 0, 1}),
		intTag("ns", 4*5+20),
		intTag("ts", 20),
	)
	assert.Equal(t, want, s.Tags())
	assert.Equal(t, []byte("CG"), s.Sequence())
}

func TestSliceToEndKeepsTrailingMoves(t *testing.T) {
	rec := bamRecord(t, concat(mvTag(5, moveTable), intTag("ts", 10)))
	s, err := rec.Slice(1, 4)
	require.NoError(t, err)
	want := concat(mvTag(5, []byte{1, 0, 0, 1, 1, 0}), intTag("ts", 20))
	assert.Equal(t, want, s.Tags())
}

func TestSliceNegativeTrimOffset(t *testing.T) {
	// A negative ts does not contribute to ns.
	rec := bamRecord(t, concat(mvTag(5, moveTable), intTag("ns", 100), intTag("ts", -40)))
	s, err := rec.Slice(1, 3)
	require.NoError(t, err)
	want := concat(mvTag(5, []byte{1, 0, 0, 1}), intTag("ns", 20), intTag("ts", -30))
	assert.Equal(t, want, s.Tags())
}

func TestSliceWithoutMoveTableKeepsTags(t *testing.T) {
	tags := concat(zTag("RG", "grp"), intTag("NM", 0))
	rec := bamRecord(t, tags)
	s, err := rec.Slice(1, 3)
	require.NoError(t, err)
	assert.Equal(t, tags, s.Tags())
}

func TestSliceStepDropsPerBaseTags(t *testing.T) {
	tags := concat(
		mvTag(5, moveTable),
		intTag("ns", 100),
		intTag("ts", 10),
		zTag("MM", "C+m,1;"),
		zTag("RG", "grp"),
		intTag("MN", 4),
	)
	rec := bamRecord(t, tags)
	s, err := rec.SliceStep(0, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, zTag("RG", "grp"), s.Tags())
}

func TestReverseComplementDropsPerBaseTags(t *testing.T) {
	tags := concat(mvTag(5, moveTable), zTag("RG", "grp"))
	rec := bamRecord(t, tags)
	rc := rec.ReverseComplement()
	assert.Equal(t, zTag("RG", "grp"), rc.Tags())
	assert.Equal(t, []byte("ACGT"), rc.Sequence())
}

func TestSliceCorruptTags(t *testing.T) {
	rec := bamRecord(t, []byte{'m', 'v', 'B'})
	_, err := rec.Slice(0, 2)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, Truncated, fe.Kind)
}
