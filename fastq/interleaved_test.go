package fastq

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterleaved(t *testing.T) {
	const input = "@read/1 a\nAC\n+\n!!\n@read/2 b\nGT\n+\n##\n" +
		"@other/1\nA\n+\n!\n@other/2\nC\n+\n#\n"
	ip, err := NewInterleavedParser[string](strings.NewReader(input))
	require.NoError(t, err)
	var ids []string
	for ip.Scan() {
		r1, r2 := ip.Pair()
		assert.True(t, r1.IsMate(r2))
		ids = append(ids, string(r1.ID()))
	}
	require.NoError(t, ip.Err())
	assert.Equal(t, []string{"read/1", "other/1"}, ids)
}

func TestInterleavedDiscordant(t *testing.T) {
	const input = "@read/1\nAC\n+\n!!\n@unrelated/2\nGT\n+\n##\n"
	ip, err := NewInterleavedParser[string](strings.NewReader(input))
	require.NoError(t, err)
	assert.False(t, ip.Scan())
	assert.True(t, errors.Is(ip.Err(), ErrDiscordant))
}

func TestInterleavedOddCount(t *testing.T) {
	const input = "@read/1\nAC\n+\n!!\n@read/2\nGT\n+\n##\n@tail/1\nA\n+\n!\n"
	ip, err := NewInterleavedParser[string](strings.NewReader(input))
	require.NoError(t, err)
	assert.True(t, ip.Scan())
	assert.False(t, ip.Scan())
	assert.True(t, errors.Is(ip.Err(), ErrOddRecordCount))
}

func TestInterleavedPropagatesParseError(t *testing.T) {
	ip, err := NewInterleavedParser[string](strings.NewReader("@r\nAC\n+\n!\n"))
	require.NoError(t, err)
	assert.False(t, ip.Scan())
	assert.Error(t, ip.Err())
}
