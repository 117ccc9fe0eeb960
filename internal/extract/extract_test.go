package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zksync-wtf/harvester/internal/extract"
)

const sampleHash = "0x" + "ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12"

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("ValidObject", func(t *testing.T) {
		tree, err := extract.Parse(`{"a": 1}`)
		require.NoError(t, err)
		assert.IsType(t, map[string]any{}, tree)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		_, err := extract.Parse(`{"a":`)
		assert.Error(t, err)
	})
}

func TestKeysFindsNestedTargets(t *testing.T) {
	t.Parallel()

	raw := `{
		"metadata": {"bytecode_hash_hex": "0xaaa"},
		"batches": [
			{"params_hex": "0xbbb"},
			{"nested": {"bytecode_hash_hex": "0xccc"}}
		],
		"unrelated": "ignored"
	}`
	tree, err := extract.Parse(raw)
	require.NoError(t, err)

	matches := extract.Keys(tree, []string{"bytecode_hash_hex", "params_hex"})
	require.Len(t, matches, 3)

	byPath := make(map[string]extract.Match, len(matches))
	for _, m := range matches {
		byPath[m.Path] = m
	}
	assert.Equal(t, "0xbbb", byPath["batches[0].params_hex"].Value)
	assert.Equal(t, "0xccc", byPath["batches[1].nested.bytecode_hash_hex"].Value)
	assert.Equal(t, "0xaaa", byPath["metadata.bytecode_hash_hex"].Value)
	assert.Equal(t, "bytecode_hash_hex", byPath["metadata.bytecode_hash_hex"].Key)
}

func TestKeysIgnoresNonStringValues(t *testing.T) {
	t.Parallel()

	tree, err := extract.Parse(`{"bytecode_hash_hex": 42, "params_hex": {"x": "0xdd"}}`)
	require.NoError(t, err)

	matches := extract.Keys(tree, []string{"bytecode_hash_hex", "params_hex"})
	assert.Empty(t, matches)
}

func TestKeysDeterministicOrder(t *testing.T) {
	t.Parallel()

	tree, err := extract.Parse(`{"z": {"params_hex": "0x1"}, "a": {"params_hex": "0x2"}}`)
	require.NoError(t, err)

	// Object keys walk in sorted order, so "a" precedes "z" regardless of
	// map iteration order.
	for range 20 {
		matches := extract.Keys(tree, []string{"params_hex"})
		require.Len(t, matches, 2)
		assert.Equal(t, "a.params_hex", matches[0].Path)
		assert.Equal(t, "z.params_hex", matches[1].Path)
	}
}

func TestPatternMatchesHashLeavesOnly(t *testing.T) {
	t.Parallel()

	raw := `{
		"leaf": "` + sampleHash + `",
		"short": "0x1234",
		"noprefix": "ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12",
		"list": ["` + sampleHash + `", "plain text"]
	}`
	tree, err := extract.Parse(raw)
	require.NoError(t, err)

	matches := extract.Pattern(tree, "0.24.0")
	require.Len(t, matches, 2)
	assert.Equal(t, "0.24.0.leaf", matches[0].Path)
	assert.Equal(t, sampleHash, matches[0].Value)
	assert.Equal(t, "0.24.0.list[0]", matches[1].Path)
}

func TestMatchesHash(t *testing.T) {
	t.Parallel()

	assert.True(t, extract.MatchesHash(sampleHash))
	assert.False(t, extract.MatchesHash("0x1234"))
	assert.False(t, extract.MatchesHash("ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12"))
	assert.False(t, extract.MatchesHash(sampleHash+"00"))
	assert.False(t, extract.MatchesHash("0x"+"zz12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12cd34ef56ab12"))
}
