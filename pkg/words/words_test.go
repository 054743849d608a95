package words

import (
	"testing"

	"github.com/cbodonnell/codeword/pkg/game/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListSource_RandomWords(t *testing.T) {
	source := NewListSource([]string{"alpha", "bravo", "charlie", "delta", "echo"})

	got, err := source.RandomWords(3)
	require.NoError(t, err)
	require.Len(t, got, 3)

	seen := make(map[string]bool)
	for _, word := range got {
		assert.False(t, seen[word], "duplicate word %s", word)
		seen[word] = true
		assert.Contains(t, []string{"alpha", "bravo", "charlie", "delta", "echo"}, word)
	}
}

func TestListSource_InsufficientWords(t *testing.T) {
	source := NewListSource([]string{"alpha", "bravo"})

	_, err := source.RandomWords(3)
	assert.Error(t, err)
}

func TestListSource_DoesNotMutateList(t *testing.T) {
	list := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	source := NewListSource(list)

	_, err := source.RandomWords(5)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "bravo", "charlie", "delta", "echo"}, list)
}

func TestDefaultSource_CoversBoard(t *testing.T) {
	source := NewDefaultSource()

	got, err := source.RandomWords(constants.GridSize)
	require.NoError(t, err)
	require.Len(t, got, constants.GridSize)

	seen := make(map[string]bool)
	for _, word := range got {
		assert.False(t, seen[word], "duplicate word %s", word)
		seen[word] = true
	}
}
