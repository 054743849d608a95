package words

import (
	"fmt"
	"math/rand"
)

// Source provides distinct words for dealing a board.
type Source interface {
	// RandomWords returns count distinct words. It returns an error if the
	// source cannot provide that many.
	RandomWords(count int) ([]string, error)
}

// ListSource draws words from a fixed in-memory list.
type ListSource struct {
	words []string
}

// NewListSource creates a ListSource from the given words.
func NewListSource(words []string) *ListSource {
	return &ListSource{
		words: words,
	}
}

// NewDefaultSource creates a ListSource with the built-in word list.
func NewDefaultSource() *ListSource {
	return NewListSource(defaultWords)
}

func (s *ListSource) RandomWords(count int) ([]string, error) {
	if count > len(s.words) {
		return nil, fmt.Errorf("word list has %d words, need %d", len(s.words), count)
	}

	shuffled := make([]string, len(s.words))
	copy(shuffled, s.words)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	return shuffled[:count], nil
}
