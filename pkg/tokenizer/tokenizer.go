// Package tokenizer implements the minimal word-level tokenization the
// attention visualizer needs: sentences are lowercased and split on
// whitespace, and each distinct word is assigned a stable integer id.
//
// There is deliberately no subword merging or vocabulary file format here.
// The visualizer labels heatmap axes with whole words, so whole words are
// the unit of tokenization.
package tokenizer

import (
	"strings"

	"github.com/pkg/errors"
)

// Tokenizer maps words to stable integer ids. Ids are assigned in order of
// first appearance, so the same corpus always produces the same vocabulary.
type Tokenizer struct {
	idByWord map[string]int
	wordByID []string
}

// New creates an empty tokenizer.
func New() *Tokenizer {
	return &Tokenizer{idByWord: make(map[string]int)}
}

// Tokenize lowercases a sentence and splits it on whitespace.
// Returns an error if the sentence contains no tokens.
func Tokenize(sentence string) ([]string, error) {
	tokens := strings.Fields(strings.ToLower(sentence))
	if len(tokens) == 0 {
		return nil, errors.Errorf("sentence %q contains no tokens", sentence)
	}
	return tokens, nil
}

// Encode tokenizes a sentence and returns both the tokens and their ids,
// growing the vocabulary as new words appear.
func (t *Tokenizer) Encode(sentence string) ([]string, []int, error) {
	tokens, err := Tokenize(sentence)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		id, ok := t.idByWord[tok]
		if !ok {
			id = len(t.wordByID)
			t.idByWord[tok] = id
			t.wordByID = append(t.wordByID, tok)
		}
		ids[i] = id
	}
	return tokens, ids, nil
}

// Decode maps ids back to words.
func (t *Tokenizer) Decode(ids []int) ([]string, error) {
	words := make([]string, len(ids))
	for i, id := range ids {
		if id < 0 || id >= len(t.wordByID) {
			return nil, errors.Errorf("id %d out of vocabulary (size %d)", id, len(t.wordByID))
		}
		words[i] = t.wordByID[id]
	}
	return words, nil
}

// VocabSize returns the number of distinct words seen so far.
func (t *Tokenizer) VocabSize() int {
	return len(t.wordByID)
}
