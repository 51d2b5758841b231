package question

import (
	"fmt"
	"math/rand"
	"strings"
)

const (
	// MinOptions is the smallest number of options a question may carry.
	MinOptions = 2
	// MaxTimeLimit is the longest time limit in seconds (24h).
	MaxTimeLimit = 24 * 60 * 60
)

// Validate checks a source set without shuffling it.
func Validate(sources []Source) error {
	if len(sources) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalid)
	}
	for i, src := range sources {
		if strings.TrimSpace(src.Text) == "" {
			return fmt.Errorf("%w: question %d has no text", ErrInvalid, i+1)
		}
		if len(src.Options) < MinOptions {
			return fmt.Errorf("%w: question %d needs at least %d options, got %d", ErrInvalid, i+1, MinOptions, len(src.Options))
		}
		if src.TimeLimit <= 0 {
			return fmt.Errorf("%w: question %d has non-positive time limit %d", ErrInvalid, i+1, src.TimeLimit)
		}
		if src.TimeLimit > MaxTimeLimit {
			return fmt.Errorf("%w: question %d time limit %d exceeds %d seconds", ErrInvalid, i+1, src.TimeLimit, MaxTimeLimit)
		}
		if src.CorrectIndex < 0 || src.CorrectIndex >= len(src.Options) {
			return fmt.Errorf("%w: question %d correct answer %d out of range", ErrInvalid, i+1, src.CorrectIndex)
		}
	}
	return nil
}

// Prepare returns a shuffled per-session copy of sources. Options of every
// question are permuted uniformly and the correct index follows the option
// that was originally correct. sources is left untouched.
func Prepare(sources []Source, rng *rand.Rand) ([]Question, error) {
	if err := Validate(sources); err != nil {
		return nil, err
	}

	prepared := make([]Question, len(sources))
	for i, src := range sources {
		// Shuffle positions rather than strings so duplicate option labels
		// still map the correct index unambiguously.
		perm := make([]int, len(src.Options))
		for j := range perm {
			perm[j] = j
		}
		rng.Shuffle(len(perm), func(a, b int) { perm[a], perm[b] = perm[b], perm[a] })

		options := make([]string, len(src.Options))
		correct := -1
		for pos, from := range perm {
			options[pos] = src.Options[from]
			if from == src.CorrectIndex {
				correct = pos
			}
		}

		prepared[i] = Question{
			Text:         src.Text,
			Options:      options,
			CorrectIndex: correct,
			TimeLimit:    src.TimeLimit,
		}
	}
	return prepared, nil
}
