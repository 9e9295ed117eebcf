package random

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

var ErrNoCandidates = errors.New("no candidates to pick from")

// Shuffle performs a cryptographically secure shuffle of the slice.
func Shuffle[T any](slice []T) error {
	n := len(slice)
	for i := n - 1; i > 0; i-- {
		jBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("failed to generate random number: %w", err)
		}
		j := int(jBig.Int64())
		slice[i], slice[j] = slice[j], slice[i]
	}
	return nil
}

// Pick selects one element uniformly at random. rand.Int rejection-samples,
// so the choice carries no modulo bias for any candidate count.
func Pick[T any](candidates []T) (T, error) {
	var zero T
	if len(candidates) == 0 {
		return zero, ErrNoCandidates
	}
	iBig, err := rand.Int(rand.Reader, big.NewInt(int64(len(candidates))))
	if err != nil {
		return zero, fmt.Errorf("failed to generate random number: %w", err)
	}
	return candidates[iBig.Int64()], nil
}

// PickExcluding selects uniformly among candidates that differ from excluded.
// Returns ErrNoCandidates when excluding leaves nothing to choose.
func PickExcluding[T comparable](candidates []T, excluded T) (T, error) {
	filtered := make([]T, 0, len(candidates))
	for _, c := range candidates {
		if c != excluded {
			filtered = append(filtered, c)
		}
	}
	return Pick(filtered)
}
