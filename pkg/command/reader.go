// SPDX-License-Identifier: MPL-2.0

package command

import "context"

type (
	// Candidate is one weighted interpretation of a raw token.
	// Weight lies in [0, 1]; higher is a better match.
	Candidate struct {
		Value  any
		Weight float64
	}

	// TypeReader converts one raw token (or the remainder of the input)
	// into typed candidate values.
	//
	// A successful read returns at least one candidate and a nil error.
	// A failed read returns a non-nil error whose message is the
	// human-readable reason; zero candidates with a nil error is treated
	// as a failure too.
	TypeReader interface {
		Read(ctx context.Context, ictx Context, input string, svc Services) ([]Candidate, error)
	}

	// TypeReaderFunc adapts a function to the TypeReader interface.
	TypeReaderFunc func(ctx context.Context, ictx Context, input string, svc Services) ([]Candidate, error)
)

// Read implements TypeReader.
func (f TypeReaderFunc) Read(ctx context.Context, ictx Context, input string, svc Services) ([]Candidate, error) {
	return f(ctx, ictx, input, svc)
}

// Single returns a one-candidate slice with the given weight, clamped to [0, 1].
func Single(value any, weight float64) []Candidate {
	return []Candidate{{Value: value, Weight: clampWeight(weight)}}
}

// Top returns the highest candidate weight, or 0 for an empty slice.
func Top(cands []Candidate) float64 {
	top := 0.0
	for i, c := range cands {
		if i == 0 || c.Weight > top {
			top = c.Weight
		}
	}
	return top
}

// Best returns the first candidate carrying the highest weight.
func Best(cands []Candidate) (Candidate, bool) {
	if len(cands) == 0 {
		return Candidate{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Weight > best.Weight {
			best = c
		}
	}
	return best, true
}

func clampWeight(w float64) float64 {
	switch {
	case w < 0:
		return 0
	case w > 1:
		return 1
	default:
		return w
	}
}
