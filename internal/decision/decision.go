// Package decision turns a raw classifier score vector into the final
// reported outcome, applying the confidence rejection threshold.
package decision

import (
	"fmt"
	"math"

	"github.com/example/cropguard/internal/catalog"
)

// RejectionThreshold is the confidence percentage below which a result is
// reported as unclassifiable instead of as a specific disease.
const RejectionThreshold = 70.0

// Outcome is the final result of the decision policy for one image.
type Outcome struct {
	// Class is only meaningful when Known is true.
	Class catalog.Class
	// Label is the reported class name, or the sentinel unknown label.
	Label string
	// Confidence is the top score as a 0-100 percentage, rounded to two
	// decimal places.
	Confidence float64
	// Recommendation is the pesticide text, or the fixed unable-to-predict
	// message when Known is false.
	Recommendation string
	// Known reports whether the confidence cleared the rejection threshold.
	Known bool
}

// Decide picks the top-scoring class and applies the rejection threshold.
// Ties on the maximum score resolve to the lowest index: the comparison is
// strictly greater-than, so the first class encountered in catalog order
// wins. The threshold compares the unrounded confidence; rounding to two
// decimals happens only on the persisted value.
func Decide(scores []float32) (Outcome, error) {
	if len(scores) != catalog.NumClasses {
		return Outcome{}, fmt.Errorf("decision: expected %d scores, got %d", catalog.NumClasses, len(scores))
	}

	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}

	confidence := float64(scores[best]) * 100
	if confidence < RejectionThreshold {
		return Outcome{
			Class:          catalog.Class(-1),
			Label:          catalog.UnknownLabel,
			Confidence:     roundConfidence(confidence),
			Recommendation: catalog.UnknownRecommendation,
			Known:          false,
		}, nil
	}

	class := catalog.Class(best)
	return Outcome{
		Class:          class,
		Label:          class.String(),
		Confidence:     roundConfidence(confidence),
		Recommendation: class.Pesticide(),
		Known:          true,
	}, nil
}

func roundConfidence(c float64) float64 {
	return math.Round(c*100) / 100
}
