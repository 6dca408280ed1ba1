package usecase

import (
	"github.com/example/cropguard/internal/catalog"
	"github.com/example/cropguard/internal/repository"
)

// HistorySummary aggregates a user's prediction history for display.
type HistorySummary struct {
	Total             int     `json:"total"`
	Known             int     `json:"known"`
	Unknown           int     `json:"unknown"`
	AverageConfidence float64 `json:"average_confidence"`
}

// Summarize folds a listed history into counts and an average confidence.
func Summarize(predictions []repository.Prediction) HistorySummary {
	summary := HistorySummary{Total: len(predictions)}
	if len(predictions) == 0 {
		return summary
	}

	var sum float64
	for _, p := range predictions {
		if p.DiseaseClass == catalog.UnknownLabel {
			summary.Unknown++
		} else {
			summary.Known++
		}
		sum += p.ConfidencePercent
	}
	summary.AverageConfidence = sum / float64(len(predictions))
	return summary
}
