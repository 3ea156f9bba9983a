// Package fallback builds the conservative substitute results the
// calling boundary uses when the engine reports a typed failure. Every
// constructor is a pure function of the failure kind; the engine itself
// never produces these values.
package fallback

import (
	"ctalens/internal/engine"
	"ctalens/internal/model"
)

// BaselineCTR is the fixed click-through rate assumed when prediction
// is impossible.
const BaselineCTR = 0.03

// reason renders a stable, user-facing label for the failure kind.
func reason(kind engine.ErrorKind) string {
	switch kind {
	case engine.KindInsufficientData:
		return "insufficient structural data; baseline estimates substituted"
	case engine.KindUnresolvableNavigation:
		return "CTA destination could not be followed; baseline estimates substituted"
	default:
		return "analysis failed; baseline estimates substituted"
	}
}

// ForPrediction returns the documented fixed defaults for a failed
// prediction run: baseline CTR, zero wasted spend, low confidence, and
// an explicit fallback label.
func ForPrediction(kind engine.ErrorKind, pctx model.PageContext) *model.PredictionResult {
	var predictions []model.ClickPrediction
	for _, el := range pctx.Elements {
		if !el.Interactive {
			continue
		}
		predictions = append(predictions, model.ClickPrediction{
			ElementID:       el.ID,
			CTR:             BaselineCTR,
			ClickShare:      0,
			EstimatedClicks: float64(pctx.MonthlyTraffic) * BaselineCTR,
			WastedClicks:    0,
			WastedSpend:     0,
			Confidence:      model.ConfidenceLow,
			RiskFactors:     []string{"fallback estimate"},
		})
	}

	return &model.PredictionResult{
		Predictions: predictions,
		Metadata: model.PredictionMetadata{
			URL:          pctx.URL,
			Device:       pctx.Device,
			ElementCount: len(pctx.Elements),
		},
		Reliability: model.Reliability{
			DataCompleteness: 0,
			Level:            model.ConfidenceLow,
		},
		Fallback:       true,
		FallbackReason: reason(kind),
	}
}

// ForWastedClicks returns an empty analysis labelled as a fallback: no
// flagged elements, no projected uplift, zero priority.
func ForWastedClicks(kind engine.ErrorKind) *model.WastedClickAnalysis {
	return &model.WastedClickAnalysis{
		HighRiskElements: []model.HighRiskElement{},
		Recommendations:  []model.Recommendation{},
		ProjectedImprovements: model.ProjectedImprovements{
			ImplementationDifficulty: "easy",
		},
		Fallback:       true,
		FallbackReason: reason(kind),
	}
}
