// Package wasted implements the wasted-attention analyzer: it flags
// elements that cannibalize clicks from the primary CTA and simulates
// the uplift from removing them.
package wasted

import (
	"fmt"
	"math"

	"ctalens/internal/engine"
	"ctalens/internal/model"
)

// Scoring constants. An element is high-risk when its wasted-click
// score crosses HighRiskThreshold.
const (
	HighRiskThreshold = 0.45

	// recaptureRate is the fraction of a removed element's click volume
	// that flows back to the primary CTA instead of evaporating.
	recaptureRate = 0.65

	// saturationCeiling is the maximum click share one element can hold;
	// beyond it extra attention stops converting into clicks.
	saturationCeiling = 0.85
)

// Options carries the business assumptions the revenue projection
// needs. Zero-valued fields fall back to defaults.
type Options struct {
	MonthlyTraffic float64
	AvgOrderValue  float64
}

// DefaultOptions are conservative assumptions used when the caller
// provides none.
func DefaultOptions() Options {
	return Options{
		MonthlyTraffic: 10000,
		AvgOrderValue:  80,
	}
}

// AnalyzeWastedClicks runs the analyzer with default assumptions.
func AnalyzeWastedClicks(elements []model.PageElement, primary model.PageElement, predictions []model.ClickPrediction) (*model.WastedClickAnalysis, error) {
	return AnalyzeWastedClicksWith(elements, primary, predictions, DefaultOptions())
}

// AnalyzeWastedClicksWith scores every non-primary interactive element,
// flags those over the high-risk threshold, and projects the effect of
// removing the flagged set. Removing flagged elements never lowers the
// primary element's projected click share.
func AnalyzeWastedClicksWith(elements []model.PageElement, primary model.PageElement, predictions []model.ClickPrediction, opts Options) (*model.WastedClickAnalysis, error) {
	const op = "wasted.AnalyzeWastedClicks"

	if len(predictions) == 0 {
		return nil, engine.InsufficientData(op, "no predictions to analyze")
	}
	if primary.ID == "" {
		return nil, engine.InsufficientData(op, "missing primary element")
	}

	byID := make(map[string]model.ClickPrediction, len(predictions))
	for _, p := range predictions {
		byID[p.ElementID] = p
	}
	primaryPred, ok := byID[primary.ID]
	if !ok {
		return nil, engine.InsufficientData(op, fmt.Sprintf("no prediction for primary element %q", primary.ID))
	}

	if opts.MonthlyTraffic <= 0 {
		opts.MonthlyTraffic = DefaultOptions().MonthlyTraffic
	}
	if opts.AvgOrderValue <= 0 {
		opts.AvgOrderValue = DefaultOptions().AvgOrderValue
	}

	var flagged []model.HighRiskElement
	var removedShare float64

	for _, el := range elements {
		if el.ID == primary.ID || !el.Interactive {
			continue
		}
		pred, ok := byID[el.ID]
		if !ok {
			continue
		}

		score := wastedScore(el, primary, pred, primaryPred)
		if score < HighRiskThreshold {
			continue
		}

		flagged = append(flagged, model.HighRiskElement{
			Element:          el,
			Kind:             el.Kind,
			WastedClickScore: score,
			Recommendation:   elementRecommendation(el),
		})
		removedShare += pred.ClickShare
	}

	var avgScore float64
	for _, f := range flagged {
		avgScore += f.WastedClickScore
	}
	if len(flagged) > 0 {
		avgScore /= float64(len(flagged))
	}

	improvements := projectImprovements(primaryPred, primary, flagged, removedShare, opts)

	return &model.WastedClickAnalysis{
		TotalWastedElements:   len(flagged),
		AverageWastedScore:    avgScore,
		HighRiskElements:      flagged,
		ProjectedImprovements: improvements,
		Recommendations:       buildRecommendations(flagged, improvements),
	}, nil
}

// wastedScore combines the element's own click share, its competition
// with the primary element, and decorative/noise flags into [0,1].
func wastedScore(el, primary model.PageElement, pred, primaryPred model.ClickPrediction) float64 {
	// Share term: an element absorbing 25%+ of page clicks maxes out.
	share := pred.ClickShare / 0.25
	if share > 1 {
		share = 1
	}
	score := share * 0.45

	// Competition signal.
	if sameRow(el, primary) {
		score += 0.15
	}
	if el.ButtonStyling && primary.ButtonStyling {
		score += 0.10
	}
	if el.NearbyCTA {
		score += 0.10
	}

	// Noise flags.
	if el.Decorative {
		score += 0.10
	}
	if el.VisualNoise {
		score += 0.05
	}
	if el.AutoRotating {
		score += 0.05
	}

	if score > 1 {
		score = 1
	}
	return score
}

// sameRow reports whether two elements share a horizontal band, which
// makes them direct visual competitors.
func sameRow(a, b model.PageElement) bool {
	if b.Box.Height <= 0 {
		return false
	}
	return math.Abs(a.Box.CenterY()-b.Box.CenterY()) < b.Box.Height
}

// projectImprovements simulates removing the flagged set: the click
// volume they absorbed is redistributed toward the primary element at
// the recapture rate, capped by the saturation ceiling. The projected
// share is guaranteed to be at least the current share.
func projectImprovements(primaryPred model.ClickPrediction, primary model.PageElement, flagged []model.HighRiskElement, removedShare float64, opts Options) model.ProjectedImprovements {
	currentShare := primaryPred.ClickShare

	projectedShare := currentShare + removedShare*recaptureRate
	if projectedShare > saturationCeiling {
		projectedShare = saturationCeiling
	}
	if projectedShare < currentShare {
		projectedShare = currentShare
	}

	var ctrImprovement float64
	if currentShare > 0 {
		ctrImprovement = (projectedShare - currentShare) / currentShare
	}
	projectedCTR := primaryPred.CTR * (1 + ctrImprovement)
	if projectedCTR > 1 {
		projectedCTR = 1
	}

	// Form CTAs capture intent directly, so uplift there is worth more
	// downstream revenue per click.
	convMultiplier := 0.05
	if primary.Kind == model.ElementForm || (primary.Nav != nil && primary.Nav.FormAction != "") {
		convMultiplier = 0.08
	}
	revenue := ctrImprovement * opts.MonthlyTraffic * opts.AvgOrderValue * convMultiplier

	difficulty := implementationDifficulty(flagged)

	impactScore := ctrImprovement / 0.5
	if impactScore > 1 {
		impactScore = 1
	}
	priority := impactScore*70 + (1-effortScore(difficulty))*30
	if priority < 0 {
		priority = 0
	}
	if priority > 100 {
		priority = 100
	}

	return model.ProjectedImprovements{
		CTRImprovement:           ctrImprovement,
		RevenueImpact:            revenue,
		ImplementationDifficulty: difficulty,
		PriorityScore:            priority,
		ProjectedCTR:             projectedCTR,
	}
}

func implementationDifficulty(flagged []model.HighRiskElement) string {
	forms := 0
	for _, f := range flagged {
		if f.Kind == model.ElementForm || f.Kind == model.ElementField {
			forms++
		}
	}

	switch {
	case len(flagged) <= 2 && forms == 0:
		return "easy"
	case len(flagged) <= 5:
		return "moderate"
	default:
		return "hard"
	}
}

func effortScore(difficulty string) float64 {
	switch difficulty {
	case "easy":
		return 0.2
	case "moderate":
		return 0.5
	default:
		return 0.8
	}
}
