// Package predict implements the click prediction engine: a pure,
// deterministic scoring pass that turns normalized page elements plus
// page context into per-element click predictions.
package predict

import (
	"ctalens/internal/engine"
	"ctalens/internal/model"
)

// interactionBudget is the fraction of visits whose click lands on a
// tracked interactive element; the remainder is scrolling, text
// selection, and dead clicks. Click shares are normalized against it so
// they always sum below 1.
const interactionBudget = 0.92

// Engine is the click prediction engine. It is stateless and safe for
// concurrent use.
type Engine struct{}

// NewEngine returns a ready Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// kindWeight is the base visual weight per element kind.
var kindWeight = map[model.ElementKind]float64{
	model.ElementButton: 1.00,
	model.ElementLink:   0.60,
	model.ElementForm:   0.50,
	model.ElementField:  0.35,
}

// PredictClicks scores every interactive element and returns one
// ClickPrediction per element, plus diagnostic metadata and a
// reliability report. Identical inputs always produce identical
// outputs. It fails with a typed insufficient-data or invalid-input
// error instead of returning an empty result; the caller owns any
// fallback substitution.
func (e *Engine) PredictClicks(elements []model.PageElement, pctx model.PageContext) (*model.PredictionResult, error) {
	const op = "predict.PredictClicks"

	if len(elements) == 0 {
		return nil, engine.InsufficientData(op, "no elements to score")
	}
	if pctx.FoldLine <= 0 || pctx.ViewportWidth <= 0 || pctx.ViewportHeight <= 0 {
		return nil, engine.InvalidInput(op, "context requires a positive fold line and viewport size")
	}
	switch pctx.Device {
	case model.DeviceDesktop, model.DeviceMobile, model.DeviceTablet:
	default:
		return nil, engine.InvalidInput(op, "unknown device type")
	}

	interactive := 0
	for _, el := range elements {
		if el.Interactive {
			interactive++
		}
	}
	if interactive == 0 {
		return nil, engine.InsufficientData(op, "no interactive elements on page")
	}

	weights := make([]float64, len(elements))
	var total float64
	for i, el := range elements {
		w := e.visualWeight(el, pctx)
		weights[i] = w
		total += w
	}

	engagement := pageEngagement(pctx)
	traffic := float64(pctx.MonthlyTraffic)
	if traffic < 0 {
		traffic = 0
	}

	predictions := make([]model.ClickPrediction, len(elements))
	aboveFold := 0
	gapTotal := 0

	for i, el := range elements {
		share := 0.0
		if total > 0 {
			share = weights[i] / total * interactionBudget
		}

		ctr := clamp01(engagement * share)
		estClicks := traffic * ctr
		wastedFrac := wastedFraction(el)
		wasted := estClicks * wastedFrac

		predictions[i] = model.ClickPrediction{
			ElementID:       el.ID,
			CTR:             ctr,
			ClickShare:      share,
			EstimatedClicks: estClicks,
			WastedClicks:    wasted,
			WastedSpend:     wasted * pctx.AvgCPC,
			Confidence:      elementConfidence(el),
			RiskFactors:     riskFactors(el),
		}

		if el.AboveFold {
			aboveFold++
		}
		gapTotal += len(el.DataGaps)
	}

	completeness := 1 - float64(gapTotal)/float64(3*len(elements))
	if completeness < 0 {
		completeness = 0
	}

	return &model.PredictionResult{
		Predictions: predictions,
		Metadata: model.PredictionMetadata{
			URL:              pctx.URL,
			Device:           pctx.Device,
			ElementCount:     len(elements),
			InteractiveCount: interactive,
			AboveFoldCount:   aboveFold,
			PageEngagement:   engagement,
		},
		Reliability: model.Reliability{
			DataCompleteness: completeness,
			MissingFields:    missingFields(elements),
			Level:            reliabilityLevel(completeness),
		},
	}, nil
}

// visualWeight computes the unnormalized attention weight for one
// element. Multiplicative factors keep the required monotonicity:
// above-fold beats below-fold, button styling beats plain, decorative
// and noisy elements are depressed, and visually competing neighbors
// lose weight.
func (e *Engine) visualWeight(el model.PageElement, pctx model.PageContext) float64 {
	if !el.Interactive || !el.Visible {
		return 0
	}

	w := kindWeight[el.Kind]

	if el.AboveFold {
		w *= 1.60
	}
	if el.ButtonStyling {
		w *= 1.45
	}
	if el.Sticky {
		w *= 1.10
	}

	// Size prominence relative to the viewport.
	viewArea := pctx.ViewportWidth * pctx.ViewportHeight
	if viewArea > 0 && el.Box.Area() > 0 {
		prominence := el.Box.Area() / viewArea * 40
		if prominence < 0.25 {
			prominence = 0.25
		}
		if prominence > 1.80 {
			prominence = 1.80
		}
		w *= prominence
	}

	// Scroll-depth decay: deeper elements get progressively less
	// attention, smoothly rather than as a hard cutoff.
	if pctx.FoldLine > 0 {
		w *= 1 / (1 + el.DistanceFromTop/(3*pctx.FoldLine))
	}

	if el.Text != "" && hasActionText(el.Text) {
		w *= 1.20
	} else if el.Text == "" && el.Kind != model.ElementForm && el.Kind != model.ElementField {
		w *= 0.80
	}

	if el.Decorative {
		w *= 0.15
	}
	if el.VisualNoise {
		w *= 0.60
	}
	if el.AutoRotating {
		w *= 0.70
	}
	if el.Autoplay {
		w *= 0.80
	}
	// A neighbor fighting for the same glance costs both parties.
	if el.NearbyCTA {
		w *= 0.85
	}
	if el.CompetingNeighbors {
		w *= 0.90
	}

	return w
}

// wastedFraction estimates what part of an element's clicks do not
// advance the page goal.
func wastedFraction(el model.PageElement) float64 {
	switch {
	case el.Decorative:
		return 1.0
	case el.VisualNoise:
		return 0.70
	case el.AutoRotating:
		return 0.60
	case el.NearbyCTA && el.CompetingNeighbors:
		return 0.50
	case el.Kind == model.ElementLink:
		return 0.30
	case el.Kind == model.ElementButton:
		return 0.10
	default:
		return 0
	}
}

// elementConfidence degrades with each attribute the feature extractor
// had to default.
func elementConfidence(el model.PageElement) model.Confidence {
	if !el.Visible {
		return model.ConfidenceLow
	}
	switch len(el.DataGaps) {
	case 0:
		return model.ConfidenceHigh
	case 1:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// riskFactors lists human-readable reasons an element's clicks are at
// risk of being wasted or mispredicted. Order is fixed for determinism.
func riskFactors(el model.PageElement) []string {
	var risks []string
	if !el.Visible {
		risks = append(risks, "element is not visible")
	}
	if el.Decorative {
		risks = append(risks, "decorative element likely to attract stray clicks")
	}
	if el.VisualNoise {
		risks = append(risks, "visual noise around element")
	}
	if el.NearbyCTA {
		risks = append(risks, "competes with a nearby call-to-action")
	}
	if el.CompetingNeighbors {
		risks = append(risks, "multiple competing elements in the same region")
	}
	if el.AutoRotating {
		risks = append(risks, "auto-rotating content moves the click target")
	}
	if el.Autoplay {
		risks = append(risks, "autoplaying media distracts from the element")
	}
	if !el.AboveFold {
		risks = append(risks, "below the fold")
	}
	if el.Text == "" && el.Kind != model.ElementForm && el.Kind != model.ElementField {
		risks = append(risks, "no visible label text")
	}
	return risks
}

func missingFields(elements []model.PageElement) []string {
	seen := map[string]bool{}
	var ordered []string
	for _, el := range elements {
		for _, gap := range el.DataGaps {
			if !seen[gap] {
				seen[gap] = true
				ordered = append(ordered, gap)
			}
		}
	}
	return ordered
}

func reliabilityLevel(completeness float64) model.Confidence {
	switch {
	case completeness >= 0.9:
		return model.ConfidenceHigh
	case completeness >= 0.6:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
