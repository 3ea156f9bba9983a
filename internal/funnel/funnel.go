// Package funnel chains per-step click and conversion rates into an
// end-to-end funnel estimate, and classifies funnels as single-step
// (form) or two-step (non-form) from spatial CTA/form overlap.
package funnel

import (
	"math"

	"ctalens/internal/engine"
	"ctalens/internal/model"
)

// StepInput is the structural description of one captured page used to
// build a funnel: normalized elements, the detected primary CTA, and
// the predicted CTR for that CTA (as a percentage, presentation units).
type StepInput struct {
	URL          string              `json:"url"`
	Elements     []model.PageElement `json:"elements"`
	PrimaryID    string              `json:"primaryId"`
	PredictedCTR float64             `json:"predictedCtr"`

	// CaptureWidth and DisplayWidth describe the capture-vs-display
	// size ratio so boxes can be compared in one coordinate space.
	CaptureWidth float64 `json:"captureWidth,omitempty"`
	DisplayWidth float64 `json:"displayWidth,omitempty"`
}

// proximityMargin is how close (in display pixels) a CTA must be to an
// above-fold form to count as part of it.
const proximityMargin = 40

// scaleRatio returns the capture-to-display scale factor, defaulting to
// 1 when either width is unknown.
func (s StepInput) scaleRatio() float64 {
	if s.CaptureWidth <= 0 || s.DisplayWidth <= 0 {
		return 1
	}
	return s.DisplayWidth / s.CaptureWidth
}

// ClassifyCTAType decides the funnel type spatially: the primary CTA is
// "form" only when its box overlaps or sits within proximityMargin of
// an above-the-fold form's box, after scaling both into display space.
// With no primary CTA at all the funnel is "none".
func ClassifyCTAType(step StepInput) model.FunnelType {
	primary, ok := findElement(step.Elements, step.PrimaryID)
	if !ok {
		return model.FunnelNone
	}

	ratio := step.scaleRatio()
	primaryBox := primary.Box.Scale(ratio)

	for _, el := range step.Elements {
		if el.Kind != model.ElementForm || !el.AboveFold {
			continue
		}
		if primaryBox.Overlaps(el.Box.Scale(ratio), proximityMargin) {
			return model.FunnelForm
		}
	}

	return model.FunnelNonForm
}

// CalculateFunnelMetrics chains step rates into session and conversion
// counts. Single-step (form, or no step 2): every visitor reaches the
// same decision point, so n2 = n1 and pTotal = p1. Two-step: sessions
// are rounded at each step before the next rate applies.
func CalculateFunnelMetrics(step1 model.FunnelStep, step2 *model.FunnelStep, initialVisitors int) model.FunnelData {
	if initialVisitors < 0 {
		initialVisitors = 0
	}

	n1 := initialVisitors
	p1 := clampRate(step1.PredictedCTR / 100)

	fd := model.FunnelData{
		Step1: step1,
		N1:    n1,
		P1:    p1,
	}

	if step2 == nil {
		fd.Type = model.FunnelForm
		fd.N2 = n1
		fd.PTotal = p1
		fd.NConv = int(math.Round(float64(n1) * p1))
		return fd
	}

	p2 := clampRate(step2.PredictedCTR / 100)
	n2 := int(math.Round(float64(n1) * p1))

	fd.Type = model.FunnelNonForm
	fd.Step2 = step2
	fd.N2 = n2
	fd.P2 = p2
	fd.PTotal = p1 * p2
	fd.NConv = int(math.Round(float64(n2) * p2))
	return fd
}

// AnalyzeFunnelFromCapture builds the initial FunnelData for a captured
// first step. The funnel starts single-step; callers follow the CTA and
// attach a second step via UpdateFunnelWithStep2 when the type is
// non-form.
func AnalyzeFunnelFromCapture(step StepInput, initialVisitors int) (*model.FunnelData, error) {
	const op = "funnel.AnalyzeFunnelFromCapture"

	if len(step.Elements) == 0 {
		return nil, engine.InsufficientData(op, "no structural data for step 1")
	}

	funnelType := ClassifyCTAType(step)

	step1 := model.FunnelStep{
		URL:          step.URL,
		PredictedCTR: step.PredictedCTR,
	}
	if primary, ok := findElement(step.Elements, step.PrimaryID); ok {
		step1.CTAText = primary.Text
		step1.CTAType = primary.Kind
	}

	fd := CalculateFunnelMetrics(step1, nil, initialVisitors)
	fd.Type = funnelType
	fd.Step1.PredictedClicks = float64(fd.N1) * fd.P1
	return &fd, nil
}

// UpdateFunnelWithStep2 recomputes a funnel with a second step
// attached, preserving step-1 data and visitor counts.
func UpdateFunnelWithStep2(fd model.FunnelData, step2 model.FunnelStep) model.FunnelData {
	updated := CalculateFunnelMetrics(fd.Step1, &step2, fd.N1)
	updated.Step1.PredictedClicks = fd.Step1.PredictedClicks
	updated.Step2.PredictedClicks = float64(updated.N2) * updated.P2
	return updated
}

func findElement(elements []model.PageElement, id string) (model.PageElement, bool) {
	if id == "" {
		return model.PageElement{}, false
	}
	for _, el := range elements {
		if el.ID == id {
			return el, true
		}
	}
	return model.PageElement{}, false
}

// clampRate keeps a chained probability inside [0,1] even when a caller
// hands over percentages that were already converted.
func clampRate(p float64) float64 {
	if p < 0 || math.IsNaN(p) {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
