package postclick

import (
	"strconv"
	"strings"

	"ctalens/internal/engine"
	"ctalens/internal/model"
	"ctalens/internal/textutil"
)

// StepSignals is the pure structural description of one captured funnel
// step used to score UX factors. It is already extracted; this package
// never touches a network or a browser.
type StepSignals struct {
	URL                 string              `json:"url"`
	Elements            []model.PageElement `json:"elements"`
	PrimaryID           string              `json:"primaryId,omitempty"`
	DetectionConfidence float64             `json:"detectionConfidence"`

	ImageCount       int `json:"imageCount"`
	ScriptCount      int `json:"scriptCount"`
	LazyLoadedImages int `json:"lazyLoadedImages"`

	Headings    []string `json:"headings,omitempty"`
	ButtonTexts []string `json:"buttonTexts,omitempty"`
	TextContent string   `json:"textContent,omitempty"`
}

// Default max lifts per factor. These bound how much each UX signal can
// move the predicted rate.
const (
	liftPageSpeed          = 0.30
	liftMobileCTA          = 0.25
	liftCTAClarity         = 0.35
	liftTrustSignals       = 0.20
	liftFormFriction       = 0.40
	liftCommitmentMomentum = 0.15
	liftMessageMatch       = 0.30
)

// defaultLifts maps factor names to their bounds for callers that
// supply raw scores instead of capture signals.
var defaultLifts = map[string]float64{
	"page_speed":          liftPageSpeed,
	"mobile_cta":          liftMobileCTA,
	"cta_clarity":         liftCTAClarity,
	"trust_signals":       liftTrustSignals,
	"form_friction":       liftFormFriction,
	"commitment_momentum": liftCommitmentMomentum,
	"message_match":       liftMessageMatch,
}

// FactorsFromScores builds the factor set from caller-supplied scores
// keyed by canonical factor name. Unknown names are rejected so typos
// do not silently become neutral factors. Output order is fixed.
func FactorsFromScores(scores map[string]float64) ([]model.PostClickFactor, error) {
	for name := range scores {
		if _, ok := defaultLifts[name]; !ok {
			return nil, engine.InvalidInput("postclick.FactorsFromScores", "unknown factor "+name)
		}
	}

	names := []string{
		"page_speed", "mobile_cta", "cta_clarity", "trust_signals",
		"form_friction", "commitment_momentum", "message_match",
	}
	out := make([]model.PostClickFactor, 0, len(scores))
	for _, name := range names {
		score, ok := scores[name]
		if !ok {
			continue
		}
		out = append(out, model.PostClickFactor{
			Name:    name,
			Score:   Clamp01(score),
			MaxLift: defaultLifts[name],
		})
	}
	return out, nil
}

var trustKeywords = []string{
	"ssl", "secure", "guarantee", "certified", "testimonial",
	"badge", "verified", "refund", "privacy", "trusted",
}

var momentumKeywords = []string{
	"step", "progress", "almost", "continue", "complete", "next", "finish",
}

var momentumCTAWords = []string{
	"continue", "next", "finish", "complete", "get started", "claim",
}

// AnalyzeFactorsFromCapture derives every factor's score from the
// second step's structural signals, plus message match against the
// first step. The result is deterministic for identical inputs.
func AnalyzeFactorsFromCapture(step1, step2 StepSignals) []model.PostClickFactor {
	return []model.PostClickFactor{
		scorePageSpeed(step2),
		scoreMobileCTA(step2),
		scoreCTAClarity(step2),
		scoreTrustSignals(step2),
		scoreFormFriction(step2),
		scoreCommitmentMomentum(step2),
		scoreMessageMatch(step1, step2),
	}
}

// scorePageSpeed uses image and script counts as a load-time proxy.
func scorePageSpeed(s StepSignals) model.PostClickFactor {
	score := 0.7
	note := "asset counts within normal range"

	switch {
	case s.ImageCount > 40:
		score -= 0.40
		note = "very heavy image payload"
	case s.ImageCount > 20:
		score -= 0.25
		note = "heavy image payload"
	}
	if s.ScriptCount > 15 {
		score -= 0.20
		if note == "asset counts within normal range" {
			note = "heavy script payload"
		} else {
			note += "; heavy script payload"
		}
	}
	if s.LazyLoadedImages > 0 {
		score += 0.15
		note += "; lazy-loading detected"
	}

	return model.PostClickFactor{Name: "page_speed", Score: Clamp01(score), MaxLift: liftPageSpeed, Note: note}
}

// scoreMobileCTA rewards touch-friendly primary targets and penalizes
// clusters of tiny competing buttons.
func scoreMobileCTA(s StepSignals) model.PostClickFactor {
	primary, ok := findPrimary(s)
	if !ok {
		return model.PostClickFactor{Name: "mobile_cta", Score: 0.4, MaxLift: liftMobileCTA, Note: "no primary CTA detected"}
	}

	var score float64
	var note string
	switch {
	case primary.Box.Width >= 44 && primary.Box.Height >= 44:
		score, note = 0.9, "primary CTA meets 44x44 touch target"
	case primary.Box.Width < 32 || primary.Box.Height < 32:
		score, note = 0.25, "primary CTA below 32px touch target"
	default:
		score, note = 0.6, "primary CTA touch target is marginal"
	}

	small := 0
	for _, el := range s.Elements {
		if el.ID == primary.ID || !el.Interactive || el.Kind != model.ElementButton {
			continue
		}
		if el.Box.Width < 32 || el.Box.Height < 32 {
			small++
		}
	}
	if small > 2 {
		score -= 0.20
		note += "; multiple small competing buttons"
	}

	return model.PostClickFactor{Name: "mobile_cta", Score: Clamp01(score), MaxLift: liftMobileCTA, Note: note}
}

// scoreCTAClarity rewards pages where the primary action stands alone.
func scoreCTAClarity(s StepSignals) model.PostClickFactor {
	competing := 0
	for _, el := range s.Elements {
		if el.Interactive && el.ID != s.PrimaryID {
			competing++
		}
	}

	crowd := 1 - float64(competing)/12
	if crowd < 0 {
		crowd = 0
	}
	score := crowd*0.7 + Clamp01(s.DetectionConfidence)*0.3

	return model.PostClickFactor{
		Name:    "cta_clarity",
		Score:   Clamp01(score),
		MaxLift: liftCTAClarity,
		Note:    "competing interactive elements: " + strconv.Itoa(competing),
	}
}

// scoreTrustSignals scans page text for trust language and rewards
// trust words adjacent to the CTA itself.
func scoreTrustSignals(s StepSignals) model.PostClickFactor {
	_, hits := textutil.ContainsAny(s.TextContent, trustKeywords)
	score := 0.15 * float64(hits)
	if score > 0.75 {
		score = 0.75
	}
	note := "trust keywords found: " + strconv.Itoa(hits)

	if primary, ok := findPrimary(s); ok {
		ctaZone := primary.Text + " " + strings.Join(s.ButtonTexts, " ")
		if ok, _ := textutil.ContainsAny(ctaZone, trustKeywords); ok {
			score += 0.25
			note += "; trust language adjacent to CTA"
		}
	}

	return model.PostClickFactor{Name: "trust_signals", Score: Clamp01(score), MaxLift: liftTrustSignals, Note: note}
}

// scoreFormFriction scores form length and affordances when the step
// has a form, and falls back to an overall-simplicity proxy otherwise.
func scoreFormFriction(s StepSignals) model.PostClickFactor {
	form := findForm(s)
	if form == nil {
		interactive := 0
		for _, el := range s.Elements {
			if el.Interactive {
				interactive++
			}
		}
		simplicity := 1 - float64(interactive)/20
		if simplicity < 0 {
			simplicity = 0
		}
		score := 0.3 + simplicity*0.6
		return model.PostClickFactor{
			Name:    "form_friction",
			Score:   Clamp01(score),
			MaxLift: liftFormFriction,
			Note:    "no form; scored page simplicity",
		}
	}

	var score float64
	switch {
	case form.FieldCount <= 2:
		score = 0.9
	case form.FieldCount <= 5:
		score = 0.65
	case form.FieldCount <= 8:
		score = 0.45
	default:
		score = 0.2
	}

	requiredPenalty := 0.05 * float64(form.RequiredCount)
	if requiredPenalty > 0.2 {
		requiredPenalty = 0.2
	}
	score -= requiredPenalty

	if placeholderCoverage(s) >= 0.5 {
		score += 0.05
	}
	if form.HasProgressIndicator {
		score += 0.10
	}

	return model.PostClickFactor{
		Name:    "form_friction",
		Score:   Clamp01(score),
		MaxLift: liftFormFriction,
		Note:    "form with " + strconv.Itoa(form.FieldCount) + " fields",
	}
}

// scoreCommitmentMomentum measures progress language on the page and
// momentum words in the CTA text itself.
func scoreCommitmentMomentum(s StepSignals) model.PostClickFactor {
	density := textutil.KeywordDensity(s.TextContent, momentumKeywords)
	score := density / 5 * 0.6
	if score > 0.6 {
		score = 0.6
	}

	note := "progress language density scored"
	if primary, ok := findPrimary(s); ok {
		if ok, _ := textutil.ContainsAny(primary.Text, momentumCTAWords); ok {
			score += 0.3
			note += "; momentum wording in CTA"
		}
	}

	return model.PostClickFactor{Name: "commitment_momentum", Score: Clamp01(score), MaxLift: liftCommitmentMomentum, Note: note}
}

// scoreMessageMatch computes stop-word-filtered keyword overlap between
// step-1 and step-2 headings and button texts.
func scoreMessageMatch(step1, step2 StepSignals) model.PostClickFactor {
	source := strings.Join(step1.Headings, " ") + " " + strings.Join(step1.ButtonTexts, " ")
	target := strings.Join(step2.Headings, " ") + " " + strings.Join(step2.ButtonTexts, " ")

	ratio := textutil.OverlapRatio(source, target)
	score := Clamp01(0.2 + ratio*0.8)

	return model.PostClickFactor{
		Name:    "message_match",
		Score:   score,
		MaxLift: liftMessageMatch,
		Note:    "keyword overlap between steps",
	}
}

func findPrimary(s StepSignals) (model.PageElement, bool) {
	for _, el := range s.Elements {
		if el.ID == s.PrimaryID && s.PrimaryID != "" {
			return el, true
		}
	}
	return model.PageElement{}, false
}

func findForm(s StepSignals) *model.FormMeta {
	for _, el := range s.Elements {
		if el.Kind == model.ElementForm && el.Form != nil {
			return el.Form
		}
	}
	return nil
}

// placeholderCoverage returns the fraction of fields carrying
// placeholder text.
func placeholderCoverage(s StepSignals) float64 {
	fields, withPlaceholder := 0, 0
	for _, el := range s.Elements {
		if el.Kind != model.ElementField || el.Field == nil {
			continue
		}
		fields++
		if el.Field.Placeholder != "" {
			withPlaceholder++
		}
	}
	if fields == 0 {
		return 0
	}
	return float64(withPlaceholder) / float64(fields)
}
