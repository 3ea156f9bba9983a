// Package postclick implements the multiplicative factor model that
// predicts conversion likelihood on the second step of a funnel.
package postclick

import (
	"math"

	"ctalens/internal/engine"
	"ctalens/internal/model"
)

// CombineMode selects how factor effects are combined.
type CombineMode string

const (
	ModeMultiplicative CombineMode = "multiplicative"
	ModeLogit          CombineMode = "logit"
)

// DefaultReferenceRate is the rate at which factor lifts are converted
// to logit deltas in logit mode.
const DefaultReferenceRate = 0.20

// DefaultColdBaseRate is the assumed cold-traffic conversion rate for a
// second funnel step when the caller supplies none.
const DefaultColdBaseRate = 0.10

// DefaultUpperCap bounds predicted step rates built from captures.
const DefaultUpperCap = 0.65

// Options control rate prediction. The zero value means multiplicative
// mode with capping enabled at the default reference rate.
type Options struct {
	Mode          CombineMode
	ReferenceRate float64
	ApplyCap      bool
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{Mode: ModeMultiplicative, ReferenceRate: DefaultReferenceRate, ApplyCap: true}
}

// Clamp01 restricts v to [0,1]. Out-of-range factor scores are clamped
// here rather than propagated.
func Clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// FactorMultiplier converts one factor into its lift multiplier:
// 1 + maxLift * clamp(score, 0, 1). A zero score is neutral (1.0) and a
// full score contributes the whole maxLift.
func FactorMultiplier(score, maxLift float64) float64 {
	return 1 + maxLift*Clamp01(score)
}

// AudienceMultiplier returns the warmth multiplier for a tier. Unknown
// tiers are treated as cold.
func AudienceMultiplier(a model.AudienceWarmth) float64 {
	switch a {
	case model.AudienceWarm:
		return 2.5
	case model.AudienceMixed:
		return 1.5
	default:
		return 1.0
	}
}

// CombineFactors multiplies every factor's lift multiplier together.
func CombineFactors(factors []model.PostClickFactor) float64 {
	combined := 1.0
	for _, f := range factors {
		combined *= FactorMultiplier(f.Score, f.MaxLift)
	}
	return combined
}

// logit and its inverse, with inputs clamped away from 0 and 1.
func logit(p float64) float64 {
	const eps = 1e-6
	if p < eps {
		p = eps
	}
	if p > 1-eps {
		p = 1 - eps
	}
	return math.Log(p / (1 - p))
}

func invLogit(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// logitShift converts each factor's full effect at the reference rate
// into a logit delta, scales it by the clamped score, and sums.
func logitShift(factors []model.PostClickFactor, referenceRate float64) float64 {
	if referenceRate <= 0 || referenceRate >= 1 {
		referenceRate = DefaultReferenceRate
	}
	base := logit(referenceRate)

	var shift float64
	for _, f := range factors {
		lifted := referenceRate * FactorMultiplier(1, f.MaxLift)
		delta := logit(lifted) - base
		shift += Clamp01(f.Score) * delta
	}
	return shift
}

// PredictStepRate applies the factor model to one funnel step:
// predictedRate = cold_base_rate x audience_multiplier x combined
// (multiplicative mode), or the equivalent logit-space shift. When
// capping is enabled and the step has an upper cap, the rate is clamped
// to it. Every intermediate quantity is carried in the result.
func PredictStepRate(step model.PostClickStep, factors []model.PostClickFactor, opts Options) (*model.PostClickPrediction, error) {
	const op = "postclick.PredictStepRate"

	if step.ColdBaseRate <= 0 || step.ColdBaseRate > 1 {
		return nil, engine.InvalidInput(op, "cold_base_rate must be in (0,1]")
	}
	if opts.Mode == "" {
		opts.Mode = ModeMultiplicative
	}

	audience := AudienceMultiplier(step.Audience)
	combined := CombineFactors(factors)

	var rate float64
	switch opts.Mode {
	case ModeLogit:
		adjusted := step.ColdBaseRate * audience
		if adjusted > 1 {
			adjusted = 1
		}
		rate = invLogit(logit(adjusted) + logitShift(factors, opts.ReferenceRate))
	default:
		rate = step.ColdBaseRate * audience * combined
	}

	capped := false
	if opts.ApplyCap && step.UpperCap != nil && rate > *step.UpperCap {
		rate = *step.UpperCap
		capped = true
	}
	if rate > 1 {
		rate = 1
	}

	return &model.PostClickPrediction{
		StepName:           step.StepName,
		BaseRate:           step.ColdBaseRate,
		AudienceMultiplier: audience,
		FactorMultiplier:   combined,
		PredictedRate:      rate,
		Capped:             capped,
		Mode:               string(opts.Mode),
		Factors:            factors,
	}, nil
}

// CreateStep2Prediction scores a second funnel step directly from two
// captured steps' structural signals, using default base rate, cap, and
// multiplicative combination.
func CreateStep2Prediction(step1, step2 StepSignals, warmth model.AudienceWarmth) (*model.PostClickPrediction, error) {
	factors := AnalyzeFactorsFromCapture(step1, step2)

	upperCap := DefaultUpperCap
	step := model.PostClickStep{
		StepName:     step2.URL,
		ColdBaseRate: DefaultColdBaseRate,
		Audience:     warmth,
		UpperCap:     &upperCap,
	}

	return PredictStepRate(step, factors, DefaultOptions())
}
