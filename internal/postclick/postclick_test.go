package postclick

import (
	"math"
	"testing"

	"ctalens/internal/engine"
	"ctalens/internal/model"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestFactorMultiplierIdentities(t *testing.T) {
	for _, maxLift := range []float64{0, 0.1, 0.4, 0.7, 2.0} {
		if got := FactorMultiplier(0, maxLift); got != 1 {
			t.Fatalf("FactorMultiplier(0, %v) = %v, want 1", maxLift, got)
		}
		if got := FactorMultiplier(1, maxLift); !almostEqual(got, 1+maxLift, 1e-12) {
			t.Fatalf("FactorMultiplier(1, %v) = %v, want %v", maxLift, got, 1+maxLift)
		}
	}
}

func TestFactorMultiplierClampsScore(t *testing.T) {
	if got := FactorMultiplier(-2, 0.5); got != 1 {
		t.Fatalf("negative score should clamp to neutral, got %v", got)
	}
	if got := FactorMultiplier(3, 0.5); !almostEqual(got, 1.5, 1e-12) {
		t.Fatalf("score above 1 should clamp to full lift, got %v", got)
	}
	if got := FactorMultiplier(math.NaN(), 0.5); got != 1 {
		t.Fatalf("NaN score must clamp, not propagate: %v", got)
	}
}

func TestCombineFactorsWorkedExample(t *testing.T) {
	factors := []model.PostClickFactor{
		{Name: "a", Score: 0.8, MaxLift: 0.4},
		{Name: "b", Score: 0.6, MaxLift: 0.7},
		{Name: "c", Score: 0.9, MaxLift: 0.1},
	}

	// Per-factor multipliers: 1.32, 1.42, 1.09.
	if got := FactorMultiplier(0.8, 0.4); !almostEqual(got, 1.32, 1e-9) {
		t.Fatalf("first factor multiplier = %v, want 1.32", got)
	}
	if got := FactorMultiplier(0.6, 0.7); !almostEqual(got, 1.42, 1e-9) {
		t.Fatalf("second factor multiplier = %v, want 1.42", got)
	}
	if got := FactorMultiplier(0.9, 0.1); !almostEqual(got, 1.09, 1e-9) {
		t.Fatalf("third factor multiplier = %v, want 1.09", got)
	}

	combined := CombineFactors(factors)
	want := 1.32 * 1.42 * 1.09
	if !almostEqual(combined, want, 1e-9) {
		t.Fatalf("combined = %v, want %v", combined, want)
	}
}

func TestPredictStepRateWarmAudience(t *testing.T) {
	factors := []model.PostClickFactor{
		{Name: "a", Score: 0.8, MaxLift: 0.4},
		{Name: "b", Score: 0.6, MaxLift: 0.7},
		{Name: "c", Score: 0.9, MaxLift: 0.1},
	}
	step := model.PostClickStep{
		StepName:     "checkout",
		ColdBaseRate: 0.10,
		Audience:     model.AudienceWarm,
	}

	pred, err := PredictStepRate(step, factors, Options{Mode: ModeMultiplicative})
	if err != nil {
		t.Fatalf("PredictStepRate failed: %v", err)
	}

	if pred.AudienceMultiplier != 2.5 {
		t.Fatalf("warm audience multiplier = %v, want 2.5", pred.AudienceMultiplier)
	}
	want := 0.10 * 2.5 * (1.32 * 1.42 * 1.09)
	if !almostEqual(pred.PredictedRate, want, 1e-9) {
		t.Fatalf("predicted rate = %v, want %v", pred.PredictedRate, want)
	}
	// Intermediates must survive for auditability.
	if pred.BaseRate != 0.10 || !almostEqual(pred.FactorMultiplier, 1.32*1.42*1.09, 1e-9) {
		t.Fatalf("intermediate quantities not carried: %+v", pred)
	}
	if len(pred.Factors) != 3 {
		t.Fatalf("factor list not carried, got %d entries", len(pred.Factors))
	}
}

func TestPredictStepRateCapping(t *testing.T) {
	upperCap := 0.65
	step := model.PostClickStep{
		StepName:     "checkout",
		ColdBaseRate: 0.30,
		Audience:     model.AudienceWarm,
		UpperCap:     &upperCap,
	}
	factors := []model.PostClickFactor{{Name: "a", Score: 1, MaxLift: 0.5}}

	pred, err := PredictStepRate(step, factors, Options{Mode: ModeMultiplicative, ApplyCap: true})
	if err != nil {
		t.Fatalf("PredictStepRate failed: %v", err)
	}
	if pred.PredictedRate != 0.65 {
		t.Fatalf("capped rate = %v, want exactly 0.65", pred.PredictedRate)
	}
	if !pred.Capped {
		t.Fatal("cap application must be flagged")
	}

	// Without capping the raw rate exceeds the cap.
	raw, err := PredictStepRate(step, factors, Options{Mode: ModeMultiplicative, ApplyCap: false})
	if err != nil {
		t.Fatalf("PredictStepRate failed: %v", err)
	}
	if raw.PredictedRate <= 0.65 || raw.Capped {
		t.Fatalf("uncapped rate should exceed cap: %+v", raw)
	}
}

func TestPredictStepRateAudienceTiers(t *testing.T) {
	step := model.PostClickStep{StepName: "s", ColdBaseRate: 0.10}

	tiers := map[model.AudienceWarmth]float64{
		model.AudienceCold:  1.0,
		model.AudienceMixed: 1.5,
		model.AudienceWarm:  2.5,
	}
	for tier, want := range tiers {
		step.Audience = tier
		pred, err := PredictStepRate(step, nil, Options{})
		if err != nil {
			t.Fatalf("%s: PredictStepRate failed: %v", tier, err)
		}
		if pred.AudienceMultiplier != want {
			t.Fatalf("%s multiplier = %v, want %v", tier, pred.AudienceMultiplier, want)
		}
		if !almostEqual(pred.PredictedRate, 0.10*want, 1e-12) {
			t.Fatalf("%s rate = %v, want %v", tier, pred.PredictedRate, 0.10*want)
		}
	}
}

func TestPredictStepRateLogitMode(t *testing.T) {
	step := model.PostClickStep{StepName: "s", ColdBaseRate: 0.20, Audience: model.AudienceCold}
	weak := []model.PostClickFactor{{Name: "a", Score: 0.2, MaxLift: 0.4}}
	strong := []model.PostClickFactor{{Name: "a", Score: 0.9, MaxLift: 0.4}}

	weakPred, err := PredictStepRate(step, weak, Options{Mode: ModeLogit})
	if err != nil {
		t.Fatalf("logit predict failed: %v", err)
	}
	strongPred, err := PredictStepRate(step, strong, Options{Mode: ModeLogit})
	if err != nil {
		t.Fatalf("logit predict failed: %v", err)
	}

	if weakPred.PredictedRate <= step.ColdBaseRate {
		t.Fatalf("positive factor should lift the base rate, got %v", weakPred.PredictedRate)
	}
	if strongPred.PredictedRate <= weakPred.PredictedRate {
		t.Fatalf("stronger score must lift more: weak=%v strong=%v",
			weakPred.PredictedRate, strongPred.PredictedRate)
	}
	if strongPred.PredictedRate <= 0 || strongPred.PredictedRate >= 1 {
		t.Fatalf("logit rate must stay in (0,1): %v", strongPred.PredictedRate)
	}
}

func TestPredictStepRateInvalidBaseRate(t *testing.T) {
	_, err := PredictStepRate(model.PostClickStep{ColdBaseRate: 0}, nil, Options{})
	if !engine.IsKind(err, engine.KindInvalidInput) {
		t.Fatalf("expected invalid-input for zero base rate, got %v", err)
	}
	_, err = PredictStepRate(model.PostClickStep{ColdBaseRate: 1.5}, nil, Options{})
	if !engine.IsKind(err, engine.KindInvalidInput) {
		t.Fatalf("expected invalid-input for base rate > 1, got %v", err)
	}
}
