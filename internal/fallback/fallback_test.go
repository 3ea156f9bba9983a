package fallback

import (
	"testing"

	"ctalens/internal/engine"
	"ctalens/internal/model"
)

func TestForPredictionDefaults(t *testing.T) {
	pctx := model.PageContext{
		URL:            "https://example.com",
		Device:         model.DeviceMobile,
		MonthlyTraffic: 1000,
		Elements: []model.PageElement{
			{ID: "cta", Kind: model.ElementButton, Interactive: true},
			{ID: "form", Kind: model.ElementForm, Interactive: false},
		},
	}

	res := ForPrediction(engine.KindInsufficientData, pctx)

	if !res.Fallback || res.FallbackReason == "" {
		t.Fatalf("fallback result must be labelled: %+v", res)
	}
	if len(res.Predictions) != 1 {
		t.Fatalf("expected 1 prediction for the interactive element, got %d", len(res.Predictions))
	}
	p := res.Predictions[0]
	if p.CTR != BaselineCTR {
		t.Fatalf("ctr = %v, want baseline %v", p.CTR, BaselineCTR)
	}
	if p.WastedSpend != 0 || p.WastedClicks != 0 {
		t.Fatalf("fallback must carry zero wasted spend: %+v", p)
	}
	if p.Confidence != model.ConfidenceLow {
		t.Fatalf("fallback confidence = %s, want low", p.Confidence)
	}
}

func TestForWastedClicksIsEmptyAndLabelled(t *testing.T) {
	a := ForWastedClicks(engine.KindUnresolvableNavigation)
	if !a.Fallback {
		t.Fatal("fallback analysis must be labelled")
	}
	if a.TotalWastedElements != 0 || len(a.HighRiskElements) != 0 {
		t.Fatalf("fallback analysis must be empty: %+v", a)
	}
	if a.ProjectedImprovements.CTRImprovement != 0 {
		t.Fatalf("fallback must not project uplift: %+v", a.ProjectedImprovements)
	}
}
