package funnel

import (
	"math"
	"testing"

	"ctalens/internal/engine"
	"ctalens/internal/model"
)

func TestSingleStepFunnelMath(t *testing.T) {
	step1 := model.FunnelStep{URL: "https://example.com", PredictedCTR: 20.2}

	fd := CalculateFunnelMetrics(step1, nil, 1000)

	if fd.N1 != 1000 || fd.N2 != 1000 {
		t.Fatalf("single-step funnel should carry all visitors: n1=%d n2=%d", fd.N1, fd.N2)
	}
	if math.Abs(fd.P1-0.202) > 1e-9 {
		t.Fatalf("p1 = %v, want 0.202", fd.P1)
	}
	if fd.PTotal != fd.P1 {
		t.Fatalf("single-step pTotal must equal p1, got %v", fd.PTotal)
	}
	if fd.NConv != 202 {
		t.Fatalf("nConv = %d, want 202", fd.NConv)
	}
}

func TestTwoStepFunnelMath(t *testing.T) {
	step1 := model.FunnelStep{URL: "https://example.com", PredictedCTR: 20.2}
	step2 := model.FunnelStep{URL: "https://example.com/next", PredictedCTR: 30.0}

	fd := CalculateFunnelMetrics(step1, &step2, 1000)

	if fd.N2 != 202 {
		t.Fatalf("n2 = %d, want round(1000*0.202) = 202", fd.N2)
	}
	if fd.NConv != 61 {
		t.Fatalf("nConv = %d, want round(202*0.30) = 61", fd.NConv)
	}
	if math.Abs(fd.PTotal-0.0606) > 1e-9 {
		t.Fatalf("pTotal = %v, want 0.0606", fd.PTotal)
	}
	if fd.Type != model.FunnelNonForm {
		t.Fatalf("two-step funnel type = %s, want non-form", fd.Type)
	}
}

func TestFunnelMetricsClampOutOfRange(t *testing.T) {
	step1 := model.FunnelStep{PredictedCTR: 250} // already a decimal times 100 twice somewhere upstream
	fd := CalculateFunnelMetrics(step1, nil, 100)
	if fd.P1 != 1 {
		t.Fatalf("rates above 100%% must clamp to 1, got %v", fd.P1)
	}

	step1 = model.FunnelStep{PredictedCTR: -5}
	fd = CalculateFunnelMetrics(step1, nil, 100)
	if fd.P1 != 0 {
		t.Fatalf("negative rates must clamp to 0, got %v", fd.P1)
	}
}

func ctaStep(formY float64, formAboveFold bool) StepInput {
	return StepInput{
		URL:          "https://example.com",
		PrimaryID:    "cta",
		PredictedCTR: 18,
		Elements: []model.PageElement{
			{
				ID: "cta", Kind: model.ElementButton, Text: "Sign up",
				Box:       model.BoundingBox{X: 100, Y: 400, Width: 160, Height: 48},
				Visible:   true,
				AboveFold: true, Interactive: true, ButtonStyling: true,
			},
			{
				ID: "form", Kind: model.ElementForm,
				Box:       model.BoundingBox{X: 80, Y: formY, Width: 400, Height: 300},
				Visible:   true,
				AboveFold: formAboveFold,
				Form:      &model.FormMeta{FieldCount: 3},
			},
		},
	}
}

func TestClassifyCTATypeSpatial(t *testing.T) {
	// CTA inside an above-fold form's box: form funnel.
	if got := ClassifyCTAType(ctaStep(250, true)); got != model.FunnelForm {
		t.Fatalf("overlapping above-fold form should classify as form, got %s", got)
	}

	// Form far below the CTA: non-form.
	if got := ClassifyCTAType(ctaStep(2000, false)); got != model.FunnelNonForm {
		t.Fatalf("distant form should classify as non-form, got %s", got)
	}

	// Form overlaps spatially but is below the fold: presence alone is
	// not enough.
	if got := ClassifyCTAType(ctaStep(250, false)); got != model.FunnelNonForm {
		t.Fatalf("below-fold form must not produce a form classification, got %s", got)
	}

	// No primary CTA at all.
	step := ctaStep(250, true)
	step.PrimaryID = ""
	if got := ClassifyCTAType(step); got != model.FunnelNone {
		t.Fatalf("missing primary should classify as none, got %s", got)
	}
}

func TestClassifyCTATypeScalesCoordinates(t *testing.T) {
	// In capture space the CTA and form overlap; a capture twice the
	// display width must not break the match since both scale together.
	step := ctaStep(250, true)
	step.CaptureWidth = 2560
	step.DisplayWidth = 1280
	if got := ClassifyCTAType(step); got != model.FunnelForm {
		t.Fatalf("scaled coordinates should still overlap, got %s", got)
	}
}

func TestAnalyzeFunnelFromCapture(t *testing.T) {
	fd, err := AnalyzeFunnelFromCapture(ctaStep(2000, false), 1000)
	if err != nil {
		t.Fatalf("AnalyzeFunnelFromCapture failed: %v", err)
	}

	if fd.Type != model.FunnelNonForm {
		t.Fatalf("funnel type = %s, want non-form", fd.Type)
	}
	if fd.Step1.CTAText != "Sign up" || fd.Step1.CTAType != model.ElementButton {
		t.Fatalf("step1 CTA not extracted: %+v", fd.Step1)
	}
	// No step 2 yet: single-step math applies.
	if fd.PTotal != fd.P1 || fd.N2 != fd.N1 {
		t.Fatalf("pre-step2 funnel should be single-step: %+v", fd)
	}

	_, err = AnalyzeFunnelFromCapture(StepInput{}, 1000)
	if !engine.IsKind(err, engine.KindInsufficientData) {
		t.Fatalf("expected insufficient-data for empty structural data, got %v", err)
	}
}

func TestUpdateFunnelWithStep2(t *testing.T) {
	fd, err := AnalyzeFunnelFromCapture(ctaStep(2000, false), 1000)
	if err != nil {
		t.Fatalf("AnalyzeFunnelFromCapture failed: %v", err)
	}
	fd.Step1.PredictedCTR = 20.2
	base := CalculateFunnelMetrics(fd.Step1, nil, fd.N1)
	base.Type = fd.Type

	updated := UpdateFunnelWithStep2(base, model.FunnelStep{
		URL:          "https://example.com/next",
		PredictedCTR: 30,
	})

	if updated.N2 != 202 || updated.NConv != 61 {
		t.Fatalf("updated funnel math wrong: n2=%d nConv=%d", updated.N2, updated.NConv)
	}
	if updated.Step2 == nil || updated.Step2.PredictedClicks != float64(updated.N2)*updated.P2 {
		t.Fatalf("step2 predicted clicks not derived: %+v", updated.Step2)
	}
}

func TestResolveCTATarget(t *testing.T) {
	primary := model.PageElement{
		ID: "cta", Kind: model.ElementButton,
		Nav: &model.NavMeta{Href: "/pricing"},
	}

	resolved, err := ResolveCTATarget("https://example.com/landing", primary)
	if err != nil {
		t.Fatalf("ResolveCTATarget failed: %v", err)
	}
	if resolved != "https://example.com/pricing" {
		t.Fatalf("resolved = %q, want https://example.com/pricing", resolved)
	}

	// www variant counts as the same domain.
	primary.Nav.Href = "https://www.example.com/pricing"
	if _, err := ResolveCTATarget("https://example.com/landing", primary); err != nil {
		t.Fatalf("www variant should resolve: %v", err)
	}
}

func TestResolveCTATargetRejections(t *testing.T) {
	crossDomain := model.PageElement{
		ID: "cta", Nav: &model.NavMeta{Href: "https://other.com/buy"},
	}
	_, err := ResolveCTATarget("https://example.com", crossDomain)
	if !engine.IsKind(err, engine.KindUnresolvableNavigation) {
		t.Fatalf("expected unresolvable-navigation for cross-domain, got %v", err)
	}

	noHref := model.PageElement{ID: "cta"}
	_, err = ResolveCTATarget("https://example.com", noHref)
	if !engine.IsKind(err, engine.KindUnresolvableNavigation) {
		t.Fatalf("expected unresolvable-navigation for missing href, got %v", err)
	}

	anchor := model.PageElement{ID: "cta", Nav: &model.NavMeta{Href: "#signup"}}
	_, err = ResolveCTATarget("https://example.com", anchor)
	if !engine.IsKind(err, engine.KindUnresolvableNavigation) {
		t.Fatalf("expected unresolvable-navigation for fragment href, got %v", err)
	}
}
