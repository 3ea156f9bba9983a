package postclick

import (
	"testing"

	"ctalens/internal/model"
)

func signalsWithPrimary(w, h float64) StepSignals {
	return StepSignals{
		URL:       "https://example.com/signup",
		PrimaryID: "cta",
		Elements: []model.PageElement{
			{
				ID: "cta", Kind: model.ElementButton, Text: "Continue to checkout",
				Box:         model.BoundingBox{X: 40, Y: 200, Width: w, Height: h},
				Visible:     true, Interactive: true, ButtonStyling: true,
			},
		},
		DetectionConfidence: 0.9,
	}
}

func factorByName(t *testing.T, factors []model.PostClickFactor, name string) model.PostClickFactor {
	t.Helper()
	for _, f := range factors {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("factor %q not produced", name)
	return model.PostClickFactor{}
}

func TestAnalyzeFactorsProducesFullSet(t *testing.T) {
	factors := AnalyzeFactorsFromCapture(StepSignals{}, signalsWithPrimary(160, 48))
	if len(factors) != 7 {
		t.Fatalf("expected 7 factors, got %d", len(factors))
	}
	for _, f := range factors {
		if f.Score < 0 || f.Score > 1 {
			t.Fatalf("factor %s score out of range: %v", f.Name, f.Score)
		}
		if f.MaxLift <= 0 {
			t.Fatalf("factor %s missing max lift", f.Name)
		}
	}
}

func TestPageSpeedPenalties(t *testing.T) {
	light := scorePageSpeed(StepSignals{ImageCount: 5, ScriptCount: 3})
	heavy := scorePageSpeed(StepSignals{ImageCount: 30, ScriptCount: 20})
	lazy := scorePageSpeed(StepSignals{ImageCount: 30, ScriptCount: 20, LazyLoadedImages: 8})

	if heavy.Score >= light.Score {
		t.Fatalf("heavy page should score below light page: %v vs %v", heavy.Score, light.Score)
	}
	if lazy.Score <= heavy.Score {
		t.Fatalf("lazy loading should recover some score: %v vs %v", lazy.Score, heavy.Score)
	}
}

func TestMobileCTATouchTargets(t *testing.T) {
	good := scoreMobileCTA(signalsWithPrimary(160, 48))
	tiny := scoreMobileCTA(signalsWithPrimary(28, 28))

	if good.Score <= tiny.Score {
		t.Fatalf("44x44 target should outscore sub-32px target: %v vs %v", good.Score, tiny.Score)
	}
	if tiny.Score > 0.3 {
		t.Fatalf("sub-32px target should be heavily penalized, got %v", tiny.Score)
	}
}

func TestCTAClarityFewerCompetitorsBetter(t *testing.T) {
	clean := signalsWithPrimary(160, 48)

	crowded := signalsWithPrimary(160, 48)
	for i := 0; i < 10; i++ {
		crowded.Elements = append(crowded.Elements, model.PageElement{
			ID: "x" + string(rune('a'+i)), Kind: model.ElementLink,
			Visible: true, Interactive: true,
		})
	}

	if scoreCTAClarity(crowded).Score >= scoreCTAClarity(clean).Score {
		t.Fatal("more competing elements must lower clarity")
	}
}

func TestTrustSignalsKeywordScan(t *testing.T) {
	bare := scoreTrustSignals(StepSignals{TextContent: "hello world"})
	trusty := scoreTrustSignals(StepSignals{
		TextContent: "SSL secured, money-back guarantee, certified partner, see testimonials",
	})

	if trusty.Score <= bare.Score {
		t.Fatalf("trust language should raise the score: %v vs %v", trusty.Score, bare.Score)
	}
}

func TestFormFrictionFieldCounts(t *testing.T) {
	withForm := func(fields, required int) StepSignals {
		return StepSignals{
			Elements: []model.PageElement{
				{ID: "f", Kind: model.ElementForm, Form: &model.FormMeta{FieldCount: fields, RequiredCount: required}},
			},
		}
	}

	short := scoreFormFriction(withForm(2, 0))
	long := scoreFormFriction(withForm(10, 6))
	if short.Score <= long.Score {
		t.Fatalf("2-field form should beat 10-field form: %v vs %v", short.Score, long.Score)
	}

	required := scoreFormFriction(withForm(4, 4))
	optional := scoreFormFriction(withForm(4, 0))
	if required.Score >= optional.Score {
		t.Fatal("required fields should add friction")
	}
}

func TestFormFrictionNonFormFallback(t *testing.T) {
	simple := StepSignals{Elements: []model.PageElement{
		{ID: "a", Kind: model.ElementButton, Visible: true, Interactive: true},
	}}
	busy := StepSignals{}
	for i := 0; i < 18; i++ {
		busy.Elements = append(busy.Elements, model.PageElement{
			ID: "b" + string(rune('a'+i)), Kind: model.ElementLink, Visible: true, Interactive: true,
		})
	}

	if scoreFormFriction(busy).Score >= scoreFormFriction(simple).Score {
		t.Fatal("busier non-form page should score worse on the simplicity proxy")
	}
}

func TestMessageMatchOverlap(t *testing.T) {
	step1 := StepSignals{
		Headings:    []string{"Start your free trial"},
		ButtonTexts: []string{"Start free trial"},
	}
	matched := StepSignals{
		Headings: []string{"Your free trial starts here"},
	}
	unmatched := StepSignals{
		Headings: []string{"Quarterly earnings report"},
	}

	hit := scoreMessageMatch(step1, matched)
	miss := scoreMessageMatch(step1, unmatched)
	if hit.Score <= miss.Score {
		t.Fatalf("matching headline should score higher: %v vs %v", hit.Score, miss.Score)
	}
	if miss.Score != 0.2 {
		t.Fatalf("zero overlap should float at the 0.2 base, got %v", miss.Score)
	}
}

func TestCreateStep2Prediction(t *testing.T) {
	step1 := StepSignals{
		URL:         "https://example.com/",
		Headings:    []string{"Start your free trial"},
		ButtonTexts: []string{"Start free trial"},
	}
	step2 := signalsWithPrimary(160, 48)
	step2.Headings = []string{"Start your free trial today"}
	step2.TextContent = "secure checkout with money-back guarantee"

	pred, err := CreateStep2Prediction(step1, step2, model.AudienceMixed)
	if err != nil {
		t.Fatalf("CreateStep2Prediction failed: %v", err)
	}

	if pred.BaseRate != DefaultColdBaseRate {
		t.Fatalf("base rate = %v, want default %v", pred.BaseRate, DefaultColdBaseRate)
	}
	if pred.AudienceMultiplier != 1.5 {
		t.Fatalf("mixed audience multiplier = %v, want 1.5", pred.AudienceMultiplier)
	}
	if pred.PredictedRate <= 0 || pred.PredictedRate > DefaultUpperCap {
		t.Fatalf("predicted rate out of bounds: %v", pred.PredictedRate)
	}
	if len(pred.Factors) != 7 {
		t.Fatalf("expected all 7 factors in output, got %d", len(pred.Factors))
	}
}
