package feature

import (
	"testing"

	"ctalens/internal/model"
)

func fptr(v float64) *float64 { return &v }

func TestNormalizeClassifiesKinds(t *testing.T) {
	raw := []RawElement{
		{ID: "b1", TagName: "button", Text: "Buy now", X: fptr(10), Y: fptr(20), Width: fptr(120), Height: fptr(44)},
		{ID: "l1", TagName: "a", Text: "Learn more", Href: "/about", X: fptr(10), Y: fptr(90), Width: fptr(80), Height: fptr(20)},
		{ID: "f1", TagName: "form", FormAction: "/signup", FieldCount: 3, X: fptr(0), Y: fptr(100), Width: fptr(300), Height: fptr(200)},
		{ID: "i1", TagName: "input", Type: "email", Placeholder: "you@example.com", X: fptr(10), Y: fptr(120), Width: fptr(200), Height: fptr(30)},
		{ID: "s1", TagName: "input", Type: "submit", Text: "Go", X: fptr(10), Y: fptr(160), Width: fptr(60), Height: fptr(30)},
		{ID: "junk", TagName: "div"},
	}

	elements, report := Normalize(raw, 600)

	if len(elements) != 5 {
		t.Fatalf("expected 5 normalized elements, got %d", len(elements))
	}
	if report.Skipped != 1 {
		t.Fatalf("expected 1 skipped record, got %d", report.Skipped)
	}

	wantKinds := []model.ElementKind{
		model.ElementButton, model.ElementLink, model.ElementForm,
		model.ElementField, model.ElementButton,
	}
	for i, el := range elements {
		if el.Kind != wantKinds[i] {
			t.Fatalf("element %d: kind = %s, want %s", i, el.Kind, wantKinds[i])
		}
	}

	if elements[2].Form == nil || elements[2].Form.FieldCount != 3 {
		t.Fatalf("form meta not carried: %+v", elements[2].Form)
	}
	if elements[3].Field == nil || elements[3].Field.Placeholder != "you@example.com" {
		t.Fatalf("field meta not carried: %+v", elements[3].Field)
	}
	if elements[1].Nav == nil || elements[1].Nav.Href != "/about" {
		t.Fatalf("nav meta not carried: %+v", elements[1].Nav)
	}
}

func TestNormalizeClampsNegativeGeometry(t *testing.T) {
	raw := []RawElement{
		{ID: "b1", TagName: "button", Text: "Go", X: fptr(-50), Y: fptr(-10), Width: fptr(100), Height: fptr(40)},
	}

	elements, _ := Normalize(raw, 600)
	if len(elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(elements))
	}
	box := elements[0].Box
	if box.X != 0 || box.Y != 0 {
		t.Fatalf("negative geometry not clamped: %+v", box)
	}
}

func TestNormalizeDerivesAboveFold(t *testing.T) {
	raw := []RawElement{
		{ID: "above", TagName: "button", Text: "A", X: fptr(0), Y: fptr(100), Width: fptr(50), Height: fptr(30)},
		{ID: "below", TagName: "button", Text: "B", X: fptr(0), Y: fptr(900), Width: fptr(50), Height: fptr(30)},
	}

	elements, _ := Normalize(raw, 600)
	if !elements[0].AboveFold {
		t.Fatal("element at y=100 should be above a 600px fold")
	}
	if elements[1].AboveFold {
		t.Fatal("element at y=900 should be below a 600px fold")
	}
	if elements[1].DistanceFromTop != 900 {
		t.Fatalf("distanceFromTop = %v, want 900", elements[1].DistanceFromTop)
	}
}

func TestNormalizeReportsGaps(t *testing.T) {
	raw := []RawElement{
		{ID: "b1", TagName: "button", Text: ""},
	}

	elements, report := Normalize(raw, 600)
	if report.MissingText != 1 || report.MissingGeometry != 1 {
		t.Fatalf("expected text+geometry gaps, got %+v", report)
	}
	gaps := elements[0].DataGaps
	if len(gaps) < 2 {
		t.Fatalf("expected at least 2 data gaps on element, got %v", gaps)
	}

	if c := report.Completeness(); c <= 0 || c >= 1 {
		t.Fatalf("completeness should be strictly between 0 and 1, got %v", c)
	}
}

func TestNormalizeAssignsStableIDs(t *testing.T) {
	raw := []RawElement{
		{TagName: "button", Text: "One", X: fptr(0), Y: fptr(0), Width: fptr(10), Height: fptr(10)},
		{TagName: "button", Text: "Two", X: fptr(0), Y: fptr(0), Width: fptr(10), Height: fptr(10)},
	}

	elements, _ := Normalize(raw, 600)
	if elements[0].ID == elements[1].ID {
		t.Fatalf("generated IDs must be unique, both were %q", elements[0].ID)
	}
}
