// Package feature normalizes heterogeneous raw element records captured
// from a page into the canonical model.PageElement shape consumed by
// the prediction engine.
package feature

import (
	"fmt"
	"strings"

	"ctalens/internal/model"
)

// RawElement is the loose record shape produced by page capture or
// submitted directly by API clients. Pointer fields distinguish
// "absent" from zero values so defaulting can be reported.
type RawElement struct {
	ID      string `json:"id,omitempty"`
	TagName string `json:"tagName,omitempty"`
	Type    string `json:"type,omitempty"`
	Text    string `json:"text,omitempty"`

	X      *float64 `json:"x,omitempty"`
	Y      *float64 `json:"y,omitempty"`
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`

	Visible       *bool `json:"isVisible,omitempty"`
	Interactive   *bool `json:"isInteractive,omitempty"`
	ButtonStyling bool  `json:"hasButtonStyling,omitempty"`

	Href       string `json:"href,omitempty"`
	FormAction string `json:"formAction,omitempty"`

	Required     bool   `json:"required,omitempty"`
	Label        string `json:"label,omitempty"`
	Placeholder  string `json:"placeholder,omitempty"`
	Autocomplete string `json:"autocomplete,omitempty"`
	Pattern      string `json:"pattern,omitempty"`
	MinLength    int    `json:"minLength,omitempty"`
	MaxLength    int    `json:"maxLength,omitempty"`

	FieldCount           int  `json:"fieldCount,omitempty"`
	RequiredCount        int  `json:"requiredCount,omitempty"`
	HasProgressIndicator bool `json:"hasProgressIndicator,omitempty"`

	Decorative         bool `json:"isDecorative,omitempty"`
	VisualNoise        bool `json:"hasVisualNoise,omitempty"`
	NearbyCTA          bool `json:"hasNearbyCTA,omitempty"`
	CompetingNeighbors bool `json:"hasMultipleCompetingElements,omitempty"`
	AutoRotating       bool `json:"isAutoRotating,omitempty"`
	Sticky             bool `json:"isSticky,omitempty"`
	Autoplay           bool `json:"autoplay,omitempty"`
}

// Report summarizes how much of the raw input had to be defaulted or
// skipped during normalization. The prediction engine uses it to build
// its reliability envelope.
type Report struct {
	Total           int      `json:"total"`
	Skipped         int      `json:"skipped"`
	MissingText     int      `json:"missingText"`
	MissingGeometry int      `json:"missingGeometry"`
	MissingType     int      `json:"missingType"`
	MissingFields   []string `json:"missingFields,omitempty"`
}

// Completeness returns the fraction of expected attributes that were
// present across all normalized elements, in [0,1].
func (r Report) Completeness() float64 {
	kept := r.Total - r.Skipped
	if kept <= 0 {
		return 0
	}
	expected := float64(kept * 3)
	missing := float64(r.MissingText + r.MissingGeometry + r.MissingType)
	c := 1 - missing/expected
	if c < 0 {
		return 0
	}
	return c
}

// fieldTags are tag names that normalize to ElementField.
var fieldTags = map[string]struct{}{
	"input": {}, "select": {}, "textarea": {},
}

// classifyKind maps a raw tag/type pair onto the closed ElementKind
// union. The second return is false when the record cannot be
// classified and must be skipped.
func classifyKind(raw RawElement) (model.ElementKind, bool) {
	tag := strings.ToLower(strings.TrimSpace(raw.TagName))
	typ := strings.ToLower(strings.TrimSpace(raw.Type))

	switch tag {
	case "button":
		return model.ElementButton, true
	case "a", "link":
		return model.ElementLink, true
	case "form":
		return model.ElementForm, true
	}

	if tag == "input" && (typ == "submit" || typ == "button") {
		return model.ElementButton, true
	}
	if _, ok := fieldTags[tag]; ok {
		return model.ElementField, true
	}

	// No tag, fall back to the record's declared type.
	switch typ {
	case "button", "cta":
		return model.ElementButton, true
	case "link":
		return model.ElementLink, true
	case "form":
		return model.ElementForm, true
	case "field", "input":
		return model.ElementField, true
	}

	return "", false
}

// clampCoord returns a non-negative coordinate and whether the value
// was present at all.
func clampCoord(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	if *v < 0 {
		return 0, true
	}
	return *v, true
}

// Normalize converts raw records to canonical PageElements. The fold
// line drives AboveFold derivation; geometry is clamped to
// non-negative, and records outside the closed kind union are skipped
// and counted in the report. Element order is preserved.
func Normalize(raw []RawElement, foldLine float64) ([]model.PageElement, Report) {
	report := Report{Total: len(raw)}
	elements := make([]model.PageElement, 0, len(raw))

	for i, r := range raw {
		kind, ok := classifyKind(r)
		if !ok {
			report.Skipped++
			continue
		}

		var gaps []string

		x, hasX := clampCoord(r.X)
		y, hasY := clampCoord(r.Y)
		w, hasW := clampCoord(r.Width)
		h, hasH := clampCoord(r.Height)
		if !hasX || !hasY || !hasW || !hasH {
			report.MissingGeometry++
			gaps = append(gaps, "geometry")
		}

		text := strings.TrimSpace(r.Text)
		if text == "" && kind != model.ElementForm && kind != model.ElementField {
			report.MissingText++
			gaps = append(gaps, "text")
		}

		if strings.TrimSpace(r.TagName) == "" {
			report.MissingType++
			gaps = append(gaps, "type")
		}

		id := strings.TrimSpace(r.ID)
		if id == "" {
			id = fmt.Sprintf("el-%d", i)
		}

		visible := true
		if r.Visible != nil {
			visible = *r.Visible
		}

		interactive := kind != model.ElementForm
		if r.Interactive != nil {
			interactive = *r.Interactive
		}

		el := model.PageElement{
			ID:              id,
			Kind:            kind,
			Text:            text,
			Box:             model.BoundingBox{X: x, Y: y, Width: w, Height: h},
			Visible:         visible,
			AboveFold:       foldLine > 0 && y < foldLine,
			DistanceFromTop: y,
			Interactive:     interactive,
			ButtonStyling:   r.ButtonStyling,

			Decorative:         r.Decorative,
			VisualNoise:        r.VisualNoise,
			NearbyCTA:          r.NearbyCTA,
			CompetingNeighbors: r.CompetingNeighbors,
			AutoRotating:       r.AutoRotating,
			Sticky:             r.Sticky,
			Autoplay:           r.Autoplay,

			DataGaps: gaps,
		}

		switch kind {
		case model.ElementForm:
			el.Form = &model.FormMeta{
				Action:               r.FormAction,
				FieldCount:           r.FieldCount,
				RequiredCount:        r.RequiredCount,
				HasProgressIndicator: r.HasProgressIndicator,
			}
		case model.ElementField:
			el.Field = &model.FieldMeta{
				Type:         r.Type,
				Required:     r.Required,
				Label:        r.Label,
				Placeholder:  r.Placeholder,
				Autocomplete: r.Autocomplete,
				Pattern:      r.Pattern,
				MinLength:    r.MinLength,
				MaxLength:    r.MaxLength,
			}
		case model.ElementLink, model.ElementButton:
			if r.Href != "" || r.FormAction != "" {
				el.Nav = &model.NavMeta{Href: r.Href, FormAction: r.FormAction}
			}
		}

		elements = append(elements, el)
	}

	report.MissingFields = missingFieldSummary(report)
	return elements, report
}

func missingFieldSummary(r Report) []string {
	var fields []string
	if r.MissingText > 0 {
		fields = append(fields, "text")
	}
	if r.MissingGeometry > 0 {
		fields = append(fields, "geometry")
	}
	if r.MissingType > 0 {
		fields = append(fields, "type")
	}
	return fields
}
