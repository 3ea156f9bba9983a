package wasted

import (
	"fmt"

	"ctalens/internal/model"
)

// Recommendation categories.
const (
	CategoryQuickWins         = "Quick Wins"
	CategoryFormFixes         = "Form Fixes"
	CategoryStructuralChanges = "Structural Changes"
)

// elementRecommendation produces the one-line advice attached to a
// flagged element.
func elementRecommendation(el model.PageElement) string {
	switch {
	case el.Decorative:
		return fmt.Sprintf("Remove or de-emphasize decorative element %q", el.ID)
	case el.AutoRotating:
		return fmt.Sprintf("Stop auto-rotation on %q; moving targets burn clicks", el.ID)
	case el.Kind == model.ElementField || el.Kind == model.ElementForm:
		return fmt.Sprintf("Simplify or relocate form element %q away from the primary CTA", el.ID)
	case el.ButtonStyling:
		return fmt.Sprintf("Demote secondary button %q to a text link", el.ID)
	default:
		return fmt.Sprintf("Move %q out of the primary CTA's visual path", el.ID)
	}
}

// buildRecommendations groups flagged elements into categorized,
// effort/impact-tagged recommendations. Grouping order is fixed so the
// output is deterministic.
func buildRecommendations(flagged []model.HighRiskElement, improvements model.ProjectedImprovements) []model.Recommendation {
	var quickWinIDs, formIDs, structuralIDs []string
	var quickWinScore, formScore, structuralScore float64

	for _, f := range flagged {
		switch {
		case f.Element.Decorative || f.Element.VisualNoise || f.Element.AutoRotating:
			quickWinIDs = append(quickWinIDs, f.Element.ID)
			quickWinScore = maxf(quickWinScore, f.WastedClickScore)
		case f.Kind == model.ElementForm || f.Kind == model.ElementField:
			formIDs = append(formIDs, f.Element.ID)
			formScore = maxf(formScore, f.WastedClickScore)
		default:
			structuralIDs = append(structuralIDs, f.Element.ID)
			structuralScore = maxf(structuralScore, f.WastedClickScore)
		}
	}

	impact := "medium"
	if improvements.CTRImprovement >= 0.25 {
		impact = "high"
	} else if improvements.CTRImprovement < 0.05 {
		impact = "low"
	}

	var recs []model.Recommendation
	if len(quickWinIDs) > 0 {
		recs = append(recs, model.Recommendation{
			Category:   CategoryQuickWins,
			Message:    fmt.Sprintf("Remove %d decorative or noisy element(s) stealing attention from the primary CTA", len(quickWinIDs)),
			ElementIDs: quickWinIDs,
			Effort:     "low",
			Impact:     impact,
			Confidence: recommendationConfidence(quickWinScore),
		})
	}
	if len(formIDs) > 0 {
		recs = append(recs, model.Recommendation{
			Category:   CategoryFormFixes,
			Message:    fmt.Sprintf("Reduce friction on %d form element(s) competing with the primary CTA", len(formIDs)),
			ElementIDs: formIDs,
			Effort:     "medium",
			Impact:     impact,
			Confidence: recommendationConfidence(formScore),
		})
	}
	if len(structuralIDs) > 0 {
		recs = append(recs, model.Recommendation{
			Category:   CategoryStructuralChanges,
			Message:    fmt.Sprintf("Restructure %d competing element(s) so the primary CTA stands alone", len(structuralIDs)),
			ElementIDs: structuralIDs,
			Effort:     "high",
			Impact:     impact,
			Confidence: recommendationConfidence(structuralScore),
		})
	}

	return recs
}

// recommendationConfidence maps a wasted-click score onto a 55-95%
// confidence band.
func recommendationConfidence(score float64) float64 {
	c := 55 + 40*score
	if c > 95 {
		c = 95
	}
	return c
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
