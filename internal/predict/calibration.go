package predict

import (
	"strings"

	"ctalens/internal/model"
)

// Page-level engagement calibration. Engagement is the probability that
// a visit produces at least one click anywhere on the page; per-element
// CTR is engagement multiplied by the element's click share.

// deviceEngagement is the baseline engagement rate per device class.
var deviceEngagement = map[model.DeviceType]float64{
	model.DeviceDesktop: 0.32,
	model.DeviceMobile:  0.26,
	model.DeviceTablet:  0.29,
}

// industryFactor adjusts engagement by vertical. Unknown industries
// stay at 1.0.
var industryFactor = map[string]float64{
	"ecommerce":  1.10,
	"saas":       1.00,
	"leadgen":    1.05,
	"finance":    0.90,
	"healthcare": 0.92,
	"education":  0.96,
	"media":      1.08,
}

// temporalFactor applies a small adjustment for the traffic bucket the
// snapshot represents.
var temporalFactor = map[string]float64{
	"business-hours": 1.05,
	"evening":        1.00,
	"overnight":      0.90,
	"weekend":        0.97,
}

// pageEngagement computes the calibrated engagement rate for a context.
// It is deterministic and clamped to [0.05, 0.60].
func pageEngagement(pctx model.PageContext) float64 {
	base, ok := deviceEngagement[pctx.Device]
	if !ok {
		base = deviceEngagement[model.DeviceDesktop]
	}

	rate := base

	if f, ok := industryFactor[strings.ToLower(pctx.Industry)]; ok {
		rate *= f
	}
	if f, ok := temporalFactor[strings.ToLower(pctx.TemporalBucket)]; ok {
		rate *= f
	}

	if pctx.HasSSL {
		rate *= 1.05
	}
	if pctx.HasTrustBadges {
		rate *= 1.04
	}
	if pctx.HasTestimonials {
		rate *= 1.03
	}

	if rate < 0.05 {
		rate = 0.05
	}
	if rate > 0.60 {
		rate = 0.60
	}
	return rate
}

// actionWords are CTA verbs that signal click intent in element text.
var actionWords = []string{
	"get", "start", "buy", "try", "sign", "download", "book",
	"claim", "join", "subscribe", "order", "shop", "register",
}

// hasActionText reports whether the element text leads with or contains
// a recognized action verb.
func hasActionText(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range actionWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
