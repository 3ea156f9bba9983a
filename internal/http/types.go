package http

import (
	"ctalens/internal/feature"
	"ctalens/internal/model"
	"ctalens/internal/postclick"
)

// ErrorResponse is the uniform error envelope for all endpoints.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error"`
}

// PageContextRequest carries the business and viewport context for an
// analysis. Zero fields are defaulted from server config and the
// device profile.
type PageContextRequest struct {
	Industry       string `json:"industry,omitempty"`
	BusinessType   string `json:"businessType,omitempty"`
	TemporalBucket string `json:"temporalBucket,omitempty"`

	MonthlyTraffic int     `json:"monthlyTraffic,omitempty"`
	AvgCPC         float64 `json:"avgCpc,omitempty"`
	AvgOrderValue  float64 `json:"avgOrderValue,omitempty"`

	HasSSL          bool `json:"hasSSL,omitempty"`
	HasTrustBadges  bool `json:"hasTrustBadges,omitempty"`
	HasTestimonials bool `json:"hasTestimonials,omitempty"`

	ViewportWidth  float64 `json:"viewportWidth,omitempty"`
	ViewportHeight float64 `json:"viewportHeight,omitempty"`
	FoldLine       float64 `json:"foldLine,omitempty"`
}

// AnalyzeRequest asks for click predictions, and wasted-attention
// analysis when a primary element is named. Elements may be supplied
// directly or captured from the URL when capture is enabled.
type AnalyzeRequest struct {
	URL              string               `json:"url,omitempty"`
	Device           string               `json:"device"`
	Elements         []feature.RawElement `json:"elements,omitempty"`
	PrimaryElementID string               `json:"primaryElementId,omitempty"`
	Context          PageContextRequest   `json:"context,omitempty"`
	SkipCache        bool                 `json:"skipCache,omitempty"`
}

// ClickPredictionDTO is one element's prediction with CTR and click
// share expressed as percentages for presentation.
type ClickPredictionDTO struct {
	ElementID       string   `json:"elementId"`
	CTRPercent      float64  `json:"ctrPercent"`
	ClickSharePct   float64  `json:"clickSharePercent"`
	EstimatedClicks float64  `json:"estimatedClicks"`
	WastedClicks    float64  `json:"wastedClicks"`
	WastedSpend     float64  `json:"wastedSpend"`
	Confidence      string   `json:"confidence"`
	RiskFactors     []string `json:"riskFactors,omitempty"`
}

// AnalyzeResponse is the full analysis envelope.
type AnalyzeResponse struct {
	Success        bool                       `json:"success"`
	ID             string                     `json:"id,omitempty"`
	Predictions    []ClickPredictionDTO       `json:"predictions"`
	Metadata       model.PredictionMetadata   `json:"metadata"`
	Reliability    model.Reliability          `json:"reliability"`
	Wasted         *model.WastedClickAnalysis `json:"wastedClicks,omitempty"`
	Fallback       bool                       `json:"fallback,omitempty"`
	FallbackReason string                     `json:"fallbackReason,omitempty"`
	Cached         bool                       `json:"cached,omitempty"`
}

// PostClickRequest predicts a post-click step rate from either raw
// factor scores or two captured steps.
type PostClickRequest struct {
	StepName     string   `json:"stepName"`
	ColdBaseRate *float64 `json:"coldBaseRate,omitempty"`
	Audience     string   `json:"audience"`
	UpperCap     *float64 `json:"upperCap,omitempty"`
	Mode         string   `json:"mode,omitempty"`

	// Raw factor scores keyed by factor name, each in [0,1]. When
	// absent, Step1/Step2 signals must be present so factors can be
	// derived from capture data.
	FactorScores map[string]float64 `json:"factorScores,omitempty"`

	Step1 *postclick.StepSignals `json:"step1,omitempty"`
	Step2 *postclick.StepSignals `json:"step2,omitempty"`
}

// PostClickResponse wraps the factor model's full audit trail.
type PostClickResponse struct {
	Success    bool                       `json:"success"`
	Prediction *model.PostClickPrediction `json:"prediction"`
}

// FunnelRequest analyzes a landing page's funnel, optionally following
// the primary CTA to capture and score the second step.
type FunnelRequest struct {
	URL              string               `json:"url,omitempty"`
	Device           string               `json:"device"`
	Elements         []feature.RawElement `json:"elements,omitempty"`
	PrimaryElementID string               `json:"primaryElementId"`
	InitialVisitors  int                  `json:"initialVisitors"`
	Audience         string               `json:"audience,omitempty"`
	FollowCTA        bool                 `json:"followCta,omitempty"`
	Context          PageContextRequest   `json:"context,omitempty"`

	CaptureWidth float64 `json:"captureWidth,omitempty"`
	DisplayWidth float64 `json:"displayWidth,omitempty"`
}

// FunnelResponse carries the funnel model plus any step-2 resolution
// warning (for example a cross-domain CTA target).
type FunnelResponse struct {
	Success bool              `json:"success"`
	Funnel  *model.FunnelData `json:"funnel"`
	Warning string            `json:"warning,omitempty"`
}

// toPredictionDTOs converts engine decimals to presentation
// percentages. This is the only place the conversion happens.
func toPredictionDTOs(preds []model.ClickPrediction) []ClickPredictionDTO {
	out := make([]ClickPredictionDTO, 0, len(preds))
	for _, p := range preds {
		out = append(out, ClickPredictionDTO{
			ElementID:       p.ElementID,
			CTRPercent:      p.CTR * 100,
			ClickSharePct:   p.ClickShare * 100,
			EstimatedClicks: p.EstimatedClicks,
			WastedClicks:    p.WastedClicks,
			WastedSpend:     p.WastedSpend,
			Confidence:      string(p.Confidence),
			RiskFactors:     p.RiskFactors,
		})
	}
	return out
}

func parseDevice(s string) (model.DeviceType, bool) {
	switch model.DeviceType(s) {
	case model.DeviceDesktop, model.DeviceMobile, model.DeviceTablet:
		return model.DeviceType(s), true
	}
	return "", false
}

func parseAudience(s string) model.AudienceWarmth {
	switch model.AudienceWarmth(s) {
	case model.AudienceWarm, model.AudienceMixed:
		return model.AudienceWarmth(s)
	}
	return model.AudienceCold
}
