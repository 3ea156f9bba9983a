package model

// ElementKind is the closed set of interactive element kinds the engine
// understands. Raw records that cannot be classified into one of these
// kinds are dropped by the feature extractor and reported as skipped.
type ElementKind string

const (
	ElementButton ElementKind = "button"
	ElementLink   ElementKind = "link"
	ElementForm   ElementKind = "form"
	ElementField  ElementKind = "field"
)

// DeviceType identifies the device class a page snapshot was captured for.
type DeviceType string

const (
	DeviceDesktop DeviceType = "desktop"
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
)

// AudienceWarmth is the qualitative visitor-intent tier used to scale
// baseline conversion rates in the post-click model.
type AudienceWarmth string

const (
	AudienceCold  AudienceWarmth = "cold"
	AudienceMixed AudienceWarmth = "mixed"
	AudienceWarm  AudienceWarmth = "warm"
)

// Confidence is the three-level confidence bucket attached to predictions.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// BoundingBox is an element's position and size in page pixels.
// Geometry is always non-negative; the feature extractor clamps
// negative inputs at the boundary.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the box area in square pixels.
func (b BoundingBox) Area() float64 {
	return b.Width * b.Height
}

// CenterY returns the vertical center of the box.
func (b BoundingBox) CenterY() float64 {
	return b.Y + b.Height/2
}

// Overlaps reports whether two boxes intersect when each is expanded by
// margin pixels on every side.
func (b BoundingBox) Overlaps(other BoundingBox, margin float64) bool {
	return b.X-margin < other.X+other.Width+margin &&
		b.X+b.Width+margin > other.X-margin &&
		b.Y-margin < other.Y+other.Height+margin &&
		b.Y+b.Height+margin > other.Y-margin
}

// Scale returns the box with all coordinates multiplied by ratio. Used
// to map capture-space geometry into display-space before spatial
// comparisons.
func (b BoundingBox) Scale(ratio float64) BoundingBox {
	return BoundingBox{X: b.X * ratio, Y: b.Y * ratio, Width: b.Width * ratio, Height: b.Height * ratio}
}

// FormMeta carries form-specific attributes. Present only when
// Kind == ElementForm.
type FormMeta struct {
	Action               string `json:"action,omitempty"`
	FieldCount           int    `json:"fieldCount"`
	RequiredCount        int    `json:"requiredCount"`
	HasProgressIndicator bool   `json:"hasProgressIndicator,omitempty"`
}

// FieldMeta carries input-field attributes. Present only when
// Kind == ElementField.
type FieldMeta struct {
	Type         string `json:"type,omitempty"`
	Required     bool   `json:"required,omitempty"`
	Label        string `json:"label,omitempty"`
	Placeholder  string `json:"placeholder,omitempty"`
	Autocomplete string `json:"autocomplete,omitempty"`
	Pattern      string `json:"pattern,omitempty"`
	MinLength    int    `json:"minLength,omitempty"`
	MaxLength    int    `json:"maxLength,omitempty"`
}

// NavMeta carries navigation attributes for links and buttons that
// submit or navigate somewhere.
type NavMeta struct {
	Href       string `json:"href,omitempty"`
	FormAction string `json:"formAction,omitempty"`
}

// PageElement is the canonical, normalized representation of one
// interactive or structural unit on a page. It is a tagged union over
// ElementKind: Form, Field, and Nav are populated only for the kinds
// they belong to. Instances are immutable after construction.
type PageElement struct {
	ID   string      `json:"id"`
	Kind ElementKind `json:"kind"`
	Text string      `json:"text,omitempty"`
	Box  BoundingBox `json:"box"`

	Visible         bool    `json:"isVisible"`
	AboveFold       bool    `json:"isAboveFold"`
	DistanceFromTop float64 `json:"distanceFromTop"`

	Interactive   bool `json:"isInteractive"`
	ButtonStyling bool `json:"hasButtonStyling,omitempty"`

	Decorative         bool `json:"isDecorative,omitempty"`
	VisualNoise        bool `json:"hasVisualNoise,omitempty"`
	NearbyCTA          bool `json:"hasNearbyCTA,omitempty"`
	CompetingNeighbors bool `json:"hasMultipleCompetingElements,omitempty"`
	AutoRotating       bool `json:"isAutoRotating,omitempty"`
	Sticky             bool `json:"isSticky,omitempty"`
	Autoplay           bool `json:"autoplay,omitempty"`

	Form  *FormMeta  `json:"form,omitempty"`
	Field *FieldMeta `json:"field,omitempty"`
	Nav   *NavMeta   `json:"nav,omitempty"`

	// DataGaps lists attributes that were missing or defaulted during
	// normalization ("text", "geometry", "type"). Predictions degrade
	// to lower confidence as gaps accumulate.
	DataGaps []string `json:"dataGaps,omitempty"`
}

// PageContext is the immutable page-level metadata snapshot used to
// calibrate predictions for one analysis call.
type PageContext struct {
	URL            string     `json:"url,omitempty"`
	Device         DeviceType `json:"device"`
	Industry       string     `json:"industry,omitempty"`
	BusinessType   string     `json:"businessType,omitempty"`
	TemporalBucket string     `json:"temporalBucket,omitempty"`

	MonthlyTraffic int     `json:"monthlyTraffic"`
	AvgCPC         float64 `json:"avgCpc"`
	AvgOrderValue  float64 `json:"avgOrderValue"`

	HasSSL          bool `json:"hasSSL"`
	HasTrustBadges  bool `json:"hasTrustBadges"`
	HasTestimonials bool `json:"hasTestimonials"`

	ViewportWidth  float64 `json:"viewportWidth"`
	ViewportHeight float64 `json:"viewportHeight"`
	FoldLine       float64 `json:"foldLine"`

	Elements []PageElement `json:"elements,omitempty"`
}

// ClickPrediction is the engine's per-element output. CTR and ClickShare
// are decimals in [0,1]; percentage conversion happens only at the
// presentation boundary.
type ClickPrediction struct {
	ElementID       string     `json:"elementId"`
	CTR             float64    `json:"ctr"`
	ClickShare      float64    `json:"clickShare"`
	EstimatedClicks float64    `json:"estimatedClicks"`
	WastedClicks    float64    `json:"wastedClicks"`
	WastedSpend     float64    `json:"wastedSpend"`
	Confidence      Confidence `json:"confidence"`
	RiskFactors     []string   `json:"riskFactors,omitempty"`
}

// PredictionMetadata is the diagnostic envelope describing what the
// engine saw. Its fields are informational, never scored.
type PredictionMetadata struct {
	URL              string     `json:"url,omitempty"`
	Device           DeviceType `json:"device"`
	ElementCount     int        `json:"elementCount"`
	InteractiveCount int        `json:"interactiveCount"`
	AboveFoldCount   int        `json:"aboveFoldCount"`
	PageEngagement   float64    `json:"pageEngagement"`
}

// Reliability summarizes input data quality for one prediction run.
type Reliability struct {
	DataCompleteness float64    `json:"dataCompleteness"`
	MissingFields    []string   `json:"missingFields,omitempty"`
	Level            Confidence `json:"level"`
}

// PredictionResult bundles predictions with their diagnostic envelopes.
// Fallback marks results substituted by the caller after an engine
// failure; the engine itself never sets it.
type PredictionResult struct {
	Predictions    []ClickPrediction  `json:"predictions"`
	Metadata       PredictionMetadata `json:"metadata"`
	Reliability    Reliability        `json:"reliability"`
	Fallback       bool               `json:"fallback,omitempty"`
	FallbackReason string             `json:"fallbackReason,omitempty"`
}

// HighRiskElement is one element flagged by the wasted-attention
// analyzer as cannibalizing clicks from the primary CTA.
type HighRiskElement struct {
	Element          PageElement `json:"element"`
	Kind             ElementKind `json:"type"`
	WastedClickScore float64     `json:"wastedClickScore"`
	Recommendation   string      `json:"recommendation"`
}

// ProjectedImprovements describes the simulated effect of removing all
// flagged elements and redistributing their click volume toward the
// primary CTA.
type ProjectedImprovements struct {
	CTRImprovement           float64 `json:"ctrImprovement"`
	RevenueImpact            float64 `json:"revenueImpact"`
	ImplementationDifficulty string  `json:"implementationDifficulty"`
	PriorityScore            float64 `json:"priorityScore"`
	ProjectedCTR             float64 `json:"projectedCtr"`
}

// Recommendation is one actionable suggestion tied to the elements that
// motivated it.
type Recommendation struct {
	Category   string   `json:"category"`
	Message    string   `json:"message"`
	ElementIDs []string `json:"elementIds,omitempty"`
	Effort     string   `json:"effort"`
	Impact     string   `json:"impact"`
	Confidence float64  `json:"confidence"`
}

// WastedClickAnalysis is the full output of the wasted-attention
// analyzer. AverageWastedScore is computed over flagged elements only.
type WastedClickAnalysis struct {
	TotalWastedElements   int                   `json:"totalWastedElements"`
	AverageWastedScore    float64               `json:"averageWastedScore"`
	HighRiskElements      []HighRiskElement     `json:"highRiskElements"`
	ProjectedImprovements ProjectedImprovements `json:"projectedImprovements"`
	Recommendations       []Recommendation      `json:"recommendations"`
	Fallback              bool                  `json:"fallback,omitempty"`
	FallbackReason        string                `json:"fallbackReason,omitempty"`
}

// PostClickFactor is one UX-quality signal with its scored strength and
// the maximum lift it can contribute.
type PostClickFactor struct {
	Name    string  `json:"factor"`
	Score   float64 `json:"score"`
	MaxLift float64 `json:"max_lift"`
	Note    string  `json:"note,omitempty"`
}

// PostClickStep describes one funnel step for the post-click model.
// UpperCap is optional; nil means no cap.
type PostClickStep struct {
	StepName     string         `json:"step_name"`
	ColdBaseRate float64        `json:"cold_base_rate"`
	Audience     AudienceWarmth `json:"audience"`
	UpperCap     *float64       `json:"upper_cap,omitempty"`
}

// PostClickPrediction carries every intermediate quantity the factor
// model produced so results stay auditable.
type PostClickPrediction struct {
	StepName           string            `json:"stepName"`
	BaseRate           float64           `json:"baseRate"`
	AudienceMultiplier float64           `json:"audienceMultiplier"`
	FactorMultiplier   float64           `json:"factorMultiplier"`
	PredictedRate      float64           `json:"predictedRate"`
	Capped             bool              `json:"capped"`
	Mode               string            `json:"mode"`
	Factors            []PostClickFactor `json:"factors"`
}

// FunnelType classifies a funnel by how its primary CTA converts.
type FunnelType string

const (
	FunnelForm    FunnelType = "form"
	FunnelNonForm FunnelType = "non-form"
	FunnelNone    FunnelType = "none"
)

// FunnelStep is one captured page in a funnel. PredictedCTR is a
// percentage (0..100) because funnel steps face display code; the
// funnel calculator divides by 100 before chaining probabilities.
type FunnelStep struct {
	URL             string               `json:"url"`
	CTAText         string               `json:"ctaText,omitempty"`
	CTAType         ElementKind          `json:"ctaType,omitempty"`
	PredictedCTR    float64              `json:"predictedCtr"`
	PredictedClicks float64              `json:"predictedClicks"`
	PostClick       *PostClickPrediction `json:"postClick,omitempty"`
}

// FunnelData chains per-step rates into an end-to-end conversion
// estimate. For form or single-step funnels Step2 is nil and
// PTotal == P1; for two-step funnels PTotal == P1*P2.
type FunnelData struct {
	Type   FunnelType  `json:"type"`
	Step1  FunnelStep  `json:"step1"`
	Step2  *FunnelStep `json:"step2,omitempty"`
	N1     int         `json:"n1"`
	P1     float64     `json:"p1"`
	N2     int         `json:"n2"`
	P2     float64     `json:"p2"`
	PTotal float64     `json:"pTotal"`
	NConv  int         `json:"nConv"`
}
