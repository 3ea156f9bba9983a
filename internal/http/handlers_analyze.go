package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"ctalens/internal/cache"
	"ctalens/internal/capture"
	"ctalens/internal/config"
	"ctalens/internal/engine"
	"ctalens/internal/fallback"
	"ctalens/internal/feature"
	"ctalens/internal/metrics"
	"ctalens/internal/model"
	"ctalens/internal/predict"
	"ctalens/internal/retrypolicy"
	"ctalens/internal/store"
	"ctalens/internal/wasted"
)

// buildPageContext merges the request's context with device-profile
// and server-config defaults.
func buildPageContext(req AnalyzeRequest, device model.DeviceType, cfg *config.Config) model.PageContext {
	pctx := model.PageContext{
		URL:            req.URL,
		Device:         device,
		Industry:       req.Context.Industry,
		BusinessType:   req.Context.BusinessType,
		TemporalBucket: req.Context.TemporalBucket,

		MonthlyTraffic: req.Context.MonthlyTraffic,
		AvgCPC:         req.Context.AvgCPC,
		AvgOrderValue:  req.Context.AvgOrderValue,

		HasSSL:          req.Context.HasSSL,
		HasTrustBadges:  req.Context.HasTrustBadges,
		HasTestimonials: req.Context.HasTestimonials,

		ViewportWidth:  req.Context.ViewportWidth,
		ViewportHeight: req.Context.ViewportHeight,
		FoldLine:       req.Context.FoldLine,
	}

	if pctx.ViewportWidth <= 0 || pctx.ViewportHeight <= 0 {
		switch device {
		case model.DeviceMobile:
			pctx.ViewportWidth, pctx.ViewportHeight = 390, 844
		case model.DeviceTablet:
			pctx.ViewportWidth, pctx.ViewportHeight = 820, 1180
		default:
			pctx.ViewportWidth, pctx.ViewportHeight = 1280, 800
		}
	}
	if pctx.FoldLine <= 0 {
		pctx.FoldLine = pctx.ViewportHeight
	}
	if pctx.MonthlyTraffic <= 0 {
		pctx.MonthlyTraffic = cfg.Engine.MonthlyTraffic
	}
	if pctx.AvgOrderValue <= 0 {
		pctx.AvgOrderValue = cfg.Engine.AvgOrderValue
	}
	return pctx
}

// captureElements renders the page and returns its raw element records
// plus the derived fold line. Retries are bounded by the configured
// policy; capture failures are transient.
func captureElements(ctx context.Context, c *fiber.Ctx, url string, device model.DeviceType) (*capture.Snapshot, error) {
	capturer, _ := c.Locals("capturer").(*capture.Capturer)
	if capturer == nil {
		return nil, engine.InsufficientData("http.capture", "no elements supplied and page capture is disabled")
	}

	policy, _ := c.Locals("retry").(retrypolicy.Policy)

	var snap *capture.Snapshot
	err := policy.Do(ctx, func(ctx context.Context) error {
		var err error
		snap, err = capturer.Capture(ctx, url, device)
		if err != nil {
			return retrypolicy.Transient(err)
		}
		return nil
	})
	metrics.RecordCapture(string(device), err == nil)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func analyzeHandler(c *fiber.Ctx) error {
	var req AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST_INVALID_JSON",
			Error:   "Bad request, malformed JSON",
		})
	}

	device, ok := parseDevice(req.Device)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "Field 'device' must be desktop, mobile, or tablet",
		})
	}
	if len(req.Elements) == 0 && req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "Either 'elements' or 'url' is required",
		})
	}

	cfg := c.Locals("config").(*config.Config)

	// Cache lookup: the engine is deterministic, so (url, device,
	// primary) fully identifies a result.
	cacheSvc, _ := c.Locals("cache").(cache.Service)
	key := cache.Key{URL: req.URL, Device: device, PrimaryElementID: req.PrimaryElementID}
	useCache := cacheSvc != nil && cfg.Cache.Enabled && req.URL != "" && !req.SkipCache && len(req.Elements) == 0
	if useCache {
		if raw, hit, err := cacheSvc.Get(c.Context(), key); err == nil && hit {
			metrics.RecordCacheLookup("prediction", true)
			var resp AnalyzeResponse
			if err := json.Unmarshal(raw, &resp); err == nil {
				resp.Cached = true
				return c.JSON(resp)
			}
		}
		metrics.RecordCacheLookup("prediction", false)
	}

	rawElements := req.Elements
	pctx := buildPageContext(req, device, cfg)

	if len(rawElements) == 0 {
		timeoutMs := cfg.Capture.TimeoutMs
		if timeoutMs <= 0 {
			timeoutMs = 30000
		}
		ctx, cancel := context.WithTimeout(c.Context(), time.Duration(timeoutMs)*time.Millisecond)
		defer cancel()

		snap, err := captureElements(ctx, c, req.URL, device)
		if err != nil {
			return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
				Success: false,
				Code:    "CAPTURE_FAILED",
				Error:   err.Error(),
			})
		}
		rawElements = snap.Structure.RawElements
		pctx.ViewportWidth = snap.ViewportWidth
		pctx.ViewportHeight = snap.ViewportHeight
		pctx.FoldLine = snap.FoldLine
	}

	elements, _ := feature.Normalize(rawElements, pctx.FoldLine)
	pctx.Elements = elements

	eng := c.Locals("engine").(*predict.Engine)
	result, err := eng.PredictClicks(elements, pctx)
	if err != nil {
		kind := engine.KindOf(err)
		if kind == "" {
			return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
				Success: false,
				Code:    "ANALYZE_FAILED",
				Error:   err.Error(),
			})
		}
		// Engine refused the input: respond with labelled baseline
		// estimates instead of failing the request.
		result = fallback.ForPrediction(kind, pctx)
	}

	resp := AnalyzeResponse{
		Success:        true,
		Predictions:    toPredictionDTOs(result.Predictions),
		Metadata:       result.Metadata,
		Reliability:    result.Reliability,
		Fallback:       result.Fallback,
		FallbackReason: result.FallbackReason,
	}
	metrics.RecordAnalysis("prediction", result.Fallback)

	if req.PrimaryElementID != "" {
		resp.Wasted = analyzeWasted(elements, req.PrimaryElementID, result, pctx)
		metrics.RecordAnalysis("wasted", resp.Wasted.Fallback)
	}

	resp.ID = persistAnalysis(c, req, device, resp)

	if useCache && !result.Fallback {
		ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
		if raw, err := json.Marshal(resp); err == nil {
			_ = cacheSvc.Put(c.Context(), key, raw, ttl)
		}
	}

	return c.JSON(resp)
}

// analyzeWasted runs the wasted-attention pass against an already
// computed prediction set, substituting a labelled fallback when the
// analyzer refuses the input.
func analyzeWasted(elements []model.PageElement, primaryID string, result *model.PredictionResult, pctx model.PageContext) *model.WastedClickAnalysis {
	var primary model.PageElement
	found := false
	for _, el := range elements {
		if el.ID == primaryID {
			primary = el
			found = true
			break
		}
	}
	if !found {
		return fallback.ForWastedClicks(engine.KindInvalidInput)
	}

	opts := wasted.Options{
		MonthlyTraffic: float64(pctx.MonthlyTraffic),
		AvgOrderValue:  pctx.AvgOrderValue,
	}
	analysis, err := wasted.AnalyzeWastedClicksWith(elements, primary, result.Predictions, opts)
	if err != nil {
		kind := engine.KindOf(err)
		if kind == "" {
			kind = engine.KindInsufficientData
		}
		return fallback.ForWastedClicks(kind)
	}
	return analysis
}

// persistAnalysis saves the response best-effort; a missing store or a
// write failure never fails the request.
func persistAnalysis(c *fiber.Ctx, req AnalyzeRequest, device model.DeviceType, resp AnalyzeResponse) string {
	st, _ := c.Locals("store").(*store.Store)
	if st == nil {
		return ""
	}

	prediction, err := json.Marshal(struct {
		Predictions []ClickPredictionDTO     `json:"predictions"`
		Metadata    model.PredictionMetadata `json:"metadata"`
		Reliability model.Reliability        `json:"reliability"`
	}{resp.Predictions, resp.Metadata, resp.Reliability})
	if err != nil {
		return ""
	}

	rec := store.Analysis{
		ID:         uuid.New(),
		URL:        req.URL,
		Device:     string(device),
		Prediction: prediction,
		Fallback:   resp.Fallback,
	}
	if resp.Wasted != nil {
		if raw, err := json.Marshal(resp.Wasted); err == nil {
			rec.Wasted = raw
		}
	}

	id, err := st.SaveAnalysis(c.Context(), rec)
	if err != nil {
		if logger, ok := c.Locals("logger").(*slog.Logger); ok {
			logger.Warn("save analysis failed", "error", err)
		}
		return ""
	}
	return id.String()
}
