package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"ctalens/internal/capture"
	"ctalens/internal/config"
	"ctalens/internal/engine"
	"ctalens/internal/feature"
	"ctalens/internal/funnel"
	"ctalens/internal/metrics"
	"ctalens/internal/model"
	"ctalens/internal/postclick"
	"ctalens/internal/predict"
)

func funnelHandler(c *fiber.Ctx) error {
	var req FunnelRequest
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
	if req.PrimaryElementID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "Missing required field 'primaryElementId'",
		})
	}
	if req.InitialVisitors <= 0 {
		req.InitialVisitors = 1000
	}

	cfg := c.Locals("config").(*config.Config)

	timeoutMs := cfg.Capture.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = 30000
	}

	// Step 1 structure: supplied directly or captured from the URL.
	rawElements := req.Elements
	var snap *capture.Snapshot
	analyzeReq := AnalyzeRequest{URL: req.URL, Device: req.Device, Context: req.Context}
	pctx := buildPageContext(analyzeReq, device, cfg)
	if len(rawElements) == 0 {
		if req.URL == "" {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
				Success: false,
				Code:    "BAD_REQUEST",
				Error:   "Either 'elements' or 'url' is required",
			})
		}
		ctx, cancel := context.WithTimeout(c.Context(), time.Duration(timeoutMs)*time.Millisecond)
		defer cancel()

		var err error
		snap, err = captureElements(ctx, c, req.URL, device)
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

	// Score the page to find the primary CTA's predicted CTR.
	eng := c.Locals("engine").(*predict.Engine)
	result, err := eng.PredictClicks(elements, pctx)
	if err != nil {
		return funnelError(c, err)
	}

	primaryCTR := 0.0
	for _, p := range result.Predictions {
		if p.ElementID == req.PrimaryElementID {
			primaryCTR = p.CTR
			break
		}
	}

	step := funnel.StepInput{
		URL:          req.URL,
		Elements:     elements,
		PrimaryID:    req.PrimaryElementID,
		PredictedCTR: primaryCTR * 100,
		CaptureWidth: req.CaptureWidth,
		DisplayWidth: req.DisplayWidth,
	}

	fd, err := funnel.AnalyzeFunnelFromCapture(step, req.InitialVisitors)
	if err != nil {
		return funnelError(c, err)
	}

	resp := FunnelResponse{Success: true, Funnel: fd}

	// Non-form funnels have a second step behind the CTA. Follow it
	// when asked; an unresolvable target downgrades to a warning on the
	// single-step result instead of an error.
	if req.FollowCTA && fd.Type == model.FunnelNonForm {
		primary, _ := findNormalized(elements, req.PrimaryElementID)
		target, err := funnel.ResolveCTATarget(req.URL, primary)
		if err != nil {
			if engine.IsKind(err, engine.KindUnresolvableNavigation) {
				resp.Warning = err.Error()
				metrics.RecordAnalysis("funnel", false)
				return c.JSON(resp)
			}
			return funnelError(c, err)
		}

		ctx, cancel := context.WithTimeout(c.Context(), time.Duration(timeoutMs)*time.Millisecond)
		defer cancel()

		snap2, err := captureElements(ctx, c, target, device)
		if err != nil {
			resp.Warning = "second step capture failed: " + err.Error()
			metrics.RecordAnalysis("funnel", false)
			return c.JSON(resp)
		}

		step1Signals := stepSignals(req.URL, elements, req.PrimaryElementID, snap)
		elements2, _ := feature.Normalize(snap2.Structure.RawElements, snap2.FoldLine)
		step2Signals := stepSignals(target, elements2, "", snap2)

		pred, err := postclick.CreateStep2Prediction(step1Signals, step2Signals, parseAudience(req.Audience))
		if err != nil {
			return funnelError(c, err)
		}

		step2 := model.FunnelStep{
			URL:          target,
			PredictedCTR: pred.PredictedRate * 100,
			PostClick:    pred,
		}
		updated := funnel.UpdateFunnelWithStep2(*fd, step2)
		resp.Funnel = &updated
	}

	metrics.RecordAnalysis("funnel", false)
	return c.JSON(resp)
}

// stepSignals bundles normalized elements plus whatever textual signals
// the capture produced into one step description for the factor model.
func stepSignals(url string, elements []model.PageElement, primaryID string, snap *capture.Snapshot) postclick.StepSignals {
	s := postclick.StepSignals{
		URL:                 url,
		Elements:            elements,
		PrimaryID:           primaryID,
		DetectionConfidence: 0.8,
	}
	if snap != nil && snap.Structure != nil {
		s.ImageCount = snap.Structure.ImageCount
		s.ScriptCount = snap.Structure.ScriptCount
		s.LazyLoadedImages = snap.Structure.LazyLoadedImages
		s.Headings = snap.Structure.Headings
		s.ButtonTexts = snap.Structure.ButtonTexts
		s.TextContent = snap.Structure.TextContent
	}
	return s
}

func findNormalized(elements []model.PageElement, id string) (model.PageElement, bool) {
	for _, el := range elements {
		if el.ID == id {
			return el, true
		}
	}
	return model.PageElement{}, false
}

func funnelError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := "FUNNEL_FAILED"
	switch engine.KindOf(err) {
	case engine.KindInvalidInput:
		status = fiber.StatusBadRequest
		code = "BAD_REQUEST"
	case engine.KindInsufficientData:
		status = fiber.StatusUnprocessableEntity
		code = "INSUFFICIENT_DATA"
	case engine.KindUnresolvableNavigation:
		status = fiber.StatusUnprocessableEntity
		code = "UNRESOLVABLE_NAVIGATION"
	}
	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Code:    code,
		Error:   err.Error(),
	})
}
