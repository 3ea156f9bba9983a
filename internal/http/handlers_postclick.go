package http

import (
	"github.com/gofiber/fiber/v2"

	"ctalens/internal/config"
	"ctalens/internal/engine"
	"ctalens/internal/metrics"
	"ctalens/internal/model"
	"ctalens/internal/postclick"
)

func postClickHandler(c *fiber.Ctx) error {
	var req PostClickRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST_INVALID_JSON",
			Error:   "Bad request, malformed JSON",
		})
	}

	cfg := c.Locals("config").(*config.Config)
	warmth := parseAudience(req.Audience)

	// Two capture-signal steps produce the full derived-factor
	// prediction; raw scores go through the factor model directly.
	if req.Step1 != nil && req.Step2 != nil && len(req.FactorScores) == 0 {
		pred, err := postclick.CreateStep2Prediction(*req.Step1, *req.Step2, warmth)
		if err != nil {
			return postClickError(c, err)
		}
		metrics.RecordAnalysis("postclick", false)
		return c.JSON(PostClickResponse{Success: true, Prediction: pred})
	}

	if len(req.FactorScores) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "Either 'factorScores' or both 'step1' and 'step2' are required",
		})
	}

	factors, err := postclick.FactorsFromScores(req.FactorScores)
	if err != nil {
		return postClickError(c, err)
	}

	base := cfg.Engine.ColdBaseRate
	if req.ColdBaseRate != nil {
		base = *req.ColdBaseRate
	}
	if base <= 0 {
		base = postclick.DefaultColdBaseRate
	}

	step := model.PostClickStep{
		StepName:     req.StepName,
		ColdBaseRate: base,
		Audience:     warmth,
		UpperCap:     req.UpperCap,
	}
	if step.UpperCap == nil && cfg.Engine.UpperCap > 0 {
		upperCap := cfg.Engine.UpperCap
		step.UpperCap = &upperCap
	}

	opts := postclick.DefaultOptions()
	if req.Mode != "" {
		opts.Mode = postclick.CombineMode(req.Mode)
	} else if cfg.Engine.CombineMode != "" {
		opts.Mode = postclick.CombineMode(cfg.Engine.CombineMode)
	}
	switch opts.Mode {
	case postclick.ModeMultiplicative, postclick.ModeLogit:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "Field 'mode' must be multiplicative or logit",
		})
	}

	pred, err := postclick.PredictStepRate(step, factors, opts)
	if err != nil {
		return postClickError(c, err)
	}

	metrics.RecordAnalysis("postclick", false)
	return c.JSON(PostClickResponse{Success: true, Prediction: pred})
}

func postClickError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := "POSTCLICK_FAILED"
	switch engine.KindOf(err) {
	case engine.KindInvalidInput:
		status = fiber.StatusBadRequest
		code = "BAD_REQUEST"
	case engine.KindInsufficientData:
		status = fiber.StatusUnprocessableEntity
		code = "INSUFFICIENT_DATA"
	}
	return c.Status(status).JSON(ErrorResponse{
		Success: false,
		Code:    code,
		Error:   err.Error(),
	})
}
