package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"ctalens/internal/store"
)

func getAnalysisHandler(c *fiber.Ctx) error {
	st, _ := c.Locals("store").(*store.Store)
	if st == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Success: false,
			Code:    "STORE_DISABLED",
			Error:   "analysis persistence is not configured",
		})
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "Invalid analysis id",
		})
	}

	analysis, err := st.GetAnalysis(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Success: false,
			Code:    "NOT_FOUND",
			Error:   "Analysis not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "STORE_FAILED",
			Error:   err.Error(),
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": analysis})
}

func listAnalysesHandler(c *fiber.Ctx) error {
	st, _ := c.Locals("store").(*store.Store)
	if st == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Success: false,
			Code:    "STORE_DISABLED",
			Error:   "analysis persistence is not configured",
		})
	}

	url := c.Query("url")
	if url == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Success: false,
			Code:    "BAD_REQUEST",
			Error:   "Missing required query parameter 'url'",
		})
	}

	limit := int32(c.QueryInt("limit", 20))
	analyses, err := st.ListAnalysesByURL(c.Context(), url, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Success: false,
			Code:    "STORE_FAILED",
			Error:   err.Error(),
		})
	}

	return c.JSON(fiber.Map{"success": true, "data": analyses})
}
