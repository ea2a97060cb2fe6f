// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/wbtools/tariff-sync/app/dto"
	businessflow "github.com/wbtools/tariff-sync/business_flow"
	"github.com/wbtools/tariff-sync/utils"
)

// ExportHandlerInterface defines the contract for export handlers
type ExportHandlerInterface interface {
	CreateTarget(c fiber.Ctx) error
	ListTargets(c fiber.Ctx) error
	RunExport(c fiber.Ctx) error
}

// ExportHandler handles spreadsheet export HTTP requests
type ExportHandler struct {
	exportFlow businessflow.ExportFlow
	validator  *validator.Validate
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportFlow businessflow.ExportFlow) *ExportHandler {
	return &ExportHandler{
		exportFlow: exportFlow,
		validator:  validator.New(),
	}
}

func (h *ExportHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ExportHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateTarget registers a new export destination
func (h *ExportHandler) CreateTarget(c fiber.Ctx) error {
	var req dto.CreateExportTargetRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	}

	ctx, cancel := requestContext(defaultRequestTimeout)
	defer cancel()

	target, err := h.exportFlow.CreateTarget(ctx, &req)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create export target", "EXPORT_TARGET_ERROR", err.Error())
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Export target created", target)
}

// ListTargets returns the enabled export destinations
func (h *ExportHandler) ListTargets(c fiber.Ctx) error {
	ctx, cancel := requestContext(defaultRequestTimeout)
	defer cancel()

	targets, err := h.exportFlow.ListTargets(ctx)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list export targets", "EXPORT_TARGET_ERROR", err.Error())
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Export targets", targets)
}

// RunExport runs the export pass for the requested date (default: today, UTC)
func (h *ExportHandler) RunExport(c fiber.Ctx) error {
	date := c.Query("date", utils.TodayDate())
	if !utils.IsValidDate(date) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", "INVALID_DATE", date)
	}

	ctx, cancel := requestContext(time.Minute)
	defer cancel()

	result, err := h.exportFlow.RunExport(ctx, date)
	if err != nil {
		switch {
		case businessflow.IsNoTariffRowsForDate(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "No tariff rows stored for date", "NO_ROWS_FOR_DATE", date)
		default:
			return h.ErrorResponse(c, fiber.StatusInternalServerError, "Export failed", "EXPORT_ERROR", err.Error())
		}
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Export completed", result)
}
