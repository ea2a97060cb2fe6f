// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/wbtools/tariff-sync/app/dto"
	"github.com/wbtools/tariff-sync/app/queue"
	businessflow "github.com/wbtools/tariff-sync/business_flow"
	"github.com/wbtools/tariff-sync/utils"
)

// TariffsHandlerInterface defines the contract for tariff handlers
type TariffsHandlerInterface interface {
	GetTariffs(c fiber.Ctx) error
	IngestTariffs(c fiber.Ctx) error
}

// TariffsHandler handles tariff ingestion HTTP requests
type TariffsHandler struct {
	ingestFlow businessflow.TariffIngestFlow
	q          queue.TariffsQueue
	validator  *validator.Validate
}

// NewTariffsHandler creates a new tariffs handler
func NewTariffsHandler(ingestFlow businessflow.TariffIngestFlow, q queue.TariffsQueue) *TariffsHandler {
	return &TariffsHandler{
		ingestFlow: ingestFlow,
		q:          q,
		validator:  validator.New(),
	}
}

func (h *TariffsHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TariffsHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetTariffs queues an ingestion job for the requested date (default: today,
// UTC) and returns the job id. The pipeline itself runs on the queue worker.
func (h *TariffsHandler) GetTariffs(c fiber.Ctx) error {
	date := c.Query("date", utils.TodayDate())
	if !utils.IsValidDate(date) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", "INVALID_DATE", date)
	}

	ctx, cancel := requestContext(defaultRequestTimeout)
	defer cancel()

	jobID, err := h.q.Enqueue(ctx, date)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to queue ingestion", "QUEUE_ERROR", err.Error())
	}

	return h.SuccessResponse(c, fiber.StatusAccepted, "Ingestion queued", fiber.Map{
		"job_id": jobID,
		"date":   date,
	})
}

// IngestTariffs runs the pipeline synchronously for the posted date and
// returns the summary. Intended for operators and backfills.
func (h *TariffsHandler) IngestTariffs(c fiber.Ctx) error {
	var req dto.IngestTariffsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	}

	ctx, cancel := requestContext(2 * time.Minute)
	defer cancel()

	result, err := h.ingestFlow.IngestDate(ctx, req.Date)
	if err != nil {
		switch {
		case businessflow.IsInvalidDate(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date, expected YYYY-MM-DD", "INVALID_DATE", err.Error())
		case businessflow.IsMalformedPayload(err), businessflow.IsMissingWarehouseName(err):
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Upstream feed returned an unusable payload", "MALFORMED_PAYLOAD", err.Error())
		case businessflow.IsFetchError(err):
			return h.ErrorResponse(c, fiber.StatusBadGateway, "Upstream feed request failed", "FEED_ERROR", err.Error())
		default:
			return h.ErrorResponse(c, fiber.StatusInternalServerError, "Ingestion failed", "INGEST_ERROR", err.Error())
		}
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Ingestion completed", result)
}
