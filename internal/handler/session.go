package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/bizgenius/api/internal/middleware"
	"github.com/bizgenius/api/internal/model"
	"github.com/bizgenius/api/internal/service"
	"github.com/bizgenius/api/pkg/response"
)

type SessionHandler struct {
	service   *service.SessionService
	validator *validator.Validate
}

func NewSessionHandler(svc *service.SessionService, v *validator.Validate) *SessionHandler {
	return &SessionHandler{
		service:   svc,
		validator: v,
	}
}

// Create handles POST /api/sessions
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req model.SessionCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.CreateSession(c.Context(), middleware.GetUserID(c), middleware.GetUserEmail(c), &req)
	if err != nil {
		if errors.Is(err, service.ErrAnalysisLimit) {
			return response.LimitReached(c, err.Error())
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

// Status handles GET /api/sessions/:sessionId/status
func (h *SessionHandler) Status(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return response.ValidationError(c, "Session ID is required", nil)
	}

	result, err := h.service.GetStatus(c.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return response.NotFound(c, "Session not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// Result handles GET /api/sessions/:sessionId/result
func (h *SessionHandler) Result(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return response.ValidationError(c, "Session ID is required", nil)
	}

	result, err := h.service.GetResult(c.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return response.NotFound(c, "Session not found")
		}
		if errors.Is(err, service.ErrSessionNotCompleted) {
			return response.ValidationError(c, "Session not completed yet", nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// Retry handles POST /api/sessions/:sessionId/retry
func (h *SessionHandler) Retry(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return response.ValidationError(c, "Session ID is required", nil)
	}

	result, err := h.service.Retry(c.Context(), sessionID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return response.NotFound(c, "Session not found")
		}
		if errors.Is(err, service.ErrSessionNotFailed) {
			return response.ValidationError(c, "Only failed sessions can be retried", nil)
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, result)
}

func formatValidationErrors(err error) interface{} {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		errors := make(map[string]string)
		for _, e := range validationErrors {
			errors[e.Field()] = e.Tag()
		}
		return errors
	}
	return nil
}
