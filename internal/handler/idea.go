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

type IdeaHandler struct {
	service   *service.IdeaService
	validator *validator.Validate
}

func NewIdeaHandler(svc *service.IdeaService, v *validator.Validate) *IdeaHandler {
	return &IdeaHandler{
		service:   svc,
		validator: v,
	}
}

// Save handles POST /api/ideas
func (h *IdeaHandler) Save(c *fiber.Ctx) error {
	var req model.IdeaSaveRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.SaveFromSession(c.Context(), middleware.GetUserID(c), middleware.GetUserEmail(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			return response.NotFound(c, "Session not found")
		case errors.Is(err, service.ErrSessionNotCompleted):
			return response.ValidationError(c, "Session not completed yet", nil)
		case errors.Is(err, service.ErrIdeaLimit):
			return response.LimitReached(c, err.Error())
		}
		return response.ServiceError(c, err.Error())
	}

	return response.Created(c, result)
}

// List handles GET /api/ideas
func (h *IdeaHandler) List(c *fiber.Ctx) error {
	result, err := h.service.List(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// Get handles GET /api/ideas/:ideaId
func (h *IdeaHandler) Get(c *fiber.Ctx) error {
	ideaID := c.Params("ideaId")
	if ideaID == "" {
		return response.ValidationError(c, "Idea ID is required", nil)
	}

	idea, err := h.service.Get(c.Context(), middleware.GetUserID(c), ideaID)
	if err != nil {
		if errors.Is(err, service.ErrIdeaNotFound) {
			return response.NotFound(c, "Idea not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, idea)
}

// Delete handles DELETE /api/ideas/:ideaId
func (h *IdeaHandler) Delete(c *fiber.Ctx) error {
	ideaID := c.Params("ideaId")
	if ideaID == "" {
		return response.ValidationError(c, "Idea ID is required", nil)
	}

	if err := h.service.Delete(c.Context(), middleware.GetUserID(c), ideaID); err != nil {
		if errors.Is(err, service.ErrIdeaNotFound) {
			return response.NotFound(c, "Idea not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.NoContent(c)
}
