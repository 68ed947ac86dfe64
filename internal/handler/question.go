package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/bizgenius/api/internal/model"
	"github.com/bizgenius/api/internal/service"
	"github.com/bizgenius/api/pkg/response"
)

type QuestionHandler struct {
	service   *service.QuestionService
	validator *validator.Validate
}

func NewQuestionHandler(svc *service.QuestionService, v *validator.Validate) *QuestionHandler {
	return &QuestionHandler{
		service:   svc,
		validator: v,
	}
}

// Generate handles POST /api/questions/generate
func (h *QuestionHandler) Generate(c *fiber.Ctx) error {
	var req model.QuestionGenerateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.Generate(c.Context(), &req)
	if err != nil {
		return response.AIError(c, err.Error())
	}

	return response.OK(c, result)
}
