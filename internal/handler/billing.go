package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/bizgenius/api/internal/client"
	"github.com/bizgenius/api/internal/middleware"
	"github.com/bizgenius/api/internal/model"
	"github.com/bizgenius/api/internal/service"
	"github.com/bizgenius/api/pkg/response"
)

type BillingHandler struct {
	service   *service.BillingService
	validator *validator.Validate
}

func NewBillingHandler(svc *service.BillingService, v *validator.Validate) *BillingHandler {
	return &BillingHandler{
		service:   svc,
		validator: v,
	}
}

// Checkout handles POST /api/billing/checkout
func (h *BillingHandler) Checkout(c *fiber.Ctx) error {
	var req model.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	result, err := h.service.CreateCheckout(c.Context(), middleware.GetUserID(c), middleware.GetUserEmail(c), &req)
	if err != nil {
		if errors.Is(err, service.ErrBillingUnavailable) {
			return response.PaymentError(c, "Billing is not available")
		}
		return response.PaymentError(c, err.Error())
	}

	return response.OK(c, result)
}

// Portal handles POST /api/billing/portal
func (h *BillingHandler) Portal(c *fiber.Ctx) error {
	var req model.PortalRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	result, err := h.service.CreatePortal(c.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBillingUnavailable):
			return response.PaymentError(c, "Billing is not available")
		case errors.Is(err, service.ErrNoBillingAccount):
			return response.NotFound(c, "No billing account for this user")
		}
		return response.PaymentError(c, err.Error())
	}

	return response.OK(c, result)
}

// Webhook handles POST /webhooks/stripe. Stripe authenticates with a signed
// payload instead of a bearer token, so this route sits outside the auth group.
func (h *BillingHandler) Webhook(c *fiber.Ctx) error {
	signature := c.Get("Stripe-Signature")
	if signature == "" {
		return response.Unauthorized(c, "Missing webhook signature")
	}

	if err := h.service.HandleWebhook(c.Context(), c.Body(), signature); err != nil {
		if errors.Is(err, client.ErrInvalidSignature) || errors.Is(err, client.ErrSignatureExpired) {
			return response.Unauthorized(c, "Invalid webhook signature")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, fiber.Map{"received": true})
}
