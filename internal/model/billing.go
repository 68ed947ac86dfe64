package model

// CheckoutRequest starts a Stripe Checkout session for a subscription
type CheckoutRequest struct {
	PriceID    string `json:"priceId" validate:"required"`
	SuccessURL string `json:"successUrl" validate:"required,url"`
	CancelURL  string `json:"cancelUrl" validate:"required,url"`
}

// CheckoutResponse carries the hosted checkout page
type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// PortalRequest opens the Stripe billing portal for the current user
type PortalRequest struct {
	ReturnURL string `json:"returnUrl" validate:"omitempty,url"`
}

// PortalResponse carries the hosted portal page
type PortalResponse struct {
	URL string `json:"url"`
}
