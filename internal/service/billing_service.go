package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/bizgenius/api/internal/client"
	"github.com/bizgenius/api/internal/config"
	"github.com/bizgenius/api/internal/model"
	"github.com/bizgenius/api/internal/store"
)

var (
	ErrBillingUnavailable = errors.New("billing is not configured")
	ErrNoBillingAccount   = errors.New("no billing account for this user")
)

// BillingService connects user accounts to Stripe: checkout, portal, and the
// webhook that syncs subscription state back onto the user record. The
// generation pipeline itself never consults billing state.
type BillingService struct {
	stripe *client.StripeClient
	users  *store.UserStore
	cfg    *config.StripeConfig
}

func NewBillingService(stripeClient *client.StripeClient, users *store.UserStore, cfg *config.StripeConfig) *BillingService {
	return &BillingService{
		stripe: stripeClient,
		users:  users,
		cfg:    cfg,
	}
}

// CreateCheckout starts a subscription checkout session for the user,
// creating the Stripe customer on first use.
func (s *BillingService) CreateCheckout(ctx context.Context, userID, email string, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	if s.stripe == nil || !s.stripe.IsConfigured() {
		return nil, ErrBillingUnavailable
	}

	user, err := s.users.GetOrCreate(ctx, userID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user.StripeCustomerID == "" {
		customer, err := s.stripe.CreateCustomer(ctx, user.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to create customer: %w", err)
		}
		user.StripeCustomerID = customer.ID
		if err := s.users.Save(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to save user: %w", err)
		}
	}

	session, err := s.stripe.CreateCheckoutSession(ctx, user.StripeCustomerID, userID, req.PriceID, req.SuccessURL, req.CancelURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &model.CheckoutResponse{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

// CreatePortal opens the billing portal for a user with a billing account.
func (s *BillingService) CreatePortal(ctx context.Context, userID string, req *model.PortalRequest) (*model.PortalResponse, error) {
	if s.stripe == nil || !s.stripe.IsConfigured() {
		return nil, ErrBillingUnavailable
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoBillingAccount
		}
		return nil, err
	}
	if user.StripeCustomerID == "" {
		return nil, ErrNoBillingAccount
	}

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = s.cfg.PortalReturnURL
	}

	session, err := s.stripe.CreatePortalSession(ctx, user.StripeCustomerID, returnURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create portal session: %w", err)
	}

	return &model.PortalResponse{URL: session.URL}, nil
}

// HandleWebhook verifies and applies a Stripe event. Unhandled event types are
// acknowledged without action.
func (s *BillingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.stripe.ConstructEvent(payload, signature)
	if err != nil {
		return err
	}

	switch event.Type {
	case "checkout.session.completed":
		return s.handleCheckoutCompleted(ctx, event.Data.Object)
	case "customer.subscription.updated":
		return s.handleSubscriptionUpdated(ctx, event.Data.Object)
	case "customer.subscription.deleted":
		return s.handleSubscriptionDeleted(ctx, event.Data.Object)
	default:
		log.Printf("Ignoring webhook event type %s", event.Type)
		return nil
	}
}

func (s *BillingService) handleCheckoutCompleted(ctx context.Context, object json.RawMessage) error {
	var session client.CheckoutSession
	if err := json.Unmarshal(object, &session); err != nil {
		return fmt.Errorf("failed to unmarshal checkout session: %w", err)
	}

	if session.ClientReferenceID == "" {
		log.Printf("Checkout session %s has no client reference; skipping", session.ID)
		return nil
	}

	user, err := s.users.GetByID(ctx, session.ClientReferenceID)
	if err != nil {
		return fmt.Errorf("failed to load user for checkout: %w", err)
	}

	user.StripeCustomerID = session.Customer
	user.StripeSubscriptionID = session.Subscription
	user.SubscriptionStatus = model.SubscriptionActive
	return s.users.Save(ctx, user)
}

func (s *BillingService) handleSubscriptionUpdated(ctx context.Context, object json.RawMessage) error {
	var sub client.Subscription
	if err := json.Unmarshal(object, &sub); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	user, err := s.users.GetByStripeCustomerID(ctx, sub.Customer)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Printf("No user for customer %s; skipping subscription update", sub.Customer)
			return nil
		}
		return err
	}

	user.StripeSubscriptionID = sub.ID
	user.SubscriptionStatus = subscriptionStatus(sub.Status)
	if len(sub.Items.Data) > 0 {
		user.SubscriptionTier = s.tierForPrice(sub.Items.Data[0].Price.ID)
	}
	if user.SubscriptionStatus != model.SubscriptionActive {
		user.SubscriptionTier = model.TierFree
	}
	return s.users.Save(ctx, user)
}

func (s *BillingService) handleSubscriptionDeleted(ctx context.Context, object json.RawMessage) error {
	var sub client.Subscription
	if err := json.Unmarshal(object, &sub); err != nil {
		return fmt.Errorf("failed to unmarshal subscription: %w", err)
	}

	user, err := s.users.GetByStripeCustomerID(ctx, sub.Customer)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}

	user.SubscriptionTier = model.TierFree
	user.SubscriptionStatus = model.SubscriptionCanceled
	user.StripeSubscriptionID = ""
	return s.users.Save(ctx, user)
}

func (s *BillingService) tierForPrice(priceID string) model.SubscriptionTier {
	switch priceID {
	case s.cfg.PremiumPriceID:
		return model.TierPremium
	case s.cfg.ExpertPriceID:
		return model.TierExpert
	default:
		return model.TierFree
	}
}

func subscriptionStatus(status string) model.SubscriptionStatus {
	switch status {
	case "active", "trialing":
		return model.SubscriptionActive
	case "past_due", "unpaid":
		return model.SubscriptionPastDue
	default:
		return model.SubscriptionCanceled
	}
}
