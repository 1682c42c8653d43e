package services

import (
	"context"

	"github.com/caliginous/jvs-checkout/internal/models"
)

// Tokenizer defines the interface for turning card details into a one-time
// payment-method reference.
type Tokenizer interface {
	CreatePaymentMethod(ctx context.Context, card CardDetails, billing BillingDetails) (string, error)
}

// SCAConfirmer defines the interface for resolving a
// strong-customer-authentication challenge.
type SCAConfirmer interface {
	ConfirmCardPayment(ctx context.Context, clientSecret string) error
}

// OrderSubmitter defines the interface for submitting a checkout to the
// legacy cart backend.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, checkout *models.CheckoutContext, paymentMethodID string) (*OrderResponse, error)
}

// CatalogServiceInterface defines the interface for ticket catalog services
type CatalogServiceInterface interface {
	GetEventTiers(ctx context.Context, sessions SessionStore, eventID int) (*models.Event, []models.TicketTier, error)
}

// CheckoutServiceInterface defines the interface for the checkout orchestrator
type CheckoutServiceInterface interface {
	Checkout(ctx context.Context, req CheckoutRequest) (models.CheckoutOutcome, error)
	ConfirmSCA(ctx context.Context, clientSecret, orderRef string) models.CheckoutOutcome
}
