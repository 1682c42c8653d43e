package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/caliginous/jvs-checkout/internal/models"
)

// CheckoutRequest is everything one checkout submission arrives with: the
// referring ticket page's parameters plus the buyer's details and card.
type CheckoutRequest struct {
	EventID          int
	SelectionLines   []models.SelectionLine
	FallbackQuantity int
	Customer         models.Customer
	Card             CardDetails
}

// CheckoutService drives a buyer's ticket picks through tokenization, order
// submission, and strong-customer-authentication confirmation. Each step
// executes at most once per attempt; only the content gateway retries.
type CheckoutService struct {
	tokenizer Tokenizer
	orders    OrderSubmitter
	confirmer SCAConfirmer
	eventsURL string
	validate  *validator.Validate
	logger    *logrus.Logger
}

// NewCheckoutService creates a new checkout orchestrator.
func NewCheckoutService(tokenizer Tokenizer, orders OrderSubmitter, confirmer SCAConfirmer, eventsURL string, logger *logrus.Logger) *CheckoutService {
	return &CheckoutService{
		tokenizer: tokenizer,
		orders:    orders,
		confirmer: confirmer,
		eventsURL: eventsURL,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Checkout runs the state machine for one submission and returns its
// outcome. Failures in the error taxonomy come back as a Failed outcome so
// the buyer can retry from the details form; only malformed input returns a
// Go error. A retry always re-tokenizes — payment method references are
// one-time use.
func (s *CheckoutService) Checkout(ctx context.Context, req CheckoutRequest) (models.CheckoutOutcome, error) {
	log := s.logger.WithField("event_id", req.EventID)

	// Init: resolve the selection from the referring page's parameters.
	// The no-tickets check happens before any network call. Quantities come
	// straight from the client and must be non-negative before they reach
	// the total or the backend.
	s.transition(log, models.StateInit)
	for _, line := range req.SelectionLines {
		if line.Quantity < 0 {
			return models.CheckoutOutcome{}, fmt.Errorf("%w: ticket quantity cannot be negative", models.ErrInvalidInput)
		}
	}
	if req.FallbackQuantity < 0 {
		return models.CheckoutOutcome{}, fmt.Errorf("%w: ticket quantity cannot be negative", models.ErrInvalidInput)
	}
	selection := models.SelectionFromLines(req.SelectionLines)
	if selection.TotalQuantity() == 0 && req.FallbackQuantity <= 0 {
		log.Info("checkout abandoned: no tickets selected")
		out := models.FailedOutcome(models.ReasonNoTickets, "No tickets selected")
		out.RedirectURL = s.eventsURL
		return out, nil
	}

	checkout := &models.CheckoutContext{
		EventID:          req.EventID,
		Selection:        selection,
		FallbackQuantity: req.FallbackQuantity,
		Customer:         req.Customer,
	}
	checkout.RecomputeTotal()

	s.transition(log, models.StateCollectingDetails)
	if err := s.validate.Struct(req.Customer); err != nil {
		return models.CheckoutOutcome{}, fmt.Errorf("%w: %s", models.ErrInvalidInput, validationMessage(err))
	}

	s.transition(log, models.StateTokenizingPayment)
	paymentMethodID, err := s.tokenizer.CreatePaymentMethod(ctx, req.Card, billingFromCustomer(req.Customer))
	if err != nil {
		// No order is ever created without a valid payment method
		// reference, so the backend is not contacted on this path.
		log.WithError(err).Warn("card tokenization failed")
		return models.FailedOutcome(models.ReasonTokenizationError, err.Error()), nil
	}

	s.transition(log, models.StateSubmittingOrder)
	resp, err := s.orders.SubmitOrder(ctx, checkout, paymentMethodID)
	if err != nil {
		var ce *models.CheckoutError
		if errors.As(err, &ce) {
			log.WithError(err).Warn("order submission failed")
			msg := ce.Message
			if msg == "" {
				msg = "There was a problem processing your order. You have not been charged."
			}
			return models.FailedOutcome(ce.Reason, msg), nil
		}
		return models.CheckoutOutcome{}, err
	}

	switch {
	case resp.RequiresAction && resp.ClientSecret != "":
		return s.confirmSCA(ctx, log, resp.ClientSecret, resp.OrderRef), nil
	case resp.Redirect != "":
		s.transition(log, models.StateRedirect)
		return models.RedirectOutcome(resp.Redirect), nil
	default:
		s.transition(log, models.StateSucceeded)
		return models.SuccessOutcome(resp.OrderRef), nil
	}
}

// ConfirmSCA resolves an outstanding authentication challenge for an order
// that was already created server-side. It never re-submits the order.
func (s *CheckoutService) ConfirmSCA(ctx context.Context, clientSecret, orderRef string) models.CheckoutOutcome {
	return s.confirmSCA(ctx, s.logger.WithField("order_ref", orderRef), clientSecret, orderRef)
}

func (s *CheckoutService) confirmSCA(ctx context.Context, log *logrus.Entry, clientSecret, orderRef string) models.CheckoutOutcome {
	s.transition(log, models.StateConfirmingSCA)
	if err := s.confirmer.ConfirmCardPayment(ctx, clientSecret); err != nil {
		log.WithError(err).Warn("authentication challenge declined")
		return models.FailedOutcome(models.ReasonAuthenticationFailed, err.Error())
	}
	s.transition(log, models.StateSucceeded)
	return models.SuccessOutcome(orderRef)
}

func (s *CheckoutService) transition(log *logrus.Entry, state models.CheckoutState) {
	log.WithField("state", state).Debug("checkout state")
}

func billingFromCustomer(c models.Customer) BillingDetails {
	return BillingDetails{
		Name:        c.FirstName + " " + c.LastName,
		Email:       c.Email,
		Phone:       c.Phone,
		Address:     c.Address,
		City:        c.City,
		Postcode:    c.Postcode,
		CountryCode: c.CountryCode,
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Sprintf("field %s is invalid", verrs[0].Field())
	}
	return err.Error()
}
