package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// StripeConfig represents Stripe payment service configuration
type StripeConfig struct {
	SecretKey string
	PublicKey string
	BaseURL   string
}

// StripeService tokenizes cards into one-time payment-method references and
// confirms strong-customer-authentication challenges.
type StripeService struct {
	config  StripeConfig
	client  *http.Client
	logger  *logrus.Logger
	baseURL string
}

// NewStripeService creates a new Stripe payment service
func NewStripeService(config StripeConfig, logger *logrus.Logger) *StripeService {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.stripe.com"
	}

	return &StripeService{
		config:  config,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
		baseURL: baseURL,
	}
}

// CardDetails carries the card capture fields.
type CardDetails struct {
	Number   string
	ExpMonth string
	ExpYear  string
	CVC      string
}

// stripeError is the envelope Stripe wraps failures in.
type stripeError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

type paymentMethodResponse struct {
	ID string `json:"id"`
}

type paymentIntentResponse struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

// CreatePaymentMethod submits card details plus billing address to Stripe
// and returns the one-time payment-method reference. The returned error
// message is human-readable; it is shown to the buyer as-is.
func (s *StripeService) CreatePaymentMethod(ctx context.Context, card CardDetails, billing BillingDetails) (string, error) {
	form := url.Values{}
	form.Set("type", "card")
	form.Set("card[number]", card.Number)
	form.Set("card[exp_month]", card.ExpMonth)
	form.Set("card[exp_year]", card.ExpYear)
	form.Set("card[cvc]", card.CVC)
	form.Set("billing_details[name]", billing.Name)
	form.Set("billing_details[email]", billing.Email)
	if billing.Phone != "" {
		form.Set("billing_details[phone]", billing.Phone)
	}
	form.Set("billing_details[address][line1]", billing.Address)
	form.Set("billing_details[address][city]", billing.City)
	form.Set("billing_details[address][postal_code]", billing.Postcode)
	form.Set("billing_details[address][country]", billing.CountryCode)

	body, err := s.post(ctx, "/v1/payment_methods", form)
	if err != nil {
		return "", err
	}

	var pm paymentMethodResponse
	if err := json.Unmarshal(body, &pm); err != nil {
		return "", fmt.Errorf("failed to decode payment method response: %w", err)
	}
	if pm.ID == "" {
		return "", fmt.Errorf("payment processor returned no payment method reference")
	}

	s.logger.WithField("payment_method", pm.ID).Debug("card tokenized")
	return pm.ID, nil
}

// ConfirmCardPayment resolves a strong-customer-authentication challenge for
// the payment intent the client secret belongs to. A non-successful intent
// status is returned as an error; the order is assumed to already exist
// server-side, so callers must not re-submit it.
func (s *StripeService) ConfirmCardPayment(ctx context.Context, clientSecret string) error {
	intentID, err := intentIDFromClientSecret(clientSecret)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("client_secret", clientSecret)

	body, err := s.post(ctx, "/v1/payment_intents/"+intentID+"/confirm", form)
	if err != nil {
		return err
	}

	var intent paymentIntentResponse
	if err := json.Unmarshal(body, &intent); err != nil {
		return fmt.Errorf("failed to decode payment intent response: %w", err)
	}

	switch intent.Status {
	case "succeeded", "processing", "requires_capture":
		s.logger.WithFields(logrus.Fields{
			"payment_intent": intent.ID,
			"status":         intent.Status,
		}).Debug("card payment confirmed")
		return nil
	default:
		msg := "your card was not authenticated"
		if intent.LastPaymentError != nil && intent.LastPaymentError.Message != "" {
			msg = intent.LastPaymentError.Message
		}
		return fmt.Errorf("%s", msg)
	}
}

func (s *StripeService) post(ctx context.Context, path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.config.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read stripe response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var se stripeError
		if err := json.Unmarshal(body, &se); err == nil && se.Error.Message != "" {
			return nil, fmt.Errorf("%s", se.Error.Message)
		}
		return nil, fmt.Errorf("payment processor returned HTTP %d", resp.StatusCode)
	}

	return body, nil
}

func intentIDFromClientSecret(clientSecret string) (string, error) {
	idx := strings.Index(clientSecret, "_secret")
	if idx <= 0 {
		return "", fmt.Errorf("malformed client secret")
	}
	return clientSecret[:idx], nil
}

// BillingDetails carries cardholder identity and address for tokenization.
type BillingDetails struct {
	Name        string
	Email       string
	Phone       string
	Address     string
	City        string
	Postcode    string
	CountryCode string
}
