package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/caliginous/jvs-checkout/internal/models"
)

// OrderBackendConfig configures the legacy cart/checkout backend client.
type OrderBackendConfig struct {
	CheckoutURL string
}

// OrderClient submits completed checkouts to the legacy cart backend.
type OrderClient struct {
	config OrderBackendConfig
	client *http.Client
	logger *logrus.Logger
}

// NewOrderClient creates a new legacy checkout backend client
func NewOrderClient(config OrderBackendConfig, logger *logrus.Logger) *OrderClient {
	return &OrderClient{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// OrderResponse is the backend's answer to an order submission. Exactly one
// of the requires_action pair, the redirect, or neither is expected; neither
// means the payment was confirmed implicitly.
type OrderResponse struct {
	RequiresAction bool   `json:"requires_action"`
	ClientSecret   string `json:"client_secret"`
	Redirect       string `json:"redirect"`
	Result         string `json:"result"`
	Messages       string `json:"messages"`
	OrderRef       string `json:"order_ref"`
}

// SubmitOrder posts the payment-method reference, the buyer's details, and
// the serialized per-tier selection to the backend. A non-2xx response
// becomes an OrderBackendError carrying the backend's own message when it
// supplied one.
func (c *OrderClient) SubmitOrder(ctx context.Context, checkout *models.CheckoutContext, paymentMethodID string) (*OrderResponse, error) {
	reference := uuid.NewString()
	form, err := c.buildForm(checkout, paymentMethodID, reference)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.CheckoutURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	c.logger.WithFields(logrus.Fields{
		"event_id":  checkout.EventID,
		"reference": reference,
		"total":     checkout.TotalAmount.String(),
	}).Info("submitting order")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, models.NewCheckoutError(models.ReasonOrderBackendError, "", fmt.Errorf("order submission failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewCheckoutError(models.ReasonOrderBackendError, "", fmt.Errorf("failed to read order response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, models.NewCheckoutError(models.ReasonOrderBackendError, backendMessage(body), fmt.Errorf("order backend returned HTTP %d", resp.StatusCode))
	}

	var out OrderResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, models.NewCheckoutError(models.ReasonOrderBackendError, "", fmt.Errorf("failed to decode order response: %w", err))
	}
	if out.Result == "failure" {
		return nil, models.NewCheckoutError(models.ReasonOrderBackendError, strippedMessages(out.Messages), fmt.Errorf("order backend reported failure"))
	}
	if out.OrderRef == "" {
		out.OrderRef = reference
	}

	return &out, nil
}

func (c *OrderClient) buildForm(checkout *models.CheckoutContext, paymentMethodID, reference string) (url.Values, error) {
	selection := checkout.Selection.Serialize()
	quantity := checkout.Selection.TotalQuantity()
	if quantity == 0 {
		// Direct-link buyers carry an implicit aggregate quantity and
		// no per-tier selection; the backend prices the line itself.
		quantity = checkout.FallbackQuantity
	}
	if quantity == 0 {
		return nil, models.ErrNoTickets
	}

	form := url.Values{}

	// The backend has accepted the payment method reference under three
	// different keys across plugin versions; all three are still sent.
	form.Set("payment_method_id", paymentMethodID)
	form.Set("wc-stripe-payment-method", paymentMethodID)
	form.Set("stripe_source", paymentMethodID)

	cust := checkout.Customer
	form.Set("billing_first_name", cust.FirstName)
	form.Set("billing_last_name", cust.LastName)
	form.Set("billing_email", cust.Email)
	form.Set("billing_phone", cust.Phone)
	form.Set("billing_address_1", cust.Address)
	form.Set("billing_city", cust.City)
	form.Set("billing_postcode", cust.Postcode)
	form.Set("billing_country", cust.CountryCode)
	form.Set("shipping_first_name", cust.FirstName)
	form.Set("shipping_last_name", cust.LastName)
	form.Set("shipping_address_1", cust.Address)
	form.Set("shipping_city", cust.City)
	form.Set("shipping_postcode", cust.Postcode)
	form.Set("shipping_country", cust.CountryCode)

	form.Set("cart_item_key[0]", reference)
	form.Set("cart_item[0][product_id]", strconv.Itoa(checkout.EventID))
	form.Set("cart_item[0][quantity]", strconv.Itoa(quantity))
	form.Set("eventId", strconv.Itoa(checkout.EventID))
	form.Set("quantity", strconv.Itoa(quantity))

	if len(selection) > 0 {
		encoded, err := json.Marshal(selection)
		if err != nil {
			return nil, fmt.Errorf("failed to encode ticket selection: %w", err)
		}
		form.Set("tSel", string(encoded))
	}

	return form, nil
}

// backendMessage pulls a user-facing message out of an error body when the
// backend supplied one.
func backendMessage(body []byte) string {
	var payload struct {
		Messages string `json:"messages"`
		Message  string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Messages != "" {
		return strippedMessages(payload.Messages)
	}
	return payload.Message
}

// strippedMessages removes the HTML the legacy backend wraps notices in.
func strippedMessages(messages string) string {
	replacer := strings.NewReplacer("<ul class=\"woocommerce-error\" role=\"alert\">", "", "</ul>", "", "<li>", "", "</li>", "")
	return strings.TrimSpace(replacer.Replace(messages))
}
