package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/caliginous/jvs-checkout/internal/models"
	"github.com/caliginous/jvs-checkout/internal/services"
)

// CheckoutHandler drives checkout submissions and SCA continuations.
type CheckoutHandler struct {
	checkout services.CheckoutServiceInterface
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkout services.CheckoutServiceInterface) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

// Submit handles POST /api/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	req, err := checkoutRequestFromForm(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	outcome, err := h.checkout.Checkout(r.Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		log.Printf("Checkout failed for event %d: %v", req.EventID, err)
		http.Error(w, "Checkout failed", http.StatusInternalServerError)
		return
	}

	// A buyer with nothing in their selection is sent back to the events
	// listing rather than shown an error banner.
	if outcome.Kind == models.OutcomeFailed && outcome.Reason == models.ReasonNoTickets {
		http.Redirect(w, r, outcome.RedirectURL, http.StatusSeeOther)
		return
	}

	writeJSON(w, http.StatusOK, outcome)
}

// ConfirmSCA handles POST /api/checkout/confirm
func (h *CheckoutHandler) ConfirmSCA(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	clientSecret := r.FormValue("client_secret")
	if clientSecret == "" {
		http.Error(w, "Missing client secret", http.StatusBadRequest)
		return
	}
	orderRef := r.FormValue("order_ref")

	outcome := h.checkout.ConfirmSCA(r.Context(), clientSecret, orderRef)
	writeJSON(w, http.StatusOK, outcome)
}

func checkoutRequestFromForm(r *http.Request) (services.CheckoutRequest, error) {
	eventIDValue := r.FormValue("eventId")
	if eventIDValue == "" {
		eventIDValue = r.FormValue("event_id")
	}
	eventID, err := strconv.Atoi(eventIDValue)
	if err != nil {
		return services.CheckoutRequest{}, errors.New("invalid event ID")
	}

	var lines []models.SelectionLine
	if tSel := r.FormValue("tSel"); tSel != "" {
		if err := json.Unmarshal([]byte(tSel), &lines); err != nil {
			return services.CheckoutRequest{}, errors.New("invalid ticket selection")
		}
	}

	fallbackQuantity := 0
	if q := r.FormValue("quantity"); q != "" {
		fallbackQuantity, _ = strconv.Atoi(q)
	}

	return services.CheckoutRequest{
		EventID:          eventID,
		SelectionLines:   lines,
		FallbackQuantity: fallbackQuantity,
		Customer: models.Customer{
			FirstName:   r.FormValue("first_name"),
			LastName:    r.FormValue("last_name"),
			Email:       r.FormValue("email"),
			Phone:       r.FormValue("phone"),
			Address:     r.FormValue("address"),
			City:        r.FormValue("city"),
			Postcode:    r.FormValue("postcode"),
			CountryCode: r.FormValue("country"),
		},
		Card: services.CardDetails{
			Number:   r.FormValue("card_number"),
			ExpMonth: r.FormValue("card_exp_month"),
			ExpYear:  r.FormValue("card_exp_year"),
			CVC:      r.FormValue("card_cvc"),
		},
	}, nil
}
