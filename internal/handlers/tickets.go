package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/caliginous/jvs-checkout/internal/models"
	"github.com/caliginous/jvs-checkout/internal/services"
)

// TicketsHandler serves the resolved ticket tiers for an event.
type TicketsHandler struct {
	catalog services.CatalogServiceInterface
	store   sessions.Store
}

// NewTicketsHandler creates a new tickets handler
func NewTicketsHandler(catalog services.CatalogServiceInterface, store sessions.Store) *TicketsHandler {
	return &TicketsHandler{catalog: catalog, store: store}
}

// ticketsResponse is the payload the ticket page renders its tier list from.
type ticketsResponse struct {
	EventID int                 `json:"event_id"`
	Title   string              `json:"title"`
	Tiers   []models.TicketTier `json:"tiers"`
}

// EventTickets handles GET /api/events/{id}/tickets
func (h *TicketsHandler) EventTickets(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid event ID", http.StatusBadRequest)
		return
	}

	// The commerce session rides along on the catalog fetch so a token the
	// backend rotates here is already on the buyer's browser at checkout.
	sessionStore := services.NewRequestSessionStore(h.store, w, r)

	event, tiers, err := h.catalog.GetEventTiers(r.Context(), sessionStore, eventID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrEventNotFound):
			http.Error(w, "Event not found", http.StatusNotFound)
		case errors.Is(err, models.ErrGatewayUnavailable):
			log.Printf("Ticket catalog unavailable for event %d: %v", eventID, err)
			http.Error(w, "Ticket information is temporarily unavailable", http.StatusBadGateway)
		default:
			log.Printf("Failed to resolve tiers for event %d: %v", eventID, err)
			http.Error(w, "Failed to load tickets", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, ticketsResponse{
		EventID: eventID,
		Title:   event.Title,
		Tiers:   tiers,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
