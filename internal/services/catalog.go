package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/caliginous/jvs-checkout/internal/models"
)

// eventTicketsQuery fetches the fields the tier resolution chain needs.
const eventTicketsQuery = `
query EventTickets($id: ID!) {
  event(id: $id, idType: DATABASE_ID) {
    databaseId
    title
    price
    eventPrice
    purchasable
    ticketTypes {
      label
      type
      price
      available
    }
  }
}`

// GatewaySender is the slice of the gateway client the catalog needs.
type GatewaySender interface {
	Send(ctx context.Context, sessions SessionStore, req GraphQLRequest) (*GraphQLResponse, error)
}

// CatalogService resolves purchasable events into ticket tiers.
type CatalogService struct {
	gateway GatewaySender
	logger  *logrus.Logger
}

// NewCatalogService creates a new catalog service backed by the gateway.
func NewCatalogService(gateway GatewaySender, logger *logrus.Logger) *CatalogService {
	return &CatalogService{gateway: gateway, logger: logger}
}

// GetEventTiers fetches an event through the gateway and resolves its ticket
// tiers. GraphQL-level errors from the content backend surface as errors
// here; transport retries have already happened inside the gateway.
func (s *CatalogService) GetEventTiers(ctx context.Context, sessions SessionStore, eventID int) (*models.Event, []models.TicketTier, error) {
	resp, err := s.gateway.Send(ctx, sessions, GraphQLRequest{
		Query:     eventTicketsQuery,
		Variables: map[string]any{"id": eventID},
	})
	if err != nil {
		return nil, nil, err
	}
	if len(resp.Errors) > 0 {
		return nil, nil, fmt.Errorf("event query failed: %s", resp.Errors[0].Message)
	}

	var payload struct {
		Event *models.Event `json:"event"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return nil, nil, fmt.Errorf("failed to decode event payload: %w", err)
	}
	if payload.Event == nil {
		return nil, nil, models.ErrEventNotFound
	}

	tiers := models.ResolveTiers(payload.Event)
	s.logger.WithFields(logrus.Fields{
		"event_id": eventID,
		"tiers":    len(tiers),
	}).Debug("resolved ticket tiers")

	return payload.Event, tiers, nil
}
