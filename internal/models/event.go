package models

// Event is the GraphQL payload shape for a purchasable event. Price fields
// are declared as any because the content backend returns them as either
// numbers or display strings depending on how the event was authored.
type Event struct {
	ID          int             `json:"databaseId"`
	Title       string          `json:"title"`
	Price       any             `json:"price"`
	EventPrice  any             `json:"eventPrice"`
	Purchasable *bool           `json:"purchasable"`
	TicketTypes []RawTicketType `json:"ticketTypes"`
}

// RawTicketType is one entry of an event's explicit ticket tier list as it
// arrives from the content backend.
type RawTicketType struct {
	Label     string `json:"label"`
	Type      string `json:"type"`
	Price     any    `json:"price"`
	Available *bool  `json:"available"`
}

// EffectivePrice returns the first populated price field of the event.
func (e *Event) EffectivePrice() any {
	if e.Price != nil {
		if s, ok := e.Price.(string); !ok || s != "" {
			return e.Price
		}
	}
	return e.EventPrice
}

// IsPurchasable returns the event's purchasable flag, defaulting to true
// when the backend left it unspecified.
func (e *Event) IsPurchasable() bool {
	if e.Purchasable == nil {
		return true
	}
	return *e.Purchasable
}
