package models

import (
	"github.com/shopspring/decimal"
)

// TierKind classifies a ticket tier
type TierKind string

const (
	TierStandard TierKind = "standard"
	TierFree     TierKind = "free"
	TierCustom   TierKind = "custom"
)

// TicketTier represents one priced category of ticket for an event. Tiers
// are immutable once resolved for a checkout session.
type TicketTier struct {
	Label     string          `json:"label"`
	Kind      TierKind        `json:"kind"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Available bool            `json:"available"`
}

// ResolveTiers resolves an event payload into its purchasable ticket tiers.
// This is a strict priority chain: an explicit ticket type list wins
// outright, then a single synthesized Standard tier for a priced event, then
// a single synthesized Free tier. Exactly one branch executes per event.
func ResolveTiers(event *Event) []TicketTier {
	if len(event.TicketTypes) > 0 {
		return tiersFromTicketTypes(event.TicketTypes)
	}

	price := event.EffectivePrice()
	if !IsFreePrice(price) {
		unitPrice, err := ParsePrice(price)
		if err != nil {
			// Unparseable prices fall through to the free branch rather
			// than producing a tier the buyer cannot be charged for.
			return []TicketTier{freeTier(event)}
		}
		return []TicketTier{{
			Label:     "Standard Ticket",
			Kind:      TierStandard,
			UnitPrice: unitPrice,
			Available: event.IsPurchasable(),
		}}
	}

	return []TicketTier{freeTier(event)}
}

func freeTier(event *Event) TicketTier {
	return TicketTier{
		Label:     "Free Ticket",
		Kind:      TierFree,
		UnitPrice: decimal.Zero,
		Available: event.IsPurchasable(),
	}
}

func tiersFromTicketTypes(raw []RawTicketType) []TicketTier {
	tiers := make([]TicketTier, 0, len(raw))
	for _, tt := range raw {
		unitPrice, err := ParsePrice(tt.Price)
		if err != nil {
			unitPrice = decimal.Zero
		}

		kind := TierCustom
		switch tt.Type {
		case string(TierStandard):
			kind = TierStandard
		case string(TierFree):
			kind = TierFree
		}
		if unitPrice.IsZero() && kind == TierCustom && tt.Type == "" {
			kind = TierFree
		}
		if kind == TierFree {
			// A free tier never carries a price.
			unitPrice = decimal.Zero
		}

		available := true
		if tt.Available != nil {
			available = *tt.Available
		}

		tiers = append(tiers, TicketTier{
			Label:     tt.Label,
			Kind:      kind,
			UnitPrice: unitPrice,
			Available: available,
		})
	}
	return tiers
}
