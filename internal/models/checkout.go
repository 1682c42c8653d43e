package models

import (
	"github.com/shopspring/decimal"
)

// CheckoutState is one stop in the checkout state machine.
type CheckoutState string

const (
	StateInit              CheckoutState = "init"
	StateCollectingDetails CheckoutState = "collecting_details"
	StateTokenizingPayment CheckoutState = "tokenizing_payment"
	StateSubmittingOrder   CheckoutState = "submitting_order"
	StateConfirmingSCA     CheckoutState = "confirming_sca"
	StateSucceeded         CheckoutState = "succeeded"
	StateRedirect          CheckoutState = "redirect"
	StateFailed            CheckoutState = "failed"
)

// Customer carries the billing/shipping details collected from the buyer.
// Every field is mandatory at this layer; the order backend itself tolerates
// a missing phone.
type Customer struct {
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required"`
	Address     string `json:"address" validate:"required"`
	City        string `json:"city" validate:"required"`
	Postcode    string `json:"postcode" validate:"required"`
	CountryCode string `json:"country_code" validate:"required,len=2"`
}

// CheckoutContext is the working state of one checkout attempt, owned
// exclusively by the orchestrator for its lifetime. TotalAmount is always
// recomputed from the selection, never trusted from a prior step.
type CheckoutContext struct {
	EventID   int
	Selection *Selection
	// FallbackQuantity is the implicit aggregate quantity used when the
	// buyer arrived via a direct link with no explicit tier picks.
	FallbackQuantity int
	Customer         Customer
	TotalAmount      decimal.Decimal
}

// RecomputeTotal refreshes TotalAmount from the current selection.
func (c *CheckoutContext) RecomputeTotal() {
	if c.Selection == nil {
		c.TotalAmount = decimal.Zero
		return
	}
	c.TotalAmount = c.Selection.Total()
}

// OutcomeKind tags a CheckoutOutcome.
type OutcomeKind string

const (
	OutcomeSuccess        OutcomeKind = "success"
	OutcomeRequiresAction OutcomeKind = "requires_action"
	OutcomeRedirect       OutcomeKind = "redirect"
	OutcomeFailed         OutcomeKind = "failed"
)

// CheckoutOutcome is the tagged result of one checkout submission. Success,
// Redirect, and Failed are terminal; RequiresAction is transient and must
// resolve to a terminal outcome via the SCA confirmation step.
type CheckoutOutcome struct {
	Kind         OutcomeKind   `json:"kind"`
	OrderRef     string        `json:"order_ref,omitempty"`
	ClientSecret string        `json:"client_secret,omitempty"`
	RedirectURL  string        `json:"redirect,omitempty"`
	Reason       FailureReason `json:"reason,omitempty"`
	Message      string        `json:"message,omitempty"`
}

// Terminal reports whether the outcome ends the checkout attempt.
func (o CheckoutOutcome) Terminal() bool {
	return o.Kind != OutcomeRequiresAction
}

// SuccessOutcome builds a terminal success outcome.
func SuccessOutcome(orderRef string) CheckoutOutcome {
	return CheckoutOutcome{Kind: OutcomeSuccess, OrderRef: orderRef}
}

// RequiresActionOutcome builds the transient strong-customer-authentication
// outcome.
func RequiresActionOutcome(clientSecret string) CheckoutOutcome {
	return CheckoutOutcome{Kind: OutcomeRequiresAction, ClientSecret: clientSecret}
}

// RedirectOutcome builds a terminal redirect outcome.
func RedirectOutcome(url string) CheckoutOutcome {
	return CheckoutOutcome{Kind: OutcomeRedirect, RedirectURL: url}
}

// FailedOutcome builds a terminal failure outcome.
func FailedOutcome(reason FailureReason, message string) CheckoutOutcome {
	return CheckoutOutcome{Kind: OutcomeFailed, Reason: reason, Message: message}
}
