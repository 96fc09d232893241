package models

import "time"

// DefaultPlanCode is the plan renewed when none is given.
const DefaultPlanCode = "MONTHLY_1M"

// SubscriptionStatus is the billing state reported by the backend. It is
// never persisted locally; the backend is the source of truth.
type SubscriptionStatus struct {
	HasActive     bool       `json:"has_active"`
	EndsAt        *time.Time `json:"ends_at"`
	RemainingDays int        `json:"remaining_days"`
}

// Renewal is the backend's answer to a subscription renewal.
type Renewal struct {
	PaymentID      string    `json:"payment_id"`
	SubscriptionID string    `json:"subscription_id"`
	EndsAt         time.Time `json:"ends_at"`
}

// Token is the bearer credential returned by login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
