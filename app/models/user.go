// Package models defines user plan and subscription snapshot fields.
package models

import "time"

type Plan string

const (
	PlanFree    Plan = "FREE"
	PlanPremium Plan = "PREMIUM"
)

type User struct {
	AuthSub              string    `db:"auth_sub"`
	Email                string    `db:"email"`
	Plan                 Plan      `db:"plan"`
	IsPremium            bool      `db:"is_premium"`
	StripeCustomerID     string    `db:"stripe_customer_id"`
	StripeSubscriptionID string    `db:"stripe_subscription_id"`
	PremiumExpiresAt     time.Time `db:"premium_expires_at"`
}

// Subscription is the snapshot returned to clients on subscription checks.
type Subscription struct {
	ID        string    `json:"id"`
	Plan      Plan      `json:"plan"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}
