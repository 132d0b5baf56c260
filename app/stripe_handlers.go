package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/tarokuma555-maker/mogumogu-sub000/app/config"
	"github.com/tarokuma555-maker/mogumogu-sub000/app/models"
	"github.com/tarokuma555-maker/mogumogu-sub000/auth"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v79"
	portal "github.com/stripe/stripe-go/v79/billingportal/session"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

// SubscriptionStatus reports the caller's premium state. Internal failures
// degrade to {isPremium:false} instead of surfacing a 5xx, so the client
// can always render something.
func SubscriptionStatus(c *gin.Context) {
	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return
	}

	freeBody := gin.H{"isPremium": false, "subscription": nil}
	if db == nil {
		c.JSON(http.StatusOK, freeBody)
		return
	}

	user, err := getUserByAuthSub(c.Request.Context(), claims.Subject)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("subscription lookup failed sub=%s: %v", claims.Subject, err)
		}
		c.JSON(http.StatusOK, freeBody)
		return
	}

	if !user.IsPremium {
		c.JSON(http.StatusOK, freeBody)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"isPremium": true,
		"subscription": models.Subscription{
			ID:        user.StripeSubscriptionID,
			Plan:      user.Plan,
			ExpiresAt: user.PremiumExpiresAt,
		},
	})
}

// CreateCheckoutSession starts a Stripe Checkout Session for the authenticated user.
func CreateCheckoutSession(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := auth.ClaimsFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		stripeCustomerID, err := ensureStripeCustomer(c.Request.Context(), claims.Subject, claims.Email)
		if err != nil {
			log.Printf("ensureStripeCustomer failed for sub=%s: %v", claims.Subject, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to prepare billing"})
			return
		}

		priceID := cfg.Stripe.PriceIDPremiumMonthly
		frontendURL := strings.TrimRight(cfg.Stripe.FrontendURL, "/")
		if priceID == "" || frontendURL == "" {
			log.Printf("missing Stripe config: price_id=%t frontend_url=%t", priceID != "", frontendURL != "")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "billing not configured"})
			return
		}

		params := &stripe.CheckoutSessionParams{
			Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
			Customer: stripe.String(stripeCustomerID),
			LineItems: []*stripe.CheckoutSessionLineItemParams{
				{
					Price:    stripe.String(priceID),
					Quantity: stripe.Int64(1),
				},
			},
			SuccessURL: stripe.String(frontendURL + "/billing/success"),
			CancelURL:  stripe.String(frontendURL + "/billing/cancel"),
		}

		sess, err := session.New(params)
		if err != nil {
			log.Printf("stripe checkout session failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create checkout session"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"url": sess.URL})
	}
}

// CreatePortalSession creates a Stripe Customer Portal session for the authenticated user.
func CreatePortalSession(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := auth.ClaimsFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}
		if db == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db not initialized"})
			return
		}

		var stripeCustomerID sql.NullString
		err := db.QueryRowContext(
			c.Request.Context(),
			`
				SELECT stripe_customer_id
				FROM users
				WHERE auth_sub = $1;
			`,
			claims.Subject,
		).Scan(&stripeCustomerID)
		if err != nil && err != sql.ErrNoRows {
			log.Printf("portal lookup failed sub=%s err=%v", claims.Subject, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load customer"})
			return
		}
		if !stripeCustomerID.Valid || stripeCustomerID.String == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no billing account on file"})
			return
		}

		frontendURL := strings.TrimRight(cfg.Stripe.FrontendURL, "/")
		if frontendURL == "" {
			log.Printf("missing Stripe config: frontend_url=false")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "billing not configured"})
			return
		}

		params := &stripe.BillingPortalSessionParams{
			Customer:  stripe.String(stripeCustomerID.String),
			ReturnURL: stripe.String(frontendURL + "/settings/billing"),
		}

		sess, err := portal.New(params)
		if err != nil {
			log.Printf("stripe portal session failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create portal session"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"url": sess.URL})
	}
}

// StripeWebhook handles Stripe subscription events and updates premium flags.
// After signature verification, every outcome acknowledges receipt: a
// dropped write is reconciled by the next event, while a non-2xx would
// trigger Stripe's redelivery storm.
func StripeWebhook(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		const maxBodyBytes = int64(65536)
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
		if err != nil {
			log.Printf("stripe webhook read failed: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}

		endpointSecret := cfg.Stripe.WebhookSecret
		if endpointSecret == "" {
			log.Printf("stripe webhook secret missing")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook not configured"})
			return
		}

		event, err := webhook.ConstructEventWithOptions(
			body,
			c.GetHeader("Stripe-Signature"),
			endpointSecret,
			webhook.ConstructEventOptions{
				IgnoreAPIVersionMismatch: true,
			},
		)
		if err != nil {
			log.Printf("stripe webhook signature failed: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "signature verification failed"})
			return
		}

		applyStripeEvent(c.Request.Context(), event)
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

// applyStripeEvent dispatches one verified event to the matching user write.
// Unknown customers and failed writes are logged, never escalated.
func applyStripeEvent(ctx context.Context, event stripe.Event) {
	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			log.Printf("stripe session unmarshal failed: %v", err)
			return
		}
		customerID := ""
		if sess.Customer != nil {
			customerID = sess.Customer.ID
		}
		if customerID == "" {
			log.Printf("stripe session missing customer id")
			return
		}
		subscriptionID := ""
		if sess.Subscription != nil {
			subscriptionID = sess.Subscription.ID
		}

		setPremium(ctx, customerID, true, subscriptionID, models.PlanPremium, time.Time{})

	case "customer.subscription.updated":
		sub, customerID, ok := decodeSubscription(event.Data.Raw)
		if !ok {
			return
		}
		active := sub.Status == stripe.SubscriptionStatusActive || sub.Status == stripe.SubscriptionStatusTrialing
		plan := models.PlanFree
		if active {
			plan = models.PlanPremium
		}
		expires := time.Time{}
		if sub.CurrentPeriodEnd > 0 {
			expires = time.Unix(sub.CurrentPeriodEnd, 0)
		}

		setPremium(ctx, customerID, active, sub.ID, plan, expires)

	case "customer.subscription.deleted":
		_, customerID, ok := decodeSubscription(event.Data.Raw)
		if !ok {
			return
		}

		setPremium(ctx, customerID, false, "", models.PlanFree, time.Time{})

	default:
		// Intentionally ignore unhandled events.
	}
}

func decodeSubscription(raw json.RawMessage) (stripe.Subscription, string, bool) {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		log.Printf("stripe subscription unmarshal failed: %v", err)
		return stripe.Subscription{}, "", false
	}
	if sub.Customer == nil || sub.Customer.ID == "" {
		log.Printf("stripe subscription missing customer id")
		return stripe.Subscription{}, "", false
	}
	return sub, sub.Customer.ID, true
}

func setPremium(ctx context.Context, customerID string, premium bool, subscriptionID string, plan models.Plan, expires time.Time) {
	affected, err := setPremiumByStripeCustomer(ctx, customerID, premium, subscriptionID, plan, expires)
	if err != nil {
		log.Printf("stripe plan update failed customer=%s premium=%t err=%v", customerID, premium, err)
		return
	}
	if !affected {
		log.Printf("stripe event for unknown customer=%s, no user updated", customerID)
	}
}
