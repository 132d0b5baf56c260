package app

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/tarokuma555-maker/mogumogu-sub000/app/config"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/customer"
)

// InitStripe wires the Stripe API key from the environment.
func InitStripe() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config for stripe: %v", err)
	}
	stripe.Key = cfg.Stripe.SecretKey
}

// ensureStripeCustomer finds or creates a Stripe Customer for the given user.
// It uses users.stripe_customer_id when present, otherwise creates a new
// customer with metadata auth_sub = <authSub>, then stores that in users.
func ensureStripeCustomer(ctx context.Context, authSub, email string) (string, error) {
	if db == nil {
		return "", errors.New("db not initialized")
	}
	if authSub == "" {
		return "", errors.New("missing auth sub")
	}

	var stripeID sql.NullString
	err := db.QueryRowContext(
		ctx,
		`
			SELECT stripe_customer_id
			FROM users
			WHERE auth_sub = $1;
		`,
		authSub,
	).Scan(&stripeID)
	if err != nil {
		return "", err
	}

	if stripeID.Valid && stripeID.String != "" {
		return stripeID.String, nil
	}

	params := &stripe.CustomerParams{
		Metadata: map[string]string{
			"auth_sub": authSub,
		},
	}
	if email != "" {
		params.Email = stripe.String(email)
	}
	cust, err := customer.New(params)
	if err != nil {
		return "", err
	}

	_, err = db.ExecContext(
		ctx,
		`
			UPDATE users
			SET stripe_customer_id = $1
			WHERE auth_sub = $2;
		`,
		cust.ID,
		authSub,
	)
	if err != nil {
		return "", err
	}

	return cust.ID, nil
}
