// Package app provides user persistence helpers for authenticated requests.
package app

import (
	"context"
	"database/sql"

	"github.com/tarokuma555-maker/mogumogu-sub000/app/models"
	"github.com/tarokuma555-maker/mogumogu-sub000/auth"
)

// UpsertUserFromClaims creates a user row if it does not already exist.
func UpsertUserFromClaims(ctx context.Context, claims *auth.Claims) error {
	if db == nil {
		return nil
	}
	if claims == nil || claims.Subject == "" {
		return nil
	}

	const q = `
		INSERT INTO users (auth_sub, email, plan, is_premium, created_at)
		VALUES ($1, $2, $3, false, now())
		ON CONFLICT (auth_sub) DO NOTHING;
	`

	_, err := db.ExecContext(ctx, q, claims.Subject, nullIfEmpty(claims.Email), models.PlanFree)
	return err
}

// loadOrCreateUser fetches the caller's row, creating it on first contact.
func loadOrCreateUser(ctx context.Context, claims *auth.Claims) (models.User, error) {
	user, err := getUserByAuthSub(ctx, claims.Subject)
	if err == sql.ErrNoRows {
		if err := UpsertUserFromClaims(ctx, claims); err != nil {
			return models.User{}, err
		}
		user, err = getUserByAuthSub(ctx, claims.Subject)
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
