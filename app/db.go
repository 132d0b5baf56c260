package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/tarokuma555-maker/mogumogu-sub000/app/config"
	"github.com/tarokuma555-maker/mogumogu-sub000/app/models"

	"github.com/lib/pq"
)

var db *sql.DB

// MustInitDB initializes the global db and panics/logs fatally on error.
func MustInitDB() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s",
		cfg.DB.Username,
		cfg.DB.Password,
		cfg.DB.URL,
		cfg.DB.Port,
	)

	d, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("sql.Open: %v", err)
	}

	if err := d.Ping(); err != nil {
		log.Fatalf("db.Ping: %v", err)
	}

	log.Println("Connected to Postgres")
	db = d
}

func getUserByAuthSub(ctx context.Context, authSub string) (models.User, error) {
	var (
		user      models.User
		email     sql.NullString
		plan      sql.NullString
		custID    sql.NullString
		subID     sql.NullString
		expiresAt sql.NullTime
	)
	err := db.QueryRowContext(ctx, `
		SELECT email, plan, is_premium, stripe_customer_id, stripe_subscription_id, premium_expires_at
		FROM users
		WHERE auth_sub = $1;
	`, authSub).Scan(&email, &plan, &user.IsPremium, &custID, &subID, &expiresAt)
	if err != nil {
		return models.User{}, err
	}
	user.AuthSub = authSub
	user.Email = email.String
	user.Plan = models.Plan(plan.String)
	if user.Plan == "" {
		user.Plan = models.PlanFree
	}
	user.StripeCustomerID = custID.String
	user.StripeSubscriptionID = subID.String
	user.PremiumExpiresAt = expiresAt.Time
	return user, nil
}

// countUsageSince counts a user's usage events for one feature table
// recorded at or after the given instant.
func countUsageSince(ctx context.Context, table, authSub string, since time.Time) (int, error) {
	q := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s
		WHERE auth_sub = $1
		  AND created_at >= $2;
	`, table)

	var count int
	if err := db.QueryRowContext(ctx, q, authSub, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// insertUsageEvent records one successful AI call for quota accounting.
// Quota checks depend on this row being visible, so callers must not
// treat a failure as fire-and-forget.
func insertUsageEvent(ctx context.Context, table, authSub, promptExcerpt, replyExcerpt string) error {
	q := fmt.Sprintf(`
		INSERT INTO %s (auth_sub, prompt_excerpt, reply_excerpt, created_at)
		VALUES ($1, $2, $3, now());
	`, table)

	_, err := db.ExecContext(ctx, q, authSub, promptExcerpt, replyExcerpt)
	return err
}

// setPremiumByStripeCustomer writes the subscription snapshot for the user
// owning the given Stripe customer id. Returns false when no user row
// matches, which the webhook treats as a no-op rather than an error.
func setPremiumByStripeCustomer(ctx context.Context, customerID string, premium bool, subscriptionID string, plan models.Plan, expiresAt time.Time) (bool, error) {
	var expires any
	if !expiresAt.IsZero() {
		expires = expiresAt
	}
	res, err := db.ExecContext(ctx, `
		UPDATE users
		SET is_premium = $1,
		    stripe_subscription_id = NULLIF($2, ''),
		    plan = $3,
		    premium_expires_at = $4
		WHERE stripe_customer_id = $5;
	`, premium, subscriptionID, plan, expires, customerID)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func deleteVideosByQuery(ctx context.Context, query string) (int64, error) {
	res, err := db.ExecContext(ctx, `
		DELETE FROM videos
		WHERE query = $1;
	`, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// upsertVideos inserts or refreshes cached videos keyed by video_id so
// repeated collector runs stay idempotent.
func upsertVideos(ctx context.Context, videos []models.Video) error {
	if len(videos) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO videos (video_id, title, channel, age_months_min, age_months_max, query, published_at, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (video_id) DO UPDATE
		SET title = EXCLUDED.title,
		    channel = EXCLUDED.channel,
		    age_months_min = EXCLUDED.age_months_min,
		    age_months_max = EXCLUDED.age_months_max,
		    query = EXCLUDED.query,
		    collected_at = now();
	`
	for _, v := range videos {
		if _, err := tx.ExecContext(ctx, q,
			v.VideoID, v.Title, v.Channel, v.AgeMonthsMin, v.AgeMonthsMax, v.Query, v.PublishedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func deleteVideosByIDs(ctx context.Context, videoIDs []string) (int64, error) {
	if len(videoIDs) == 0 {
		return 0, nil
	}
	res, err := db.ExecContext(ctx, `
		DELETE FROM videos
		WHERE video_id = ANY($1);
	`, pq.Array(videoIDs))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// listVideosByAge returns cached videos whose age bucket covers the given
// month, newest collected first.
func listVideosByAge(ctx context.Context, months, limit int) ([]models.Video, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT video_id, title, channel, age_months_min, age_months_max, published_at
		FROM videos
		WHERE age_months_min <= $1
		  AND age_months_max >= $1
		ORDER BY collected_at DESC
		LIMIT $2;
	`, months, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.VideoID, &v.Title, &v.Channel, &v.AgeMonthsMin, &v.AgeMonthsMax, &v.PublishedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func deleteRecipePostsByCategory(ctx context.Context, category string) (int64, error) {
	res, err := db.ExecContext(ctx, `
		DELETE FROM recipe_posts
		WHERE category = $1;
	`, category)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func upsertRecipePosts(ctx context.Context, posts []models.RecipePost) error {
	if len(posts) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO recipe_posts (recipe_id, title, url, image_url, category, collected_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (recipe_id) DO UPDATE
		SET title = EXCLUDED.title,
		    url = EXCLUDED.url,
		    image_url = EXCLUDED.image_url,
		    category = EXCLUDED.category,
		    collected_at = now();
	`
	for _, p := range posts {
		if _, err := tx.ExecContext(ctx, q, p.RecipeID, p.Title, p.URL, p.ImageURL, p.Category); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func listPublishedPosts(ctx context.Context) ([]models.BlogPost, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT slug, title, description, published_at
		FROM blog_posts
		WHERE published = true
		ORDER BY published_at DESC;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BlogPost
	for rows.Next() {
		var p models.BlogPost
		if err := rows.Scan(&p.Slug, &p.Title, &p.Description, &p.PublishedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func getPostBySlug(ctx context.Context, slug string) (models.BlogPost, error) {
	var p models.BlogPost
	err := db.QueryRowContext(ctx, `
		SELECT slug, title, description, body_html, view_count, published_at
		FROM blog_posts
		WHERE slug = $1
		  AND published = true;
	`, slug).Scan(&p.Slug, &p.Title, &p.Description, &p.BodyHTML, &p.ViewCount, &p.PublishedAt)
	if err != nil {
		return models.BlogPost{}, err
	}
	return p, nil
}

// incrementViewCount is best-effort; failures are the caller's to swallow.
func incrementViewCount(ctx context.Context, slug string) error {
	_, err := db.ExecContext(ctx, `
		UPDATE blog_posts
		SET view_count = view_count + 1
		WHERE slug = $1;
	`, slug)
	return err
}
