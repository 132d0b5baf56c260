// Package app enforces daily free-tier limits on AI-backed features.
package app

import (
	"context"
	"time"

	"github.com/tarokuma555-maker/mogumogu-sub000/app/models"
)

const usageExcerptRunes = 500

type quotaError struct {
	Limit int
	Used  int
}

func (e quotaError) Error() string {
	return "daily quota exceeded"
}

// dayStart returns midnight of t's calendar day in t's own location.
// "Today" is therefore the server's local day, matching how clients
// display the counter.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// checkDailyQuota counts today's usage of one feature and rejects
// non-premium users at or above the free limit. The count and the later
// insert are separate statements; concurrent requests can overshoot by
// one event, which is accepted.
func checkDailyQuota(ctx context.Context, user models.User, feature Feature) (int, error) {
	used, err := countUsageSince(ctx, feature.Table, user.AuthSub, dayStart(time.Now()))
	if err != nil {
		return 0, err
	}
	if user.IsPremium {
		return used, nil
	}
	if used >= feature.FreeLimit {
		return used, quotaError{Limit: feature.FreeLimit, Used: used}
	}
	return used, nil
}

// recordUsage stores one usage event with bounded excerpts of the prompt
// and reply, to cap row size.
func recordUsage(ctx context.Context, feature Feature, authSub, prompt, reply string) error {
	return insertUsageEvent(ctx, feature.Table, authSub,
		truncateRunes(prompt, usageExcerptRunes),
		truncateRunes(reply, usageExcerptRunes),
	)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
