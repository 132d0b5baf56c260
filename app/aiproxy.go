package app

import (
	"errors"
	"log"
	"net/http"

	"github.com/tarokuma555-maker/mogumogu-sub000/app/models"
	"github.com/tarokuma555-maker/mogumogu-sub000/auth"
	"github.com/tarokuma555-maker/mogumogu-sub000/llm"

	"github.com/gin-gonic/gin"
)

// Feature describes one rate-limited AI-backed endpoint. The same request
// lifecycle (auth, quota, completion, usage recording) runs for every
// feature; only the prompt content and the usage table differ.
type Feature struct {
	Name      string
	Table     string
	FreeLimit int
	Params    llm.Params
}

// runAIFeature executes the shared AI-proxy lifecycle for one request:
// resolve the caller, enforce the daily quota, call the completion API
// once, run the optional shape check, then record the usage event before
// responding.
//
// shape, when non-nil, validates and captures the structured payload; a
// reply it rejects is answered 502 and never charged against the quota.
// On failure runAIFeature writes the error response and returns ok=false.
func runAIFeature(c *gin.Context, client *llm.Client, feature Feature, system, user string, shape func(string) error) (string, models.UsageInfo, bool) {
	var zero models.UsageInfo

	claims, ok := auth.ClaimsFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
		return "", zero, false
	}

	ctx := c.Request.Context()

	u, err := loadOrCreateUser(ctx, claims)
	if err != nil {
		log.Printf("%s: user lookup failed sub=%s: %v", feature.Name, claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return "", zero, false
	}

	used, err := checkDailyQuota(ctx, u, feature)
	if err != nil {
		var quota quotaError
		if errors.As(err, &quota) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "daily free limit reached",
				"limit": quota.Limit,
				"used":  quota.Used,
			})
			return "", zero, false
		}
		log.Printf("%s: quota check failed sub=%s: %v", feature.Name, claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check usage"})
		return "", zero, false
	}

	reply, err := client.Chat(ctx, feature.Params, []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	})
	if err != nil {
		var upstream *llm.UpstreamError
		if errors.As(err, &upstream) {
			log.Printf("%s: upstream failure status=%d body=%s", feature.Name, upstream.Status, upstream.Body)
		} else {
			log.Printf("%s: completion failed sub=%s: %v", feature.Name, claims.Subject, err)
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "assistant is unavailable right now"})
		return "", zero, false
	}

	if shape != nil {
		if err := shape(reply); err != nil {
			respondMalformed(c, feature, err)
			return "", zero, false
		}
	}

	// The next request's quota check depends on this row, so a failed
	// insert fails the request instead of handing out untracked usage.
	if err := recordUsage(ctx, feature, claims.Subject, user, reply); err != nil {
		log.Printf("%s: usage insert failed sub=%s: %v", feature.Name, claims.Subject, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record usage"})
		return "", zero, false
	}

	usage := models.UsageInfo{
		Used:      used + 1,
		IsPremium: u.IsPremium,
	}
	if !u.IsPremium {
		usage.Limit = feature.FreeLimit
	}
	return reply, usage, true
}

// respondMalformed logs the unparsable completion and hides it from the
// client behind a generic gateway error.
func respondMalformed(c *gin.Context, feature Feature, err error) {
	var malformed malformedCompletionError
	if errors.As(err, &malformed) {
		log.Printf("%s: %s raw=%q", feature.Name, malformed.Reason, malformed.Raw)
	} else {
		log.Printf("%s: completion parse failed: %v", feature.Name, err)
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": "assistant returned an unusable answer"})
}
