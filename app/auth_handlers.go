// Package app provides public health and authenticated identity endpoints.
package app

import (
	"net/http"
	"time"

	"github.com/tarokuma555-maker/mogumogu-sub000/app/config"
	"github.com/tarokuma555-maker/mogumogu-sub000/app/models"
	"github.com/tarokuma555-maker/mogumogu-sub000/auth"

	"github.com/gin-gonic/gin"
)

// Health is a public health check endpoint.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Me returns today's per-feature usage for the authenticated user.
func Me(cfg *config.Config) gin.HandlerFunc {
	features := []Feature{consultFeature(cfg), recipeFeature(cfg), searchFeature(cfg)}

	return func(c *gin.Context) {
		claims, ok := auth.ClaimsFromContext(c.Request.Context())
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}

		user, err := loadOrCreateUser(c.Request.Context(), claims)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
			return
		}

		since := dayStart(time.Now())
		usage := make(map[string]models.UsageInfo, len(features))
		for _, feature := range features {
			used, err := countUsageSince(c.Request.Context(), feature.Table, claims.Subject, since)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load usage"})
				return
			}
			info := models.UsageInfo{Used: used, IsPremium: user.IsPremium}
			if !user.IsPremium {
				info.Limit = feature.FreeLimit
			}
			usage[feature.Name] = info
		}

		c.JSON(http.StatusOK, gin.H{
			"plan":      user.Plan,
			"isPremium": user.IsPremium,
			"usage":     usage,
		})
	}
}
