package app

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tarokuma555-maker/mogumogu-sub000/app/config"
	"github.com/tarokuma555-maker/mogumogu-sub000/app/models"

	"github.com/gin-gonic/gin"
)

const defaultVideoQuery = "離乳食 レシピ"

// Weaning-related Rakuten recipe category ids collected by default.
var defaultRecipeCategories = []string{"41-456", "41-457", "41-458", "41-459"}

// CollectVideos is an operator-triggered one-shot job: page through the
// video search API, upsert by video id, then drop rows that are no longer
// embeddable. refresh=true wipes prior rows for the same query first.
func CollectVideos(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.YouTube.APIKey == "" {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "video collector not configured"})
			return
		}

		query := c.Query("q")
		if query == "" {
			query = defaultVideoQuery
		}
		pages := 3
		if p := c.Query("pages"); p != "" {
			if v, err := strconv.Atoi(p); err == nil && v > 0 && v <= 10 {
				pages = v
			}
		}
		refresh := strings.EqualFold(c.Query("refresh"), "true")

		ctx := c.Request.Context()

		var deleted int64
		if refresh {
			n, err := deleteVideosByQuery(ctx, query)
			if err != nil {
				log.Printf("video refresh delete failed query=%q: %v", query, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear previous rows"})
				return
			}
			deleted = n
		}

		var (
			collected []models.Video
			pageToken string
			fetched   int
		)
		for page := 0; page < pages; page++ {
			if page > 0 {
				time.Sleep(collectPageDelay)
			}
			videos, next, err := fetchVideoPage(ctx, cfg.YouTube.APIKey, query, pageToken)
			if err != nil {
				// A failed page is skipped and logged, never retried.
				log.Printf("video page fetch failed query=%q page=%d: %v", query, page, err)
				if page == 0 {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "video search failed"})
					return
				}
				break
			}
			collected = append(collected, videos...)
			fetched++
			if next == "" {
				break
			}
			pageToken = next
		}

		if err := upsertVideos(ctx, collected); err != nil {
			log.Printf("video upsert failed query=%q: %v", query, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store videos"})
			return
		}

		ids := make([]string, len(collected))
		for i, v := range collected {
			ids[i] = v.VideoID
		}
		var removed int64
		if bad, err := findUnembeddable(ctx, cfg.YouTube.APIKey, ids); err != nil {
			log.Printf("embeddability check failed query=%q: %v", query, err)
		} else if len(bad) > 0 {
			n, err := deleteVideosByIDs(ctx, bad)
			if err != nil {
				log.Printf("unembeddable delete failed query=%q: %v", query, err)
			} else {
				removed = n
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"query":     query,
			"pages":     fetched,
			"collected": len(collected),
			"deleted":   deleted,
			"removed":   removed,
		})
	}
}

// CollectRecipes walks a list of recipe categories with a fixed delay
// between calls and upserts each ranking by recipe id.
func CollectRecipes(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.Rakuten.ApplicationID == "" {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "recipe collector not configured"})
			return
		}

		categories := defaultRecipeCategories
		if raw := c.Query("categories"); raw != "" {
			categories = nil
			for _, cat := range strings.Split(raw, ",") {
				if cat = strings.TrimSpace(cat); cat != "" {
					categories = append(categories, cat)
				}
			}
		}
		refresh := strings.EqualFold(c.Query("refresh"), "true")

		ctx := c.Request.Context()

		var (
			collected int
			deleted   int64
			failures  int
		)
		for i, category := range categories {
			if i > 0 {
				time.Sleep(collectPageDelay)
			}

			if refresh {
				n, err := deleteRecipePostsByCategory(ctx, category)
				if err != nil {
					log.Printf("recipe refresh delete failed category=%s: %v", category, err)
					c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear previous rows"})
					return
				}
				deleted += n
			}

			posts, err := fetchRecipeRanking(ctx, cfg.Rakuten.ApplicationID, category)
			if err != nil {
				log.Printf("recipe ranking fetch failed category=%s: %v", category, err)
				failures++
				if i == 0 && len(categories) == 1 {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "recipe search failed"})
					return
				}
				continue
			}

			if err := upsertRecipePosts(ctx, posts); err != nil {
				log.Printf("recipe upsert failed category=%s: %v", category, err)
				failures++
				continue
			}
			collected += len(posts)
		}

		c.JSON(http.StatusOK, gin.H{
			"categories": len(categories),
			"collected":  collected,
			"deleted":    deleted,
			"failures":   failures,
		})
	}
}
