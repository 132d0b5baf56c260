package app

import (
	"log"
	"math/rand"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ListVideos serves cached videos for the given age in months, shuffled so
// the client sees variety across visits.
func ListVideos(c *gin.Context) {
	months := 7
	if m := c.Query("months"); m != "" {
		if v, err := strconv.Atoi(m); err == nil && validAge(v) {
			months = v
		}
	}
	limit := 20
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 50 {
			limit = v
		}
	}

	videos, err := listVideosByAge(c.Request.Context(), months, limit)
	if err != nil {
		log.Printf("video list failed months=%d: %v", months, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load videos"})
		return
	}

	rand.Shuffle(len(videos), func(i, j int) {
		videos[i], videos[j] = videos[j], videos[i]
	})

	c.JSON(http.StatusOK, gin.H{
		"months": months,
		"count":  len(videos),
		"videos": videos,
	})
}
