// Package app collects third-party videos and recipes into the content cache.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tarokuma555-maker/mogumogu-sub000/app/models"
)

var httpc = &http.Client{Timeout: 15 * time.Second}

// Fixed pause between pages to stay inside third-party rate limits.
var collectPageDelay = 500 * time.Millisecond

const (
	youtubeSearchURL  = "https://www.googleapis.com/youtube/v3/search"
	youtubeVideosURL  = "https://www.googleapis.com/youtube/v3/videos"
	rakutenRankingURL = "https://app.rakuten.co.jp/services/api/Recipe/CategoryRanking/20170426"
)

type httpError struct {
	Status int
	Body   string
}

func (e httpError) Error() string { return fmt.Sprintf("http %d: %s", e.Status, e.Body) }

// getJSON makes a single GET attempt; collector pages are skipped on
// failure rather than retried.
func getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	res, err := httpc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		var msg struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(res.Body).Decode(&msg)
		return httpError{Status: res.StatusCode, Body: msg.Error.Message}
	}

	return json.NewDecoder(res.Body).Decode(v)
}

// Age classification over Japanese video titles. Ranges like 5〜6ヶ月 win
// over single mentions; stage words are the fallback.
var (
	reAgeRange  = regexp.MustCompile(`([0-9０-９]{1,2})\s*[〜~ー－-]\s*([0-9０-９]{1,2})\s*[かヶカケヵ]月`)
	reAgeSingle = regexp.MustCompile(`([0-9０-９]{1,2})\s*[かヶカケヵ]月`)

	weaningStages = []struct {
		word     string
		min, max int
	}{
		{"ごっくん期", 5, 6},
		{"もぐもぐ期", 7, 8},
		{"かみかみ期", 9, 11},
		{"ぱくぱく期", 12, 18},
	}
)

// classifyAgeRange maps a video title to the month range it targets,
// defaulting to the full weaning window when nothing matches.
func classifyAgeRange(title string) (int, int) {
	if m := reAgeRange.FindStringSubmatch(title); m != nil {
		lo, hi := parseAgeDigits(m[1]), parseAgeDigits(m[2])
		if lo > 0 && hi >= lo {
			return clampAge(lo), clampAge(hi)
		}
	}
	if m := reAgeSingle.FindStringSubmatch(title); m != nil {
		if n := parseAgeDigits(m[1]); n > 0 {
			return clampAge(n), clampAge(n + 1)
		}
	}
	for _, stage := range weaningStages {
		if strings.Contains(title, stage.word) {
			return stage.min, stage.max
		}
	}
	return minBabyAgeMonths, maxBabyAgeMonths
}

func parseAgeDigits(s string) int {
	// Normalize full-width digits before parsing.
	var b strings.Builder
	for _, r := range s {
		if r >= '０' && r <= '９' {
			r = '0' + (r - '０')
		}
		b.WriteRune(r)
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}

func clampAge(n int) int {
	if n < minBabyAgeMonths {
		return minBabyAgeMonths
	}
	if n > maxBabyAgeMonths {
		return maxBabyAgeMonths
	}
	return n
}

type youtubeSearchResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
			PublishedAt  string `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

func fetchVideoPage(ctx context.Context, apiKey, query, pageToken string) ([]models.Video, string, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", query)
	params.Set("maxResults", "50")
	params.Set("key", apiKey)
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var resp youtubeSearchResponse
	if err := getJSON(ctx, youtubeSearchURL+"?"+params.Encode(), &resp); err != nil {
		return nil, "", err
	}

	videos := make([]models.Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			continue
		}
		lo, hi := classifyAgeRange(item.Snippet.Title)
		videos = append(videos, models.Video{
			VideoID:      item.ID.VideoID,
			Title:        item.Snippet.Title,
			Channel:      item.Snippet.ChannelTitle,
			AgeMonthsMin: lo,
			AgeMonthsMax: hi,
			Query:        query,
			PublishedAt:  item.Snippet.PublishedAt,
		})
	}
	return videos, resp.NextPageToken, nil
}

type youtubeStatusResponse struct {
	Items []struct {
		ID     string `json:"id"`
		Status struct {
			Embeddable bool `json:"embeddable"`
		} `json:"status"`
	} `json:"items"`
}

// findUnembeddable returns the ids whose videos are gone or can no longer
// be embedded, checked in batches of 50 (the API cap).
func findUnembeddable(ctx context.Context, apiKey string, videoIDs []string) ([]string, error) {
	var bad []string
	for start := 0; start < len(videoIDs); start += 50 {
		end := start + 50
		if end > len(videoIDs) {
			end = len(videoIDs)
		}
		batch := videoIDs[start:end]

		params := url.Values{}
		params.Set("part", "status")
		params.Set("id", strings.Join(batch, ","))
		params.Set("key", apiKey)

		var resp youtubeStatusResponse
		if err := getJSON(ctx, youtubeVideosURL+"?"+params.Encode(), &resp); err != nil {
			return nil, err
		}

		embeddable := make(map[string]bool, len(resp.Items))
		for _, item := range resp.Items {
			embeddable[item.ID] = item.Status.Embeddable
		}
		for _, id := range batch {
			if !embeddable[id] {
				bad = append(bad, id)
			}
		}
	}
	return bad, nil
}

type rakutenRankingResponse struct {
	Result []struct {
		RecipeID     json.Number `json:"recipeId"`
		RecipeTitle  string      `json:"recipeTitle"`
		RecipeURL    string      `json:"recipeUrl"`
		FoodImageURL string      `json:"foodImageUrl"`
	} `json:"result"`
}

func fetchRecipeRanking(ctx context.Context, applicationID, categoryID string) ([]models.RecipePost, error) {
	params := url.Values{}
	params.Set("applicationId", applicationID)
	params.Set("categoryId", categoryID)

	var resp rakutenRankingResponse
	if err := getJSON(ctx, rakutenRankingURL+"?"+params.Encode(), &resp); err != nil {
		return nil, err
	}

	posts := make([]models.RecipePost, 0, len(resp.Result))
	for _, r := range resp.Result {
		if r.RecipeID.String() == "" {
			continue
		}
		posts = append(posts, models.RecipePost{
			RecipeID: r.RecipeID.String(),
			Title:    r.RecipeTitle,
			URL:      r.RecipeURL,
			ImageURL: r.FoodImageURL,
			Category: categoryID,
		})
	}
	return posts, nil
}
