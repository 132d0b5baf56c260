// Package app wires shared HTTP routes for both local and Lambda execution.
package app

import (
	"log"
	"time"

	"github.com/tarokuma555-maker/mogumogu-sub000/app/config"
	"github.com/tarokuma555-maker/mogumogu-sub000/auth"
	"github.com/tarokuma555-maker/mogumogu-sub000/llm"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/line/line-bot-sdk-go/v7/linebot"
)

// NewRouter builds the shared HTTP router for both local and Lambda execution.
// External-service clients are constructed once here and handed to handlers.
func NewRouter(cfg *config.Config) (*gin.Engine, error) {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       12 * time.Hour,
	}))
	LoadTemplates(router)

	llmClient := llm.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)

	var bot *linebot.Client
	if cfg.Line.ChannelSecret != "" && cfg.Line.ChannelToken != "" {
		b, err := linebot.New(cfg.Line.ChannelSecret, cfg.Line.ChannelToken)
		if err != nil {
			return nil, err
		}
		bot = b
	} else {
		log.Printf("LINE credentials missing; messaging webhook will only acknowledge")
	}

	router.GET("/health", Health)
	router.POST("/api/stripe/webhook", StripeWebhook(cfg))
	router.POST("/api/line/webhook", LineWebhook(bot))

	router.GET("/api/collect/videos", CollectVideos(cfg))
	router.GET("/api/collect/recipes", CollectRecipes(cfg))
	router.GET("/api/videos", ListVideos)

	router.GET("/blog", BlogIndex)
	router.GET("/blog/:slug", BlogShow)
	router.GET("/sitemap.xml", Sitemap(cfg))

	verifier, err := auth.NewVerifierFromEnv()
	if err != nil && !auth.AuthDisabled() {
		return nil, err
	}

	protected := router.Group("/")
	protected.Use(auth.Middleware(verifier, auth.MiddlewareConfig{
		OnAuthenticated: func(c *gin.Context, claims *auth.Claims) error {
			return UpsertUserFromClaims(c.Request.Context(), claims)
		},
	}))
	protected.GET("/api/me", Me(cfg))
	protected.POST("/api/consult", ConsultHandler(llmClient, cfg))
	protected.POST("/api/recipes/generate", GenerateRecipesHandler(llmClient, cfg))
	protected.POST("/api/recipes/search", SearchRecipesHandler(llmClient, cfg))
	protected.POST("/api/billing/subscription", SubscriptionStatus)
	protected.POST("/api/billing/create-checkout-session", CreateCheckoutSession(cfg))
	protected.POST("/api/billing/portal-session", CreatePortalSession(cfg))

	return router, nil
}
