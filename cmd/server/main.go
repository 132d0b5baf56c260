package main

import (
	"log"

	"github.com/tarokuma555-maker/mogumogu-sub000/app"
	"github.com/tarokuma555-maker/mogumogu-sub000/app/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	app.MustInitDB()
	app.InitStripe()

	router, err := app.NewRouter(cfg)
	if err != nil {
		log.Fatalf("failed to initialize router: %v", err)
	}
	router.Run("0.0.0.0:8080")
}
