package main

import (
	"flag"
	"log"

	"github.com/jaennil/guide_helper/backend/tileview/internal/app"
	"github.com/jaennil/guide_helper/backend/tileview/pkg/config"
)

func main() {
	minZoom := flag.Int("min-zoom", 0, "first zoom level to seed")
	maxZoom := flag.Int("max-zoom", 5, "last zoom level to seed")
	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		log.Fatalln("failed to load config: ", err)
	}

	res, err := app.Seed(cfg, app.SeedOptions{
		MinZoom: *minZoom,
		MaxZoom: *maxZoom,
	})
	if err != nil {
		log.Fatalln("seeding failed: ", err)
	}

	log.Printf("seeded %d tiles, %d failed\n", res.Tiles, res.Failed)
}
