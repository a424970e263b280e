// Command main seeds a demo account: it migrates the database, writes a
// synthetic scheduled post set for the user and prints a development token.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"socialdeck/internal/cache"
	"socialdeck/internal/catalog"
	"socialdeck/internal/config"
	"socialdeck/internal/database"
	"socialdeck/internal/middleware"
	"socialdeck/internal/models"
	"socialdeck/internal/repository"
	"socialdeck/internal/seed"
	"socialdeck/internal/service"
)

func main() {
	userID := flag.String("user", "demo", "User id to seed")
	name := flag.String("name", "Demo User", "Display name carried in the token")
	role := flag.String("role", "basic", "Role carried in the token (basic, premium, admin)")
	count := flag.Int("posts", 0, "Number of scheduled posts (0 uses DEMO_POST_COUNT)")
	ttl := flag.Duration("token-ttl", 24*time.Hour, "Lifetime of the printed token")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	rdb := cache.Connect(cfg.RedisURL)
	if rdb == nil {
		log.Fatalf("Redis is required to seed scheduled posts (REDIS_URL=%s)", cfg.RedisURL)
	}
	defer rdb.Close()

	factory, err := seed.NewPostFactory(catalog.Default(), cfg.DemoSeed, nil)
	if err != nil {
		log.Fatalf("Failed to build post factory: %v", err)
	}
	schedule := service.NewScheduleService(
		repository.NewScheduledPostRepository(repository.NewKVStore(rdb)),
		factory,
		service.ScheduleOptions{Location: cfg.Location(), SeedCount: cfg.DemoPostCount},
	)

	session := models.Session{UserID: *userID, DisplayName: *name, Role: models.ParseRole(*role)}
	posts, err := schedule.Generate(context.Background(), session, *count)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d scheduled posts for %s", len(posts), session.UserID)

	token, err := middleware.IssueToken(cfg.JWTSecret, session, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
