// Command seed loads the demo accounts and posts, optionally followed by
// generated fake data.
package main

import (
	"context"
	"flag"
	"log"

	"inkwell/internal/config"
	"inkwell/internal/seed"
	"inkwell/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	extra := flag.Int("extra", 0, "number of fake users to generate")
	posts := flag.Int("posts", 3, "posts per fake user")
	clean := flag.Bool("clean", false, "empty all tables before seeding")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg, store.Options{})
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	res, err := seed.Seed(ctx, st, seed.Options{
		Clean:        *clean,
		ExtraUsers:   *extra,
		PostsPerUser: *posts,
	})
	if err != nil {
		return err
	}

	if res.FixtureSkipped {
		log.Println("demo accounts already present, fixture skipped")
	}
	log.Printf("seeded users=%d posts=%d follows=%d", res.Users, res.Posts, res.Follows)
	return nil
}
