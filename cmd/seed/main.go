// Command seed creates the admin account and optional demo content.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"time"

	"quill/internal/bootstrap"
	"quill/internal/config"
	"quill/internal/repository"
	"quill/internal/seed"
	"quill/internal/session"

	"github.com/joho/godotenv"
)

func main() {
	admin := flag.Bool("admin", false, "Create the admin account from ADMIN_NAME, ADMIN_EMAIL and ADMIN_PASSWORD")
	demo := flag.Bool("demo", false, "Insert fake users, posts and comments")
	numUsers := flag.Int("users", 20, "Number of demo users")
	numPosts := flag.Int("posts", 100, "Number of demo posts")
	commentsPerPost := flag.Int("comments", 4, "Top-level comments per demo post")
	fakerSeed := flag.Int64("seed", 0, "Faker seed (0 picks a random one)")
	fixture := flag.String("fixture", "", "Path to a YAML fixture file to load")
	tokenFor := flag.String("token", "", "Print a one-hour development token for this user id")
	flag.Parse()

	if err := run(*admin, *demo, *fixture, *tokenFor, seed.Options{
		NumUsers:        *numUsers,
		NumPosts:        *numPosts,
		CommentsPerPost: *commentsPerPost,
		Seed:            *fakerSeed,
	}); err != nil {
		log.Fatalf("❌ %v", err)
	}
	log.Println("✨ Done.")
}

func run(admin, demo bool, fixture, tokenFor string, opts seed.Options) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("read .env: %w", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if tokenFor != "" {
		if cfg.IsProduction() {
			return errors.New("refusing to mint tokens in production")
		}
		token, err := session.Issue(session.Options{
			Secret:   cfg.JWTSecret,
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		}, tokenFor, time.Hour)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		fmt.Println(token)
	}

	if !admin && !demo && fixture == "" {
		return nil
	}

	db, _, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		return err
	}
	ctx := context.Background()

	if admin {
		user, err := bootstrap.EnsureAdmin(ctx, repository.NewUserRepository(db), bootstrap.AdminAccount{
			Name:     cfg.AdminName,
			Email:    cfg.AdminEmail,
			Password: cfg.AdminPassword,
		})
		if err != nil {
			return fmt.Errorf("admin seeding failed: %w", err)
		}
		log.Printf("✓ admin %s created (%s)", user.Email, user.ID)
	}

	if fixture != "" {
		f, err := os.Open(fixture)
		if err != nil {
			return fmt.Errorf("open fixture: %w", err)
		}
		defer func() { _ = f.Close() }()

		data, err := seed.LoadFixture(f)
		if err != nil {
			return err
		}
		if err := seed.ApplyFixture(ctx, db, data); err != nil {
			return fmt.Errorf("fixture seeding failed: %w", err)
		}
		log.Printf("✓ fixture %s loaded: %d users, %d posts", fixture, len(data.Users), len(data.Posts))
	}

	if demo {
		res, err := seed.Demo(ctx, db, opts)
		if err != nil {
			return fmt.Errorf("demo seeding failed: %w", err)
		}
		log.Printf("✓ %d users, %d posts, %d comments", res.Users, res.Posts, res.Comments)
	}
	return nil
}
