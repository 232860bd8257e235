package seed

import (
	"context"
	"fmt"
	"log/slog"

	"quill/internal/middleware"
	"quill/internal/models"

	"gorm.io/gorm"
)

// Options configures the demo seeder.
type Options struct {
	NumUsers        int
	NumPosts        int
	CommentsPerPost int
	Seed            int64
	BatchSize       int
}

// DemoResult reports what Demo inserted.
type DemoResult struct {
	Users    int
	Posts    int
	Comments int
}

// Demo fills the database with fake users, posts and threaded comments in a
// single transaction.
func Demo(ctx context.Context, db *gorm.DB, opts Options) (*DemoResult, error) {
	if opts.NumUsers <= 0 {
		return nil, fmt.Errorf("at least one user is required")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}

	f := NewFactory(opts.Seed)
	result := &DemoResult{}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := make([]*models.User, 0, opts.NumUsers)
		for i := 0; i < opts.NumUsers; i++ {
			users = append(users, f.User(models.RoleUser))
		}
		if err := tx.CreateInBatches(users, opts.BatchSize).Error; err != nil {
			return fmt.Errorf("failed to create users: %w", err)
		}
		result.Users = len(users)

		posts := make([]*models.Post, 0, opts.NumPosts)
		for i := 0; i < opts.NumPosts; i++ {
			posts = append(posts, f.Post(users[f.faker.Number(0, len(users)-1)]))
		}
		if len(posts) > 0 {
			if err := tx.CreateInBatches(posts, opts.BatchSize).Error; err != nil {
				return fmt.Errorf("failed to create posts: %w", err)
			}
		}
		result.Posts = len(posts)

		// Parents go in before their replies; each wave is one batch.
		for _, post := range posts {
			var wave []*models.Comment
			for i := 0; i < opts.CommentsPerPost; i++ {
				wave = append(wave, f.Comment(post, users[f.faker.Number(0, len(users)-1)], nil))
			}
			for depth := 0; depth < 3 && len(wave) > 0; depth++ {
				if err := tx.CreateInBatches(wave, opts.BatchSize).Error; err != nil {
					return fmt.Errorf("failed to create comments: %w", err)
				}
				result.Comments += len(wave)

				var next []*models.Comment
				for _, parent := range wave {
					if f.faker.Number(1, 3) == 1 {
						next = append(next, f.Comment(post, users[f.faker.Number(0, len(users)-1)], parent))
					}
				}
				wave = next
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "demo data seeded",
		slog.Int("users", result.Users),
		slog.Int("posts", result.Posts),
		slog.Int("comments", result.Comments),
	)
	return result, nil
}
