// Package seed provides helpers to create demo data for development and
// testing. These helpers are not used by the API server.
package seed

import (
	"strings"
	"time"

	"quill/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/lib/pq"
)

var tagPool = []string{
	"go", "postgres", "redis", "devops", "frontend", "backend", "design",
	"career", "testing", "security", "cloud", "tutorial", "opinion", "news",
}

// Factory builds domain entities with realistic fake content. It does not
// persist anything.
type Factory struct {
	faker   *gofakeit.Faker
	maxDays int
}

// NewFactory returns a Factory whose output is reproducible for a given seed.
func NewFactory(seed int64) *Factory {
	return &Factory{faker: gofakeit.New(seed), maxDays: 90}
}

// User builds an active account with a verified email.
func (f *Factory) User(role models.Role) *models.User {
	return &models.User{
		Name:          f.faker.Name(),
		Email:         strings.ToLower(f.faker.Username()) + "." + f.faker.LetterN(6) + "@example.com",
		EmailVerified: true,
		Role:          role,
		Status:        models.UserStatusActive,
	}
}

// Post builds a post by author, spread over the last maxDays days.
func (f *Factory) Post(author *models.User) *models.Post {
	created := f.pastTime()
	post := &models.Post{
		Title:      strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 8)), "."),
		Content:    f.faker.Paragraph(f.faker.Number(1, 4), 4, 12, "\n\n"),
		Tags:       f.tags(),
		IsFeatured: f.faker.Number(1, 10) == 1,
		Status: models.PostStatus(f.faker.RandomString([]string{
			string(models.PostStatusPublished), string(models.PostStatusPublished),
			string(models.PostStatusPublished), string(models.PostStatusDraft),
			string(models.PostStatusArchived),
		})),
		Views:     int64(f.faker.Number(0, 500)),
		AuthorID:  author.ID,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if f.faker.Bool() {
		thumb := "https://picsum.photos/seed/" + f.faker.UUID() + "/800/450"
		post.Thumbnail = &thumb
	}
	return post
}

// Comment builds a comment on post, replying to parent when it is non-nil.
// Most comments come out APPROVED so post detail pages have something to show.
func (f *Factory) Comment(post *models.Post, author *models.User, parent *models.Comment) *models.Comment {
	c := &models.Comment{
		Content:  f.faker.Sentence(f.faker.Number(4, 20)),
		AuthorID: author.ID,
		PostID:   post.ID,
		Status: models.CommentStatus(f.faker.RandomString([]string{
			string(models.CommentStatusApproved), string(models.CommentStatusApproved),
			string(models.CommentStatusApproved), string(models.CommentStatusPending),
			string(models.CommentStatusReject),
		})),
	}
	c.CreatedAt = post.CreatedAt.Add(time.Duration(f.faker.Number(1, 72*60)) * time.Minute)
	if parent != nil {
		c.ParentID = &parent.ID
		c.CreatedAt = parent.CreatedAt.Add(time.Duration(f.faker.Number(1, 24*60)) * time.Minute)
	}
	c.UpdatedAt = c.CreatedAt
	return c
}

func (f *Factory) tags() pq.StringArray {
	n := f.faker.Number(0, 4)
	seen := make(map[string]struct{}, n)
	tags := make(pq.StringArray, 0, n)
	for len(tags) < n {
		t := f.faker.RandomString(tagPool)
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	return tags
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.maxDays*24*60)) * time.Minute
	return time.Now().UTC().Add(-back).Truncate(time.Second)
}
