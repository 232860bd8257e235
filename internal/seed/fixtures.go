package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"quill/internal/models"

	"github.com/lib/pq"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Fixture is a hand-written data set, usually loaded from YAML:
//
//	users:
//	  - name: Ada
//	    email: ada@example.com
//	    role: ADMIN
//	posts:
//	  - title: Hello
//	    content: First post
//	    author: ada@example.com
//	    tags: [intro]
//	    comments:
//	      - author: ada@example.com
//	        content: Welcome
//	        status: APPROVED
type Fixture struct {
	Users []FixtureUser `yaml:"users"`
	Posts []FixturePost `yaml:"posts"`
}

type FixtureUser struct {
	Name       string `yaml:"name"`
	Email      string `yaml:"email"`
	Role       string `yaml:"role"`
	Status     string `yaml:"status"`
	Unverified bool   `yaml:"unverified"`
}

type FixturePost struct {
	Title     string           `yaml:"title"`
	Content   string           `yaml:"content"`
	Author    string           `yaml:"author"`
	Thumbnail string           `yaml:"thumbnail"`
	Tags      []string         `yaml:"tags"`
	Status    string           `yaml:"status"`
	Featured  bool             `yaml:"featured"`
	Views     int64            `yaml:"views"`
	Comments  []FixtureComment `yaml:"comments"`
}

type FixtureComment struct {
	Author  string           `yaml:"author"`
	Content string           `yaml:"content"`
	Status  string           `yaml:"status"`
	Replies []FixtureComment `yaml:"replies"`
}

// LoadFixture decodes and validates a YAML fixture. Unknown keys are rejected.
func LoadFixture(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f Fixture
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks enum values and that every author refers to a fixture user.
func (f *Fixture) Validate() error {
	emails := make(map[string]struct{}, len(f.Users))
	for i, u := range f.Users {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" {
			return fmt.Errorf("users[%d]: email is required", i)
		}
		if _, dup := emails[email]; dup {
			return fmt.Errorf("users[%d]: duplicate email %s", i, email)
		}
		emails[email] = struct{}{}
		if u.Role != "" {
			if _, err := models.ParseRole(u.Role); err != nil {
				return fmt.Errorf("users[%d]: %w", i, err)
			}
		}
		if u.Status != "" {
			switch models.UserStatus(u.Status) {
			case models.UserStatusActive, models.UserStatusBlocked, models.UserStatusDeleted:
			default:
				return fmt.Errorf("users[%d]: unknown user status %q", i, u.Status)
			}
		}
	}

	var checkComments func(path string, cs []FixtureComment) error
	checkComments = func(path string, cs []FixtureComment) error {
		for i, c := range cs {
			p := fmt.Sprintf("%s.comments[%d]", path, i)
			if _, ok := emails[strings.ToLower(c.Author)]; !ok {
				return fmt.Errorf("%s: unknown author %q", p, c.Author)
			}
			if strings.TrimSpace(c.Content) == "" {
				return fmt.Errorf("%s: content is required", p)
			}
			if c.Status != "" {
				if _, err := models.ParseCommentStatus(c.Status); err != nil {
					return fmt.Errorf("%s: %w", p, err)
				}
			}
			if err := checkComments(p, c.Replies); err != nil {
				return err
			}
		}
		return nil
	}

	for i, p := range f.Posts {
		path := fmt.Sprintf("posts[%d]", i)
		if strings.TrimSpace(p.Title) == "" || strings.TrimSpace(p.Content) == "" {
			return fmt.Errorf("%s: title and content are required", path)
		}
		if _, ok := emails[strings.ToLower(p.Author)]; !ok {
			return fmt.Errorf("%s: unknown author %q", path, p.Author)
		}
		if p.Status != "" {
			if _, err := models.ParsePostStatus(p.Status); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		if err := checkComments(path, p.Comments); err != nil {
			return err
		}
	}
	return nil
}

// ApplyFixture inserts the fixture in one transaction.
func ApplyFixture(ctx context.Context, db *gorm.DB, f *Fixture) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		byEmail := make(map[string]*models.User, len(f.Users))
		for _, fu := range f.Users {
			u := &models.User{
				Name:          fu.Name,
				Email:         strings.ToLower(strings.TrimSpace(fu.Email)),
				EmailVerified: !fu.Unverified,
				Role:          models.RoleUser,
				Status:        models.UserStatusActive,
			}
			if fu.Role != "" {
				u.Role = models.Role(fu.Role)
			}
			if fu.Status != "" {
				u.Status = models.UserStatus(fu.Status)
			}
			if err := tx.Create(u).Error; err != nil {
				return fmt.Errorf("create user %s: %w", u.Email, err)
			}
			byEmail[u.Email] = u
		}

		var insertComments func(post *models.Post, parent *models.Comment, cs []FixtureComment) error
		insertComments = func(post *models.Post, parent *models.Comment, cs []FixtureComment) error {
			for _, fc := range cs {
				c := &models.Comment{
					Content:  fc.Content,
					AuthorID: byEmail[strings.ToLower(fc.Author)].ID,
					PostID:   post.ID,
					Status:   models.CommentStatus(fc.Status),
				}
				if parent != nil {
					c.ParentID = &parent.ID
				}
				if err := tx.Create(c).Error; err != nil {
					return fmt.Errorf("create comment: %w", err)
				}
				if err := insertComments(post, c, fc.Replies); err != nil {
					return err
				}
			}
			return nil
		}

		for _, fp := range f.Posts {
			post := &models.Post{
				Title:      fp.Title,
				Content:    fp.Content,
				Tags:       pq.StringArray(fp.Tags),
				IsFeatured: fp.Featured,
				Status:     models.PostStatusPublished,
				Views:      fp.Views,
				AuthorID:   byEmail[strings.ToLower(fp.Author)].ID,
			}
			if fp.Status != "" {
				post.Status = models.PostStatus(fp.Status)
			}
			if fp.Thumbnail != "" {
				thumb := fp.Thumbnail
				post.Thumbnail = &thumb
			}
			if err := tx.Create(post).Error; err != nil {
				return fmt.Errorf("create post %q: %w", fp.Title, err)
			}
			if err := insertComments(post, nil, fp.Comments); err != nil {
				return err
			}
		}
		return nil
	})
}
