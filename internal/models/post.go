package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// PostStatus is the publication state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "DRAFT"
	PostStatusPublished PostStatus = "PUBLISHED"
	PostStatusArchived  PostStatus = "ARCHIVED"
)

// ParsePostStatus validates a post status name.
func ParsePostStatus(s string) (PostStatus, error) {
	switch PostStatus(s) {
	case PostStatusDraft, PostStatusPublished, PostStatusArchived:
		return PostStatus(s), nil
	default:
		return "", fmt.Errorf("unknown post status %q", s)
	}
}

// Post represents a blog post
type Post struct {
	ID         string         `gorm:"type:uuid;primaryKey" json:"id"`
	Title      string         `gorm:"size:300;not null" json:"title"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	Thumbnail  *string        `gorm:"size:2048" json:"thumbnail,omitempty"`
	Tags       pq.StringArray `gorm:"type:text[];not null;default:'{}'" json:"tags"`
	IsFeatured bool           `gorm:"not null;default:false;index" json:"isFeatured"`
	Status     PostStatus     `gorm:"type:varchar(16);not null;default:PUBLISHED;index" json:"status"`
	Views      int64          `gorm:"not null;default:0" json:"views"`
	AuthorID   string         `gorm:"type:uuid;not null;index" json:"authorId"`
	Author     *User          `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time      `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`

	CommentsCount int64      `gorm:"->;-:migration" json:"commentsCount"`
	Comments      []*Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments,omitempty"`
}

// BeforeCreate assigns a UUID when the caller did not.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Tags == nil {
		p.Tags = pq.StringArray{}
	}
	return nil
}

// PostSummary is the slice of a post embedded in comment lookups.
type PostSummary struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
}
