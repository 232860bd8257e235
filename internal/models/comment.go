package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CommentStatus is the moderation state of a comment.
type CommentStatus string

const (
	CommentStatusPending  CommentStatus = "PENDING"
	CommentStatusApproved CommentStatus = "APPROVED"
	CommentStatusReject   CommentStatus = "REJECT"
)

// DefaultCommentStatus is assigned to new comments until a moderator acts.
const DefaultCommentStatus = CommentStatusPending

// ParseCommentStatus validates a comment status name.
func ParseCommentStatus(s string) (CommentStatus, error) {
	switch CommentStatus(s) {
	case CommentStatusPending, CommentStatusApproved, CommentStatusReject:
		return CommentStatus(s), nil
	default:
		return "", fmt.Errorf("unknown comment status %q", s)
	}
}

// Comment represents a comment on a post, optionally replying to another comment.
type Comment struct {
	ID        string        `gorm:"type:uuid;primaryKey" json:"id"`
	Content   string        `gorm:"type:text;not null" json:"content"`
	AuthorID  string        `gorm:"type:uuid;not null;index" json:"authorId"`
	Author    *User         `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	PostID    string        `gorm:"type:uuid;not null;index" json:"postId"`
	Post      *PostSummary  `gorm:"-" json:"post,omitempty"`
	ParentID  *string       `gorm:"type:uuid;index" json:"parentId"`
	Status    CommentStatus `gorm:"type:varchar(16);not null;default:PENDING;index" json:"status"`
	CreatedAt time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`

	Replies []*Comment `gorm:"foreignKey:ParentID;constraint:OnDelete:CASCADE" json:"replies,omitempty"`
}

// BeforeCreate assigns a UUID and the default moderation status.
func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = DefaultCommentStatus
	}
	return nil
}
