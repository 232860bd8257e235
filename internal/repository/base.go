// Package repository implements the data access layer for the application.
package repository

import (
	"errors"

	"quill/internal/models"

	"gorm.io/gorm"
)

// commentsCountSelect adds the per-post comment total to a posts query.
const commentsCountSelect = "posts.*, (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_count"

// lookupError maps a failed single-row read to NOT_FOUND or STORE_FAILURE.
func lookupError(err error, resource string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewStoreError(err)
}
