package repository

import (
	"context"
	"errors"

	"quill/internal/cache"
	"quill/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const pgForeignKeyViolation = "23503"

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	FindByIDAndAuthor(ctx context.Context, id, authorID string) (*models.Comment, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*models.Comment, error)
	Update(ctx context.Context, id string, patch map[string]any) (*models.Comment, error)
	Delete(ctx context.Context, id string) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts the comment. A post or parent removed after the caller checked
// for it surfaces as NOT_FOUND rather than a store failure.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Create(comment).Error
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return models.NewNotFoundError("Post or parent comment", comment.PostID)
	}
	return models.NewStoreError(err)
}

// GetByID returns the comment with a summary of its post. The comment row is
// served from Redis when cached; the post summary is always read fresh.
func (r *commentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	err := cache.Aside(ctx, cache.CommentKey(id), &comment, cache.CommentTTL, func() error {
		if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
			return lookupError(err, "Comment", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var post models.PostSummary
	if err := r.db.WithContext(ctx).Model(&models.Post{}).
		Select("id", "title", "content").
		Where("id = ?", comment.PostID).
		Take(&post).Error; err != nil {
		return nil, lookupError(err, "Post", comment.PostID)
	}
	comment.Post = &post
	return &comment, nil
}

func (r *commentRepository) FindByIDAndAuthor(ctx context.Context, id, authorID string) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Where("id = ? AND author_id = ?", id, authorID).First(&comment).Error
	if err != nil {
		return nil, lookupError(err, "Comment", id)
	}
	return &comment, nil
}

// ListByAuthor returns the author's comments newest first, each with its post's id and title.
func (r *commentRepository) ListByAuthor(ctx context.Context, authorID string) ([]*models.Comment, error) {
	comments := make([]*models.Comment, 0)
	if err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&comments).Error; err != nil {
		return nil, models.NewStoreError(err)
	}
	if len(comments) == 0 {
		return comments, nil
	}

	postIDs := make([]string, 0, len(comments))
	seen := make(map[string]struct{}, len(comments))
	for _, c := range comments {
		if _, ok := seen[c.PostID]; !ok {
			seen[c.PostID] = struct{}{}
			postIDs = append(postIDs, c.PostID)
		}
	}

	var posts []models.PostSummary
	if err := r.db.WithContext(ctx).Model(&models.Post{}).
		Select("id", "title").
		Where("id IN ?", postIDs).
		Find(&posts).Error; err != nil {
		return nil, models.NewStoreError(err)
	}
	byID := make(map[string]*models.PostSummary, len(posts))
	for i := range posts {
		byID[posts[i].ID] = &posts[i]
	}
	for _, c := range comments {
		c.Post = byID[c.PostID]
	}
	return comments, nil
}

func (r *commentRepository) Update(ctx context.Context, id string, patch map[string]any) (*models.Comment, error) {
	db := r.db.WithContext(ctx)
	if len(patch) > 0 {
		res := db.Model(&models.Comment{ID: id}).Updates(patch)
		if res.Error != nil {
			return nil, models.NewStoreError(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, models.NewNotFoundError("Comment", id)
		}
		cache.InvalidateComment(ctx, id)
	}

	var comment models.Comment
	if err := db.Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, lookupError(err, "Comment", id)
	}
	return &comment, nil
}

const subtreeIDsQuery = `WITH RECURSIVE subtree AS (
	SELECT id FROM comments WHERE id = ?
	UNION ALL
	SELECT c.id FROM comments c JOIN subtree s ON c.parent_id = s.id
) SELECT id FROM subtree`

// Delete removes the comment; replies go with it through the foreign key cascade.
func (r *commentRepository) Delete(ctx context.Context, id string) error {
	var subtree []string
	if err := r.db.WithContext(ctx).Raw(subtreeIDsQuery, id).Scan(&subtree).Error; err != nil {
		return models.NewStoreError(err)
	}

	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Comment{})
	if res.Error != nil {
		return models.NewStoreError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}

	cache.InvalidateComment(ctx, id)
	for _, cid := range subtree {
		cache.InvalidateComment(ctx, cid)
	}
	return nil
}
