package repository

import (
	"context"

	"quill/internal/cache"
	"quill/internal/listing"
	"quill/internal/models"
	"quill/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filters listing.PostFilters, page listing.Page) ([]*models.Post, error)
	Count(ctx context.Context, filters listing.PostFilters) (int64, error)
	ListByAuthor(ctx context.Context, authorID string) ([]*models.Post, int64, error)
	GetDetail(ctx context.Context, id string) (*models.Post, []*models.Comment, error)
	Update(ctx context.Context, id string, patch map[string]any) (*models.Post, error)
	Delete(ctx context.Context, id string) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewStoreError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return r.getWithCount(r.db.WithContext(ctx), id)
}

func (r *postRepository) getWithCount(db *gorm.DB, id string) (*models.Post, error) {
	var post models.Post
	err := db.Model(&models.Post{}).
		Select(commentsCountSelect).
		Where("posts.id = ?", id).
		Take(&post).Error
	if err != nil {
		return nil, lookupError(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) Exists(ctx context.Context, id string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, models.NewStoreError(err)
	}
	return n > 0, nil
}

func (r *postRepository) List(ctx context.Context, filters listing.PostFilters, page listing.Page) ([]*models.Post, error) {
	defer observability.TrackQuery("post_list")()

	posts := make([]*models.Post, 0, page.Limit)
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select(commentsCountSelect).
		Scopes(filters.Scope()).
		Order(page.OrderBy()).
		Limit(page.Limit).
		Offset(page.Skip).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	return posts, nil
}

func (r *postRepository) Count(ctx context.Context, filters listing.PostFilters) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Scopes(filters.Scope()).Count(&count).Error; err != nil {
		return 0, models.NewStoreError(err)
	}
	return count, nil
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID string) ([]*models.Post, int64, error) {
	posts := make([]*models.Post, 0)
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select(commentsCountSelect).
		Where("posts.author_id = ?", authorID).
		Order("posts.created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, 0, models.NewStoreError(err)
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Where("author_id = ?", authorID).Count(&total).Error; err != nil {
		return nil, 0, models.NewStoreError(err)
	}
	return posts, total, nil
}

// GetDetail increments the view counter and reads the post with its approved
// comments in one transaction. Comments come back flat, oldest first.
func (r *postRepository) GetDetail(ctx context.Context, id string) (*models.Post, []*models.Comment, error) {
	defer observability.TrackQuery("post_detail")()

	var (
		post     *models.Post
		comments []*models.Comment
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).Where("id = ?", id).UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return models.NewStoreError(res.Error)
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}

		var err error
		if post, err = r.getWithCount(tx, id); err != nil {
			return err
		}

		if err := tx.Where("post_id = ? AND status = ?", id, models.CommentStatusApproved).
			Order("created_at ASC").
			Find(&comments).Error; err != nil {
			return models.NewStoreError(err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	observability.PostViews.Inc()
	return post, comments, nil
}

// Update applies patch, keyed by column name, and returns the stored post.
func (r *postRepository) Update(ctx context.Context, id string, patch map[string]any) (*models.Post, error) {
	db := r.db.WithContext(ctx)
	if len(patch) > 0 {
		res := db.Model(&models.Post{ID: id}).Updates(patch)
		if res.Error != nil {
			return nil, models.NewStoreError(res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, models.NewNotFoundError("Post", id)
		}
	}
	return r.getWithCount(db, id)
}

// Delete removes the post; its comments go with it through the foreign key cascade.
func (r *postRepository) Delete(ctx context.Context, id string) error {
	var commentIDs []string
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("post_id = ?", id).Pluck("id", &commentIDs).Error; err != nil {
		return models.NewStoreError(err)
	}

	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Post{})
	if res.Error != nil {
		return models.NewStoreError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}

	for _, cid := range commentIDs {
		cache.InvalidateComment(ctx, cid)
	}
	return nil
}
