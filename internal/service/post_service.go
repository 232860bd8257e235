// Package service holds the application's use cases on top of the repositories.
package service

import (
	"context"
	"strings"

	"quill/internal/access"
	"quill/internal/listing"
	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/repository"
	"quill/internal/validation"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
)

const (
	maxTitleLen   = 300
	maxContentLen = 50000
	maxTags       = 20
)

type PostService struct {
	postRepo repository.PostRepository
	userRepo repository.UserRepository
}

type CreatePostInput struct {
	Caller     models.Identity
	Title      string
	Content    string
	Thumbnail  *string
	Tags       []string
	IsFeatured *bool
	Status     string
}

// UpdatePostInput carries a partial update; nil fields are left unchanged.
type UpdatePostInput struct {
	Caller     models.Identity
	PostID     string
	Title      *string
	Content    *string
	Thumbnail  *string
	Tags       []string
	IsFeatured *bool
	Status     *string
}

type DeletePostInput struct {
	Caller models.Identity
	PostID string
}

// PostPage is one page of a post listing.
type PostPage struct {
	Data       []*models.Post    `json:"data"`
	Pagination models.Pagination `json:"pagination"`
}

// MyPosts is the caller's own posts with their total.
type MyPosts struct {
	Data      []*models.Post `json:"data"`
	TotalPost int64          `json:"totalPost"`
}

func NewPostService(postRepo repository.PostRepository, userRepo repository.UserRepository) *PostService {
	return &PostService{
		postRepo: postRepo,
		userRepo: userRepo,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 300 characters)")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}

	if in.Thumbnail != nil {
		if err := validation.ValidateThumbnailURL(*in.Thumbnail); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}
	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	status := models.PostStatusPublished
	if in.Status != "" {
		if status, err = models.ParsePostStatus(in.Status); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}

	post := &models.Post{
		Title:     title,
		Content:   in.Content,
		Thumbnail: in.Thumbnail,
		Tags:      tags,
		Status:    status,
		AuthorID:  in.Caller.ID,
	}
	if in.IsFeatured != nil && in.Caller.IsAdmin() {
		post.IsFeatured = *in.IsFeatured
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context, filters listing.PostFilters, page listing.Page) (*PostPage, error) {
	ctx, finish := observability.StartSpan(ctx, "PostService.ListPosts",
		attribute.Int("page", page.Page), attribute.Int("limit", page.Limit))
	var err error
	defer func() { finish(err) }()

	posts, err := s.postRepo.List(ctx, filters, page)
	if err != nil {
		return nil, err
	}
	count, err := s.postRepo.Count(ctx, filters)
	if err != nil {
		return nil, err
	}

	return &PostPage{
		Data: posts,
		Pagination: models.Pagination{
			Count:      count,
			Page:       page.Page,
			Limit:      page.Limit,
			TotalPages: listing.TotalPages(count, page.Limit),
		},
	}, nil
}

// GetPostDetail counts a view and returns the post with its approved comment tree.
func (s *PostService) GetPostDetail(ctx context.Context, id string) (*models.Post, error) {
	ctx, finish := observability.StartSpan(ctx, "PostService.GetPostDetail", attribute.String("post.id", id))
	var err error
	defer func() { finish(err) }()

	post, comments, err := s.postRepo.GetDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	post.Comments = buildCommentTree(comments)
	return post, nil
}

// ListMyPosts returns the caller's posts newest first. Only ACTIVE accounts may list.
func (s *PostService) ListMyPosts(ctx context.Context, caller models.Identity) (*MyPosts, error) {
	user, err := s.userRepo.GetByID(ctx, caller.ID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewInvalidUserError()
		}
		return nil, err
	}
	if user.Status != models.UserStatusActive {
		return nil, models.NewInvalidUserError()
	}

	posts, total, err := s.postRepo.ListByAuthor(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	return &MyPosts{Data: posts, TotalPost: total}, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if err := access.Authorize("post", post.AuthorID, in.Caller.ID, in.Caller.IsAdmin()); err != nil {
		return nil, err
	}

	patch := make(map[string]any)
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, models.NewValidationError("Title cannot be empty")
		}
		if len(title) > maxTitleLen {
			return nil, models.NewValidationError("Title too long (max 300 characters)")
		}
		patch["title"] = title
	}
	if in.Content != nil {
		if strings.TrimSpace(*in.Content) == "" {
			return nil, models.NewValidationError("Content cannot be empty")
		}
		if len(*in.Content) > maxContentLen {
			return nil, models.NewValidationError("Content too long (max 50000 characters)")
		}
		patch["content"] = *in.Content
	}
	if in.Thumbnail != nil {
		if err := validation.ValidateThumbnailURL(*in.Thumbnail); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		patch["thumbnail"] = *in.Thumbnail
	}
	if in.Tags != nil {
		tags, err := normalizeTags(in.Tags)
		if err != nil {
			return nil, err
		}
		patch["tags"] = tags
	}
	if in.Status != nil {
		status, err := models.ParsePostStatus(*in.Status)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		patch["status"] = status
	}
	// isFeatured from a non-admin is dropped without error.
	if in.IsFeatured != nil && in.Caller.IsAdmin() {
		patch["is_featured"] = *in.IsFeatured
	}

	if len(patch) == 0 {
		return post, nil
	}
	return s.postRepo.Update(ctx, post.ID, patch)
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return err
	}
	if err := access.Authorize("post", post.AuthorID, in.Caller.ID, in.Caller.IsAdmin()); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, post.ID)
}

func normalizeTags(in []string) (pq.StringArray, error) {
	tags := make(pq.StringArray, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		if err := validation.ValidateTag(t); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	if len(tags) > maxTags {
		return nil, models.NewValidationError("Too many tags (max 20)")
	}
	return tags, nil
}
