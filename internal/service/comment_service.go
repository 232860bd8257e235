package service

import (
	"context"
	"strings"

	"quill/internal/access"
	"quill/internal/models"
	"quill/internal/observability"
	"quill/internal/repository"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

type CreateCommentInput struct {
	AuthorID string
	PostID   string
	ParentID *string
	Content  string
}

// UpdateCommentInput carries a partial update; nil fields are left unchanged.
type UpdateCommentInput struct {
	AuthorID  string
	CommentID string
	Content   *string
	Status    *string
}

type DeleteCommentInput struct {
	AuthorID  string
	CommentID string
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
	}
}

// CreateComment stores a comment awaiting moderation. The post must exist and a
// parent, when given, must be a comment on the same post.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(content) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 10000 characters)")
	}

	exists, err := s.postRepo.Exists(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("Post", in.PostID)
	}

	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewValidationError("Parent comment belongs to a different post")
		}
	}

	comment := &models.Comment{
		Content:  content,
		AuthorID: in.AuthorID,
		PostID:   in.PostID,
		ParentID: in.ParentID,
		Status:   models.DefaultCommentStatus,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	observability.CommentsCreated.Inc()
	return comment, nil
}

func (s *CommentService) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	return s.commentRepo.GetByID(ctx, id)
}

func (s *CommentService) ListCommentsByAuthor(ctx context.Context, authorID string) ([]*models.Comment, error) {
	return s.commentRepo.ListByAuthor(ctx, authorID)
}

// UpdateComment edits a comment. Only its author may do so; admins have no override here.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.ownComment(ctx, in.CommentID, in.AuthorID)
	if err != nil {
		return nil, err
	}

	patch := make(map[string]any)
	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if content == "" {
			return nil, models.NewValidationError("Content cannot be empty")
		}
		if len(content) > maxCommentLen {
			return nil, models.NewValidationError("Comment too long (max 10000 characters)")
		}
		patch["content"] = content
	}
	if in.Status != nil {
		status, err := models.ParseCommentStatus(*in.Status)
		if err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		patch["status"] = status
	}

	if len(patch) == 0 {
		return comment, nil
	}
	return s.commentRepo.Update(ctx, comment.ID, patch)
}

// DeleteComment removes a comment and its replies. Only its author may do so.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	comment, err := s.ownComment(ctx, in.CommentID, in.AuthorID)
	if err != nil {
		return nil, err
	}
	if err := s.commentRepo.Delete(ctx, comment.ID); err != nil {
		return nil, err
	}
	return comment, nil
}

// ownComment loads a comment scoped to its author. A comment that does not exist
// and one written by someone else are indistinguishable to the caller.
func (s *CommentService) ownComment(ctx context.Context, commentID, authorID string) (*models.Comment, error) {
	comment, err := s.commentRepo.FindByIDAndAuthor(ctx, commentID, authorID)
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, models.NewValidationError("Your provided input is invalid")
		}
		return nil, err
	}
	if err := access.Authorize("comment", comment.AuthorID, authorID, false); err != nil {
		return nil, err
	}
	return comment, nil
}
