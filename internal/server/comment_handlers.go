package server

import (
	"quill/internal/models"
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type createCommentRequest struct {
	PostID   string  `json:"postId"`
	ParentID *string `json:"parentId"`
	Content  string  `json:"content"`
}

type updateCommentRequest struct {
	Content *string `json:"content"`
	Status  *string `json:"status"`
}

// CreateComment handles POST /comments
// @Summary Comment on a post
// @Description New comments wait in PENDING until moderated.
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createCommentRequest true "Comment"
// @Success 201 {object} models.Envelope
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	me, err := caller(c)
	if err != nil {
		return nil
	}

	var req createCommentRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}
	postID, err := uuid.Parse(req.PostID)
	if err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid post ID"))
	}
	var parentID *string
	if req.ParentID != nil {
		pid, err := uuid.Parse(*req.ParentID)
		if err != nil {
			return models.RespondWithError(c, models.NewValidationError("Invalid parent ID"))
		}
		canonical := pid.String()
		parentID = &canonical
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		AuthorID: me.ID,
		PostID:   postID.String(),
		ParentID: parentID,
		Content:  req.Content,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusCreated, "comment create successful!", comment)
}

// GetComment handles GET /comments/:id
// @Summary Get a comment
// @Tags comments
// @Produce json
// @Param id path string true "Comment ID"
// @Success 200 {object} models.Envelope
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [get]
func (s *Server) GetComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	comment, err := s.commentService.GetComment(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "comment retrieved successfully", comment)
}

// ListCommentsByAuthor handles GET /comments/author/:authorId
// @Summary List comments by author
// @Tags comments
// @Produce json
// @Param authorId path string true "Author ID"
// @Success 200 {object} models.Envelope
// @Router /comments/author/{authorId} [get]
func (s *Server) ListCommentsByAuthor(c *fiber.Ctx) error {
	authorID, err := parseID(c, "authorId")
	if err != nil {
		return nil
	}

	comments, err := s.commentService.ListCommentsByAuthor(c.UserContext(), authorID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "comments retrieved successfully", comments)
}

// UpdateComment handles PATCH /comments/:id
// @Summary Update a comment
// @Description Only the author may edit a comment.
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Comment ID"
// @Param request body updateCommentRequest true "Fields to change"
// @Success 200 {object} models.Envelope
// @Failure 400 {object} models.ErrorResponse
// @Router /comments/{id} [patch]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	me, err := caller(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req updateCommentRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		AuthorID:  me.ID,
		CommentID: id,
		Content:   req.Content,
		Status:    req.Status,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "comment update successfully!", comment)
}

// DeleteComment handles DELETE /comments/:id
// @Summary Delete a comment
// @Description Only the author may delete a comment.
// @Tags comments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Comment ID"
// @Success 200 {object} models.Envelope
// @Failure 400 {object} models.ErrorResponse
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	me, err := caller(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	comment, err := s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		AuthorID:  me.ID,
		CommentID: id,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "comment delete successfully!", comment)
}
