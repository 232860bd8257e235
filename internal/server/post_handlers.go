package server

import (
	"quill/internal/listing"
	"quill/internal/models"
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Thumbnail  *string  `json:"thumbnail"`
	Tags       []string `json:"tags"`
	IsFeatured *bool    `json:"isFeatured"`
	Status     string   `json:"status"`
}

type updatePostRequest struct {
	Title      *string  `json:"title"`
	Content    *string  `json:"content"`
	Thumbnail  *string  `json:"thumbnail"`
	Tags       []string `json:"tags"`
	IsFeatured *bool    `json:"isFeatured"`
	Status     *string  `json:"status"`
}

// CreatePost handles POST /posts
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createPostRequest true "Post"
// @Success 201 {object} models.Envelope
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	me, err := caller(c)
	if err != nil {
		return nil
	}

	var req createPostRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		Caller:     me,
		Title:      req.Title,
		Content:    req.Content,
		Thumbnail:  req.Thumbnail,
		Tags:       req.Tags,
		IsFeatured: req.IsFeatured,
		Status:     req.Status,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusCreated, "post create successfully!", post)
}

// ListPosts handles GET /posts
// @Summary List posts
// @Description Filter by search, tags (comma separated), isFeatured, status and authorId; page with page, limit, sortBy and sortOrder.
// @Tags posts
// @Produce json
// @Param search query string false "Matches title or content, or equals a tag"
// @Param tags query string false "Comma separated tags, all required"
// @Param isFeatured query string false "true or false"
// @Param status query string false "DRAFT, PUBLISHED or ARCHIVED"
// @Param authorId query string false "Author UUID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Param sortBy query string false "createdAt, updatedAt, title or views"
// @Param sortOrder query string false "asc or desc"
// @Success 200 {object} models.Envelope
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) ListPosts(c *fiber.Ctx) error {
	filters, err := listing.ParsePostFilters(listing.RawPostFilters{
		Search:     c.Query("search"),
		Tags:       c.Query("tags"),
		IsFeatured: c.Query("isFeatured"),
		Status:     c.Query("status"),
		AuthorID:   c.Query("authorId"),
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	page := listing.ResolvePage(listing.RawPage{
		Page:      c.Query("page"),
		Limit:     c.Query("limit"),
		SortBy:    c.Query("sortBy"),
		SortOrder: c.Query("sortOrder"),
	})

	result, err := s.postService.ListPosts(c.UserContext(), filters, page)
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return c.JSON(models.Envelope{
		Success:    true,
		Message:    "Post retrieved Successfully",
		Data:       result.Data,
		Pagination: &result.Pagination,
	})
}

// GetPost handles GET /posts/:id
// @Summary Get a post
// @Description Counts a view and returns the post with its approved comments nested two replies deep.
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.Envelope
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPostDetail(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "Post retrieved Successfully", post)
}

// ListMyPosts handles GET /posts/my-posts
// @Summary List the caller's posts
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope
// @Failure 400 {object} models.ErrorResponse
// @Router /posts/my-posts [get]
func (s *Server) ListMyPosts(c *fiber.Ctx) error {
	me, err := caller(c)
	if err != nil {
		return nil
	}

	result, err := s.postService.ListMyPosts(c.UserContext(), me)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "my posts retrieved", result)
}

// UpdatePost handles PATCH /posts/:id
// @Summary Update a post
// @Description Authors may edit their own posts; admins may edit any post and set isFeatured.
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param request body updatePostRequest true "Fields to change"
// @Success 200 {object} models.Envelope
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	me, err := caller(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req updatePostRequest
	if err := bindJSON(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		Caller:     me,
		PostID:     id,
		Title:      req.Title,
		Content:    req.Content,
		Thumbnail:  req.Thumbnail,
		Tags:       req.Tags,
		IsFeatured: req.IsFeatured,
		Status:     req.Status,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "post update successfully!", post)
}

// DeletePost handles DELETE /posts/:id
// @Summary Delete a post
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} models.Envelope
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	me, err := caller(c)
	if err != nil {
		return nil
	}
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{Caller: me, PostID: id}); err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "post delete successfully!", nil)
}

// GetStats handles GET /posts/stats
// @Summary Blog statistics
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Envelope
// @Router /posts/stats [get]
func (s *Server) GetStats(c *fiber.Ctx) error {
	stats, err := s.statsService.GetStats(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return respond(c, fiber.StatusOK, "stats fetch successfully!", stats)
}
