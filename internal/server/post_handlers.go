package server

import (
	"inkwell/internal/models"
	"inkwell/internal/service"
	"inkwell/internal/topics"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	Title      string            `json:"title"`
	Content    string            `json:"content"`
	Topic      string            `json:"topic"`
	Visibility models.Visibility `json:"visibility"`
}

type updatePostRequest struct {
	Title      *string            `json:"title"`
	Content    *string            `json:"content"`
	Topic      *string            `json:"topic"`
	Visibility *models.Visibility `json:"visibility"`
}

// GetTopics handles GET /api/topics
// @Summary List topics
// @Tags posts
// @Produce json
// @Success 200 {array} topics.Topic
// @Router /topics [get]
func (s *Server) GetTopics(c *fiber.Ctx) error {
	return c.JSON(topics.All())
}

// GetPosts handles GET /api/posts?topic=&limit=&offset=
// @Summary List posts
// @Description Newest first. Guests only see public posts.
// @Tags posts
// @Produce json
// @Param topic query string false "Topic id"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Post
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	posts, err := s.postService.ListPosts(c.UserContext(), viewer(c), c.Query("topic"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:slug
// @Summary Get a post by slug
// @Tags posts
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{slug} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	post, err := s.postService.GetPostBySlug(c.UserContext(), viewer(c), c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// GetPostByID handles GET /api/posts/id/:id, used by the edit form.
func (s *Server) GetPostByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPostByID(c.UserContext(), viewer(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
// @Summary Publish a post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body createPostRequest true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:     viewer(c),
		Title:      req.Title,
		Content:    req.Content,
		Topic:      req.Topic,
		Visibility: req.Visibility,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id. Absent fields are left unchanged.
// @Summary Edit a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body updatePostRequest true "Changes"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return nil
	}
	var req updatePostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:     viewer(c),
		PostID:     id,
		Title:      req.Title,
		Content:    req.Content,
		Topic:      req.Topic,
		Visibility: req.Visibility,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete a post
// @Tags posts
// @Param id path int true "Post ID"
// @Success 200 {object} object{success=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{UserID: viewer(c), PostID: id}); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
