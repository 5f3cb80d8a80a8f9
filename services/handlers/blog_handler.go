package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/wheelchair-racer/wr_api/dto"
	"github.com/wheelchair-racer/wr_api/middleware"
	"github.com/wheelchair-racer/wr_api/shared"
)

type BlogHandler struct {
	blogSvc BlogServiceInterface
}

func NewBlogHandler(blogSvc BlogServiceInterface) *BlogHandler {
	return &BlogHandler{
		blogSvc: blogSvc,
	}
}

// @Summary List blog posts
// @Description Newest first, 10 per page
// @Tags blog
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param category query string false "Category, e.g. Race Reports"
// @Success 200 {object} shared.Response{data=dto.PostListResponse}
// @Router /api/v1/posts [get]
func (h *BlogHandler) ListPosts(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	category := c.Query("category")

	resp, err := h.blogSvc.ListPosts(page, category)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Posts retrieved successfully", resp)
}

// @Summary Get a blog post
// @Description Includes comments and, for signed-in viewers, whether they liked it
// @Tags blog
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} shared.Response{data=dto.PostDetailResponse}
// @Failure 404 {object} shared.Response
// @Router /api/v1/posts/{id} [get]
func (h *BlogHandler) GetPost(c *fiber.Ctx) error {
	resp, err := h.blogSvc.GetPost(c.Params("id"), middleware.UserID(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Post retrieved successfully", resp)
}

// @Summary Create a blog post
// @Tags blog
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param createPostRequest body dto.CreatePostRequest true "Post"
// @Success 201 {object} shared.Response{data=dto.PostResponse}
// @Failure 429 {object} shared.Response
// @Router /api/v1/posts [post]
func (h *BlogHandler) CreatePost(c *fiber.Ctx) error {
	var req dto.CreatePostRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.blogSvc.CreatePost(middleware.UserID(c), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Post created successfully", resp)
}

// @Summary Delete a blog post
// @Description Authors can delete their own posts, admins any post
// @Tags blog
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param id path string true "Post ID"
// @Success 200 {object} shared.Response{data=nil}
// @Failure 403 {object} shared.Response
// @Router /api/v1/posts/{id} [delete]
func (h *BlogHandler) DeletePost(c *fiber.Ctx) error {
	if err := h.blogSvc.DeletePost(middleware.UserID(c), middleware.IsAdmin(c), c.Params("id")); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Post deleted successfully", nil)
}

// @Summary Comment on a blog post
// @Tags blog
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param id path string true "Post ID"
// @Param createCommentRequest body dto.CreateCommentRequest true "Comment"
// @Success 201 {object} shared.Response{data=dto.CommentResponse}
// @Failure 429 {object} shared.Response
// @Router /api/v1/posts/{id}/comments [post]
func (h *BlogHandler) AddComment(c *fiber.Ctx) error {
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.blogSvc.AddComment(middleware.UserID(c), c.Params("id"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Comment added successfully", resp)
}

// @Summary Delete a comment
// @Tags blog
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param id path string true "Comment ID"
// @Success 200 {object} shared.Response{data=nil}
// @Failure 403 {object} shared.Response
// @Router /api/v1/comments/{id} [delete]
func (h *BlogHandler) DeleteComment(c *fiber.Ctx) error {
	if err := h.blogSvc.DeleteComment(middleware.UserID(c), middleware.IsAdmin(c), c.Params("id")); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Comment deleted successfully", nil)
}

// @Summary Like or unlike a post
// @Tags blog
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param id path string true "Post ID"
// @Success 200 {object} shared.Response{data=dto.LikeResponse}
// @Router /api/v1/posts/{id}/like [post]
func (h *BlogHandler) ToggleLike(c *fiber.Ctx) error {
	resp, err := h.blogSvc.ToggleLike(middleware.UserID(c), c.Params("id"))
	if err != nil {
		return err
	}

	return shared.ResponseOK(c, resp)
}
