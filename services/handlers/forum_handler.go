package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/wheelchair-racer/wr_api/dto"
	"github.com/wheelchair-racer/wr_api/middleware"
	"github.com/wheelchair-racer/wr_api/shared"
)

type ForumHandler struct {
	forumSvc ForumServiceInterface
}

func NewForumHandler(forumSvc ForumServiceInterface) *ForumHandler {
	return &ForumHandler{
		forumSvc: forumSvc,
	}
}

// @Summary List forum categories
// @Tags forum
// @Produce json
// @Success 200 {object} shared.Response{data=[]dto.CategoryResponse}
// @Router /api/v1/forum/categories [get]
func (h *ForumHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.forumSvc.ListCategories()
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Categories retrieved successfully", categories)
}

// @Summary List topics in a category
// @Description Pinned topics first, then most recently active, 20 per page
// @Tags forum
// @Produce json
// @Param id path string true "Category ID"
// @Param page query int false "Page number" default(1)
// @Success 200 {object} shared.Response{data=dto.TopicListResponse}
// @Router /api/v1/forum/categories/{id}/topics [get]
func (h *ForumHandler) ListTopics(c *fiber.Ctx) error {
	resp, err := h.forumSvc.ListTopics(c.Params("id"), c.QueryInt("page", 1))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Topics retrieved successfully", resp)
}

// @Summary Get a topic
// @Description Counts a view and returns 50 replies per page, oldest first
// @Tags forum
// @Produce json
// @Param id path string true "Topic ID"
// @Param page query int false "Reply page" default(1)
// @Success 200 {object} shared.Response{data=dto.TopicDetailResponse}
// @Router /api/v1/forum/topics/{id} [get]
func (h *ForumHandler) GetTopic(c *fiber.Ctx) error {
	resp, err := h.forumSvc.GetTopic(c.Params("id"), c.QueryInt("page", 1))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Topic retrieved successfully", resp)
}

// @Summary Start a topic
// @Tags forum
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param createTopicRequest body dto.CreateTopicRequest true "Topic"
// @Success 201 {object} shared.Response{data=dto.TopicResponse}
// @Failure 429 {object} shared.Response
// @Router /api/v1/forum/topics [post]
func (h *ForumHandler) CreateTopic(c *fiber.Ctx) error {
	var req dto.CreateTopicRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.forumSvc.CreateTopic(middleware.UserID(c), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Topic created successfully", resp)
}

// @Summary Reply to a topic
// @Tags forum
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param id path string true "Topic ID"
// @Param replyRequest body dto.ReplyRequest true "Reply"
// @Success 201 {object} shared.Response{data=dto.ReplyResponse}
// @Failure 403 {object} shared.Response "Topic is locked"
// @Failure 429 {object} shared.Response
// @Router /api/v1/forum/topics/{id}/replies [post]
func (h *ForumHandler) CreateReply(c *fiber.Ctx) error {
	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.forumSvc.CreateReply(middleware.UserID(c), c.Params("id"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Reply posted successfully", resp)
}

// @Summary Edit a reply
// @Tags forum
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param id path string true "Reply ID"
// @Param replyRequest body dto.ReplyRequest true "Reply"
// @Success 200 {object} shared.Response{data=dto.ReplyResponse}
// @Router /api/v1/forum/replies/{id} [put]
func (h *ForumHandler) UpdateReply(c *fiber.Ctx) error {
	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.forumSvc.UpdateReply(middleware.UserID(c), middleware.IsAdmin(c), c.Params("id"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Reply updated successfully", resp)
}

// @Summary Delete a reply
// @Tags forum
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param id path string true "Reply ID"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/forum/replies/{id} [delete]
func (h *ForumHandler) DeleteReply(c *fiber.Ctx) error {
	if err := h.forumSvc.DeleteReply(middleware.UserID(c), middleware.IsAdmin(c), c.Params("id")); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Reply deleted successfully", nil)
}
