package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/wheelchair-racer/wr_api/dto"
	"github.com/wheelchair-racer/wr_api/shared"
)

type AdminHandler struct {
	forumSvc ForumServiceInterface
}

func NewAdminHandler(forumSvc ForumServiceInterface) *AdminHandler {
	return &AdminHandler{
		forumSvc: forumSvc,
	}
}

// @Summary Pin or unpin a topic (Admin)
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param id path string true "Topic ID"
// @Param flag body dto.TopicFlagRequest true "Pinned state"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/forum/topics/{id}/pin [put]
func (h *AdminHandler) PinTopic(c *fiber.Ctx) error {
	var req dto.TopicFlagRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := h.forumSvc.SetPinned(c.Params("id"), req.Value); err != nil {
		return err
	}

	message := "Topic unpinned"
	if req.Value {
		message = "Topic pinned"
	}
	return shared.ResponseJSON(c, http.StatusOK, message, nil)
}

// @Summary Lock or unlock a topic (Admin)
// @Description Locked topics reject new replies
// @Tags admin
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param id path string true "Topic ID"
// @Param flag body dto.TopicFlagRequest true "Locked state"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/forum/topics/{id}/lock [put]
func (h *AdminHandler) LockTopic(c *fiber.Ctx) error {
	var req dto.TopicFlagRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := h.forumSvc.SetLocked(c.Params("id"), req.Value); err != nil {
		return err
	}

	message := "Topic unlocked"
	if req.Value {
		message = "Topic locked"
	}
	return shared.ResponseJSON(c, http.StatusOK, message, nil)
}

// @Summary Delete a topic (Admin)
// @Description Removes the topic and all of its replies
// @Tags admin
// @Produce json
// @Security Bearer
// @Param Authorization header string true "Admin Bearer Token" default(Bearer <admin_token>)
// @Param id path string true "Topic ID"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/forum/topics/{id} [delete]
func (h *AdminHandler) DeleteTopic(c *fiber.Ctx) error {
	if err := h.forumSvc.DeleteTopic(c.Params("id")); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Topic deleted successfully", nil)
}
