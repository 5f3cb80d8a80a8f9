package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/wheelchair-racer/wr_api/dto"
	"github.com/wheelchair-racer/wr_api/middleware"
	"github.com/wheelchair-racer/wr_api/shared"
)

type ProfileHandler struct {
	authSvc  AuthServiceInterface
	mediaSvc MediaServiceInterface
}

func NewProfileHandler(authSvc AuthServiceInterface, mediaSvc MediaServiceInterface) *ProfileHandler {
	return &ProfileHandler{
		authSvc:  authSvc,
		mediaSvc: mediaSvc,
	}
}

// @Summary Get profile
// @Tags profile
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.ProfileResponse}
// @Router /api/v1/profile [get]
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	profile, err := h.authSvc.GetProfile(middleware.UserID(c))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Profile retrieved successfully", profile)
}

// @Summary Update profile
// @Description Change username or avatar URL
// @Tags profile
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param updateProfileRequest body dto.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} shared.Response{data=dto.ProfileResponse}
// @Failure 409 {object} shared.Response
// @Router /api/v1/profile [put]
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	profile, err := h.authSvc.UpdateProfile(middleware.UserID(c), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Profile updated successfully", profile)
}

// @Summary Upload avatar
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param avatar formData file true "Image, at most 2MB"
// @Success 200 {object} shared.Response{data=dto.MediaUploadResponse}
// @Failure 429 {object} shared.Response
// @Router /api/v1/profile/avatar [post]
func (h *ProfileHandler) UploadAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("avatar")
	if err != nil {
		return shared.NewBadRequestError(err, "No avatar file provided")
	}

	resp, err := h.mediaSvc.UploadAvatar(c.UserContext(), middleware.UserID(c), file)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Avatar uploaded successfully", resp)
}
