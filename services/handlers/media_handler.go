package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/wheelchair-racer/wr_api/middleware"
	"github.com/wheelchair-racer/wr_api/shared"
)

type MediaHandler struct {
	mediaSvc MediaServiceInterface
}

func NewMediaHandler(mediaSvc MediaServiceInterface) *MediaHandler {
	return &MediaHandler{
		mediaSvc: mediaSvc,
	}
}

// @Summary Upload blog post images
// @Description Up to 10 images of at most 5MB each. Every file counts against the upload limit.
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param images formData file true "Images (JPG, PNG, GIF, WEBP)"
// @Success 201 {object} shared.Response{data=dto.PostImagesResponse}
// @Failure 400 {object} shared.Response
// @Failure 429 {object} shared.Response
// @Router /api/v1/media/post-images [post]
func (h *MediaHandler) UploadPostImages(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return shared.NewBadRequestError(err, "Invalid multipart form")
	}

	files := form.File["images"]
	if len(files) == 0 {
		return shared.NewBadRequestError(nil, "No images provided")
	}

	resp, err := h.mediaSvc.UploadPostImages(c.UserContext(), middleware.UserID(c), files)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusCreated, "Images uploaded successfully", resp)
}
