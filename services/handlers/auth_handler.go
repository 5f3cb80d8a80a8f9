package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/wheelchair-racer/wr_api/dto"
	"github.com/wheelchair-racer/wr_api/middleware"
	"github.com/wheelchair-racer/wr_api/shared"
)

type AuthHandler struct {
	authSvc AuthServiceInterface
}

func NewAuthHandler(authSvc AuthServiceInterface) *AuthHandler {
	return &AuthHandler{
		authSvc: authSvc,
	}
}

// @Summary Sign up
// @Description Create an account and return an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param signUpRequest body dto.SignUpRequest true "Account details"
// @Success 201 {object} shared.Response{data=dto.AuthResponse}
// @Failure 409 {object} shared.Response
// @Failure 429 {object} shared.Response
// @Router /api/v1/auth/signup [post]
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.authSvc.SignUp(req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Account created successfully", resp)
}

// @Summary Sign in
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param signInRequest body dto.SignInRequest true "Credentials"
// @Success 200 {object} shared.Response{data=dto.AuthResponse}
// @Failure 401 {object} shared.Response
// @Failure 429 {object} shared.Response
// @Router /api/v1/auth/signin [post]
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	resp, err := h.authSvc.SignIn(req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Signed in successfully", resp)
}

// @Summary Sign out
// @Description Revoke the current session
// @Tags auth
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/auth/signout [post]
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	sessionID, _ := c.Locals(shared.SessionID).(string)

	if err := h.authSvc.SignOut(sessionID); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Signed out successfully", nil)
}

// @Summary Request a password reset code
// @Description Emails a 6-digit code when the address has an account
// @Tags auth
// @Accept json
// @Produce json
// @Param forgotPasswordRequest body dto.ForgotPasswordRequest true "Email"
// @Success 200 {object} shared.Response{data=nil}
// @Failure 429 {object} shared.Response
// @Router /api/v1/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	if err := h.authSvc.ForgotPassword(req); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "If an account exists for that email, a reset code has been sent", nil)
}

// @Summary Reset password
// @Description Set a new password using an emailed code
// @Tags auth
// @Accept json
// @Produce json
// @Param resetPasswordRequest body dto.ResetPasswordRequest true "Email, code and new password"
// @Success 200 {object} shared.Response{data=nil}
// @Failure 400 {object} shared.Response
// @Failure 429 {object} shared.Response
// @Router /api/v1/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	if err := h.authSvc.ResetPassword(req); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Password reset successfully", nil)
}

// @Summary Change password
// @Tags auth
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param changePasswordRequest body dto.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} shared.Response{data=nil}
// @Router /api/v1/auth/password [put]
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request body")
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	if err := h.authSvc.ChangePassword(userID, req); err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusOK, "Password changed successfully", nil)
}
