package dto

import "time"

// ==================== AUTHENTICATION REQUEST DTOs ====================

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=255" example:"racer@example.com"`
	Username string `json:"username" validate:"required,min=3,max=50,username_chars" example:"fast_wheels"`
	Password string `json:"password" validate:"required,strong_password" example:"SecurePass123"`
}

func (r SignUpRequest) Validate() error {
	return GetValidator().Struct(r)
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email" example:"racer@example.com"`
	Password string `json:"password" validate:"required" example:"SecurePass123"`
}

func (r SignInRequest) Validate() error {
	return GetValidator().Struct(r)
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email" example:"racer@example.com"`
}

func (r ForgotPasswordRequest) Validate() error {
	return GetValidator().Struct(r)
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email" example:"racer@example.com"`
	Code        string `json:"code" validate:"required,len=6,numeric" example:"123456"`
	NewPassword string `json:"new_password" validate:"required,strong_password" example:"NewPass123"`
}

func (r ResetPasswordRequest) Validate() error {
	return GetValidator().Struct(r)
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required" example:"OldPass123"`
	NewPassword     string `json:"new_password" validate:"required,strong_password" example:"NewPass123"`
}

func (r ChangePasswordRequest) Validate() error {
	return GetValidator().Struct(r)
}

type UpdateProfileRequest struct {
	Username  *string `json:"username,omitempty" validate:"omitempty,min=3,max=50,username_chars" example:"fast_wheels"`
	AvatarURL *string `json:"avatar_url,omitempty" validate:"omitempty,max=2048" example:"https://cdn.example.com/avatars/u1.png"`
}

func (r UpdateProfileRequest) Validate() error {
	return GetValidator().Struct(r)
}

// ==================== AUTHENTICATION RESPONSE DTOs ====================

type TokenPair struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type ProfileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}

type AuthResponse struct {
	User  ProfileResponse `json:"user"`
	Token TokenPair       `json:"token"`
}
