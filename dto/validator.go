package dto

import (
	"regexp"
	"slices"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/wheelchair-racer/wr_api/shared"
)

var validate *validator.Validate

var usernameChars = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func init() {
	validate = validator.New()
	validate.RegisterValidation("strong_password", validateStrongPassword)
	validate.RegisterValidation("username_chars", validateUsernameChars)
	validate.RegisterValidation("blog_category", validateBlogCategory)
	validate.RegisterValidation("contact_category", validateContactCategory)
}

func GetValidator() *validator.Validate {
	return validate
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	if len(password) < 8 {
		return false
	}

	var (
		hasUpper  = false
		hasLower  = false
		hasNumber = false
	)

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		}
	}

	return hasUpper && hasLower && hasNumber
}

func validateUsernameChars(fl validator.FieldLevel) bool {
	return usernameChars.MatchString(fl.Field().String())
}

func validateBlogCategory(fl validator.FieldLevel) bool {
	return slices.Contains(shared.BlogCategories, fl.Field().String())
}

var ContactCategories = []string{"general", "support", "partnership", "feedback", "press"}

func validateContactCategory(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "" || slices.Contains(ContactCategories, value)
}

func FormatValidationErrors(err error) []ValidationError {
	var errors []ValidationError

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			var message string

			switch fieldError.Tag() {
			case "required":
				message = fieldError.Field() + " is required"
			case "email":
				message = "Invalid email format"
			case "min":
				message = fieldError.Field() + " must be at least " + fieldError.Param() + " characters"
			case "max":
				message = fieldError.Field() + " must be at most " + fieldError.Param() + " characters"
			case "len":
				message = fieldError.Field() + " must be exactly " + fieldError.Param() + " characters"
			case "numeric":
				message = fieldError.Field() + " must contain only numbers"
			case "strong_password":
				message = "Password must contain at least 8 characters with uppercase, lowercase and a number"
			case "username_chars":
				message = "Username may only contain letters, numbers, underscores and hyphens"
			case "blog_category":
				message = fieldError.Field() + " must be one of: Training, Equipment, Nutrition, Race Reports, Beginner Tips, Inspiration"
			case "contact_category":
				message = fieldError.Field() + " must be one of: general, support, partnership, feedback, press"
			case "url":
				message = fieldError.Field() + " must be a valid URL"
			case "dive":
				message = fieldError.Field() + " contains invalid items"
			default:
				message = fieldError.Field() + " is invalid"
			}

			errors = append(errors, ValidationError{
				Field:   fieldError.Field(),
				Message: message,
			})
		}
	}

	return errors
}

type Validator interface {
	Validate() error
}

type ValidationError struct {
	Field   string `json:"field" example:"email"`
	Message string `json:"message" example:"Invalid email format"`
}

type ValidationErrorResponse struct {
	Code    int               `json:"code" example:"400"`
	Message string            `json:"message" example:"Validation failed"`
	Errors  []ValidationError `json:"errors"`
}

func CreateValidationErrorResponse(err error) ValidationErrorResponse {
	return ValidationErrorResponse{
		Code:    400,
		Message: "Validation failed",
		Errors:  FormatValidationErrors(err),
	}
}
