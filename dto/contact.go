package dto

type ContactRequest struct {
	Name     string `json:"name" validate:"required,max=100" example:"Sam Racer"`
	Email    string `json:"email" validate:"required,email" example:"sam@example.com"`
	Subject  string `json:"subject" validate:"required,max=200" example:"Club sessions"`
	Message  string `json:"message" validate:"required,max=5000"`
	Category string `json:"category" validate:"contact_category" example:"general"`
}

func (r ContactRequest) Validate() error {
	return GetValidator().Struct(r)
}

type ContactResponse struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
}
