package account

// UpdateEmailRequest is the change-of-address form.
type UpdateEmailRequest struct {
	Email string `json:"email" form:"email" validate:"required,email,max=255"`
}

// UpdateCategoriesRequest is the tender interest form.
type UpdateCategoriesRequest struct {
	Categories []int `json:"categories" form:"categories" validate:"min=1,dive,gt=0"`
}
