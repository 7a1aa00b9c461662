package posts

type createRequest struct {
	Title      string   `json:"title" validate:"required,max=255"`
	Content    string   `json:"content" validate:"required"`
	Status     string   `json:"status" validate:"omitempty,oneof=draft published"`
	CategoryID *string  `json:"category_id" validate:"omitempty,uuid4"`
	TagIDs     []string `json:"tag_ids" validate:"omitempty,dive,uuid4"`
}

type updateRequest struct {
	Title      string   `json:"title" validate:"required,max=255"`
	Content    string   `json:"content" validate:"required"`
	Status     string   `json:"status" validate:"required,oneof=draft published"`
	CategoryID *string  `json:"category_id" validate:"omitempty,uuid4"`
	TagIDs     []string `json:"tag_ids" validate:"omitempty,dive,uuid4"`
}

type commentRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}
