package models

// BadgeData is a badge as rendered by the API.
type BadgeData struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	ImageFilename string `json:"image_filename,omitempty"`
	IsActive      bool   `json:"is_active"`
}

// BadgeCreate is the body of POST badges/.
type BadgeCreate struct {
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description"`
	ImageFilename string `json:"image_filename"`
}

// BadgeUpdate is the body of PUT badges/{id}. Nil fields are left as they are.
type BadgeUpdate struct {
	Name          *string `json:"name,omitempty"`
	Description   *string `json:"description,omitempty"`
	ImageFilename *string `json:"image_filename,omitempty"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

// BadgeResult answers the badge actions that do not return the badge itself.
type BadgeResult struct {
	Message  string `json:"message"`
	BadgeID  uint   `json:"badge_id,omitempty"`
	UserID   uint   `json:"user_id,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// Data renders a stored badge.
func (b Badge) Data() BadgeData {
	return BadgeData{
		ID:            b.ID,
		Name:          b.Name,
		Description:   b.Description,
		ImageFilename: b.ImageFilename,
		IsActive:      b.IsActive,
	}
}
