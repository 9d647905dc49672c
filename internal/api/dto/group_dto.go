package dto

// CreateGroupRequest payload for POST /groups.
type CreateGroupRequest struct {
	Name        string  `json:"name" validate:"required,notblank,max=60"`
	Description string  `json:"description" validate:"max=255"`
	Parent      *string `json:"parent"`
}

// UpdateGroupRequest payload for PUT /groups/:groupId. Absent fields are
// left untouched; an empty parent detaches the group.
type UpdateGroupRequest struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=60"`
	Description *string `json:"description" validate:"omitempty,max=255"`
	Parent      *string `json:"parent"`
	Active      *bool   `json:"active"`
}
