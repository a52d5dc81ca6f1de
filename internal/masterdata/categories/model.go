package categories

import (
	"time"

	"github.com/google/uuid"
)

// Category represents a product category. Categories form a forest through ParentID.
type Category struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	SortOrder   int        `json:"sort_order"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Input carries the writable category fields.
type Input struct {
	Name        string     `json:"name" validate:"required,max=120"`
	Description string     `json:"description" validate:"max=1000"`
	ParentID    *uuid.UUID `json:"parent_id"`
	SortOrder   int        `json:"sort_order" validate:"gte=0"`
	IsActive    *bool      `json:"is_active"`
}

// TreeNode is a category placed in the hierarchy for display.
type TreeNode struct {
	Category
	Level    int        `json:"level"`
	Path     string     `json:"path"`
	Children []TreeNode `json:"children"`
}
