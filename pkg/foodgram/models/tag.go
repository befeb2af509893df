package models

import (
	"time"

	"gorm.io/gorm"
)

// Tag represents a tag that can be applied to recipes
type Tag struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"not null" json:"name"`
	Slug      string         `gorm:"uniqueIndex;not null" json:"slug"`
	Color     string         `gorm:"type:varchar(7)" json:"color"`

	// Relationships
	Recipes []Recipe `gorm:"many2many:recipe_tags;" json:"recipes,omitempty"`
}
