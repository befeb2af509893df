package models

import (
	"time"

	"gorm.io/gorm"
)

// Recipe represents a published recipe
type Recipe struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	AuthorID    uint           `gorm:"not null;index" json:"author_id"`
	Name        string         `gorm:"not null" json:"name"`
	Text        string         `gorm:"not null" json:"text"`
	CookingTime uint           `gorm:"not null" json:"cooking_time"`

	// Relationships
	Author      User               `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Tags        []Tag              `gorm:"many2many:recipe_tags;" json:"tags,omitempty"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID" json:"ingredients,omitempty"`
}

// RecipeIngredient is one ingredient line of a recipe, carrying the amount
type RecipeIngredient struct {
	ID           uint `gorm:"primarykey" json:"id"`
	RecipeID     uint `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"recipe_id"`
	IngredientID uint `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"ingredient_id"`
	Amount       uint `gorm:"not null" json:"amount"`

	// Relationships
	Recipe     Recipe     `gorm:"foreignKey:RecipeID" json:"recipe,omitempty"`
	Ingredient Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
}
