package models

import "time"

// FavoriteRecipe represents a user's favorite mark on a recipe.
// A (user, recipe) pair exists at most once.
type FavoriteRecipe struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe" json:"user_id"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe" json:"recipe_id"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Recipe Recipe `gorm:"foreignKey:RecipeID" json:"recipe,omitempty"`
}
