package models

import "gorm.io/gorm"

// AllModels returns all models for migration
// Note: User must be migrated before the membership tables that reference it
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
		&RecipeIngredient{},
		&FavoriteRecipe{},
		&ShoppingCart{},
		&Subscription{},
	}
}

// AutoMigrate runs GORM auto-migration for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
