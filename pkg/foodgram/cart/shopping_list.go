package cart

import (
	"fmt"
	"strings"
)

// shoppingListItem is one aggregated line of the shopping list
type shoppingListItem struct {
	Name            string
	MeasurementUnit string
	Total           uint
}

// buildShoppingList sums ingredient amounts across all recipes in the
// user's cart, grouping by ingredient, and renders a plain-text list
func (h *Handler) buildShoppingList(userID uint) (string, error) {
	var items []shoppingListItem
	err := h.db.Table("ingredients").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit,"+
			" SUM(recipe_ingredients.amount) AS total").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.ingredient_id = ingredients.id").
		Joins("JOIN recipes ON recipes.id = recipe_ingredients.recipe_id AND recipes.deleted_at IS NULL").
		Joins("JOIN shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_carts.user_id = ?", userID).
		Group("ingredients.id").
		Order("ingredients.name").
		Find(&items).Error
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Shopping list\n\n")
	if len(items) == 0 {
		b.WriteString("Your shopping cart is empty.\n")
		return b.String(), nil
	}
	for _, item := range items {
		fmt.Fprintf(&b, "- %s (%s): %d\n", item.Name, item.MeasurementUnit, item.Total)
	}
	return b.String(), nil
}
