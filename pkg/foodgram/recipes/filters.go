package recipes

import (
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func truthy(value string) bool {
	return value == "1" || strings.EqualFold(value, "true")
}

// tagSlugs collects the `tags` query parameter, accepting both repeated
// params (?tags=a&tags=b) and comma-separated values (?tags=a,b)
func tagSlugs(c *gin.Context) []string {
	var slugs []string
	for _, raw := range c.QueryArray("tags") {
		for _, slug := range strings.Split(raw, ",") {
			slug = strings.TrimSpace(slug)
			if slug != "" {
				slugs = append(slugs, slug)
			}
		}
	}
	return slugs
}

// applyFilters narrows a recipe query by the request's query parameters:
// tags (OR'd slug membership), author (exact id), is_favorited and
// is_in_shopping_cart. The membership filters only take effect for
// authenticated callers; anonymous callers get the unfiltered set.
func applyFilters(query *gorm.DB, c *gin.Context, userID uint) *gorm.DB {
	if slugs := tagSlugs(c); len(slugs) > 0 {
		query = query.Where(
			"recipes.id IN (SELECT recipe_tags.recipe_id FROM recipe_tags"+
				" JOIN tags ON tags.id = recipe_tags.tag_id WHERE tags.slug IN ?)",
			slugs,
		)
	}

	if author := c.Query("author"); author != "" {
		query = query.Where("recipes.author_id = ?", author)
	}

	if truthy(c.Query("is_favorited")) && userID != 0 {
		query = query.Where(
			"recipes.id IN (SELECT recipe_id FROM favorite_recipes WHERE user_id = ?)",
			userID,
		)
	}

	if truthy(c.Query("is_in_shopping_cart")) && userID != 0 {
		query = query.Where(
			"recipes.id IN (SELECT recipe_id FROM shopping_carts WHERE user_id = ?)",
			userID,
		)
	}

	return query
}
