package recipe

import (
	"context"
	"time"

	"foodgram/domain"
	"foodgram/entities"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	RecipeRepository interface {
		CreateRecipe(ctx context.Context, recipe *entities.Recipe, items []entities.RecipeIngredient, tagIDs []uuid.UUID) error
		UpdateRecipe(ctx context.Context, recipe *entities.Recipe, items []entities.RecipeIngredient, tagIDs []uuid.UUID) error
		DeleteRecipe(ctx context.Context, id uuid.UUID) error
		GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error)
		GetRecipes(ctx context.Context, query domain.RecipeListQuery, userID string) ([]*entities.Recipe, int64, error)

		AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) error
		RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error
		IsFavorited(ctx context.Context, userID, recipeID string) (bool, error)

		AddToCart(ctx context.Context, userID, recipeID uuid.UUID) error
		RemoveFromCart(ctx context.Context, userID, recipeID uuid.UUID) error
		IsInCart(ctx context.Context, userID, recipeID string) (bool, error)

		GetCartIngredients(ctx context.Context, userID string) ([]domain.CartIngredient, error)
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// CreateRecipe persists the recipe, its ingredient junction rows and its tag
// set as one transaction. Any constraint violation rolls everything back.
func (r *recipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe, items []entities.RecipeIngredient, tagIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Ingredients", "Author").Create(recipe).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].RecipeID = recipe.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}

		return replaceTags(tx, recipe, tagIDs)
	})
}

// UpdateRecipe replaces the full ingredient and tag sets: delete-all then
// insert, never a diff against the existing rows.
func (r *recipeRepository) UpdateRecipe(ctx context.Context, recipe *entities.Recipe, items []entities.RecipeIngredient, tagIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entities.Recipe{}).
			Where("id = ?", recipe.ID).
			Updates(map[string]interface{}{
				"name":         recipe.Name,
				"text":         recipe.Text,
				"image_url":    recipe.ImageURL,
				"cooking_time": recipe.CookingTime,
				"updated_at":   time.Now(),
			}).Error; err != nil {
			return err
		}

		if err := tx.Where("recipe_id = ?", recipe.ID).
			Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}

		for i := range items {
			items[i].RecipeID = recipe.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}

		return replaceTags(tx, recipe, tagIDs)
	})
}

func replaceTags(tx *gorm.DB, recipe *entities.Recipe, tagIDs []uuid.UUID) error {
	var tags []*entities.Tag
	if err := tx.Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
		return err
	}
	if len(tags) != len(tagIDs) {
		return gorm.ErrRecordNotFound
	}
	return tx.Model(recipe).Association("Tags").Replace(tags)
}

func (r *recipeRepository) DeleteRecipe(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Recipe{}).Error
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients").
		Preload("Ingredients.Ingredient").
		Where("id = ?", id).
		First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) GetRecipes(ctx context.Context, query domain.RecipeListQuery, userID string) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64
	offset := (query.Page - 1) * query.Limit

	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&entities.Recipe{})
		if query.AuthorID != "" {
			q = q.Where("recipes.author_id = ?", query.AuthorID)
		}
		if len(query.TagSlugs) > 0 {
			q = q.
				Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", query.TagSlugs)
		}
		if query.IsFavorited && userID != "" {
			q = q.Joins(
				"JOIN favorite_recipes ON favorite_recipes.recipe_id = recipes.id AND favorite_recipes.user_id = ?",
				userID,
			)
		}
		if query.IsInShoppingCart && userID != "" {
			q = q.Joins(
				"JOIN shopping_carts ON shopping_carts.recipe_id = recipes.id AND shopping_carts.user_id = ?",
				userID,
			)
		}
		return q
	}

	if err := base().Distinct("recipes.id").Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := base().
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients").
		Preload("Ingredients.Ingredient").
		Distinct("recipes.*").
		Offset(offset).
		Limit(query.Limit).
		Order("recipes.created_at desc").
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

// AddFavorite inserts the membership row directly and lets the composite
// unique index decide whether the pair already exists.
func (r *recipeRepository) AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	favorite := entities.FavoriteRecipe{
		ID:        uuid.New(),
		UserID:    userID,
		RecipeID:  recipeID,
		CreatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Create(&favorite).Error
}

func (r *recipeRepository) RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.FavoriteRecipe{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *recipeRepository) IsFavorited(ctx context.Context, userID, recipeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.FavoriteRecipe{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) AddToCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	item := entities.ShoppingCart{
		ID:        uuid.New(),
		UserID:    userID,
		RecipeID:  recipeID,
		CreatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Create(&item).Error
}

func (r *recipeRepository) RemoveFromCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.ShoppingCart{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *recipeRepository) IsInCart(ctx context.Context, userID, recipeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.ShoppingCart{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetCartIngredients returns one row per junction occurrence across every
// recipe in the user's cart; the service aggregates them.
func (r *recipeRepository) GetCartIngredients(ctx context.Context, userID string) ([]domain.CartIngredient, error) {
	var items []domain.CartIngredient

	query := `
		SELECT ingredients.name             AS name,
		       ingredients.measurement_unit AS measurement_unit,
		       recipe_ingredients.amount    AS amount
		FROM recipe_ingredients
		JOIN ingredients    ON ingredients.id = recipe_ingredients.ingredient_id
		JOIN shopping_carts ON shopping_carts.recipe_id = recipe_ingredients.recipe_id
		WHERE shopping_carts.user_id = ?
	`

	if err := r.db.WithContext(ctx).Raw(query, userID).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
