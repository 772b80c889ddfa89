package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessGetRecipes          = "success get recipes"
	MessageSuccessGetRecipeDetail     = "success get recipe detail"
	MessageSuccessCreateRecipe        = "recipe created successfully"
	MessageSuccessUpdateRecipe        = "recipe updated successfully"
	MessageSuccessDeleteRecipe        = "recipe deleted successfully"
	MessageSuccessAddFavorite         = "recipe added to favorites"
	MessageSuccessRemoveFavorite      = "recipe removed from favorites"
	MessageSuccessAddToCart           = "recipe added to shopping cart"
	MessageSuccessRemoveFromCart      = "recipe removed from shopping cart"
	MessageSuccessDownloadCart        = "shopping cart downloaded"
	MessageFailedGetRecipes           = "failed to get recipes"
	MessageFailedGetRecipeDetail      = "failed to get recipe detail"
	MessageFailedCreateRecipe         = "failed to create recipe"
	MessageFailedUpdateRecipe         = "failed to update recipe"
	MessageFailedDeleteRecipe         = "failed to delete recipe"
	MessageFailedAddFavorite          = "failed to add recipe to favorites"
	MessageFailedRemoveFavorite       = "failed to remove recipe from favorites"
	MessageFailedAddToCart            = "failed to add recipe to shopping cart"
	MessageFailedRemoveFromCart       = "failed to remove recipe from shopping cart"
	MessageFailedDownloadShoppingCart = "failed to download shopping cart"

	ErrRecipeNotFound         = errors.New("recipe not found")
	ErrNotRecipeAuthor        = errors.New("only the author may modify this recipe")
	ErrCookingTimeTooShort    = errors.New("cooking time must be at least 1 minute")
	ErrIngredientAmountSmall  = errors.New("ingredient amount must be at least 1")
	ErrDuplicateIngredient    = errors.New("duplicate ingredient in recipe")
	ErrDuplicateTag           = errors.New("duplicate tag in recipe")
	ErrNoIngredients          = errors.New("recipe must contain at least one ingredient")
	ErrTagNotFound            = errors.New("tag not found")
	ErrIngredientNotFound     = errors.New("ingredient not found")
	ErrAlreadyInFavorites     = errors.New("recipe is already in favorites")
	ErrNotInFavorites         = errors.New("recipe is not in favorites or already removed")
	ErrAlreadyInShoppingCart  = errors.New("recipe is already in the shopping cart")
	ErrNotInShoppingCart      = errors.New("recipe is not in the shopping cart or already removed")
	ErrInvalidImagePayload    = errors.New("invalid image payload")
	ErrShoppingCartUnexported = errors.New("failed to export shopping cart")
)

type (
	// RecipeIngredientRequest is one (ingredient, amount) entry of a
	// create or update payload.
	RecipeIngredientRequest struct {
		IngredientID string `json:"ingredient_id" validate:"required,uuid"`
		Amount       int    `json:"amount" validate:"required,min=1"`
	}

	// Image accepts either bare base64 or a data:image/<ext>;base64 URI;
	// the storage layer validates and decodes it, so no validate tag here.
	CreateRecipeRequest struct {
		Name        string                    `json:"name" validate:"required,max=200"`
		Text        string                    `json:"text" validate:"required"`
		Image       string                    `json:"image,omitempty"`
		CookingTime int                       `json:"cooking_time" validate:"required,min=1"`
		TagIDs      []string                  `json:"tags" validate:"required,min=1,dive,uuid"`
		Ingredients []RecipeIngredientRequest `json:"ingredients" validate:"required,min=1,dive"`
	}

	UpdateRecipeRequest struct {
		Name        string                    `json:"name" validate:"required,max=200"`
		Text        string                    `json:"text" validate:"required"`
		Image       string                    `json:"image,omitempty"`
		CookingTime int                       `json:"cooking_time" validate:"required,min=1"`
		TagIDs      []string                  `json:"tags" validate:"required,min=1,dive,uuid"`
		Ingredients []RecipeIngredientRequest `json:"ingredients" validate:"required,min=1,dive"`
	}

	RecipeIngredientDetail struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	RecipeDetail struct {
		ID                string                   `json:"id"`
		Author            UserProfile              `json:"author"`
		Name              string                   `json:"name"`
		Text              string                   `json:"text"`
		ImageURL          string                   `json:"image_url,omitempty"`
		CookingTime       int                      `json:"cooking_time"`
		Tags              []TagDetail              `json:"tags"`
		Ingredients       []RecipeIngredientDetail `json:"ingredients"`
		IsFavorited       bool                     `json:"is_favorited"`
		IsInShoppingCart  bool                     `json:"is_in_shopping_cart"`
		CreatedAt         time.Time                `json:"created_at"`
	}

	// RecipePreview is the short form used in subscription listings.
	RecipePreview struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		ImageURL    string `json:"image_url,omitempty"`
		CookingTime int    `json:"cooking_time"`
	}

	// RecipeListQuery mirrors the list endpoint's filters.
	RecipeListQuery struct {
		AuthorID         string
		TagSlugs         []string
		IsFavorited      bool
		IsInShoppingCart bool
		Page             int
		Limit            int
	}

	// CartIngredient is one raw junction occurrence pulled from the
	// user's cart, before aggregation.
	CartIngredient struct {
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	// ShoppingItem is one aggregated line of the exported list.
	ShoppingItem struct {
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Total           int    `json:"total"`
	}

	ShoppingCartExport struct {
		Filename string `json:"filename"`
		Content  string `json:"content"`
	}
)
