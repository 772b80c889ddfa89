package recipe

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/utils"
	"foodgram/internal/utils/storage"
	"foodgram/pkg/user"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	RecipeService interface {
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeDetail, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.RecipeDetail, error)
		DeleteRecipe(ctx context.Context, recipeID string, userID string) error
		GetRecipeDetail(ctx context.Context, recipeID string, userID string) (domain.RecipeDetail, error)
		GetRecipes(ctx context.Context, query domain.RecipeListQuery, userID string) ([]domain.RecipeDetail, int64, error)

		FavoriteRecipe(ctx context.Context, recipeID string, userID string) error
		UnfavoriteRecipe(ctx context.Context, recipeID string, userID string) error
		AddRecipeToCart(ctx context.Context, recipeID string, userID string) error
		RemoveRecipeFromCart(ctx context.Context, recipeID string, userID string) error

		DownloadShoppingCart(ctx context.Context, userID string) (domain.ShoppingCartExport, error)
	}

	recipeService struct {
		recipeRepository RecipeRepository
		userRepository   user.UserRepository
		s3               storage.AwsS3
		settings         utils.AppSettings
	}
)

func NewRecipeService(recipeRepository RecipeRepository, userRepository user.UserRepository, s3 storage.AwsS3, settings utils.AppSettings) RecipeService {
	return &recipeService{
		recipeRepository: recipeRepository,
		userRepository:   userRepository,
		s3:               s3,
		settings:         settings,
	}
}

// validateWritePayload enforces the write-pipeline invariants before any
// row is touched: minimum cooking time, minimum amount per ingredient and
// no duplicate ingredient or tag within one request.
func (s *recipeService) validateWritePayload(cookingTime int, ingredients []domain.RecipeIngredientRequest, tagIDs []string) ([]entities.RecipeIngredient, []uuid.UUID, error) {
	if cookingTime < s.settings.MinCookingTime {
		return nil, nil, domain.ErrCookingTimeTooShort
	}
	if len(ingredients) == 0 {
		return nil, nil, domain.ErrNoIngredients
	}

	seen := make(map[uuid.UUID]bool, len(ingredients))
	items := make([]entities.RecipeIngredient, 0, len(ingredients))
	for _, ing := range ingredients {
		if ing.Amount < s.settings.MinIngredientAmount {
			return nil, nil, domain.ErrIngredientAmountSmall
		}
		ingredientID, err := uuid.Parse(ing.IngredientID)
		if err != nil {
			return nil, nil, domain.ErrParseUUID
		}
		if seen[ingredientID] {
			return nil, nil, domain.ErrDuplicateIngredient
		}
		seen[ingredientID] = true
		items = append(items, entities.RecipeIngredient{
			ID:           uuid.New(),
			IngredientID: ingredientID,
			Amount:       ing.Amount,
		})
	}

	seenTags := make(map[uuid.UUID]bool, len(tagIDs))
	tags := make([]uuid.UUID, 0, len(tagIDs))
	for _, id := range tagIDs {
		tagID, err := uuid.Parse(id)
		if err != nil {
			return nil, nil, domain.ErrParseUUID
		}
		if seenTags[tagID] {
			return nil, nil, domain.ErrDuplicateTag
		}
		seenTags[tagID] = true
		tags = append(tags, tagID)
	}

	return items, tags, nil
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeDetail, error) {
	authorID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeDetail{}, domain.ErrParseUUID
	}

	items, tagIDs, err := s.validateWritePayload(req.CookingTime, req.Ingredients, req.TagIDs)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	imageURL, err := s.uploadImage(ctx, req.Image)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	recipe := entities.Recipe{
		ID:          uuid.New(),
		AuthorID:    authorID,
		Name:        req.Name,
		Text:        req.Text,
		ImageURL:    imageURL,
		CookingTime: req.CookingTime,
	}

	if err := s.recipeRepository.CreateRecipe(ctx, &recipe, items, tagIDs); err != nil {
		return domain.RecipeDetail{}, s.mapWriteError(err)
	}

	return s.GetRecipeDetail(ctx, recipe.ID.String(), userID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.RecipeDetail, error) {
	existing, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeDetail{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeDetail{}, err
	}
	if existing.AuthorID.String() != userID {
		return domain.RecipeDetail{}, domain.ErrNotRecipeAuthor
	}

	items, tagIDs, err := s.validateWritePayload(req.CookingTime, req.Ingredients, req.TagIDs)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	imageURL := existing.ImageURL
	if req.Image != "" {
		imageURL, err = s.uploadImage(ctx, req.Image)
		if err != nil {
			return domain.RecipeDetail{}, err
		}
	}

	updated := entities.Recipe{
		ID:          existing.ID,
		AuthorID:    existing.AuthorID,
		Name:        req.Name,
		Text:        req.Text,
		ImageURL:    imageURL,
		CookingTime: req.CookingTime,
	}

	if err := s.recipeRepository.UpdateRecipe(ctx, &updated, items, tagIDs); err != nil {
		return domain.RecipeDetail{}, s.mapWriteError(err)
	}

	return s.GetRecipeDetail(ctx, recipeID, userID)
}

func (s *recipeService) mapWriteError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrTagNotFound
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domain.ErrIngredientNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrDuplicateIngredient
	default:
		return err
	}
}

func (s *recipeService) uploadImage(ctx context.Context, payload string) (string, error) {
	if payload == "" {
		return "", nil
	}
	data, ext, err := storage.DecodeBase64Image(payload)
	if err != nil {
		return "", domain.ErrInvalidImagePayload
	}
	objectKey, err := s.s3.UploadBytes(ctx, uuid.New().String(), data, ext, "recipes")
	if err != nil {
		return "", err
	}
	return s.s3.GetPublicLinkKey(objectKey), nil
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID string, userID string) error {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}
	if recipe.AuthorID.String() != userID {
		return domain.ErrNotRecipeAuthor
	}
	return s.recipeRepository.DeleteRecipe(ctx, recipe.ID)
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, recipeID string, userID string) (domain.RecipeDetail, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeDetail{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeDetail{}, err
	}
	return s.buildRecipeDetail(ctx, recipe, userID)
}

func (s *recipeService) GetRecipes(ctx context.Context, query domain.RecipeListQuery, userID string) ([]domain.RecipeDetail, int64, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 {
		query.Limit = s.settings.PageSize
	}

	recipes, count, err := s.recipeRepository.GetRecipes(ctx, query, userID)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.RecipeDetail, 0, len(recipes))
	for _, recipe := range recipes {
		detail, err := s.buildRecipeDetail(ctx, recipe, userID)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, detail)
	}
	return result, count, nil
}

// buildRecipeDetail materializes the read DTO. The favorited/cart/subscribed
// flags are always false for anonymous callers.
func (s *recipeService) buildRecipeDetail(ctx context.Context, recipe *entities.Recipe, userID string) (domain.RecipeDetail, error) {
	detail := domain.RecipeDetail{
		ID:          recipe.ID.String(),
		Name:        recipe.Name,
		Text:        recipe.Text,
		ImageURL:    recipe.ImageURL,
		CookingTime: recipe.CookingTime,
		CreatedAt:   recipe.CreatedAt,
	}

	if recipe.Author != nil {
		isSubscribed := false
		if userID != "" && userID != recipe.AuthorID.String() {
			var err error
			isSubscribed, err = s.userRepository.IsSubscribed(ctx, userID, recipe.AuthorID.String())
			if err != nil {
				return domain.RecipeDetail{}, err
			}
		}
		detail.Author = domain.UserProfile{
			ID:           recipe.Author.ID.String(),
			Email:        recipe.Author.Email,
			Username:     recipe.Author.Username,
			FirstName:    recipe.Author.FirstName,
			LastName:     recipe.Author.LastName,
			IsSubscribed: isSubscribed,
			CreatedAt:    recipe.Author.CreatedAt,
		}
	}

	detail.Tags = make([]domain.TagDetail, 0, len(recipe.Tags))
	for _, tag := range recipe.Tags {
		detail.Tags = append(detail.Tags, domain.TagDetail{
			ID:    tag.ID.String(),
			Name:  tag.Name,
			Color: tag.Color,
			Slug:  tag.Slug,
		})
	}

	detail.Ingredients = make([]domain.RecipeIngredientDetail, 0, len(recipe.Ingredients))
	for _, item := range recipe.Ingredients {
		ingredient := domain.RecipeIngredientDetail{
			ID:     item.IngredientID.String(),
			Amount: item.Amount,
		}
		if item.Ingredient != nil {
			ingredient.Name = item.Ingredient.Name
			ingredient.MeasurementUnit = item.Ingredient.MeasurementUnit
		}
		detail.Ingredients = append(detail.Ingredients, ingredient)
	}

	if userID != "" {
		var err error
		detail.IsFavorited, err = s.recipeRepository.IsFavorited(ctx, userID, detail.ID)
		if err != nil {
			return domain.RecipeDetail{}, err
		}
		detail.IsInShoppingCart, err = s.recipeRepository.IsInCart(ctx, userID, detail.ID)
		if err != nil {
			return domain.RecipeDetail{}, err
		}
	}

	return detail, nil
}

func (s *recipeService) FavoriteRecipe(ctx context.Context, recipeID string, userID string) error {
	userUUID, recipeUUID, err := s.toggleIDs(ctx, recipeID, userID)
	if err != nil {
		return err
	}
	if err := s.recipeRepository.AddFavorite(ctx, userUUID, recipeUUID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAlreadyInFavorites
		}
		return err
	}
	return nil
}

func (s *recipeService) UnfavoriteRecipe(ctx context.Context, recipeID string, userID string) error {
	userUUID, recipeUUID, err := s.toggleIDs(ctx, recipeID, userID)
	if err != nil {
		return err
	}
	if err := s.recipeRepository.RemoveFavorite(ctx, userUUID, recipeUUID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotInFavorites
		}
		return err
	}
	return nil
}

func (s *recipeService) AddRecipeToCart(ctx context.Context, recipeID string, userID string) error {
	userUUID, recipeUUID, err := s.toggleIDs(ctx, recipeID, userID)
	if err != nil {
		return err
	}
	if err := s.recipeRepository.AddToCart(ctx, userUUID, recipeUUID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAlreadyInShoppingCart
		}
		return err
	}
	return nil
}

func (s *recipeService) RemoveRecipeFromCart(ctx context.Context, recipeID string, userID string) error {
	userUUID, recipeUUID, err := s.toggleIDs(ctx, recipeID, userID)
	if err != nil {
		return err
	}
	if err := s.recipeRepository.RemoveFromCart(ctx, userUUID, recipeUUID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotInShoppingCart
		}
		return err
	}
	return nil
}

// toggleIDs parses both ids and confirms the recipe exists before a
// membership row is inserted or deleted.
func (s *recipeService) toggleIDs(ctx context.Context, recipeID string, userID string) (uuid.UUID, uuid.UUID, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.ErrParseUUID
	}
	recipeUUID, err := uuid.Parse(recipeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.ErrParseUUID
	}
	if _, err := s.recipeRepository.GetRecipeByID(ctx, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, uuid.Nil, domain.ErrRecipeNotFound
		}
		return uuid.Nil, uuid.Nil, err
	}
	return userUUID, recipeUUID, nil
}

func (s *recipeService) DownloadShoppingCart(ctx context.Context, userID string) (domain.ShoppingCartExport, error) {
	requester, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ShoppingCartExport{}, domain.ErrUserNotFound
		}
		return domain.ShoppingCartExport{}, err
	}

	rows, err := s.recipeRepository.GetCartIngredients(ctx, userID)
	if err != nil {
		return domain.ShoppingCartExport{}, err
	}

	items := AggregateCartIngredients(rows)
	return domain.ShoppingCartExport{
		Filename: fmt.Sprintf("%s_shopping.txt", requester.Username),
		Content:  RenderShoppingList(requester.Username, items),
	}, nil
}

// AggregateCartIngredients groups the raw junction occurrences by
// (name, measurement unit) and sums their amounts. The result is sorted
// by ingredient name ascending, unit breaking ties, so the export is
// deterministic regardless of row order.
func AggregateCartIngredients(rows []domain.CartIngredient) []domain.ShoppingItem {
	type key struct {
		name string
		unit string
	}

	totals := make(map[key]int, len(rows))
	for _, row := range rows {
		totals[key{row.Name, row.MeasurementUnit}] += row.Amount
	}

	items := make([]domain.ShoppingItem, 0, len(totals))
	for k, total := range totals {
		items = append(items, domain.ShoppingItem{
			Name:            k.name,
			MeasurementUnit: k.unit,
			Total:           total,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})
	return items
}

// RenderShoppingList is a pure function of the aggregated items: header
// line naming the user, then one line per ingredient. An empty cart
// renders the header alone.
func RenderShoppingList(username string, items []domain.ShoppingItem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, here is your shopping list:\n", username)

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("- %s (%s) - %d", item.Name, item.MeasurementUnit, item.Total))
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}
