package catalog

import (
	"context"
	"errors"

	"foodgram/domain"
	"foodgram/entities"
	"gorm.io/gorm"
)

type (
	CatalogService interface {
		GetTags(ctx context.Context) ([]domain.TagDetail, error)
		GetTagByID(ctx context.Context, id string) (domain.TagDetail, error)
		GetIngredients(ctx context.Context, search string, page, limit int) ([]domain.IngredientDetail, int64, error)
		GetIngredientByID(ctx context.Context, id string) (domain.IngredientDetail, error)
	}

	catalogService struct {
		catalogRepository CatalogRepository
	}
)

func NewCatalogService(catalogRepository CatalogRepository) CatalogService {
	return &catalogService{catalogRepository: catalogRepository}
}

func (s *catalogService) GetTags(ctx context.Context) ([]domain.TagDetail, error) {
	tags, err := s.catalogRepository.GetTags(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]domain.TagDetail, 0, len(tags))
	for _, tag := range tags {
		result = append(result, tagDetailOf(tag))
	}
	return result, nil
}

func (s *catalogService) GetTagByID(ctx context.Context, id string) (domain.TagDetail, error) {
	tag, err := s.catalogRepository.GetTagByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TagDetail{}, domain.ErrTagNotFound
		}
		return domain.TagDetail{}, err
	}
	return tagDetailOf(tag), nil
}

func (s *catalogService) GetIngredients(ctx context.Context, search string, page, limit int) ([]domain.IngredientDetail, int64, error) {
	ingredients, count, err := s.catalogRepository.GetIngredients(ctx, search, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.IngredientDetail, 0, len(ingredients))
	for _, ingredient := range ingredients {
		result = append(result, ingredientDetailOf(ingredient))
	}
	return result, count, nil
}

func (s *catalogService) GetIngredientByID(ctx context.Context, id string) (domain.IngredientDetail, error) {
	ingredient, err := s.catalogRepository.GetIngredientByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.IngredientDetail{}, domain.ErrIngredientNotFound
		}
		return domain.IngredientDetail{}, err
	}
	return ingredientDetailOf(ingredient), nil
}

func tagDetailOf(tag *entities.Tag) domain.TagDetail {
	return domain.TagDetail{
		ID:    tag.ID.String(),
		Name:  tag.Name,
		Color: tag.Color,
		Slug:  tag.Slug,
	}
}

func ingredientDetailOf(ingredient *entities.Ingredient) domain.IngredientDetail {
	return domain.IngredientDetail{
		ID:              ingredient.ID.String(),
		Name:            ingredient.Name,
		MeasurementUnit: ingredient.MeasurementUnit,
	}
}
