package utils

// AppSettings carries the numeric thresholds used by the services. It is
// built once at startup and passed into the services instead of being read
// from process-wide state.
type AppSettings struct {
	PageSize            int
	IngredientPageSize  int
	MinCookingTime      int
	MinIngredientAmount int
	RecipePreviewCount  int
}

func DefaultAppSettings() AppSettings {
	return AppSettings{
		PageSize:            6,
		IngredientPageSize:  20,
		MinCookingTime:      1,
		MinIngredientAmount: 1,
		RecipePreviewCount:  3,
	}
}
