package user

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/utils"
	"foodgram/internal/utils/mailing"
	"foodgram/pkg/jwt"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
		Me(ctx context.Context, userID string) (domain.UserProfile, error)
		GetProfile(ctx context.Context, targetID string, userID string) (domain.UserProfile, error)
		UpdateProfile(ctx context.Context, req domain.UpdateProfileRequest, userID string) error
		ChangePassword(ctx context.Context, req domain.ChangePasswordRequest, userID string) error

		Subscribe(ctx context.Context, authorID string, userID string) error
		Unsubscribe(ctx context.Context, authorID string, userID string) error
		GetSubscriptions(ctx context.Context, page, limit int, userID string) ([]domain.Subscription, int64, error)
	}

	userService struct {
		userRepository UserRepository
		jwtService     jwt.JWTService
		mailer         mailing.Mailer
		settings       utils.AppSettings
	}
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-_.]{1,149}$`)

func NewUserService(userRepository UserRepository, jwtService jwt.JWTService, mailer mailing.Mailer, settings utils.AppSettings) UserService {
	return &userService{
		userRepository: userRepository,
		jwtService:     jwtService,
		mailer:         mailer,
		settings:       settings,
	}
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error) {
	if strings.EqualFold(req.Username, "me") {
		return domain.RegisterResponse{}, domain.ErrReservedUsername
	}
	if !usernamePattern.MatchString(req.Username) {
		return domain.RegisterResponse{}, domain.ErrInvalidUsername
	}

	if _, err := s.userRepository.GetUserByEmail(ctx, req.Email); err == nil {
		return domain.RegisterResponse{}, domain.ErrEmailAlreadyUsed
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.RegisterResponse{}, err
	}
	if _, err := s.userRepository.GetUserByUsername(ctx, req.Username); err == nil {
		return domain.RegisterResponse{}, domain.ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.RegisterResponse{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.RegisterResponse{}, err
	}

	user := entities.User{
		ID:        uuid.New(),
		Email:     req.Email,
		Username:  req.Username,
		Password:  string(hashed),
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	if err := s.userRepository.CreateUser(ctx, &user); err != nil {
		// A concurrent registration may still win the unique index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RegisterResponse{}, domain.ErrEmailAlreadyUsed
		}
		return domain.RegisterResponse{}, err
	}

	// Mail delivery is not critical for registration.
	_ = s.mailer.SendWelcomeMail(user.Email, user.Username)

	return domain.RegisterResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LoginResponse{}, domain.ErrCredentialsInvalid
		}
		return domain.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return domain.LoginResponse{}, domain.ErrCredentialsInvalid
	}

	return domain.LoginResponse{
		Token: s.jwtService.GenerateTokenUser(user.ID.String()),
	}, nil
}

func (s *userService) Me(ctx context.Context, userID string) (domain.UserProfile, error) {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserProfile{}, domain.ErrUserNotFound
		}
		return domain.UserProfile{}, err
	}
	return profileOf(user, false), nil
}

func (s *userService) GetProfile(ctx context.Context, targetID string, userID string) (domain.UserProfile, error) {
	user, err := s.userRepository.GetUserByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserProfile{}, domain.ErrUserNotFound
		}
		return domain.UserProfile{}, err
	}

	isSubscribed := false
	if userID != "" && userID != targetID {
		isSubscribed, err = s.userRepository.IsSubscribed(ctx, userID, targetID)
		if err != nil {
			return domain.UserProfile{}, err
		}
	}
	return profileOf(user, isSubscribed), nil
}

func (s *userService) UpdateProfile(ctx context.Context, req domain.UpdateProfileRequest, userID string) error {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	return s.userRepository.UpdateUser(ctx, user)
}

func (s *userService) ChangePassword(ctx context.Context, req domain.ChangePasswordRequest, userID string) error {
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return domain.ErrWrongPassword
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashed)
	return s.userRepository.UpdateUser(ctx, user)
}

// Subscribe adds the author to the caller's subscriptions. The self-follow
// check runs before anything touches the store.
func (s *userService) Subscribe(ctx context.Context, authorID string, userID string) error {
	if userID == authorID {
		return domain.ErrSelfFollow
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}
	authorUUID, err := uuid.Parse(authorID)
	if err != nil {
		return domain.ErrParseUUID
	}

	if _, err := s.userRepository.GetUserByID(ctx, authorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if err := s.userRepository.Subscribe(ctx, userUUID, authorUUID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrAlreadySubscribed
		}
		return err
	}
	return nil
}

func (s *userService) Unsubscribe(ctx context.Context, authorID string, userID string) error {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}
	authorUUID, err := uuid.Parse(authorID)
	if err != nil {
		return domain.ErrParseUUID
	}

	if err := s.userRepository.Unsubscribe(ctx, userUUID, authorUUID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotSubscribed
		}
		return err
	}
	return nil
}

func (s *userService) GetSubscriptions(ctx context.Context, page, limit int, userID string) ([]domain.Subscription, int64, error) {
	authors, count, err := s.userRepository.GetSubscriptions(ctx, userID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	result := make([]domain.Subscription, 0, len(authors))
	for _, author := range authors {
		recipes, err := s.userRepository.GetAuthorRecipes(ctx, author.ID.String(), s.settings.RecipePreviewCount)
		if err != nil {
			return nil, 0, err
		}
		recipesCount, err := s.userRepository.CountAuthorRecipes(ctx, author.ID.String())
		if err != nil {
			return nil, 0, err
		}

		previews := make([]domain.RecipePreview, 0, len(recipes))
		for _, recipe := range recipes {
			previews = append(previews, domain.RecipePreview{
				ID:          recipe.ID.String(),
				Name:        recipe.Name,
				ImageURL:    recipe.ImageURL,
				CookingTime: recipe.CookingTime,
			})
		}

		result = append(result, domain.Subscription{
			UserProfile:  profileOf(author, true),
			Recipes:      previews,
			RecipesCount: recipesCount,
		})
	}

	return result, count, nil
}

func profileOf(user *entities.User, isSubscribed bool) domain.UserProfile {
	return domain.UserProfile{
		ID:           user.ID.String(),
		Email:        user.Email,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: isSubscribed,
		CreatedAt:    user.CreatedAt,
	}
}
