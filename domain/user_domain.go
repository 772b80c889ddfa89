package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessRegister         = "user registered successfully"
	MessageSuccessLogin            = "login success"
	MessageSuccessGetProfile       = "success get profile"
	MessageSuccessUpdateProfile    = "profile updated successfully"
	MessageSuccessChangePassword   = "password changed successfully"
	MessageSuccessSubscribe        = "you have successfully subscribed"
	MessageSuccessUnsubscribe      = "you have successfully unsubscribed"
	MessageSuccessGetSubscriptions = "success get subscriptions"

	MessageFailedRegister         = "failed to register user"
	MessageFailedLogin            = "failed to login"
	MessageFailedGetProfile       = "failed to get profile"
	MessageFailedUpdateProfile    = "failed to update profile"
	MessageFailedChangePassword   = "failed to change password"
	MessageFailedSubscribe        = "failed to subscribe"
	MessageFailedUnsubscribe      = "failed to unsubscribe"
	MessageFailedGetSubscriptions = "failed to get subscriptions"

	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyUsed   = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrReservedUsername   = errors.New("this username is reserved")
	ErrInvalidUsername    = errors.New("username contains invalid characters")
	ErrCredentialsInvalid = errors.New("wrong email or password")
	ErrWrongPassword      = errors.New("wrong current password")
	ErrSelfFollow         = errors.New("you cannot subscribe to yourself")
	ErrAlreadySubscribed  = errors.New("you are already subscribed")
	ErrNotSubscribed      = errors.New("you are not subscribed to this author")
)

type (
	RegisterRequest struct {
		Email     string `json:"email" validate:"required,email,max=254"`
		Username  string `json:"username" validate:"required,max=150"`
		FirstName string `json:"first_name" validate:"required,max=150"`
		LastName  string `json:"last_name" validate:"required,max=150"`
		Password  string `json:"password" validate:"required,min=8,max=128"`
	}

	RegisterResponse struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	UpdateProfileRequest struct {
		FirstName string `json:"first_name" validate:"omitempty,max=150"`
		LastName  string `json:"last_name" validate:"omitempty,max=150"`
	}

	ChangePasswordRequest struct {
		CurrentPassword string `json:"current_password" validate:"required,max=128"`
		NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
	}

	UserProfile struct {
		ID           string    `json:"id"`
		Email        string    `json:"email"`
		Username     string    `json:"username"`
		FirstName    string    `json:"first_name"`
		LastName     string    `json:"last_name"`
		IsSubscribed bool      `json:"is_subscribed"`
		CreatedAt    time.Time `json:"created_at"`
	}

	// Subscription is a followed author together with a short recipe
	// preview, mirrored from the subscriptions listing.
	Subscription struct {
		UserProfile
		Recipes      []RecipePreview `json:"recipes"`
		RecipesCount int64           `json:"recipes_count"`
	}
)
