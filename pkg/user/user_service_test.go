package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/utils"
	jwtlib "github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"foodgram/pkg/jwt"
)

type fakeUserRepository struct {
	users   map[string]*entities.User
	follows map[string]bool
	recipes map[string][]*entities.Recipe
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{
		users:   make(map[string]*entities.User),
		follows: make(map[string]bool),
		recipes: make(map[string][]*entities.Recipe),
	}
}

func followKey(userID, authorID uuid.UUID) string {
	return fmt.Sprintf("%s|%s", userID, authorID)
}

func (f *fakeUserRepository) CreateUser(_ context.Context, user *entities.User) error {
	for _, existing := range f.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	f.users[user.ID.String()] = user
	return nil
}

func (f *fakeUserRepository) GetUserByID(_ context.Context, id string) (*entities.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepository) GetUserByEmail(_ context.Context, email string) (*entities.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepository) GetUserByUsername(_ context.Context, username string) (*entities.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepository) UpdateUser(_ context.Context, user *entities.User) error {
	f.users[user.ID.String()] = user
	return nil
}

func (f *fakeUserRepository) Subscribe(_ context.Context, userID, authorID uuid.UUID) error {
	key := followKey(userID, authorID)
	if f.follows[key] {
		return gorm.ErrDuplicatedKey
	}
	f.follows[key] = true
	return nil
}

func (f *fakeUserRepository) Unsubscribe(_ context.Context, userID, authorID uuid.UUID) error {
	key := followKey(userID, authorID)
	if !f.follows[key] {
		return gorm.ErrRecordNotFound
	}
	delete(f.follows, key)
	return nil
}

func (f *fakeUserRepository) IsSubscribed(_ context.Context, userID, authorID string) (bool, error) {
	return f.follows[fmt.Sprintf("%s|%s", userID, authorID)], nil
}

func (f *fakeUserRepository) GetSubscriptions(_ context.Context, userID string, page, limit int) ([]*entities.User, int64, error) {
	var authors []*entities.User
	for key := range f.follows {
		parts := strings.SplitN(key, "|", 2)
		if parts[0] != userID {
			continue
		}
		if user, ok := f.users[parts[1]]; ok {
			authors = append(authors, user)
		}
	}
	return authors, int64(len(authors)), nil
}

func (f *fakeUserRepository) GetAuthorRecipes(_ context.Context, authorID string, limit int) ([]*entities.Recipe, error) {
	recipes := f.recipes[authorID]
	if len(recipes) > limit {
		recipes = recipes[:limit]
	}
	return recipes, nil
}

func (f *fakeUserRepository) CountAuthorRecipes(_ context.Context, authorID string) (int64, error) {
	return int64(len(f.recipes[authorID])), nil
}

type fakeJWTService struct{}

func (fakeJWTService) GenerateTokenUser(userID string) string { return "token-" + userID }

func (fakeJWTService) ValidateTokenUser(string) (*jwtlib.Token, error) { return nil, nil }

func (fakeJWTService) GetUserIDByToken(string) (string, error) { return "", nil }

type fakeMailer struct {
	sent []string
}

func (m *fakeMailer) SendWelcomeMail(toEmail string, _ string) error {
	m.sent = append(m.sent, toEmail)
	return nil
}

var _ jwt.JWTService = fakeJWTService{}

func newTestUserService(repo *fakeUserRepository, mailer *fakeMailer) UserService {
	return NewUserService(repo, fakeJWTService{}, mailer, utils.DefaultAppSettings())
}

func seedUser(repo *fakeUserRepository, email, username, password string) *entities.User {
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	user := &entities.User{
		ID:       uuid.New(),
		Email:    email,
		Username: username,
		Password: string(hashed),
	}
	repo.users[user.ID.String()] = user
	return user
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     domain.RegisterRequest
		wantErr error
	}{
		{
			name: "reserved username",
			req: domain.RegisterRequest{
				Email:    "a@example.com",
				Username: "me",
				Password: "password123",
			},
			wantErr: domain.ErrReservedUsername,
		},
		{
			name: "reserved username is case insensitive",
			req: domain.RegisterRequest{
				Email:    "a@example.com",
				Username: "ME",
				Password: "password123",
			},
			wantErr: domain.ErrReservedUsername,
		},
		{
			name: "username with invalid characters",
			req: domain.RegisterRequest{
				Email:    "a@example.com",
				Username: "bad user!",
				Password: "password123",
			},
			wantErr: domain.ErrInvalidUsername,
		},
		{
			name: "username must not start with a digit",
			req: domain.RegisterRequest{
				Email:    "a@example.com",
				Username: "1chef",
				Password: "password123",
			},
			wantErr: domain.ErrInvalidUsername,
		},
		{
			name: "valid request",
			req: domain.RegisterRequest{
				Email:     "chef@example.com",
				Username:  "chef",
				FirstName: "Ann",
				LastName:  "Lee",
				Password:  "password123",
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUserRepository()
			mailer := &fakeMailer{}
			svc := newTestUserService(repo, mailer)

			_, err := svc.Register(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Register() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && len(mailer.sent) != 1 {
				t.Fatalf("expected one welcome mail, got %d", len(mailer.sent))
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepository()
	svc := newTestUserService(repo, &fakeMailer{})
	seedUser(repo, "chef@example.com", "chef", "password123")

	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "chef@example.com",
		Username: "otherchef",
		Password: "password123",
	})
	if !errors.Is(err, domain.ErrEmailAlreadyUsed) {
		t.Fatalf("Register() error = %v, want %v", err, domain.ErrEmailAlreadyUsed)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo := newFakeUserRepository()
	svc := newTestUserService(repo, &fakeMailer{})
	seedUser(repo, "chef@example.com", "chef", "password123")

	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "other@example.com",
		Username: "chef",
		Password: "password123",
	})
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("Register() error = %v, want %v", err, domain.ErrUsernameTaken)
	}
}

func TestRegisterHashesPassword(t *testing.T) {
	repo := newFakeUserRepository()
	svc := newTestUserService(repo, &fakeMailer{})

	resp, err := svc.Register(context.Background(), domain.RegisterRequest{
		Email:    "chef@example.com",
		Username: "chef",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	stored := repo.users[resp.ID]
	if stored.Password == "password123" {
		t.Fatal("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("password123")); err != nil {
		t.Fatalf("stored hash does not match the password: %v", err)
	}
}

func TestLogin(t *testing.T) {
	repo := newFakeUserRepository()
	svc := newTestUserService(repo, &fakeMailer{})
	user := seedUser(repo, "chef@example.com", "chef", "password123")

	tests := []struct {
		name      string
		email     string
		password  string
		wantErr   error
		wantToken string
	}{
		{
			name:      "valid credentials",
			email:     "chef@example.com",
			password:  "password123",
			wantToken: "token-" + user.ID.String(),
		},
		{
			name:     "wrong password",
			email:    "chef@example.com",
			password: "nope",
			wantErr:  domain.ErrCredentialsInvalid,
		},
		{
			name:     "unknown email",
			email:    "ghost@example.com",
			password: "password123",
			wantErr:  domain.ErrCredentialsInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Login(context.Background(), domain.LoginRequest{
				Email:    tt.email,
				Password: tt.password,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && resp.Token != tt.wantToken {
				t.Fatalf("Login() token = %q, want %q", resp.Token, tt.wantToken)
			}
		})
	}
}

func TestSubscribeSelfFollow(t *testing.T) {
	repo := newFakeUserRepository()
	svc := newTestUserService(repo, &fakeMailer{})
	user := seedUser(repo, "chef@example.com", "chef", "password123")

	err := svc.Subscribe(context.Background(), user.ID.String(), user.ID.String())
	if !errors.Is(err, domain.ErrSelfFollow) {
		t.Fatalf("Subscribe() error = %v, want %v", err, domain.ErrSelfFollow)
	}
	if len(repo.follows) != 0 {
		t.Fatalf("self follow must not create a row, got %d", len(repo.follows))
	}
}

func TestSubscribeTwice(t *testing.T) {
	repo := newFakeUserRepository()
	svc := newTestUserService(repo, &fakeMailer{})
	follower := seedUser(repo, "chef@example.com", "chef", "password123")
	author := seedUser(repo, "author@example.com", "author", "password123")

	if err := svc.Subscribe(context.Background(), author.ID.String(), follower.ID.String()); err != nil {
		t.Fatalf("first Subscribe() error = %v", err)
	}

	err := svc.Subscribe(context.Background(), author.ID.String(), follower.ID.String())
	if !errors.Is(err, domain.ErrAlreadySubscribed) {
		t.Fatalf("second Subscribe() error = %v, want %v", err, domain.ErrAlreadySubscribed)
	}
	if len(repo.follows) != 1 {
		t.Fatalf("expected exactly one follow row, got %d", len(repo.follows))
	}
}

func TestSubscribeUnknownAuthor(t *testing.T) {
	repo := newFakeUserRepository()
	svc := newTestUserService(repo, &fakeMailer{})
	follower := seedUser(repo, "chef@example.com", "chef", "password123")

	err := svc.Subscribe(context.Background(), uuid.NewString(), follower.ID.String())
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("Subscribe() error = %v, want %v", err, domain.ErrUserNotFound)
	}
}

func TestUnsubscribeNotSubscribed(t *testing.T) {
	repo := newFakeUserRepository()
	svc := newTestUserService(repo, &fakeMailer{})
	follower := seedUser(repo, "chef@example.com", "chef", "password123")
	author := seedUser(repo, "author@example.com", "author", "password123")

	err := svc.Unsubscribe(context.Background(), author.ID.String(), follower.ID.String())
	if !errors.Is(err, domain.ErrNotSubscribed) {
		t.Fatalf("Unsubscribe() error = %v, want %v", err, domain.ErrNotSubscribed)
	}
}

func TestSubscribeThenUnsubscribe(t *testing.T) {
	repo := newFakeUserRepository()
	svc := newTestUserService(repo, &fakeMailer{})
	follower := seedUser(repo, "chef@example.com", "chef", "password123")
	author := seedUser(repo, "author@example.com", "author", "password123")

	if err := svc.Subscribe(context.Background(), author.ID.String(), follower.ID.String()); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := svc.Unsubscribe(context.Background(), author.ID.String(), follower.ID.String()); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if len(repo.follows) != 0 {
		t.Fatalf("expected no follow rows after unsubscribe, got %d", len(repo.follows))
	}
}

func TestGetSubscriptionsPreviewLimit(t *testing.T) {
	repo := newFakeUserRepository()
	svc := newTestUserService(repo, &fakeMailer{})
	follower := seedUser(repo, "chef@example.com", "chef", "password123")
	author := seedUser(repo, "author@example.com", "author", "password123")

	for i := 0; i < 5; i++ {
		repo.recipes[author.ID.String()] = append(repo.recipes[author.ID.String()], &entities.Recipe{
			ID:          uuid.New(),
			AuthorID:    author.ID,
			Name:        fmt.Sprintf("recipe %d", i),
			CookingTime: 10,
		})
	}

	if err := svc.Subscribe(context.Background(), author.ID.String(), follower.ID.String()); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	subs, count, err := svc.GetSubscriptions(context.Background(), 1, 10, follower.ID.String())
	if err != nil {
		t.Fatalf("GetSubscriptions() error = %v", err)
	}
	if count != 1 || len(subs) != 1 {
		t.Fatalf("expected one subscription, got count=%d len=%d", count, len(subs))
	}
	if subs[0].RecipesCount != 5 {
		t.Fatalf("RecipesCount = %d, want 5", subs[0].RecipesCount)
	}
	if len(subs[0].Recipes) != utils.DefaultAppSettings().RecipePreviewCount {
		t.Fatalf("preview length = %d, want %d", len(subs[0].Recipes), utils.DefaultAppSettings().RecipePreviewCount)
	}
	if !subs[0].IsSubscribed {
		t.Fatal("listed author must be marked as subscribed")
	}
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	repo := newFakeUserRepository()
	svc := newTestUserService(repo, &fakeMailer{})
	user := seedUser(repo, "chef@example.com", "chef", "password123")

	err := svc.ChangePassword(context.Background(), domain.ChangePasswordRequest{
		CurrentPassword: "wrong",
		NewPassword:     "newpassword1",
	}, user.ID.String())
	if !errors.Is(err, domain.ErrWrongPassword) {
		t.Fatalf("ChangePassword() error = %v, want %v", err, domain.ErrWrongPassword)
	}
}

func TestGetProfileSubscribedFlag(t *testing.T) {
	repo := newFakeUserRepository()
	svc := newTestUserService(repo, &fakeMailer{})
	follower := seedUser(repo, "chef@example.com", "chef", "password123")
	author := seedUser(repo, "author@example.com", "author", "password123")

	if err := svc.Subscribe(context.Background(), author.ID.String(), follower.ID.String()); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	profile, err := svc.GetProfile(context.Background(), author.ID.String(), follower.ID.String())
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if !profile.IsSubscribed {
		t.Fatal("IsSubscribed = false, want true")
	}

	anon, err := svc.GetProfile(context.Background(), author.ID.String(), "")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if anon.IsSubscribed {
		t.Fatal("anonymous caller must never see is_subscribed = true")
	}
}
