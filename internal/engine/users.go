package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"nest-hub/internal/models"
	"nest-hub/internal/utils"
)

const bcryptCost = 10

// UserInput holds the fields accepted when creating a user.
type UserInput struct {
	Name     string
	Username string
	Email    string
	Github   string
	Leetcode string
	Linkedin string
	Bio      string
	Skills   []string
}

type RegisterInput struct {
	UserInput
	Password string
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string
	User  *models.User
}

// UserDetail is a user with its post ids resolved to documents.
type UserDetail struct {
	models.User
	Posts []models.Post `json:"posts"`
}

func (e *Engine) newUser(in UserInput) *models.User {
	now := e.now()
	return &models.User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		Username:  strings.TrimSpace(in.Username),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Github:    in.Github,
		Leetcode:  in.Leetcode,
		Linkedin:  in.Linkedin,
		Bio:       in.Bio,
		Skills:    in.Skills,
		Votes:     models.NewLockoutLedger(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Register creates an account with a hashed password and signs a token for it.
func (e *Engine) Register(ctx context.Context, in RegisterInput) (_ *AuthResult, err error) {
	defer e.observe("register", e.clock.Now(), &err)

	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, utils.NewValidationError("email and password are required")
	}

	user := e.newUser(in.UserInput)
	if user.Name == "" {
		user.Name, _, _ = strings.Cut(user.Email, "@")
	}
	if existing, lookupErr := e.store.GetUserByEmail(ctx, user.Email); lookupErr == nil && existing != nil {
		return nil, utils.NewAppError(utils.ErrDuplicate, "User already exists", nil)
	} else if lookupErr != nil && !utils.IsNotFound(lookupErr) {
		return nil, lookupErr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrInvalidArgument, "password cannot be hashed", err)
	}
	user.HashedPassword = string(hash)

	if err := e.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	slog.Info("user registered", "user_id", user.ID)
	return e.authenticate(user)
}

// Login checks the password against the stored hash.
func (e *Engine) Login(ctx context.Context, email, password string) (_ *AuthResult, err error) {
	defer e.observe("login", e.clock.Now(), &err)

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, utils.NewValidationError("email and password are required")
	}

	user, err := e.store.GetUserByEmail(ctx, email)
	if err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.NewAppError(utils.ErrInvalidCredentials, "Invalid credentials", nil)
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		return nil, utils.NewAppError(utils.ErrInvalidCredentials, "Invalid credentials", nil)
	}
	return e.authenticate(user)
}

func (e *Engine) authenticate(user *models.User) (*AuthResult, error) {
	if e.tokens == nil {
		return nil, utils.NewAppError(utils.ErrUnavailable, "Token generation failed", errors.New("no token issuer configured"))
	}
	token, err := e.tokens.GenerateToken(user.ID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrUnavailable, "Token generation failed", err)
	}
	return &AuthResult{Token: token, User: user}, nil
}

// CreateUser stores a user without credentials, as seeding and admin tools do.
func (e *Engine) CreateUser(ctx context.Context, in UserInput) (_ *models.User, err error) {
	defer e.observe("create_user", e.clock.Now(), &err)

	user := e.newUser(in)
	if err := e.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser returns the user with its posts populated. Post ids that no longer
// resolve are skipped.
func (e *Engine) GetUser(ctx context.Context, id string) (_ *UserDetail, err error) {
	defer e.observe("get_user", e.clock.Now(), &err)

	user, err := e.store.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &UserDetail{User: *user, Posts: make([]models.Post, 0, len(user.Posts))}
	for _, postID := range user.Posts {
		post, err := e.store.GetPost(ctx, postID)
		if err != nil {
			if utils.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		detail.Posts = append(detail.Posts, *post)
	}
	return detail, nil
}

func (e *Engine) ListUsers(ctx context.Context) (_ []*models.User, err error) {
	defer e.observe("list_users", e.clock.Now(), &err)
	return e.store.ListUsers(ctx)
}

// UpdateUser merges the provided fields. An empty update returns the user unchanged.
func (e *Engine) UpdateUser(ctx context.Context, id string, update models.UserUpdate) (_ *models.User, err error) {
	defer e.observe("update_user", e.clock.Now(), &err)

	if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
		return nil, utils.NewValidationError("name cannot be empty")
	}
	return e.store.UpdateUser(ctx, id, update)
}

// DeleteUser removes the user record only; their posts stay.
func (e *Engine) DeleteUser(ctx context.Context, id string) (err error) {
	defer e.observe("delete_user", e.clock.Now(), &err)
	return e.store.DeleteUser(ctx, id)
}

// resolveAuthor maps an unknown author id to a validation failure.
func (e *Engine) resolveAuthor(ctx context.Context, field, id string) (*models.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, utils.NewValidationError("%s is required", field)
	}
	user, err := e.store.GetUser(ctx, id)
	if err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.NewValidationError("%s does not match an existing user", field)
		}
		return nil, err
	}
	return user, nil
}
