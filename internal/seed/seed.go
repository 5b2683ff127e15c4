package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
	"github.com/yigit/learnsphere/internal/pkg/auth"
)

// UserStore is the part of the user repository the seed needs
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*appModels.User, error)
	Create(ctx context.Context, user *appModels.User) error
}

// CategoryStore inserts categories idempotently
type CategoryStore interface {
	Ensure(ctx context.Context, name, slug string) error
}

// AdminAccount is the default administrator created on first start
type AdminAccount struct {
	Email    string
	Password string
}

// DefaultCategories are the catalog categories every installation starts with
var DefaultCategories = []struct{ Name, Slug string }{
	{"Programming", "programming"},
	{"Data Science", "data-science"},
	{"Design", "design"},
	{"Business", "business"},
	{"Languages", "languages"},
	{"Mathematics", "mathematics"},
}

// CreateDefaultData creates the default categories and the admin user if they don't exist.
// Errors are collected so one failure does not stop the rest.
func CreateDefaultData(ctx context.Context, users UserStore, categories CategoryStore, admin AdminAccount, lgr zerolog.Logger) error {
	lgr.Info().Msg("Checking/Creating default data (categories, admin)...")
	var finalErr error

	for _, c := range DefaultCategories {
		if err := categories.Ensure(ctx, c.Name, c.Slug); err != nil {
			lgr.Error().Err(err).Str("slug", c.Slug).Msg("Error creating category")
			finalErr = errors.Join(finalErr, err)
		}
	}

	if admin.Email == "" {
		lgr.Info().Msg("No admin email configured, skipping admin creation")
		return finalErr
	}

	_, err := users.GetByEmail(ctx, admin.Email)
	switch {
	case err == nil:
		lgr.Info().Msg("Admin user already exists, skipping creation")
	case !errors.Is(err, apperrors.ErrUserNotFound):
		lgr.Error().Err(err).Msg("Error checking admin user")
		finalErr = errors.Join(finalErr, err)
	default:
		lgr.Info().Str("email", admin.Email).Msg("Creating default admin user...")
		hash, err := auth.HashPassword(admin.Password)
		if err != nil {
			lgr.Error().Err(err).Msg("Error hashing admin password")
			return errors.Join(finalErr, err)
		}
		user := &appModels.User{
			Email:        admin.Email,
			PasswordHash: hash,
			FirstName:    "System",
			LastName:     "Administrator",
			Role:         appModels.RoleAdmin,
			IsActive:     true,
		}
		if err := users.Create(ctx, user); err != nil && !errors.Is(err, apperrors.ErrEmailAlreadyExists) {
			lgr.Error().Err(err).Msg("Error creating admin user")
			finalErr = errors.Join(finalErr, err)
		} else if err == nil {
			lgr.Info().Int64("adminID", user.ID).Msg("Default admin user created successfully")
		}
	}

	lgr.Info().Msg("Default data check/creation finished.")
	return finalErr
}
