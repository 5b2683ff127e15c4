package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appModels "github.com/yigit/learnsphere/internal/app/models"
	"github.com/yigit/learnsphere/internal/pkg/apperrors"
	"github.com/yigit/learnsphere/internal/pkg/auth"
)

type memUsers struct {
	byEmail map[string]*appModels.User
	nextID  int64
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*appModels.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (m *memUsers) Create(_ context.Context, u *appModels.User) error {
	if _, ok := m.byEmail[u.Email]; ok {
		return apperrors.ErrEmailAlreadyExists
	}
	m.nextID++
	u.ID = m.nextID
	m.byEmail[u.Email] = u
	return nil
}

type memCategories struct {
	slugs map[string]string
	fail  string
}

func (m *memCategories) Ensure(_ context.Context, name, slug string) error {
	if slug == m.fail {
		return errors.New("insert failed")
	}
	m.slugs[slug] = name
	return nil
}

func TestCreateDefaultData(t *testing.T) {
	auth.BcryptCost = 4
	users := &memUsers{byEmail: map[string]*appModels.User{}}
	cats := &memCategories{slugs: map[string]string{}}
	admin := AdminAccount{Email: "admin@learnsphere.local", Password: "Admin1234"}

	require.NoError(t, CreateDefaultData(context.Background(), users, cats, admin, zerolog.Nop()))

	assert.Len(t, cats.slugs, len(DefaultCategories))
	created := users.byEmail[admin.Email]
	require.NotNil(t, created)
	assert.Equal(t, appModels.RoleAdmin, created.Role)
	assert.True(t, created.IsActive)
	assert.True(t, auth.CheckPassword(created.PasswordHash, "Admin1234"))

	// Running again is a no-op
	require.NoError(t, CreateDefaultData(context.Background(), users, cats, admin, zerolog.Nop()))
	assert.Equal(t, int64(1), users.nextID)
}

func TestCreateDefaultDataCollectsErrors(t *testing.T) {
	auth.BcryptCost = 4
	users := &memUsers{byEmail: map[string]*appModels.User{}}
	cats := &memCategories{slugs: map[string]string{}, fail: "design"}

	err := CreateDefaultData(context.Background(), users, cats, AdminAccount{Email: "a@b.c", Password: "Secret123"}, zerolog.Nop())
	require.Error(t, err)
	assert.Len(t, cats.slugs, len(DefaultCategories)-1)
	assert.NotNil(t, users.byEmail["a@b.c"], "admin is still created")
}
