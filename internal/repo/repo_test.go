package repo

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zeeeeby/cathouse-server/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	return New(db)
}

func testUser(handle string) *models.User {
	return &models.User{
		Username:     handle,
		PasswordHash: "x",
		FirstName:    "Test",
		LastName:     "User",
	}
}

func TestCreateUserWithRole_AssignsDefaultRole(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	user := testUser("@alice")
	require.NoError(t, store.CreateUserWithRole(ctx, user, models.RoleUser))
	require.NotZero(t, user.ID)

	role, err := store.RoleForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, role)
}

func TestCreateUserWithRole_DuplicateHandle(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateUserWithRole(ctx, testUser("@alice"), models.RoleUser))

	err := store.CreateUserWithRole(ctx, testUser("@alice"), models.RoleUser)
	assert.ErrorIs(t, err, ErrDuplicateHandle)

	var count int64
	require.NoError(t, store.DB.Model(&models.User{}).Where("username = ?", "@alice").Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateUserWithRole_RollsBackOnBadRole(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	err := store.CreateUserWithRole(ctx, testUser("@bob"), models.RoleName("NOPE"))
	require.ErrorIs(t, err, ErrUnknownRole)

	_, err = store.FindUserByHandle(ctx, "@bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindUserByHandle_NotFound(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	_, err := store.FindUserByHandle(context.Background(), "@ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGrantRole_ReplacesMembership(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	user := testUser("@carol")
	require.NoError(t, store.CreateUserWithRole(ctx, user, models.RoleUser))

	require.NoError(t, store.GrantRole(ctx, user.ID, models.RoleAdmin))

	role, err := store.RoleForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)

	var count int64
	require.NoError(t, store.DB.Model(&models.UserRole{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGrantRole_UnknownUser(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	err := store.GrantRole(context.Background(), 999, models.RoleAdmin)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfileImages_SaveAndDelete(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	saved, err := store.SaveProfileImages(ctx, []models.ProfileImage{
		{URL: "img/a.png", AuthorID: 1},
		{URL: "img/b.png", AuthorID: 1},
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.NotZero(t, saved[0].ID)

	require.NoError(t, store.DeleteProfileImages(ctx, []string{"img/a.png"}))

	var count int64
	require.NoError(t, store.DB.Model(&models.ProfileImage{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
