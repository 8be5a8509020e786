package database

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupUserService(t *testing.T) (*UserService, *Store) {
	t.Helper()

	store := setupStore(t)
	svc, err := NewUserService(store)
	require.NoError(t, err)
	return svc, store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := setupUserService(t)

	user, err := svc.RegisterUser("Ada Lovelace", "ada@example.com", "secret", "")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "User", user.Role)
	assert.Equal(t, PlaceholderAvatar, user.Avatar)

	found, err := svc.ValidateLogin("ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = svc.ValidateLogin("ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := setupUserService(t)

	_, err := svc.RegisterUser("Ada", "ada@example.com", "secret", "")
	require.NoError(t, err)

	before, err := svc.GetUsers()
	require.NoError(t, err)

	_, err = svc.RegisterUser("Imposter", "ada@example.com", "other", "")
	assert.ErrorIs(t, err, ErrEmailTaken)

	// The stored list must be untouched
	after, err := svc.GetUsers()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSaveUsersSplitsAvatars(t *testing.T) {
	svc, store := setupUserService(t)

	bigAvatar := "data:image/png;base64," + strings.Repeat("QUJD", 2000)
	user, err := svc.RegisterUser("Ada", "ada@example.com", "secret", bigAvatar)
	require.NoError(t, err)

	// The primary payload must contain no image data
	raw, err := store.Get("task-manager-users")
	require.NoError(t, err)
	assert.NotContains(t, raw, "data:image/")

	// The avatar key must hold it instead
	avatar, err := svc.Avatar(user.ID)
	require.NoError(t, err)
	assert.Equal(t, bigAvatar, avatar)

	// And it comes back inline on load
	users, err := svc.GetUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, bigAvatar, users[0].Avatar)
}

func TestGetUsersPlaceholderAvatar(t *testing.T) {
	svc, store := setupUserService(t)

	_, err := svc.RegisterUser("Ada", "ada@example.com", "secret", "")
	require.NoError(t, err)

	// Drop the avatar table; the load must substitute the placeholder.
	require.NoError(t, store.Delete("task-manager-avatars"))

	users, err := svc.GetUsers()
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, PlaceholderAvatar, users[0].Avatar)
}

func TestLegacyMigration(t *testing.T) {
	store := setupStore(t)

	legacy := `[
		{"id":"42","name":"Old Timer","email":"old@example.com","password":"pw","role":"Admin","avatar":"data:image/png;base64,QUJD","createdAt":"2023-01-01T00:00:00Z"},
		{"i":"43","n":"Already Compact","e":"new@example.com","p":"pw","r":"User","c":"2024-01-01T00:00:00Z"}
	]`
	require.NoError(t, store.Put("task-manager-users", legacy))

	svc, err := NewUserService(store)
	require.NoError(t, err)

	// Both shapes normalize to the full user
	users, err := svc.GetUsers()
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "42", users[0].ID)
	assert.Equal(t, "Old Timer", users[0].Name)
	assert.Equal(t, "data:image/png;base64,QUJD", users[0].Avatar)
	assert.Equal(t, "43", users[1].ID)

	// The stored payload is rewritten to the compact shape once
	raw, err := store.Get("task-manager-users")
	require.NoError(t, err)
	assert.NotContains(t, raw, `"name"`)
	assert.NotContains(t, raw, "data:image/")

	version, err := store.Get("task-manager-users-version")
	require.NoError(t, err)
	assert.Equal(t, usersSchemaVersion, version)

	// The inline avatar moved to the side table
	avatar, err := svc.Avatar("42")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,QUJD", avatar)
}

func TestSaveUsersCompactionFallback(t *testing.T) {
	svc, store := setupUserService(t)

	// Fixed-width records so ten users are exactly twice the size of five.
	makeUsers := func(n int) []User {
		users := make([]User, 0, n)
		for i := 0; i < n; i++ {
			users = append(users, User{
				ID:        fmt.Sprintf("id-%02d", i),
				Name:      fmt.Sprintf("User %02d", i),
				Email:     fmt.Sprintf("user%02d@example.com", i),
				Password:  "password",
				Role:      "User",
				CreatedAt: "2024-01-01T00:00:00Z",
			})
		}
		return users
	}

	// Measure how big five users are on disk, then make that the quota.
	require.NoError(t, svc.SaveUsers(makeUsers(5)))
	raw, err := store.Get("task-manager-users")
	require.NoError(t, err)
	store.SetQuota(len(raw))

	// Ten users exceed the quota; the fallback keeps the last five.
	require.NoError(t, svc.SaveUsers(makeUsers(10)))

	users, err := svc.GetUsers()
	require.NoError(t, err)
	require.Len(t, users, compactionKeep)
	assert.Equal(t, "id-05", users[0].ID)
	assert.Equal(t, "id-09", users[4].ID)
}

func TestUpdateUser(t *testing.T) {
	svc, _ := setupUserService(t)

	user, err := svc.RegisterUser("Ada", "ada@example.com", "secret", "")
	require.NoError(t, err)

	name := "Ada Lovelace"
	role := "Project Manager"
	updated, err := svc.UpdateUser(user.ID, UserPatch{Name: &name, Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.Name)
	assert.Equal(t, "Project Manager", updated.Role)
	assert.Equal(t, "ada@example.com", updated.Email)

	_, err = svc.UpdateUser("no-such-id", UserPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUser(t *testing.T) {
	svc, _ := setupUserService(t)

	user, err := svc.RegisterUser("Ada", "ada@example.com", "secret", "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(user.ID))

	_, err = svc.UserByID(user.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.DeleteUser(user.ID), ErrNotFound)
}

func TestCurrentUserMarker(t *testing.T) {
	svc, _ := setupUserService(t)

	_, err := svc.CurrentUser()
	assert.ErrorIs(t, err, ErrNotFound)

	user, err := svc.RegisterUser("Ada", "ada@example.com", "secret", "")
	require.NoError(t, err)

	require.NoError(t, svc.SetCurrentUser(user.ID))
	current, err := svc.CurrentUser()
	require.NoError(t, err)
	assert.Equal(t, user.ID, current.ID)

	require.NoError(t, svc.ClearCurrentUser())
	_, err = svc.CurrentUser()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeedDefaultUsers(t *testing.T) {
	svc, _ := setupUserService(t)

	require.NoError(t, svc.SeedDefaultUsers())
	users, err := svc.GetUsers()
	require.NoError(t, err)
	assert.Len(t, users, 2)

	// Seeding again is a no-op
	require.NoError(t, svc.SeedDefaultUsers())
	again, err := svc.GetUsers()
	require.NoError(t, err)
	assert.Len(t, again, 2)
}

func TestGetUsersCorruptPayload(t *testing.T) {
	svc, store := setupUserService(t)

	require.NoError(t, store.Put("task-manager-users", "{not json"))

	_, err := svc.GetUsers()
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
