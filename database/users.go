package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

const (
	usersKey        = "task-manager-users"
	avatarsKey      = "task-manager-avatars"
	usersVersionKey = "task-manager-users-version"
	currentUserKey  = "currentUserId"

	// usersSchemaVersion marks the compact record shape with externalized
	// avatars. Legacy full-field records are migrated forward once at load.
	usersSchemaVersion = "2"

	// compactionKeep is how many users survive a quota-exceeded rewrite.
	compactionKeep = 5
)

// ErrEmailTaken is returned by RegisterUser when the email is already
// registered.
var ErrEmailTaken = errors.New("email already registered")

// compactUser is the storage shape for a user: abbreviated field names, no
// avatar (avatars live under their own key).
type compactUser struct {
	I string `json:"i"`
	N string `json:"n"`
	E string `json:"e"`
	P string `json:"p"`
	R string `json:"r"`
	C string `json:"c"`
}

// storedUser can decode both the compact shape and the legacy full-field
// shape with an inline avatar. Only the migration reads it.
type storedUser struct {
	compactUser
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	Avatar    string `json:"avatar"`
	CreatedAt string `json:"createdAt"`
}

// UserPatch holds the fields of a user that can be updated. Nil fields are
// left unchanged.
type UserPatch struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
	Avatar   *string `json:"avatar"`
}

// UserService persists user records and avatars through the key-value store.
// Avatars are kept under a separate key so the primary user-list payload
// stays small; the store enforces a size quota per value.
type UserService struct {
	store *Store
}

// NewUserService creates the service and migrates any legacy-shape records
// to the current schema.
func NewUserService(store *Store) (*UserService, error) {
	s := &UserService{store: store}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrating user records: %w", err)
	}
	return s, nil
}

// migrate rewrites legacy full-field records (inline avatars, long field
// names) into the compact shape, once. Subsequent loads see only the
// current schema.
func (s *UserService) migrate() error {
	version, err := s.store.Get(usersVersionKey)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if version == usersSchemaVersion {
		return nil
	}

	raw, err := s.store.Get(usersKey)
	if errors.Is(err, ErrNotFound) {
		return s.store.Put(usersVersionKey, usersSchemaVersion)
	}
	if err != nil {
		return err
	}

	var stored []storedUser
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return fmt.Errorf("parsing stored users: %w", err)
	}

	compact := make([]compactUser, 0, len(stored))
	for _, u := range stored {
		if u.I != "" {
			compact = append(compact, u.compactUser)
			continue
		}
		if isImageData(u.Avatar) {
			if err := s.SaveAvatar(u.ID, u.Avatar); err != nil {
				log.Printf("Error externalizing avatar for user %s: %v", u.ID, err)
			}
		}
		compact = append(compact, compactUser{
			I: u.ID,
			N: u.Name,
			E: u.Email,
			P: u.Password,
			R: u.Role,
			C: u.CreatedAt,
		})
	}

	if err := s.writeCompact(compact); err != nil {
		return err
	}
	return s.store.Put(usersVersionKey, usersSchemaVersion)
}

// GetUsers returns all registered users with their avatars resolved. A user
// with no stored avatar gets the built-in placeholder.
func (s *UserService) GetUsers() ([]User, error) {
	raw, err := s.store.Get(usersKey)
	if errors.Is(err, ErrNotFound) {
		return []User{}, nil
	}
	if err != nil {
		return nil, err
	}

	var compact []compactUser
	if err := json.Unmarshal([]byte(raw), &compact); err != nil {
		return nil, fmt.Errorf("parsing stored users: %w", err)
	}

	avatars, err := s.allAvatars()
	if err != nil {
		log.Printf("Error reading avatars: %v", err)
		avatars = map[string]string{}
	}

	users := make([]User, 0, len(compact))
	for _, c := range compact {
		avatar, ok := avatars[c.I]
		if !ok {
			avatar = PlaceholderAvatar
		}
		users = append(users, User{
			ID:        c.I,
			Name:      c.N,
			Email:     c.E,
			Password:  c.P,
			Role:      c.R,
			Avatar:    avatar,
			CreatedAt: c.C,
		})
	}
	return users, nil
}

// SaveUsers persists the full user list. Embedded image avatars are split
// into the avatar table first; only the compact records go under the
// primary key. If the primary write exceeds the quota, both keys are
// cleared and the most recently added users are rewritten, best effort.
func (s *UserService) SaveUsers(users []User) error {
	compact := make([]compactUser, 0, len(users))
	for _, u := range users {
		if isImageData(u.Avatar) {
			if err := s.SaveAvatar(u.ID, u.Avatar); err != nil {
				log.Printf("Error saving avatar for user %s: %v", u.ID, err)
			}
		}
		compact = append(compact, compactUser{
			I: u.ID,
			N: u.Name,
			E: u.Email,
			P: u.Password,
			R: u.Role,
			C: u.CreatedAt,
		})
	}
	return s.writeCompact(compact)
}

func (s *UserService) writeCompact(compact []compactUser) error {
	payload, err := json.Marshal(compact)
	if err != nil {
		return fmt.Errorf("encoding users: %w", err)
	}

	err = s.store.Put(usersKey, string(payload))
	if err == nil {
		return nil
	}
	log.Printf("Error saving users: %v", err)

	// Quota hit. Clear both keyspaces and keep only the most recently
	// added users so at least something survives.
	if err := s.store.Delete(usersKey); err != nil {
		return err
	}
	if err := s.store.Delete(avatarsKey); err != nil {
		return err
	}

	minimal := compact
	if len(minimal) > compactionKeep {
		minimal = minimal[len(minimal)-compactionKeep:]
	}
	payload, err = json.Marshal(minimal)
	if err != nil {
		return fmt.Errorf("encoding minimal users: %w", err)
	}
	if err := s.store.Put(usersKey, string(payload)); err != nil {
		log.Printf("Failed to save even minimal user data: %v", err)
		return err
	}
	log.Println("Saved minimal user data due to storage limits")
	return nil
}

// SaveAvatar stores one user's avatar in the avatar table.
func (s *UserService) SaveAvatar(userID, data string) error {
	avatars, err := s.allAvatars()
	if err != nil {
		return err
	}
	avatars[userID] = data

	payload, err := json.Marshal(avatars)
	if err != nil {
		return fmt.Errorf("encoding avatars: %w", err)
	}
	return s.store.Put(avatarsKey, string(payload))
}

// Avatar returns one user's stored avatar, or ErrNotFound.
func (s *UserService) Avatar(userID string) (string, error) {
	avatars, err := s.allAvatars()
	if err != nil {
		return "", err
	}
	data, ok := avatars[userID]
	if !ok {
		return "", ErrNotFound
	}
	return data, nil
}

func (s *UserService) allAvatars() (map[string]string, error) {
	raw, err := s.store.Get(avatarsKey)
	if errors.Is(err, ErrNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	avatars := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &avatars); err != nil {
		return nil, fmt.Errorf("parsing avatars: %w", err)
	}
	return avatars, nil
}

// ValidateLogin checks an email/password pair against the stored users.
// Returns ErrNotFound when no user matches.
func (s *UserService) ValidateLogin(email, password string) (*User, error) {
	users, err := s.GetUsers()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Email == email && users[i].Password == password {
			return &users[i], nil
		}
	}
	return nil, ErrNotFound
}

// RegisterUser creates a new account. Email must be unique; the new user
// gets the default "User" role and a placeholder avatar when none is given.
func (s *UserService) RegisterUser(name, email, password, avatar string) (*User, error) {
	users, err := s.GetUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Email == email {
			return nil, ErrEmailTaken
		}
	}

	if avatar == "" {
		avatar = PlaceholderAvatar
	}
	user := User{
		ID:        NewID(),
		Name:      name,
		Email:     email,
		Password:  password,
		Role:      "User",
		Avatar:    avatar,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	users = append(users, user)
	if err := s.SaveUsers(users); err != nil {
		return nil, err
	}
	return &user, nil
}

// UserByID returns the user with the given id, or ErrNotFound.
func (s *UserService) UserByID(id string) (*User, error) {
	users, err := s.GetUsers()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, ErrNotFound
}

// UpdateUser merges the patch into the stored user and persists the list.
func (s *UserService) UpdateUser(id string, patch UserPatch) (*User, error) {
	users, err := s.GetUsers()
	if err != nil {
		return nil, err
	}

	for i := range users {
		if users[i].ID != id {
			continue
		}
		if patch.Name != nil {
			users[i].Name = *patch.Name
		}
		if patch.Email != nil {
			users[i].Email = *patch.Email
		}
		if patch.Password != nil {
			users[i].Password = *patch.Password
		}
		if patch.Role != nil {
			users[i].Role = *patch.Role
		}
		if patch.Avatar != nil {
			users[i].Avatar = *patch.Avatar
		}
		if err := s.SaveUsers(users); err != nil {
			return nil, err
		}
		return &users[i], nil
	}
	return nil, ErrNotFound
}

// DeleteUser removes the user with the given id. Returns ErrNotFound if no
// such user exists.
func (s *UserService) DeleteUser(id string) error {
	users, err := s.GetUsers()
	if err != nil {
		return err
	}

	filtered := users[:0:0]
	for _, u := range users {
		if u.ID != id {
			filtered = append(filtered, u)
		}
	}
	if len(filtered) == len(users) {
		return ErrNotFound
	}
	return s.SaveUsers(filtered)
}

// CurrentUser resolves the current-user marker to a full user record.
func (s *UserService) CurrentUser() (*User, error) {
	id, err := s.store.Get(currentUserKey)
	if err != nil {
		return nil, err
	}
	return s.UserByID(id)
}

// SetCurrentUser records which local user is signed in.
func (s *UserService) SetCurrentUser(id string) error {
	return s.store.Put(currentUserKey, id)
}

// ClearCurrentUser removes the current-user marker.
func (s *UserService) ClearCurrentUser() error {
	return s.store.Delete(currentUserKey)
}

// SeedDefaultUsers installs a couple of demo accounts when the user table
// is empty.
func (s *UserService) SeedDefaultUsers() error {
	users, err := s.GetUsers()
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	defaults := []User{
		{
			ID:        "1",
			Name:      "John Doe",
			Email:     "john.doe@example.com",
			Password:  "password123",
			Role:      "Project Manager",
			Avatar:    PlaceholderAvatar,
			CreatedAt: "2024-01-01T00:00:00.000Z",
		},
		{
			ID:        "2",
			Name:      "Jane Smith",
			Email:     "jane.smith@example.com",
			Password:  "password123",
			Role:      "Developer",
			Avatar:    PlaceholderAvatar,
			CreatedAt: "2024-01-02T00:00:00.000Z",
		},
	}
	return s.SaveUsers(defaults)
}

// isImageData reports whether an avatar value is embedded image data, as
// opposed to a plain reference.
func isImageData(avatar string) bool {
	return strings.HasPrefix(avatar, "data:image/")
}
