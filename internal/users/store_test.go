package users

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config", "users.json")
	store, err := NewStore(path, zerolog.Nop(), WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)
	return store, path
}

func TestNewStore_BootstrapsAdmin(t *testing.T) {
	store, path := newTestStore(t)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var records map[string]Record
	require.NoError(t, json.Unmarshal(data, &records))
	require.Contains(t, records, AdminUsername)
	assert.Equal(t, "1", records[AdminUsername].ID)

	user, err := store.Authenticate("admin", "admin")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())
}

func TestStore_Authenticate(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Authenticate("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = store.Authenticate("nobody", "admin")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestStore_AddAssignsNextID(t *testing.T) {
	store, _ := newTestStore(t)

	alice, err := store.Add("alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "2", alice.ID)

	bob, err := store.Add("bob", "pw2")
	require.NoError(t, err)
	assert.Equal(t, "3", bob.ID)

	_, err = store.Add("alice", "other")
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = store.Add("  ", "pw")
	assert.Error(t, err)

	users, err := store.List()
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, []string{"admin", "alice", "bob"}, []string{users[0].Username, users[1].Username, users[2].Username})

	got, err := store.Authenticate("bob", "pw2")
	require.NoError(t, err)
	assert.False(t, got.IsAdmin())
}

func TestStore_DeleteRules(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Add("alice", "pw")
	require.NoError(t, err)

	assert.ErrorIs(t, store.Delete(AdminUsername), ErrAdminUndeletable)
	assert.ErrorIs(t, store.Delete("ghost"), ErrUserNotFound)
	require.NoError(t, store.Delete("alice"))

	_, err = store.Get("alice")
	assert.ErrorIs(t, err, ErrUserNotFound)

	// ids are never reused below the current maximum
	carol, err := store.Add("carol", "pw")
	require.NoError(t, err)
	assert.Equal(t, "2", carol.ID)
}

func TestStore_ChangePassword(t *testing.T) {
	store, _ := newTestStore(t)

	require.NoError(t, store.ChangePassword(AdminUsername, "s3cret"))
	_, err := store.Authenticate("admin", "admin")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = store.Authenticate("admin", "s3cret")
	assert.NoError(t, err)

	assert.ErrorIs(t, store.ChangePassword("ghost", "x"), ErrUserNotFound)
	assert.Error(t, store.ChangePassword(AdminUsername, ""))
}

func TestStore_ExistingFileIsKept(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	data, err := json.Marshal(map[string]Record{"ops": {PasswordHash: string(hash), ID: "7"}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	store, err := NewStore(path, zerolog.Nop(), WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, err)

	_, err = store.Get(AdminUsername)
	assert.ErrorIs(t, err, ErrUserNotFound, "admin is only bootstrapped for a missing file")

	user, err := store.Add("dev", "pw")
	require.NoError(t, err)
	assert.Equal(t, "8", user.ID)
}

func TestStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewStore(path, zerolog.Nop())
	assert.Error(t, err)
}
