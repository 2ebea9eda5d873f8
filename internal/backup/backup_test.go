package backup

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hoanghai1803/sportsignup/internal/service"
	"github.com/hoanghai1803/sportsignup/internal/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()

	db, err := storage.OpenDatabase(":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.RunMigrations(db))
	return storage.NewStore(db)
}

func seed(t *testing.T, store *storage.Store, users map[string]string) *service.Credentials {
	t.Helper()

	creds, err := service.NewCredentials(store, bcrypt.MinCost)
	require.NoError(t, err)
	reg := service.NewRegistrar(store, creds)
	for username, sport := range users {
		_, err := reg.Signup(context.Background(), service.SignupRequest{
			Username: username, Password: "secret1", Sport: sport,
		})
		require.NoError(t, err)
	}
	return creds
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t)
	seed(t, src, map[string]string{"alice": "Basketball", "bobby": "Tennis"})

	var buf bytes.Buffer
	require.NoError(t, Export(ctx, src, &buf))

	dst := newTestStore(t)
	sum, err := Import(ctx, dst, &buf)
	require.NoError(t, err)
	assert.Equal(t, Summary{Users: 2, Preferences: 2}, sum)

	// Restored hashes still verify.
	creds, err := service.NewCredentials(dst, bcrypt.MinCost)
	require.NoError(t, err)
	ok, err := creds.VerifyCredentials(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.True(t, ok)

	prefs, err := dst.FindSportsByUsername(ctx, "bobby")
	require.NoError(t, err)
	require.Len(t, prefs, 1)
	assert.Equal(t, "Tennis", prefs[0].Sport)
}

func TestDecode_Rejects(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	h := string(hash)

	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: `!!python/object:os.system ["id"]`},
		{name: "unknown top-level field", doc: `{"version":1,"users":[],"preferences":[],"__class__":"x"}`},
		{name: "unknown user field", doc: `{"version":1,"users":[{"username":"alice","password_hash":"` + h + `","admin":true}],"preferences":[]}`},
		{name: "wrong version", doc: `{"version":2,"users":[],"preferences":[]}`},
		{name: "missing version", doc: `{"users":[],"preferences":[]}`},
		{name: "plaintext password", doc: `{"version":1,"users":[{"username":"alice","password_hash":"secret1"}],"preferences":[]}`},
		{name: "truncated hash", doc: `{"version":1,"users":[{"username":"alice","password_hash":"` + h[:len(h)-1] + `"}],"preferences":[]}`},
		{name: "padded hash", doc: `{"version":1,"users":[{"username":"alice","password_hash":"` + h + `x"}],"preferences":[]}`},
		{name: "short username", doc: `{"version":1,"users":[{"username":"al","password_hash":"` + h + `"}],"preferences":[]}`},
		{name: "duplicate user", doc: `{"version":1,"users":[{"username":"alice","password_hash":"` + h + `"},{"username":"alice","password_hash":"` + h + `"}],"preferences":[]}`},
		{name: "empty sport", doc: `{"version":1,"users":[],"preferences":[{"username":"alice","sport":" "}]}`},
		{name: "trailing data", doc: `{"version":1,"users":[],"preferences":[]} {"version":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDocument), "got %v", err)
		})
	}
}

func TestImport_ConflictRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	seed(t, store, map[string]string{"alice": "Basketball"})

	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	doc := `{"version":1,"users":[` +
		`{"username":"carol","password_hash":"` + string(hash) + `"},` +
		`{"username":"alice","password_hash":"` + string(hash) + `"}` +
		`],"preferences":[]}`

	_, err = Import(ctx, store, strings.NewReader(doc))
	require.ErrorIs(t, err, storage.ErrDuplicateUsername)

	exists, err := store.UserExists(ctx, "carol")
	require.NoError(t, err)
	assert.False(t, exists, "partial import must roll back")
}

func TestImport_PreferenceForUnknownUser(t *testing.T) {
	store := newTestStore(t)

	doc := `{"version":1,"users":[],"preferences":[{"username":"ghost","sport":"Chess"}]}`
	_, err := Import(context.Background(), store, strings.NewReader(doc))
	require.ErrorIs(t, err, storage.ErrUnknownUser)
}
