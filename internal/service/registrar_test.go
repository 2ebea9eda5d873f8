package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/hoanghai1803/sportsignup/internal/storage"
)

func TestSignup(t *testing.T) {
	store, creds, prefs, reg := newTestServices(t)
	ctx := context.Background()

	res, err := reg.Signup(ctx, SignupRequest{Username: " alice ", Password: "secret1", Sport: " Basketball "})
	require.NoError(t, err)
	assert.Equal(t, "alice", res.User.Username)
	assert.Positive(t, res.User.ID)
	assert.Equal(t, "Basketball", res.Preference.Sport)

	ok, err := creds.VerifyCredentials(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := prefs.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Basketball", got[0].Sport)

	exists, err := store.UserExists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSignup_Validation(t *testing.T) {
	_, _, _, reg := newTestServices(t)

	tests := []struct {
		name    string
		req     SignupRequest
		wantMsg string
	}{
		{name: "missing sport", req: SignupRequest{Username: "alice", Password: "secret1"}, wantMsg: "All fields are required"},
		{name: "missing password", req: SignupRequest{Username: "alice", Sport: "Golf"}, wantMsg: "All fields are required"},
		{name: "blank username", req: SignupRequest{Username: "  ", Password: "secret1", Sport: "Golf"}, wantMsg: "All fields are required"},
		{name: "short username", req: SignupRequest{Username: "al", Password: "secret1", Sport: "Golf"}, wantMsg: "Username must be at least 3 characters"},
		{name: "short password", req: SignupRequest{Username: "alice", Password: "12345", Sport: "Golf"}, wantMsg: "Password must be at least 6 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Signup(context.Background(), tt.req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantMsg, verr.Message)
		})
	}
}

func TestSignup_DuplicateUsername(t *testing.T) {
	_, _, _, reg := newTestServices(t)
	ctx := context.Background()

	_, err := reg.Signup(ctx, SignupRequest{Username: "alice", Password: "secret1", Sport: "Basketball"})
	require.NoError(t, err)

	_, err = reg.Signup(ctx, SignupRequest{Username: "alice", Password: "secret2", Sport: "Soccer"})
	require.ErrorIs(t, err, storage.ErrDuplicateUsername)
}

func TestSignup_BusyDatabase(t *testing.T) {
	store := newLockedStore(t)
	creds, err := NewCredentials(store, bcrypt.MinCost)
	require.NoError(t, err)
	reg := NewRegistrar(store, creds)

	_, err = reg.Signup(context.Background(), SignupRequest{Username: "alice", Password: "secret1", Sport: "Basketball"})
	require.ErrorIs(t, err, storage.ErrStorageUnavailable)
}

func TestSignup_NoPartialAccountOnPreferenceFailure(t *testing.T) {
	store, creds, _, reg := newTestServices(t)
	ctx := context.Background()

	// A stray preference row for a user that does not exist yet cannot be
	// created through the API, so plant it with foreign keys switched off.
	_, err := store.DB().Exec(`PRAGMA foreign_keys = OFF`)
	require.NoError(t, err)
	_, err = store.DB().Exec(`INSERT INTO sports (username, sport) VALUES ('orphan', 'Chess')`)
	require.NoError(t, err)
	_, err = store.DB().Exec(`PRAGMA foreign_keys = ON`)
	require.NoError(t, err)

	_, err = reg.Signup(ctx, SignupRequest{Username: "orphan", Password: "secret1", Sport: "Golf"})
	require.ErrorIs(t, err, storage.ErrDuplicatePreference)

	exists, err := store.UserExists(ctx, "orphan")
	require.NoError(t, err)
	assert.False(t, exists, "account must be rolled back with the failed preference")

	ok, err := creds.VerifyCredentials(ctx, "orphan", "secret1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignup_ConcurrentSameUsername(t *testing.T) {
	_, _, prefs, reg := newTestServices(t)
	ctx := context.Background()

	const n = 16
	var succeeded, duplicates atomic.Int32

	var g errgroup.Group
	for i := range n {
		g.Go(func() error {
			_, err := reg.Signup(ctx, SignupRequest{
				Username: "same_user",
				Password: "secret1",
				Sport:    fmt.Sprintf("Sport %d", i),
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, storage.ErrDuplicateUsername):
				duplicates.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(n-1), duplicates.Load())

	got, err := prefs.FindByUsername(ctx, "same_user")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCreateAccount_ConcurrentSameUsername(t *testing.T) {
	_, creds, _, _ := newTestServices(t)
	ctx := context.Background()

	const n = 16
	var succeeded, duplicates atomic.Int32

	var g errgroup.Group
	for range n {
		g.Go(func() error {
			_, err := creds.CreateAccount(ctx, "same_user", "secret1")
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, storage.ErrDuplicateUsername):
				duplicates.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(n-1), duplicates.Load())
}
