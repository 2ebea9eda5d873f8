package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoanghai1803/sportsignup/internal/storage"
)

func TestSetPreference_Validation(t *testing.T) {
	_, creds, prefs, _ := newTestServices(t)
	ctx := context.Background()

	_, err := creds.CreateAccount(ctx, "alice", "secret1")
	require.NoError(t, err)

	var verr *ValidationError
	require.ErrorAs(t, prefs.SetPreference(ctx, "alice", "   "), &verr)
	assert.Equal(t, "sport", verr.Field)

	require.ErrorAs(t, prefs.SetPreference(ctx, "al", "Golf"), &verr)
	assert.Equal(t, "username", verr.Field)
}

func TestSetPreference_Duplicate(t *testing.T) {
	_, creds, prefs, _ := newTestServices(t)
	ctx := context.Background()

	_, err := creds.CreateAccount(ctx, "alice", "secret1")
	require.NoError(t, err)
	require.NoError(t, prefs.SetPreference(ctx, "alice", "Basketball"))

	err = prefs.SetPreference(ctx, "alice", "Soccer")
	require.ErrorIs(t, err, storage.ErrDuplicatePreference)

	got, err := prefs.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Basketball", got[0].Sport)
}

func TestSetPreference_TrimsSport(t *testing.T) {
	_, creds, prefs, _ := newTestServices(t)
	ctx := context.Background()

	_, err := creds.CreateAccount(ctx, "alice", "secret1")
	require.NoError(t, err)
	require.NoError(t, prefs.SetPreference(ctx, "alice", "  Tennis "))

	p, err := prefs.Profile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Tennis", p.Sport)
}

func TestFindByUsername_Absent(t *testing.T) {
	_, _, prefs, _ := newTestServices(t)
	ctx := context.Background()

	for _, username := range []string{"nobody", "", "   "} {
		got, err := prefs.FindByUsername(ctx, username)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestFindByUsername_InjectionProbe(t *testing.T) {
	_, _, prefs, reg := newTestServices(t)
	ctx := context.Background()

	_, err := reg.Signup(ctx, SignupRequest{Username: "alice", Password: "secret1", Sport: "Basketball"})
	require.NoError(t, err)

	probes := []string{
		"x' UNION SELECT username,password FROM users--",
		"' OR '1'='1",
		"alice'; DROP TABLE sports;--",
	}
	for _, probe := range probes {
		got, err := prefs.FindByUsername(ctx, probe)
		require.NoError(t, err)
		assert.Empty(t, got, "probe %q leaked rows", probe)
	}

	// The table survived and still answers normal lookups.
	got, err := prefs.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestProfile_NotFound(t *testing.T) {
	_, _, prefs, _ := newTestServices(t)

	_, err := prefs.Profile(context.Background(), "nobody")
	require.ErrorIs(t, err, storage.ErrNotFound)
}
