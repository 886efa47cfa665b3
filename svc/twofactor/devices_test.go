package twofactor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servercraft/authkit/svc/twofactor"
)

func TestDeviceManagerIssue(t *testing.T) {
	t.Parallel()

	t.Run("stores only the token hash", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		store := twofactor.NewMemoryStore()
		dm := twofactor.NewDeviceManager(store, twofactor.WithDeviceClock(clock.Now))
		ctx := context.Background()

		token, err := dm.Issue(ctx, "user-1")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		devices, err := store.ListTrustedDevices(ctx, "user-1")
		require.NoError(t, err)
		require.Len(t, devices, 1)
		assert.NotEqual(t, token, devices[0].TokenHash)
		assert.Equal(t, clock.Now().Add(30*24*time.Hour), devices[0].ExpiresAt)
	})

	t.Run("tokens are unique", func(t *testing.T) {
		t.Parallel()

		dm := twofactor.NewDeviceManager(twofactor.NewMemoryStore())
		ctx := context.Background()

		a, err := dm.Issue(ctx, "user-1")
		require.NoError(t, err)
		b, err := dm.Issue(ctx, "user-1")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestDeviceManagerValidate(t *testing.T) {
	t.Parallel()

	t.Run("accepts an unexpired token", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		dm := twofactor.NewDeviceManager(twofactor.NewMemoryStore(), twofactor.WithDeviceClock(clock.Now))
		ctx := context.Background()

		token, err := dm.Issue(ctx, "user-1")
		require.NoError(t, err)

		clock.Advance(29 * 24 * time.Hour)
		ok, err := dm.Validate(ctx, "user-1", token)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("rejects at the expiry instant", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		dm := twofactor.NewDeviceManager(twofactor.NewMemoryStore(), twofactor.WithDeviceClock(clock.Now))
		ctx := context.Background()

		token, err := dm.Issue(ctx, "user-1")
		require.NoError(t, err)

		clock.Advance(30 * 24 * time.Hour)
		ok, err := dm.Validate(ctx, "user-1", token)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("expiry is absolute, not sliding", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		dm := twofactor.NewDeviceManager(twofactor.NewMemoryStore(),
			twofactor.WithDeviceClock(clock.Now),
			twofactor.WithDeviceTokenTTL(time.Hour),
		)
		ctx := context.Background()

		token, err := dm.Issue(ctx, "user-1")
		require.NoError(t, err)

		// Validating halfway through the lifetime must not push expiry out.
		clock.Advance(30 * time.Minute)
		ok, err := dm.Validate(ctx, "user-1", token)
		require.NoError(t, err)
		require.True(t, ok)

		clock.Advance(31 * time.Minute)
		ok, err = dm.Validate(ctx, "user-1", token)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("rejects unknown token and wrong identity", func(t *testing.T) {
		t.Parallel()

		dm := twofactor.NewDeviceManager(twofactor.NewMemoryStore())
		ctx := context.Background()

		token, err := dm.Issue(ctx, "user-1")
		require.NoError(t, err)

		ok, err := dm.Validate(ctx, "user-1", "not-a-token")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = dm.Validate(ctx, "user-2", token)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = dm.Validate(ctx, "user-1", "")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("prunes expired grants on sight", func(t *testing.T) {
		t.Parallel()

		clock := newTestClock()
		store := twofactor.NewMemoryStore()
		dm := twofactor.NewDeviceManager(store,
			twofactor.WithDeviceClock(clock.Now),
			twofactor.WithDeviceTokenTTL(time.Hour),
		)
		ctx := context.Background()

		_, err := dm.Issue(ctx, "user-1")
		require.NoError(t, err)
		clock.Advance(2 * time.Hour)
		fresh, err := dm.Issue(ctx, "user-1")
		require.NoError(t, err)

		ok, err := dm.Validate(ctx, "user-1", fresh)
		require.NoError(t, err)
		require.True(t, ok)

		devices, err := store.ListTrustedDevices(ctx, "user-1")
		require.NoError(t, err)
		assert.Len(t, devices, 1)
	})
}

func TestDeviceManagerRevokeAll(t *testing.T) {
	t.Parallel()

	dm := twofactor.NewDeviceManager(twofactor.NewMemoryStore())
	ctx := context.Background()

	tokenA, err := dm.Issue(ctx, "user-1")
	require.NoError(t, err)
	_, err = dm.Issue(ctx, "user-1")
	require.NoError(t, err)

	count, err := dm.RevokeAll(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	ok, err := dm.Validate(ctx, "user-1", tokenA)
	require.NoError(t, err)
	assert.False(t, ok)

	active, err := dm.CountActive(ctx, "user-1")
	require.NoError(t, err)
	assert.Zero(t, active)
}
