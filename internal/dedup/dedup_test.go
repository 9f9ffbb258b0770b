package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/leaseline/leaseline/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMemoryStore_AdmitOnce(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	ok, err := store.Admit(ctx, 1, "msg-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Admit(ctx, 1, "msg-1")
	require.NoError(t, err)
	assert.False(t, ok, "second delivery is refused")

	ok, err = store.Admit(ctx, 2, "msg-1")
	require.NoError(t, err)
	assert.True(t, ok, "same message id under another tenant is distinct")
}

func TestMemoryStore_ForgetReadmits(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	ok, err := store.Admit(ctx, 1, "msg-1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Forget(ctx, 1, "msg-1"))

	ok, err = store.Admit(ctx, 1, "msg-1")
	require.NoError(t, err)
	assert.True(t, ok, "forgotten message is admitted again")
}

func TestMemoryStore_UnavailableNeverAdmits(t *testing.T) {
	store := NewMemoryStore()
	store.Fail = errors.New("store down")

	ok, err := store.Admit(context.Background(), 1, "msg-1")
	assert.Error(t, err)
	assert.False(t, ok, "an unreachable store must not admit by default")
}

func newGormStore(t *testing.T) Store {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, conn.AutoMigrate(&ProcessedMessage{}))
	return NewGormStore(conn, clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
}

func TestGormStore_AdmitOnce(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()

	ok, err := store.Admit(ctx, 1, "msg-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Admit(ctx, 1, "msg-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGormStore_ForgetReadmits(t *testing.T) {
	store := newGormStore(t)
	ctx := context.Background()

	ok, err := store.Admit(ctx, 1, "msg-1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Forget(ctx, 1, "msg-1"))

	ok, err = store.Admit(ctx, 1, "msg-1")
	require.NoError(t, err)
	assert.True(t, ok)
}
