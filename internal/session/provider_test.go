package session_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/hsalif/penna/internal/localcache"
	"github.com/hsalif/penna/internal/session"
)

type recordingSubscriber struct {
	transitions []string
}

func (r *recordingSubscriber) SetIdentity(userID string) {
	r.transitions = append(r.transitions, userID)
}

func openCache(t *testing.T) *localcache.Cache {
	t.Helper()

	cache, err := localcache.Open(filepath.Join(t.TempDir(), "penna.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	return cache
}

func signInService(t *testing.T) *session.Service {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := session.NewMockRepository(ctrl)
	repo.EXPECT().
		GetUserByEmail(gomock.Any(), "ada@example.com").
		Return(&session.User{ID: "u1", Email: "ada@example.com", PasswordHash: hashOf(t, "pw")}, nil).
		AnyTimes()

	return session.NewService(repo, testSecret, time.Hour)
}

func TestProvider_RestoreWithoutToken(t *testing.T) {
	sub := &recordingSubscriber{}

	provider := session.NewProvider(signInService(t), openCache(t))
	provider.Register(sub)

	assert.True(t, provider.Loading())

	provider.Restore()

	assert.False(t, provider.Loading())
	assert.Nil(t, provider.Current())
	assert.Equal(t, []string{""}, sub.transitions, "initial resolution notifies once")
}

func TestProvider_SignInNotifiesOncePerTransition(t *testing.T) {
	sub := &recordingSubscriber{}

	provider := session.NewProvider(signInService(t), openCache(t))
	provider.Register(sub)
	provider.Restore()

	_, err := provider.SignIn(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	require.NotNil(t, provider.Current())
	assert.Equal(t, "u1", provider.Current().ID)

	// Signing in again as the same user is not a transition.
	_, err = provider.SignIn(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	assert.Equal(t, []string{"", "u1"}, sub.transitions)

	provider.SignOut()

	assert.Nil(t, provider.Current())
	assert.Equal(t, []string{"", "u1", ""}, sub.transitions)
}

func TestProvider_RestoresPersistedSession(t *testing.T) {
	cache := openCache(t)
	svc := signInService(t)

	first := session.NewProvider(svc, cache)
	first.Restore()

	_, err := first.SignIn(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	// A fresh process with the same cache resumes the session.
	sub := &recordingSubscriber{}
	second := session.NewProvider(svc, cache)
	second.Register(sub)
	second.Restore()

	require.NotNil(t, second.Current())
	assert.Equal(t, "u1", second.Current().ID)
	assert.Equal(t, []string{"u1"}, sub.transitions)
}

func TestProvider_SignOutClearsPersistedToken(t *testing.T) {
	cache := openCache(t)
	svc := signInService(t)

	provider := session.NewProvider(svc, cache)
	provider.Restore()

	_, err := provider.SignIn(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	provider.SignOut()

	second := session.NewProvider(svc, cache)
	second.Restore()

	assert.Nil(t, second.Current())
}

func TestProvider_UpdatePasswordRequiresSession(t *testing.T) {
	provider := session.NewProvider(signInService(t), openCache(t))
	provider.Restore()

	err := provider.UpdatePassword(context.Background(), "old", "new")
	assert.ErrorIs(t, err, session.ErrNotSignedIn)
}
