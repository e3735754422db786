package service

import (
	"path/filepath"
	"testing"

	"smartretail-pos/internal/prefs"
	"smartretail-pos/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (AuthService, *prefs.Store) {
	t.Helper()

	db := newTestDB(t)
	session, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.json"))
	require.NoError(t, err)
	t.Setenv("JWT_SECRET", "test-secret")

	return NewAuthService(repository.NewUserRepo(db), session), session
}

func TestFirstRunRouting(t *testing.T) {
	svc, _ := newAuthService(t)

	registered, err := svc.HasRegisteredUser()
	require.NoError(t, err)
	assert.False(t, registered, "fresh install routes to registration")

	_, err = svc.Register("owner", "rahasia1", "Warung Bu Rina")
	require.NoError(t, err)

	registered, err = svc.HasRegisteredUser()
	require.NoError(t, err)
	assert.True(t, registered)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register("owner", "rahasia1", "Warung Bu Rina")
	require.NoError(t, err)

	_, err = svc.Register("owner", "lainlagi2", "Toko Lain")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestLoginPersistsSession(t *testing.T) {
	svc, session := newAuthService(t)

	_, err := svc.Register("owner", "rahasia1", "Warung Bu Rina")
	require.NoError(t, err)

	resp, err := svc.Login("owner", "rahasia1")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "owner", resp.User.Username)
	assert.Equal(t, "Warung Bu Rina", resp.User.StoreName)

	assert.Equal(t, resp.Token, session.SessionToken())
	assert.Equal(t, "owner", session.DisplayName())

	require.NoError(t, svc.Logout())
	assert.Empty(t, session.SessionToken())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register("owner", "rahasia1", "Warung Bu Rina")
	require.NoError(t, err)

	_, err = svc.Login("owner", "salah")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login("nobody", "rahasia1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newAuthService(t)

	user, err := svc.Register("owner", "rahasia1", "Warung Bu Rina")
	require.NoError(t, err)

	err = svc.ChangePassword(user.ID, "salah", "barubanget")
	assert.ErrorIs(t, err, ErrWrongPassword)

	require.NoError(t, svc.ChangePassword(user.ID, "rahasia1", "barubanget"))

	_, err = svc.Login("owner", "barubanget")
	assert.NoError(t, err)
	_, err = svc.Login("owner", "rahasia1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
