package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"social-go/internal/apperr"
	"social-go/internal/services"
)

func TestRegisterRequiresExactlyOneContact(t *testing.T) {
	e := newEnv(t)

	_, err := e.auth.Register(e.ctx, services.RegisterInput{Username: "alice", Password: "correct horse"})
	require.Equal(t, 400, apperr.HTTPStatus(err))

	_, err = e.auth.Register(e.ctx, services.RegisterInput{
		Username: "alice", Email: "a@example.com", Phone: "+15551234567", Password: "correct horse",
	})
	require.Equal(t, 400, apperr.HTTPStatus(err))

	res, err := e.auth.Register(e.ctx, services.RegisterInput{Username: "alice", Email: "A@Example.com", Password: "correct horse"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.Equal(t, "a@example.com", res.User.Email)
	require.Empty(t, res.User.PasswordHash)
	require.NotNil(t, res.User.FriendIDs)

	_, err = e.auth.Register(e.ctx, services.RegisterInput{Username: "alice", Phone: "+15551234567", Password: "correct horse"})
	require.ErrorIs(t, err, services.ErrIdentityTaken)
}

func TestLoginAuthenticateLogout(t *testing.T) {
	e := newEnv(t)
	_, err := e.auth.Register(e.ctx, services.RegisterInput{Username: "bob", Phone: "+15557654321", Password: "hunter2hunter2"})
	require.NoError(t, err)

	_, err = e.auth.Login(e.ctx, services.LoginInput{Identifier: "bob", Password: "wrong-password"})
	require.ErrorIs(t, err, services.ErrInvalidCredentials)
	_, err = e.auth.Login(e.ctx, services.LoginInput{Identifier: "nobody", Password: "hunter2hunter2"})
	require.ErrorIs(t, err, services.ErrInvalidCredentials)

	res, err := e.auth.Login(e.ctx, services.LoginInput{Identifier: "+15557654321", Password: "hunter2hunter2"})
	require.NoError(t, err)

	user, claims, err := e.auth.Authenticate(e.ctx, res.Token)
	require.NoError(t, err)
	require.Equal(t, "bob", user.Username)
	require.Equal(t, user.ID, claims.UserID())

	require.NoError(t, e.auth.Logout(e.ctx, claims))
	_, _, err = e.auth.Authenticate(e.ctx, res.Token)
	require.ErrorIs(t, err, services.ErrInvalidToken)
	require.Equal(t, 401, apperr.HTTPStatus(err))

	_, _, err = e.auth.Authenticate(e.ctx, "not-a-jwt")
	require.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestProfileVisibility(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")

	p, err := e.users.GetProfile(e.ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.False(t, p.IsFriend)

	e.befriend(t, alice, bob)
	p, err = e.users.GetProfile(e.ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.True(t, p.IsFriend)

	me, err := e.users.GetMe(e.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, me.FriendIDs, 1)
}
