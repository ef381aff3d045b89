package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Marga-Ghale/ora-projects-backend/internal/types"
)

func TestAuth_RegisterLoginResolve(t *testing.T) {
	f := newFixture(t, nil)

	user, access, refresh, err := f.svc.Auth.Register(f.ctx, "Ada", "Ada@Example.com", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEmpty(t, access)
	assert.NotEmpty(t, refresh)

	_, _, _, err = f.svc.Auth.Register(f.ctx, "Ada", "ada@example.com", "other")
	assert.ErrorIs(t, err, ErrConflict)

	_, _, _, err = f.svc.Auth.Login(f.ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, access, _, err = f.svc.Auth.Login(f.ctx, "ada@example.com", "s3cret!")
	require.NoError(t, err)

	principal, err := f.svc.Auth.ResolvePrincipal(f.ctx, access)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.ID)
	assert.Equal(t, types.GlobalUser, principal.Role)

	_, err = f.svc.Auth.ResolvePrincipal(f.ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuth_RefreshTokenSingleUse(t *testing.T) {
	f := newFixture(t, nil)
	_, _, refresh, err := f.svc.Auth.Register(f.ctx, "Ada", "ada@example.com", "s3cret!")
	require.NoError(t, err)

	_, next, err := f.svc.Auth.RefreshToken(f.ctx, refresh)
	require.NoError(t, err)
	assert.NotEqual(t, refresh, next)

	_, _, err = f.svc.Auth.RefreshToken(f.ctx, refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
