package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-ide-api/internal/models"
	"github.com/noah-isme/gema-ide-api/internal/repository"
)

func TestAuthServiceMe(t *testing.T) {
	db := newTestDB(t)
	name := "Grace"
	require.NoError(t, db.Create(&models.Profile{UserID: "u-admin", DisplayName: &name}).Error)
	require.NoError(t, db.Create(&models.UserRole{UserID: "u-admin", Role: models.RoleAdmin}).Error)

	svc := NewAuthService(repository.NewProfileRepository(db), nil, testLogger())

	me, err := svc.Me(context.Background(), Identity{UserID: "u-admin", Email: "grace@example.com"})
	require.NoError(t, err)
	require.True(t, me.IsAdmin)
	require.Equal(t, "Grace", *me.DisplayName)
	require.Equal(t, "grace@example.com", me.Email)

	stranger, err := svc.Me(context.Background(), Identity{UserID: "u-new"})
	require.NoError(t, err)
	require.False(t, stranger.IsAdmin)
	require.Nil(t, stranger.DisplayName)

	claimAdmin, err := svc.Me(context.Background(), Identity{UserID: "u-new", Role: "ADMIN"})
	require.NoError(t, err)
	require.True(t, claimAdmin.IsAdmin)
}

func TestAuthServiceSignOutRevokesUntilExpiry(t *testing.T) {
	db := newTestDB(t)
	client, server := newTestRedis(t)
	svc := NewAuthService(repository.NewProfileRepository(db), client, testLogger()).(*authService)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	require.ErrorIs(t, svc.SignOut(ctx, " ", now.Add(time.Hour)), ErrTokenNotRevocable)

	require.NoError(t, svc.SignOut(ctx, "jti-1", now.Add(30*time.Minute)))
	revoked, err := svc.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.True(t, revoked)
	require.Equal(t, 30*time.Minute, server.TTL(revokedKey("jti-1")))

	require.NoError(t, svc.SignOut(ctx, "jti-old", now.Add(-time.Minute)))
	revoked, err = svc.IsRevoked(ctx, "jti-old")
	require.NoError(t, err)
	require.False(t, revoked, "an expired token needs no denylist entry")

	server.FastForward(31 * time.Minute)
	revoked, err = svc.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	require.False(t, revoked)
}
