package services

import (
	"context"
	"errors"
	"testing"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend unavailable")

type favoriteFixture struct {
	svc        *FavoriteService
	favorites  *fakeFavorites
	properties *fakeProperties
	events     *countingRecorder
}

func newFavoriteFixture(t *testing.T) *favoriteFixture {
	t.Helper()
	c, _ := newTestCache(t)
	f := &favoriteFixture{properties: newFakeProperties(), events: newCountingRecorder()}
	f.favorites = newFakeFavorites(f.properties)
	f.svc = NewFavoriteService(f.favorites, f.properties, c, f.events)
	return f
}

func TestToggleFlipsMembership(t *testing.T) {
	f := newFavoriteFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	prop := f.properties.add(models.Property{Title: "prop-1", Published: true})

	favorited, ids, err := f.svc.Toggle(ctx, userID, prop)
	require.NoError(t, err)
	assert.True(t, favorited)
	assert.Equal(t, []uuid.UUID{prop}, ids)

	favorited, ids, err = f.svc.Toggle(ctx, userID, prop)
	require.NoError(t, err)
	assert.False(t, favorited)
	assert.Empty(t, ids)
	assert.Equal(t, 1, f.events.writes["add:success"])
	assert.Equal(t, 1, f.events.writes["remove:success"])
}

func TestFailedToggleLeavesSetUnchanged(t *testing.T) {
	f := newFavoriteFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	prop := f.properties.add(models.Property{Title: "prop-1", Published: true})
	require.NoError(t, f.svc.Add(ctx, userID, prop))

	f.favorites.failWrites = true
	_, _, err := f.svc.Toggle(ctx, userID, prop)
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, 1, f.events.writes["remove:error"])

	ids, err := f.svc.IDs(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{prop}, ids)
}

func TestAddRejectsUnknownOrUnpublished(t *testing.T) {
	f := newFavoriteFixture(t)
	ctx := context.Background()
	draft := f.properties.add(models.Property{Title: "Draft", Published: false})

	assert.ErrorIs(t, f.svc.Add(ctx, uuid.New(), draft), ErrPropertyNotFound)
	assert.ErrorIs(t, f.svc.Add(ctx, uuid.New(), uuid.New()), ErrPropertyNotFound)
}

func TestAddPropagatesLookupFailure(t *testing.T) {
	f := newFavoriteFixture(t)
	prop := f.properties.add(models.Property{Title: "prop-1", Published: true})
	f.properties.findErr = errBackend

	err := f.svc.Add(context.Background(), uuid.New(), prop)
	assert.ErrorIs(t, err, errBackend)
	assert.NotErrorIs(t, err, ErrPropertyNotFound)
}

func TestIDsReadThroughCache(t *testing.T) {
	f := newFavoriteFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	prop := f.properties.add(models.Property{Title: "Loft", Published: true})

	ids, err := f.svc.IDs(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	// A write behind the service's back is not visible until the cache is invalidated.
	require.NoError(t, f.favorites.Add(ctx, userID, prop))
	ids, _ = f.svc.IDs(ctx, userID)
	assert.Empty(t, ids)

	require.NoError(t, f.svc.Clear(ctx, userID))
	require.NoError(t, f.svc.Add(ctx, userID, prop))
	ids, _ = f.svc.IDs(ctx, userID)
	assert.Equal(t, []uuid.UUID{prop}, ids)

	properties, err := f.svc.Properties(ctx, userID)
	require.NoError(t, err)
	require.Len(t, properties, 1)
	assert.Equal(t, "Loft", properties[0].Title)
}
