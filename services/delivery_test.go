package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-marketplace/apperr"
	"go-marketplace/geofence"
	"go-marketplace/models"
)

func TestCheckAvailability(t *testing.T) {
	f := newFixture(t)
	near := f.addShop("near", 0.01)
	f.addShop("far", 0.08)
	require.NoError(t, f.store.InsertShop(f.ctx, &models.Shop{Name: "nowhere", Email: "nowhere@example.com"}))
	svc := NewDeliveryService(f.store, geofence.NewEvaluator(testArea))

	all, err := svc.CheckAvailability(f.ctx, testArea.CenterLat, testArea.CenterLng, nil)
	require.NoError(t, err)
	assert.True(t, all.InServiceArea)
	assert.Len(t, all.Checks, 3)
	assert.Equal(t, 1, all.AvailableShops)
	assert.Len(t, all.UnavailableShops, 2)

	one, err := svc.CheckAvailability(f.ctx, testArea.CenterLat, testArea.CenterLng, &near.ID)
	require.NoError(t, err)
	require.Len(t, one.Checks, 1)
	assert.True(t, one.Checks[0].Eligible)
	require.NotNil(t, one.Checks[0].DistanceKm)
	assert.InDelta(t, 1.11, *one.Checks[0].DistanceKm, 0.01)

	outside, err := svc.CheckAvailability(f.ctx, 13.5, 80.2, &near.ID)
	require.NoError(t, err)
	assert.False(t, outside.InServiceArea)
	assert.Equal(t, geofence.ReasonOutsideServiceArea, outside.Checks[0].Reason)

	_, err = svc.CheckAvailability(f.ctx, 95, 0, nil)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidCoordinates))
}

func TestCheckProduct(t *testing.T) {
	f := newFixture(t)
	shop := f.addShop("near", 0.01)
	p := f.addProduct(shop, "Pickle", 90, 3)
	svc := NewDeliveryService(f.store, geofence.NewEvaluator(testArea))

	res, err := svc.CheckProduct(f.ctx, p.ID, testArea.CenterLat, testArea.CenterLng)
	require.NoError(t, err)
	assert.True(t, res.Eligible)
	assert.Equal(t, shop.ID.Hex(), res.ShopID)
	assert.Equal(t, geofence.ReasonAvailable, res.Reason)
}
