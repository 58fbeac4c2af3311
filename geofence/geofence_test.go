package geofence

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-marketplace/apperr"
)

var area = Area{CenterLat: 12.4962, CenterLng: 78.5696, MaxRadiusKm: 5, BoxOffsetDeg: 0.045}

func ptr(v float64) *float64 { return &v }

func centerSite() Site {
	return Site{ID: "s1", Name: "Central", Lat: ptr(area.CenterLat), Lng: ptr(area.CenterLng)}
}

func TestEvaluateAtCenter(t *testing.T) {
	e := NewEvaluator(area)
	res, err := e.Evaluate(area.CenterLat, area.CenterLng, centerSite())
	require.NoError(t, err)
	assert.True(t, res.Eligible)
	assert.Equal(t, ReasonAvailable, res.Reason)
	require.NotNil(t, res.DistanceKm)
	assert.Equal(t, 0.0, *res.DistanceKm)
}

func TestEvaluateJustPastRadiusNorth(t *testing.T) {
	e := NewEvaluator(area)
	// inside the box but about 5.003 km away
	res, err := e.Evaluate(area.CenterLat+0.04499, area.CenterLng, centerSite())
	require.NoError(t, err)
	assert.False(t, res.Eligible)
	assert.Equal(t, ReasonOutsideRadius, res.Reason)
	require.NotNil(t, res.DistanceKm)
	assert.InDelta(t, 5.0, *res.DistanceKm, 0.01)
}

func TestEvaluateOutsideBoxEast(t *testing.T) {
	e := NewEvaluator(area)
	res, err := e.Evaluate(area.CenterLat, area.CenterLng+0.046, centerSite())
	require.NoError(t, err)
	assert.False(t, res.Eligible)
	assert.Equal(t, ReasonOutsideServiceArea, res.Reason)
	assert.Nil(t, res.DistanceKm)
}

func TestEvaluateShopRadiusOverride(t *testing.T) {
	e := NewEvaluator(area)
	site := centerSite()
	site.RadiusKm = ptr(1)

	res, err := e.Evaluate(area.CenterLat+0.02, area.CenterLng, site)
	require.NoError(t, err)
	assert.Equal(t, ReasonOutsideRadius, res.Reason)

	site.RadiusKm = ptr(3)
	res, err = e.Evaluate(area.CenterLat+0.02, area.CenterLng, site)
	require.NoError(t, err)
	assert.True(t, res.Eligible)
}

func TestEvaluateMissingLocation(t *testing.T) {
	e := NewEvaluator(area)
	res, err := e.Evaluate(area.CenterLat, area.CenterLng, Site{ID: "s2"})
	require.NoError(t, err)
	assert.False(t, res.Eligible)
	assert.Equal(t, ReasonLocationUnavailable, res.Reason)
	assert.Nil(t, res.DistanceKm)
}

func TestEvaluateInvalidCoordinates(t *testing.T) {
	e := NewEvaluator(area)
	for _, c := range [][2]float64{{math.NaN(), 0}, {0, math.Inf(1)}, {91, 0}, {0, -181}} {
		_, err := e.Evaluate(c[0], c[1], centerSite())
		assert.True(t, apperr.Is(err, apperr.CodeInvalidCoordinates), "%v", c)
	}
}

func TestCheckAll(t *testing.T) {
	e := NewEvaluator(area)
	far := Site{ID: "far", Lat: ptr(area.CenterLat + 0.044), Lng: ptr(area.CenterLng + 0.044)}
	checks, unavailable, err := e.CheckAll(area.CenterLat-0.01, area.CenterLng-0.01, []Site{centerSite(), far})
	require.NoError(t, err)
	assert.Len(t, checks, 2)
	require.Len(t, unavailable, 1)
	assert.Equal(t, "far", unavailable[0].ShopID)
}

func TestDistance(t *testing.T) {
	// one degree of latitude
	assert.InDelta(t, 111.19, Distance(0, 0, 1, 0), 0.01)
	assert.Equal(t, 0.0, Distance(10, 10, 10, 10))
}
