// Package geofence decides whether a shop can deliver to a customer position.
package geofence

import (
	"fmt"
	"math"

	"go-marketplace/apperr"
)

const earthRadiusKm = 6371.0

// Reasons reported by Evaluate.
const (
	ReasonAvailable           = "available"
	ReasonOutsideServiceArea  = "outside_service_area"
	ReasonOutsideRadius       = "outside_radius"
	ReasonLocationUnavailable = "location_unavailable"
)

// Area is the platform service area: a square box around Center plus a default radius
type Area struct {
	CenterLat    float64
	CenterLng    float64
	MaxRadiusKm  float64
	BoxOffsetDeg float64
}

// Site is a delivery origin. A nil Lat/Lng means the shop never set its location.
type Site struct {
	ID       string
	Name     string
	Lat      *float64
	Lng      *float64
	RadiusKm *float64
}

// Result is the outcome of one evaluation
type Result struct {
	Eligible   bool     `json:"eligible"`
	DistanceKm *float64 `json:"distance"`
	Reason     string   `json:"reason"`
	Message    string   `json:"message"`
}

// Check pairs a site with its result.
type Check struct {
	ShopID   string `json:"shopId"`
	ShopName string `json:"shopName"`
	Result
}

// Evaluator applies an Area to customer positions. It holds no mutable state.
type Evaluator struct {
	area Area
}

func NewEvaluator(area Area) *Evaluator {
	return &Evaluator{area: area}
}

// ValidateCoordinates rejects non-finite or out-of-range positions.
func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return apperr.New(apperr.Validation, apperr.CodeInvalidCoordinates, "coordinates must be finite numbers")
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return apperr.New(apperr.Validation, apperr.CodeInvalidCoordinates, "coordinates out of range")
	}
	return nil
}

// InServiceArea reports whether the position lies inside the bounding box.
func (e *Evaluator) InServiceArea(lat, lng float64) bool {
	a := e.area
	return lat >= a.CenterLat-a.BoxOffsetDeg && lat <= a.CenterLat+a.BoxOffsetDeg &&
		lng >= a.CenterLng-a.BoxOffsetDeg && lng <= a.CenterLng+a.BoxOffsetDeg
}

// Evaluate decides whether site can deliver to (userLat, userLng).
func (e *Evaluator) Evaluate(userLat, userLng float64, site Site) (Result, error) {
	if err := ValidateCoordinates(userLat, userLng); err != nil {
		return Result{}, err
	}
	if site.Lat == nil || site.Lng == nil {
		return Result{Reason: ReasonLocationUnavailable, Message: "Shop location not available"}, nil
	}
	if !e.InServiceArea(userLat, userLng) {
		return Result{Reason: ReasonOutsideServiceArea, Message: "Not available for your location"}, nil
	}

	radius := e.area.MaxRadiusKm
	if site.RadiusKm != nil && *site.RadiusKm > 0 {
		radius = *site.RadiusKm
	}

	d := Distance(userLat, userLng, *site.Lat, *site.Lng)
	shown := math.Round(d*100) / 100
	if d <= radius {
		return Result{
			Eligible:   true,
			DistanceKm: &shown,
			Reason:     ReasonAvailable,
			Message:    fmt.Sprintf("Delivery available (%.1fkm away)", d),
		}, nil
	}
	return Result{
		DistanceKm: &shown,
		Reason:     ReasonOutsideRadius,
		Message:    fmt.Sprintf("Not available for your location (%.1fkm, limit %.1fkm)", d, radius),
	}, nil
}

// CheckAll evaluates every site and returns all checks plus the ineligible subset.
func (e *Evaluator) CheckAll(userLat, userLng float64, sites []Site) ([]Check, []Check, error) {
	checks := make([]Check, 0, len(sites))
	var unavailable []Check
	for _, s := range sites {
		res, err := e.Evaluate(userLat, userLng, s)
		if err != nil {
			return nil, nil, err
		}
		c := Check{ShopID: s.ID, ShopName: s.Name, Result: res}
		checks = append(checks, c)
		if !res.Eligible {
			unavailable = append(unavailable, c)
		}
	}
	return checks, unavailable, nil
}

// Distance is the great-circle distance in km.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(toRad(lat1))*math.Cos(toRad(lat2))
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
