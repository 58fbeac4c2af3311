package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-marketplace/apperr"
	"go-marketplace/middleware"
	"go-marketplace/models"
	"go-marketplace/services"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

var validate = validator.New()

// handler carries what every controller shares
type handler struct {
	timeout time.Duration
}

func (h handler) context(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

// decode reads a JSON body into dst and runs its validate tags.
func decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			if strings.HasPrefix(typeErr.Field, "userLocation") {
				return invalidLocation()
			}
			return apperr.Invalid(fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type))
		}
		return apperr.Invalid("invalid input")
	}
	return check(dst)
}

func check(dst interface{}) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		f := fields[0]
		return apperr.Invalid(fmt.Sprintf("%s failed the %s check", f.Field(), f.Tag())).
			WithDetail("field", f.Field())
	}
	return apperr.Invalid(err.Error())
}

func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	return services.ParseID(mux.Vars(r)[name], name)
}

// page reads ?page and ?limit, clamping limit to 100.
func page(r *http.Request) models.Page {
	p := models.Page{Page: 1, Limit: defaultPageLimit}
	q := r.URL.Query()
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		p.Limit = n
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	return p
}

// coordinates reads ?latitude and ?longitude.
func coordinates(r *http.Request) (float64, float64, error) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("latitude"), 64)
	if err != nil {
		return 0, 0, apperr.New(apperr.Validation, apperr.CodeInvalidCoordinates, "latitude must be a number")
	}
	lng, err := strconv.ParseFloat(q.Get("longitude"), 64)
	if err != nil {
		return 0, 0, apperr.New(apperr.Validation, apperr.CodeInvalidCoordinates, "longitude must be a number")
	}
	return lat, lng, nil
}

func principal(r *http.Request) (*middleware.Principal, error) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		return nil, apperr.New(apperr.Authentication, apperr.CodeUnauthenticated, "authentication required")
	}
	return p, nil
}

func invalidLocation() error {
	return apperr.New(apperr.Validation, apperr.CodeInvalidLocation, "latitude and longitude must be numbers")
}

func invalid(message string) error { return apperr.Invalid(message) }
