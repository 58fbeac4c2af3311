package apperr

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, Validation.Status())
	assert.Equal(t, http.StatusUnauthorized, Authentication.Status())
	assert.Equal(t, http.StatusForbidden, Authorization.Status())
	assert.Equal(t, http.StatusNotFound, NotFound.Status())
	assert.Equal(t, http.StatusConflict, Conflict.Status())
	assert.Equal(t, http.StatusBadGateway, Upstream.Status())
	assert.Equal(t, http.StatusInternalServerError, Internal.Status())
}

func TestAsAndIs(t *testing.T) {
	base := New(Conflict, CodeAlreadyAssigned, "order already taken")
	wrapped := errors.Wrap(base, "accept")

	got := As(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, CodeAlreadyAssigned, got.Code)
	assert.True(t, Is(wrapped, CodeAlreadyAssigned))
	assert.False(t, Is(wrapped, CodeInvalidState))

	plain := As(errors.New("socket closed"))
	assert.Equal(t, Internal, plain.Kind)
	assert.Contains(t, plain.Error(), "socket closed")
}

func TestWithDetail(t *testing.T) {
	e := New(Validation, CodeDeliveryUnavailable, "no").WithDetail("unavailableShops", []string{"a"})
	assert.Equal(t, []string{"a"}, e.Details["unavailableShops"])
}
