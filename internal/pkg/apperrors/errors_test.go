package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := map[ErrorType]int{
		ErrInvalidRequest: http.StatusBadRequest,
		ErrAuthFailed:     http.StatusUnauthorized,
		ErrForbidden:      http.StatusForbidden,
		ErrInvalidNonce:   http.StatusForbidden,
		ErrNotFound:       http.StatusNotFound,
		ErrReadOnly:       http.StatusServiceUnavailable,
		ErrInternal:       http.StatusInternalServerError,
	}
	for typ, status := range cases {
		assert.Equal(t, status, New(typ, "x", nil).HTTPStatus, string(typ))
	}
}

func TestWrapKeepsAppErrors(t *testing.T) {
	orig := NewNotFound("Product not found")
	wrapped := fmt.Errorf("lookup: %w", orig)

	assert.Same(t, orig, Wrap(wrapped))
	assert.True(t, IsType(wrapped, ErrNotFound))

	plain := Wrap(errors.New("boom"))
	assert.Equal(t, ErrInternal, plain.Type)
	assert.Nil(t, Wrap(nil))
}
