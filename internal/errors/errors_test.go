package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{NotFound("missing"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{Unauthorized("no token"), http.StatusUnauthorized},
		{Forbidden("bad token"), http.StatusForbidden},
		{TooManyRequests("slow down"), http.StatusTooManyRequests},
		{Upstream("provider down", errors.New("dial tcp")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NotFound("user not found")), http.StatusNotFound},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatus(tt.err), tt.err.Error())
	}
}

func TestKindOf_DeadlineIsUpstream(t *testing.T) {
	err := fmt.Errorf("send code: %w", context.DeadlineExceeded)
	assert.Equal(t, KindUpstream, KindOf(err))
}

func TestPublicMessage(t *testing.T) {
	up := Upstream("identity provider error", errors.New("INVALID_API_KEY"))

	assert.Equal(t, "identity provider error", PublicMessage(up, true))
	assert.Equal(t, "identity provider error: INVALID_API_KEY", PublicMessage(up, false))
	assert.Equal(t, "internal server error", PublicMessage(Internal("db", errors.New("conn reset")), false))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("raw"), false))
	assert.Equal(t, "You have already liked this user", PublicMessage(Conflict("You have already liked this user"), true))
}

func TestErrorsIsOnSentinel(t *testing.T) {
	sentinel := NotFound("like not found")
	wrapped := fmt.Errorf("remove like: %w", sentinel)
	assert.True(t, errors.Is(wrapped, sentinel))
	assert.False(t, errors.Is(wrapped, NotFound("like not found")))
}
