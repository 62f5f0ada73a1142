package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grapeapp/grape-backend/internal/domain"
	svcErr "github.com/grapeapp/grape-backend/internal/errors"
)

func errorBody(t *testing.T, err error) (int, ErrorResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	RespondError(c, err)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, c.IsAborted())
	return w.Code, body
}

func TestRespondError(t *testing.T) {
	code, body := errorBody(t, domain.ErrDuplicateLike)
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, body.Success)
	assert.Equal(t, "You have already liked this user", body.Message)

	code, body = errorBody(t, errors.New("pq: connection reset"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal server error", body.Message)
}

func TestRespondError_RedactsUpstream(t *testing.T) {
	up := svcErr.Upstream("identity provider error", errors.New("INVALID_API_KEY"))

	SetRedactErrors(false)
	_, body := errorBody(t, up)
	assert.Contains(t, body.Message, "INVALID_API_KEY")

	SetRedactErrors(true)
	t.Cleanup(func() { SetRedactErrors(false) })
	_, body = errorBody(t, up)
	assert.Equal(t, "identity provider error", body.Message)
}
