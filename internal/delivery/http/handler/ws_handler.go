package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/grapeapp/grape-backend/internal/infrastructure/realtime"
	"github.com/grapeapp/grape-backend/internal/logger"
	"github.com/grapeapp/grape-backend/internal/usecase/auth"
)

type WSHandler struct {
	hub      *realtime.Hub
	tokens   *auth.TokenService
	upgrader websocket.Upgrader
}

// NewWSHandler accepts browser connections from allowedOrigins; "*" allows any origin.
func NewWSHandler(hub *realtime.Hub, tokens *auth.TokenService, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// Connect handles GET /ws
// @Summary Realtime notifications
// @Description Upgrade to a websocket that streams like, match, message and unmatch events
// @Tags realtime
// @Param token query string true "Session token"
// @Success 101
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /ws [get]
func (h *WSHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if token == "" {
		RespondError(c, auth.ErrMissingToken)
		return
	}

	claims, err := h.tokens.Parse(token)
	if err != nil {
		RespondError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader already wrote the HTTP error.
		logger.Warn("websocket upgrade failed", "user_id", claims.UserID, "error", err)
		return
	}
	h.hub.Attach(conn, claims.UserID)
}
