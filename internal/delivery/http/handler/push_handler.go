package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grapeapp/grape-backend/internal/usecase/notification"
)

type PushHandler struct {
	notificationUseCase *notification.NotificationUseCase
}

func NewPushHandler(notificationUseCase *notification.NotificationUseCase) *PushHandler {
	return &PushHandler{
		notificationUseCase: notificationUseCase,
	}
}

// Subscribe handles POST /push/subscribe
// @Summary Register web push subscription
// @Tags push
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body notification.SubscribeRequest true "Browser PushSubscription"
// @Success 201 {object} SuccessResponse{data=domain.PushSubscription}
// @Failure 400 {object} ErrorResponse
// @Router /push/subscribe [post]
func (h *PushHandler) Subscribe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req notification.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "endpoint and keys are required")
		return
	}

	sub, err := h.notificationUseCase.Subscribe(c.Request.Context(), userID, &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Subscribed to push notifications", sub)
}

// VapidPublicKey handles GET /push/vapid-public-key
// @Summary VAPID public key
// @Tags push
// @Produce json
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /push/vapid-public-key [get]
func (h *PushHandler) VapidPublicKey(c *gin.Context) {
	key, err := h.notificationUseCase.VapidPublicKey()
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", gin.H{"publicKey": key})
}
