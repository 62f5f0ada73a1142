package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grapeapp/grape-backend/internal/usecase/chat"
)

type ChatHandler struct {
	chatUseCase *chat.ChatUseCase
}

func NewChatHandler(chatUseCase *chat.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

// SendMessage handles POST /chat/send
// @Summary Send message
// @Description Send a message to a matched user
// @Tags chat
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body chat.SendMessageRequest true "Message"
// @Success 201 {object} SuccessResponse{data=domain.Message}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /chat/send [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req chat.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "receiverId and content are required")
		return
	}

	msg, err := h.chatUseCase.Send(c.Request.Context(), userID, &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Message sent", msg)
}

// GetHistory handles GET /chat/history/:otherUserId
// @Summary Chat history
// @Tags chat
// @Security BearerAuth
// @Produce json
// @Param otherUserId path string true "Other user ID"
// @Success 200 {object} SuccessResponse{data=[]domain.Message}
// @Router /chat/history/{otherUserId} [get]
func (h *ChatHandler) GetHistory(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	otherID, ok := uuidParam(c, "otherUserId")
	if !ok {
		return
	}

	msgs, err := h.chatUseCase.History(c.Request.Context(), userID, otherID)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", msgs)
}

// GetConversations handles GET /chat/conversations
// @Summary Conversations
// @Tags chat
// @Security BearerAuth
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]domain.Conversation}
// @Router /chat/conversations [get]
func (h *ChatHandler) GetConversations(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	convs, err := h.chatUseCase.Conversations(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", convs)
}
