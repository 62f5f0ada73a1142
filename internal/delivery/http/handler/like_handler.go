package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/grapeapp/grape-backend/internal/usecase/like"
)

type LikeHandler struct {
	likeUseCase *like.LikeUseCase
}

func NewLikeHandler(likeUseCase *like.LikeUseCase) *LikeHandler {
	return &LikeHandler{
		likeUseCase: likeUseCase,
	}
}

// CreateLike handles POST /likes
// @Summary Like a user
// @Description Record a like; a reciprocated like creates a match
// @Tags likes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body like.LikeRequest true "Like"
// @Success 201 {object} SuccessResponse{data=like.LikeResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /likes [post]
func (h *LikeHandler) CreateLike(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req like.LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "likedId is required")
		return
	}

	result, err := h.likeUseCase.RecordLike(c.Request.Context(), userID, &req)
	if err != nil {
		RespondError(c, err)
		return
	}

	message := "Like recorded successfully"
	if result.IsMatch {
		message = "It's a match!"
	}
	respond(c, http.StatusCreated, message, result)
}

// WhoLikedMe handles GET /likes/who-liked-me
// @Summary Incoming likes
// @Description Likes the caller received, newest first
// @Tags likes
// @Security BearerAuth
// @Produce json
// @Param cursor query string false "Pagination cursor"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} SuccessResponse{data=like.IncomingLikesPage}
// @Failure 400 {object} ErrorResponse
// @Router /likes/who-liked-me [get]
func (h *LikeHandler) WhoLikedMe(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(c, "invalid limit")
			return
		}
		limit = n
	}

	page, err := h.likeUseCase.ListIncomingLikes(c.Request.Context(), userID, c.Query("cursor"), limit)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", page)
}

// RemoveLike handles DELETE /likes/:likedId
// @Summary Unlike
// @Tags likes
// @Security BearerAuth
// @Produce json
// @Param likedId path string true "Liked user ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /likes/{likedId} [delete]
func (h *LikeHandler) RemoveLike(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	likedID, ok := uuidParam(c, "likedId")
	if !ok {
		return
	}

	if err := h.likeUseCase.RemoveLike(c.Request.Context(), userID, likedID); err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Like removed successfully", nil)
}

// AcceptLike handles POST /likes/accept/:likerId
// @Summary Accept a like
// @Description Match with a user who liked the caller
// @Tags likes
// @Security BearerAuth
// @Produce json
// @Param likerId path string true "Liker user ID"
// @Success 200 {object} SuccessResponse{data=like.AcceptResponse}
// @Failure 404 {object} ErrorResponse
// @Router /likes/accept/{likerId} [post]
func (h *LikeHandler) AcceptLike(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	likerID, ok := uuidParam(c, "likerId")
	if !ok {
		return
	}

	result, err := h.likeUseCase.AcceptLike(c.Request.Context(), userID, likerID)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Like accepted, it's a match!", result)
}

// RejectLike handles POST /likes/reject/:likerId
// @Summary Reject a like
// @Tags likes
// @Security BearerAuth
// @Produce json
// @Param likerId path string true "Liker user ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /likes/reject/{likerId} [post]
func (h *LikeHandler) RejectLike(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	likerID, ok := uuidParam(c, "likerId")
	if !ok {
		return
	}

	if err := h.likeUseCase.RejectLike(c.Request.Context(), userID, likerID); err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Like rejected successfully", nil)
}
