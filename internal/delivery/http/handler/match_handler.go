package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grapeapp/grape-backend/internal/usecase/match"
)

type MatchHandler struct {
	matchUseCase *match.MatchUseCase
}

func NewMatchHandler(matchUseCase *match.MatchUseCase) *MatchHandler {
	return &MatchHandler{
		matchUseCase: matchUseCase,
	}
}

// CreateMatch handles POST /matches
// @Summary Create match
// @Description Match two users directly; the caller must be one of them
// @Tags matches
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body match.CreateMatchRequest true "Pair"
// @Success 201 {object} SuccessResponse{data=domain.Match}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /matches [post]
func (h *MatchHandler) CreateMatch(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req match.CreateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "user1_id and user2_id are required")
		return
	}

	m, err := h.matchUseCase.CreateMatch(c.Request.Context(), userID, &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Match created successfully", m)
}

// GetUserMatches handles GET /matches/user/:userId
// @Summary List matches
// @Tags matches
// @Security BearerAuth
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} SuccessResponse{data=[]domain.MatchWithProfile}
// @Failure 403 {object} ErrorResponse
// @Router /matches/user/{userId} [get]
func (h *MatchHandler) GetUserMatches(c *gin.Context) {
	callerID, ok := requireUser(c)
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}

	matches, err := h.matchUseCase.ListMatchesForUser(c.Request.Context(), callerID, userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", matches)
}

// Unmatch handles PUT /matches/unmatch/:user1Id/:user2Id
// @Summary Unmatch
// @Tags matches
// @Security BearerAuth
// @Produce json
// @Param user1Id path string true "First user ID"
// @Param user2Id path string true "Second user ID"
// @Success 200 {object} SuccessResponse{data=domain.Match}
// @Failure 404 {object} ErrorResponse
// @Router /matches/unmatch/{user1Id}/{user2Id} [put]
func (h *MatchHandler) Unmatch(c *gin.Context) {
	callerID, ok := requireUser(c)
	if !ok {
		return
	}
	user1ID, ok := uuidParam(c, "user1Id")
	if !ok {
		return
	}
	user2ID, ok := uuidParam(c, "user2Id")
	if !ok {
		return
	}

	m, err := h.matchUseCase.Unmatch(c.Request.Context(), callerID, user1ID, user2ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Unmatched successfully", m)
}
