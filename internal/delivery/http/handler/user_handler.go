package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grapeapp/grape-backend/internal/domain"
	"github.com/grapeapp/grape-backend/internal/usecase/profile"
)

type UserHandler struct {
	profileUseCase *profile.ProfileUseCase
}

func NewUserHandler(profileUseCase *profile.ProfileUseCase) *UserHandler {
	return &UserHandler{
		profileUseCase: profileUseCase,
	}
}

// GetUser handles GET /users/:userId
// @Summary Get user
// @Description Full record for the caller, public profile for anyone else
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{userId} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	callerID, ok := requireUser(c)
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}

	user, err := h.profileUseCase.GetUser(c.Request.Context(), callerID, userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", user)
}

// UpdateUser handles PUT /users/:userId
// @Summary Update user
// @Description Partially update the caller's profile
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param userId path string true "User ID"
// @Param request body domain.ProfilePatch true "Fields to update"
// @Success 200 {object} SuccessResponse{data=domain.User}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /users/{userId} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	callerID, ok := requireUser(c)
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}

	var patch domain.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.profileUseCase.UpdateUser(c.Request.Context(), callerID, userID, &patch)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "User updated successfully", user)
}

// UpdateLocation handles PUT /users/me/location
// @Summary Update location
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body profile.UpdateLocationRequest true "Coordinates"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Router /users/me/location [put]
func (h *UserHandler) UpdateLocation(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req profile.UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "latitude and longitude are required")
		return
	}

	if err := h.profileUseCase.UpdateLocation(c.Request.Context(), userID, &req); err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Location updated successfully", nil)
}

// DeleteUser handles DELETE /users/:userId
// @Summary Delete account
// @Description Remove the caller's account with its likes, matches and messages
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param userId path string true "User ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{userId} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	callerID, ok := requireUser(c)
	if !ok {
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}

	if err := h.profileUseCase.DeleteUser(c.Request.Context(), callerID, userID); err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "User deleted successfully", nil)
}
