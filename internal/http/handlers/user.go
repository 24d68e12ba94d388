package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/kaical-backend/internal/http/response"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
	"github.com/yungbote/kaical-backend/internal/services"
)

type UserHandler struct {
	log         *logger.Logger
	userService services.UserService
}

func NewUserHandler(log *logger.Logger, userService services.UserService) *UserHandler {
	return &UserHandler{log: log.With("handler", "UserHandler"), userService: userService}
}

// GET /api/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, uh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"me": me})
}

// PATCH /api/me/timezone
// body: { "timezone": "Europe/Istanbul" }
func (uh *UserHandler) UpdateTimezone(c *gin.Context) {
	var req struct {
		Timezone string `json:"timezone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid body: %w", err))
		return
	}
	u, err := uh.userService.UpdateTimezone(c.Request.Context(), req.Timezone)
	if err != nil {
		response.RespondAPIError(c, uh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// PUT /api/me/google-account
func (uh *UserHandler) LinkGoogleAccount(c *gin.Context) {
	var in services.GoogleAccountInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid body: %w", err))
		return
	}
	if err := uh.userService.LinkGoogleAccount(c.Request.Context(), in); err != nil {
		response.RespondAPIError(c, uh.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /api/me/google-account
func (uh *UserHandler) UnlinkGoogleAccount(c *gin.Context) {
	if err := uh.userService.UnlinkGoogleAccount(c.Request.Context()); err != nil {
		response.RespondAPIError(c, uh.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
