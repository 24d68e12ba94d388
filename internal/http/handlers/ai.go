package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/kaical-backend/internal/http/response"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
	"github.com/yungbote/kaical-backend/internal/services"
)

type AIHandler struct {
	log        *logger.Logger
	chat       services.ChatService
	parse      services.ParseService
	reschedule services.RescheduleService
	models     services.ModelService
}

func NewAIHandler(
	log *logger.Logger,
	chat services.ChatService,
	parse services.ParseService,
	reschedule services.RescheduleService,
	models services.ModelService,
) *AIHandler {
	return &AIHandler{
		log:        log.With("handler", "AIHandler"),
		chat:       chat,
		parse:      parse,
		reschedule: reschedule,
		models:     models,
	}
}

// POST /api/ai/chat
// body: { "messages": [...], "events": [...], "timezone": "Europe/Istanbul" }
func (h *AIHandler) Chat(c *gin.Context) {
	var req services.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", bindError(err))
		return
	}
	reply, err := h.chat.Respond(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, reply)
}

// POST /api/ai/parse
// body: { "prompt": "lunch with Sam tomorrow at noon" }
func (h *AIHandler) Parse(c *gin.Context) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("missing prompt"))
		return
	}
	ev, err := h.parse.Parse(c.Request.Context(), req.Prompt)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"data": ev})
}

// POST /api/ai/reschedule
func (h *AIHandler) Reschedule(c *gin.Context) {
	var req services.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", bindError(err))
		return
	}
	out, err := h.reschedule.Suggest(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/ai/models
func (h *AIHandler) ListModels(c *gin.Context) {
	models, err := h.models.ListModels(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "models": models})
}
