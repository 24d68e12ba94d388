package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/kaical-backend/internal/http/response"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
	"github.com/yungbote/kaical-backend/internal/services"
)

type EventHandler struct {
	log    *logger.Logger
	events services.EventService
	export services.ExportService
}

func NewEventHandler(log *logger.Logger, events services.EventService, export services.ExportService) *EventHandler {
	return &EventHandler{
		log:    log.With("handler", "EventHandler"),
		events: events,
		export: export,
	}
}

// GET /api/events?start=...&end=...&timezone=...
func (h *EventHandler) List(c *gin.Context) {
	from, to, tz, ok := rangeQuery(c)
	if !ok {
		return
	}
	events, err := h.events.List(c.Request.Context(), from, to, tz)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"events": events})
}

// POST /api/events
func (h *EventHandler) Create(c *gin.Context) {
	var in services.EventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid event: %w", err))
		return
	}
	ev, err := h.events.Create(c.Request.Context(), in)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"event": ev})
}

// PUT /api/events/:id
func (h *EventHandler) Update(c *gin.Context) {
	var patch services.EventPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid event: %w", err))
		return
	}
	ev, err := h.events.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"event": ev})
}

// DELETE /api/events/:id
func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.events.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/events/export.ics?start=...&end=...
func (h *EventHandler) ExportICS(c *gin.Context) {
	from, to, tz, ok := rangeQuery(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if _, err := h.export.ExportICS(c.Request.Context(), &buf, from, to, tz); err != nil {
		response.RespondAPIError(c, h.log, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="kaical.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

// rangeQuery reads start/end as RFC 3339 instants or plain dates in timezone.
// It writes the 400 itself and reports false on bad input.
func rangeQuery(c *gin.Context) (time.Time, time.Time, string, bool) {
	tz := strings.TrimSpace(c.DefaultQuery("timezone", "UTC"))
	loc, err := time.LoadLocation(tz)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_timezone", fmt.Errorf("unknown timezone %q", tz))
		return time.Time{}, time.Time{}, "", false
	}
	rawStart, rawEnd := c.Query("start"), c.Query("end")
	if strings.TrimSpace(rawStart) == "" || strings.TrimSpace(rawEnd) == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("start and end dates are required"))
		return time.Time{}, time.Time{}, "", false
	}
	from, err1 := parseQueryTime(rawStart, loc)
	to, err2 := parseQueryTime(rawEnd, loc)
	if err := errors.Join(err1, err2); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return time.Time{}, time.Time{}, "", false
	}
	return from, to, tz, true
}

func parseQueryTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}
