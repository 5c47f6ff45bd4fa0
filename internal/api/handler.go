package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hazardwatch/go-hazard-alerts/internal/models"
	"github.com/hazardwatch/go-hazard-alerts/internal/notify"
	"github.com/hazardwatch/go-hazard-alerts/internal/repository"
)

// AlertDispatcher is the handler's view of the notification layer; manual
// alerts go through the same fan-out as monitor-generated ones.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, alert *models.Alert)
}

type Handler struct {
	alerts      repository.AlertRepository
	registry    *notify.Registry
	dispatcher  AlertDispatcher
	broadcaster *notify.Broadcaster
	clock       clockwork.Clock
}

func NewHandler(alerts repository.AlertRepository, registry *notify.Registry, dispatcher AlertDispatcher, broadcaster *notify.Broadcaster, clock clockwork.Clock) *Handler {
	return &Handler{
		alerts:      alerts,
		registry:    registry,
		dispatcher:  dispatcher,
		broadcaster: broadcaster,
		clock:       clock,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/alerts", h.listAlerts)
	r.GET("/api/alerts/geojson", h.listAlertsGeoJSON)
	r.GET("/api/alerts/summary", h.alertSummary)
	r.GET("/api/alerts/stream", h.streamAlerts)
	r.GET("/api/alerts/:id", h.getAlert)
	r.POST("/api/alerts", h.createAlert)
	r.PUT("/api/alerts/:id/deactivate", h.deactivateAlert)

	r.GET("/api/recipients", h.listRecipients)
	r.POST("/api/recipients", h.addRecipient)
	r.DELETE("/api/recipients/:name", h.removeRecipient)

	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

type alertResponse struct {
	ID        string         `json:"id"`
	Category  string         `json:"category"`
	Severity  string         `json:"severity"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	IsActive  bool           `json:"is_active"`
	SentAt    *time.Time     `json:"sent_at,omitempty"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func toAlertResponse(a *models.Alert) alertResponse {
	return alertResponse{
		ID:        a.ID,
		Category:  string(a.Category),
		Severity:  string(a.Severity),
		Latitude:  a.Latitude,
		Longitude: a.Longitude,
		Title:     a.Title,
		Message:   a.Message,
		IsActive:  a.IsActive,
		SentAt:    a.SentAt,
		ExpiresAt: a.ExpiresAt,
		Metadata:  a.Metadata,
		CreatedAt: a.CreatedAt,
	}
}

func (h *Handler) buildFilter(c *gin.Context) repository.AlertFilter {
	filter := repository.AlertFilter{
		Limit: 20, // default if limit param not supplied
		Now:   h.clock.Now(),
	}

	if a := c.Query("active"); a != "" {
		filter.ActiveOnly = a == "true" || a == "1"
	}
	if t := c.Query("category"); t != "" {
		if cat, ok := parseCategory(t); ok {
			filter.Category = &cat
		}
	}
	if s := c.Query("severity"); s != "" {
		if sev, ok := parseSeverity(s); ok {
			filter.Severity = &sev
		}
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			filter.Limit = lim
		}
	}
	return filter
}

func (h *Handler) listAlerts(c *gin.Context) {
	alerts, err := h.alerts.ListAlerts(c.Request.Context(), h.buildFilter(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch alerts"})
		return
	}

	out := make([]alertResponse, 0, len(alerts))
	for i := range alerts {
		out = append(out, toAlertResponse(&alerts[i]))
	}
	c.JSON(http.StatusOK, gin.H{"alerts": out, "count": len(out)})
}

func (h *Handler) listAlertsGeoJSON(c *gin.Context) {
	alerts, err := h.alerts.ListAlerts(c.Request.Context(), h.buildFilter(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch alerts"})
		return
	}

	fc := toGeoJSON(alerts)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) getAlert(c *gin.Context) {
	alert, err := h.alerts.GetAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch alert"})
		return
	}
	c.JSON(http.StatusOK, toAlertResponse(alert))
}

func (h *Handler) alertSummary(c *gin.Context) {
	counts, err := h.alerts.CountActiveBySeverity(c.Request.Context(), h.clock.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch summary"})
		return
	}

	bySeverity := gin.H{}
	total := 0
	for sev, n := range counts {
		bySeverity[string(sev)] = n
		total += n
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "by_severity": bySeverity})
}

type createAlertRequest struct {
	Category  string  `json:"category" binding:"required"`
	Severity  string  `json:"severity" binding:"required"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Title     string  `json:"title" binding:"required"`
	Message   string  `json:"message"`
	ExpiresIn string  `json:"expires_in"` // Go duration, e.g. "6h"
}

// createAlert persists a manually issued alert and pushes it through the
// regular notification fan-out.
func (h *Handler) createAlert(c *gin.Context) {
	var req createAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	category, ok := parseCategory(req.Category)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown category: " + req.Category})
		return
	}
	severity, ok := parseSeverity(req.Severity)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown severity: " + req.Severity})
		return
	}
	loc := models.Coordinates{Latitude: req.Latitude, Longitude: req.Longitude}
	if !loc.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return
	}

	now := h.clock.Now()
	alert := &models.Alert{
		ID:        uuid.NewString(),
		Category:  category,
		Severity:  severity,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Title:     req.Title,
		Message:   req.Message,
		IsActive:  true,
		Metadata:  map[string]any{"origin": "manual"},
		CreatedAt: now,
	}
	if req.ExpiresIn != "" {
		d, err := time.ParseDuration(req.ExpiresIn)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expires_in: " + req.ExpiresIn})
			return
		}
		expires := now.Add(d)
		alert.ExpiresAt = &expires
	}

	if err := h.alerts.CreateAlert(c.Request.Context(), alert); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist alert"})
		return
	}

	h.dispatcher.Dispatch(c.Request.Context(), alert)

	sentAt := h.clock.Now()
	if err := h.alerts.MarkSent(c.Request.Context(), alert.ID, sentAt); err == nil {
		alert.SentAt = &sentAt
	}

	c.JSON(http.StatusCreated, toAlertResponse(alert))
}

func (h *Handler) deactivateAlert(c *gin.Context) {
	id := c.Param("id")
	if err := h.alerts.DeactivateAlert(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate alert"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "is_active": false})
}

// streamAlerts pushes newly dispatched alerts to the client as
// server-sent events until the client disconnects.
func (h *Handler) streamAlerts(c *gin.Context) {
	id, ch := h.broadcaster.Subscribe()
	defer h.broadcaster.Unsubscribe(id)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case alert, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("alert", toAlertResponse(alert))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

type recipientRequest struct {
	Name      string   `json:"name" binding:"required"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	PushToken string   `json:"push_token"`
	Channels  []string `json:"channels"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type recipientResponse struct {
	Name      string   `json:"name"`
	Email     string   `json:"email,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	PushToken string   `json:"push_token,omitempty"`
	Channels  []string `json:"channels"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func toRecipientResponse(r *notify.Recipient) recipientResponse {
	out := recipientResponse{
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		PushToken: r.PushToken,
	}
	for _, ch := range r.Channels {
		out.Channels = append(out.Channels, string(ch))
	}
	if r.HomeLocation != nil {
		out.Latitude = &r.HomeLocation.Latitude
		out.Longitude = &r.HomeLocation.Longitude
	}
	return out
}

func (h *Handler) listRecipients(c *gin.Context) {
	snap := h.registry.Snapshot()
	out := make([]recipientResponse, 0, len(snap))
	for i := range snap {
		out = append(out, toRecipientResponse(&snap[i]))
	}
	c.JSON(http.StatusOK, gin.H{"recipients": out, "count": len(out)})
}

func (h *Handler) addRecipient(c *gin.Context) {
	var req recipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if (req.Latitude == nil) != (req.Longitude == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude must be set together"})
		return
	}

	rec := notify.Recipient{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		PushToken: req.PushToken,
	}
	for _, ch := range req.Channels {
		rec.Channels = append(rec.Channels, notify.Channel(strings.ToUpper(ch)))
	}
	if req.Latitude != nil {
		rec.HomeLocation = &models.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	}

	if err := h.registry.Add(rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, toRecipientResponse(&rec))
}

func (h *Handler) removeRecipient(c *gin.Context) {
	name := c.Param("name")
	if !h.registry.Remove(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "recipient not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "removed": true})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func parseCategory(s string) (models.HazardCategory, bool) {
	switch strings.ToLower(s) {
	case "flood":
		return models.CategoryFlood, true
	case "earthquake":
		return models.CategoryEarthquake, true
	case "weather":
		return models.CategoryWeather, true
	default:
		return "", false
	}
}

func parseSeverity(s string) (models.Severity, bool) {
	switch strings.ToLower(s) {
	case "low":
		return models.SeverityLow, true
	case "medium":
		return models.SeverityMedium, true
	case "high":
		return models.SeverityHigh, true
	case "critical":
		return models.SeverityCritical, true
	default:
		return "", false
	}
}
