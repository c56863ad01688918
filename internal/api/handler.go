package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go-disaster-watch/internal/cluster"
	"go-disaster-watch/internal/dispatch"
	"go-disaster-watch/internal/geofence"
	"go-disaster-watch/internal/graph"
	"go-disaster-watch/internal/models"
	"go-disaster-watch/internal/repository"
	"go-disaster-watch/internal/risk"
	"go-disaster-watch/internal/stats"
)

type Handler struct {
	repo     repository.IncidentRepository
	graph    graph.Graph
	clusters *cluster.Engine
	stats    *stats.Generator
	hub      *dispatch.Hub
	zones    *geofence.Registry
}

func NewHandler(
	repo repository.IncidentRepository,
	g graph.Graph,
	clusters *cluster.Engine,
	statsGen *stats.Generator,
	hub *dispatch.Hub,
	zones *geofence.Registry,
) *Handler {
	return &Handler{
		repo:     repo,
		graph:    g,
		clusters: clusters,
		stats:    statsGen,
		hub:      hub,
		zones:    zones,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/incidents", h.getIncidents)
	r.GET("/api/incidents/:id", h.getIncident)
	r.GET("/api/incidents/:id/related", h.getRelated)
	r.GET("/api/incidents/:id/risk", h.getRisk)
	r.GET("/api/clusters", h.getClusters)
	r.GET("/api/statistics", h.getStatistics)
	r.GET("/health", h.health)
	r.POST("/api/geofences", h.registerGeofence)
	r.DELETE("/api/geofences/:observer_id", h.unregisterGeofence)
	if h.hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			h.hub.Handle(c.Writer, c.Request)
		})
	}
}

func (h *Handler) getIncidents(c *gin.Context) {
	filter := repository.Filter{
		Limit: 20, // Default to 20 incidents if limit param not supplied
	}

	if t := c.Query("type"); t != "" {
		it := models.ParseIncidentType(t)
		if it != models.IncidentTypeUnknown {
			filter.Type = &it
		}
	}
	if s := c.Query("status"); s != "" {
		switch models.IncidentStatus(s) {
		case models.IncidentStatusActive, models.IncidentStatusResolved:
			status := models.IncidentStatus(s)
			filter.Status = &status
		}
	}
	if m := c.Query("min_severity"); m != "" {
		if sev, err := strconv.ParseFloat(m, 64); err == nil {
			filter.MinSeverity = &sev
		}
	}
	if s := c.Query("since"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			filter.Since = &t
		}
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			filter.Limit = lim
		}
	}
	if o := c.Query("offset"); o != "" {
		if off, err := strconv.Atoi(o); err == nil && off > 0 {
			filter.Offset = off
		}
	}

	incidents, err := h.repo.ListIncidents(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch incidents",
		})
		return
	}

	fc := toGeoJSON(incidents)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) getIncident(c *gin.Context) {
	id := c.Param("id")

	incident, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch incident"})
		return
	}
	if incident == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
		return
	}

	timeline, err := h.repo.Timeline(c.Request.Context(), id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch timeline"})
		return
	}
	incident.Timeline = timeline

	c.JSON(http.StatusOK, incident)
}

func (h *Handler) getRelated(c *gin.Context) {
	id := c.Param("id")

	exists, err := h.repo.Exists(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch incident"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
		return
	}

	limit := 5
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 50 {
			limit = lim
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"incident_id": id,
		"related":     h.graph.RelatedIncidents(id, limit),
	})
}

func (h *Handler) getRisk(c *gin.Context) {
	id := c.Param("id")

	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon query parameters are required"})
		return
	}

	incident, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch incident"})
		return
	}
	if incident == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "incident not found"})
		return
	}

	observer := models.Coordinates{Latitude: lat, Longitude: lon}
	score, err := risk.Score(incident, observer, time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	level := risk.LevelFor(score)
	c.JSON(http.StatusOK, gin.H{
		"incident_id": id,
		"risk_score":  score,
		"risk_level":  level,
		"actions":     risk.RecommendedActions(score, incident.Type),
	})
}

func (h *Handler) getClusters(c *gin.Context) {
	clusters, err := h.clusters.Clusters(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute clusters"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clusters": clusters})
}

func (h *Handler) getStatistics(c *gin.Context) {
	statistics, err := h.stats.Statistics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate statistics"})
		return
	}
	c.JSON(http.StatusOK, statistics)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type geofenceRequest struct {
	ObserverID string               `json:"observer_id"`
	Polygon    []models.Coordinates `json:"polygon"`
	Home       models.Coordinates   `json:"home"`
}

func (h *Handler) registerGeofence(c *gin.Context) {
	var req geofenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	zone := geofence.Zone{
		ObserverID: req.ObserverID,
		Polygon:    req.Polygon,
		Home:       req.Home,
	}
	if err := h.zones.Register(zone); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "geofence registered", "observer_id": req.ObserverID})
}

func (h *Handler) unregisterGeofence(c *gin.Context) {
	observerID := c.Param("observer_id")
	h.zones.Unregister(observerID)
	c.JSON(http.StatusOK, gin.H{"message": "geofence removed", "observer_id": observerID})
}
