package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/caelexhq/caelex-backend/internal/compliance"
)

// DeorbitHandler exposes the disposal-deadline calculator as a standalone
// endpoint so operators can check a mission before creating an assessment.
type DeorbitHandler struct{}

func NewDeorbitHandler() *DeorbitHandler { return &DeorbitHandler{} }

// POST /api/deorbit/estimate
func (dh *DeorbitHandler) Estimate(c *gin.Context) {
	var req struct {
		OrbitType            string    `json:"orbit_type"`
		AltitudeKm           float64   `json:"altitude_km"`
		LaunchDate           time.Time `json:"launch_date"`
		MissionDurationYears int       `json:"mission_duration_years"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	// The calculator itself never rejects input; everything is validated
	// here at the boundary.
	orbit, err := compliance.ParseOrbitType(req.OrbitType)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_orbit_type", err)
		return
	}
	if req.LaunchDate.IsZero() {
		RespondError(c, http.StatusBadRequest, "invalid_launch_date", errors.New("launch_date is required"))
		return
	}
	if req.MissionDurationYears <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid_mission_duration", errors.New("mission_duration_years must be positive"))
		return
	}
	if req.AltitudeKm < 0 {
		RespondError(c, http.StatusBadRequest, "invalid_altitude", errors.New("altitude_km must not be negative"))
		return
	}

	estimate := compliance.EstimateDisposal(orbit, req.AltitudeKm, req.LaunchDate, req.MissionDurationYears)
	RespondOK(c, gin.H{"estimate": estimate})
}
