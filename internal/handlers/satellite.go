package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/caelexhq/caelex-backend/internal/satellites"
)

type SatelliteHandler struct {
	sats satellites.Service
}

func NewSatelliteHandler(sats satellites.Service) *SatelliteHandler {
	return &SatelliteHandler{sats: sats}
}

// GET /api/satellites/:noradID
func (sh *SatelliteHandler) Get(c *gin.Context) {
	noradID, err := strconv.ParseInt(strings.TrimSpace(c.Param("noradID")), 10, 64)
	if err != nil || noradID <= 0 {
		RespondError(c, http.StatusBadRequest, "invalid_norad_id", errors.New("norad id must be a positive integer"))
		return
	}
	sat, err := sh.sats.Get(c.Request.Context(), noradID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"satellite": sat})
}
