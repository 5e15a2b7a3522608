package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/caelexhq/caelex-backend/internal/services"
)

type CatalogHandler struct {
	catalogService services.CatalogService
}

func NewCatalogHandler(catalogService services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// GET /api/catalog/jurisdictions
func (ch *CatalogHandler) Jurisdictions(c *gin.Context) {
	info := ch.catalogService.Info()
	RespondOK(c, gin.H{
		"catalog_version": info.Version,
		"jurisdictions":   info.Jurisdictions,
		"requirements":    info.Requirements,
	})
}

// GET /api/catalog/requirements?jurisdiction=&category=&mandatory=
func (ch *CatalogHandler) Requirements(c *gin.Context) {
	filter := services.RequirementFilter{
		Jurisdiction: strings.TrimSpace(c.Query("jurisdiction")),
		Category:     strings.TrimSpace(c.Query("category")),
	}
	if raw := strings.TrimSpace(c.Query("mandatory")); raw != "" {
		mandatory, err := strconv.ParseBool(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_mandatory", err)
			return
		}
		filter.Mandatory = &mandatory
	}

	reqs, err := ch.catalogService.Requirements(filter)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"requirements": reqs})
}

// GET /api/catalog/crosswalk?a=&b=
func (ch *CatalogHandler) Crosswalk(c *gin.Context) {
	view, err := ch.catalogService.Crosswalk(c.Query("a"), c.Query("b"))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, view)
}
