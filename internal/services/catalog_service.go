package services

import (
	"fmt"
	"strings"

	"github.com/caelexhq/caelex-backend/internal/catalog"
	"github.com/caelexhq/caelex-backend/internal/compliance"
	pkgerrors "github.com/caelexhq/caelex-backend/internal/pkg/errors"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
)

// RequirementFilter narrows the catalog browse endpoint. Empty fields
// match everything.
type RequirementFilter struct {
	Jurisdiction string
	Category     string
	Mandatory    *bool
}

type CatalogInfo struct {
	Version       string                    `json:"version"`
	Jurisdictions []compliance.Jurisdiction `json:"jurisdictions"`
	Requirements  int                       `json:"requirements"`
}

// CrosswalkTableView is the static mapping table between two catalogs,
// independent of any operator profile.
type CrosswalkTableView struct {
	A               compliance.Jurisdiction `json:"a"`
	B               compliance.Jurisdiction `json:"b"`
	Mappings        []compliance.Overlap    `json:"mappings"`
	TotalWeeksSaved int                     `json:"total_weeks_saved"`
}

// CatalogService serves the embedded requirement catalog. Everything here
// is an in-memory read; no context or transaction plumbing needed.
type CatalogService interface {
	Info() CatalogInfo
	Requirements(filter RequirementFilter) ([]compliance.Requirement, error)
	Crosswalk(a, b string) (*CrosswalkTableView, error)
}

type catalogService struct {
	log *logger.Logger
	cat *catalog.Catalog
}

func NewCatalogService(log *logger.Logger, cat *catalog.Catalog) CatalogService {
	return &catalogService{
		log: log.With("service", "CatalogService"),
		cat: cat,
	}
}

func (s *catalogService) Info() CatalogInfo {
	return CatalogInfo{
		Version:       s.cat.Version(),
		Jurisdictions: s.cat.Jurisdictions(),
		Requirements:  len(s.cat.Requirements()),
	}
}

func (s *catalogService) Requirements(filter RequirementFilter) ([]compliance.Requirement, error) {
	rows := s.cat.Requirements()

	if j := strings.TrimSpace(filter.Jurisdiction); j != "" {
		jur, err := compliance.ParseJurisdiction(j)
		if err != nil {
			return nil, err
		}
		rows = s.cat.Jurisdiction(jur)
	}

	var category compliance.Category
	if c := strings.TrimSpace(filter.Category); c != "" {
		parsed, err := compliance.ParseCategory(c)
		if err != nil {
			return nil, err
		}
		category = parsed
	}

	out := make([]compliance.Requirement, 0, len(rows))
	for _, req := range rows {
		if category != "" && req.Category != category {
			continue
		}
		if filter.Mandatory != nil && req.Mandatory != *filter.Mandatory {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (s *catalogService) Crosswalk(a, b string) (*CrosswalkTableView, error) {
	jurA, err := compliance.ParseJurisdiction(strings.TrimSpace(a))
	if err != nil {
		return nil, err
	}
	jurB, err := compliance.ParseJurisdiction(strings.TrimSpace(b))
	if err != nil {
		return nil, err
	}
	if jurA == jurB {
		return nil, fmt.Errorf("crosswalk needs two distinct jurisdictions: %w", pkgerrors.ErrInvalidArgument)
	}

	// Joining the full requirement sets renders the static table with both
	// sides' metadata attached.
	mappings := compliance.Overlaps(
		s.cat.Jurisdiction(jurA),
		s.cat.Jurisdiction(jurB),
		s.cat.MappingsBetween(jurA, jurB),
	)
	return &CrosswalkTableView{
		A:               jurA,
		B:               jurB,
		Mappings:        mappings,
		TotalWeeksSaved: compliance.TotalWeeksSaved(mappings),
	}, nil
}
