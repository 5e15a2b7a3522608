package catalog

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/caelexhq/caelex-backend/internal/compliance"
)

//go:embed data/*.yaml
var catalogFS embed.FS

type yamlManifest struct {
	Version       string   `yaml:"version"`
	Jurisdictions []string `yaml:"jurisdictions"`
}

type yamlJurisdictionFile struct {
	Jurisdiction string            `yaml:"jurisdiction"`
	Requirements []yamlRequirement `yaml:"requirements"`
}

type yamlRequirement struct {
	ID            string                `yaml:"id"`
	Article       string                `yaml:"article"`
	Title         string                `yaml:"title"`
	Category      string                `yaml:"category"`
	Mandatory     bool                  `yaml:"mandatory"`
	Applicability *compliance.Predicate `yaml:"applicability"`
}

type yamlCrosswalkFile struct {
	Mappings []yamlMapping `yaml:"mappings"`
}

type yamlMapping struct {
	A      string `yaml:"a"`
	B      string `yaml:"b"`
	Effort string `yaml:"effort"`
	Note   string `yaml:"note"`
}

func parseEmbedded() (*Catalog, error) {
	manifest, err := readManifest()
	if err != nil {
		return nil, err
	}

	cat := &Catalog{
		version:        manifest.Version,
		byID:           make(map[string]compliance.Requirement),
		byJurisdiction: make(map[compliance.Jurisdiction][]compliance.Requirement),
	}

	for _, raw := range manifest.Jurisdictions {
		jur, err := compliance.ParseJurisdiction(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("catalog manifest: %w", err)
		}
		if _, dup := cat.byJurisdiction[jur]; dup {
			return nil, fmt.Errorf("catalog manifest: duplicate jurisdiction %s", jur)
		}
		reqs, err := readJurisdiction(jur)
		if err != nil {
			return nil, err
		}
		for _, req := range reqs {
			if _, dup := cat.byID[req.ID]; dup {
				return nil, fmt.Errorf("catalog: duplicate requirement id %s", req.ID)
			}
			cat.byID[req.ID] = req
			cat.requirements = append(cat.requirements, req)
		}
		cat.jurisdictions = append(cat.jurisdictions, jur)
		cat.byJurisdiction[jur] = reqs
	}

	mappings, err := readCrosswalk(cat.byID)
	if err != nil {
		return nil, err
	}
	cat.mappings = mappings

	return cat, nil
}

func readManifest() (*yamlManifest, error) {
	data, err := catalogFS.ReadFile("data/catalog.yaml")
	if err != nil {
		return nil, fmt.Errorf("catalog manifest: %w", err)
	}
	var m yamlManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("catalog manifest: %w", err)
	}
	if strings.TrimSpace(m.Version) == "" {
		return nil, errors.New("catalog manifest: version is required")
	}
	if len(m.Jurisdictions) == 0 {
		return nil, errors.New("catalog manifest: no jurisdictions listed")
	}
	return &m, nil
}

func readJurisdiction(jur compliance.Jurisdiction) ([]compliance.Requirement, error) {
	name := fmt.Sprintf("data/%s.yaml", jur)
	data, err := catalogFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", jur, err)
	}
	var file yamlJurisdictionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", jur, err)
	}
	if compliance.Jurisdiction(strings.TrimSpace(file.Jurisdiction)) != jur {
		return nil, fmt.Errorf("catalog %s: file declares jurisdiction %q", jur, file.Jurisdiction)
	}
	if len(file.Requirements) == 0 {
		return nil, fmt.Errorf("catalog %s: no requirements defined", jur)
	}

	out := make([]compliance.Requirement, 0, len(file.Requirements))
	for i, raw := range file.Requirements {
		req, err := buildRequirement(jur, raw)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: requirement %d: %w", jur, i, err)
		}
		out = append(out, req)
	}
	return out, nil
}

func buildRequirement(jur compliance.Jurisdiction, raw yamlRequirement) (compliance.Requirement, error) {
	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return compliance.Requirement{}, errors.New("id is required")
	}
	if strings.TrimSpace(raw.Title) == "" {
		return compliance.Requirement{}, fmt.Errorf("%s: title is required", id)
	}
	if strings.TrimSpace(raw.Article) == "" {
		return compliance.Requirement{}, fmt.Errorf("%s: article is required", id)
	}
	category, err := compliance.ParseCategory(strings.TrimSpace(raw.Category))
	if err != nil {
		return compliance.Requirement{}, fmt.Errorf("%s: %w", id, err)
	}
	if raw.Applicability != nil {
		if err := validatePredicate(raw.Applicability); err != nil {
			return compliance.Requirement{}, fmt.Errorf("%s: %w", id, err)
		}
	}
	return compliance.Requirement{
		ID:            id,
		Jurisdiction:  jur,
		ArticleRef:    strings.TrimSpace(raw.Article),
		Title:         strings.TrimSpace(raw.Title),
		Category:      category,
		Mandatory:     raw.Mandatory,
		Applicability: raw.Applicability,
	}, nil
}

// validatePredicate re-parses every enum value the YAML decoded as a bare
// string, so a typo fails the load instead of silently never matching.
func validatePredicate(p *compliance.Predicate) error {
	for _, v := range p.OperatorTypes {
		if _, err := compliance.ParseOperatorType(string(v)); err != nil {
			return err
		}
	}
	for _, v := range p.ActivityTypes {
		if _, err := compliance.ParseActivityType(string(v)); err != nil {
			return err
		}
	}
	for _, v := range p.OrbitTypes {
		if _, err := compliance.ParseOrbitType(string(v)); err != nil {
			return err
		}
	}
	for _, v := range p.SizeClasses {
		if _, err := compliance.ParseSizeClass(string(v)); err != nil {
			return err
		}
	}
	for _, v := range p.RequiredFlags {
		if _, err := compliance.ParseFlag(string(v)); err != nil {
			return err
		}
	}
	if p.MinMassKg != nil && *p.MinMassKg < 0 {
		return fmt.Errorf("min_mass_kg must be >= 0, got %v", *p.MinMassKg)
	}
	if p.MaxMassKg != nil && *p.MaxMassKg < 0 {
		return fmt.Errorf("max_mass_kg must be >= 0, got %v", *p.MaxMassKg)
	}
	if p.MinMassKg != nil && p.MaxMassKg != nil && *p.MinMassKg > *p.MaxMassKg {
		return fmt.Errorf("min_mass_kg %v exceeds max_mass_kg %v", *p.MinMassKg, *p.MaxMassKg)
	}
	return nil
}

func readCrosswalk(byID map[string]compliance.Requirement) ([]compliance.CrosswalkMapping, error) {
	data, err := catalogFS.ReadFile("data/crosswalk.yaml")
	if err != nil {
		return nil, fmt.Errorf("crosswalk: %w", err)
	}
	var file yamlCrosswalkFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("crosswalk: %w", err)
	}

	seen := make(map[string]bool, len(file.Mappings))
	out := make([]compliance.CrosswalkMapping, 0, len(file.Mappings))
	for i, raw := range file.Mappings {
		aID := strings.TrimSpace(raw.A)
		bID := strings.TrimSpace(raw.B)
		if aID == "" || bID == "" {
			return nil, fmt.Errorf("crosswalk: mapping %d: both sides are required", i)
		}
		a, okA := byID[aID]
		b, okB := byID[bID]
		if !okA {
			return nil, fmt.Errorf("crosswalk: mapping %d: unknown requirement %s", i, aID)
		}
		if !okB {
			return nil, fmt.Errorf("crosswalk: mapping %d: unknown requirement %s", i, bID)
		}
		if a.Jurisdiction == b.Jurisdiction {
			return nil, fmt.Errorf("crosswalk: mapping %d: %s and %s share jurisdiction %s", i, aID, bID, a.Jurisdiction)
		}
		effort, err := compliance.ParseEffortType(strings.TrimSpace(raw.Effort))
		if err != nil {
			return nil, fmt.Errorf("crosswalk: mapping %d: %w", i, err)
		}
		key := aID + "|" + bID
		if seen[key] {
			return nil, fmt.Errorf("crosswalk: duplicate mapping %s -> %s", aID, bID)
		}
		seen[key] = true
		out = append(out, compliance.CrosswalkMapping{
			AID:    aID,
			BID:    bID,
			Effort: effort,
			Note:   strings.TrimSpace(raw.Note),
		})
	}
	return out, nil
}
