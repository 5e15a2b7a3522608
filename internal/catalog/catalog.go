// Package catalog loads the embedded regulatory requirement tables and the
// cross-jurisdiction mapping table. The catalog is immutable reference
// data: parsed and validated once at process start, then shared read-only
// across requests.
package catalog

import (
	"sync"

	"github.com/caelexhq/caelex-backend/internal/compliance"
)

type Catalog struct {
	version        string
	jurisdictions  []compliance.Jurisdiction
	requirements   []compliance.Requirement
	byID           map[string]compliance.Requirement
	byJurisdiction map[compliance.Jurisdiction][]compliance.Requirement
	mappings       []compliance.CrosswalkMapping
}

var (
	loadOnce  sync.Once
	loadedCat *Catalog
	loadedErr error
)

// Load parses and validates the embedded catalog data. The result is cached;
// subsequent calls return the same instance.
func Load() (*Catalog, error) {
	loadOnce.Do(func() {
		loadedCat, loadedErr = parseEmbedded()
	})
	return loadedCat, loadedErr
}

// MustLoad is for wiring paths where a broken embedded catalog should stop
// the process.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) Version() string { return c.version }

// Jurisdictions returns the catalog's jurisdiction order.
func (c *Catalog) Jurisdictions() []compliance.Jurisdiction {
	out := make([]compliance.Jurisdiction, len(c.jurisdictions))
	copy(out, c.jurisdictions)
	return out
}

// Requirements returns every requirement in catalog order: jurisdictions in
// manifest order, file order within each jurisdiction.
func (c *Catalog) Requirements() []compliance.Requirement {
	out := make([]compliance.Requirement, len(c.requirements))
	copy(out, c.requirements)
	return out
}

// Jurisdiction returns one jurisdiction's requirements in file order.
func (c *Catalog) Jurisdiction(j compliance.Jurisdiction) []compliance.Requirement {
	reqs := c.byJurisdiction[j]
	out := make([]compliance.Requirement, len(reqs))
	copy(out, reqs)
	return out
}

// ForJurisdictions concatenates the selected jurisdictions' requirements,
// preserving catalog order regardless of the selection order passed in.
func (c *Catalog) ForJurisdictions(selected []compliance.Jurisdiction) []compliance.Requirement {
	want := make(map[compliance.Jurisdiction]bool, len(selected))
	for _, j := range selected {
		want[j] = true
	}
	out := make([]compliance.Requirement, 0)
	for _, req := range c.requirements {
		if want[req.Jurisdiction] {
			out = append(out, req)
		}
	}
	return out
}

// RequirementByID looks a requirement up across all jurisdictions.
func (c *Catalog) RequirementByID(id string) (compliance.Requirement, bool) {
	req, ok := c.byID[id]
	return req, ok
}

// Mappings returns the full crosswalk table in file order.
func (c *Catalog) Mappings() []compliance.CrosswalkMapping {
	out := make([]compliance.CrosswalkMapping, len(c.mappings))
	copy(out, c.mappings)
	return out
}

// MappingsBetween filters the crosswalk table down to rows linking the two
// jurisdictions, orienting each row so side A belongs to jurA. Rows stored
// the other way around are swapped, so callers get a consistent view no
// matter which direction they ask for.
func (c *Catalog) MappingsBetween(jurA, jurB compliance.Jurisdiction) []compliance.CrosswalkMapping {
	out := make([]compliance.CrosswalkMapping, 0)
	for _, m := range c.mappings {
		a, okA := c.byID[m.AID]
		b, okB := c.byID[m.BID]
		if !okA || !okB {
			continue
		}
		switch {
		case a.Jurisdiction == jurA && b.Jurisdiction == jurB:
			out = append(out, m)
		case a.Jurisdiction == jurB && b.Jurisdiction == jurA:
			out = append(out, compliance.CrosswalkMapping{
				AID:    m.BID,
				BID:    m.AID,
				Effort: m.Effort,
				Note:   m.Note,
			})
		}
	}
	return out
}
