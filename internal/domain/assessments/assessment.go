package assessments

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Assessment is one compliance posture evaluation for an org: a named
// jurisdiction selection plus an operator profile, with the most recent
// scorecard denormalized onto the row. Scores are a snapshot of the
// catalog version they were computed against; reads recompute live.
type Assessment struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID     uuid.UUID `gorm:"type:uuid;not null;index" json:"org_id"`
	CreatedBy uuid.UUID `gorm:"type:uuid;column:created_by;not null;index" json:"created_by"`

	Name          string         `gorm:"column:name;not null" json:"name"`
	Jurisdictions datatypes.JSON `gorm:"type:jsonb;column:jurisdictions;not null;default:'[]'" json:"jurisdictions"`

	OverallScore    *int           `gorm:"column:overall_score" json:"overall_score,omitempty"`
	MandatoryScore  *int           `gorm:"column:mandatory_score" json:"mandatory_score,omitempty"`
	RiskLevel       string         `gorm:"column:risk_level;not null;default:'';index" json:"risk_level,omitempty"`
	ByCategory      datatypes.JSON `gorm:"type:jsonb;column:by_category;not null;default:'[]'" json:"by_category,omitempty"`
	ApplicableCount int            `gorm:"column:applicable_count;not null;default:0" json:"applicable_count"`
	CatalogVersion  string         `gorm:"column:catalog_version;not null;default:''" json:"catalog_version,omitempty"`
	ScoredAt        *time.Time     `gorm:"column:scored_at" json:"scored_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Assessment) TableName() string { return "assessment" }
