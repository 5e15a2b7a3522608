package assessments

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequirementStatus records the org's self-reported standing against one
// catalog requirement within an assessment. Requirements without a row
// score as not_assessed.
type RequirementStatus struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AssessmentID  uuid.UUID `gorm:"type:uuid;column:assessment_id;not null;index;index:idx_requirement_status_assessment_req,unique,priority:1" json:"assessment_id"`
	RequirementID string    `gorm:"column:requirement_id;not null;index:idx_requirement_status_assessment_req,unique,priority:2" json:"requirement_id"`

	Status      string    `gorm:"column:status;not null;index" json:"status"`
	Note        string    `gorm:"column:note;type:text;not null;default:''" json:"note,omitempty"`
	EvidenceURL string    `gorm:"column:evidence_url;not null;default:''" json:"evidence_url,omitempty"`
	UpdatedBy   uuid.UUID `gorm:"type:uuid;column:updated_by;not null" json:"updated_by"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now();index" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (RequirementStatus) TableName() string { return "requirement_status" }
