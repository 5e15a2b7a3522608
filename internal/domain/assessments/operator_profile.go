package assessments

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OperatorProfile is the applicability input of an assessment, one row
// per assessment. Enum columns hold the string forms validated by the
// compliance package at the service boundary.
type OperatorProfile struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	AssessmentID uuid.UUID `gorm:"type:uuid;column:assessment_id;not null;uniqueIndex" json:"assessment_id"`

	OperatorType  string         `gorm:"column:operator_type;not null" json:"operator_type"`
	ActivityTypes datatypes.JSON `gorm:"type:jsonb;column:activity_types;not null;default:'[]'" json:"activity_types"`
	SizeClass     string         `gorm:"column:size_class;not null" json:"size_class"`
	OrbitType     string         `gorm:"column:orbit_type;not null;default:''" json:"orbit_type,omitempty"`
	MassKg        *float64       `gorm:"column:mass_kg" json:"mass_kg,omitempty"`
	Flags         datatypes.JSON `gorm:"type:jsonb;column:flags;not null;default:'{}'" json:"flags"`

	// Mission facts for the disposal calculator and satellite enrichment.
	LaunchDate           *time.Time `gorm:"column:launch_date" json:"launch_date,omitempty"`
	MissionDurationYears *int       `gorm:"column:mission_duration_years" json:"mission_duration_years,omitempty"`
	AltitudeKm           *float64   `gorm:"column:altitude_km" json:"altitude_km,omitempty"`
	NoradCatID           *int64     `gorm:"column:norad_cat_id" json:"norad_cat_id,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (OperatorProfile) TableName() string { return "operator_profile" }
