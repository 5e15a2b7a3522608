package billing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusPastDue  = "past_due"
	SubscriptionStatusCanceled = "canceled"
)

// OrgSubscription links an org to its plan. Orgs without a row are on
// the free plan.
type OrgSubscription struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID  uuid.UUID `gorm:"type:uuid;column:org_id;not null;uniqueIndex" json:"org_id"`
	PlanID uuid.UUID `gorm:"type:uuid;column:plan_id;not null;index" json:"plan_id"`

	Status     string     `gorm:"column:status;not null;default:'active';index" json:"status"`
	StartedAt  time.Time  `gorm:"column:started_at;not null;default:now()" json:"started_at"`
	CanceledAt *time.Time `gorm:"column:canceled_at" json:"canceled_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (OrgSubscription) TableName() string { return "org_subscription" }
