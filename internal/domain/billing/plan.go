package billing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PlanKeyFree         = "free"
	PlanKeyStarter      = "starter"
	PlanKeyProfessional = "professional"
)

type Plan struct {
	ID              uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Key             string    `gorm:"uniqueIndex;not null;column:key" json:"key"`
	Name            string    `gorm:"not null;column:name" json:"name"`
	PriceCentsMonth int64     `gorm:"column:price_cents_month;not null;default:0" json:"price_cents_month"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Plan) TableName() string { return "plan" }

// Entitlement keys. Limits use -1 for unlimited; feature gates use 0/1.
const (
	EntitlementMaxAssessments   = "max_assessments"
	EntitlementMaxMembers       = "max_members"
	EntitlementMaxChatThreads   = "max_chat_threads"
	EntitlementAssistantEnabled = "assistant_enabled"
)

const EntitlementUnlimited int64 = -1

type PlanEntitlement struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PlanID uuid.UUID `gorm:"type:uuid;column:plan_id;not null;index;index:idx_plan_entitlement_plan_key,unique,priority:1" json:"plan_id"`
	Key    string    `gorm:"column:key;not null;index:idx_plan_entitlement_plan_key,unique,priority:2" json:"key"`
	Value  int64     `gorm:"column:value;not null;default:0" json:"value"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PlanEntitlement) TableName() string { return "plan_entitlement" }
