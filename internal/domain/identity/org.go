package identity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Org struct {
	ID   uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name string    `gorm:"not null;column:name" json:"name"`
	Slug string    `gorm:"uniqueIndex;not null;column:slug" json:"slug"`

	// ISO 3166-1 alpha-2 of the operator's primary establishment; used as a
	// hint when suggesting jurisdictions, never as an applicability input.
	CountryCode string `gorm:"column:country_code;not null;default:''" json:"country_code"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Org) TableName() string { return "org" }

const (
	OrgRoleOwner  = "owner"
	OrgRoleAdmin  = "admin"
	OrgRoleMember = "member"
)

// Uniqueness of (org_id, user_id) is enforced by a partial unique index
// over live rows (see EnsureCoreIndexes) so a removed member can rejoin.
type OrgMembership struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OrgID  uuid.UUID `gorm:"type:uuid;not null;index;index:idx_org_membership_org_user,priority:1" json:"org_id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_org_membership_org_user,priority:2" json:"user_id"`
	Role   string    `gorm:"column:role;not null;default:'member';index" json:"role"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (OrgMembership) TableName() string { return "org_membership" }
