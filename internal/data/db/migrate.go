package db

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/caelexhq/caelex-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Identity + tenancy
		// =========================
		&types.User{},
		&types.Org{},
		&types.OrgMembership{},

		// =========================
		// Assessments
		// =========================
		&types.Assessment{},
		&types.OperatorProfile{},
		&types.RequirementStatus{},

		// =========================
		// Billing
		// =========================
		&types.Plan{},
		&types.PlanEntitlement{},
		&types.OrgSubscription{},

		// =========================
		// Chat
		// =========================
		&types.ChatThread{},
		&types.ChatMessage{},

		// =========================
		// Jobs
		// =========================
		&types.JobRun{},
	)
}

// EnsureCoreIndexes creates indexes AutoMigrate cannot express: partial
// unique indexes scoped to live rows and composite indexes for the hot
// list/claim paths.
func EnsureCoreIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_org_membership_live
		ON org_membership (org_id, user_id)
		WHERE deleted_at IS NULL
	`).Error; err != nil {
		return fmt.Errorf("create uniq_org_membership_live: %w", err)
	}

	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS uniq_chat_message_idempotency
		ON chat_message (thread_id, idempotency_key)
		WHERE deleted_at IS NULL AND role = 'user' AND idempotency_key <> ''
	`).Error; err != nil {
		return fmt.Errorf("create uniq_chat_message_idempotency: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_chat_thread_org_last_message
		ON chat_thread (org_id, last_message_at DESC)
		WHERE deleted_at IS NULL
	`).Error; err != nil {
		return fmt.Errorf("create idx_chat_thread_org_last_message: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_assessment_org_created
		ON assessment (org_id, created_at DESC)
		WHERE deleted_at IS NULL
	`).Error; err != nil {
		return fmt.Errorf("create idx_assessment_org_created: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_job_run_claim
		ON job_run (status, created_at)
		WHERE deleted_at IS NULL
	`).Error; err != nil {
		return fmt.Errorf("create idx_job_run_claim: %w", err)
	}

	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_job_run_org_created
		ON job_run (org_id, created_at DESC)
		WHERE deleted_at IS NULL
	`).Error; err != nil {
		return fmt.Errorf("create idx_job_run_org_created: %w", err)
	}

	return nil
}

type planSeed struct {
	key          string
	name         string
	priceCents   int64
	entitlements map[string]int64
}

// SeedPlans upserts the built-in plan catalog so entitlement changes ship
// with a deploy instead of a manual script.
func SeedPlans(db *gorm.DB) error {
	seeds := []planSeed{
		{
			key:        types.PlanKeyFree,
			name:       "Free",
			priceCents: 0,
			entitlements: map[string]int64{
				types.EntitlementMaxAssessments:   2,
				types.EntitlementMaxMembers:       3,
				types.EntitlementMaxChatThreads:   5,
				types.EntitlementAssistantEnabled: 0,
			},
		},
		{
			key:        types.PlanKeyStarter,
			name:       "Starter",
			priceCents: 19900,
			entitlements: map[string]int64{
				types.EntitlementMaxAssessments:   10,
				types.EntitlementMaxMembers:       10,
				types.EntitlementMaxChatThreads:   50,
				types.EntitlementAssistantEnabled: 1,
			},
		},
		{
			key:        types.PlanKeyProfessional,
			name:       "Professional",
			priceCents: 79900,
			entitlements: map[string]int64{
				types.EntitlementMaxAssessments:   types.EntitlementUnlimited,
				types.EntitlementMaxMembers:       50,
				types.EntitlementMaxChatThreads:   types.EntitlementUnlimited,
				types.EntitlementAssistantEnabled: 1,
			},
		},
	}

	now := time.Now().UTC()
	for _, seed := range seeds {
		plan := types.Plan{
			Key:             seed.key,
			Name:            seed.name,
			PriceCentsMonth: seed.priceCents,
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.Assignments(map[string]any{"name": seed.name, "price_cents_month": seed.priceCents, "updated_at": now}),
		}).Create(&plan).Error; err != nil {
			return fmt.Errorf("seed plan %s: %w", seed.key, err)
		}

		var stored types.Plan
		if err := db.Where("key = ?", seed.key).First(&stored).Error; err != nil {
			return fmt.Errorf("load plan %s: %w", seed.key, err)
		}

		for entKey, value := range seed.entitlements {
			ent := types.PlanEntitlement{
				PlanID: stored.ID,
				Key:    entKey,
				Value:  value,
			}
			if err := db.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "plan_id"}, {Name: "key"}},
				DoUpdates: clause.Assignments(map[string]any{"value": value, "updated_at": now}),
			}).Create(&ent).Error; err != nil {
				return fmt.Errorf("seed entitlement %s/%s: %w", seed.key, entKey, err)
			}
		}
	}

	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("running automigrations...")
	if err := AutoMigrateAll(s.DB()); err != nil {
		s.log.Error("automigrations failed", "error", err)
		return err
	}
	if err := EnsureCoreIndexes(s.DB()); err != nil {
		s.log.Error("core index creation failed", "error", err)
		return err
	}
	if err := SeedPlans(s.DB()); err != nil {
		s.log.Error("plan seeding failed", "error", err)
		return err
	}
	s.log.Info("automigrations complete")
	return nil
}
