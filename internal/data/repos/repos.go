package repos

import (
	"github.com/caelexhq/caelex-backend/internal/data/repos/assessments"
	"github.com/caelexhq/caelex-backend/internal/data/repos/billing"
	"github.com/caelexhq/caelex-backend/internal/data/repos/chat"
	"github.com/caelexhq/caelex-backend/internal/data/repos/identity"
	"github.com/caelexhq/caelex-backend/internal/data/repos/jobs"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
	"gorm.io/gorm"
)

type UserRepo = identity.UserRepo
type OrgRepo = identity.OrgRepo
type OrgMembershipRepo = identity.OrgMembershipRepo

type AssessmentRepo = assessments.AssessmentRepo
type OperatorProfileRepo = assessments.OperatorProfileRepo
type RequirementStatusRepo = assessments.RequirementStatusRepo

type PlanRepo = billing.PlanRepo
type OrgSubscriptionRepo = billing.OrgSubscriptionRepo

type ChatThreadRepo = chat.ChatThreadRepo
type ChatMessageRepo = chat.ChatMessageRepo
type ChatMessageLexicalQuery = chat.ChatMessageLexicalQuery
type ChatMessageLexicalHit = chat.ChatMessageLexicalHit

type JobRunRepo = jobs.JobRunRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return identity.NewUserRepo(db, baseLog)
}
func NewOrgRepo(db *gorm.DB, baseLog *logger.Logger) OrgRepo {
	return identity.NewOrgRepo(db, baseLog)
}
func NewOrgMembershipRepo(db *gorm.DB, baseLog *logger.Logger) OrgMembershipRepo {
	return identity.NewOrgMembershipRepo(db, baseLog)
}

func NewAssessmentRepo(db *gorm.DB, baseLog *logger.Logger) AssessmentRepo {
	return assessments.NewAssessmentRepo(db, baseLog)
}
func NewOperatorProfileRepo(db *gorm.DB, baseLog *logger.Logger) OperatorProfileRepo {
	return assessments.NewOperatorProfileRepo(db, baseLog)
}
func NewRequirementStatusRepo(db *gorm.DB, baseLog *logger.Logger) RequirementStatusRepo {
	return assessments.NewRequirementStatusRepo(db, baseLog)
}

func NewPlanRepo(db *gorm.DB, baseLog *logger.Logger) PlanRepo {
	return billing.NewPlanRepo(db, baseLog)
}
func NewOrgSubscriptionRepo(db *gorm.DB, baseLog *logger.Logger) OrgSubscriptionRepo {
	return billing.NewOrgSubscriptionRepo(db, baseLog)
}

func NewChatThreadRepo(db *gorm.DB, baseLog *logger.Logger) ChatThreadRepo {
	return chat.NewChatThreadRepo(db, baseLog)
}
func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return chat.NewChatMessageRepo(db, baseLog)
}

func NewJobRunRepo(db *gorm.DB, baseLog *logger.Logger) JobRunRepo {
	return jobs.NewJobRunRepo(db, baseLog)
}
