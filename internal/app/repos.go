package app

import (
	"gorm.io/gorm"

	"github.com/caelexhq/caelex-backend/internal/data/repos"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
)

type Repos struct {
	User          repos.UserRepo
	Org           repos.OrgRepo
	OrgMembership repos.OrgMembershipRepo

	Assessment        repos.AssessmentRepo
	OperatorProfile   repos.OperatorProfileRepo
	RequirementStatus repos.RequirementStatusRepo

	Plan            repos.PlanRepo
	OrgSubscription repos.OrgSubscriptionRepo

	ChatThread  repos.ChatThreadRepo
	ChatMessage repos.ChatMessageRepo

	JobRun repos.JobRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		Org:           repos.NewOrgRepo(db, log),
		OrgMembership: repos.NewOrgMembershipRepo(db, log),

		Assessment:        repos.NewAssessmentRepo(db, log),
		OperatorProfile:   repos.NewOperatorProfileRepo(db, log),
		RequirementStatus: repos.NewRequirementStatusRepo(db, log),

		Plan:            repos.NewPlanRepo(db, log),
		OrgSubscription: repos.NewOrgSubscriptionRepo(db, log),

		ChatThread:  repos.NewChatThreadRepo(db, log),
		ChatMessage: repos.NewChatMessageRepo(db, log),

		JobRun: repos.NewJobRunRepo(db, log),
	}
}
