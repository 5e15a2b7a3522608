package domain

import (
	"github.com/caelexhq/caelex-backend/internal/domain/assessments"
	"github.com/caelexhq/caelex-backend/internal/domain/billing"
	"github.com/caelexhq/caelex-backend/internal/domain/chat"
	"github.com/caelexhq/caelex-backend/internal/domain/identity"
	"github.com/caelexhq/caelex-backend/internal/domain/jobs"
)

type User = identity.User
type Org = identity.Org
type OrgMembership = identity.OrgMembership

const (
	OrgRoleOwner  = identity.OrgRoleOwner
	OrgRoleAdmin  = identity.OrgRoleAdmin
	OrgRoleMember = identity.OrgRoleMember
)

type Assessment = assessments.Assessment
type OperatorProfile = assessments.OperatorProfile
type RequirementStatus = assessments.RequirementStatus

type Plan = billing.Plan
type PlanEntitlement = billing.PlanEntitlement
type OrgSubscription = billing.OrgSubscription

const (
	PlanKeyFree         = billing.PlanKeyFree
	PlanKeyStarter      = billing.PlanKeyStarter
	PlanKeyProfessional = billing.PlanKeyProfessional

	EntitlementMaxAssessments   = billing.EntitlementMaxAssessments
	EntitlementMaxMembers       = billing.EntitlementMaxMembers
	EntitlementMaxChatThreads   = billing.EntitlementMaxChatThreads
	EntitlementAssistantEnabled = billing.EntitlementAssistantEnabled

	EntitlementUnlimited = billing.EntitlementUnlimited
)

type ChatThread = chat.ChatThread
type ChatMessage = chat.ChatMessage

const (
	ChatRoleUser      = chat.MessageRoleUser
	ChatRoleAssistant = chat.MessageRoleAssistant
	ChatRoleSystem    = chat.MessageRoleSystem
)

type JobRun = jobs.JobRun
