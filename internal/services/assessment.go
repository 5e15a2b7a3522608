package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/caelexhq/caelex-backend/internal/catalog"
	"github.com/caelexhq/caelex-backend/internal/compliance"
	assessrepos "github.com/caelexhq/caelex-backend/internal/data/repos/assessments"
	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/observability"
	"github.com/caelexhq/caelex-backend/internal/pkg/ctxutil"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	pkgerrors "github.com/caelexhq/caelex-backend/internal/pkg/errors"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
)

// ProfileInput is the wire form of an operator profile. Enum fields are
// validated against the compliance package before anything is written.
type ProfileInput struct {
	OperatorType         string          `json:"operator_type"`
	ActivityTypes        []string        `json:"activity_types"`
	SizeClass            string          `json:"size_class"`
	OrbitType            string          `json:"orbit_type,omitempty"`
	MassKg               *float64        `json:"mass_kg,omitempty"`
	Flags                map[string]bool `json:"flags,omitempty"`
	LaunchDate           *time.Time      `json:"launch_date,omitempty"`
	MissionDurationYears *int            `json:"mission_duration_years,omitempty"`
	AltitudeKm           *float64        `json:"altitude_km,omitempty"`
	NoradCatID           *int64          `json:"norad_cat_id,omitempty"`
}

type CreateAssessmentInput struct {
	Name          string       `json:"name"`
	Jurisdictions []string     `json:"jurisdictions"`
	Profile       ProfileInput `json:"profile"`
}

type StatusInput struct {
	Status      string `json:"status"`
	Note        string `json:"note,omitempty"`
	EvidenceURL string `json:"evidence_url,omitempty"`
}

// RequirementView is one applicable requirement joined with its stored
// status; requirements without a row surface as not_assessed.
type RequirementView struct {
	compliance.Requirement
	Status          compliance.Status `json:"status"`
	Note            string            `json:"note,omitempty"`
	EvidenceURL     string            `json:"evidence_url,omitempty"`
	StatusUpdatedAt *time.Time        `json:"status_updated_at,omitempty"`
}

type AssessmentDetail struct {
	Assessment     *types.Assessment      `json:"assessment"`
	Profile        *types.OperatorProfile `json:"profile"`
	Requirements   []RequirementView      `json:"requirements"`
	Scorecard      compliance.Scorecard   `json:"scorecard"`
	Gaps           []compliance.Gap       `json:"gaps"`
	CatalogVersion string                 `json:"catalog_version"`
}

// ScoreSnapshot is the persisted scorecard from the assessment row, kept
// alongside the live recompute so clients can tell when the catalog moved
// under a stored score.
type ScoreSnapshot struct {
	OverallScore   *int           `json:"overall_score"`
	MandatoryScore *int           `json:"mandatory_score"`
	RiskLevel      string         `json:"risk_level"`
	ByCategory     datatypes.JSON `json:"by_category"`
	CatalogVersion string         `json:"catalog_version"`
	ScoredAt       *time.Time     `json:"scored_at"`
}

type ScoreView struct {
	Scorecard      compliance.Scorecard `json:"scorecard"`
	CatalogVersion string               `json:"catalog_version"`
	Snapshot       ScoreSnapshot        `json:"snapshot"`
}

type StatusUpdateView struct {
	Status    *types.RequirementStatus `json:"status"`
	Scorecard compliance.Scorecard     `json:"scorecard"`
}

type CrosswalkPair struct {
	Jurisdiction compliance.Jurisdiction `json:"jurisdiction"`
	Overlaps     []compliance.Overlap    `json:"overlaps"`
	WeeksSaved   int                     `json:"weeks_saved"`
}

type CrosswalkView struct {
	With            compliance.Jurisdiction `json:"with"`
	Pairs           []CrosswalkPair         `json:"pairs"`
	TotalWeeksSaved int                     `json:"total_weeks_saved"`
}

type DeadlineView struct {
	OrbitType            string                      `json:"orbit_type,omitempty"`
	AltitudeKm           *float64                    `json:"altitude_km,omitempty"`
	LaunchDate           time.Time                   `json:"launch_date"`
	MissionDurationYears int                         `json:"mission_duration_years"`
	Estimate             compliance.DisposalEstimate `json:"estimate"`
}

type AssessmentService interface {
	Create(ctx context.Context, input CreateAssessmentInput) (*AssessmentDetail, error)
	List(ctx context.Context, limit int) ([]*types.Assessment, error)
	Get(ctx context.Context, assessmentID uuid.UUID) (*AssessmentDetail, error)
	UpdateProfile(ctx context.Context, assessmentID uuid.UUID, input ProfileInput) (*AssessmentDetail, error)
	Delete(ctx context.Context, assessmentID uuid.UUID) error

	UpsertStatus(ctx context.Context, assessmentID uuid.UUID, requirementID string, input StatusInput) (*StatusUpdateView, error)
	ListStatuses(ctx context.Context, assessmentID uuid.UUID) ([]*types.RequirementStatus, error)

	Score(ctx context.Context, assessmentID uuid.UUID) (*ScoreView, error)
	Gaps(ctx context.Context, assessmentID uuid.UUID) ([]compliance.Gap, error)
	Crosswalk(ctx context.Context, assessmentID uuid.UUID, with string) (*CrosswalkView, error)
	Deadlines(ctx context.Context, assessmentID uuid.UUID) (*DeadlineView, error)

	// Job-facing entry points. Job execution carries no request identity,
	// so the caller names the org explicitly.
	DetailForOrg(dbc dbctx.Context, orgID, assessmentID uuid.UUID) (*AssessmentDetail, error)
	Rescore(dbc dbctx.Context, orgID, assessmentID uuid.UUID) (*types.Assessment, error)
}

type assessmentService struct {
	db          *gorm.DB
	log         *logger.Logger
	cat         *catalog.Catalog
	assessRepo  assessrepos.AssessmentRepo
	profileRepo assessrepos.OperatorProfileRepo
	statusRepo  assessrepos.RequirementStatusRepo
	billing     BillingService
	jobs        JobService
	notify      AssessmentNotifier
}

func NewAssessmentService(
	db *gorm.DB,
	log *logger.Logger,
	cat *catalog.Catalog,
	assessRepo assessrepos.AssessmentRepo,
	profileRepo assessrepos.OperatorProfileRepo,
	statusRepo assessrepos.RequirementStatusRepo,
	billing BillingService,
	jobs JobService,
	notify AssessmentNotifier,
) AssessmentService {
	serviceLog := log.With("service", "AssessmentService")
	return &assessmentService{
		db:          db,
		log:         serviceLog,
		cat:         cat,
		assessRepo:  assessRepo,
		profileRepo: profileRepo,
		statusRepo:  statusRepo,
		billing:     billing,
		jobs:        jobs,
		notify:      notify,
	}
}

func (s *assessmentService) Create(ctx context.Context, input CreateAssessmentInput) (*AssessmentDetail, error) {
	rd, err := requireOrgScope(ctx)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("assessment name required: %w", pkgerrors.ErrInvalidArgument)
	}
	jurs, err := parseJurisdictionList(input.Jurisdictions)
	if err != nil {
		return nil, err
	}
	if err := validateProfileInput(input.Profile); err != nil {
		return nil, err
	}
	jursJSON, err := json.Marshal(jurs)
	if err != nil {
		return nil, fmt.Errorf("encode jurisdictions: %w", err)
	}

	var (
		out        *AssessmentDetail
		enrichJob  *types.JobRun
		assessment *types.Assessment
	)
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		count, err := s.assessRepo.CountByOrg(dbc, rd.OrgID)
		if err != nil {
			return fmt.Errorf("count assessments: %w", err)
		}
		if err := s.billing.CheckLimit(dbc, rd.OrgID, types.EntitlementMaxAssessments, count); err != nil {
			return err
		}

		assessment = &types.Assessment{
			ID:            uuid.New(),
			OrgID:         rd.OrgID,
			CreatedBy:     rd.UserID,
			Name:          name,
			Jurisdictions: datatypes.JSON(jursJSON),
		}
		if _, err := s.assessRepo.Create(dbc, []*types.Assessment{assessment}); err != nil {
			return fmt.Errorf("create assessment: %w", err)
		}

		profileRow := profileRowFromInput(assessment.ID, input.Profile)
		if err := s.profileRepo.Upsert(dbc, profileRow); err != nil {
			return fmt.Errorf("create operator profile: %w", err)
		}

		st, err := s.evaluate(dbc, assessment, profileRow)
		if err != nil {
			return err
		}
		if err := s.persistSnapshot(dbc, st); err != nil {
			return err
		}
		out = s.detailFromState(st)

		enrichJob, err = s.maybeEnqueueProfileEnrich(dbc, rd, assessment.ID, profileRow, "assessment_create")
		if err != nil {
			// Enrichment is best effort; the assessment itself is complete.
			s.log.Warn("profile enrich enqueue failed", "assessment_id", assessment.ID, "error", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.notify.AssessmentScored(rd.OrgID, out.Assessment)
	if enrichJob != nil && s.jobs != nil {
		if err := s.jobs.Dispatch(dbctx.Context{Ctx: ctx}, enrichJob.ID); err != nil {
			s.log.Warn("profile enrich dispatch failed", "job_id", enrichJob.ID, "error", err)
		}
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.IncEngineEvaluation("create")
	}
	return out, nil
}

func (s *assessmentService) List(ctx context.Context, limit int) ([]*types.Assessment, error) {
	rd, err := requireOrgScope(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.assessRepo.ListByOrg(dbctx.Context{Ctx: ctx}, rd.OrgID, limit)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return rows, nil
}

func (s *assessmentService) Get(ctx context.Context, assessmentID uuid.UUID) (*AssessmentDetail, error) {
	rd, err := requireOrgScope(ctx)
	if err != nil {
		return nil, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	assessment, err := s.loadOwned(dbc, rd.OrgID, assessmentID)
	if err != nil {
		return nil, err
	}
	// Reads recompute against the live catalog but never rewrite the
	// stored snapshot; the row keeps the score of the version it was
	// scored under.
	st, err := s.evaluate(dbc, assessment, nil)
	if err != nil {
		return nil, err
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.IncEngineEvaluation("score")
	}
	return s.detailFromState(st), nil
}

func (s *assessmentService) UpdateProfile(ctx context.Context, assessmentID uuid.UUID, input ProfileInput) (*AssessmentDetail, error) {
	rd, err := requireOrgScope(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateProfileInput(input); err != nil {
		return nil, err
	}

	var (
		out       *AssessmentDetail
		enrichJob *types.JobRun
	)
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		assessment, err := s.loadOwned(dbc, rd.OrgID, assessmentID)
		if err != nil {
			return err
		}

		profileRow := profileRowFromInput(assessment.ID, input)
		if err := s.profileRepo.Upsert(dbc, profileRow); err != nil {
			return fmt.Errorf("update operator profile: %w", err)
		}

		st, err := s.evaluate(dbc, assessment, profileRow)
		if err != nil {
			return err
		}
		if err := s.persistSnapshot(dbc, st); err != nil {
			return err
		}
		out = s.detailFromState(st)

		enrichJob, err = s.maybeEnqueueProfileEnrich(dbc, rd, assessment.ID, profileRow, "profile_update")
		if err != nil {
			s.log.Warn("profile enrich enqueue failed", "assessment_id", assessment.ID, "error", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.notify.AssessmentScored(rd.OrgID, out.Assessment)
	if enrichJob != nil && s.jobs != nil {
		if err := s.jobs.Dispatch(dbctx.Context{Ctx: ctx}, enrichJob.ID); err != nil {
			s.log.Warn("profile enrich dispatch failed", "job_id", enrichJob.ID, "error", err)
		}
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.IncEngineEvaluation("score")
	}
	return out, nil
}

func (s *assessmentService) Delete(ctx context.Context, assessmentID uuid.UUID) error {
	rd, err := requireOrgScope(ctx)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		assessment, err := s.loadOwned(dbc, rd.OrgID, assessmentID)
		if err != nil {
			return err
		}
		if err := s.statusRepo.DeleteByAssessmentID(dbc, assessment.ID); err != nil {
			return fmt.Errorf("delete statuses: %w", err)
		}
		if err := s.profileRepo.DeleteByAssessmentID(dbc, assessment.ID); err != nil {
			return fmt.Errorf("delete profile: %w", err)
		}
		if err := s.assessRepo.Delete(dbc, assessment.ID); err != nil {
			return fmt.Errorf("delete assessment: %w", err)
		}
		return nil
	})
}

func (s *assessmentService) UpsertStatus(ctx context.Context, assessmentID uuid.UUID, requirementID string, input StatusInput) (*StatusUpdateView, error) {
	rd, err := requireOrgScope(ctx)
	if err != nil {
		return nil, err
	}
	requirementID = strings.TrimSpace(requirementID)
	if requirementID == "" {
		return nil, fmt.Errorf("requirement id required: %w", pkgerrors.ErrInvalidArgument)
	}
	status, err := compliance.ParseStatus(input.Status)
	if err != nil {
		return nil, err
	}

	var (
		out    *StatusUpdateView
		scored *types.Assessment
	)
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		assessment, err := s.loadOwned(dbc, rd.OrgID, assessmentID)
		if err != nil {
			return err
		}
		req, ok := s.cat.RequirementByID(requirementID)
		if !ok {
			return fmt.Errorf("unknown requirement %q: %w", requirementID, pkgerrors.ErrInvalidArgument)
		}
		jurs := jurisdictionsFromJSON(assessment.Jurisdictions, s.log)
		if !containsJurisdiction(jurs, req.Jurisdiction) {
			return fmt.Errorf("requirement %q is outside the assessment's jurisdictions: %w", requirementID, pkgerrors.ErrInvalidArgument)
		}
		profileRow, err := s.profileRepo.GetByAssessmentID(dbc, assessment.ID)
		if err != nil {
			return fmt.Errorf("fetch profile: %w", err)
		}
		if profileRow == nil {
			return fmt.Errorf("assessment %s has no profile", assessment.ID)
		}
		if !req.Applies(engineProfileFromRow(profileRow, s.log)) {
			return fmt.Errorf("requirement %q does not apply to this profile: %w", requirementID, pkgerrors.ErrInvalidArgument)
		}

		row := &types.RequirementStatus{
			ID:            uuid.New(),
			AssessmentID:  assessment.ID,
			RequirementID: requirementID,
			Status:        string(status),
			Note:          strings.TrimSpace(input.Note),
			EvidenceURL:   strings.TrimSpace(input.EvidenceURL),
			UpdatedBy:     rd.UserID,
		}
		if err := s.statusRepo.Upsert(dbc, []*types.RequirementStatus{row}); err != nil {
			return fmt.Errorf("upsert status: %w", err)
		}

		st, err := s.evaluate(dbc, assessment, profileRow)
		if err != nil {
			return err
		}
		if err := s.persistSnapshot(dbc, st); err != nil {
			return err
		}
		out = &StatusUpdateView{Status: row, Scorecard: st.card}
		scored = st.assessment
		return nil
	}); err != nil {
		return nil, err
	}

	s.notify.AssessmentScored(rd.OrgID, scored)
	if metrics := observability.Current(); metrics != nil {
		metrics.IncEngineEvaluation("score")
	}
	return out, nil
}

func (s *assessmentService) ListStatuses(ctx context.Context, assessmentID uuid.UUID) ([]*types.RequirementStatus, error) {
	rd, err := requireOrgScope(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := s.loadOwned(dbc, rd.OrgID, assessmentID); err != nil {
		return nil, err
	}
	rows, err := s.statusRepo.ListByAssessmentID(dbc, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	return rows, nil
}

func (s *assessmentService) Score(ctx context.Context, assessmentID uuid.UUID) (*ScoreView, error) {
	rd, err := requireOrgScope(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	assessment, err := s.loadOwned(dbc, rd.OrgID, assessmentID)
	if err != nil {
		return nil, err
	}
	st, err := s.evaluate(dbc, assessment, nil)
	if err != nil {
		return nil, err
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.IncEngineEvaluation("score")
	}
	return &ScoreView{
		Scorecard:      st.card,
		CatalogVersion: s.cat.Version(),
		Snapshot: ScoreSnapshot{
			OverallScore:   assessment.OverallScore,
			MandatoryScore: assessment.MandatoryScore,
			RiskLevel:      assessment.RiskLevel,
			ByCategory:     assessment.ByCategory,
			CatalogVersion: assessment.CatalogVersion,
			ScoredAt:       assessment.ScoredAt,
		},
	}, nil
}

func (s *assessmentService) Gaps(ctx context.Context, assessmentID uuid.UUID) ([]compliance.Gap, error) {
	rd, err := requireOrgScope(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	assessment, err := s.loadOwned(dbc, rd.OrgID, assessmentID)
	if err != nil {
		return nil, err
	}
	st, err := s.evaluate(dbc, assessment, nil)
	if err != nil {
		return nil, err
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.IncEngineEvaluation("gaps")
	}
	return st.gaps, nil
}

func (s *assessmentService) Crosswalk(ctx context.Context, assessmentID uuid.UUID, with string) (*CrosswalkView, error) {
	rd, err := requireOrgScope(ctx)
	if err != nil {
		return nil, err
	}
	target, err := compliance.ParseJurisdiction(with)
	if err != nil {
		return nil, err
	}

	dbc := dbctx.Context{Ctx: ctx}
	assessment, err := s.loadOwned(dbc, rd.OrgID, assessmentID)
	if err != nil {
		return nil, err
	}
	profileRow, err := s.profileRepo.GetByAssessmentID(dbc, assessment.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	if profileRow == nil {
		return nil, fmt.Errorf("assessment %s has no profile", assessment.ID)
	}
	profile := engineProfileFromRow(profileRow, s.log)

	applicableTarget := compliance.Resolve(profile, s.cat.Jurisdiction(target))

	view := &CrosswalkView{With: target, Pairs: []CrosswalkPair{}}
	for _, jur := range jurisdictionsFromJSON(assessment.Jurisdictions, s.log) {
		if jur == target {
			continue
		}
		applicable := compliance.Resolve(profile, s.cat.Jurisdiction(jur))
		overlaps := compliance.Overlaps(applicable, applicableTarget, s.cat.MappingsBetween(jur, target))
		saved := compliance.TotalWeeksSaved(overlaps)
		view.Pairs = append(view.Pairs, CrosswalkPair{
			Jurisdiction: jur,
			Overlaps:     overlaps,
			WeeksSaved:   saved,
		})
		view.TotalWeeksSaved += saved
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.IncEngineEvaluation("crosswalk")
	}
	return view, nil
}

func (s *assessmentService) Deadlines(ctx context.Context, assessmentID uuid.UUID) (*DeadlineView, error) {
	rd, err := requireOrgScope(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	assessment, err := s.loadOwned(dbc, rd.OrgID, assessmentID)
	if err != nil {
		return nil, err
	}
	profileRow, err := s.profileRepo.GetByAssessmentID(dbc, assessment.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	if profileRow == nil {
		return nil, fmt.Errorf("assessment %s has no profile", assessment.ID)
	}
	view, err := disposalViewFromProfile(profileRow)
	if err != nil {
		return nil, err
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.IncEngineEvaluation("deorbit")
	}
	return view, nil
}

// DetailForOrg is the job-facing read: the same shape Get returns,
// minus the request identity.
func (s *assessmentService) DetailForOrg(dbc dbctx.Context, orgID, assessmentID uuid.UUID) (*AssessmentDetail, error) {
	assessment, err := s.loadOwned(dbc, orgID, assessmentID)
	if err != nil {
		return nil, err
	}
	st, err := s.evaluate(dbc, assessment, nil)
	if err != nil {
		return nil, err
	}
	return s.detailFromState(st), nil
}

// Rescore re-evaluates and persists the snapshot after something outside
// a request mutated the inputs, e.g. satellite enrichment. Notification
// stays with the caller so it lands after the caller's transaction.
func (s *assessmentService) Rescore(dbc dbctx.Context, orgID, assessmentID uuid.UUID) (*types.Assessment, error) {
	assessment, err := s.loadOwned(dbc, orgID, assessmentID)
	if err != nil {
		return nil, err
	}
	st, err := s.evaluate(dbc, assessment, nil)
	if err != nil {
		return nil, err
	}
	if err := s.persistSnapshot(dbc, st); err != nil {
		return nil, err
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.IncEngineEvaluation("rescore")
	}
	return st.assessment, nil
}

// =========================
// engine plumbing
// =========================

// engineState is one evaluation of an assessment against the live
// catalog: applicable set, statuses, scorecard, gaps.
type engineState struct {
	assessment *types.Assessment
	profile    *types.OperatorProfile
	applicable []compliance.Requirement
	statusRows []*types.RequirementStatus
	card       compliance.Scorecard
	gaps       []compliance.Gap
}

// evaluate loads what it is not handed (profile may be nil) and runs the
// resolver and scorer. It never writes; persistSnapshot does.
func (s *assessmentService) evaluate(dbc dbctx.Context, assessment *types.Assessment, profileRow *types.OperatorProfile) (*engineState, error) {
	if profileRow == nil {
		var err error
		profileRow, err = s.profileRepo.GetByAssessmentID(dbc, assessment.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch profile: %w", err)
		}
		if profileRow == nil {
			return nil, fmt.Errorf("assessment %s has no profile", assessment.ID)
		}
	}

	profile := engineProfileFromRow(profileRow, s.log)
	jurs := jurisdictionsFromJSON(assessment.Jurisdictions, s.log)
	applicable := compliance.Resolve(profile, s.cat.ForJurisdictions(jurs))

	statusRows, err := s.statusRepo.ListByAssessmentID(dbc, assessment.ID)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	statuses := make(map[string]compliance.Status, len(statusRows))
	for _, row := range statusRows {
		statuses[row.RequirementID] = compliance.Status(row.Status)
	}

	return &engineState{
		assessment: assessment,
		profile:    profileRow,
		applicable: applicable,
		statusRows: statusRows,
		card:       compliance.Score(applicable, statuses),
		gaps:       compliance.Gaps(applicable, statuses),
	}, nil
}

// persistSnapshot denormalizes the scorecard onto the assessment row and
// keeps the in-memory struct in sync with what was written.
func (s *assessmentService) persistSnapshot(dbc dbctx.Context, st *engineState) error {
	byCategory, err := json.Marshal(st.card.ByCategory)
	if err != nil {
		return fmt.Errorf("encode by_category: %w", err)
	}
	now := time.Now().UTC()
	updates := map[string]interface{}{
		"overall_score":    st.card.Overall,
		"mandatory_score":  st.card.Mandatory,
		"risk_level":       string(st.card.Risk),
		"by_category":      datatypes.JSON(byCategory),
		"applicable_count": len(st.applicable),
		"catalog_version":  s.cat.Version(),
		"scored_at":        now,
	}
	if err := s.assessRepo.UpdateFields(dbc, st.assessment.ID, updates); err != nil {
		return fmt.Errorf("persist score snapshot: %w", err)
	}

	overall := st.card.Overall
	mandatory := st.card.Mandatory
	st.assessment.OverallScore = &overall
	st.assessment.MandatoryScore = &mandatory
	st.assessment.RiskLevel = string(st.card.Risk)
	st.assessment.ByCategory = datatypes.JSON(byCategory)
	st.assessment.ApplicableCount = len(st.applicable)
	st.assessment.CatalogVersion = s.cat.Version()
	st.assessment.ScoredAt = &now
	return nil
}

func (s *assessmentService) detailFromState(st *engineState) *AssessmentDetail {
	byID := make(map[string]*types.RequirementStatus, len(st.statusRows))
	for _, row := range st.statusRows {
		byID[row.RequirementID] = row
	}

	views := make([]RequirementView, 0, len(st.applicable))
	for _, req := range st.applicable {
		view := RequirementView{Requirement: req, Status: compliance.StatusNotAssessed}
		if row := byID[req.ID]; row != nil {
			if parsed, err := compliance.ParseStatus(row.Status); err == nil {
				view.Status = parsed
			}
			view.Note = row.Note
			view.EvidenceURL = row.EvidenceURL
			updatedAt := row.UpdatedAt
			view.StatusUpdatedAt = &updatedAt
		}
		views = append(views, view)
	}

	return &AssessmentDetail{
		Assessment:     st.assessment,
		Profile:        st.profile,
		Requirements:   views,
		Scorecard:      st.card,
		Gaps:           st.gaps,
		CatalogVersion: s.cat.Version(),
	}
}

func (s *assessmentService) loadOwned(dbc dbctx.Context, orgID, assessmentID uuid.UUID) (*types.Assessment, error) {
	if assessmentID == uuid.Nil {
		return nil, fmt.Errorf("missing assessment id: %w", pkgerrors.ErrInvalidArgument)
	}
	assessment, err := s.assessRepo.GetForOrg(dbc, orgID, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("fetch assessment: %w", err)
	}
	if assessment == nil {
		return nil, fmt.Errorf("assessment %s: %w", assessmentID, pkgerrors.ErrNotFound)
	}
	return assessment, nil
}

// maybeEnqueueProfileEnrich queues a satellite lookup when the profile
// names a NORAD id but is missing orbit facts the lookup can fill.
func (s *assessmentService) maybeEnqueueProfileEnrich(dbc dbctx.Context, rd *ctxutil.RequestData, assessmentID uuid.UUID, profileRow *types.OperatorProfile, trigger string) (*types.JobRun, error) {
	if s.jobs == nil {
		return nil, nil
	}
	if profileRow.NoradCatID == nil || *profileRow.NoradCatID <= 0 {
		return nil, nil
	}
	complete := profileRow.OrbitType != "" && profileRow.AltitudeKm != nil && profileRow.LaunchDate != nil
	if complete {
		return nil, nil
	}
	job, _, err := s.jobs.EnqueueProfileEnrichIfNeeded(dbc, rd.OrgID, rd.UserID, assessmentID, *profileRow.NoradCatID, trigger)
	return job, err
}

// =========================
// input validation + parsing helpers
// =========================

func requireOrgScope(ctx context.Context) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, fmt.Errorf("missing request identity: %w", pkgerrors.ErrUnauthorized)
	}
	if rd.OrgID == uuid.Nil {
		return nil, fmt.Errorf("missing org scope: %w", pkgerrors.ErrForbidden)
	}
	return rd, nil
}

func parseJurisdictionList(raw []string) ([]compliance.Jurisdiction, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("at least one jurisdiction required: %w", pkgerrors.ErrInvalidArgument)
	}
	seen := make(map[compliance.Jurisdiction]bool, len(raw))
	out := make([]compliance.Jurisdiction, 0, len(raw))
	for _, v := range raw {
		jur, err := compliance.ParseJurisdiction(strings.TrimSpace(v))
		if err != nil {
			return nil, err
		}
		if seen[jur] {
			continue
		}
		seen[jur] = true
		out = append(out, jur)
	}
	return out, nil
}

func validateProfileInput(in ProfileInput) error {
	if _, err := compliance.ParseOperatorType(in.OperatorType); err != nil {
		return err
	}
	if len(in.ActivityTypes) == 0 {
		return fmt.Errorf("at least one activity type required: %w", pkgerrors.ErrInvalidArgument)
	}
	for _, a := range in.ActivityTypes {
		if _, err := compliance.ParseActivityType(a); err != nil {
			return err
		}
	}
	if _, err := compliance.ParseSizeClass(in.SizeClass); err != nil {
		return err
	}
	if in.OrbitType != "" {
		if _, err := compliance.ParseOrbitType(in.OrbitType); err != nil {
			return err
		}
	}
	for flag := range in.Flags {
		if _, err := compliance.ParseFlag(flag); err != nil {
			return err
		}
	}
	if in.MassKg != nil && *in.MassKg < 0 {
		return fmt.Errorf("mass_kg must be non-negative: %w", pkgerrors.ErrInvalidArgument)
	}
	if in.AltitudeKm != nil && *in.AltitudeKm < 0 {
		return fmt.Errorf("altitude_km must be non-negative: %w", pkgerrors.ErrInvalidArgument)
	}
	if in.MissionDurationYears != nil && *in.MissionDurationYears <= 0 {
		return fmt.Errorf("mission_duration_years must be positive: %w", pkgerrors.ErrInvalidArgument)
	}
	if in.NoradCatID != nil && *in.NoradCatID <= 0 {
		return fmt.Errorf("norad_cat_id must be positive: %w", pkgerrors.ErrInvalidArgument)
	}
	return nil
}

func profileRowFromInput(assessmentID uuid.UUID, in ProfileInput) *types.OperatorProfile {
	activities, _ := json.Marshal(in.ActivityTypes)
	flags := in.Flags
	if flags == nil {
		flags = map[string]bool{}
	}
	flagsJSON, _ := json.Marshal(flags)
	return &types.OperatorProfile{
		ID:                   uuid.New(),
		AssessmentID:         assessmentID,
		OperatorType:         in.OperatorType,
		ActivityTypes:        datatypes.JSON(activities),
		SizeClass:            in.SizeClass,
		OrbitType:            in.OrbitType,
		MassKg:               in.MassKg,
		Flags:                datatypes.JSON(flagsJSON),
		LaunchDate:           in.LaunchDate,
		MissionDurationYears: in.MissionDurationYears,
		AltitudeKm:           in.AltitudeKm,
		NoradCatID:           in.NoradCatID,
	}
}

// engineProfileFromRow converts a stored profile into the engine's view.
// Stored JSON parses defensively: malformed columns degrade to empty
// rather than failing the evaluation.
func engineProfileFromRow(row *types.OperatorProfile, log *logger.Logger) compliance.Profile {
	p := compliance.Profile{
		OperatorType: compliance.OperatorType(row.OperatorType),
		SizeClass:    compliance.SizeClass(row.SizeClass),
		OrbitType:    compliance.OrbitType(row.OrbitType),
	}
	if row.MassKg != nil {
		p.MassKg = *row.MassKg
	}

	var activities []string
	if len(row.ActivityTypes) > 0 {
		if err := json.Unmarshal(row.ActivityTypes, &activities); err != nil {
			log.Warn("malformed activity_types on profile", "profile_id", row.ID, "error", err)
		}
	}
	for _, a := range activities {
		p.ActivityTypes = append(p.ActivityTypes, compliance.ActivityType(a))
	}

	var flags map[string]bool
	if len(row.Flags) > 0 {
		if err := json.Unmarshal(row.Flags, &flags); err != nil {
			log.Warn("malformed flags on profile", "profile_id", row.ID, "error", err)
		}
	}
	if len(flags) > 0 {
		p.Flags = make(map[compliance.Flag]bool, len(flags))
		for k, v := range flags {
			p.Flags[compliance.Flag(k)] = v
		}
	}
	return p
}

func jurisdictionsFromJSON(raw datatypes.JSON, log *logger.Logger) []compliance.Jurisdiction {
	var decoded []string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			log.Warn("malformed jurisdictions column", "error", err)
		}
	}
	out := make([]compliance.Jurisdiction, 0, len(decoded))
	for _, v := range decoded {
		out = append(out, compliance.Jurisdiction(v))
	}
	return out
}

func containsJurisdiction(set []compliance.Jurisdiction, v compliance.Jurisdiction) bool {
	for _, got := range set {
		if got == v {
			return true
		}
	}
	return false
}

// disposalViewFromProfile runs the deadline calculator over stored
// mission facts; both launch date and duration must be present.
func disposalViewFromProfile(row *types.OperatorProfile) (*DeadlineView, error) {
	if row.LaunchDate == nil {
		return nil, fmt.Errorf("profile launch_date required for disposal estimate: %w", pkgerrors.ErrInvalidArgument)
	}
	if row.MissionDurationYears == nil {
		return nil, fmt.Errorf("profile mission_duration_years required for disposal estimate: %w", pkgerrors.ErrInvalidArgument)
	}

	// Unknown altitude defers to the orbit regime alone.
	altitude := compliance.LEOAltitudeThresholdKm + 1
	if row.AltitudeKm != nil {
		altitude = *row.AltitudeKm
	}
	estimate := compliance.EstimateDisposal(
		compliance.OrbitType(row.OrbitType),
		altitude,
		*row.LaunchDate,
		*row.MissionDurationYears,
	)
	return &DeadlineView{
		OrbitType:            row.OrbitType,
		AltitudeKm:           row.AltitudeKm,
		LaunchDate:           *row.LaunchDate,
		MissionDurationYears: *row.MissionDurationYears,
		Estimate:             estimate,
	}, nil
}
