package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/caelexhq/caelex-backend/internal/catalog"
	"github.com/caelexhq/caelex-backend/internal/compliance"
	assessrepos "github.com/caelexhq/caelex-backend/internal/data/repos/assessments"
	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/observability"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
)

const (
	dashboardAssessmentCap  = 200
	dashboardTopGaps        = 10
	dashboardHorizonYears   = 5
	dashboardEvalConcurrent = 4
)

type DashboardGap struct {
	AssessmentID   uuid.UUID `json:"assessment_id"`
	AssessmentName string    `json:"assessment_name"`
	compliance.Gap
}

type DashboardDeadline struct {
	AssessmentID     uuid.UUID               `json:"assessment_id"`
	AssessmentName   string                  `json:"assessment_name"`
	Rule             compliance.DisposalRule `json:"rule"`
	DisposalDeadline time.Time               `json:"disposal_deadline"`
}

// DashboardView is the org-level compliance posture summary: counts and
// risk mix from stored snapshots, top gaps and disposal deadlines from a
// live evaluation of each assessment.
type DashboardView struct {
	AssessmentCount   int64               `json:"assessment_count"`
	AverageScore      *float64            `json:"average_score,omitempty"`
	RiskDistribution  map[string]int      `json:"risk_distribution"`
	TopGaps           []DashboardGap      `json:"top_gaps"`
	UpcomingDeadlines []DashboardDeadline `json:"upcoming_deadlines"`
	CatalogVersion    string              `json:"catalog_version"`
}

type DashboardService interface {
	Get(ctx context.Context) (*DashboardView, error)
}

type dashboardService struct {
	db          *gorm.DB
	log         *logger.Logger
	cat         *catalog.Catalog
	assessRepo  assessrepos.AssessmentRepo
	profileRepo assessrepos.OperatorProfileRepo
	statusRepo  assessrepos.RequirementStatusRepo
}

func NewDashboardService(
	db *gorm.DB,
	log *logger.Logger,
	cat *catalog.Catalog,
	assessRepo assessrepos.AssessmentRepo,
	profileRepo assessrepos.OperatorProfileRepo,
	statusRepo assessrepos.RequirementStatusRepo,
) DashboardService {
	serviceLog := log.With("service", "DashboardService")
	return &dashboardService{
		db:          db,
		log:         serviceLog,
		cat:         cat,
		assessRepo:  assessRepo,
		profileRepo: profileRepo,
		statusRepo:  statusRepo,
	}
}

// assessmentEval is the per-assessment slice of the fan-out: live gaps
// plus the disposal deadline when the profile carries mission facts.
type assessmentEval struct {
	gaps     []DashboardGap
	deadline *DashboardDeadline
}

func (s *dashboardService) Get(ctx context.Context) (*DashboardView, error) {
	rd, err := requireOrgScope(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.assessRepo.ListByOrg(dbctx.Context{Ctx: ctx}, rd.OrgID, dashboardAssessmentCap)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}

	view := &DashboardView{
		AssessmentCount:   int64(len(rows)),
		RiskDistribution:  map[string]int{},
		TopGaps:           []DashboardGap{},
		UpcomingDeadlines: []DashboardDeadline{},
		CatalogVersion:    s.cat.Version(),
	}

	// Counts and risk mix come from the stored snapshots; no evaluation
	// needed.
	var scoreSum float64
	var scored int
	for _, a := range rows {
		if a.RiskLevel != "" {
			view.RiskDistribution[a.RiskLevel]++
		}
		if a.OverallScore != nil {
			scoreSum += float64(*a.OverallScore)
			scored++
		}
	}
	if scored > 0 {
		avg := scoreSum / float64(scored)
		view.AverageScore = &avg
	}

	// Gaps and deadlines need the live engine; fan out per assessment.
	evals := make([]assessmentEval, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dashboardEvalConcurrent)
	for i, a := range rows {
		i, a := i, a
		g.Go(func() error {
			eval, err := s.evaluateOne(gctx, a)
			if err != nil {
				return err
			}
			evals[i] = *eval
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	horizon := time.Now().UTC().AddDate(dashboardHorizonYears, 0, 0)
	allGaps := make([]DashboardGap, 0)
	for _, eval := range evals {
		allGaps = append(allGaps, eval.gaps...)
		if eval.deadline != nil && eval.deadline.DisposalDeadline.Before(horizon) {
			view.UpcomingDeadlines = append(view.UpcomingDeadlines, *eval.deadline)
		}
	}

	sort.Slice(allGaps, func(i, j int) bool {
		if allGaps[i].Weight != allGaps[j].Weight {
			return allGaps[i].Weight > allGaps[j].Weight
		}
		return allGaps[i].RequirementID < allGaps[j].RequirementID
	})
	if len(allGaps) > dashboardTopGaps {
		allGaps = allGaps[:dashboardTopGaps]
	}
	view.TopGaps = allGaps

	sort.Slice(view.UpcomingDeadlines, func(i, j int) bool {
		return view.UpcomingDeadlines[i].DisposalDeadline.Before(view.UpcomingDeadlines[j].DisposalDeadline)
	})

	if metrics := observability.Current(); metrics != nil {
		metrics.IncEngineEvaluation("dashboard")
	}
	return view, nil
}

func (s *dashboardService) evaluateOne(ctx context.Context, assessment *types.Assessment) (*assessmentEval, error) {
	dbc := dbctx.Context{Ctx: ctx}
	eval := &assessmentEval{}

	profileRow, err := s.profileRepo.GetByAssessmentID(dbc, assessment.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch profile for %s: %w", assessment.ID, err)
	}
	if profileRow == nil {
		// Half-created assessment; skip rather than fail the whole board.
		s.log.Warn("assessment has no profile, skipping", "assessment_id", assessment.ID)
		return eval, nil
	}

	profile := engineProfileFromRow(profileRow, s.log)
	jurs := jurisdictionsFromJSON(assessment.Jurisdictions, s.log)
	applicable := compliance.Resolve(profile, s.cat.ForJurisdictions(jurs))

	statusRows, err := s.statusRepo.ListByAssessmentID(dbc, assessment.ID)
	if err != nil {
		return nil, fmt.Errorf("list statuses for %s: %w", assessment.ID, err)
	}
	statuses := make(map[string]compliance.Status, len(statusRows))
	for _, row := range statusRows {
		statuses[row.RequirementID] = compliance.Status(row.Status)
	}

	for _, gap := range compliance.Gaps(applicable, statuses) {
		eval.gaps = append(eval.gaps, DashboardGap{
			AssessmentID:   assessment.ID,
			AssessmentName: assessment.Name,
			Gap:            gap,
		})
	}

	if profileRow.LaunchDate != nil && profileRow.MissionDurationYears != nil {
		altitude := compliance.LEOAltitudeThresholdKm + 1
		if profileRow.AltitudeKm != nil {
			altitude = *profileRow.AltitudeKm
		}
		estimate := compliance.EstimateDisposal(
			compliance.OrbitType(profileRow.OrbitType),
			altitude,
			*profileRow.LaunchDate,
			*profileRow.MissionDurationYears,
		)
		eval.deadline = &DashboardDeadline{
			AssessmentID:     assessment.ID,
			AssessmentName:   assessment.Name,
			Rule:             estimate.Rule,
			DisposalDeadline: estimate.DisposalDeadline,
		}
	}
	return eval, nil
}
