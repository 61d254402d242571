package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/portalsekolah/spmb/internal/config"
	"github.com/portalsekolah/spmb/pkg/clients/sheetsclient"
	"github.com/portalsekolah/spmb/pkg/core/admission"
	"github.com/portalsekolah/spmb/pkg/db"
	"github.com/portalsekolah/spmb/pkg/lock"
	"github.com/portalsekolah/spmb/pkg/metrics"
)

// RankingPublisher writes a ranking to a spreadsheet
type RankingPublisher interface {
	PublishRanking(spreadsheetID string, ranking *sheetsclient.PublishedRanking) error
}

// PublishStore defines the database operations needed to publish a ranking
type PublishStore interface {
	AcceptanceStore
	GetCommittedRanking(ctx context.Context, periodID string) (*db.CommittedRanking, error)
}

// PublishRequest selects what to publish. Committed publishes the ranking stored by the latest
// commit, with applicants accepted by earlier commits listed separately; otherwise a fresh
// dry-run preview is published.
type PublishRequest struct {
	PeriodID    string
	CustomQuota *int
	Committed   bool
}

// PublishRanking publishes the ranking of a period to the configured ranking spreadsheet
func PublishRanking(
	ctx context.Context,
	store PublishStore,
	publisher RankingPublisher,
	locker lock.Locker,
	cfg *config.Config,
	logger *zap.Logger,
	m *metrics.Metrics,
	req PublishRequest,
) (*sheetsclient.PublishedRanking, error) {
	logger = logger.With(zap.String("period_id", req.PeriodID), zap.Bool("committed", req.Committed))

	var (
		ranking *sheetsclient.PublishedRanking
		err     error
	)
	if req.Committed {
		ranking, err = committedRanking(ctx, store, cfg, logger, req.PeriodID)
	} else {
		ranking, err = previewRanking(ctx, store, locker, cfg, logger, m, req)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("Publishing ranking", zap.String("tab", ranking.TabTitle()), zap.Int("rows", len(ranking.Rows)))
	if err := publisher.PublishRanking(cfg.RankingSheetID, ranking); err != nil {
		return nil, fmt.Errorf("failed to publish ranking: %w", err)
	}

	logger.Info("Ranking published", zap.String("tab", ranking.TabTitle()), zap.Int("rows", len(ranking.Rows)))
	return ranking, nil
}

func previewRanking(
	ctx context.Context,
	store AcceptanceStore,
	locker lock.Locker,
	cfg *config.Config,
	logger *zap.Logger,
	m *metrics.Metrics,
	req PublishRequest,
) (*sheetsclient.PublishedRanking, error) {
	result, err := ProcessAcceptance(ctx, store, locker, cfg, logger, m, AcceptanceRequest{
		PeriodID:    req.PeriodID,
		CustomQuota: req.CustomQuota,
		DryRun:      true,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]sheetsclient.RankingRow, len(result.Ranked))
	for i, r := range result.Ranked {
		rows[i] = rankingRowFromEngine(r)
	}

	return &sheetsclient.PublishedRanking{
		AcademicYear:  result.Period.AcademicYear,
		PeriodName:    result.Period.Name,
		ReferenceDate: result.ReferenceDate,
		GeneratedAt:   time.Now(),
		Rows:          rows,
	}, nil
}

// committedRanking reads back the ranking written by the latest commit of a period
func committedRanking(
	ctx context.Context,
	store PublishStore,
	cfg *config.Config,
	logger *zap.Logger,
	periodID string,
) (*sheetsclient.PublishedRanking, error) {
	resolver, err := admission.NewReferenceDateResolver(cfg.ReferenceDateRule)
	if err != nil {
		return nil, err
	}

	period, err := store.GetAdmissionPeriod(ctx, periodID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, &admission.NotFoundError{Resource: "admission period", ID: periodID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch admission period: %w", err)
	}

	referenceDate, err := resolver.Resolve(period.AcademicYear)
	if err != nil {
		return nil, err
	}

	logger.Debug("Fetching committed ranking")
	committed, err := store.GetCommittedRanking(ctx, periodID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("period %s has no committed ranking", periodID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch committed ranking: %w", err)
	}
	logger.Debug("Fetched committed ranking",
		zap.String("run_id", committed.Run.ID),
		zap.Int("ranked", len(committed.Ranked)),
		zap.Int("earlier_accepted", len(committed.EarlierAccepted)))

	rows := make([]sheetsclient.RankingRow, len(committed.Ranked))
	for i, a := range committed.Ranked {
		rows[i] = rankingRowFromStored(a, referenceDate)
	}

	var earlier []sheetsclient.RankingRow
	for _, a := range committed.EarlierAccepted {
		earlier = append(earlier, rankingRowFromStored(a, referenceDate))
	}

	return &sheetsclient.PublishedRanking{
		AcademicYear:    period.AcademicYear,
		PeriodName:      period.Name,
		ReferenceDate:   referenceDate,
		GeneratedAt:     time.Now(),
		Committed:       true,
		Rows:            rows,
		EarlierAccepted: earlier,
	}, nil
}

func rankingRowFromEngine(r admission.RankedApplicant) sheetsclient.RankingRow {
	row := sheetsclient.RankingRow{
		Rank:               r.PriorityRank,
		RegistrationNumber: r.Applicant.RegistrationNumber,
		FullName:           r.Applicant.FullName,
		PriorityGroup:      r.PriorityGroup,
		InZone:             r.IsInZone,
		Recommendation:     string(r.Recommendation),
		Notes:              r.Notes,
	}
	if r.PriorityGroup > 0 {
		row.Age = r.AgeAtReference.String()
	}
	if r.Classified || r.Applicant.Residence != nil || r.Applicant.DistanceToSchoolKm != nil {
		row.DistanceKm = r.DisplayDistance()
	}
	return row
}

func rankingRowFromStored(a db.Applicant, referenceDate time.Time) sheetsclient.RankingRow {
	row := sheetsclient.RankingRow{
		RegistrationNumber: a.RegistrationNumber,
		FullName:           a.FullName,
		Notes:              a.Notes,
	}
	if a.PriorityRank != nil {
		row.Rank = *a.PriorityRank
	}
	if a.PriorityGroup != nil {
		row.PriorityGroup = *a.PriorityGroup
	}
	if a.IsInZone != nil {
		row.InZone = *a.IsInZone
	}
	if a.Recommendation != nil {
		row.Recommendation = *a.Recommendation
	}
	if a.RankedDistanceKm != nil {
		row.DistanceKm = admission.RankedApplicant{DistanceToSchoolKm: *a.RankedDistanceKm}.DisplayDistance()
	}
	if class, err := admission.ClassifyAge(a.BirthDate, referenceDate); err == nil {
		row.Age = class.Age.String()
	}
	return row
}
