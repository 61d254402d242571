//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/portalsekolah/spmb/pkg/db"
	"github.com/portalsekolah/spmb/pkg/postgres"
)

type PostgresStoreSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	store     *postgres.DB
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("spmb"),
		tcpostgres.WithUsername("spmb"),
		tcpostgres.WithPassword("spmb"),
		tcpostgres.BasicWaitStrategies(),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.store, err = postgres.NewDB(ctx, connStr)
	s.Require().NoError(err)

	applied, err := s.store.RunMigrations(ctx)
	s.Require().NoError(err)
	s.Require().NotEmpty(applied)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.store != nil {
		s.store.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.exec(ctx, `TRUNCATE applicant, acceptance_run, admission_period, site_settings`)

	s.exec(ctx, `INSERT INTO admission_period (id, name, academic_year, quota) VALUES ('p1', 'Zonasi', '2025/2026', 2)`)
	s.exec(ctx, `INSERT INTO site_settings (school_name, school_latitude, school_longitude, max_distance_km) VALUES ('SD Negeri 1', -6.2, 106.8166, 3)`)
	s.exec(ctx, `
		INSERT INTO applicant (id, period_id, full_name, birth_date, distance_to_school_km, status, registered_at) VALUES
			('a1', 'p1', 'Ayu', '2018-03-01', 1.0, 'verified', '2025-05-02T08:00:00Z'),
			('a2', 'p1', 'Budi', '2018-04-01', 0.5, 'pending', '2025-05-02T09:00:00Z'),
			('a3', 'p1', 'Citra', NULL, 2.0, 'verified', '2025-05-02T07:00:00Z'),
			('a4', 'p1', 'Dewi', '2018-01-01', 0.1, 'withdrawn', '2025-05-01T07:00:00Z')
	`)
}

func (s *PostgresStoreSuite) exec(ctx context.Context, sql string) {
	s.Require().NoError(postgres.ExecForTest(ctx, s.store, sql))
}

func (s *PostgresStoreSuite) TestRunMigrationsIsIdempotent() {
	applied, err := s.store.RunMigrations(context.Background())
	s.Require().NoError(err)
	s.Empty(applied)
}

func (s *PostgresStoreSuite) TestGetAdmissionPeriod() {
	ctx := context.Background()

	period, err := s.store.GetAdmissionPeriod(ctx, "p1")
	s.Require().NoError(err)
	s.Equal("2025/2026", period.AcademicYear)
	s.Equal(2, period.Quota)

	_, err = s.store.GetAdmissionPeriod(ctx, "missing")
	s.True(errors.Is(err, db.ErrNotFound))
}

func (s *PostgresStoreSuite) TestGetEligibleApplicantsExcludesWithdrawn() {
	applicants, err := s.store.GetEligibleApplicants(context.Background(), "p1")
	s.Require().NoError(err)

	var ids []string
	for _, a := range applicants {
		ids = append(ids, a.ID)
	}
	s.Equal([]string{"a3", "a1", "a2"}, ids)
	s.Nil(applicants[0].BirthDate)
	s.Nil(applicants[0].ResidenceLatitude)
}

func (s *PostgresStoreSuite) TestGetSchoolSettings() {
	settings, err := s.store.GetSchoolSettings(context.Background())
	s.Require().NoError(err)
	s.Equal(3.0, settings.MaxDistanceKm)
}

func (s *PostgresStoreSuite) TestApplyAcceptanceRun() {
	ctx := context.Background()
	run := newRun()

	err := s.store.ApplyAcceptanceRun(ctx, run, []db.ApplicantOutcome{
		{ApplicantID: "a2", Status: db.StatusAccepted, PriorityRank: 1, PriorityGroup: 1, DistanceToSchoolKm: 0.5, IsInZone: true, Recommendation: "accepted"},
		{ApplicantID: "a1", Status: db.StatusAccepted, PriorityRank: 2, PriorityGroup: 1, DistanceToSchoolKm: 1.0, IsInZone: true, Recommendation: "accepted"},
		{ApplicantID: "a3", Status: db.StatusVerified, PriorityRank: 3, Recommendation: "waitlist", Notes: "unclassified: birthDate is missing"},
	})
	s.Require().NoError(err)

	count, err := s.store.CountAcceptedApplicants(ctx, "p1")
	s.Require().NoError(err)
	s.Equal(2, count)

	committed, err := s.store.GetCommittedRanking(ctx, "p1")
	s.Require().NoError(err)
	s.Equal(run.ID, committed.Run.ID)
	ranked := committed.Ranked
	s.Require().Len(ranked, 3)
	s.Equal("a2", ranked[0].ID)
	s.Equal(run.ID, *ranked[0].LastRunID)
	s.Equal("waitlist", *ranked[2].Recommendation)
	s.Empty(committed.EarlierAccepted)

	runs, err := s.store.ListAcceptanceRuns(ctx, "p1")
	s.Require().NoError(err)
	s.Require().Len(runs, 1)
	s.Equal(run.ID, runs[0].ID)
}

func (s *PostgresStoreSuite) TestApplyAcceptanceRunRollsBackOnStaleApplicant() {
	ctx := context.Background()

	err := s.store.ApplyAcceptanceRun(ctx, newRun(), []db.ApplicantOutcome{
		{ApplicantID: "a2", Status: db.StatusAccepted, PriorityRank: 1, Recommendation: "accepted"},
		{ApplicantID: "a4", Status: db.StatusAccepted, PriorityRank: 2, Recommendation: "accepted"},
	})

	var applyErr *db.ApplyError
	s.Require().True(errors.As(err, &applyErr))
	s.Equal([]string{"a4"}, applyErr.FailedApplicantIDs)

	count, err := s.store.CountAcceptedApplicants(ctx, "p1")
	s.Require().NoError(err)
	s.Zero(count, "a2 must not be accepted when the run is rolled back")

	runs, err := s.store.ListAcceptanceRuns(ctx, "p1")
	s.Require().NoError(err)
	s.Empty(runs)
}

func (s *PostgresStoreSuite) TestGetCommittedRankingAfterRerun() {
	ctx := context.Background()

	first := newRun()
	err := s.store.ApplyAcceptanceRun(ctx, first, []db.ApplicantOutcome{
		{ApplicantID: "a2", Status: db.StatusAccepted, PriorityRank: 1, PriorityGroup: 1, DistanceToSchoolKm: 0.5, IsInZone: true, Recommendation: "accepted"},
		{ApplicantID: "a1", Status: db.StatusVerified, PriorityRank: 2, PriorityGroup: 1, DistanceToSchoolKm: 1.0, IsInZone: true, Recommendation: "waitlist"},
		{ApplicantID: "a3", Status: db.StatusVerified, PriorityRank: 3, Recommendation: "waitlist", Notes: "unclassified: birthDate is missing"},
	})
	s.Require().NoError(err)

	second := newRun()
	second.AlreadyAccepted = 1
	second.CommittedAt = first.CommittedAt.Add(time.Minute)
	err = s.store.ApplyAcceptanceRun(ctx, second, []db.ApplicantOutcome{
		{ApplicantID: "a1", Status: db.StatusAccepted, PriorityRank: 1, PriorityGroup: 1, DistanceToSchoolKm: 1.0, IsInZone: true, Recommendation: "accepted"},
		{ApplicantID: "a3", Status: db.StatusVerified, PriorityRank: 2, Recommendation: "waitlist", Notes: "unclassified: birthDate is missing"},
	})
	s.Require().NoError(err)

	committed, err := s.store.GetCommittedRanking(ctx, "p1")
	s.Require().NoError(err)
	s.Equal(second.ID, committed.Run.ID)

	var ids []string
	var ranks []int
	for _, a := range committed.Ranked {
		ids = append(ids, a.ID)
		ranks = append(ranks, *a.PriorityRank)
		s.Equal(second.ID, *a.LastRunID)
	}
	s.Equal([]string{"a1", "a3"}, ids)
	s.Equal([]int{1, 2}, ranks, "ranks of the latest run must not repeat")

	s.Require().Len(committed.EarlierAccepted, 1)
	s.Equal("a2", committed.EarlierAccepted[0].ID)
	s.Equal(first.ID, *committed.EarlierAccepted[0].LastRunID)
}

func (s *PostgresStoreSuite) TestGetCommittedRankingWithoutRun() {
	_, err := s.store.GetCommittedRanking(context.Background(), "p1")
	s.True(errors.Is(err, db.ErrNotFound))
}

func newRun() *db.AcceptanceRun {
	now := time.Now().UTC()
	return &db.AcceptanceRun{
		ID:            uuid.NewString(),
		PeriodID:      "p1",
		ReferenceDate: time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
		Quota:         2,
		StartedAt:     now,
		CommittedAt:   now,
	}
}
