package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/portalsekolah/spmb/internal/config"
	"github.com/portalsekolah/spmb/pkg/core/admission"
	"github.com/portalsekolah/spmb/pkg/db"
	"github.com/portalsekolah/spmb/pkg/metrics"
)

// EmailSender sends plain text email
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// NotifyStore defines the database operations needed to send result letters
type NotifyStore interface {
	GetAdmissionPeriod(ctx context.Context, periodID string) (*db.AdmissionPeriod, error)
	GetCommittedRanking(ctx context.Context, periodID string) (*db.CommittedRanking, error)
}

// Notification is the result letter of one applicant
type Notification struct {
	ApplicantID    string
	FullName       string
	Recipient      string
	Recommendation string
	Subject        string
	Sent           bool
	Err            error
}

// NotifyResult reports what happened to each letter
type NotifyResult struct {
	// RunID is the committed run the letters were built from
	RunID         string
	Notifications []Notification
	Sent          int
	Failed        int
	Skipped       int
}

// Delivery results recorded in metrics
const (
	notificationSent    = "sent"
	notificationFailed  = "failed"
	notificationSkipped = "skipped"
)

// NotifyResults emails every applicant ranked by the latest commit of a period their
// recommendation. Applicants settled by earlier commits were written to with that commit's
// results and get nothing. Applicants without a guardian email are skipped. A failed send is recorded and the
// remaining letters still go out. With dryRun set, letters are built but not sent.
func NotifyResults(
	ctx context.Context,
	store NotifyStore,
	sender EmailSender,
	cfg *config.Config,
	logger *zap.Logger,
	m *metrics.Metrics,
	periodID string,
	dryRun bool,
) (*NotifyResult, error) {
	logger = logger.With(zap.String("period_id", periodID), zap.Bool("dry_run", dryRun))

	period, err := store.GetAdmissionPeriod(ctx, periodID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, &admission.NotFoundError{Resource: "admission period", ID: periodID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch admission period: %w", err)
	}

	committed, err := store.GetCommittedRanking(ctx, periodID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("period %s has no committed ranking", periodID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch committed ranking: %w", err)
	}
	applicants := committed.Ranked
	logger = logger.With(zap.String("run_id", committed.Run.ID))
	logger.Debug("Fetched committed ranking",
		zap.Int("ranked", len(applicants)),
		zap.Int("earlier_accepted", len(committed.EarlierAccepted)))

	result := &NotifyResult{RunID: committed.Run.ID}
	for _, a := range applicants {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		n := Notification{
			ApplicantID: a.ID,
			FullName:    a.FullName,
			Recipient:   a.GuardianEmail,
		}
		if a.Recommendation != nil {
			n.Recommendation = *a.Recommendation
		}
		n.Subject = subjectFor(cfg.Notification, admission.Recommendation(n.Recommendation))

		if n.Recipient == "" || n.Subject == "" {
			logger.Warn("Skipping applicant without guardian email or recommendation", zap.String("applicant_id", a.ID))
			result.Skipped++
			m.IncrementNotification(notificationSkipped)
			result.Notifications = append(result.Notifications, n)
			continue
		}

		if dryRun {
			result.Notifications = append(result.Notifications, n)
			continue
		}

		body := letterBody(cfg.Notification, period, a)
		if err := sender.SendEmail(ctx, n.Recipient, n.Subject, body); err != nil {
			logger.Error("Failed to send result letter", zap.String("applicant_id", a.ID), zap.Error(err))
			n.Err = err
			result.Failed++
			m.IncrementNotification(notificationFailed)
		} else {
			logger.Debug("Sent result letter", zap.String("applicant_id", a.ID), zap.String("recommendation", n.Recommendation))
			n.Sent = true
			result.Sent++
			m.IncrementNotification(notificationSent)
		}
		result.Notifications = append(result.Notifications, n)
	}

	logger.Info("Result letters processed",
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped))

	return result, nil
}

func subjectFor(cfg config.NotificationConfig, rec admission.Recommendation) string {
	switch rec {
	case admission.RecommendationAccepted:
		return cfg.AcceptedSubject
	case admission.RecommendationWaitlist:
		return cfg.WaitlistSubject
	case admission.RecommendationRejected:
		return cfg.RejectedSubject
	default:
		return ""
	}
}

func letterBody(cfg config.NotificationConfig, period *db.AdmissionPeriod, a db.Applicant) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Dear parent or guardian of %s,\n\n", a.FullName)
	fmt.Fprintf(&b, "Registration number: %s\n", a.RegistrationNumber)
	fmt.Fprintf(&b, "Admission period: %s (%s)\n", period.Name, period.AcademicYear)
	if a.PriorityRank != nil {
		fmt.Fprintf(&b, "Rank: %d\n", *a.PriorityRank)
	}
	b.WriteString("\n")

	switch admission.Recommendation(*a.Recommendation) {
	case admission.RecommendationAccepted:
		fmt.Fprintf(&b, "We are pleased to tell you that %s has been accepted at %s.\n", a.FullName, cfg.SchoolName)
	case admission.RecommendationWaitlist:
		fmt.Fprintf(&b, "%s has been placed on the waiting list of %s. We will contact you if a seat becomes available.\n", a.FullName, cfg.SchoolName)
	case admission.RecommendationRejected:
		fmt.Fprintf(&b, "We are sorry to tell you that %s could not be offered a seat at %s this year.\n", a.FullName, cfg.SchoolName)
	}
	if a.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", a.Notes)
	}

	if cfg.ContactEmail != "" {
		fmt.Fprintf(&b, "\nIf you have any questions, please contact %s.\n", cfg.ContactEmail)
	}
	fmt.Fprintf(&b, "\nKind regards,\n%s admissions\n", cfg.SchoolName)

	return b.String()
}
