package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/portalsekolah/spmb/pkg/core/admission"
	"github.com/portalsekolah/spmb/pkg/core/services"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func recommendationColor(rec admission.Recommendation) string {
	switch rec {
	case admission.RecommendationAccepted:
		return colorGreen
	case admission.RecommendationRejected:
		return colorRed
	default:
		return colorYellow
	}
}

// writeRanking prints the header and ranked table of an acceptance result
func writeRanking(w io.Writer, result *services.AcceptanceResult) {
	fmt.Fprintf(w, "\n🎯 %s %s\n\n", result.Period.Name, result.Period.AcademicYear)
	fmt.Fprintf(w, "Period ID:       %s\n", result.Period.ID)
	fmt.Fprintf(w, "Reference date:  %s\n", result.ReferenceDate.Format("2006-01-02"))
	fmt.Fprintf(w, "Quota:           %d (%d already accepted, %d allocated in this run)\n",
		result.Quota, result.AlreadyAccepted, result.RemainingQuota)
	if result.Committed {
		fmt.Fprintf(w, "Status:          ✅ COMMITTED (run %s)\n", result.RunID)
	} else {
		fmt.Fprintf(w, "Mode:            🧪 PREVIEW (not saved)\n")
	}
	fmt.Fprintln(w)

	if len(result.Ranked) == 0 {
		fmt.Fprintln(w, "No eligible applicants.")
		return
	}

	nameWidth := 20
	for _, r := range result.Ranked {
		nameWidth = max(nameWidth, len(r.Applicant.FullName))
	}

	fmt.Fprintf(w, "%s%4s  %-*s  %-7s  %5s  %9s  %-4s  %-9s  %s%s\n",
		colorBold, "Rank", nameWidth, "Name", "Age", "Group", "Dist (km)", "Zone", "Result", "Notes", colorReset)
	fmt.Fprintln(w, strings.Repeat("-", nameWidth+60))

	for _, r := range result.Ranked {
		fmt.Fprintln(w, formatRankingLine(r, nameWidth))
	}
	fmt.Fprintln(w)

	s := result.Summary
	fmt.Fprintf(w, "Ranked %d: %s%d accepted%s, %s%d waitlisted%s, %s%d rejected%s",
		s.Ranked,
		colorGreen, s.Accepted, colorReset,
		colorYellow, s.Waitlisted, colorReset,
		colorRed, s.Rejected, colorReset)
	if s.Unclassified > 0 {
		fmt.Fprintf(w, " (%d need data correction)", s.Unclassified)
	}
	fmt.Fprintln(w)
}

func formatRankingLine(r admission.RankedApplicant, nameWidth int) string {
	age, group, distance := "—", "—", "—"
	if r.Classified {
		age = r.AgeAtReference.String()
		group = fmt.Sprintf("%d", r.PriorityGroup)
		distance = r.DisplayDistance()
	}

	zone := "out"
	if r.IsInZone {
		zone = "in"
	}

	line := fmt.Sprintf("%4d  %-*s  %-7s  %5s  %9s  %-4s  %s%-9s%s  %s",
		r.PriorityRank,
		nameWidth, r.Applicant.FullName,
		age,
		group,
		distance,
		zone,
		recommendationColor(r.Recommendation), r.Recommendation, colorReset,
		r.Notes)

	if !r.Classified {
		return colorDim + line + colorReset
	}
	return line
}
