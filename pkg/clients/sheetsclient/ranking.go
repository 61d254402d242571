package sheetsclient

import (
	"fmt"
	"time"

	"google.golang.org/api/sheets/v4"
)

// RankingRow is one applicant line of a published ranking
type RankingRow struct {
	Rank               int
	RegistrationNumber string
	FullName           string
	Age                string // e.g. "6y11m", empty when unknown
	PriorityGroup      int    // 0 when unclassified
	DistanceKm         string // two decimal places, empty when unknown
	InZone             bool
	Recommendation     string
	Notes              string
}

// PublishedRanking is the ranked list of one admission period
type PublishedRanking struct {
	AcademicYear  string
	PeriodName    string
	ReferenceDate time.Time
	GeneratedAt   time.Time
	Committed     bool
	Rows          []RankingRow

	// EarlierAccepted lists applicants accepted by earlier commits. They hold seats but are
	// not part of the ranking in Rows, so they are written unranked below it.
	EarlierAccepted []RankingRow
}

var rankingHeader = []interface{}{
	"Rank", "Registration no.", "Name", "Age", "Group", "Distance (km)", "Zone", "Recommendation", "Notes",
}

// TabTitle is the tab a ranking is written to, e.g. "SPMB 2025/2026 - Zonasi"
func (r *PublishedRanking) TabTitle() string {
	return fmt.Sprintf("SPMB %s - %s", r.AcademicYear, r.PeriodName)
}

// PublishRanking writes a ranking to its own tab, creating the tab if needed and replacing
// anything previously published there
func (c *Client) PublishRanking(spreadsheetID string, ranking *PublishedRanking) error {
	title := ranking.TabTitle()

	exists, err := c.sheetExists(spreadsheetID, title)
	if err != nil {
		return err
	}

	if !exists {
		if err := c.createSheet(spreadsheetID, title); err != nil {
			return fmt.Errorf("failed to create tab %q: %w", title, err)
		}
	} else {
		_, err := c.service.Spreadsheets.Values.Clear(spreadsheetID, quoteTitle(title), &sheets.ClearValuesRequest{}).Do()
		if err != nil {
			return fmt.Errorf("failed to clear tab %q: %w", title, err)
		}
	}

	valueRange := &sheets.ValueRange{Values: BuildRankingValues(ranking)}
	_, err = c.service.Spreadsheets.Values.Update(spreadsheetID, quoteTitle(title)+"!A1", valueRange).
		ValueInputOption("RAW").
		Do()
	if err != nil {
		return fmt.Errorf("failed to write ranking to tab %q: %w", title, err)
	}

	return nil
}

// BuildRankingValues lays out a ranking as sheet rows: two summary lines, a blank line,
// the header and one row per applicant. Applicants accepted by earlier commits follow in
// their own section without a rank.
func BuildRankingValues(ranking *PublishedRanking) [][]interface{} {
	state := "Preview (not committed)"
	if ranking.Committed {
		state = "Committed"
	}

	values := [][]interface{}{
		{"Reference date", ranking.ReferenceDate.Format("2006-01-02"), "Generated", ranking.GeneratedAt.Format(time.RFC3339)},
		{"Status", state, "Applicants", len(ranking.Rows)},
		{},
		rankingHeader,
	}

	for _, row := range ranking.Rows {
		values = append(values, rowValues(row, row.Rank))
	}

	if len(ranking.EarlierAccepted) > 0 {
		values = append(values,
			[]interface{}{},
			[]interface{}{"Accepted in earlier runs", "", "Applicants", len(ranking.EarlierAccepted)},
		)
		for _, row := range ranking.EarlierAccepted {
			values = append(values, rowValues(row, ""))
		}
	}

	return values
}

func rowValues(row RankingRow, rank interface{}) []interface{} {
	group := ""
	if row.PriorityGroup > 0 {
		group = fmt.Sprintf("%d", row.PriorityGroup)
	}
	zone := "Outside"
	if row.InZone {
		zone = "Inside"
	}

	return []interface{}{
		rank,
		row.RegistrationNumber,
		row.FullName,
		row.Age,
		group,
		row.DistanceKm,
		zone,
		row.Recommendation,
		row.Notes,
	}
}

// quoteTitle quotes a tab title for A1 notation
func quoteTitle(title string) string {
	return "'" + title + "'"
}
