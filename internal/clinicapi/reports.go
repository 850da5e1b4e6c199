package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/wolfman30/clinicdesk/internal/gateway"
)

// Entry kinds in a daily report.
const (
	EntryIncome  = "income"
	EntryExpense = "expense"
)

// ReportEntry is one line of the daily financial report.
type ReportEntry struct {
	Category    string  `json:"category"`
	Description string  `json:"description,omitempty"`
	Kind        string  `json:"type"`
	Amount      float64 `json:"amount"`
}

// DailyReport is the backend's financial summary for one day.
type DailyReport struct {
	Date    Time          `json:"date"`
	Entries []ReportEntry `json:"entries"`
}

// ReportTotals are computed client side from the entries.
type ReportTotals struct {
	Income  float64
	Expense float64
	Net     float64
}

// Totals sums income and expense entries. Unknown kinds are ignored.
func (r DailyReport) Totals() ReportTotals {
	var t ReportTotals
	for _, e := range r.Entries {
		switch strings.ToLower(strings.TrimSpace(e.Kind)) {
		case EntryIncome:
			t.Income += e.Amount
		case EntryExpense:
			t.Expense += e.Amount
		}
	}
	t.Net = t.Income - t.Expense
	return t
}

// DailyReport fetches the financial report for day.
func (s *Service) DailyReport(ctx context.Context, day time.Time) (DailyReport, error) {
	q := url.Values{"date": {day.Format("2006-01-02")}}
	raw, err := s.gw.Get(ctx, "/reports/daily", q)
	if err != nil {
		return DailyReport{}, err
	}
	return decodeReport(raw)
}

// decodeReport accepts either the report object or a bare list of entries.
func decodeReport(raw json.RawMessage) (DailyReport, error) {
	inner, err := gateway.DecodeItem[json.RawMessage](raw)
	if err != nil {
		return DailyReport{}, err
	}
	inner = bytes.TrimSpace(inner)
	if len(inner) > 0 && inner[0] == '[' {
		var entries []ReportEntry
		if err := json.Unmarshal(inner, &entries); err != nil {
			return DailyReport{}, &gateway.RequestError{Message: "the server returned an unreadable report"}
		}
		return DailyReport{Entries: entries}, nil
	}
	var report DailyReport
	if err := json.Unmarshal(inner, &report); err != nil {
		return DailyReport{}, &gateway.RequestError{Message: "the server returned an unreadable report"}
	}
	return report, nil
}
