package query

import (
	"context"
	"errors"
	"time"

	"github.com/studyhelper/studyhelper-hub/internal/domain/shared"
	"github.com/studyhelper/studyhelper-hub/internal/domain/study"
	"github.com/studyhelper/studyhelper-hub/pkg/dateutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STUDY HISTORY QUERY
// Paginated view of a user's study log over a date range, with per-day
// activity totals so a client can render a calendar heat map.
// ══════════════════════════════════════════════════════════════════════════════

// GetStudyHistoryQuery holds the query parameters.
type GetStudyHistoryQuery struct {
	// UserID - whose history to read.
	UserID string

	// From - first day of the range, inclusive.
	From time.Time

	// To - last day of the range, inclusive. Zero means today.
	To time.Time

	// Page - 1-based page number. Zero means first page.
	Page int

	// PageSize - records per page. Zero means the default.
	PageSize int
}

// Validate checks query parameters.
func (q *GetStudyHistoryQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("get_study_history: user_id is required")
	}
	if q.From.IsZero() {
		return errors.New("get_study_history: from is required")
	}
	return nil
}

// DayActivity summarizes one calendar day of the range.
type DayActivity struct {
	// Date - the day, midnight UTC.
	Date time.Time `json:"date"`

	// Sessions - number of records logged that day.
	Sessions int `json:"sessions"`

	// Minutes - total minutes dedicated that day.
	Minutes int `json:"minutes"`
}

// GetStudyHistoryResult holds the history view.
type GetStudyHistoryResult struct {
	// Records - the requested page of records, newest first.
	Records []*study.Record `json:"records"`

	// ByDay - activity totals for every day in the range with activity.
	ByDay []DayActivity `json:"by_day"`

	// TotalMinutes - minutes dedicated across the whole range.
	TotalMinutes int `json:"total_minutes"`

	// TotalRecords - records in the whole range, across all pages.
	TotalRecords int `json:"total_records"`

	// Range - the resolved date range.
	Range shared.DateRange `json:"range"`

	// Pagination - the resolved pagination parameters.
	Pagination shared.Pagination `json:"pagination"`

	// GeneratedAt - time the result was computed.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetStudyHistoryHandler handles study history reads.
type GetStudyHistoryHandler struct {
	studyRepo study.Repository
	clock     dateutil.Clock
}

// NewGetStudyHistoryHandler creates a new handler.
func NewGetStudyHistoryHandler(studyRepo study.Repository, clock dateutil.Clock) *GetStudyHistoryHandler {
	if clock == nil {
		clock = dateutil.NewSystemClock()
	}
	return &GetStudyHistoryHandler{
		studyRepo: studyRepo,
		clock:     clock,
	}
}

// Handle executes the query.
func (h *GetStudyHistoryHandler) Handle(ctx context.Context, query GetStudyHistoryQuery) (*GetStudyHistoryResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetStudyHistory", shared.ErrValidation, "invalid query", err)
	}

	to := h.clock.Today()
	if !query.To.IsZero() {
		to = dateutil.StartOfDay(query.To)
	}

	dateRange, err := shared.NewDateRange(dateutil.StartOfDay(query.From), to)
	if err != nil {
		return nil, shared.WrapError("query", "GetStudyHistory", shared.ErrValidation, "invalid range", err)
	}

	records, err := h.studyRepo.GetByUser(ctx, query.UserID, dateRange.From, dateRange.To)
	if err != nil {
		return nil, shared.WrapError("query", "GetStudyHistory", shared.ErrServiceUnavailable,
			"failed to load study records", err)
	}

	totalMinutes, err := h.studyRepo.TotalMinutes(ctx, query.UserID, dateRange.From, dateRange.To)
	if err != nil {
		return nil, shared.WrapError("query", "GetStudyHistory", shared.ErrServiceUnavailable,
			"failed to sum study minutes", err)
	}

	result := &GetStudyHistoryResult{
		ByDay:        summarizeByDay(records),
		TotalMinutes: totalMinutes,
		TotalRecords: len(records),
		Range:        dateRange,
		Pagination:   shared.NewPagination(query.Page, query.PageSize),
		GeneratedAt:  time.Now().UTC(),
	}
	result.Records = paginate(records, result.Pagination)

	return result, nil
}

// summarizeByDay folds records into per-day totals, newest day first.
// Records arrive newest first, so the fold preserves that order.
func summarizeByDay(records []*study.Record) []DayActivity {
	var days []DayActivity
	index := make(map[time.Time]int)

	for _, r := range records {
		day := dateutil.StartOfDay(r.StudyDate)
		i, ok := index[day]
		if !ok {
			i = len(days)
			index[day] = i
			days = append(days, DayActivity{Date: day})
		}
		days[i].Sessions++
		days[i].Minutes += r.MinutesDedicated
	}

	return days
}

// paginate slices one page out of the full record list.
func paginate(records []*study.Record, p shared.Pagination) []*study.Record {
	offset := p.Offset()
	if offset >= len(records) {
		return nil
	}
	end := offset + p.Limit()
	if end > len(records) {
		end = len(records)
	}
	return records[offset:end]
}
