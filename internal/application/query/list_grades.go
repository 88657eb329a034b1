package query

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/peergrade-hub/grading-core/internal/domain/grade"
	"github.com/peergrade-hub/grading-core/internal/domain/grading"
	"github.com/peergrade-hub/grading-core/internal/domain/shared"
	"github.com/peergrade-hub/grading-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST GRADES QUERY
// Merges the live-computed eligible set with persisted grade rows. The live
// set is authoritative: a stored row for a student who is no longer
// eligible never surfaces.
// ══════════════════════════════════════════════════════════════════════════════

// Entry status values.
const (
	// StatusSaved marks rows carrying teacher input (grade or reason).
	StatusSaved = "saved"

	// StatusPreviewOnly marks rows with computed values only.
	StatusPreviewOnly = "preview_only"
)

// ListGradesQuery requests the merged grade list for one evaluation.
type ListGradesQuery struct {
	// EvaluationID identifies the evaluation (required).
	EvaluationID string

	// CourseID optionally overrides the evaluation's own course.
	CourseID string
}

// Validate checks the query parameters.
func (q *ListGradesQuery) Validate() error {
	if q.EvaluationID == "" {
		return shared.NewDomainError("grade", "List", shared.ErrEmptyValue, "evaluation id is required")
	}
	return nil
}

// GradeListEntryDTO is one student's merged grading state.
type GradeListEntryDTO struct {
	StudentGradeDTO

	// Grade is the persisted override grade, null for drafts or unsaved rows.
	Grade *float64 `json:"grade"`

	// Reason is the persisted override reason, null when absent.
	Reason *string `json:"reason"`

	// Meta is the union of live-computed values and stored snapshot keys.
	// Stored keys win except for the live-computed fields, which are
	// always fresh.
	Meta map[string]any `json:"meta"`

	// Status is "saved" or "preview_only".
	Status string `json:"status"`
}

// ListGradesResult is the merged, name-ordered grade list.
type ListGradesResult struct {
	EvaluationID string              `json:"evaluation_id"`
	CourseID     string              `json:"course_id"`
	Entries      []GradeListEntryDTO `json:"entries"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

// ListGradesHandler serves merged grade lists.
type ListGradesHandler struct {
	engine *grading.Engine
	grades grade.Repository
	log    *logger.Logger
}

// NewListGradesHandler creates a new list handler.
func NewListGradesHandler(engine *grading.Engine, grades grade.Repository, log *logger.Logger) *ListGradesHandler {
	return &ListGradesHandler{engine: engine, grades: grades, log: log}
}

// Handle recomputes the live preview and merges persisted rows into it.
// An empty eligible set returns immediately without querying grades at
// all, so no empty-id-list query can ever reach storage.
func (h *ListGradesHandler) Handle(ctx context.Context, q ListGradesQuery) (*ListGradesResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	preview, err := h.engine.Preview(ctx, q.EvaluationID, q.CourseID)
	if err != nil {
		return nil, err
	}

	result := &ListGradesResult{
		EvaluationID: q.EvaluationID,
		CourseID:     preview.CourseID,
		Entries:      []GradeListEntryDTO{},
		GeneratedAt:  preview.GeneratedAt,
	}
	if preview.Empty() {
		return result, nil
	}

	eligibleIDs := make([]string, len(preview.Rows))
	for i := range preview.Rows {
		eligibleIDs[i] = preview.Rows[i].UserID
	}

	stored, err := h.grades.ListByEvaluation(ctx, q.EvaluationID, eligibleIDs)
	if err != nil {
		return nil, shared.WrapError("grade", "List", shared.ErrExternalService, "failed to load grades", err)
	}

	byUser := make(map[string]*grade.Grade, len(stored))
	for _, g := range stored {
		byUser[g.UserID] = g
	}

	result.Entries = make([]GradeListEntryDTO, 0, len(preview.Rows))
	for i := range preview.Rows {
		row := &preview.Rows[i]
		result.Entries = append(result.Entries, mergeEntry(row, byUser[row.UserID]))
	}

	sort.SliceStable(result.Entries, func(i, j int) bool {
		a := strings.ToLower(result.Entries[i].UserName)
		b := strings.ToLower(result.Entries[j].UserName)
		if a != b {
			return a < b
		}
		return result.Entries[i].UserID < result.Entries[j].UserID
	})

	return result, nil
}

// mergeEntry overlays a persisted grade row (may be nil) onto the live row.
func mergeEntry(row *grading.Row, stored *grade.Grade) GradeListEntryDTO {
	entry := GradeListEntryDTO{
		StudentGradeDTO: rowToDTO(row),
		Status:          StatusPreviewOnly,
	}

	meta := grade.Meta{}
	if stored != nil {
		meta = stored.Meta.Clone()
		entry.Grade = stored.Grade
		entry.Reason = stored.OverrideReason
		if stored.Saved() {
			entry.Status = StatusSaved
		}
	}

	// Live-computed fields always override the stored snapshot.
	meta[grade.MetaAvgScore] = row.AvgScore
	meta[grade.MetaGCF] = row.GCF
	meta[grade.MetaSPR] = row.SelfToPeerRatio
	meta[grade.MetaSuggested] = row.SuggestedGrade
	meta[grade.MetaTeamNumber] = row.TeamNumber
	meta[grade.MetaClassName] = row.ClassName

	entry.Meta = meta
	return entry
}
