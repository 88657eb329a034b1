// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"time"

	"github.com/peergrade-hub/grading-core/internal/domain/grading"
	"github.com/peergrade-hub/grading-core/internal/domain/shared"
	"github.com/peergrade-hub/grading-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// PREVIEW GRADES QUERY
// Live-computed suggested grades for one evaluation, without any persisted
// override state. Served from cache when a fresh snapshot exists.
// ══════════════════════════════════════════════════════════════════════════════

// PreviewGradesQuery requests a grade preview for one evaluation.
type PreviewGradesQuery struct {
	// EvaluationID identifies the evaluation (required).
	EvaluationID string

	// CourseID optionally overrides the evaluation's own course.
	CourseID string
}

// Validate checks the query parameters.
func (q *PreviewGradesQuery) Validate() error {
	if q.EvaluationID == "" {
		return shared.NewDomainError("grading", "Preview", shared.ErrEmptyValue, "evaluation id is required")
	}
	return nil
}

// StudentGradeDTO is one student's computed grading state.
type StudentGradeDTO struct {
	// UserID is the student's directory id.
	UserID string `json:"user_id"`

	// UserName is the student's display name.
	UserName string `json:"user_name"`

	// AvgScore is the peer average percentage (0–100, 0.0 when absent).
	AvgScore float64 `json:"avg_score"`

	// GCF is the group contribution factor centered at 1.0.
	GCF float64 `json:"gcf"`

	// SPR is the unclamped self-to-peer ratio (0.0 when undefined).
	SPR float64 `json:"spr"`

	// SuggestedGrade is the blended 1–10 grade, null when no data exists.
	SuggestedGrade *float64 `json:"suggested_grade"`

	// TeamNumber is the neat 1..N display number, null when unknown.
	TeamNumber *int `json:"team_number"`

	// ClassName is the student's class label.
	ClassName string `json:"class_name"`
}

// PreviewGradesResult is the ordered preview for one evaluation.
type PreviewGradesResult struct {
	EvaluationID string            `json:"evaluation_id"`
	CourseID     string            `json:"course_id"`
	Entries      []StudentGradeDTO `json:"entries"`
	GeneratedAt  time.Time         `json:"generated_at"`
	FromCache    bool              `json:"from_cache"`
}

// PreviewGradesHandler serves grade previews.
type PreviewGradesHandler struct {
	engine   *grading.Engine
	cache    grading.PreviewCache
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewPreviewGradesHandler creates a new preview handler. Pass a nil cache
// to disable caching entirely.
func NewPreviewGradesHandler(engine *grading.Engine, cache grading.PreviewCache, cacheTTL time.Duration, log *logger.Logger) *PreviewGradesHandler {
	return &PreviewGradesHandler{engine: engine, cache: cache, cacheTTL: cacheTTL, log: log}
}

// Handle returns the preview, preferring a cached snapshot when available.
func (h *PreviewGradesHandler) Handle(ctx context.Context, q PreviewGradesQuery) (*PreviewGradesResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if h.cache != nil {
		if cached, err := h.cache.Get(ctx, q.EvaluationID, q.CourseID); err == nil && cached != nil {
			return h.buildResult(cached, true), nil
		}
	}

	preview, err := h.engine.Preview(ctx, q.EvaluationID, q.CourseID)
	if err != nil {
		return nil, err
	}

	if h.cache != nil && h.cacheTTL > 0 {
		if err := h.cache.Set(ctx, q.EvaluationID, q.CourseID, preview, h.cacheTTL); err != nil {
			h.log.Warn("failed to cache preview",
				logger.EvaluationID(q.EvaluationID),
				logger.Err(err),
			)
		}
	}

	return h.buildResult(preview, false), nil
}

func (h *PreviewGradesHandler) buildResult(p *grading.Preview, fromCache bool) *PreviewGradesResult {
	entries := make([]StudentGradeDTO, len(p.Rows))
	for i := range p.Rows {
		entries[i] = rowToDTO(&p.Rows[i])
	}
	return &PreviewGradesResult{
		EvaluationID: p.EvaluationID,
		CourseID:     p.CourseID,
		Entries:      entries,
		GeneratedAt:  p.GeneratedAt,
		FromCache:    fromCache,
	}
}

// rowToDTO converts an engine row into its transport shape.
func rowToDTO(row *grading.Row) StudentGradeDTO {
	return StudentGradeDTO{
		UserID:         row.UserID,
		UserName:       row.UserName,
		AvgScore:       row.AvgScore,
		GCF:            row.GCF,
		SPR:            row.SelfToPeerRatio,
		SuggestedGrade: row.SuggestedGrade,
		TeamNumber:     row.TeamNumber,
		ClassName:      row.ClassName,
	}
}
