// Package command contains write operations following CQRS pattern.
// Each command is a self-contained use case with its own request/result
// types and explicit validation.
package command

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/peergrade-hub/grading-core/internal/domain/grade"
	"github.com/peergrade-hub/grading-core/internal/domain/grading"
	"github.com/peergrade-hub/grading-core/internal/domain/shared"
	"github.com/peergrade-hub/grading-core/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SAVE GRADES COMMAND
// One upsert routine shared by draft and publish. Publish only changes the
// semantic label attached by the caller; the write path is identical.
// ══════════════════════════════════════════════════════════════════════════════

// SaveGradesCommand carries a draft or publish payload for one evaluation.
type SaveGradesCommand struct {
	// EvaluationID identifies the evaluation being graded (required).
	EvaluationID string

	// CourseID optionally overrides the evaluation's own course.
	CourseID string

	// GroupGradeDefault is the request-level group grade (1–10), applied
	// to every student without a per-student group grade override.
	GroupGradeDefault *float64

	// Overrides maps student id → override payload.
	Overrides map[string]grade.Override

	// Publish marks the save as final rather than provisional. It does
	// not change what is written.
	Publish bool
}

// Validate checks the command before any computation happens.
func (c *SaveGradesCommand) Validate() error {
	if c.EvaluationID == "" {
		return shared.NewDomainError("grade", "Save", shared.ErrEmptyValue, "evaluation id is required")
	}
	if c.GroupGradeDefault != nil && (*c.GroupGradeDefault < grade.MinGrade || *c.GroupGradeDefault > grade.MaxGrade) {
		return shared.ErrGradeOutOfRange
	}
	for _, ov := range c.Overrides {
		if err := ov.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// SaveGradesResult is the aggregate outcome of a draft/publish call.
// Per-student failures are not reported individually: overrides targeting
// students outside the current eligible set are counted as skipped.
type SaveGradesResult struct {
	EvaluationID string    `json:"evaluation_id"`
	CourseID     string    `json:"course_id"`
	Saved        int       `json:"saved"`
	Skipped      int       `json:"skipped"`
	Published    bool      `json:"published"`
	SavedAt      time.Time `json:"saved_at"`
}

// SaveGradesHandler executes draft and publish requests.
type SaveGradesHandler struct {
	engine *grading.Engine
	grades grade.Repository
	log    *logger.Logger
}

// NewSaveGradesHandler creates a new save-grades handler.
func NewSaveGradesHandler(engine *grading.Engine, grades grade.Repository, log *logger.Logger) *SaveGradesHandler {
	return &SaveGradesHandler{engine: engine, grades: grades, log: log}
}

// Handle recomputes the full preview and upserts one grade row per override
// whose student is currently eligible. Overrides for out-of-scope students
// are dropped silently: a stale or archived student must never gain a row.
func (h *SaveGradesHandler) Handle(ctx context.Context, cmd SaveGradesCommand) (*SaveGradesResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	preview, err := h.engine.Preview(ctx, cmd.EvaluationID, cmd.CourseID)
	if err != nil {
		return nil, shared.WrapError("grade", "Save", shared.ErrExternalService, "failed to compute preview", err)
	}

	now := time.Now().UTC()
	result := &SaveGradesResult{
		EvaluationID: cmd.EvaluationID,
		CourseID:     preview.CourseID,
		Published:    cmd.Publish,
		SavedAt:      now,
	}

	for _, studentID := range sortedKeys(cmd.Overrides) {
		row := preview.Find(studentID)
		if row == nil {
			result.Skipped++
			continue
		}

		ov := cmd.Overrides[studentID]
		g := &grade.Grade{
			ID:             uuid.NewString(),
			EvaluationID:   cmd.EvaluationID,
			UserID:         studentID,
			Grade:          ov.Grade,
			OverrideReason: ov.Reason,
			Meta:           buildMeta(row, groupGrade(ov, cmd.GroupGradeDefault)),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := g.Validate(); err != nil {
			return nil, err
		}

		if err := h.grades.Upsert(ctx, g); err != nil {
			return nil, shared.WrapError("grade", "Save", shared.ErrExternalService, "failed to upsert grade", err)
		}
		result.Saved++
	}

	h.log.Info("grades saved",
		logger.EvaluationID(cmd.EvaluationID),
		logger.CourseID(preview.CourseID),
		logger.Int("saved", result.Saved),
		logger.Int("skipped", result.Skipped),
		logger.Bool("published", cmd.Publish),
	)

	return result, nil
}

// buildMeta assembles the full metadata snapshot for one student. The
// snapshot replaces any previously stored meta; nothing is merged on write.
func buildMeta(row *grading.Row, groupGrade *float64) grade.Meta {
	return grade.Meta{
		grade.MetaAvgScore:   row.AvgScore,
		grade.MetaGCF:        row.GCF,
		grade.MetaSPR:        row.SelfToPeerRatio,
		grade.MetaSuggested:  row.SuggestedGrade,
		grade.MetaGroupGrade: groupGrade,
		grade.MetaTeamNumber: row.TeamNumber,
		grade.MetaClassName:  row.ClassName,
	}
}

// groupGrade picks the per-student group grade override, falling back to
// the request-level default.
func groupGrade(ov grade.Override, requestDefault *float64) *float64 {
	if ov.GroupGrade != nil {
		return ov.GroupGrade
	}
	return requestDefault
}

// sortedKeys returns the override student ids in deterministic order.
func sortedKeys(overrides map[string]grade.Override) []string {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
