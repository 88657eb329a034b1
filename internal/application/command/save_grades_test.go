package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peergrade-hub/grading-core/internal/domain/evaluation"
	"github.com/peergrade-hub/grading-core/internal/domain/grade"
	"github.com/peergrade-hub/grading-core/internal/domain/grading"
	"github.com/peergrade-hub/grading-core/internal/domain/roster"
	"github.com/peergrade-hub/grading-core/internal/domain/shared"
	"github.com/peergrade-hub/grading-core/pkg/logger"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeDirectory struct {
	teams       []roster.Team
	memberships []roster.Membership
	students    []roster.Student
}

func (d *fakeDirectory) ListTeams(_ context.Context, _ string) ([]roster.Team, error) {
	return d.teams, nil
}

func (d *fakeDirectory) ListActiveMemberships(_ context.Context, _ string) ([]roster.Membership, error) {
	return d.memberships, nil
}

func (d *fakeDirectory) GetStudents(_ context.Context, _ []string) ([]roster.Student, error) {
	return d.students, nil
}

type fakeStore struct {
	evaluation *evaluation.Evaluation
}

func (s *fakeStore) GetEvaluation(_ context.Context, id string) (*evaluation.Evaluation, error) {
	if s.evaluation == nil || s.evaluation.ID != id {
		return nil, shared.ErrEvaluationNotFound
	}
	return s.evaluation, nil
}

func (s *fakeStore) GetRubric(_ context.Context, _ string) (*evaluation.Rubric, error) {
	return nil, shared.ErrRubricNotFound
}

func (s *fakeStore) ListCriteria(_ context.Context, _ string) ([]evaluation.Criterion, error) {
	return nil, nil
}

func (s *fakeStore) ListAllocations(_ context.Context, _ string) ([]evaluation.Allocation, error) {
	return nil, nil
}

func (s *fakeStore) ListScores(_ context.Context, _ string) (map[string][]evaluation.Score, error) {
	return nil, nil
}

type fakeGradeRepo struct {
	upserts int
	rows    map[string]*grade.Grade // keyed by evaluation_id/user_id
}

func newFakeGradeRepo() *fakeGradeRepo {
	return &fakeGradeRepo{rows: make(map[string]*grade.Grade)}
}

func (r *fakeGradeRepo) Upsert(_ context.Context, g *grade.Grade) error {
	r.upserts++
	r.rows[g.EvaluationID+"/"+g.UserID] = g
	return nil
}

func (r *fakeGradeRepo) ListByEvaluation(_ context.Context, evaluationID string, userIDs []string) ([]*grade.Grade, error) {
	var out []*grade.Grade
	for _, id := range userIDs {
		if g, ok := r.rows[evaluationID+"/"+id]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

func newTestHandler(repo *fakeGradeRepo) *SaveGradesHandler {
	directory := &fakeDirectory{
		teams: []roster.Team{{ID: "t1", CourseID: "c1", Name: "Owls"}},
		memberships: []roster.Membership{
			{StudentID: "alice", TeamID: "t1", Active: true},
			{StudentID: "bob", TeamID: "t1", Active: true},
		},
		students: []roster.Student{
			{ID: "alice", Name: "Alice", ClassName: "V4A"},
			{ID: "bob", Name: "Bob", ClassName: "V4A"},
		},
	}
	store := &fakeStore{
		evaluation: &evaluation.Evaluation{ID: "e1", CourseID: "c1"},
	}
	engine := grading.NewEngine(directory, store, grading.Options{})
	return NewSaveGradesHandler(engine, repo, logger.Discard())
}

func gradePtr(v float64) *float64 { return &v }
func strPtr(s string) *string     { return &s }

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestSaveGrades_UpsertsEligibleOverrides(t *testing.T) {
	repo := newFakeGradeRepo()
	handler := newTestHandler(repo)

	result, err := handler.Handle(context.Background(), SaveGradesCommand{
		EvaluationID: "e1",
		Overrides: map[string]grade.Override{
			"alice": {Grade: gradePtr(9.5), Reason: strPtr("led the team")},
			"bob":   {},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Saved)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, "c1", result.CourseID)
	assert.False(t, result.Published)

	saved := repo.rows["e1/alice"]
	require.NotNil(t, saved)
	assert.Equal(t, "alice", saved.UserID)
	require.NotNil(t, saved.Grade)
	assert.InDelta(t, 9.5, *saved.Grade, 1e-9)
	assert.True(t, saved.Saved())

	// Bob's row is a draft: no grade, no reason.
	draft := repo.rows["e1/bob"]
	require.NotNil(t, draft)
	assert.Nil(t, draft.Grade)
	assert.False(t, draft.Saved())
}

func TestSaveGrades_SkipsIneligibleStudents(t *testing.T) {
	repo := newFakeGradeRepo()
	handler := newTestHandler(repo)

	result, err := handler.Handle(context.Background(), SaveGradesCommand{
		EvaluationID: "e1",
		Overrides: map[string]grade.Override{
			"alice": {Grade: gradePtr(8)},
			"zed":   {Grade: gradePtr(8)}, // not in the eligible set
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Saved)
	assert.Equal(t, 1, result.Skipped)
	assert.NotContains(t, repo.rows, "e1/zed")
}

func TestSaveGrades_MetaSnapshot(t *testing.T) {
	repo := newFakeGradeRepo()
	handler := newTestHandler(repo)

	_, err := handler.Handle(context.Background(), SaveGradesCommand{
		EvaluationID:      "e1",
		GroupGradeDefault: gradePtr(7),
		Overrides: map[string]grade.Override{
			"alice": {},
			"bob":   {GroupGrade: gradePtr(9)},
		},
	})
	require.NoError(t, err)

	meta := repo.rows["e1/alice"].Meta
	for _, key := range []string{
		grade.MetaAvgScore, grade.MetaGCF, grade.MetaSPR,
		grade.MetaSuggested, grade.MetaGroupGrade,
		grade.MetaTeamNumber, grade.MetaClassName,
	} {
		assert.Contains(t, meta, key)
	}
	assert.Equal(t, "V4A", meta[grade.MetaClassName])
	assert.Equal(t, gradePtr(7.0), meta[grade.MetaGroupGrade])

	// Per-student group grade beats the request default.
	assert.Equal(t, gradePtr(9.0), repo.rows["e1/bob"].Meta[grade.MetaGroupGrade])
}

func TestSaveGrades_Idempotent(t *testing.T) {
	repo := newFakeGradeRepo()
	handler := newTestHandler(repo)

	cmd := SaveGradesCommand{
		EvaluationID: "e1",
		Overrides:    map[string]grade.Override{"alice": {Grade: gradePtr(8)}},
	}

	_, err := handler.Handle(context.Background(), cmd)
	require.NoError(t, err)
	_, err = handler.Handle(context.Background(), cmd)
	require.NoError(t, err)

	// Two saves, still one row per (evaluation, student).
	assert.Equal(t, 2, repo.upserts)
	assert.Len(t, repo.rows, 1)
}

func TestSaveGrades_DraftThenPublish(t *testing.T) {
	repo := newFakeGradeRepo()
	handler := newTestHandler(repo)
	ctx := context.Background()

	_, err := handler.Handle(ctx, SaveGradesCommand{
		EvaluationID: "e1",
		Overrides:    map[string]grade.Override{"alice": {}},
	})
	require.NoError(t, err)
	assert.False(t, repo.rows["e1/alice"].Saved())

	result, err := handler.Handle(ctx, SaveGradesCommand{
		EvaluationID: "e1",
		Overrides:    map[string]grade.Override{"alice": {Grade: gradePtr(9)}},
		Publish:      true,
	})
	require.NoError(t, err)

	assert.True(t, result.Published)
	assert.True(t, repo.rows["e1/alice"].Saved())
	assert.Len(t, repo.rows, 1)
}

func TestSaveGrades_Validation(t *testing.T) {
	repo := newFakeGradeRepo()
	handler := newTestHandler(repo)
	ctx := context.Background()

	_, err := handler.Handle(ctx, SaveGradesCommand{})
	assert.Error(t, err, "evaluation id is required")

	_, err = handler.Handle(ctx, SaveGradesCommand{
		EvaluationID:      "e1",
		GroupGradeDefault: gradePtr(11),
	})
	assert.ErrorIs(t, err, shared.ErrGradeOutOfRange)

	_, err = handler.Handle(ctx, SaveGradesCommand{
		EvaluationID: "e1",
		Overrides:    map[string]grade.Override{"alice": {Grade: gradePtr(0.5)}},
	})
	assert.ErrorIs(t, err, shared.ErrGradeOutOfRange)

	assert.Zero(t, repo.upserts, "validation failures must not write")
}

func TestSaveGrades_UnknownEvaluationSkipsAll(t *testing.T) {
	repo := newFakeGradeRepo()
	handler := newTestHandler(repo)

	result, err := handler.Handle(context.Background(), SaveGradesCommand{
		EvaluationID: "missing",
		Overrides:    map[string]grade.Override{"alice": {Grade: gradePtr(8)}},
	})
	require.NoError(t, err)

	// Empty preview: every override targets an out-of-scope student.
	assert.Equal(t, 0, result.Saved)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, repo.rows)
}
