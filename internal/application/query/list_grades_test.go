package query

import (
	"context"
	"testing"
	"time"

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

// fakeGradeRepo serves canned rows; with panicOnCall set it fails the test
// on any access.
type fakeGradeRepo struct {
	rows        []*grade.Grade
	panicOnCall bool
}

func (r *fakeGradeRepo) Upsert(_ context.Context, _ *grade.Grade) error {
	panic("unexpected Upsert")
}

func (r *fakeGradeRepo) ListByEvaluation(_ context.Context, _ string, userIDs []string) ([]*grade.Grade, error) {
	if r.panicOnCall {
		panic("grade storage must not be touched")
	}
	allowed := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		allowed[id] = struct{}{}
	}
	var out []*grade.Grade
	for _, g := range r.rows {
		if _, ok := allowed[g.UserID]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

func gradePtr(v float64) *float64 { return &v }
func strPtr(s string) *string     { return &s }

func classroomEngine() *grading.Engine {
	directory := &fakeDirectory{
		teams: []roster.Team{{ID: "t1", CourseID: "c1", Name: "Owls"}},
		memberships: []roster.Membership{
			{StudentID: "alice", TeamID: "t1", Active: true},
			{StudentID: "bob", TeamID: "t1", Active: true},
		},
		students: []roster.Student{
			{ID: "alice", Name: "alice", ClassName: "V4A"},
			{ID: "bob", Name: "Bob", ClassName: "V4A"},
		},
	}
	store := &fakeStore{evaluation: &evaluation.Evaluation{ID: "e1", CourseID: "c1"}}
	return grading.NewEngine(directory, store, grading.Options{})
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestListGrades_EmptyEligibleSetSkipsStorage(t *testing.T) {
	engine := classroomEngine()
	repo := &fakeGradeRepo{panicOnCall: true}
	handler := NewListGradesHandler(engine, repo, logger.Discard())

	// Unknown evaluation resolves to no course and an empty set; the
	// grade repository must never see the query.
	result, err := handler.Handle(context.Background(), ListGradesQuery{EvaluationID: "missing"})
	require.NoError(t, err)

	assert.NotNil(t, result.Entries)
	assert.Empty(t, result.Entries)
}

func TestListGrades_MergesStoredRows(t *testing.T) {
	engine := classroomEngine()
	repo := &fakeGradeRepo{
		rows: []*grade.Grade{
			{
				EvaluationID:   "e1",
				UserID:         "alice",
				Grade:          gradePtr(9),
				OverrideReason: strPtr("carried the project"),
				Meta: grade.Meta{
					grade.MetaAvgScore: 55.5,     // stale snapshot, must be refreshed
					"custom_note":      "kept me", // unknown keys survive
				},
			},
		},
	}
	handler := NewListGradesHandler(engine, repo, logger.Discard())

	result, err := handler.Handle(context.Background(), ListGradesQuery{EvaluationID: "e1"})
	require.NoError(t, err)
	require.Len(t, result.Entries, 2)

	// Case-insensitive order: "alice" before "Bob".
	assert.Equal(t, "alice", result.Entries[0].UserID)
	assert.Equal(t, "bob", result.Entries[1].UserID)

	alice := result.Entries[0]
	assert.Equal(t, StatusSaved, alice.Status)
	require.NotNil(t, alice.Grade)
	assert.InDelta(t, 9.0, *alice.Grade, 1e-9)
	require.NotNil(t, alice.Reason)

	// Live-computed keys overwrite the stored snapshot; the rest merges.
	assert.Equal(t, 0.0, alice.Meta[grade.MetaAvgScore])
	assert.Equal(t, "kept me", alice.Meta["custom_note"])

	bob := result.Entries[1]
	assert.Equal(t, StatusPreviewOnly, bob.Status)
	assert.Nil(t, bob.Grade)
	assert.Nil(t, bob.Reason)
}

func TestListGrades_DraftRowIsPreviewOnly(t *testing.T) {
	engine := classroomEngine()
	repo := &fakeGradeRepo{
		rows: []*grade.Grade{
			{EvaluationID: "e1", UserID: "alice", Meta: grade.Meta{}},
		},
	}
	handler := NewListGradesHandler(engine, repo, logger.Discard())

	result, err := handler.Handle(context.Background(), ListGradesQuery{EvaluationID: "e1"})
	require.NoError(t, err)

	assert.Equal(t, StatusPreviewOnly, result.Entries[0].Status)
}

func TestListGrades_StoredRowForIneligibleStudentHidden(t *testing.T) {
	engine := classroomEngine()
	repo := &fakeGradeRepo{
		rows: []*grade.Grade{
			{EvaluationID: "e1", UserID: "ghost", Grade: gradePtr(10)},
		},
	}
	handler := NewListGradesHandler(engine, repo, logger.Discard())

	result, err := handler.Handle(context.Background(), ListGradesQuery{EvaluationID: "e1"})
	require.NoError(t, err)

	for _, e := range result.Entries {
		assert.NotEqual(t, "ghost", e.UserID)
	}
}

func TestListGrades_Validation(t *testing.T) {
	handler := NewListGradesHandler(classroomEngine(), &fakeGradeRepo{}, logger.Discard())
	_, err := handler.Handle(context.Background(), ListGradesQuery{})
	assert.Error(t, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Preview cache fake shared with preview tests
// ─────────────────────────────────────────────────────────────────────────────

type fakePreviewCache struct {
	stored map[string]*grading.Preview
	sets   int
}

func newFakePreviewCache() *fakePreviewCache {
	return &fakePreviewCache{stored: make(map[string]*grading.Preview)}
}

func (c *fakePreviewCache) Get(_ context.Context, evaluationID, courseID string) (*grading.Preview, error) {
	return c.stored[evaluationID+"/"+courseID], nil
}

func (c *fakePreviewCache) Set(_ context.Context, evaluationID, courseID string, p *grading.Preview, _ time.Duration) error {
	c.sets++
	c.stored[evaluationID+"/"+courseID] = p
	return nil
}

func (c *fakePreviewCache) Delete(_ context.Context, evaluationID, courseID string) error {
	delete(c.stored, evaluationID+"/"+courseID)
	return nil
}
