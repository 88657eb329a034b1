package grading

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peergrade-hub/grading-core/internal/domain/evaluation"
	"github.com/peergrade-hub/grading-core/internal/domain/roster"
	"github.com/peergrade-hub/grading-core/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeDirectory struct {
	teams       map[string][]roster.Team
	memberships map[string][]roster.Membership
	students    map[string]roster.Student
}

func (d *fakeDirectory) ListTeams(_ context.Context, courseID string) ([]roster.Team, error) {
	return d.teams[courseID], nil
}

func (d *fakeDirectory) ListActiveMemberships(_ context.Context, courseID string) ([]roster.Membership, error) {
	var active []roster.Membership
	for _, m := range d.memberships[courseID] {
		if m.Active {
			active = append(active, m)
		}
	}
	return active, nil
}

func (d *fakeDirectory) GetStudents(_ context.Context, ids []string) ([]roster.Student, error) {
	var out []roster.Student
	for _, id := range ids {
		if s, ok := d.students[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeStore struct {
	evaluations map[string]*evaluation.Evaluation
	rubrics     map[string]*evaluation.Rubric
	criteria    map[string][]evaluation.Criterion
	allocations map[string][]evaluation.Allocation
	scores      map[string]map[string][]evaluation.Score
}

func (s *fakeStore) GetEvaluation(_ context.Context, id string) (*evaluation.Evaluation, error) {
	ev, ok := s.evaluations[id]
	if !ok {
		return nil, shared.ErrEvaluationNotFound
	}
	return ev, nil
}

func (s *fakeStore) GetRubric(_ context.Context, id string) (*evaluation.Rubric, error) {
	r, ok := s.rubrics[id]
	if !ok {
		return nil, shared.ErrRubricNotFound
	}
	return r, nil
}

func (s *fakeStore) ListCriteria(_ context.Context, rubricID string) ([]evaluation.Criterion, error) {
	return s.criteria[rubricID], nil
}

func (s *fakeStore) ListAllocations(_ context.Context, evaluationID string) ([]evaluation.Allocation, error) {
	return s.allocations[evaluationID], nil
}

func (s *fakeStore) ListScores(_ context.Context, evaluationID string) (map[string][]evaluation.Score, error) {
	return s.scores[evaluationID], nil
}

// classroomFixture builds a small course: Alice and Bob on one team,
// Cara alone on another, one archived and one inactive student.
func classroomFixture() (*fakeDirectory, *fakeStore) {
	directory := &fakeDirectory{
		teams: map[string][]roster.Team{
			"c1": {
				{ID: "tb", CourseID: "c1", Name: "Team B"},
				{ID: "ta", CourseID: "c1", Name: "Team A"},
			},
		},
		memberships: map[string][]roster.Membership{
			"c1": {
				{StudentID: "alice", TeamID: "ta", Active: true},
				{StudentID: "bob", TeamID: "ta", Active: true},
				{StudentID: "cara", TeamID: "tb", Active: true},
				{StudentID: "dave", TeamID: "ta", Active: true},  // archived
				{StudentID: "eve", TeamID: "tb", Active: false}, // inactive
			},
		},
		students: map[string]roster.Student{
			"alice": {ID: "alice", Name: "Alice", ClassName: "V4A"},
			"bob":   {ID: "bob", Name: "Bob", ClassName: "V4A"},
			"cara":  {ID: "cara", Name: "Cara", ClassName: "V4B"},
			"dave":  {ID: "dave", Name: "Dave", Archived: true},
			"eve":   {ID: "eve", Name: "Eve"},
		},
	}

	store := &fakeStore{
		evaluations: map[string]*evaluation.Evaluation{
			"e1": {ID: "e1", RubricID: "r1", CourseID: "c1"},
		},
		rubrics: map[string]*evaluation.Rubric{
			"r1": {ID: "r1", ScaleMin: 1, ScaleMax: 5},
		},
		criteria: map[string][]evaluation.Criterion{
			"r1": {{ID: "cr1", RubricID: "r1", Weight: 1}},
		},
		allocations: map[string][]evaluation.Allocation{
			"e1": {
				{ID: "a1", EvaluationID: "e1", ReviewerID: "bob", RevieweeID: "alice"},
				{ID: "a2", EvaluationID: "e1", ReviewerID: "alice", RevieweeID: "alice", IsSelf: true},
				{ID: "a3", EvaluationID: "e1", ReviewerID: "alice", RevieweeID: "bob"},
			},
		},
		scores: map[string]map[string][]evaluation.Score{
			"e1": {
				"a1": {{AllocationID: "a1", CriterionID: "cr1", Value: 5}}, // 100%
				"a2": {{AllocationID: "a2", CriterionID: "cr1", Value: 4}}, // 75%
				"a3": {{AllocationID: "a3", CriterionID: "cr1", Value: 3}}, // 50%
			},
		},
	}

	return directory, store
}

// ─────────────────────────────────────────────────────────────────────────────
// Tests
// ─────────────────────────────────────────────────────────────────────────────

func TestEngine_Preview_FullPipeline(t *testing.T) {
	directory, store := classroomFixture()
	engine := NewEngine(directory, store, Options{})

	preview, err := engine.Preview(context.Background(), "e1", "")
	require.NoError(t, err)

	assert.Equal(t, "e1", preview.EvaluationID)
	assert.Equal(t, "c1", preview.CourseID)
	require.Len(t, preview.Rows, 3)

	// Ordered by name: Alice, Bob, Cara. Dave and Eve never appear.
	assert.Equal(t, "alice", preview.Rows[0].UserID)
	assert.Equal(t, "bob", preview.Rows[1].UserID)
	assert.Equal(t, "cara", preview.Rows[2].UserID)

	alice := preview.Rows[0]
	assert.InDelta(t, 100.0, alice.AvgScore, 1e-9)
	require.NotNil(t, alice.SelfPct)
	assert.InDelta(t, 75.0, *alice.SelfPct, 1e-9)
	assert.InDelta(t, 0.75, alice.SelfToPeerRatio, 1e-9)
	// Team mean is (100+50)/2 = 75.
	assert.InDelta(t, 100.0/75.0, alice.GCF, 1e-9)
	// 0.75*10 + 0.25*7.5 = 9.375, correction clamps at 0.90 -> 8.4375 -> 8.4.
	require.NotNil(t, alice.SuggestedGrade)
	assert.InDelta(t, 8.4, *alice.SuggestedGrade, 1e-9)
	assert.Equal(t, "V4A", alice.ClassName)

	bob := preview.Rows[1]
	assert.InDelta(t, 50.0, bob.AvgScore, 1e-9)
	assert.Nil(t, bob.SelfPct)
	assert.InDelta(t, 0.0, bob.SelfToPeerRatio, 1e-9)
	assert.InDelta(t, 50.0/75.0, bob.GCF, 1e-9)
	require.NotNil(t, bob.SuggestedGrade)
	assert.InDelta(t, 5.0, *bob.SuggestedGrade, 1e-9)

	cara := preview.Rows[2]
	assert.InDelta(t, 0.0, cara.AvgScore, 1e-9)
	assert.Nil(t, cara.SuggestedGrade)
	assert.InDelta(t, 1.0, cara.GCF, 1e-9)
	assert.InDelta(t, 0.0, cara.SelfToPeerRatio, 1e-9)
}

func TestEngine_Preview_TeamNumbers(t *testing.T) {
	directory, store := classroomFixture()
	engine := NewEngine(directory, store, Options{})

	preview, err := engine.Preview(context.Background(), "e1", "")
	require.NoError(t, err)
	require.Len(t, preview.Rows, 3)

	// "Team A" sorts before "Team B" regardless of listing order.
	require.NotNil(t, preview.Rows[0].TeamNumber)
	assert.Equal(t, 1, *preview.Rows[0].TeamNumber) // Alice on Team A
	require.NotNil(t, preview.Rows[2].TeamNumber)
	assert.Equal(t, 2, *preview.Rows[2].TeamNumber) // Cara on Team B
}

func TestEngine_Preview_UnknownEvaluation(t *testing.T) {
	directory, store := classroomFixture()
	engine := NewEngine(directory, store, Options{})

	preview, err := engine.Preview(context.Background(), "missing", "")
	require.NoError(t, err)

	assert.Equal(t, "", preview.CourseID)
	assert.True(t, preview.Empty())
}

func TestEngine_Preview_CourseOverrideWins(t *testing.T) {
	directory, store := classroomFixture()
	// The evaluation points at a different course entirely.
	store.evaluations["e1"].CourseID = "c-other"
	engine := NewEngine(directory, store, Options{})

	preview, err := engine.Preview(context.Background(), "e1", "c1")
	require.NoError(t, err)

	assert.Equal(t, "c1", preview.CourseID)
	assert.Len(t, preview.Rows, 3)
}

func TestEngine_Preview_EmptyCourseRoster(t *testing.T) {
	directory, store := classroomFixture()
	engine := NewEngine(directory, store, Options{})

	// Course exists nowhere in the directory: empty preview, no error.
	preview, err := engine.Preview(context.Background(), "e1", "c-empty")
	require.NoError(t, err)
	assert.True(t, preview.Empty())
	assert.Equal(t, "c-empty", preview.CourseID)
}

func TestEngine_Preview_MissingRubricZeroesScores(t *testing.T) {
	directory, store := classroomFixture()
	delete(store.rubrics, "r1")
	engine := NewEngine(directory, store, Options{})

	preview, err := engine.Preview(context.Background(), "e1", "")
	require.NoError(t, err)
	require.Len(t, preview.Rows, 3)

	// No rubric means no weights: every allocation is unscored.
	for _, row := range preview.Rows {
		assert.InDelta(t, 0.0, row.AvgScore, 1e-9)
		assert.Nil(t, row.SuggestedGrade)
		assert.InDelta(t, 1.0, row.GCF, 1e-9)
	}
}

func TestEngine_Preview_ClampOption(t *testing.T) {
	directory, store := classroomFixture()
	// Push Alice's peer review out of range.
	store.scores["e1"]["a1"] = []evaluation.Score{
		{AllocationID: "a1", CriterionID: "cr1", Value: 9},
	}

	unclamped := NewEngine(directory, store, Options{})
	preview, err := unclamped.Preview(context.Background(), "e1", "")
	require.NoError(t, err)
	assert.InDelta(t, 200.0, preview.Rows[0].AvgScore, 1e-9)

	clamped := NewEngine(directory, store, Options{ClampScores: true})
	preview, err = clamped.Preview(context.Background(), "e1", "")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, preview.Rows[0].AvgScore, 1e-9)
}

func TestEngine_ResolveCourse(t *testing.T) {
	directory, store := classroomFixture()
	engine := NewEngine(directory, store, Options{})
	ctx := context.Background()

	courseID, err := engine.ResolveCourse(ctx, "e1", "")
	require.NoError(t, err)
	assert.Equal(t, "c1", courseID)

	courseID, err = engine.ResolveCourse(ctx, "e1", "c9")
	require.NoError(t, err)
	assert.Equal(t, "c9", courseID)

	courseID, err = engine.ResolveCourse(ctx, "missing", "")
	require.NoError(t, err)
	assert.Equal(t, "", courseID)
}

func TestPreview_Find(t *testing.T) {
	p := &Preview{Rows: []Row{{UserID: "a"}, {UserID: "b"}}}
	require.NotNil(t, p.Find("b"))
	assert.Nil(t, p.Find("z"))
}
