package grading

import (
	"context"
	"time"

	"github.com/peergrade-hub/grading-core/internal/domain/evaluation"
	"github.com/peergrade-hub/grading-core/internal/domain/roster"
	"github.com/peergrade-hub/grading-core/internal/domain/shared"
)

// Row is one student's live-computed grading state within a preview.
type Row struct {
	// UserID and UserName identify the student.
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`

	// AvgScore is the peer average as a 0–100 percentage; 0.0 when the
	// student has no scored peer reviews.
	AvgScore float64 `json:"avg_score"`

	// SelfPct is the self-assessment percentage, nil when absent.
	SelfPct *float64 `json:"self_pct"`

	// GCF is the group contribution factor centered at 1.0.
	GCF float64 `json:"gcf"`

	// SelfToPeerRatio is the unclamped reported SPR (0.0 when undefined).
	SelfToPeerRatio float64 `json:"self_to_peer_ratio"`

	// SuggestedGrade is the blended 1–10 grade, nil when no data exists.
	SuggestedGrade *float64 `json:"suggested_grade"`

	// TeamNumber is the neat 1..N display number, nil when the student's
	// team cannot be placed in the course index.
	TeamNumber *int `json:"team_number"`

	// ClassName is the student's class label.
	ClassName string `json:"class_name"`
}

// Preview is the full live-computed result for one evaluation, ordered by
// student name ascending. It contains no persisted override state.
type Preview struct {
	EvaluationID string    `json:"evaluation_id"`
	CourseID     string    `json:"course_id"`
	Rows         []Row     `json:"rows"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Empty reports whether the preview has no eligible students.
func (p *Preview) Empty() bool {
	return len(p.Rows) == 0
}

// Find returns the row of a student, or nil when out of scope.
func (p *Preview) Find(userID string) *Row {
	for i := range p.Rows {
		if p.Rows[i].UserID == userID {
			return &p.Rows[i]
		}
	}
	return nil
}

// Options carries the engine capabilities fixed at startup.
type Options struct {
	// ClampScores bounds out-of-range raw scores to the rubric scale at
	// normalization time. Off by default: the platform historically lets
	// out-of-range values pass through.
	ClampScores bool
}

// Engine computes grade previews from the read-only collaborators.
// All "no data" situations (unknown evaluation, no course, empty roster)
// degrade to an empty preview rather than an error: nothing to grade is a
// valid, silent outcome.
type Engine struct {
	directory roster.Directory
	store     evaluation.Store
	opts      Options
}

// NewEngine creates a grading engine over the given collaborators.
func NewEngine(directory roster.Directory, store evaluation.Store, opts Options) *Engine {
	return &Engine{directory: directory, store: store, opts: opts}
}

// ResolveCourse determines the effective course of an evaluation. An
// explicit override wins unconditionally; otherwise the evaluation's own
// course is used. An unknown evaluation resolves to "" (no course).
func (e *Engine) ResolveCourse(ctx context.Context, evaluationID, courseOverride string) (string, error) {
	if courseOverride != "" {
		return courseOverride, nil
	}
	ev, err := e.store.GetEvaluation(ctx, evaluationID)
	if err != nil {
		if shared.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return ev.CourseID, nil
}

// Preview runs the full aggregation pipeline for one evaluation:
// course resolution → eligible set → per-allocation normalization →
// per-student aggregation → fairness correction and grade blending.
func (e *Engine) Preview(ctx context.Context, evaluationID, courseOverride string) (*Preview, error) {
	preview := &Preview{
		EvaluationID: evaluationID,
		GeneratedAt:  time.Now().UTC(),
	}

	courseID, err := e.ResolveCourse(ctx, evaluationID, courseOverride)
	if err != nil {
		return nil, err
	}
	preview.CourseID = courseID
	if courseID == "" {
		return preview, nil
	}

	eligible, teamIndex, err := e.loadRoster(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if eligible.Len() == 0 {
		return preview, nil
	}

	scale, weights, err := e.loadRubric(ctx, evaluationID)
	if err != nil {
		return nil, err
	}

	byReviewee, percents, err := e.scoreAllocations(ctx, evaluationID, scale, weights)
	if err != nil {
		return nil, err
	}

	peerAvg := make(map[string]*float64, eligible.Len())
	scores := make(map[string]StudentScores, eligible.Len())
	for _, s := range eligible.Students() {
		agg := AggregateStudent(byReviewee[s.ID], percents)
		scores[s.ID] = agg
		peerAvg[s.ID] = agg.PeerAvgPct
	}

	factors := ContributionFactors(peerAvg, eligible.TeamOf)

	preview.Rows = make([]Row, 0, eligible.Len())
	for _, s := range eligible.Students() {
		agg := scores[s.ID]

		avgScore := 0.0
		if agg.PeerAvgPct != nil {
			avgScore = *agg.PeerAvgPct
		}

		row := Row{
			UserID:          s.ID,
			UserName:        s.Name,
			AvgScore:        avgScore,
			SelfPct:         agg.SelfPct,
			GCF:             factors[s.ID],
			SelfToPeerRatio: SelfToPeerRatio(avgScore, agg.SelfPct),
			SuggestedGrade:  SuggestedGrade(avgScore, agg.SelfPct),
			ClassName:       s.ClassName,
		}
		if teamID, ok := eligible.TeamOf(s.ID); ok {
			if n, ok := teamIndex[teamID]; ok {
				row.TeamNumber = &n
			}
		}
		preview.Rows = append(preview.Rows, row)
	}

	return preview, nil
}

func (e *Engine) loadRoster(ctx context.Context, courseID string) (*roster.EligibleSet, map[string]int, error) {
	teams, err := e.directory.ListTeams(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}

	memberships, err := e.directory.ListActiveMemberships(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}
	if len(memberships) == 0 {
		return roster.BuildEligibleSet(nil, nil), roster.TeamIndex(teams), nil
	}

	ids := make([]string, 0, len(memberships))
	seen := make(map[string]struct{}, len(memberships))
	for _, m := range memberships {
		if _, ok := seen[m.StudentID]; ok {
			continue
		}
		seen[m.StudentID] = struct{}{}
		ids = append(ids, m.StudentID)
	}

	students, err := e.directory.GetStudents(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	return roster.BuildEligibleSet(memberships, students), roster.TeamIndex(teams), nil
}

// loadRubric resolves the evaluation's rubric scale and weight map.
// A missing evaluation or rubric degrades to the default 1..5 scale with an
// empty weight map, which in turn makes every allocation percentage nil.
func (e *Engine) loadRubric(ctx context.Context, evaluationID string) (evaluation.Scale, map[string]float64, error) {
	scale := evaluation.DefaultScale()
	weights := map[string]float64{}

	ev, err := e.store.GetEvaluation(ctx, evaluationID)
	if err != nil {
		if shared.IsNotFound(err) {
			return scale, weights, nil
		}
		return scale, weights, err
	}

	rubric, err := e.store.GetRubric(ctx, ev.RubricID)
	if err != nil {
		if shared.IsNotFound(err) {
			return scale, weights, nil
		}
		return scale, weights, err
	}
	scale = rubric.Scale()

	criteria, err := e.store.ListCriteria(ctx, rubric.ID)
	if err != nil {
		return scale, weights, err
	}
	return scale, WeightMap(criteria), nil
}

func (e *Engine) scoreAllocations(ctx context.Context, evaluationID string, scale evaluation.Scale, weights map[string]float64) (map[string][]evaluation.Allocation, map[string]*float64, error) {
	allocations, err := e.store.ListAllocations(ctx, evaluationID)
	if err != nil {
		return nil, nil, err
	}

	scores, err := e.store.ListScores(ctx, evaluationID)
	if err != nil {
		return nil, nil, err
	}

	byReviewee := make(map[string][]evaluation.Allocation, len(allocations))
	percents := make(map[string]*float64, len(allocations))
	for _, a := range allocations {
		byReviewee[a.RevieweeID] = append(byReviewee[a.RevieweeID], a)
		percents[a.ID] = AllocationPercent(scores[a.ID], scale, weights, e.opts.ClampScores)
	}
	return byReviewee, percents, nil
}
