// Package evaluation contains the read-only peer-review model this core
// consumes: evaluations, rubrics with weighted criteria, reviewer→reviewee
// allocations and their raw scores. All of it is owned by the surrounding
// platform; the grading core only reads.
package evaluation

// Default rubric scale used when an evaluation has no resolvable rubric.
const (
	DefaultScaleMin = 1
	DefaultScaleMax = 5
)

// Evaluation is one peer-review round. CourseID may be empty; the effective
// course is resolved at read time (an explicit override always wins).
type Evaluation struct {
	ID       string
	RubricID string
	CourseID string
}

// Rubric bounds the raw score values of its criteria.
// ScaleMax > ScaleMin is an upstream invariant, not enforced here.
type Rubric struct {
	ID       string
	ScaleMin int
	ScaleMax int
}

// Scale returns the rubric's score bounds.
func (r Rubric) Scale() Scale {
	return Scale{Min: r.ScaleMin, Max: r.ScaleMax}
}

// DefaultScale returns the fallback 1..5 scale.
func DefaultScale() Scale {
	return Scale{Min: DefaultScaleMin, Max: DefaultScaleMax}
}

// Scale is a rubric's raw score range.
type Scale struct {
	Min int
	Max int
}

// Span returns the scale width, never less than 1 so that degenerate
// rubrics cannot divide by zero.
func (s Scale) Span() int {
	span := s.Max - s.Min
	if span < 1 {
		return 1
	}
	return span
}

// Criterion is one weighted row of a rubric. Weight is non-negative and
// defaults to 1.0 upstream when unspecified.
type Criterion struct {
	ID       string
	RubricID string
	Weight   float64
}

// Allocation is one reviewer→reviewee pairing within an evaluation.
type Allocation struct {
	ID           string
	EvaluationID string
	ReviewerID   string
	RevieweeID   string
	IsSelf       bool
}

// Self reports whether the allocation is a self-assessment.
func (a Allocation) Self() bool {
	return a.IsSelf || a.ReviewerID == a.RevieweeID
}

// Score is one raw value for an (allocation, criterion) pair. Values are
// expected within the rubric scale; out-of-range values are passed through
// unless clamping is enabled at configuration time.
type Score struct {
	AllocationID string
	CriterionID  string
	Value        float64
}
