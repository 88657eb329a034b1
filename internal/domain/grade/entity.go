// Package grade contains the one persisted model owned by the grading core:
// the per-student grade override with its metadata snapshot. Draft and
// publish are the same upsert; "publish" is a semantic label applied by the
// caller, not a different code path.
package grade

import (
	"time"

	"github.com/peergrade-hub/grading-core/internal/domain/shared"
)

// Valid bounds for a non-null override grade.
const (
	MinGrade = 1.0
	MaxGrade = 10.0
)

// Meta key names for the snapshot persisted alongside a grade.
const (
	MetaAvgScore   = "avg_score"
	MetaGCF        = "gcf"
	MetaSPR        = "spr"
	MetaSuggested  = "suggested"
	MetaGroupGrade = "group_grade"
	MetaTeamNumber = "team_number"
	MetaClassName  = "class_name"
)

// LiveComputedMetaKeys are the snapshot fields that are always recomputed
// on read. When merging stored metadata into a list view, stored values win
// for every key except these.
func LiveComputedMetaKeys() []string {
	return []string{
		MetaAvgScore,
		MetaGCF,
		MetaSPR,
		MetaSuggested,
		MetaTeamNumber,
		MetaClassName,
	}
}

// Meta is the JSON snapshot of computed values stored with a grade.
type Meta map[string]any

// Clone returns a shallow copy so merges never mutate stored state.
func (m Meta) Clone() Meta {
	out := make(Meta, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Grade is one student's override record for one evaluation, unique per
// (evaluation_id, user_id). A nil Grade value means draft / no override.
type Grade struct {
	ID           string
	EvaluationID string
	UserID       string

	// Grade is the teacher's override on the 1–10 scale, nil for drafts.
	Grade *float64

	// OverrideReason is the teacher's free-text justification, optional.
	OverrideReason *string

	// Meta is the full snapshot of computed values at save time.
	// Upserts overwrite it completely; there is no partial merge on write.
	Meta Meta

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the invariants this core owns.
func (g *Grade) Validate() error {
	if g.EvaluationID == "" || g.UserID == "" {
		return shared.NewDomainError("grade", "Validate", shared.ErrEmptyValue, "evaluation id and user id are required")
	}
	if g.Grade != nil && (*g.Grade < MinGrade || *g.Grade > MaxGrade) {
		return shared.ErrGradeOutOfRange
	}
	return nil
}

// Saved reports whether the record carries teacher input: a non-null grade
// or a non-empty reason. Rows without either still render as preview-only.
func (g *Grade) Saved() bool {
	if g.Grade != nil {
		return true
	}
	return g.OverrideReason != nil && *g.OverrideReason != ""
}

// Override is one caller-supplied override within a draft/publish payload.
type Override struct {
	// Grade is the override grade (1–10) or nil to keep the row a draft.
	Grade *float64

	// Reason is the override justification, optional.
	Reason *string

	// GroupGrade overrides the request-level group grade default for this
	// student only, optional.
	GroupGrade *float64
}

// Validate checks the override's numeric bounds.
func (o Override) Validate() error {
	if o.Grade != nil && (*o.Grade < MinGrade || *o.Grade > MaxGrade) {
		return shared.ErrGradeOutOfRange
	}
	if o.GroupGrade != nil && (*o.GroupGrade < MinGrade || *o.GroupGrade > MaxGrade) {
		return shared.ErrGradeOutOfRange
	}
	return nil
}
