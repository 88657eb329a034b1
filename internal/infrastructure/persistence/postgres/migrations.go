package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE DIRECTORY
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create directory tables
-- Version: 001

-- Students as known to the school directory. Rows are synced from the
-- directory service; this core only reads them.
CREATE TABLE IF NOT EXISTS students (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(200) NOT NULL,
    class_name VARCHAR(100) NOT NULL DEFAULT '',
    archived BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_students_name ON students(name);
CREATE INDEX IF NOT EXISTS idx_students_archived ON students(archived) WHERE NOT archived;

-- Teams within a course. Display numbers are derived at read time from
-- the (name, id) ordering and never stored.
CREATE TABLE IF NOT EXISTS teams (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    course_id UUID NOT NULL,
    name VARCHAR(200) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_teams_course_id ON teams(course_id);
CREATE INDEX IF NOT EXISTS idx_teams_course_name ON teams(course_id, name, id);

-- Membership of students in teams. A student may appear in several
-- teams over time; only active rows count towards eligibility.
CREATE TABLE IF NOT EXISTS team_memberships (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    team_id UUID NOT NULL REFERENCES teams(id) ON DELETE CASCADE,
    student_id UUID NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(team_id, student_id)
);

CREATE INDEX IF NOT EXISTS idx_team_memberships_team_id ON team_memberships(team_id);
CREATE INDEX IF NOT EXISTS idx_team_memberships_student_id ON team_memberships(student_id);
CREATE INDEX IF NOT EXISTS idx_team_memberships_active ON team_memberships(team_id) WHERE active;
`

const migration001Down = `
DROP TABLE IF EXISTS team_memberships;
DROP TABLE IF EXISTS teams;
DROP TABLE IF EXISTS students;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE EVALUATIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create evaluation tables
-- Version: 002

-- Rubrics define the scoring scale for their criteria.
CREATE TABLE IF NOT EXISTS rubrics (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(200) NOT NULL DEFAULT '',
    scale_min INTEGER NOT NULL DEFAULT 1,
    scale_max INTEGER NOT NULL DEFAULT 5,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_scale CHECK (scale_max >= scale_min)
);

-- Weighted criteria within a rubric.
CREATE TABLE IF NOT EXISTS rubric_criteria (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    rubric_id UUID NOT NULL REFERENCES rubrics(id) ON DELETE CASCADE,
    title VARCHAR(300) NOT NULL DEFAULT '',
    weight DOUBLE PRECISION NOT NULL DEFAULT 1.0,
    position INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_rubric_criteria_rubric_id ON rubric_criteria(rubric_id);

-- Peer evaluation rounds. course_id binds the evaluation to its roster.
CREATE TABLE IF NOT EXISTS evaluations (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    rubric_id UUID REFERENCES rubrics(id),
    course_id UUID,
    name VARCHAR(300) NOT NULL DEFAULT '',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_evaluations_course_id ON evaluations(course_id);

-- Reviewer/reviewee assignments within an evaluation.
CREATE TABLE IF NOT EXISTS allocations (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    evaluation_id UUID NOT NULL REFERENCES evaluations(id) ON DELETE CASCADE,
    reviewer_id UUID NOT NULL,
    reviewee_id UUID NOT NULL,
    is_self BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(evaluation_id, reviewer_id, reviewee_id)
);

CREATE INDEX IF NOT EXISTS idx_allocations_evaluation_id ON allocations(evaluation_id);
CREATE INDEX IF NOT EXISTS idx_allocations_reviewee_id ON allocations(evaluation_id, reviewee_id);

-- Submitted per-criterion scores.
CREATE TABLE IF NOT EXISTS scores (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    allocation_id UUID NOT NULL REFERENCES allocations(id) ON DELETE CASCADE,
    criterion_id UUID NOT NULL REFERENCES rubric_criteria(id) ON DELETE CASCADE,
    value DOUBLE PRECISION NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(allocation_id, criterion_id)
);

CREATE INDEX IF NOT EXISTS idx_scores_allocation_id ON scores(allocation_id);
`

const migration002Down = `
DROP TABLE IF EXISTS scores;
DROP TABLE IF EXISTS allocations;
DROP TABLE IF EXISTS evaluations;
DROP TABLE IF EXISTS rubric_criteria;
DROP TABLE IF EXISTS rubrics;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE GRADES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create grades table
-- Version: 003

-- Per-student grade overrides with their metadata snapshot. This is the
-- only table the grading core writes to. The UNIQUE constraint backs the
-- atomic upsert: concurrent saves for the same student resolve to a
-- single row.
CREATE TABLE IF NOT EXISTS grades (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    evaluation_id UUID NOT NULL,
    user_id UUID NOT NULL,
    grade DOUBLE PRECISION,
    override_reason TEXT,
    meta JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_grade CHECK (grade IS NULL OR (grade >= 1 AND grade <= 10)),
    UNIQUE(evaluation_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_grades_evaluation_id ON grades(evaluation_id);
CREATE INDEX IF NOT EXISTS idx_grades_user_id ON grades(user_id);
`

const migration003Down = `
DROP TABLE IF EXISTS grades;
`
