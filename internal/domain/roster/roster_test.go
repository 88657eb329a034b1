package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTeamIndex_OrdersByNameThenID(t *testing.T) {
	teams := []Team{
		{ID: "t3", CourseID: "c1", Name: "Wolves"},
		{ID: "t2", CourseID: "c1", Name: "Falcons"},
		{ID: "t1", CourseID: "c1", Name: "Falcons"},
	}

	index := TeamIndex(teams)

	// Name ties break on id, numbering starts at 1.
	assert.Equal(t, 1, index["t1"])
	assert.Equal(t, 2, index["t2"])
	assert.Equal(t, 3, index["t3"])
}

func TestTeamIndex_Empty(t *testing.T) {
	index := TeamIndex(nil)
	assert.Empty(t, index)
}

func TestTeamIndex_Recomputes(t *testing.T) {
	teams := []Team{
		{ID: "t1", Name: "Bravo"},
		{ID: "t2", Name: "Alpha"},
	}
	index := TeamIndex(teams)
	assert.Equal(t, 2, index["t1"])
	assert.Equal(t, 1, index["t2"])

	// Removing the first-ordered team shifts the survivor to 1.
	index = TeamIndex(teams[:1])
	assert.Equal(t, 1, index["t1"])
}

func TestBuildEligibleSet_FiltersAndOrders(t *testing.T) {
	students := []Student{
		{ID: "s1", Name: "Zoe"},
		{ID: "s2", Name: "Amir"},
		{ID: "s3", Name: "Mara", Archived: true},
	}
	memberships := []Membership{
		{StudentID: "s1", TeamID: "t1", Active: true},
		{StudentID: "s2", TeamID: "t1", Active: true},
		{StudentID: "s3", TeamID: "t2", Active: true},  // archived
		{StudentID: "s4", TeamID: "t2", Active: true},  // unknown to directory
		{StudentID: "s5", TeamID: "t2", Active: false}, // inactive
	}

	set := BuildEligibleSet(memberships, students)

	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"s2", "s1"}, set.IDs()) // Amir before Zoe
	assert.True(t, set.Contains("s1"))
	assert.False(t, set.Contains("s3"))
	assert.False(t, set.Contains("s5"))

	teamID, ok := set.TeamOf("s2")
	assert.True(t, ok)
	assert.Equal(t, "t1", teamID)

	_, ok = set.TeamOf("s4")
	assert.False(t, ok)
}

func TestBuildEligibleSet_EmptyInputs(t *testing.T) {
	set := BuildEligibleSet(nil, nil)
	assert.Equal(t, 0, set.Len())
	assert.Empty(t, set.Students())
}

func TestBuildEligibleSet_DuplicateMembershipsKeepFirst(t *testing.T) {
	students := []Student{{ID: "s1", Name: "Ana"}}
	memberships := []Membership{
		{StudentID: "s1", TeamID: "t1", Active: true},
		{StudentID: "s1", TeamID: "t2", Active: true},
	}

	set := BuildEligibleSet(memberships, students)

	assert.Equal(t, 1, set.Len())
	teamID, _ := set.TeamOf("s1")
	assert.Equal(t, "t1", teamID)
}

func TestBuildEligibleSet_NameTiesOrderByID(t *testing.T) {
	students := []Student{
		{ID: "s2", Name: "Kim"},
		{ID: "s1", Name: "Kim"},
	}
	memberships := []Membership{
		{StudentID: "s1", TeamID: "t1", Active: true},
		{StudentID: "s2", TeamID: "t1", Active: true},
	}

	set := BuildEligibleSet(memberships, students)
	assert.Equal(t, []string{"s1", "s2"}, set.IDs())
}
