package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mergeFixture() People {
	return People{
		RootID: {
			ID: RootID, FirstName: "John", LastName: "Doe", Gender: GenderMale,
			SpouseID:    "jane",
			ExSpouseIDs: []string{},
			ParentIDs:   []string{},
			Children:    []string{"tim"},
		},
		"jane": {
			ID: "jane", FirstName: "Jane", LastName: "Doe", Gender: GenderFemale,
			SpouseID:    RootID,
			ExSpouseIDs: []string{},
			ParentIDs:   []string{},
			Children:    []string{"tim"},
		},
		"tim": {
			ID: "tim", FirstName: "Tim", LastName: "Doe", Gender: GenderMale,
			ExSpouseIDs: []string{},
			ParentIDs:   []string{RootID, "jane"},
			Children:    []string{},
		},
	}
}

func TestMerge_WithItselfIsIdentity(t *testing.T) {
	// Arrange
	live := mergeFixture()

	// Act
	merged := Merge(live, live)

	// Assert
	assert.Equal(t, live, merged)
}

func TestMerge_KeepsEmptyEdgeSetsNonNil(t *testing.T) {
	// Arrange: tim has no ex-spouses and no children on either side
	live := mergeFixture()

	// Act
	merged := Merge(live, live)

	// Assert
	assert.NotNil(t, merged["tim"].ExSpouseIDs)
	assert.NotNil(t, merged["tim"].Children)
}

func TestMerge_InsertsAbsentPeople(t *testing.T) {
	// Arrange
	live := mergeFixture()
	incoming := People{
		"eve": {
			ID: "eve", FirstName: "Eve",
			ExSpouseIDs: []string{}, ParentIDs: []string{"tim"}, Children: []string{},
		},
	}

	// Act
	merged := Merge(live, incoming)

	// Assert
	require.Contains(t, merged, "eve")
	assert.Equal(t, "Eve", merged["eve"].FirstName)
	assert.Len(t, merged, len(live)+1)
}

func TestMerge_NonEmptyIncomingFieldsWin(t *testing.T) {
	// Arrange
	live := mergeFixture()
	incoming := People{
		RootID: {
			ID: RootID, FirstName: "Jonathan", BirthDate: "1950-04-12",
			ExSpouseIDs: []string{}, ParentIDs: []string{}, Children: []string{},
		},
	}

	// Act
	merged := Merge(live, incoming)

	// Assert
	assert.Equal(t, "Jonathan", merged[RootID].FirstName)
	assert.Equal(t, "1950-04-12", merged[RootID].BirthDate)
}

func TestMerge_BlankIncomingFieldsNeverOverwrite(t *testing.T) {
	// Arrange: incoming knows this person but carries no detail
	live := mergeFixture()
	incoming := People{
		RootID: {
			ID:          RootID,
			ExSpouseIDs: []string{}, ParentIDs: []string{}, Children: []string{},
		},
	}

	// Act
	merged := Merge(live, incoming)

	// Assert
	assert.Equal(t, "John", merged[RootID].FirstName)
	assert.Equal(t, "Doe", merged[RootID].LastName)
	assert.Equal(t, GenderMale, merged[RootID].Gender)
	assert.Equal(t, "jane", merged[RootID].SpouseID)
}

func TestMerge_ContactInfoMergesPerField(t *testing.T) {
	// Arrange
	live := mergeFixture()
	live[RootID].ContactInfo = &ContactInfo{Phone: "555-0100", Address: "1 Elm St"}
	incoming := People{
		RootID: {
			ID:          RootID,
			ContactInfo: &ContactInfo{Email: "john@example.com", Address: "2 Oak Ave"},
			ExSpouseIDs: []string{}, ParentIDs: []string{}, Children: []string{},
		},
	}

	// Act
	merged := Merge(live, incoming)

	// Assert
	require.NotNil(t, merged[RootID].ContactInfo)
	assert.Equal(t, "555-0100", merged[RootID].ContactInfo.Phone)
	assert.Equal(t, "john@example.com", merged[RootID].ContactInfo.Email)
	assert.Equal(t, "2 Oak Ave", merged[RootID].ContactInfo.Address)
}

func TestMerge_SpouseIDOverwrittenWhenIncomingDefinesOne(t *testing.T) {
	// Arrange
	live := mergeFixture()
	incoming := People{
		RootID: {
			ID: RootID, SpouseID: "mary",
			ExSpouseIDs: []string{}, ParentIDs: []string{}, Children: []string{},
		},
		"mary": {
			ID: "mary", FirstName: "Mary", SpouseID: RootID,
			ExSpouseIDs: []string{}, ParentIDs: []string{}, Children: []string{},
		},
	}

	// Act
	merged := Merge(live, incoming)

	// Assert
	assert.Equal(t, "mary", merged[RootID].SpouseID)
}

func TestMerge_EdgeSetsAreUnioned(t *testing.T) {
	// Arrange
	live := mergeFixture()
	incoming := People{
		RootID: {
			ID:          RootID,
			ExSpouseIDs: []string{"mary"},
			ParentIDs:   []string{},
			Children:    []string{"tim", "eve"},
		},
		"mary": {ID: "mary", ExSpouseIDs: []string{RootID}, ParentIDs: []string{}, Children: []string{}},
		"eve":  {ID: "eve", ExSpouseIDs: []string{}, ParentIDs: []string{RootID}, Children: []string{}},
	}

	// Act
	merged := Merge(live, incoming)

	// Assert: live order is preserved and unseen ids are appended
	assert.Equal(t, []string{"tim", "eve"}, merged[RootID].Children)
	assert.Equal(t, []string{"mary"}, merged[RootID].ExSpouseIDs)
}

func TestMerge_NeverRemovesPeopleOrEdges(t *testing.T) {
	// Arrange: incoming is a strict subset of live
	live := mergeFixture()
	incoming := People{
		RootID: {ID: RootID, ExSpouseIDs: []string{}, ParentIDs: []string{}, Children: []string{}},
	}

	// Act
	merged := Merge(live, incoming)

	// Assert
	assert.Len(t, merged, len(live))
	assert.Equal(t, []string{"tim"}, merged[RootID].Children)
}

func TestMerge_InputsAreNotModified(t *testing.T) {
	// Arrange
	live := mergeFixture()
	incoming := People{
		RootID: {
			ID: RootID, FirstName: "Jonathan",
			ExSpouseIDs: []string{}, ParentIDs: []string{}, Children: []string{"eve"},
		},
		"eve": {ID: "eve", ExSpouseIDs: []string{}, ParentIDs: []string{RootID}, Children: []string{}},
	}

	// Act
	_ = Merge(live, incoming)

	// Assert
	assert.Equal(t, "John", live[RootID].FirstName)
	assert.Equal(t, []string{"tim"}, live[RootID].Children)
	assert.Equal(t, "Jonathan", incoming[RootID].FirstName)
}
