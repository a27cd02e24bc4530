package tree

import (
	"strings"

	"github.com/google/uuid"
)

// RootID is the reserved id of the tree's founder. It always exists while
// the graph is non-empty and can never be deleted.
const RootID = "root"

// Gender of a person
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Relationship names the kind of relative being added to an anchor person
type Relationship string

const (
	RelationshipSpouse  Relationship = "spouse"
	RelationshipChild   Relationship = "child"
	RelationshipParent  Relationship = "parent"
	RelationshipSibling Relationship = "sibling"
)

// ContactInfo holds optional contact details. It has no graph semantics.
type ContactInfo struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// Person is one node in the relationship graph. Equality is by ID only.
//
// BirthDate and DeathDate are either full dates ("1950-01-01") or bare years
// ("1950"); absence means unknown. Liveness is inferred solely from the
// presence of DeathDate.
type Person struct {
	ID          string       `json:"id"`
	FirstName   string       `json:"firstName"`
	LastName    string       `json:"lastName"`
	Gender      Gender       `json:"gender"`
	BirthDate   string       `json:"birthDate,omitempty"`
	DeathDate   string       `json:"deathDate,omitempty"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	Bio         string       `json:"bio,omitempty"`
	ContactInfo *ContactInfo `json:"contactInfo,omitempty"`
	SpouseID    string       `json:"spouseId,omitempty"`
	ExSpouseIDs []string     `json:"exSpouseIds"`
	ParentIDs   []string     `json:"parentIds"`
	Children    []string     `json:"children"`
}

// NewPersonID generates a fresh unique person id
func NewPersonID() string {
	return uuid.New().String()
}

// FullName returns the display name, with empty components trimmed
func (p *Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// IsAlive reports whether the person has no recorded death date
func (p *Person) IsAlive() bool {
	return p.DeathDate == ""
}

// Clone returns a deep copy of the person
func (p *Person) Clone() *Person {
	if p == nil {
		return nil
	}
	cp := *p
	cp.ExSpouseIDs = copyIDs(p.ExSpouseIDs)
	cp.ParentIDs = copyIDs(p.ParentIDs)
	cp.Children = copyIDs(p.Children)
	if p.ContactInfo != nil {
		ci := *p.ContactInfo
		cp.ContactInfo = &ci
	}
	return &cp
}

// copyIDs copies an id list, preserving nil-ness so empty edge sets still
// serialize as [] after a clone.
func copyIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	return append(make([]string, 0, len(ids)), ids...)
}

// containsID reports whether ids contains id
func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// removeID returns ids without id, preserving order
func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// appendUnique appends id unless it is already present
func appendUnique(ids []string, id string) []string {
	if containsID(ids, id) {
		return ids
	}
	return append(ids, id)
}
