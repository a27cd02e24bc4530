package tree

import (
	apperrors "familytree-backend/pkg/errors"
)

// PersonAttributes carries the descriptive fields of a person being created
// through AddRelative. Relationship edges are derived from the anchor, never
// supplied directly.
type PersonAttributes struct {
	FirstName   string
	LastName    string
	Gender      Gender
	BirthDate   string
	DeathDate   string
	ImageURL    string
	Bio         string
	ContactInfo *ContactInfo
}

// PersonPatch is a partial update of the non-relationship fields of a
// person. Nil fields are left unchanged; a pointer to the zero value clears
// the field.
type PersonPatch struct {
	FirstName   *string      `json:"firstName,omitempty"`
	LastName    *string      `json:"lastName,omitempty"`
	Gender      *Gender      `json:"gender,omitempty"`
	BirthDate   *string      `json:"birthDate,omitempty"`
	DeathDate   *string      `json:"deathDate,omitempty"`
	ImageURL    *string      `json:"imageUrl,omitempty"`
	Bio         *string      `json:"bio,omitempty"`
	ContactInfo *ContactInfo `json:"contactInfo,omitempty"`
}

// AddRelative adds a relative of the given kind to the anchor person and
// returns the new snapshot together with the id of the person that was
// created (empty for a remarriage, which reuses an existing person).
//
// The input snapshot is never modified.
func AddRelative(s *Snapshot, anchorID string, rel Relationship, attrs PersonAttributes, existingPersonID string) (*Snapshot, string, error) {
	next := s.Clone()
	anchor, ok := next.People[anchorID]
	if !ok {
		return nil, "", apperrors.NewNotFoundError("anchor person")
	}

	switch rel {
	case RelationshipSpouse:
		if existingPersonID != "" {
			if err := remarry(next.People, anchor, existingPersonID); err != nil {
				return nil, "", err
			}
			return next, "", nil
		}
		return next, marrySpouse(next.People, anchor, attrs), nil

	case RelationshipChild:
		return next, addChild(next.People, anchor, attrs), nil

	case RelationshipParent:
		id, err := addParent(next.People, anchor, attrs)
		if err != nil {
			return nil, "", err
		}
		return next, id, nil

	case RelationshipSibling:
		id, err := addSibling(next.People, anchor, attrs)
		if err != nil {
			return nil, "", err
		}
		return next, id, nil

	default:
		return nil, "", apperrors.NewValidationErrorf("unknown relationship %q", rel)
	}
}

// newPerson materializes attributes into a fresh person with empty edge sets
func newPerson(attrs PersonAttributes) *Person {
	return &Person{
		ID:          NewPersonID(),
		FirstName:   attrs.FirstName,
		LastName:    attrs.LastName,
		Gender:      attrs.Gender,
		BirthDate:   attrs.BirthDate,
		DeathDate:   attrs.DeathDate,
		ImageURL:    attrs.ImageURL,
		Bio:         attrs.Bio,
		ContactInfo: attrs.ContactInfo,
		ExSpouseIDs: []string{},
		ParentIDs:   []string{},
		Children:    []string{},
	}
}

// marrySpouse creates a new person and makes them the anchor's current
// spouse. An existing spouse is demoted to ex-spouse on both sides, not
// deleted: the prior relationship is preserved as historical.
func marrySpouse(people People, anchor *Person, attrs PersonAttributes) string {
	spouse := newPerson(attrs)
	people[spouse.ID] = spouse

	demoteSpouse(people, anchor)
	anchor.SpouseID = spouse.ID
	spouse.SpouseID = anchor.ID
	return spouse.ID
}

// demoteSpouse turns the anchor's current marriage, if any, into a mutual
// ex-spouse link.
func demoteSpouse(people People, anchor *Person) {
	if anchor.SpouseID == "" {
		return
	}
	prior, ok := people[anchor.SpouseID]
	if ok {
		prior.SpouseID = ""
		prior.ExSpouseIDs = appendUnique(prior.ExSpouseIDs, anchor.ID)
		anchor.ExSpouseIDs = appendUnique(anchor.ExSpouseIDs, prior.ID)
	}
	anchor.SpouseID = ""
}

// remarry re-establishes a marriage between the anchor and one of their
// ex-spouses. No person is created and no attributes are consumed.
func remarry(people People, anchor *Person, spouseID string) error {
	spouse, ok := people[spouseID]
	if !ok {
		return apperrors.NewNotFoundError("spouse person")
	}
	if spouseID == anchor.ID {
		return apperrors.NewValidationError("a person cannot marry themselves")
	}

	demoteSpouse(people, anchor)
	demoteSpouse(people, spouse)

	anchor.SpouseID = spouse.ID
	spouse.SpouseID = anchor.ID
	anchor.ExSpouseIDs = removeID(anchor.ExSpouseIDs, spouse.ID)
	spouse.ExSpouseIDs = removeID(spouse.ExSpouseIDs, anchor.ID)
	return nil
}

// addChild creates a child of the anchor. When the anchor is married the
// child gets both parents, and both parents list the child.
func addChild(people People, anchor *Person, attrs PersonAttributes) string {
	child := newPerson(attrs)
	child.ParentIDs = []string{anchor.ID}
	anchor.Children = appendUnique(anchor.Children, child.ID)

	if anchor.SpouseID != "" {
		if spouse, ok := people[anchor.SpouseID]; ok {
			child.ParentIDs = append(child.ParentIDs, spouse.ID)
			spouse.Children = appendUnique(spouse.Children, child.ID)
		}
	}
	people[child.ID] = child
	return child.ID
}

// addParent creates a parent of the anchor. A third parent is rejected.
// When the anchor already had exactly one parent, the two parents become
// spouses (inferSpouseOnSecondParent).
func addParent(people People, anchor *Person, attrs PersonAttributes) (string, error) {
	if len(anchor.ParentIDs) >= 2 {
		return "", apperrors.NewValidationErrorf(
			"person %q already has two parents", anchor.FullName())
	}

	parent := newPerson(attrs)
	parent.Children = []string{anchor.ID}
	people[parent.ID] = parent

	priorParentID := ""
	if len(anchor.ParentIDs) == 1 {
		priorParentID = anchor.ParentIDs[0]
	}
	anchor.ParentIDs = append(anchor.ParentIDs, parent.ID)

	if priorParentID != "" {
		inferSpouseOnSecondParent(people, priorParentID, parent)
	}
	return parent.ID, nil
}

// inferSpouseOnSecondParent marries a newly added second parent to the
// pre-existing one. This is a deliberate business rule, not a structural
// necessity: two parents of the same child are assumed to be a couple. A
// current spouse of the pre-existing parent is demoted to ex-spouse so that
// spouse symmetry survives the inference.
func inferSpouseOnSecondParent(people People, priorParentID string, newParent *Person) {
	prior, ok := people[priorParentID]
	if !ok {
		return
	}
	demoteSpouse(people, prior)
	prior.SpouseID = newParent.ID
	newParent.SpouseID = prior.ID
}

// addSibling creates a sibling sharing the anchor's exact parent set. A
// parentless anchor is rejected: the resulting person would have no edge to
// the anchor at all.
func addSibling(people People, anchor *Person, attrs PersonAttributes) (string, error) {
	if len(anchor.ParentIDs) == 0 {
		return "", apperrors.NewValidationErrorf(
			"person %q has no parents to share with a sibling", anchor.FullName())
	}

	sibling := newPerson(attrs)
	sibling.ParentIDs = copyIDs(anchor.ParentIDs)
	people[sibling.ID] = sibling

	for _, parentID := range anchor.ParentIDs {
		if parent, ok := people[parentID]; ok {
			parent.Children = appendUnique(parent.Children, sibling.ID)
		}
	}
	return sibling.ID, nil
}

// EditPerson applies a partial update to the descriptive fields of a
// person. Relationship edges are never touched. The input snapshot is never
// modified.
func EditPerson(s *Snapshot, id string, patch PersonPatch) (*Snapshot, error) {
	next := s.Clone()
	person, ok := next.People[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("person")
	}

	if patch.FirstName != nil {
		person.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		person.LastName = *patch.LastName
	}
	if patch.Gender != nil {
		person.Gender = *patch.Gender
	}
	if patch.BirthDate != nil {
		person.BirthDate = *patch.BirthDate
	}
	if patch.DeathDate != nil {
		person.DeathDate = *patch.DeathDate
	}
	if patch.ImageURL != nil {
		person.ImageURL = *patch.ImageURL
	}
	if patch.Bio != nil {
		person.Bio = *patch.Bio
	}
	if patch.ContactInfo != nil {
		ci := *patch.ContactInfo
		person.ContactInfo = &ci
	}
	return next, nil
}

// DeletePerson removes a person and strips every inbound reference: the
// current spouse is widowed, ex-spouses forget the link, parents lose the
// child entry and children lose the parent entry. Children are not deleted;
// they keep their other parent if one exists. The navigation stack drops
// the deleted id and falls back to the founder when it would become empty.
//
// Deleting the founder is forbidden. The input snapshot is never modified.
func DeletePerson(s *Snapshot, id string) (*Snapshot, error) {
	if id == RootID {
		return nil, apperrors.NewForbiddenError("the tree's founder cannot be deleted")
	}
	next := s.Clone()
	target, ok := next.People[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("person")
	}

	if target.SpouseID != "" {
		if spouse, ok := next.People[target.SpouseID]; ok {
			spouse.SpouseID = ""
		}
	}
	for _, exID := range target.ExSpouseIDs {
		if ex, ok := next.People[exID]; ok {
			ex.ExSpouseIDs = removeID(ex.ExSpouseIDs, id)
		}
	}
	for _, parentID := range target.ParentIDs {
		if parent, ok := next.People[parentID]; ok {
			parent.Children = removeID(parent.Children, id)
		}
	}
	for _, childID := range target.Children {
		if child, ok := next.People[childID]; ok {
			child.ParentIDs = removeID(child.ParentIDs, id)
		}
	}
	delete(next.People, id)

	next.RootIDStack = removeID(next.RootIDStack, id)
	if len(next.RootIDStack) == 0 {
		next.RootIDStack = []string{RootID}
	}
	return next, nil
}
