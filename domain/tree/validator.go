package tree

import (
	apperrors "familytree-backend/pkg/errors"
)

// Validate checks that a candidate snapshot is internally referentially
// consistent. It is the gate every externally supplied snapshot (file
// import, link-share payload) must pass before it replaces or merges into
// the live graph.
//
// Validate is pure: it never mutates its input and has no side effects. It
// stops at the first violation and returns a validation error naming the
// offending person and relation, without attempting repair.
//
// Relationship cycles in parentage are not detected here; the generation
// indexer's visited set is the only defense against them.
func Validate(s *Snapshot) error {
	if s == nil || s.People == nil {
		return apperrors.NewValidationError("snapshot has no people map")
	}
	if len(s.People) > 0 && len(s.RootIDStack) == 0 {
		return apperrors.NewValidationError("snapshot designates no view root (rootIdStack is empty)")
	}
	for _, id := range s.RootIDStack {
		if _, ok := s.People[id]; !ok {
			return apperrors.NewValidationErrorf("navigation stack references unknown person id %q", id)
		}
	}

	for _, person := range s.People {
		if person.SpouseID != "" {
			if err := checkRef(s.People, person, person.SpouseID, "spouse"); err != nil {
				return err
			}
		}
		if err := checkRefs(s.People, person, person.ExSpouseIDs, "ex-spouse"); err != nil {
			return err
		}
		if err := checkRefs(s.People, person, person.ParentIDs, "parent"); err != nil {
			return err
		}
		if err := checkRefs(s.People, person, person.Children, "child"); err != nil {
			return err
		}
	}
	return nil
}

func checkRef(people People, person *Person, id, relation string) error {
	if _, ok := people[id]; !ok {
		return apperrors.NewValidationErrorf(
			"person %q has an invalid %s id %q", person.FullName(), relation, id)
	}
	return nil
}

func checkRefs(people People, person *Person, ids []string, relation string) error {
	for _, id := range ids {
		if err := checkRef(people, person, id, relation); err != nil {
			return err
		}
	}
	return nil
}

// CheckInvariants verifies the structural invariants mutations are expected
// to preserve: referential integrity, spouse and ex-spouse symmetry,
// parent/child symmetry, the two-parent limit, and the absence of
// self-edges. It is used by tests and by callers that want a stronger check
// than Validate after a merge.
func CheckInvariants(s *Snapshot) error {
	if err := Validate(s); err != nil {
		return err
	}
	for id, person := range s.People {
		if person.SpouseID == id || containsID(person.ExSpouseIDs, id) ||
			containsID(person.ParentIDs, id) || containsID(person.Children, id) {
			return apperrors.NewValidationErrorf("person %q is related to itself", person.FullName())
		}
		if len(person.ParentIDs) > 2 {
			return apperrors.NewValidationErrorf("person %q has more than two parents", person.FullName())
		}
		if person.SpouseID != "" {
			if spouse := s.People[person.SpouseID]; spouse.SpouseID != id {
				return apperrors.NewValidationErrorf(
					"spouse link between %q and %q is not mutual", person.FullName(), spouse.FullName())
			}
		}
		for _, exID := range person.ExSpouseIDs {
			if ex := s.People[exID]; !containsID(ex.ExSpouseIDs, id) {
				return apperrors.NewValidationErrorf(
					"ex-spouse link between %q and %q is not mutual", person.FullName(), ex.FullName())
			}
		}
		for _, parentID := range person.ParentIDs {
			if parent := s.People[parentID]; !containsID(parent.Children, id) {
				return apperrors.NewValidationErrorf(
					"%q lists parent %q who does not list them as a child", person.FullName(), parent.FullName())
			}
		}
		for _, childID := range person.Children {
			if child := s.People[childID]; !containsID(child.ParentIDs, id) {
				return apperrors.NewValidationErrorf(
					"%q lists child %q who does not list them as a parent", person.FullName(), child.FullName())
			}
		}
	}
	return nil
}
