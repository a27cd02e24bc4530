package tree

import "sort"

// IndexGenerations assigns every person reachable from rootID a generation
// level by breadth-first traversal. The root is level 0, children are one
// level below their parents, and a spouse shares their partner's level (a
// spouse is a peer, not offspring); the spouse's children are expanded from
// the same frontier. Each person is visited at most once, which keeps the
// traversal finite even when the data contains a relationship cycle.
//
// People disconnected from rootID receive no level and are absent from the
// result.
func IndexGenerations(people People, rootID string) map[string]int {
	levels := make(map[string]int)
	if _, ok := people[rootID]; !ok {
		return levels
	}

	type entry struct {
		id    string
		level int
	}
	queue := []entry{{rootID, 0}}
	visited := map[string]bool{rootID: true}
	levels[rootID] = 0

	expandChildren := func(p *Person, level int) {
		for _, childID := range p.Children {
			if visited[childID] {
				continue
			}
			if _, ok := people[childID]; !ok {
				continue
			}
			visited[childID] = true
			levels[childID] = level + 1
			queue = append(queue, entry{childID, level + 1})
		}
	}

	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		person, ok := people[cur.id]
		if !ok {
			continue
		}

		expandChildren(person, cur.level)

		if person.SpouseID != "" && !visited[person.SpouseID] {
			if spouse, ok := people[person.SpouseID]; ok {
				visited[person.SpouseID] = true
				levels[person.SpouseID] = cur.level
				expandChildren(spouse, cur.level)
			}
		}
	}
	return levels
}

// FamilyUnit returns the minimal set of people implied by a single clicked
// edge between two persons: for a spouse edge the couple and their
// children, for a parent-child edge the parents and all their children.
// When the two people form no such unit (siblings, unrelated), just the
// pair is returned. The result is sorted for deterministic output.
func FamilyUnit(people People, id1, id2 string) []string {
	p1, ok1 := people[id1]
	p2, ok2 := people[id2]
	if !ok1 || !ok2 {
		return sortedIDs(map[string]bool{id1: true, id2: true})
	}

	unit := make(map[string]bool)

	collect := func(parent *Person) {
		unit[parent.ID] = true
		if parent.SpouseID != "" {
			if spouse, ok := people[parent.SpouseID]; ok {
				unit[spouse.ID] = true
			}
		}
		for _, childID := range parent.Children {
			if _, ok := people[childID]; ok {
				unit[childID] = true
			}
		}
	}

	switch {
	case p1.SpouseID == id2:
		collect(p1)
		unit[id2] = true
	case containsID(p1.Children, id2):
		collect(p1)
	case containsID(p2.Children, id1):
		collect(p2)
	default:
		unit[id1] = true
		unit[id2] = true
	}
	return sortedIDs(unit)
}

func sortedIDs(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
