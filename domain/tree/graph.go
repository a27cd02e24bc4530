package tree

// People maps person id to person. It is the whole relationship graph.
type People map[string]*Person

// Clone returns a deep copy of the graph
func (p People) Clone() People {
	out := make(People, len(p))
	for id, person := range p {
		out[id] = person.Clone()
	}
	return out
}

// Snapshot is the unit of persistence: the graph plus the navigation stack
// of view roots. The top of the stack is the person the view is rooted at.
//
// Snapshots are treated as immutable: every mutation deep-clones the current
// snapshot and returns a new one, so a reader holding an older snapshot
// never observes a change.
type Snapshot struct {
	People      People   `json:"people"`
	RootIDStack []string `json:"rootIdStack"`
}

// Bootstrap creates the initial snapshot with a single founder person under
// the reserved root id.
func Bootstrap(firstName, lastName string, gender Gender) *Snapshot {
	founder := &Person{
		ID:          RootID,
		FirstName:   firstName,
		LastName:    lastName,
		Gender:      gender,
		ExSpouseIDs: []string{},
		ParentIDs:   []string{},
		Children:    []string{},
	}
	return &Snapshot{
		People:      People{RootID: founder},
		RootIDStack: []string{RootID},
	}
}

// Clone returns a deep copy of the snapshot
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	return &Snapshot{
		People:      s.People.Clone(),
		RootIDStack: copyIDs(s.RootIDStack),
	}
}

// ViewRoot returns the top of the navigation stack, or the reserved root id
// when the stack is empty.
func (s *Snapshot) ViewRoot() string {
	if len(s.RootIDStack) == 0 {
		return RootID
	}
	return s.RootIDStack[len(s.RootIDStack)-1]
}

// NavigateTo pushes a person onto the navigation stack unless it is already
// the current view root. Returns a new snapshot.
func (s *Snapshot) NavigateTo(personID string) *Snapshot {
	next := s.Clone()
	if len(next.RootIDStack) > 0 && next.RootIDStack[len(next.RootIDStack)-1] == personID {
		return next
	}
	next.RootIDStack = append(next.RootIDStack, personID)
	return next
}

// NavigateBack pops the navigation stack when there is somewhere to go back
// to. Returns a new snapshot.
func (s *Snapshot) NavigateBack() *Snapshot {
	next := s.Clone()
	if len(next.RootIDStack) > 1 {
		next.RootIDStack = next.RootIDStack[:len(next.RootIDStack)-1]
	}
	return next
}

// NavigateHome resets the navigation stack to the founder. Returns a new
// snapshot.
func (s *Snapshot) NavigateHome() *Snapshot {
	next := s.Clone()
	next.RootIDStack = []string{RootID}
	return next
}
