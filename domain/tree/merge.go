package tree

// Merge reconciles an incoming graph with the live one and returns a new
// graph. Neither input is modified.
//
// For every person in the incoming graph:
//   - absent from the live graph: inserted verbatim;
//   - present in both: descriptive fields prefer the incoming value when it
//     is non-empty, otherwise the live value is kept (incoming never
//     overwrites with blanks); contactInfo sub-fields follow the same rule
//     independently; spouseId is overwritten whenever incoming defines one;
//   - edge sets (children, parentIds, exSpouseIds) are set-unioned. Merge is
//     additive: it never removes a person or an edge present on either side.
//
// The result is not re-validated here; callers merge only graphs that have
// already passed Validate, and may run CheckInvariants afterwards.
func Merge(live, incoming People) People {
	merged := live.Clone()

	for id, in := range incoming {
		cur, ok := merged[id]
		if !ok {
			merged[id] = in.Clone()
			continue
		}
		mergePerson(cur, in)
	}
	return merged
}

func mergePerson(cur, in *Person) {
	cur.FirstName = preferNonEmpty(in.FirstName, cur.FirstName)
	cur.LastName = preferNonEmpty(in.LastName, cur.LastName)
	if in.Gender != "" {
		cur.Gender = in.Gender
	}
	cur.BirthDate = preferNonEmpty(in.BirthDate, cur.BirthDate)
	cur.DeathDate = preferNonEmpty(in.DeathDate, cur.DeathDate)
	cur.ImageURL = preferNonEmpty(in.ImageURL, cur.ImageURL)
	cur.Bio = preferNonEmpty(in.Bio, cur.Bio)
	cur.ContactInfo = mergeContactInfo(cur.ContactInfo, in.ContactInfo)

	if in.SpouseID != "" {
		cur.SpouseID = in.SpouseID
	}

	cur.Children = unionIDs(cur.Children, in.Children)
	cur.ParentIDs = unionIDs(cur.ParentIDs, in.ParentIDs)
	cur.ExSpouseIDs = unionIDs(cur.ExSpouseIDs, in.ExSpouseIDs)
}

func mergeContactInfo(cur, in *ContactInfo) *ContactInfo {
	if in == nil {
		return cur
	}
	if cur == nil {
		ci := *in
		return &ci
	}
	return &ContactInfo{
		Phone:   preferNonEmpty(in.Phone, cur.Phone),
		Email:   preferNonEmpty(in.Email, cur.Email),
		Address: preferNonEmpty(in.Address, cur.Address),
	}
}

func preferNonEmpty(incoming, live string) string {
	if incoming != "" {
		return incoming
	}
	return live
}

// unionIDs returns the set union of two id lists, preserving the order of
// the first and appending unseen ids of the second.
func unionIDs(a, b []string) []string {
	out := copyIDs(a)
	if out == nil && b != nil {
		out = []string{}
	}
	for _, id := range b {
		out = appendUnique(out, id)
	}
	return out
}
