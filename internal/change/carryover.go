package change

// EliminateCarryovers returns the changes in curr that were not already
// present in prev.
//
// A change is carried over when its (RecordID, Cause) appears in prev,
// whatever its ObservedAt: the same edit re-detected by an overlapping poll
// always carries a later timestamp. Records whose change set becomes empty
// are left out of the result. Neither input is modified.
func EliminateCarryovers(curr, prev ChangeSet) ChangeSet {
	out := make(ChangeSet, len(curr))
	for id, cs := range curr {
		seen := prev[id]
		for cause, c := range cs {
			if seen.Has(cause) {
				continue
			}
			out.Add(id, c)
		}
	}
	return out
}
