package model

// Assignment binds a person to a block under a rotation template. At most
// one Assignment may exist per (PersonID, BlockID) pair.
type Assignment struct {
	PersonID           string
	BlockID            string
	RotationTemplateID string
	Hours              float64
}

// Key returns the (person, block) identity used to enforce I1 and to key
// Hamming-distance comparisons in the anti-churn objective.
func (a Assignment) Key() AssignmentKey {
	return AssignmentKey{PersonID: a.PersonID, BlockID: a.BlockID}
}

// AssignmentKey is the (person, block) identity of an Assignment.
type AssignmentKey struct {
	PersonID string
	BlockID  string
}

// IndexAssignments builds the (person,block) -> Assignment index used
// throughout the constraint engine and anti-churn objective. Returns an
// error if a duplicate key is found.
func IndexAssignments(assignments []Assignment) (map[AssignmentKey]Assignment, error) {
	idx := make(map[AssignmentKey]Assignment, len(assignments))
	for _, a := range assignments {
		k := a.Key()
		if _, exists := idx[k]; exists {
			return nil, &DuplicateAssignmentError{Key: k}
		}
		idx[k] = a
	}
	return idx, nil
}

// DuplicateAssignmentError reports an I1 violation: two assignments for the
// same (person, block) pair.
type DuplicateAssignmentError struct {
	Key AssignmentKey
}

func (e *DuplicateAssignmentError) Error() string {
	return "duplicate assignment for person=" + e.Key.PersonID + " block=" + e.Key.BlockID
}
