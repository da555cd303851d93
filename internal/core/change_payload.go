package core

import "injectcore/pkg/domain"

// decodeChangePayload asserts a Change payload into a value of type T. It
// returns the zero value and false when the payload is absent or of a
// different entity type.
func decodeChangePayload[T any](payload any) (T, bool) {
	out, ok := payload.(T)
	return out, ok
}

// associationCreates extracts the associations introduced by the change set.
func associationCreates(changes []Change) []Association {
	var out []Association
	for _, change := range changes {
		if change.Entity != domain.EntityAssociation || change.Action != domain.ActionCreate {
			continue
		}
		if assoc, ok := decodeChangePayload[Association](change.After); ok {
			out = append(out, assoc)
		}
	}
	return out
}

// associationActivations extracts associations switched on by the change set:
// updates whose status moves to active, plus creates already active.
func associationActivations(changes []Change) []Association {
	var out []Association
	for _, change := range changes {
		if change.Entity != domain.EntityAssociation {
			continue
		}
		after, ok := decodeChangePayload[Association](change.After)
		if !ok || !after.Active() {
			continue
		}
		switch change.Action {
		case domain.ActionCreate:
			out = append(out, after)
		case domain.ActionUpdate:
			if before, ok := decodeChangePayload[Association](change.Before); ok && before.Active() {
				continue
			}
			out = append(out, after)
		}
	}
	return out
}
