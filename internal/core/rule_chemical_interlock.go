package core

import (
	"context"
	"fmt"

	"injectcore/pkg/domain"
)

// The interlock matches chemical types by literal catalog name. Renaming
// either product silently disables the check, so the names live here as the
// single point to touch.
const (
	interlockChemicalA = "Product A"
	interlockChemicalC = "Product C"
)

// NewChemicalInterlockRule returns the in-transaction rule guarding
// association activation: the tank must still resolve, and the two mutually
// reactive chemicals must never be active on the same well at once.
// Deactivation is never gated.
func NewChemicalInterlockRule() domain.Rule {
	return chemicalInterlockRule{}
}

type chemicalInterlockRule struct{}

func (chemicalInterlockRule) Name() string { return "chemical_interlock" }

func (chemicalInterlockRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	activations := associationActivations(changes)
	if len(activations) == 0 {
		return domain.Result{}, nil
	}

	res := domain.Result{}
	for _, activated := range activations {
		tank, ok := view.FindTank(activated.TankID)
		if !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "chemical_interlock",
				Reason:   domain.ReasonTankNotFound,
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("association %s cannot activate: tank %q not found", activated.ID, activated.TankID),
				Entity:   domain.EntityAssociation,
				EntityID: activated.ID,
			})
			continue
		}
		counterpart, guarded := interlockCounterpart(tank.ChemicalType)
		if !guarded {
			continue
		}
		for _, other := range view.ListAssociations() {
			if other.ID == activated.ID || other.WellID != activated.WellID || !other.Active() {
				continue
			}
			otherTank, ok := view.FindTank(other.TankID)
			if !ok {
				continue
			}
			if otherTank.ChemicalType == counterpart {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "chemical_interlock",
					Reason:   domain.ReasonIncompatibleChemicals,
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("well %s already injects %s, cannot activate %s alongside it", activated.WellID, otherTank.ChemicalType, tank.ChemicalType),
					Entity:   domain.EntityAssociation,
					EntityID: activated.ID,
				})
				break
			}
		}
	}
	return res, nil
}

func interlockCounterpart(chemical string) (string, bool) {
	switch chemical {
	case interlockChemicalA:
		return interlockChemicalC, true
	case interlockChemicalC:
		return interlockChemicalA, true
	default:
		return "", false
	}
}
