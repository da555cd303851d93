package core

import (
	"context"
	"fmt"

	"injectcore/pkg/domain"
)

// maxChemicalTypesPerWell caps how many distinct chemical types may be routed
// to a single well, counting associations of any status.
const maxChemicalTypesPerWell = 3

// NewChemicalDiversityRule returns the in-transaction rule enforcing the
// per-well chemical diversity cap on association creates.
func NewChemicalDiversityRule() domain.Rule {
	return chemicalDiversityRule{}
}

type chemicalDiversityRule struct{}

func (chemicalDiversityRule) Name() string { return "chemical_diversity" }

func (chemicalDiversityRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	creates := associationCreates(changes)
	if len(creates) == 0 {
		return domain.Result{}, nil
	}

	res := domain.Result{}
	for _, created := range creates {
		chemicals := make(map[string]struct{})
		for _, assoc := range view.ListAssociations() {
			if assoc.WellID != created.WellID {
				continue
			}
			// Associations whose tank no longer resolves contribute no
			// chemical type to the count.
			tank, ok := view.FindTank(assoc.TankID)
			if !ok {
				continue
			}
			chemicals[tank.ChemicalType] = struct{}{}
		}
		if len(chemicals) > maxChemicalTypesPerWell {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "chemical_diversity",
				Reason:   domain.ReasonTooManyChemicals,
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("well %s would carry %d distinct chemical types, limit is %d", created.WellID, len(chemicals), maxChemicalTypesPerWell),
				Entity:   domain.EntityAssociation,
				EntityID: created.ID,
			})
		}
	}
	return res, nil
}
