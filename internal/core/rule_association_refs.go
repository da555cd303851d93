package core

import (
	"context"
	"fmt"
	"strings"

	"injectcore/pkg/domain"
)

// NewAssociationReferencesRule returns the in-transaction rule validating
// entity references on newly created associations. The well and tank must
// resolve; the pump id only has to be present since pump metadata does not
// affect routing legality.
func NewAssociationReferencesRule() domain.Rule {
	return associationReferencesRule{}
}

type associationReferencesRule struct{}

func (associationReferencesRule) Name() string { return "association_references" }

func (associationReferencesRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, assoc := range associationCreates(changes) {
		if _, ok := view.FindWell(assoc.WellID); !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "association_references",
				Reason:   domain.ReasonInvalidSelection,
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("association %s references unknown well %q", assoc.ID, assoc.WellID),
				Entity:   domain.EntityAssociation,
				EntityID: assoc.ID,
			})
			continue
		}
		if _, ok := view.FindTank(assoc.TankID); !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "association_references",
				Reason:   domain.ReasonInvalidSelection,
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("association %s references unknown tank %q", assoc.ID, assoc.TankID),
				Entity:   domain.EntityAssociation,
				EntityID: assoc.ID,
			})
			continue
		}
		if strings.TrimSpace(assoc.PumpID) == "" {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "association_references",
				Reason:   domain.ReasonInvalidSelection,
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("association %s has no pump selected", assoc.ID),
				Entity:   domain.EntityAssociation,
				EntityID: assoc.ID,
			})
		}
	}
	return res, nil
}
