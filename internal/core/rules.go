package core

import "injectcore/pkg/domain"

// NewRulesEngine constructs an empty engine instance.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set:
// reference validation and the chemical diversity cap on association creates,
// and the tank/interlock checks on activations.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewAssociationReferencesRule())
	engine.Register(NewChemicalDiversityRule())
	engine.Register(NewChemicalInterlockRule())
	return engine
}
