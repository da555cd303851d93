// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by injectcore.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityProduct identifies a chemical product catalog record.
	EntityProduct EntityType = "product"
	// EntitySite identifies a field site record.
	EntitySite EntityType = "site"
	// EntityTank identifies a storage tank record.
	EntityTank EntityType = "tank"
	// EntityPump identifies an injection pump record.
	EntityPump EntityType = "pump"
	// EntityWell identifies a production well record.
	EntityWell EntityType = "well"
	// EntityAssociation identifies a tank-pump-well association record.
	EntityAssociation EntityType = "association"
)

// AssociationStatus represents the operational state of an association.
type AssociationStatus string

// Canonical association statuses. New associations always start inactive.
const (
	StatusActive   AssociationStatus = "active"
	StatusInactive AssociationStatus = "inactive"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// RejectReason is the machine-readable cause attached to a blocking violation.
type RejectReason string

// Rejection reasons surfaced to callers when an association operation is refused.
const (
	// ReasonInvalidSelection indicates a create referencing an unresolvable
	// well or tank, or a blank pump id.
	ReasonInvalidSelection RejectReason = "invalid_selection"
	// ReasonTooManyChemicals indicates the well would exceed the distinct
	// chemical type cap.
	ReasonTooManyChemicals RejectReason = "too_many_chemicals"
	// ReasonTankNotFound indicates an activation whose tank no longer resolves.
	ReasonTankNotFound RejectReason = "tank_not_found"
	// ReasonIncompatibleChemicals indicates the activation would co-activate
	// mutually exclusive chemicals on one well.
	ReasonIncompatibleChemicals RejectReason = "incompatible_chemicals"
)

// Base contains common fields for all domain records. Seq is a store-assigned
// monotonic insertion counter; lists are ordered by it.
type Base struct {
	ID        string    `json:"id"`
	Seq       uint64    `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is a chemical product in the catalog.
type Product struct {
	Base
	Name string `json:"name"`
}

// Site groups tanks and wells at one physical location.
type Site struct {
	Base
	Name     string `json:"name"`
	Location string `json:"location"`
}

// Tank is a chemical storage vessel feeding zero or more pumps.
type Tank struct {
	Base
	Name          string    `json:"name"`
	SiteID        string    `json:"site_id"`
	Capacity      float64   `json:"capacity"`
	Material      string    `json:"material"`
	CurrentVolume float64   `json:"current_volume"`
	LastUpdated   time.Time `json:"last_updated"`
	ChemicalType  string    `json:"chemical_type"`
}

// Pump is an injection pump drawing from a tank.
type Pump struct {
	Base
	Name    string  `json:"name"`
	TankID  string  `json:"tank_id"`
	MaxRate float64 `json:"max_rate"`
}

// Well is a production well receiving chemical injection.
type Well struct {
	Base
	Name           string  `json:"name"`
	SiteID         string  `json:"site_id"`
	ProductionRate float64 `json:"production_rate"`
}

// Association routes chemical from a tank through a pump into a well at a
// target concentration.
type Association struct {
	Base
	WellID    string            `json:"well_id"`
	TankID    string            `json:"tank_id"`
	PumpID    string            `json:"pump_id"`
	TargetPPM float64           `json:"target_ppm"`
	Status    AssociationStatus `json:"status"`
}

// Active reports whether the association is currently injecting.
func (a Association) Active() bool {
	return a.Status == StatusActive
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured for rule evaluation.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Reason   RejectReason
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// FirstBlocking returns the first blocking violation, if any.
func (r Result) FirstBlocking() (Violation, bool) {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return v, true
		}
	}
	return Violation{}, false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	if v, ok := e.Result.FirstBlocking(); ok && v.Message != "" {
		return "transaction blocked by rules: " + v.Message
	}
	return "transaction blocked by rules"
}
