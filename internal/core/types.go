package core

import "injectcore/pkg/domain"

type (
	EntityType         = domain.EntityType
	AssociationStatus  = domain.AssociationStatus
	Severity           = domain.Severity
	RejectReason       = domain.RejectReason
	Base               = domain.Base
	Product            = domain.Product
	Site               = domain.Site
	Tank               = domain.Tank
	Pump               = domain.Pump
	Well               = domain.Well
	Association        = domain.Association
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
	Rule               = domain.Rule
	RulesEngine        = domain.RulesEngine
	TransactionView    = domain.TransactionView
	Transaction        = domain.Transaction
	PersistentStore    = domain.PersistentStore
)

const (
	EntityProduct     = domain.EntityProduct
	EntitySite        = domain.EntitySite
	EntityTank        = domain.EntityTank
	EntityPump        = domain.EntityPump
	EntityWell        = domain.EntityWell
	EntityAssociation = domain.EntityAssociation
)

const (
	StatusActive   = domain.StatusActive
	StatusInactive = domain.StatusInactive
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

const (
	ReasonInvalidSelection      = domain.ReasonInvalidSelection
	ReasonTooManyChemicals      = domain.ReasonTooManyChemicals
	ReasonTankNotFound          = domain.ReasonTankNotFound
	ReasonIncompatibleChemicals = domain.ReasonIncompatibleChemicals
)
