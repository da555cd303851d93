package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateProduct(Product) (Product, error)
	UpdateProduct(id string, mutator func(*Product) error) (Product, error)
	DeleteProduct(id string) error
	CreateSite(Site) (Site, error)
	UpdateSite(id string, mutator func(*Site) error) (Site, error)
	DeleteSite(id string) error
	CreateTank(Tank) (Tank, error)
	UpdateTank(id string, mutator func(*Tank) error) (Tank, error)
	DeleteTank(id string) error
	CreatePump(Pump) (Pump, error)
	UpdatePump(id string, mutator func(*Pump) error) (Pump, error)
	DeletePump(id string) error
	CreateWell(Well) (Well, error)
	UpdateWell(id string, mutator func(*Well) error) (Well, error)
	DeleteWell(id string) error
	CreateAssociation(Association) (Association, error)
	UpdateAssociation(id string, mutator func(*Association) error) (Association, error)
	DeleteAssociation(id string) error
	FindTank(id string) (Tank, bool)
	FindWell(id string) (Well, bool)
	FindAssociation(id string) (Association, bool)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView = RuleView

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetProduct(id string) (Product, bool)
	ListProducts() []Product
	GetSite(id string) (Site, bool)
	ListSites() []Site
	GetTank(id string) (Tank, bool)
	ListTanks() []Tank
	GetPump(id string) (Pump, bool)
	ListPumps() []Pump
	GetWell(id string) (Well, bool)
	ListWells() []Well
	GetAssociation(id string) (Association, bool)
	ListAssociations() []Association
}
