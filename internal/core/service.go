package core

import (
	"context"
	"fmt"
	"time"

	"injectcore/internal/infra/persistence/memory"
)

// Service exposes the transactional lifecycle operations for the injection
// network: entity CRUD plus the guarded association workflow. Every mutation
// runs through the store's rules engine; a blocking violation leaves the
// committed state untouched.
type Service struct {
	store   PersistentStore
	options serviceOptions
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	svc := &Service{store: store}
	for _, opt := range opts {
		opt(&svc.options)
	}
	return svc
}

// NewInMemoryService creates a service over a fresh in-memory store guarded by
// the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// ErrNotFound is returned when reference validation fails within transactional helpers.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// transact wraps a store transaction with tracing, metrics and audit hooks.
// entityID is read after fn runs so create operations can report assigned ids.
func (s *Service) transact(ctx context.Context, operation string, entity EntityType, entityID *string, fn func(tx Transaction) error) (Result, error) {
	var span TraceSpan
	if s.options.tracer != nil {
		ctx, span = s.options.tracer.Start(ctx, operation)
	}
	started := time.Now()
	res, err := s.store.RunInTransaction(ctx, fn)
	duration := time.Since(started)
	if span != nil {
		span.End(err)
	}
	if s.options.metrics != nil {
		s.options.metrics.Observe(ctx, operation, err == nil, duration)
	}
	if s.options.audit != nil {
		entry := AuditEntry{
			Operation:  operation,
			Entity:     entity,
			Status:     AuditStatusSuccess,
			OccurredAt: time.Now().UTC(),
		}
		if entityID != nil {
			entry.EntityID = *entityID
		}
		if err != nil {
			entry.Status = AuditStatusError
			entry.Error = err.Error()
		}
		s.options.audit.Record(ctx, entry)
	}
	return res, err
}

// CreateProduct persists a catalog product.
func (s *Service) CreateProduct(ctx context.Context, product Product) (Product, Result, error) {
	var created Product
	res, err := s.transact(ctx, "create_product", EntityProduct, &created.ID, func(tx Transaction) error {
		var err error
		created, err = tx.CreateProduct(product)
		return err
	})
	return created, res, err
}

// UpdateProduct mutates a product using the provided mutator.
func (s *Service) UpdateProduct(ctx context.Context, id string, mutator func(*Product) error) (Product, Result, error) {
	var updated Product
	res, err := s.transact(ctx, "update_product", EntityProduct, &id, func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateProduct(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteProduct removes a product record.
func (s *Service) DeleteProduct(ctx context.Context, id string) (Result, error) {
	return s.transact(ctx, "delete_product", EntityProduct, &id, func(tx Transaction) error {
		return tx.DeleteProduct(id)
	})
}

// CreateSite persists a site.
func (s *Service) CreateSite(ctx context.Context, site Site) (Site, Result, error) {
	var created Site
	res, err := s.transact(ctx, "create_site", EntitySite, &created.ID, func(tx Transaction) error {
		var err error
		created, err = tx.CreateSite(site)
		return err
	})
	return created, res, err
}

// UpdateSite mutates a site.
func (s *Service) UpdateSite(ctx context.Context, id string, mutator func(*Site) error) (Site, Result, error) {
	var updated Site
	res, err := s.transact(ctx, "update_site", EntitySite, &id, func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateSite(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteSite removes a site record. Tanks and wells referencing it are left in
// place and resolve as dangling downstream.
func (s *Service) DeleteSite(ctx context.Context, id string) (Result, error) {
	return s.transact(ctx, "delete_site", EntitySite, &id, func(tx Transaction) error {
		return tx.DeleteSite(id)
	})
}

// CreateTank persists a storage tank.
func (s *Service) CreateTank(ctx context.Context, tank Tank) (Tank, Result, error) {
	var created Tank
	res, err := s.transact(ctx, "create_tank", EntityTank, &created.ID, func(tx Transaction) error {
		var err error
		created, err = tx.CreateTank(tank)
		return err
	})
	return created, res, err
}

// UpdateTank mutates a tank.
func (s *Service) UpdateTank(ctx context.Context, id string, mutator func(*Tank) error) (Tank, Result, error) {
	var updated Tank
	res, err := s.transact(ctx, "update_tank", EntityTank, &id, func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateTank(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteTank removes a tank record without cascading to pumps or associations.
func (s *Service) DeleteTank(ctx context.Context, id string) (Result, error) {
	return s.transact(ctx, "delete_tank", EntityTank, &id, func(tx Transaction) error {
		return tx.DeleteTank(id)
	})
}

// RecordTankLevel updates a tank's measured volume.
func (s *Service) RecordTankLevel(ctx context.Context, id string, volume float64) (Tank, Result, error) {
	return s.UpdateTank(ctx, id, func(t *Tank) error {
		t.CurrentVolume = volume
		return nil
	})
}

// CreatePump persists a pump.
func (s *Service) CreatePump(ctx context.Context, pump Pump) (Pump, Result, error) {
	var created Pump
	res, err := s.transact(ctx, "create_pump", EntityPump, &created.ID, func(tx Transaction) error {
		var err error
		created, err = tx.CreatePump(pump)
		return err
	})
	return created, res, err
}

// UpdatePump mutates a pump.
func (s *Service) UpdatePump(ctx context.Context, id string, mutator func(*Pump) error) (Pump, Result, error) {
	var updated Pump
	res, err := s.transact(ctx, "update_pump", EntityPump, &id, func(tx Transaction) error {
		var err error
		updated, err = tx.UpdatePump(id, mutator)
		return err
	})
	return updated, res, err
}

// DeletePump removes a pump record.
func (s *Service) DeletePump(ctx context.Context, id string) (Result, error) {
	return s.transact(ctx, "delete_pump", EntityPump, &id, func(tx Transaction) error {
		return tx.DeletePump(id)
	})
}

// CreateWell persists a well.
func (s *Service) CreateWell(ctx context.Context, well Well) (Well, Result, error) {
	var created Well
	res, err := s.transact(ctx, "create_well", EntityWell, &created.ID, func(tx Transaction) error {
		var err error
		created, err = tx.CreateWell(well)
		return err
	})
	return created, res, err
}

// UpdateWell mutates a well.
func (s *Service) UpdateWell(ctx context.Context, id string, mutator func(*Well) error) (Well, Result, error) {
	var updated Well
	res, err := s.transact(ctx, "update_well", EntityWell, &id, func(tx Transaction) error {
		var err error
		updated, err = tx.UpdateWell(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteWell removes a well record.
func (s *Service) DeleteWell(ctx context.Context, id string) (Result, error) {
	return s.transact(ctx, "delete_well", EntityWell, &id, func(tx Transaction) error {
		return tx.DeleteWell(id)
	})
}

// AssociationInput carries the caller-selected routing for a new association.
// Status is not part of the input: new associations always start inactive.
type AssociationInput struct {
	WellID    string  `json:"well_id"`
	TankID    string  `json:"tank_id"`
	PumpID    string  `json:"pump_id"`
	TargetPPM float64 `json:"target_ppm"`
}

// CreateAssociation validates and persists a new inactive association. The
// rules engine rejects unresolvable selections and diversity cap breaches.
func (s *Service) CreateAssociation(ctx context.Context, input AssociationInput) (Association, Result, error) {
	var created Association
	res, err := s.transact(ctx, "create_association", EntityAssociation, &created.ID, func(tx Transaction) error {
		var err error
		created, err = tx.CreateAssociation(Association{
			WellID:    input.WellID,
			TankID:    input.TankID,
			PumpID:    input.PumpID,
			TargetPPM: input.TargetPPM,
			Status:    StatusInactive,
		})
		return err
	})
	if err != nil {
		return Association{}, res, err
	}
	return created, res, err
}

// ToggleAssociation flips an association's status. Deactivation is
// unconditional; activation is subject to the interlock rule.
func (s *Service) ToggleAssociation(ctx context.Context, id string) (Association, Result, error) {
	var toggled Association
	res, err := s.transact(ctx, "toggle_association", EntityAssociation, &id, func(tx Transaction) error {
		if _, ok := tx.FindAssociation(id); !ok {
			return ErrNotFound{Entity: EntityAssociation, ID: id}
		}
		var err error
		toggled, err = tx.UpdateAssociation(id, func(a *Association) error {
			if a.Active() {
				a.Status = StatusInactive
			} else {
				a.Status = StatusActive
			}
			return nil
		})
		return err
	})
	if err != nil {
		return Association{}, res, err
	}
	return toggled, res, err
}

// RemoveAssociation deletes an association unconditionally.
func (s *Service) RemoveAssociation(ctx context.Context, id string) (Result, error) {
	return s.transact(ctx, "remove_association", EntityAssociation, &id, func(tx Transaction) error {
		return tx.DeleteAssociation(id)
	})
}

// GetProduct returns a product by id.
func (s *Service) GetProduct(id string) (Product, bool) { return s.store.GetProduct(id) }

// ListProducts returns products in insertion order.
func (s *Service) ListProducts() []Product { return s.store.ListProducts() }

// GetSite returns a site by id.
func (s *Service) GetSite(id string) (Site, bool) { return s.store.GetSite(id) }

// ListSites returns sites in insertion order.
func (s *Service) ListSites() []Site { return s.store.ListSites() }

// GetTank returns a tank by id.
func (s *Service) GetTank(id string) (Tank, bool) { return s.store.GetTank(id) }

// ListTanks returns tanks in insertion order.
func (s *Service) ListTanks() []Tank { return s.store.ListTanks() }

// GetPump returns a pump by id.
func (s *Service) GetPump(id string) (Pump, bool) { return s.store.GetPump(id) }

// ListPumps returns pumps in insertion order.
func (s *Service) ListPumps() []Pump { return s.store.ListPumps() }

// GetWell returns a well by id.
func (s *Service) GetWell(id string) (Well, bool) { return s.store.GetWell(id) }

// ListWells returns wells in insertion order.
func (s *Service) ListWells() []Well { return s.store.ListWells() }

// GetAssociation returns an association by id.
func (s *Service) GetAssociation(id string) (Association, bool) { return s.store.GetAssociation(id) }

// ListAssociations returns associations in insertion order.
func (s *Service) ListAssociations() []Association { return s.store.ListAssociations() }
