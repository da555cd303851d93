// Package memory provides the canonical in-memory transactional store. The
// durable backends build on it by persisting its snapshot after each commit.
// It lives under infra to keep domain dependencies one-way (domain -> nothing).
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"injectcore/pkg/domain"
)

// Exported aliases to keep method signatures concise while still exposing
// domain types from this infra package.
type (
	// Product is an alias of domain.Product.
	Product = domain.Product
	// Site is an alias of domain.Site.
	Site = domain.Site
	// Tank is an alias of domain.Tank.
	Tank = domain.Tank
	// Pump is an alias of domain.Pump.
	Pump = domain.Pump
	// Well is an alias of domain.Well.
	Well = domain.Well
	// Association is an alias of domain.Association.
	Association = domain.Association
	// Change is an alias of domain.Change.
	Change = domain.Change
	// Result is an alias of domain.Result.
	Result = domain.Result
	// RulesEngine is an alias of domain.RulesEngine.
	RulesEngine = domain.RulesEngine
	// Transaction is an alias of domain.Transaction.
	Transaction = domain.Transaction
	// TransactionView is an alias of domain.TransactionView.
	TransactionView = domain.TransactionView
)

type state struct {
	products     map[string]Product
	sites        map[string]Site
	tanks        map[string]Tank
	pumps        map[string]Pump
	wells        map[string]Well
	associations map[string]Association
	nextSeq      uint64
}

// Snapshot is the serialisable representation of the in-memory state.
type Snapshot struct {
	Products     map[string]Product     `json:"products"`
	Sites        map[string]Site        `json:"sites"`
	Tanks        map[string]Tank        `json:"tanks"`
	Pumps        map[string]Pump        `json:"pumps"`
	Wells        map[string]Well        `json:"wells"`
	Associations map[string]Association `json:"associations"`
}

func newState() state {
	return state{
		products:     map[string]Product{},
		sites:        map[string]Site{},
		tanks:        map[string]Tank{},
		pumps:        map[string]Pump{},
		wells:        map[string]Well{},
		associations: map[string]Association{},
		nextSeq:      1,
	}
}

func snapshotFromState(st state) Snapshot {
	s := Snapshot{
		Products:     make(map[string]Product, len(st.products)),
		Sites:        make(map[string]Site, len(st.sites)),
		Tanks:        make(map[string]Tank, len(st.tanks)),
		Pumps:        make(map[string]Pump, len(st.pumps)),
		Wells:        make(map[string]Well, len(st.wells)),
		Associations: make(map[string]Association, len(st.associations)),
	}
	for k, v := range st.products {
		s.Products[k] = v
	}
	for k, v := range st.sites {
		s.Sites[k] = v
	}
	for k, v := range st.tanks {
		s.Tanks[k] = v
	}
	for k, v := range st.pumps {
		s.Pumps[k] = v
	}
	for k, v := range st.wells {
		s.Wells[k] = v
	}
	for k, v := range st.associations {
		s.Associations[k] = v
	}
	return s
}

func stateFromSnapshot(s Snapshot) state {
	st := newState()
	for k, v := range s.Products {
		st.products[k] = v
	}
	for k, v := range s.Sites {
		st.sites[k] = v
	}
	for k, v := range s.Tanks {
		st.tanks[k] = v
	}
	for k, v := range s.Pumps {
		st.pumps[k] = v
	}
	for k, v := range s.Wells {
		st.wells[k] = v
	}
	for k, v := range s.Associations {
		st.associations[k] = v
	}
	st.nextSeq = maxSeq(st) + 1
	return st
}

func maxSeq(st state) uint64 {
	var max uint64
	bump := func(seq uint64) {
		if seq > max {
			max = seq
		}
	}
	for _, v := range st.products {
		bump(v.Seq)
	}
	for _, v := range st.sites {
		bump(v.Seq)
	}
	for _, v := range st.tanks {
		bump(v.Seq)
	}
	for _, v := range st.pumps {
		bump(v.Seq)
	}
	for _, v := range st.wells {
		bump(v.Seq)
	}
	for _, v := range st.associations {
		bump(v.Seq)
	}
	return max
}

func (st state) clone() state {
	cp := stateFromSnapshot(snapshotFromState(st))
	cp.nextSeq = st.nextSeq
	return cp
}

// Store is the in-memory persistent store. It serializes whole
// validate-then-commit sequences under a single mutex.
type Store struct {
	mu     sync.RWMutex
	state  state
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an empty store guarded by the given rules engine. A nil
// engine means every transaction commits unchecked.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{state: newState(), engine: engine, nowFn: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState returns a deep copy of the current state for persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromState(s.state)
}

// ImportState replaces the current state with the given snapshot. The
// insertion counter resumes past the highest sequence number present.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = stateFromSnapshot(snapshot)
}

// RulesEngine exposes the engine guarding this store.
func (s *Store) RulesEngine() *RulesEngine { s.mu.RLock(); defer s.mu.RUnlock(); return s.engine }

// NowFunc exposes the store clock.
func (s *Store) NowFunc() func() time.Time { s.mu.RLock(); defer s.mu.RUnlock(); return s.nowFn }

// SetNowFunc overrides the store clock, for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

type transaction struct {
	store   *Store
	state   state
	changes []Change
	now     time.Time
}

type transactionView struct{ state *state }

func newTransactionView(st *state) TransactionView { return transactionView{state: st} }

func sortedTanks(m map[string]Tank) []Tank {
	out := make([]Tank, 0, len(m))
	for _, t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func sortedWells(m map[string]Well) []Well {
	out := make([]Well, 0, len(m))
	for _, w := range m {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func sortedAssociations(m map[string]Association) []Association {
	out := make([]Association, 0, len(m))
	for _, a := range m {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (v transactionView) ListTanks() []Tank { return sortedTanks(v.state.tanks) }
func (v transactionView) ListWells() []Well { return sortedWells(v.state.wells) }
func (v transactionView) ListAssociations() []Association {
	return sortedAssociations(v.state.associations)
}
func (v transactionView) FindProduct(id string) (Product, bool) {
	p, ok := v.state.products[id]
	return p, ok
}
func (v transactionView) FindTank(id string) (Tank, bool) {
	t, ok := v.state.tanks[id]
	return t, ok
}
func (v transactionView) FindPump(id string) (Pump, bool) {
	p, ok := v.state.pumps[id]
	return p, ok
}
func (v transactionView) FindWell(id string) (Well, bool) {
	w, ok := v.state.wells[id]
	return w, ok
}
func (v transactionView) FindAssociation(id string) (Association, bool) {
	a, ok := v.state.associations[id]
	return a, ok
}

// RunInTransaction clones the state, applies fn, evaluates the rules engine
// over the mutated clone, and commits only when no blocking violation exists.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &transaction{store: s, state: s.state.clone(), now: s.nowFn()}
	if err := fn(tx); err != nil {
		return Result{}, err
	}
	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}
	s.state = tx.state
	return result, nil
}

// View runs fn over a consistent read snapshot.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) { tx.changes = append(tx.changes, change) }
func (tx *transaction) Snapshot() TransactionView  { return newTransactionView(&tx.state) }

func (tx *transaction) nextSeq() uint64 {
	seq := tx.state.nextSeq
	tx.state.nextSeq++
	return seq
}

func (tx *transaction) FindTank(id string) (Tank, bool) {
	t, ok := tx.state.tanks[id]
	return t, ok
}
func (tx *transaction) FindWell(id string) (Well, bool) {
	w, ok := tx.state.wells[id]
	return w, ok
}
func (tx *transaction) FindAssociation(id string) (Association, bool) {
	a, ok := tx.state.associations[id]
	return a, ok
}

func (tx *transaction) CreateProduct(p Product) (Product, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.products[p.ID]; exists {
		return Product{}, fmt.Errorf("product %q already exists", p.ID)
	}
	if p.Name == "" {
		return Product{}, errors.New("product name must not be empty")
	}
	p.Seq = tx.nextSeq()
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.products[p.ID] = p
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionCreate, After: p})
	return p, nil
}

func (tx *transaction) UpdateProduct(id string, mutator func(*Product) error) (Product, error) {
	current, ok := tx.state.products[id]
	if !ok {
		return Product{}, fmt.Errorf("product %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Product{}, err
	}
	if current.Name == "" {
		return Product{}, errors.New("product name must not be empty")
	}
	current.ID = id
	current.Seq = before.Seq
	current.UpdatedAt = tx.now
	tx.state.products[id] = current
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

func (tx *transaction) DeleteProduct(id string) error {
	current, ok := tx.state.products[id]
	if !ok {
		return fmt.Errorf("product %q not found", id)
	}
	delete(tx.state.products, id)
	tx.recordChange(Change{Entity: domain.EntityProduct, Action: domain.ActionDelete, Before: current})
	return nil
}

func (tx *transaction) CreateSite(s Site) (Site, error) {
	if s.ID == "" {
		s.ID = tx.store.newID()
	}
	if _, exists := tx.state.sites[s.ID]; exists {
		return Site{}, fmt.Errorf("site %q already exists", s.ID)
	}
	s.Seq = tx.nextSeq()
	s.CreatedAt = tx.now
	s.UpdatedAt = tx.now
	tx.state.sites[s.ID] = s
	tx.recordChange(Change{Entity: domain.EntitySite, Action: domain.ActionCreate, After: s})
	return s, nil
}

func (tx *transaction) UpdateSite(id string, mutator func(*Site) error) (Site, error) {
	current, ok := tx.state.sites[id]
	if !ok {
		return Site{}, fmt.Errorf("site %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Site{}, err
	}
	current.ID = id
	current.Seq = before.Seq
	current.UpdatedAt = tx.now
	tx.state.sites[id] = current
	tx.recordChange(Change{Entity: domain.EntitySite, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

func (tx *transaction) DeleteSite(id string) error {
	current, ok := tx.state.sites[id]
	if !ok {
		return fmt.Errorf("site %q not found", id)
	}
	delete(tx.state.sites, id)
	tx.recordChange(Change{Entity: domain.EntitySite, Action: domain.ActionDelete, Before: current})
	return nil
}

func validateTank(t Tank) error {
	if t.Capacity <= 0 {
		return errors.New("tank capacity must be positive")
	}
	if t.CurrentVolume < 0 || t.CurrentVolume > t.Capacity {
		return errors.New("tank volume must be within [0, capacity]")
	}
	return nil
}

func (tx *transaction) CreateTank(t Tank) (Tank, error) {
	if t.ID == "" {
		t.ID = tx.store.newID()
	}
	if _, exists := tx.state.tanks[t.ID]; exists {
		return Tank{}, fmt.Errorf("tank %q already exists", t.ID)
	}
	if err := validateTank(t); err != nil {
		return Tank{}, err
	}
	t.Seq = tx.nextSeq()
	t.CreatedAt = tx.now
	t.UpdatedAt = tx.now
	if t.LastUpdated.IsZero() {
		t.LastUpdated = tx.now
	}
	tx.state.tanks[t.ID] = t
	tx.recordChange(Change{Entity: domain.EntityTank, Action: domain.ActionCreate, After: t})
	return t, nil
}

func (tx *transaction) UpdateTank(id string, mutator func(*Tank) error) (Tank, error) {
	current, ok := tx.state.tanks[id]
	if !ok {
		return Tank{}, fmt.Errorf("tank %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Tank{}, err
	}
	if err := validateTank(current); err != nil {
		return Tank{}, err
	}
	current.ID = id
	current.Seq = before.Seq
	current.UpdatedAt = tx.now
	if current.CurrentVolume != before.CurrentVolume {
		current.LastUpdated = tx.now
	}
	tx.state.tanks[id] = current
	tx.recordChange(Change{Entity: domain.EntityTank, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

func (tx *transaction) DeleteTank(id string) error {
	current, ok := tx.state.tanks[id]
	if !ok {
		return fmt.Errorf("tank %q not found", id)
	}
	delete(tx.state.tanks, id)
	tx.recordChange(Change{Entity: domain.EntityTank, Action: domain.ActionDelete, Before: current})
	return nil
}

func (tx *transaction) CreatePump(p Pump) (Pump, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.pumps[p.ID]; exists {
		return Pump{}, fmt.Errorf("pump %q already exists", p.ID)
	}
	if p.MaxRate <= 0 {
		return Pump{}, errors.New("pump max rate must be positive")
	}
	p.Seq = tx.nextSeq()
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.pumps[p.ID] = p
	tx.recordChange(Change{Entity: domain.EntityPump, Action: domain.ActionCreate, After: p})
	return p, nil
}

func (tx *transaction) UpdatePump(id string, mutator func(*Pump) error) (Pump, error) {
	current, ok := tx.state.pumps[id]
	if !ok {
		return Pump{}, fmt.Errorf("pump %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Pump{}, err
	}
	if current.MaxRate <= 0 {
		return Pump{}, errors.New("pump max rate must be positive")
	}
	current.ID = id
	current.Seq = before.Seq
	current.UpdatedAt = tx.now
	tx.state.pumps[id] = current
	tx.recordChange(Change{Entity: domain.EntityPump, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

func (tx *transaction) DeletePump(id string) error {
	current, ok := tx.state.pumps[id]
	if !ok {
		return fmt.Errorf("pump %q not found", id)
	}
	delete(tx.state.pumps, id)
	tx.recordChange(Change{Entity: domain.EntityPump, Action: domain.ActionDelete, Before: current})
	return nil
}

func (tx *transaction) CreateWell(w Well) (Well, error) {
	if w.ID == "" {
		w.ID = tx.store.newID()
	}
	if _, exists := tx.state.wells[w.ID]; exists {
		return Well{}, fmt.Errorf("well %q already exists", w.ID)
	}
	if w.ProductionRate <= 0 {
		return Well{}, errors.New("well production rate must be positive")
	}
	w.Seq = tx.nextSeq()
	w.CreatedAt = tx.now
	w.UpdatedAt = tx.now
	tx.state.wells[w.ID] = w
	tx.recordChange(Change{Entity: domain.EntityWell, Action: domain.ActionCreate, After: w})
	return w, nil
}

func (tx *transaction) UpdateWell(id string, mutator func(*Well) error) (Well, error) {
	current, ok := tx.state.wells[id]
	if !ok {
		return Well{}, fmt.Errorf("well %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Well{}, err
	}
	if current.ProductionRate <= 0 {
		return Well{}, errors.New("well production rate must be positive")
	}
	current.ID = id
	current.Seq = before.Seq
	current.UpdatedAt = tx.now
	tx.state.wells[id] = current
	tx.recordChange(Change{Entity: domain.EntityWell, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

func (tx *transaction) DeleteWell(id string) error {
	current, ok := tx.state.wells[id]
	if !ok {
		return fmt.Errorf("well %q not found", id)
	}
	delete(tx.state.wells, id)
	tx.recordChange(Change{Entity: domain.EntityWell, Action: domain.ActionDelete, Before: current})
	return nil
}

func (tx *transaction) CreateAssociation(a Association) (Association, error) {
	if a.ID == "" {
		a.ID = tx.store.newID()
	}
	if _, exists := tx.state.associations[a.ID]; exists {
		return Association{}, fmt.Errorf("association %q already exists", a.ID)
	}
	if a.TargetPPM <= 0 {
		return Association{}, errors.New("association target ppm must be positive")
	}
	if a.Status == "" {
		a.Status = domain.StatusInactive
	}
	a.Seq = tx.nextSeq()
	a.CreatedAt = tx.now
	a.UpdatedAt = tx.now
	tx.state.associations[a.ID] = a
	tx.recordChange(Change{Entity: domain.EntityAssociation, Action: domain.ActionCreate, After: a})
	return a, nil
}

func (tx *transaction) UpdateAssociation(id string, mutator func(*Association) error) (Association, error) {
	current, ok := tx.state.associations[id]
	if !ok {
		return Association{}, fmt.Errorf("association %q not found", id)
	}
	before := current
	if err := mutator(&current); err != nil {
		return Association{}, err
	}
	if current.TargetPPM <= 0 {
		return Association{}, errors.New("association target ppm must be positive")
	}
	current.ID = id
	current.Seq = before.Seq
	current.UpdatedAt = tx.now
	tx.state.associations[id] = current
	tx.recordChange(Change{Entity: domain.EntityAssociation, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

func (tx *transaction) DeleteAssociation(id string) error {
	current, ok := tx.state.associations[id]
	if !ok {
		return fmt.Errorf("association %q not found", id)
	}
	delete(tx.state.associations, id)
	tx.recordChange(Change{Entity: domain.EntityAssociation, Action: domain.ActionDelete, Before: current})
	return nil
}

func (s *Store) GetProduct(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.products[id]
	return p, ok
}

func (s *Store) ListProducts() []Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, 0, len(s.state.products))
	for _, p := range s.state.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (s *Store) GetSite(id string) (Site, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	site, ok := s.state.sites[id]
	return site, ok
}

func (s *Store) ListSites() []Site {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Site, 0, len(s.state.sites))
	for _, site := range s.state.sites {
		out = append(out, site)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (s *Store) GetTank(id string) (Tank, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state.tanks[id]
	return t, ok
}

func (s *Store) ListTanks() []Tank {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedTanks(s.state.tanks)
}

func (s *Store) GetPump(id string) (Pump, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.pumps[id]
	return p, ok
}

func (s *Store) ListPumps() []Pump {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Pump, 0, len(s.state.pumps))
	for _, p := range s.state.pumps {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func (s *Store) GetWell(id string) (Well, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.state.wells[id]
	return w, ok
}

func (s *Store) ListWells() []Well {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedWells(s.state.wells)
}

func (s *Store) GetAssociation(id string) (Association, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.state.associations[id]
	return a, ok
}

func (s *Store) ListAssociations() []Association {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedAssociations(s.state.associations)
}
