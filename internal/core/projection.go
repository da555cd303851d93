package core

import (
	"context"
)

// LowVolumeRatio is the fill ratio below which a tank is flagged low.
// The comparison is strict: a tank at exactly 20% is not low.
const LowVolumeRatio = 0.2

// ppmDivisor converts a production rate scaled by a ppm sum into litres per
// day. The consumption model sums target ppm across active associations and
// applies the production rate once.
const ppmDivisor = 10000.0

// unknownLabel stands in for entities that no longer resolve.
const unknownLabel = "Unknown"

// Projections derives read-only operational views from committed state. Each
// call reads a fresh snapshot; nothing is cached.
type Projections struct {
	store PersistentStore
}

// NewProjections constructs projections over the given store.
func NewProjections(store PersistentStore) *Projections {
	return &Projections{store: store}
}

// TankFill reports a tank's fill ratio and low-volume flag.
type TankFill struct {
	TankID        string  `json:"tank_id"`
	Capacity      float64 `json:"capacity"`
	CurrentVolume float64 `json:"current_volume"`
	Ratio         float64 `json:"ratio"`
	Low           bool    `json:"low"`
}

// TankFillRatio computes the fill state for one tank.
func (p *Projections) TankFillRatio(ctx context.Context, tankID string) (TankFill, error) {
	var fill TankFill
	err := p.store.View(ctx, func(view TransactionView) error {
		tank, ok := view.FindTank(tankID)
		if !ok {
			return ErrNotFound{Entity: EntityTank, ID: tankID}
		}
		fill = TankFill{TankID: tank.ID, Capacity: tank.Capacity, CurrentVolume: tank.CurrentVolume}
		if tank.Capacity > 0 {
			fill.Ratio = tank.CurrentVolume / tank.Capacity
		}
		fill.Low = fill.Ratio < LowVolumeRatio
		return nil
	})
	return fill, err
}

// WellConsumption reports a well's estimated daily chemical draw.
type WellConsumption struct {
	WellID             string  `json:"well_id"`
	ProductionRate     float64 `json:"production_rate"`
	ActiveAssociations int     `json:"active_associations"`
	LitresPerDay       float64 `json:"litres_per_day"`
}

// WellConsumptionRate estimates daily consumption for one well as
// production rate times the sum of target ppm over its active associations,
// divided by 10000. Inactive associations contribute nothing.
func (p *Projections) WellConsumptionRate(ctx context.Context, wellID string) (WellConsumption, error) {
	var consumption WellConsumption
	err := p.store.View(ctx, func(view TransactionView) error {
		well, ok := view.FindWell(wellID)
		if !ok {
			return ErrNotFound{Entity: EntityWell, ID: wellID}
		}
		consumption = WellConsumption{WellID: well.ID, ProductionRate: well.ProductionRate}
		var ppmSum float64
		for _, assoc := range view.ListAssociations() {
			if assoc.WellID != well.ID || !assoc.Active() {
				continue
			}
			consumption.ActiveAssociations++
			ppmSum += assoc.TargetPPM
		}
		consumption.LitresPerDay = well.ProductionRate * ppmSum / ppmDivisor
		return nil
	})
	return consumption, err
}

// TankPumps lists the pumps drawing from one tank.
func (p *Projections) TankPumps(ctx context.Context, tankID string) ([]Pump, error) {
	if _, ok := p.store.GetTank(tankID); !ok {
		return nil, ErrNotFound{Entity: EntityTank, ID: tankID}
	}
	var out []Pump
	for _, pump := range p.store.ListPumps() {
		if pump.TankID == tankID {
			out = append(out, pump)
		}
	}
	return out, nil
}

// TankPumpCount counts the pumps drawing from one tank.
func (p *Projections) TankPumpCount(ctx context.Context, tankID string) (int, error) {
	pumps, err := p.TankPumps(ctx, tankID)
	if err != nil {
		return 0, err
	}
	return len(pumps), nil
}

// AssociationDetail is one association row in the field snapshot, with
// references resolved to display names. Dangling references resolve to
// "Unknown" rather than failing the snapshot.
type AssociationDetail struct {
	AssociationID      string            `json:"association_id"`
	WellName           string            `json:"well_name"`
	TankName           string            `json:"tank_name"`
	Status             AssociationStatus `json:"status"`
	Chemical           string            `json:"chemical"`
	TargetPPM          float64           `json:"target_ppm"`
	VolumeRemaining    float64           `json:"volume_remaining"`
	WellProductionRate float64           `json:"well_production_rate"`
}

// FieldSnapshot summarises the whole network for the advisory boundary.
type FieldSnapshot struct {
	TotalWells         int                 `json:"total_wells"`
	TotalTanks         int                 `json:"total_tanks"`
	ActiveAssociations int                 `json:"active_associations"`
	Details            []AssociationDetail `json:"details"`
}

// Snapshot assembles the advisory field snapshot from committed state.
func (p *Projections) Snapshot(ctx context.Context) (FieldSnapshot, error) {
	var snapshot FieldSnapshot
	err := p.store.View(ctx, func(view TransactionView) error {
		snapshot.TotalWells = len(view.ListWells())
		snapshot.TotalTanks = len(view.ListTanks())
		for _, assoc := range view.ListAssociations() {
			if assoc.Active() {
				snapshot.ActiveAssociations++
			}
			detail := AssociationDetail{
				AssociationID: assoc.ID,
				WellName:      unknownLabel,
				TankName:      unknownLabel,
				Status:        assoc.Status,
				Chemical:      unknownLabel,
				TargetPPM:     assoc.TargetPPM,
			}
			if well, ok := view.FindWell(assoc.WellID); ok {
				detail.WellName = well.Name
				detail.WellProductionRate = well.ProductionRate
			}
			if tank, ok := view.FindTank(assoc.TankID); ok {
				detail.TankName = tank.Name
				detail.Chemical = tank.ChemicalType
				detail.VolumeRemaining = tank.CurrentVolume
			}
			snapshot.Details = append(snapshot.Details, detail)
		}
		return nil
	})
	return snapshot, err
}
