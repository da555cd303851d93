package core

import (
	"context"
	"math"
	"testing"
)

func TestTankFillRatioBoundary(t *testing.T) {
	f := newFieldFixture(t)
	ctx := context.Background()
	projections := NewProjections(f.svc.Store())

	// Exactly 20% is not low; the threshold is strict.
	if _, _, err := f.svc.RecordTankLevel(ctx, f.tankA.ID, 200); err != nil {
		t.Fatalf("record level: %v", err)
	}
	fill, err := projections.TankFillRatio(ctx, f.tankA.ID)
	if err != nil {
		t.Fatalf("fill ratio: %v", err)
	}
	if fill.Ratio != 0.2 || fill.Low {
		t.Fatalf("20%% must not flag low: %+v", fill)
	}

	if _, _, err := f.svc.RecordTankLevel(ctx, f.tankA.ID, 199); err != nil {
		t.Fatalf("record level: %v", err)
	}
	fill, err = projections.TankFillRatio(ctx, f.tankA.ID)
	if err != nil {
		t.Fatalf("fill ratio: %v", err)
	}
	if !fill.Low {
		t.Fatalf("19.9%% must flag low: %+v", fill)
	}

	if _, err := projections.TankFillRatio(ctx, "missing"); err == nil {
		t.Fatalf("expected not found error")
	}
}

func TestWellConsumptionRate(t *testing.T) {
	f := newFieldFixture(t)
	ctx := context.Background()
	projections := NewProjections(f.svc.Store())

	assocA := f.associate(t, f.well.ID, f.tankA.ID, f.pumpA.ID)
	assocB := f.associate(t, f.well.ID, f.tankB.ID, f.pumpB.ID)

	// Inactive associations contribute nothing.
	consumption, err := projections.WellConsumptionRate(ctx, f.well.ID)
	if err != nil {
		t.Fatalf("consumption: %v", err)
	}
	if consumption.LitresPerDay != 0 || consumption.ActiveAssociations != 0 {
		t.Fatalf("inactive associations must not consume: %+v", consumption)
	}

	f.activate(t, assocA.ID)
	f.activate(t, assocB.ID)

	// 500 production x (200 + 200) ppm / 10000 = 20 L/day.
	consumption, err = projections.WellConsumptionRate(ctx, f.well.ID)
	if err != nil {
		t.Fatalf("consumption: %v", err)
	}
	if consumption.ActiveAssociations != 2 {
		t.Fatalf("expected 2 active associations, got %d", consumption.ActiveAssociations)
	}
	if math.Abs(consumption.LitresPerDay-20.0) > 1e-9 {
		t.Fatalf("expected 20 L/day, got %v", consumption.LitresPerDay)
	}
}

func TestTankPumpCount(t *testing.T) {
	f := newFieldFixture(t)
	ctx := context.Background()
	projections := NewProjections(f.svc.Store())

	count, err := projections.TankPumpCount(ctx, f.tankA.ID)
	if err != nil {
		t.Fatalf("pump count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 pump, got %d", count)
	}

	if _, _, err := f.svc.CreatePump(ctx, Pump{Name: "Pump 4", TankID: f.tankA.ID, MaxRate: 5}); err != nil {
		t.Fatalf("create pump: %v", err)
	}
	count, err = projections.TankPumpCount(ctx, f.tankA.ID)
	if err != nil {
		t.Fatalf("pump count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 pumps, got %d", count)
	}

	if _, err := projections.TankPumpCount(ctx, "missing"); err == nil {
		t.Fatalf("expected not found error")
	}
}

func TestFieldSnapshotResolvesDanglingReferences(t *testing.T) {
	f := newFieldFixture(t)
	ctx := context.Background()
	projections := NewProjections(f.svc.Store())

	assoc := f.associate(t, f.well.ID, f.tankA.ID, f.pumpA.ID)
	f.activate(t, assoc.ID)
	if _, err := f.svc.DeleteTank(ctx, f.tankA.ID); err != nil {
		t.Fatalf("delete tank: %v", err)
	}

	snapshot, err := projections.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snapshot.TotalWells != 2 || snapshot.TotalTanks != 2 {
		t.Fatalf("unexpected totals: %+v", snapshot)
	}
	if snapshot.ActiveAssociations != 1 {
		t.Fatalf("expected 1 active association, got %d", snapshot.ActiveAssociations)
	}
	if len(snapshot.Details) != 1 {
		t.Fatalf("expected 1 detail row, got %d", len(snapshot.Details))
	}
	detail := snapshot.Details[0]
	if detail.WellName != f.well.Name {
		t.Fatalf("expected resolved well name, got %q", detail.WellName)
	}
	if detail.TankName != "Unknown" || detail.Chemical != "Unknown" {
		t.Fatalf("dangling tank must resolve to Unknown: %+v", detail)
	}
}
