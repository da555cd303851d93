package core

import (
	"context"
	"fmt"
)

// SeedSampleData loads the fixed demo field into an empty store: one site,
// three tanks with distinct chemicals, a pump per tank, two wells, and a pair
// of inactive associations. A store that already holds sites is left alone so
// restarts against a durable driver do not duplicate the fixture.
//
// Note: "Product A" and "Product C" are the catalog names the activation
// interlock matches on.
func SeedSampleData(ctx context.Context, svc *Service) error {
	if len(svc.ListSites()) > 0 {
		return nil
	}

	for _, name := range []string{"Product A", "Product B", "Product C"} {
		if _, _, err := svc.CreateProduct(ctx, Product{Name: name}); err != nil {
			return fmt.Errorf("seed product %s: %w", name, err)
		}
	}

	site, _, err := svc.CreateSite(ctx, Site{Name: "North Field", Location: "Sector 7"})
	if err != nil {
		return fmt.Errorf("seed site: %w", err)
	}

	tanks := []Tank{
		{Name: "Tank Alpha", SiteID: site.ID, Capacity: 5000, Material: "steel", CurrentVolume: 4200, ChemicalType: "Product A"},
		{Name: "Tank Bravo", SiteID: site.ID, Capacity: 3000, Material: "fiberglass", CurrentVolume: 450, ChemicalType: "Product B"},
		{Name: "Tank Charlie", SiteID: site.ID, Capacity: 4000, Material: "steel", CurrentVolume: 3600, ChemicalType: "Product C"},
	}
	var tankIDs []string
	for _, tank := range tanks {
		created, _, err := svc.CreateTank(ctx, tank)
		if err != nil {
			return fmt.Errorf("seed tank %s: %w", tank.Name, err)
		}
		tankIDs = append(tankIDs, created.ID)
	}

	var pumpIDs []string
	for i, tankID := range tankIDs {
		pump, _, err := svc.CreatePump(ctx, Pump{Name: fmt.Sprintf("Pump %d", i+1), TankID: tankID, MaxRate: 12.5})
		if err != nil {
			return fmt.Errorf("seed pump: %w", err)
		}
		pumpIDs = append(pumpIDs, pump.ID)
	}

	wells := []Well{
		{Name: "Well W-101", SiteID: site.ID, ProductionRate: 500},
		{Name: "Well W-102", SiteID: site.ID, ProductionRate: 750},
	}
	var wellIDs []string
	for _, well := range wells {
		created, _, err := svc.CreateWell(ctx, well)
		if err != nil {
			return fmt.Errorf("seed well %s: %w", well.Name, err)
		}
		wellIDs = append(wellIDs, created.ID)
	}

	seedAssociations := []AssociationInput{
		{WellID: wellIDs[0], TankID: tankIDs[0], PumpID: pumpIDs[0], TargetPPM: 200},
		{WellID: wellIDs[1], TankID: tankIDs[1], PumpID: pumpIDs[1], TargetPPM: 150},
	}
	for _, input := range seedAssociations {
		if _, _, err := svc.CreateAssociation(ctx, input); err != nil {
			return fmt.Errorf("seed association: %w", err)
		}
	}
	return nil
}
