package app

import (
	"context"
	"fmt"

	"leilaoai/pkg/domain"
	"leilaoai/pkg/events"
	"leilaoai/pkg/finance"
)

// Simulation computes the lot's financial simulation from its saved inputs,
// or from defaults seeded with the lot prices when none were saved.
func (a *App) Simulation(lotID string) (finance.Result, error) {
	lot, err := a.getLot(lotID)
	if err != nil {
		return finance.Result{}, err
	}
	inputs := finance.DefaultInputs(lot)
	if lot.Details.Financial != nil {
		inputs = *lot.Details.Financial
	}
	return finance.Simulate(inputs)
}

// SaveSimulation validates and stores simulation inputs, returning the
// computed result. Invalid inputs are not saved.
func (a *App) SaveSimulation(ctx context.Context, lotID string, in domain.FinancialInputs) (finance.Result, error) {
	lot, err := a.getLot(lotID)
	if err != nil {
		return finance.Result{}, err
	}
	result, err := finance.Simulate(in)
	if err != nil {
		return finance.Result{}, err
	}
	inputs := result.Inputs
	lot.Details.Financial = &inputs
	lot.UpdatedAt = a.now()
	if err := a.store.SaveLot(lot); err != nil {
		return finance.Result{}, fmt.Errorf("save lot: %w", err)
	}
	a.publish(ctx, events.LotUpdated, lot.ProjectID, lot.ID)
	return result, nil
}
