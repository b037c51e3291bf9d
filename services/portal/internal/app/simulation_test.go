package app

import (
	"context"
	"errors"
	"testing"

	"leilaoai/pkg/domain"
	"leilaoai/pkg/finance"
)

func TestSimulationDefaultsFromLotPrices(t *testing.T) {
	env := newTestApp(t, newFakeLLM())
	created := createTestProject(t, env)

	res, err := env.app.Simulation(created.Lots[0].ID)
	if err != nil {
		t.Fatalf("simulation: %v", err)
	}
	if res.BidPrice != "R$ 250.000,00" || res.SalePrice != "R$ 400.000,00" {
		t.Fatalf("result = %+v", res)
	}
	if res.Inputs.CommissionPercent != finance.DefaultCommissionPercent || res.Inputs.HoldingMonths != finance.DefaultHoldingMonths {
		t.Fatalf("inputs = %+v", res.Inputs)
	}
}

func TestSaveSimulation(t *testing.T) {
	env := newTestApp(t, newFakeLLM())
	created := createTestProject(t, env)
	ctx := context.Background()
	id := created.Lots[0].ID

	res, err := env.app.SaveSimulation(ctx, id, domain.FinancialInputs{
		BidPrice:        "100.000,00",
		SalePrice:       "200.000,00",
		RegistryCosts:   "2.000",
		RenovationCosts: "10.000",
		MonthlyCosts:    "500",
		HoldingMonths:   6,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if res.TotalInvestment != "R$ 123.000,00" || res.NetProfit != "R$ 55.250,00" || res.ROI != "44,92%" {
		t.Fatalf("result = %+v", res)
	}
	again, err := env.app.Simulation(id)
	if err != nil {
		t.Fatalf("simulation: %v", err)
	}
	if again.BidPrice != "R$ 100.000,00" || again.NetProfit != res.NetProfit {
		t.Fatalf("saved inputs not used: %+v", again)
	}

	if _, err := env.app.SaveSimulation(ctx, id, domain.FinancialInputs{BidPrice: "abc"}); !errors.Is(err, finance.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
	lot, _ := env.app.GetLot(id)
	if lot.Details.Financial.BidPrice != "100.000,00" {
		t.Fatalf("invalid inputs must not be saved: %+v", lot.Details.Financial)
	}
}
