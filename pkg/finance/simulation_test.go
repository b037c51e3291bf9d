package finance

import (
	"errors"
	"testing"

	"leilaoai/pkg/domain"
)

func TestSimulate(t *testing.T) {
	res, err := Simulate(domain.FinancialInputs{
		BidPrice:          "R$ 100.000,00",
		SalePrice:         "R$ 200.000,00",
		CommissionPercent: "5",
		ITBIPercent:       "3",
		RegistryCosts:     "2.000",
		RenovationCosts:   "10.000",
		MonthlyCosts:      "500",
		HoldingMonths:     6,
		BrokeragePercent:  "6",
		IncomeTaxPercent:  "15",
	})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	// 100000 + 5000 + 3000 + 2000 + 10000 + 3000
	if res.TotalInvestment != "R$ 123.000,00" {
		t.Fatalf("total investment = %s", res.TotalInvestment)
	}
	// 200000 - 12000 - 123000
	if res.GrossProfit != "R$ 65.000,00" {
		t.Fatalf("gross profit = %s", res.GrossProfit)
	}
	if res.IncomeTax != "R$ 9.750,00" {
		t.Fatalf("income tax = %s", res.IncomeTax)
	}
	if res.NetProfit != "R$ 55.250,00" {
		t.Fatalf("net profit = %s", res.NetProfit)
	}
	if res.ROI != "44,92%" {
		t.Fatalf("roi = %s", res.ROI)
	}
	if res.MonthlyROI != "7,49%" {
		t.Fatalf("monthly roi = %s", res.MonthlyROI)
	}
	if !res.Profitable {
		t.Fatalf("expected profitable simulation")
	}
}

func TestSimulateLossHasNoTax(t *testing.T) {
	res, err := Simulate(domain.FinancialInputs{BidPrice: "100000", SalePrice: "90000"})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if res.IncomeTax != "R$ 0,00" || res.Profitable {
		t.Fatalf("tax = %s profitable = %v", res.IncomeTax, res.Profitable)
	}
	if res.Inputs.HoldingMonths != DefaultHoldingMonths || res.Inputs.CommissionPercent != DefaultCommissionPercent {
		t.Fatalf("defaults not applied: %+v", res.Inputs)
	}
}

func TestSimulateRequiresBid(t *testing.T) {
	if _, err := Simulate(domain.FinancialInputs{SalePrice: "1000"}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
	if _, err := Simulate(domain.FinancialInputs{BidPrice: "1000", RenovationCosts: "-5"}); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative costs accepted: %v", err)
	}
}

func TestDefaultInputsFromLot(t *testing.T) {
	in := DefaultInputs(domain.Lot{Price: "R$ 80.000,00", EstimatedPrice: "R$ 150.000,00"})
	if in.BidPrice != "R$ 80.000,00" || in.SalePrice != "R$ 150.000,00" {
		t.Fatalf("inputs = %+v", in)
	}
	if in.ITBIPercent != DefaultITBIPercent {
		t.Fatalf("itbi default = %q", in.ITBIPercent)
	}
}
