package finance

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"leilaoai/pkg/domain"
)

// Default assumptions for auctions of Brazilian real estate.
const (
	DefaultCommissionPercent = "5"
	DefaultITBIPercent       = "3"
	DefaultBrokeragePercent  = "6"
	DefaultIncomeTaxPercent  = "15"
	DefaultHoldingMonths     = 12
)

// Result is the computed simulation; all amounts are formatted BRL strings.
type Result struct {
	Inputs           domain.FinancialInputs `json:"inputs"`
	BidPrice         string                 `json:"bidPrice"`
	Commission       string                 `json:"commission"`
	ITBI             string                 `json:"itbi"`
	RegistryCosts    string                 `json:"registryCosts"`
	RenovationCosts  string                 `json:"renovationCosts"`
	HoldingCosts     string                 `json:"holdingCosts"`
	OutstandingDebts string                 `json:"outstandingDebts"`
	TotalInvestment  string                 `json:"totalInvestment"`
	SalePrice        string                 `json:"salePrice"`
	Brokerage        string                 `json:"brokerage"`
	GrossProfit      string                 `json:"grossProfit"`
	IncomeTax        string                 `json:"incomeTax"`
	NetProfit        string                 `json:"netProfit"`
	ROI              string                 `json:"roi"`
	MonthlyROI       string                 `json:"monthlyRoi"`
	Profitable       bool                   `json:"profitable"`
}

// DefaultInputs seeds a simulation from the lot's minimum bid and appraisal.
func DefaultInputs(lot domain.Lot) domain.FinancialInputs {
	return WithDefaults(domain.FinancialInputs{
		BidPrice:  lot.Price,
		SalePrice: lot.EstimatedPrice,
	})
}

// WithDefaults fills blank rates and the holding period.
func WithDefaults(in domain.FinancialInputs) domain.FinancialInputs {
	if strings.TrimSpace(in.CommissionPercent) == "" {
		in.CommissionPercent = DefaultCommissionPercent
	}
	if strings.TrimSpace(in.ITBIPercent) == "" {
		in.ITBIPercent = DefaultITBIPercent
	}
	if strings.TrimSpace(in.BrokeragePercent) == "" {
		in.BrokeragePercent = DefaultBrokeragePercent
	}
	if strings.TrimSpace(in.IncomeTaxPercent) == "" {
		in.IncomeTaxPercent = DefaultIncomeTaxPercent
	}
	if in.HoldingMonths <= 0 {
		in.HoldingMonths = DefaultHoldingMonths
	}
	return in
}

// Simulate computes acquisition costs, profit and ROI for the inputs.
func Simulate(in domain.FinancialInputs) (Result, error) {
	in = WithDefaults(in)
	var (
		bid, sale, registry, renovation, monthly, debts decimal.Decimal
		commissionPct, itbiPct, brokeragePct, taxPct    decimal.Decimal
	)
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"bidPrice", in.BidPrice, &bid},
		{"salePrice", in.SalePrice, &sale},
		{"registryCosts", in.RegistryCosts, &registry},
		{"renovationCosts", in.RenovationCosts, &renovation},
		{"monthlyCosts", in.MonthlyCosts, &monthly},
		{"outstandingDebts", in.OutstandingDebts, &debts},
		{"commissionPercent", in.CommissionPercent, &commissionPct},
		{"itbiPercent", in.ITBIPercent, &itbiPct},
		{"brokeragePercent", in.BrokeragePercent, &brokeragePct},
		{"incomeTaxPercent", in.IncomeTaxPercent, &taxPct},
	}
	for _, f := range fields {
		v, err := ParseBRL(f.raw)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", f.name, err)
		}
		if v.IsNegative() {
			return Result{}, fmt.Errorf("%s: %w: negative value", f.name, ErrInvalidAmount)
		}
		*f.dst = v
	}
	if bid.IsZero() {
		return Result{}, fmt.Errorf("bidPrice: %w: required", ErrInvalidAmount)
	}

	commission := percentOf(bid, commissionPct)
	itbi := percentOf(bid, itbiPct)
	holding := monthly.Mul(decimal.NewFromInt(int64(in.HoldingMonths)))
	total := bid.Add(commission).Add(itbi).Add(registry).Add(renovation).Add(holding).Add(debts)

	brokerage := percentOf(sale, brokeragePct)
	gross := sale.Sub(brokerage).Sub(total)
	tax := decimal.Zero
	if gross.IsPositive() {
		tax = percentOf(gross, taxPct)
	}
	net := gross.Sub(tax)
	roi := net.Div(total).Mul(hundred)
	monthlyROI := roi.Div(decimal.NewFromInt(int64(in.HoldingMonths)))

	return Result{
		Inputs:           in,
		BidPrice:         FormatBRL(bid),
		Commission:       FormatBRL(commission),
		ITBI:             FormatBRL(itbi),
		RegistryCosts:    FormatBRL(registry),
		RenovationCosts:  FormatBRL(renovation),
		HoldingCosts:     FormatBRL(holding),
		OutstandingDebts: FormatBRL(debts),
		TotalInvestment:  FormatBRL(total),
		SalePrice:        FormatBRL(sale),
		Brokerage:        FormatBRL(brokerage),
		GrossProfit:      FormatBRL(gross),
		IncomeTax:        FormatBRL(tax),
		NetProfit:        FormatBRL(net),
		ROI:              FormatPercent(roi),
		MonthlyROI:       FormatPercent(monthlyROI),
		Profitable:       net.IsPositive(),
	}, nil
}

func percentOf(v, pct decimal.Decimal) decimal.Decimal {
	return v.Mul(pct).Div(hundred).Round(2)
}
