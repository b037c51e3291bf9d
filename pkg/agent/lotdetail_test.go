package agent

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"leilaoai/pkg/domain"
)

var titlePattern = regexp.MustCompile(`^Lote \S.* - \S+( \S+)*$`)

func TestLotTitle(t *testing.T) {
	tests := []struct {
		number, typ, city, state string
		want                     string
	}{
		{"01", "Casa", "Campinas", "SP", "Lote 01 - Casa Campinas SP"},
		{"", "Apartamento", "Recife", "PE", "Lote Único - Apartamento Recife PE"},
		{"7", "", "Belém", "PA", "Lote 7 - Imóvel Belém PA"},
		{"", "", "", "", "Lote Único - Imóvel"},
		{" 3 ", "Terreno", "", "MG", "Lote 3 - Terreno MG"},
	}
	for _, tt := range tests {
		got := LotTitle(tt.number, tt.typ, tt.city, tt.state)
		if got != tt.want {
			t.Fatalf("LotTitle(%q,%q,%q,%q) = %q, want %q", tt.number, tt.typ, tt.city, tt.state, got, tt.want)
		}
		if !titlePattern.MatchString(got) {
			t.Fatalf("title %q does not match pattern", got)
		}
	}
}

func TestExtractLotDetails(t *testing.T) {
	a := quietAgent(replyWith(`{
		"lotNumber": null,
		"type": "Casa",
		"city": "Campinas",
		"state": "sp",
		"street": "Rua das Flores", "number": 100, "neighborhood": "Centro",
		"privateArea": "120 m²",
		"price": 250000,
		"estimatedPrice": "R$ 400.000,00",
		"auctionPrices": [{"label": "1º Leilão", "value": "400000"}, {"label": "2º Leilão", "value": null}],
		"legalActions": "Ação de cobrança; Execução fiscal",
		"acceptsFinancing": "sim",
		"acceptsFgts": "não",
		"riskLevel": "Alto",
		"riskAnalysis": "Imóvel ocupado"
	}`))
	raw := RawLot{ID: "05", Text: "LOTE 05 - CASA em Campinas/SP, ocupada."}
	lot, err := a.ExtractLotDetails(context.Background(), raw, &domain.GlobalAuctionInfo{Bank: "Caixa"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if lot.Title != "Lote 05 - Casa Campinas SP" {
		t.Fatalf("title = %q", lot.Title)
	}
	if lot.RawText != raw.Text || lot.Details.RawContent != raw.Text {
		t.Fatalf("raw text not preserved: %q", lot.RawText)
	}
	if lot.Address != "Rua das Flores, 100, Centro" {
		t.Fatalf("address = %q", lot.Address)
	}
	if lot.Size != "120 m²" {
		t.Fatalf("size = %q", lot.Size)
	}
	if lot.Price != "R$ 250.000,00" || lot.EstimatedPrice != "R$ 400.000,00" {
		t.Fatalf("prices = %q / %q", lot.Price, lot.EstimatedPrice)
	}
	if len(lot.AuctionPrices) != 1 || lot.AuctionPrices[0].Value != "R$ 400.000,00" {
		t.Fatalf("auction prices = %+v", lot.AuctionPrices)
	}
	if len(lot.Details.LegalActions) != 2 {
		t.Fatalf("legal actions = %#v", lot.Details.LegalActions)
	}
	if !lot.Details.AcceptsFinancing || lot.Details.AcceptsFGTS {
		t.Fatalf("financing flags = %v %v", lot.Details.AcceptsFinancing, lot.Details.AcceptsFGTS)
	}
	if lot.Details.RiskLevel != domain.RiskHigh || !lot.Details.IsRisky {
		t.Fatalf("risk = %q risky = %v", lot.Details.RiskLevel, lot.Details.IsRisky)
	}
}

func TestExtractLotDetailsUnknownRiskIsMedium(t *testing.T) {
	a := quietAgent(replyWith(`{"type":"Terreno","riskLevel":"indefinido"}`))
	lot, err := a.ExtractLotDetails(context.Background(), RawLot{Text: "Um terreno"}, nil)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if lot.Details.RiskLevel != domain.RiskMedium || lot.Details.IsRisky {
		t.Fatalf("risk = %q risky = %v", lot.Details.RiskLevel, lot.Details.IsRisky)
	}
	if lot.Title != "Lote Único - Terreno" {
		t.Fatalf("title = %q", lot.Title)
	}
}

func TestExtractLotsDropsFailuresAndKeepsOrder(t *testing.T) {
	gen := &fakeGenerator{respond: func(_, user string) (string, error) {
		if strings.Contains(user, "FALHA") {
			return "", errors.New("simulated failure")
		}
		for _, id := range []string{"1", "2", "3", "4", "5"} {
			if strings.Contains(user, "IDENTIFICADOR DO LOTE: "+id+"\n") {
				return fmt.Sprintf(`{"lotNumber":%q,"type":"Casa"}`, id), nil
			}
		}
		return "", errors.New("unexpected prompt")
	}}
	raws := []RawLot{
		{ID: "1", Text: "LOTE 1"},
		{ID: "2", Text: "LOTE 2"},
		{ID: "3", Text: "LOTE 3 FALHA"},
		{ID: "4", Text: "LOTE 4"},
		{ID: "5", Text: "LOTE 5"},
	}
	for _, limit := range []int{0, 2} {
		lots := quietAgent(gen, WithConcurrency(limit)).ExtractLots(context.Background(), raws, nil)
		if len(lots) != len(raws)-1 {
			t.Fatalf("limit %d: got %d lots, want %d", limit, len(lots), len(raws)-1)
		}
		for i, want := range []string{"1", "2", "4", "5"} {
			if lots[i].Details.LotNumber != want {
				t.Fatalf("limit %d: lots[%d] = %q, want %q", limit, i, lots[i].Details.LotNumber, want)
			}
		}
	}
}

func TestExtractLotsEmptyInput(t *testing.T) {
	lots := quietAgent(replyWith(`{}`)).ExtractLots(context.Background(), nil, nil)
	if lots == nil || len(lots) != 0 {
		t.Fatalf("lots = %#v, want empty slice", lots)
	}
}
