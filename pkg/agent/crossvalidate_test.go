package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"leilaoai/pkg/domain"
)

func TestNormalizeRiskLevel(t *testing.T) {
	tests := map[string]domain.RiskLevel{
		"high": domain.RiskHigh, "Alto": domain.RiskHigh, "ALTA": domain.RiskHigh,
		"médio": domain.RiskMedium, "Media": domain.RiskMedium, "medium": domain.RiskMedium,
		"baixo": domain.RiskLow, " LOW ": domain.RiskLow,
	}
	for in, want := range tests {
		got, ok := NormalizeRiskLevel(in)
		if !ok || got != want {
			t.Fatalf("NormalizeRiskLevel(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := NormalizeRiskLevel("crítico"); ok {
		t.Fatalf("unknown level accepted")
	}
}

func TestEquivalentValues(t *testing.T) {
	equal := [][2]string{
		{"100m²", "100 m2"},
		{"100 m²", "100mts"},
		{"100,00 m²", "100 m2"},
		{"85 metros quadrados", "85m2"},
		{"R. das Flores, 10", "Rua das Flores 10"},
		{"Av. Paulista, nº 1000", "AVENIDA PAULISTA 1000"},
		{"São José dos Campos", "sao jose dos campos"},
		{"Apto 42", "Apartamento 42"},
		{"R$ 1.234,50", "R$ 1234,5"},
		{"01/11/2024", "1/11/2024"},
		{"Matrícula 12.345", "matrícula nº 12345"},
	}
	for _, pair := range equal {
		if !EquivalentValues(pair[0], pair[1]) {
			t.Fatalf("EquivalentValues(%q, %q) = false, want true", pair[0], pair[1])
		}
	}
	different := [][2]string{
		{"100 m²", "120 m²"},
		{"Rua das Flores 10", "Rua das Flores 12"},
		{"Casa", "Apartamento"},
		{"1.000 m²", "1 m²"},
		{"125,05 m²", "12.505 m²"},
		{"1/11/2024", "11/1/2024"},
		{"Matrícula 12.345", "Matrícula 123.45"},
		{"Lote 1 2", "Lote 12"},
		{"R$ 150.000,00", "R$ 15.000,00"},
	}
	for _, pair := range different {
		if EquivalentValues(pair[0], pair[1]) {
			t.Fatalf("EquivalentValues(%q, %q) = true, want false", pair[0], pair[1])
		}
	}
}

func TestCanonicalNumber(t *testing.T) {
	tests := map[string]string{
		"100":        "100",
		"100,00":     "100",
		"125,05":     "125.05",
		"12.505":     "12505",
		"1.234,50":   "1234.5",
		"123.45":     "123.45",
		"007":        "7",
		"01/11/2024": "1/11/2024",
	}
	for in, want := range tests {
		if got := canonicalNumber(in); got != want {
			t.Fatalf("canonicalNumber(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCompareSourcesFiltersFormattingDifferences(t *testing.T) {
	a := quietAgent(replyWith(`{"discrepancies":[
		{"field":"área","editalValue":"100m²","matriculaValue":"100 m2","severity":"low","explanation":"formato"},
		{"field":"endereço","editalValue":"R. A, 10","matriculaValue":"Rua B, 10","severity":"alta","explanation":"logradouro diferente"},
		{"field":"vagas","editalValue":"2","matriculaValue":"1","severity":"???","explanation":""}
	]}`))
	got, err := a.CompareSources(context.Background(), domain.Lot{Title: "Lote 1"}, nil, domain.MatriculaData{})
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d discrepancies, want 2: %+v", len(got), got)
	}
	if got[0].Field != "endereço" || got[0].Severity != domain.SeverityHigh {
		t.Fatalf("first = %+v", got[0])
	}
	if got[1].Severity != domain.SeverityMedium {
		t.Fatalf("unknown severity = %q, want medium", got[1].Severity)
	}
	for _, d := range got {
		if d.IsRelevant == nil || !*d.IsRelevant {
			t.Fatalf("discrepancy %q not marked relevant", d.Field)
		}
	}
}

func TestAnalyzeRiskRejectsUnknownLevel(t *testing.T) {
	_, err := quietAgent(replyWith(`{"riskLevel":"talvez","riskAnalysis":"?"}`)).AnalyzeRisk(context.Background(), domain.Lot{}, nil, domain.MatriculaData{})
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("err = %v, want ErrExtractionFailed", err)
	}
}

func TestCrossValidateContainsFailures(t *testing.T) {
	gen := &fakeGenerator{respond: func(system, _ string) (string, error) {
		if system == riskSystemPrompt {
			return `{"riskLevel":"alto","riskAnalysis":"Penhora ativa"}`, nil
		}
		return "", errors.New("compare unavailable")
	}}
	cv := quietAgent(gen).CrossValidate(context.Background(), domain.Lot{}, nil, domain.MatriculaData{PenhoraJudicial: true})
	if cv.RiskErr != nil || cv.Risk.Level != domain.RiskHigh {
		t.Fatalf("risk = %+v err = %v", cv.Risk, cv.RiskErr)
	}
	if cv.CompareErr == nil {
		t.Fatalf("compare error not reported")
	}
	if cv.Discrepancies == nil || len(cv.Discrepancies) != 0 {
		t.Fatalf("discrepancies = %#v, want empty", cv.Discrepancies)
	}
	if gen.calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", gen.calls.Load())
	}
}

func TestCrossValidateSendsBothSources(t *testing.T) {
	gen := &fakeGenerator{respond: func(system, user string) (string, error) {
		if !strings.Contains(user, "DADOS DO EDITAL") || !strings.Contains(user, "penhoraJudicial") {
			return "", errors.New("missing sources")
		}
		if system == riskSystemPrompt {
			return `{"riskLevel":"low","riskAnalysis":"ok"}`, nil
		}
		return `{"discrepancies":[]}`, nil
	}}
	cv := quietAgent(gen).CrossValidate(context.Background(), domain.Lot{RawText: "LOTE 1"}, nil, domain.MatriculaData{})
	if cv.RiskErr != nil || cv.CompareErr != nil {
		t.Fatalf("errors: %v / %v", cv.RiskErr, cv.CompareErr)
	}
	if cv.Risk.Level != domain.RiskLow || len(cv.Discrepancies) != 0 {
		t.Fatalf("cv = %+v", cv)
	}
}

func TestCrossValidateCoversEveryDimension(t *testing.T) {
	owner := "José da Silva"
	credor := "Caixa Econômica Federal"
	first := "10/06/2025"
	lot := domain.Lot{
		Title:         "Lote 3 - Apartamento Santos SP",
		Price:         "R$ 150.000,00",
		AuctionPrices: []domain.AuctionPrice{{Label: "1º Leilão", Value: "R$ 200.000,00"}},
		RawText:       "LOTE 3 - Apto 42, matrícula 12.345 do 1º CRI de Santos",
		Details: domain.LotDetails{
			PrivateArea:     "62,5 m²",
			MatriculaNumber: "12.345",
			RegistryOffice:  "1º CRI de Santos",
			Owner:           owner,
			OccupancyStatus: "Ocupado",
		},
	}
	global := &domain.GlobalAuctionInfo{Bank: "Caixa", AuctionDates: []string{"10/06/2025 10h", "25/06/2025 10h"}, EditalNumber: "0042/2025"}
	matricula := domain.MatriculaData{Credor: &credor, DataPrimeiroLeilao: &first, DevedoresCPFCNPJ: &owner}

	var mu sync.Mutex
	users := map[string]string{}
	gen := &fakeGenerator{respond: func(system, user string) (string, error) {
		mu.Lock()
		users[system] = user
		mu.Unlock()
		if system == riskSystemPrompt {
			return `{"riskLevel":"medium","riskAnalysis":"ok"}`, nil
		}
		return `{"discrepancies":[]}`, nil
	}}
	cv := quietAgent(gen).CrossValidate(context.Background(), lot, global, matricula)
	if cv.RiskErr != nil || cv.CompareErr != nil {
		t.Fatalf("errors: %v / %v", cv.RiskErr, cv.CompareErr)
	}

	compare := users[compareSystemPrompt]
	// one entry per dimension the comparator must check
	dimensions := []struct {
		name   string
		prompt string
		values []string
	}{
		{"areas", "áreas", []string{`"areaPrivativa": "62,5 m²"`}},
		{"auction dates", "datas dos leilões", []string{`"datasLeilao"`, "10/06/2025 10h", "25/06/2025 10h", "1º Leilão"}},
		{"registry number", "número da matrícula", []string{`"numeroMatricula": "12.345"`, `"cartorio": "1º CRI de Santos"`}},
		{"creditor", "credor ou vendedor", []string{`"comitenteCredor": "Caixa"`}},
		{"occupancy", "ocupação", []string{`"ocupacao": "Ocupado"`}},
		{"owner", "proprietário ou devedor", []string{`"proprietarioDevedor": "José da Silva"`}},
	}
	for _, d := range dimensions {
		if !strings.Contains(compare, d.prompt) {
			t.Fatalf("compare prompt does not ask about %s", d.name)
		}
		for _, v := range d.values {
			if !strings.Contains(compare, v) {
				t.Fatalf("%s: edital side lacks %s", d.name, v)
			}
		}
	}
	if !strings.Contains(compare, "nome do campo em português") {
		t.Fatalf("compare prompt does not require Portuguese field names")
	}
	if !strings.Contains(compare, "Caixa Econômica Federal") {
		t.Fatalf("registry side missing from compare prompt")
	}
	if !strings.Contains(users[riskSystemPrompt], "10/06/2025 10h") {
		t.Fatalf("risk prompt lacks the edital's global info")
	}
}

func TestRiskPromptsCarryRubric(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   []string
	}{
		{"lot extraction", lotUserPrompt, []string{
			"alto: imóvel ocupado", "ação judicial", "dívidas maiores que o valor", "problema estrutural grave",
			"médio: dívidas pequenas", "pendências de registro", "falta de informações",
			"baixo: imóvel desocupado", "documentação regular", "sem dívidas relevantes",
		}},
		{"cross-validation", riskUserPrompt, []string{
			"A matrícula prevalece", "high: ônus vigente na matrícula", "penhora", "dívidas maiores que o lance",
			"medium:", "low: matrícula sem ônus vigente", "Quanto maior a dívida",
		}},
	}
	for _, tc := range tests {
		for _, want := range tc.want {
			if !strings.Contains(tc.prompt, want) {
				t.Fatalf("%s prompt lacks %q", tc.name, want)
			}
		}
	}
}
