package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"leilaoai/pkg/domain"
)

// NormalizeRiskLevel maps English and Portuguese labels to a RiskLevel.
func NormalizeRiskLevel(s string) (domain.RiskLevel, bool) {
	switch foldKey(s) {
	case "high", "alto", "alta", "elevado", "elevada":
		return domain.RiskHigh, true
	case "medium", "medio", "media", "moderado", "moderada":
		return domain.RiskMedium, true
	case "low", "baixo", "baixa":
		return domain.RiskLow, true
	}
	return "", false
}

func normalizeSeverity(s string) domain.Severity {
	level, ok := NormalizeRiskLevel(s)
	if !ok {
		return domain.SeverityMedium
	}
	return domain.Severity(level)
}

type riskResponse struct {
	RiskLevel    flexString `json:"riskLevel"`
	RiskAnalysis flexString `json:"riskAnalysis"`
}

// AnalyzeRisk grades the legal risk of a lot given its registry data and
// the edital it came from. global may be nil for manual lots.
func (a *Agent) AnalyzeRisk(ctx context.Context, lot domain.Lot, global *domain.GlobalAuctionInfo, matricula domain.MatriculaData) (domain.RiskAssessment, error) {
	if !a.Configured() {
		return domain.RiskAssessment{}, ErrNotConfigured
	}
	var resp riskResponse
	if err := a.generate(ctx, "risk", riskSystemPrompt, riskUserPrompt+sourcesBlock(lot, global, matricula), &resp); err != nil {
		return domain.RiskAssessment{}, err
	}
	level, ok := NormalizeRiskLevel(resp.RiskLevel.String())
	if !ok {
		return domain.RiskAssessment{}, fmt.Errorf("risk: %w: unknown risk level %q", ErrExtractionFailed, resp.RiskLevel)
	}
	return domain.RiskAssessment{Level: level, Analysis: resp.RiskAnalysis.String()}, nil
}

type discrepancyResponse struct {
	Field          flexString `json:"field"`
	EditalValue    flexString `json:"editalValue"`
	MatriculaValue flexString `json:"matriculaValue"`
	Severity       flexString `json:"severity"`
	Explanation    flexString `json:"explanation"`
}

type compareResponse struct {
	Discrepancies []discrepancyResponse `json:"discrepancies"`
}

// CompareSources lists the differences between the edital data of a lot and
// its registry. Entries whose values only differ in formatting are dropped.
func (a *Agent) CompareSources(ctx context.Context, lot domain.Lot, global *domain.GlobalAuctionInfo, matricula domain.MatriculaData) ([]domain.Discrepancy, error) {
	if !a.Configured() {
		return nil, ErrNotConfigured
	}
	var resp compareResponse
	if err := a.generate(ctx, "compare", compareSystemPrompt, compareUserPrompt+sourcesBlock(lot, global, matricula), &resp); err != nil {
		return nil, err
	}
	out := make([]domain.Discrepancy, 0, len(resp.Discrepancies))
	for _, d := range resp.Discrepancies {
		if d.Field.String() == "" || EquivalentValues(d.EditalValue.String(), d.MatriculaValue.String()) {
			continue
		}
		relevant := true
		out = append(out, domain.Discrepancy{
			Field:          d.Field.String(),
			EditalValue:    d.EditalValue.String(),
			MatriculaValue: d.MatriculaValue.String(),
			Severity:       normalizeSeverity(d.Severity.String()),
			Explanation:    d.Explanation.String(),
			IsRelevant:     &relevant,
		})
	}
	return out, nil
}

// CrossValidation holds both halves of a cross-validation; each half fails
// independently.
type CrossValidation struct {
	Risk          domain.RiskAssessment
	RiskErr       error
	Discrepancies []domain.Discrepancy
	CompareErr    error
}

// CrossValidate runs AnalyzeRisk and CompareSources concurrently.
func (a *Agent) CrossValidate(ctx context.Context, lot domain.Lot, global *domain.GlobalAuctionInfo, matricula domain.MatriculaData) CrossValidation {
	var out CrossValidation
	var g errgroup.Group
	g.Go(func() error {
		out.Risk, out.RiskErr = a.AnalyzeRisk(ctx, lot, global, matricula)
		return nil
	})
	g.Go(func() error {
		out.Discrepancies, out.CompareErr = a.CompareSources(ctx, lot, global, matricula)
		return nil
	})
	_ = g.Wait()
	if out.CompareErr != nil || out.Discrepancies == nil {
		out.Discrepancies = []domain.Discrepancy{}
	}
	return out
}

// editalView is the edital side of a cross-validation. Keys are Portuguese
// so the model reports discrepancy fields in Portuguese.
type editalView struct {
	Titulo            string                `json:"titulo"`
	Tipo              string                `json:"tipo"`
	Endereco          string                `json:"endereco"`
	Cidade            string                `json:"cidade"`
	UF                string                `json:"uf"`
	Tamanho           string                `json:"tamanho"`
	AreaPrivativa     string                `json:"areaPrivativa,omitempty"`
	AreaTotal         string                `json:"areaTotal,omitempty"`
	AreaTerreno       string                `json:"areaTerreno,omitempty"`
	NumeroMatricula   string                `json:"numeroMatricula,omitempty"`
	Cartorio          string                `json:"cartorio,omitempty"`
	Comitente         string                `json:"comitenteCredor,omitempty"`
	Proprietario      string                `json:"proprietarioDevedor,omitempty"`
	DatasLeilao       []string              `json:"datasLeilao,omitempty"`
	ValoresLeilao     []domain.AuctionPrice `json:"valoresLeilao,omitempty"`
	NumeroEdital      string                `json:"numeroEdital,omitempty"`
	Ocupacao          string                `json:"ocupacao,omitempty"`
	Dividas           string                `json:"dividas,omitempty"`
	AcoesJudiciais    []string              `json:"acoesJudiciais,omitempty"`
	LanceMinimo       string                `json:"lanceMinimo"`
	ValorAvaliacao    string                `json:"valorAvaliacao"`
	TextoOriginalLote string                `json:"textoOriginalLote"`
}

func newEditalView(lot domain.Lot, global *domain.GlobalAuctionInfo) editalView {
	v := editalView{
		Titulo:            lot.Title,
		Tipo:              lot.Type,
		Endereco:          lot.Address,
		Cidade:            lot.City,
		UF:                lot.State,
		Tamanho:           lot.Size,
		AreaPrivativa:     lot.Details.PrivateArea,
		AreaTotal:         lot.Details.TotalArea,
		AreaTerreno:       lot.Details.LandArea,
		NumeroMatricula:   lot.Details.MatriculaNumber,
		Cartorio:          lot.Details.RegistryOffice,
		Proprietario:      lot.Details.Owner,
		ValoresLeilao:     lot.AuctionPrices,
		Ocupacao:          lot.Details.OccupancyStatus,
		Dividas:           lot.Details.Debts,
		AcoesJudiciais:    lot.Details.LegalActions,
		LanceMinimo:       lot.Price,
		ValorAvaliacao:    lot.EstimatedPrice,
		TextoOriginalLote: truncateRunes(lot.RawText, MaxMatriculaRunes),
	}
	if global != nil {
		v.Comitente = global.Bank
		v.DatasLeilao = global.AuctionDates
		v.NumeroEdital = global.EditalNumber
	}
	return v
}

func sourcesBlock(lot domain.Lot, global *domain.GlobalAuctionInfo, matricula domain.MatriculaData) string {
	edital, _ := json.MarshalIndent(newEditalView(lot, global), "", "  ")
	reg, _ := json.MarshalIndent(matricula, "", "  ")
	var b strings.Builder
	b.WriteString("\nDADOS DO EDITAL:\n")
	b.Write(edital)
	b.WriteString("\n\nDADOS DA MATRÍCULA:\n")
	b.Write(reg)
	return b.String()
}
