package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"leilaoai/pkg/agent"
	"leilaoai/pkg/domain"
	"leilaoai/pkg/storage"
)

func TestUploadMatriculaCrossValidates(t *testing.T) {
	llm := newFakeLLM()
	env := newTestApp(t, llm)
	created := createTestProject(t, env)

	lot, err := env.app.UploadMatricula(context.Background(), created.Lots[0].ID, editalUpload("MATRICULA 4455 PENHORA"))
	if err != nil {
		t.Fatalf("upload matricula: %v", err)
	}
	m := lot.Details.Matricula
	if m == nil || !m.PenhoraJudicial || m.Hipoteca {
		t.Fatalf("matricula = %+v", m)
	}
	if m.Credor == nil || *m.Credor != "Banco X" || m.NumeroContrato != nil {
		t.Fatalf("identifiers = credor %v contrato %v", m.Credor, m.NumeroContrato)
	}
	if !strings.Contains(m.DocumentURL, "/"+storage.FolderMatriculas+"/") || !env.objects.Has(m.DocumentKey) {
		t.Fatalf("document = %q / %q", m.DocumentURL, m.DocumentKey)
	}
	if lot.Details.RiskLevel != domain.RiskHigh || !lot.Details.IsRisky {
		t.Fatalf("risk = %q risky=%v", lot.Details.RiskLevel, lot.Details.IsRisky)
	}
	// the area difference is formatting only and is filtered out
	if len(lot.Details.Discrepancies) != 1 || lot.Details.Discrepancies[0].Field != "endereço" {
		t.Fatalf("discrepancies = %+v", lot.Details.Discrepancies)
	}
	if !lot.Details.Discrepancies[0].Relevant() {
		t.Fatalf("new discrepancies are relevant")
	}
	if !containsAll(llm.prompts["compare"][0], "DADOS DO EDITAL", "DADOS DA MATRÍCULA") {
		t.Fatalf("compare prompt should carry both sources")
	}
	// auction dates and the seller come from the project, not the lot
	for _, stage := range []string{"compare", "risk"} {
		if !containsAll(llm.prompts[stage][0], `"comitenteCredor": "Caixa"`, "10/06/2025 10h", "25/06/2025 10h") {
			t.Fatalf("%s prompt lacks the edital's global info:\n%s", stage, llm.prompts[stage][0])
		}
	}
}

func TestUploadMatriculaPartialFailures(t *testing.T) {
	tests := []struct {
		name          string
		failStage     string
		wantRisk      domain.RiskLevel
		wantDiscCount int
	}{
		{name: "risk fails keeps previous risk", failStage: "risk", wantRisk: domain.RiskLow, wantDiscCount: 1},
		{name: "compare fails leaves empty list", failStage: "compare", wantRisk: domain.RiskHigh, wantDiscCount: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			llm := newFakeLLM()
			env := newTestApp(t, llm)
			created := createTestProject(t, env)
			llm.fail(tc.failStage, errors.New("upstream 500"))

			lot, err := env.app.UploadMatricula(context.Background(), created.Lots[0].ID, editalUpload("MATRICULA"))
			if err != nil {
				t.Fatalf("upload should not fail: %v", err)
			}
			if lot.Details.RiskLevel != tc.wantRisk {
				t.Fatalf("risk = %q, want %q", lot.Details.RiskLevel, tc.wantRisk)
			}
			if lot.Details.Discrepancies == nil || len(lot.Details.Discrepancies) != tc.wantDiscCount {
				t.Fatalf("discrepancies = %#v", lot.Details.Discrepancies)
			}
		})
	}
}

func TestUploadMatriculaErrors(t *testing.T) {
	llm := newFakeLLM()
	env := newTestApp(t, llm)
	created := createTestProject(t, env)
	ctx := context.Background()
	id := created.Lots[0].ID

	if _, err := env.app.UploadMatricula(ctx, id, nil); !errors.Is(err, ErrFileRequired) {
		t.Fatalf("err = %v, want ErrFileRequired", err)
	}
	if _, err := env.app.UploadMatricula(ctx, "missing", editalUpload("x")); !errors.Is(err, ErrLotNotFound) {
		t.Fatalf("err = %v, want ErrLotNotFound", err)
	}
	llm.fail("matricula", errors.New("bad gateway"))
	if _, err := env.app.UploadMatricula(ctx, id, editalUpload("x")); err == nil {
		t.Fatalf("expected extraction error")
	}
	lot, _ := env.app.GetLot(id)
	if lot.Details.Matricula != nil {
		t.Fatalf("failed extraction must not attach a matricula")
	}

	unconfigured := newTestApp(t, nil)
	p, _ := unconfigured.app.CreateProject(ctx, ProjectInput{Name: "m"}, nil, "")
	_ = unconfigured.store.SaveLot(domain.Lot{ID: "l1", ProjectID: p.ID})
	if _, err := unconfigured.app.UploadMatricula(ctx, "l1", editalUpload("x")); !errors.Is(err, agent.ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestRemoveMatricula(t *testing.T) {
	env := newTestApp(t, newFakeLLM())
	created := createTestProject(t, env)
	ctx := context.Background()
	lot, err := env.app.UploadMatricula(ctx, created.Lots[0].ID, editalUpload("MATRICULA"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	key := lot.Details.Matricula.DocumentKey

	got, err := env.app.RemoveMatricula(ctx, lot.ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got.Details.Matricula != nil || len(got.Details.Discrepancies) != 0 {
		t.Fatalf("details = %+v", got.Details)
	}
	if env.objects.Has(key) {
		t.Fatalf("document should be deleted")
	}
	if _, err := env.app.RemoveMatricula(ctx, lot.ID); !errors.Is(err, ErrNoMatricula) {
		t.Fatalf("err = %v, want ErrNoMatricula", err)
	}
}

func TestReplaceMatriculaRemovesOldDocument(t *testing.T) {
	env := newTestApp(t, newFakeLLM())
	created := createTestProject(t, env)
	ctx := context.Background()
	first, err := env.app.UploadMatricula(ctx, created.Lots[0].ID, editalUpload("A"))
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	doc := editalUpload("B")
	doc.Filename = "matricula-nova.pdf"
	second, err := env.app.UploadMatricula(ctx, created.Lots[0].ID, doc)
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if env.objects.Has(first.Details.Matricula.DocumentKey) || !env.objects.Has(second.Details.Matricula.DocumentKey) {
		t.Fatalf("keys = %v", env.objects.Keys())
	}
}

func TestSetDiscrepancyRelevance(t *testing.T) {
	env := newTestApp(t, newFakeLLM())
	created := createTestProject(t, env)
	ctx := context.Background()
	lot, err := env.app.UploadMatricula(ctx, created.Lots[0].ID, editalUpload("MATRICULA"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	got, err := env.app.SetDiscrepancyRelevance(ctx, lot.ID, 0, false)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got.Details.Discrepancies[0].Relevant() {
		t.Fatalf("discrepancy should be irrelevant")
	}
	stored, _ := env.app.GetLot(lot.ID)
	if stored.Details.Discrepancies[0].IsRelevant == nil || *stored.Details.Discrepancies[0].IsRelevant {
		t.Fatalf("stored flag = %v", stored.Details.Discrepancies[0].IsRelevant)
	}
	for _, idx := range []int{-1, 1, 5} {
		if _, err := env.app.SetDiscrepancyRelevance(ctx, lot.ID, idx, true); !errors.Is(err, ErrDiscrepancyNotFound) {
			t.Fatalf("index %d: err = %v", idx, err)
		}
	}
}
