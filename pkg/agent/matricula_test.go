package agent

import (
	"context"
	"strings"
	"testing"
)

func TestExtractMatriculaDefaults(t *testing.T) {
	a := quietAgent(replyWith(`{"penhora_judicial": "sim", "credor": "", "numero_contrato": "N/A", "devedores_cpf_cnpj": "-", "data_primeiro_leilao": null}`))
	got, err := a.ExtractMatricula(context.Background(), "MATRÍCULA 123. R.4 Penhora nº 123 averbada.")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !got.PenhoraJudicial {
		t.Fatalf("penhora_judicial = false, want true")
	}
	if got.AlienacaoFiduciaria || got.Hipoteca || got.Indisponibilidade || got.Usufruto || got.AcaoJudicial || got.ProcedimentoExtrajudicial {
		t.Fatalf("unexpected encumbrance flags: %+v", got)
	}
	for name, v := range map[string]*string{
		"numero_contrato":               got.NumeroContrato,
		"credor":                        got.Credor,
		"devedores_cpf_cnpj":            got.DevedoresCPFCNPJ,
		"data_primeiro_leilao":          got.DataPrimeiroLeilao,
		"data_segundo_leilao":           got.DataSegundoLeilao,
		"registro_alienacao_fiduciaria": got.RegistroAlienacaoFiduciaria,
		"averbacao_consolidacao":        got.AverbacaoConsolidacao,
	} {
		if v != nil {
			t.Fatalf("%s = %q, want nil", name, *v)
		}
	}
	if got.ExtractedAt.IsZero() {
		t.Fatalf("extractedAt not set")
	}
}

func TestExtractMatriculaBooleanVariants(t *testing.T) {
	a := quietAgent(replyWith(`{"penhora_judicial": 1, "alienacao_fiduciaria": "true", "hipoteca": true, "indisponibilidade": "não", "usufruto": 0, "acao_judicial": "false", "credor": "Banco do Brasil S.A."}`))
	got, err := a.ExtractMatricula(context.Background(), "matricula")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !got.PenhoraJudicial || !got.AlienacaoFiduciaria || !got.Hipoteca {
		t.Fatalf("true variants not recognized: %+v", got)
	}
	if got.Indisponibilidade || got.Usufruto || got.AcaoJudicial {
		t.Fatalf("false variants not recognized: %+v", got)
	}
	if got.Credor == nil || *got.Credor != "Banco do Brasil S.A." {
		t.Fatalf("credor = %v", got.Credor)
	}
}

func TestExtractMatriculaTruncatesInput(t *testing.T) {
	var seen string
	gen := &fakeGenerator{respond: func(_, user string) (string, error) {
		seen = user
		return `{}`, nil
	}}
	if _, err := quietAgent(gen).ExtractMatricula(context.Background(), strings.Repeat("§", MaxMatriculaRunes*2)); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if n := strings.Count(seen, "§"); n != MaxMatriculaRunes {
		t.Fatalf("sent %d runes, want %d", n, MaxMatriculaRunes)
	}
}
