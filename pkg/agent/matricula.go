package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leilaoai/pkg/domain"
)

// MaxMatriculaRunes bounds the registry text sent to the extractor.
const MaxMatriculaRunes = 50_000

type matriculaResponse struct {
	PenhoraJudicial             flexBool       `json:"penhora_judicial"`
	AlienacaoFiduciaria         flexBool       `json:"alienacao_fiduciaria"`
	Hipoteca                    flexBool       `json:"hipoteca"`
	Indisponibilidade           flexBool       `json:"indisponibilidade"`
	Usufruto                    flexBool       `json:"usufruto"`
	AcaoJudicial                flexBool       `json:"acao_judicial"`
	NumeroContrato              nullableString `json:"numero_contrato"`
	Credor                      nullableString `json:"credor"`
	DevedoresCPFCNPJ            nullableString `json:"devedores_cpf_cnpj"`
	DataPrimeiroLeilao          nullableString `json:"data_primeiro_leilao"`
	DataSegundoLeilao           nullableString `json:"data_segundo_leilao"`
	RegistroAlienacaoFiduciaria nullableString `json:"registro_alienacao_fiduciaria"`
	AverbacaoConsolidacao       nullableString `json:"averbacao_consolidacao"`
	ProcedimentoExtrajudicial   flexBool       `json:"procedimento_extrajudicial"`
}

// ExtractMatricula reads a property registry document. Encumbrance flags
// default to false and absent identifiers are nil.
func (a *Agent) ExtractMatricula(ctx context.Context, text string) (domain.MatriculaData, error) {
	if !a.Configured() {
		return domain.MatriculaData{}, ErrNotConfigured
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.MatriculaData{}, fmt.Errorf("matricula: %w: empty document", ErrExtractionFailed)
	}
	var resp matriculaResponse
	if err := a.generate(ctx, "matricula", matriculaSystemPrompt, matriculaUserPrompt+truncateRunes(text, MaxMatriculaRunes), &resp); err != nil {
		return domain.MatriculaData{}, err
	}
	return domain.MatriculaData{
		PenhoraJudicial:             bool(resp.PenhoraJudicial),
		AlienacaoFiduciaria:         bool(resp.AlienacaoFiduciaria),
		Hipoteca:                    bool(resp.Hipoteca),
		Indisponibilidade:           bool(resp.Indisponibilidade),
		Usufruto:                    bool(resp.Usufruto),
		AcaoJudicial:                bool(resp.AcaoJudicial),
		NumeroContrato:              resp.NumeroContrato.Value,
		Credor:                      resp.Credor.Value,
		DevedoresCPFCNPJ:            resp.DevedoresCPFCNPJ.Value,
		DataPrimeiroLeilao:          resp.DataPrimeiroLeilao.Value,
		DataSegundoLeilao:           resp.DataSegundoLeilao.Value,
		RegistroAlienacaoFiduciaria: resp.RegistroAlienacaoFiduciaria.Value,
		AverbacaoConsolidacao:       resp.AverbacaoConsolidacao.Value,
		ProcedimentoExtrajudicial:   bool(resp.ProcedimentoExtrajudicial),
		ExtractedAt:                 time.Now().UTC(),
	}, nil
}
