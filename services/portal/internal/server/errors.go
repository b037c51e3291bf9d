package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"leilaoai/internal/util"
	"leilaoai/pkg/agent"
	"leilaoai/pkg/finance"
	"leilaoai/pkg/market"
	"leilaoai/pkg/pdftext"
	"leilaoai/services/portal/internal/app"
)

type errorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

var (
	errInvalidForm = errors.New("invalid multipart form")
	errInvalidJSON = errors.New("invalid json body")
)

type apiError struct {
	status  int
	code    string
	message string
}

// Messages are shown to the user as is, so they are in Portuguese.
var knownErrors = []struct {
	target error
	apiError
}{
	{errInvalidForm, apiError{http.StatusBadRequest, "REQUEST_INVALID_FORM", "Formulário inválido"}},
	{errInvalidJSON, apiError{http.StatusBadRequest, "REQUEST_INVALID_JSON", "JSON inválido"}},
	{app.ErrProjectNotFound, apiError{http.StatusNotFound, "PROJECT_NOT_FOUND", "Projeto não encontrado"}},
	{app.ErrLotNotFound, apiError{http.StatusNotFound, "LOT_NOT_FOUND", "Lote não encontrado"}},
	{app.ErrFileRequired, apiError{http.StatusBadRequest, "FILE_REQUIRED", "Nenhum arquivo enviado"}},
	{app.ErrInvalidFile, apiError{http.StatusBadRequest, "INVALID_FILE_TYPE", "Apenas arquivos PDF são aceitos"}},
	{app.ErrNameRequired, apiError{http.StatusBadRequest, "PROJECT_NAME_REQUIRED", "Informe o nome do projeto"}},
	{app.ErrLotTextRequired, apiError{http.StatusBadRequest, "LOT_TEXT_REQUIRED", "Informe o texto do lote"}},
	{app.ErrNoMatricula, apiError{http.StatusNotFound, "MATRICULA_NOT_FOUND", "Lote sem matrícula"}},
	{app.ErrDiscrepancyNotFound, apiError{http.StatusNotFound, "DISCREPANCY_NOT_FOUND", "Divergência não encontrada"}},
	{app.ErrNoEditalText, apiError{http.StatusConflict, "EDITAL_TEXT_MISSING", "Projeto sem texto de edital para analisar"}},
	{app.ErrNoEdital, apiError{http.StatusNotFound, "EDITAL_NOT_FOUND", "Projeto sem edital"}},
	{app.ErrNoLotsExtracted, apiError{http.StatusBadGateway, "NO_LOTS_EXTRACTED", "Nenhum lote pôde ser extraído do edital"}},
	{pdftext.ErrInvalidPageRange, apiError{http.StatusBadRequest, "INVALID_PAGE_RANGE", "Intervalo de páginas inválido"}},
	{pdftext.ErrTooManyPages, apiError{http.StatusBadRequest, "TOO_MANY_PAGES", fmt.Sprintf("Selecione no máximo %d páginas", pdftext.MaxSelectedPages)}},
	{pdftext.ErrInvalidPDF, apiError{http.StatusBadRequest, "INVALID_PDF", "Não foi possível ler o PDF"}},
	{pdftext.ErrNoText, apiError{http.StatusUnprocessableEntity, "PDF_WITHOUT_TEXT", "O PDF não contém texto extraível (provavelmente digitalizado)"}},
	{agent.ErrNotConfigured, apiError{http.StatusServiceUnavailable, "AI_NOT_CONFIGURED", "Serviço de IA não configurado"}},
	{agent.ErrExtractionFailed, apiError{http.StatusBadGateway, "AI_EXTRACTION_FAILED", "Não foi possível analisar o documento"}},
	{market.ErrInvalidQuery, apiError{http.StatusBadRequest, "MARKET_INVALID_QUERY", "Cidade e UF do lote são obrigatórias para a busca"}},
	{market.ErrUpstream, apiError{http.StatusBadGateway, "MARKET_UNAVAILABLE", "Não foi possível consultar o mercado"}},
	{market.ErrPayloadMissing, apiError{http.StatusBadGateway, "MARKET_UNAVAILABLE", "Não foi possível consultar o mercado"}},
	{finance.ErrInvalidAmount, apiError{http.StatusBadRequest, "INVALID_AMOUNT", "Valores da simulação inválidos"}},
}

var internalError = apiError{http.StatusInternalServerError, "SYSTEM_INTERNAL_ERROR", "Erro interno"}

// errorFor maps an application error to its HTTP shape.
func errorFor(err error) apiError {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apiError{http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "Arquivo muito grande"}
	}
	for _, known := range knownErrors {
		if errors.Is(err, known.target) {
			return known.apiError
		}
	}
	return internalError
}

// writeAppError answers with the mapped error. Upstream and internal details
// only go to the log.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	e := errorFor(err)
	logger := util.LoggerFromContext(r.Context())
	if e.status >= http.StatusInternalServerError {
		logger.Error("request failed", "code", e.code, "error", err)
	} else {
		logger.Debug("request rejected", "code", e.code, "error", err)
	}
	writeErrorCode(w, e.status, e.code, e.message)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeErrorCode(w, status, errorCodeFor(status), msg)
}

func writeErrorCode(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      code,
		RequestID: strings.TrimSpace(w.Header().Get(util.RequestIDHeader)),
	})
}

func errorCodeFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "REQUEST_INVALID"
	case http.StatusNotFound:
		return "SYSTEM_NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "SYSTEM_RATE_LIMITED"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
