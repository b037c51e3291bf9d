package app

import "errors"

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrLotNotFound     = errors.New("lot not found")

	// ErrFileRequired is returned when an upload endpoint receives no file.
	ErrFileRequired = errors.New("file required")
	// ErrInvalidFile rejects anything that is not a PDF.
	ErrInvalidFile = errors.New("only pdf files are accepted")

	ErrNameRequired        = errors.New("project name required")
	ErrLotTextRequired     = errors.New("lot text required")
	ErrNoMatricula         = errors.New("lot has no matricula")
	ErrDiscrepancyNotFound = errors.New("discrepancy not found")
	ErrNoEditalText        = errors.New("project has no edital text to analyze")
	ErrNoEdital            = errors.New("project has no edital document")
	// ErrNoLotsExtracted means every lot detail extraction failed.
	ErrNoLotsExtracted = errors.New("no lot could be extracted")
)
