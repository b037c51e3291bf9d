package app

import (
	"context"
	"fmt"

	"leilaoai/pkg/agent"
	"leilaoai/pkg/domain"
	"leilaoai/pkg/events"
	"leilaoai/pkg/storage"
)

// UploadMatricula stores a registry document for a lot, extracts it and
// cross-validates it against the lot and its project's edital data. A failed
// risk analysis leaves the lot's risk unchanged; a failed comparison leaves
// no discrepancies.
func (a *App) UploadMatricula(ctx context.Context, lotID string, doc *Upload) (domain.Lot, error) {
	lot, err := a.getLot(lotID)
	if err != nil {
		return domain.Lot{}, err
	}
	project, err := a.getProject(lot.ProjectID)
	if err != nil {
		return domain.Lot{}, err
	}
	if err := validatePDF(doc); err != nil {
		return domain.Lot{}, err
	}
	if !a.agent.Configured() {
		return domain.Lot{}, agent.ErrNotConfigured
	}
	key, url, err := a.storeUpload(ctx, storage.FolderMatriculas, doc)
	if err != nil {
		return domain.Lot{}, err
	}
	text, err := a.extractor.ExtractText(doc.Data, nil)
	if err != nil {
		return domain.Lot{}, fmt.Errorf("extract matricula text: %w", err)
	}
	data, err := a.agent.ExtractMatricula(ctx, text)
	if err != nil {
		return domain.Lot{}, err
	}
	data.DocumentURL = url
	data.DocumentKey = key

	result := a.agent.CrossValidate(ctx, lot, &project.GlobalInfo, data)
	if result.RiskErr != nil {
		a.logger.Warn("risk analysis failed", "lot_id", lot.ID, "error", result.RiskErr)
	} else {
		lot.Details.SetRisk(result.Risk)
	}
	if result.CompareErr != nil {
		a.logger.Warn("source comparison failed", "lot_id", lot.ID, "error", result.CompareErr)
	}

	var oldKey string
	if lot.Details.Matricula != nil {
		oldKey = lot.Details.Matricula.DocumentKey
	}
	lot.Details.Matricula = &data
	lot.Details.Discrepancies = result.Discrepancies
	lot.UpdatedAt = a.now()
	if err := a.store.SaveLot(lot); err != nil {
		return domain.Lot{}, fmt.Errorf("save lot: %w", err)
	}
	if oldKey != key {
		a.removeObject(ctx, oldKey)
	}
	a.publish(ctx, events.LotUpdated, lot.ProjectID, lot.ID)
	return lot, nil
}

// RemoveMatricula clears the registry data and its discrepancies.
func (a *App) RemoveMatricula(ctx context.Context, lotID string) (domain.Lot, error) {
	lot, err := a.getLot(lotID)
	if err != nil {
		return domain.Lot{}, err
	}
	if lot.Details.Matricula == nil {
		return domain.Lot{}, ErrNoMatricula
	}
	key := lot.Details.Matricula.DocumentKey
	lot.Details.Matricula = nil
	lot.Details.Discrepancies = nil
	lot.UpdatedAt = a.now()
	if err := a.store.SaveLot(lot); err != nil {
		return domain.Lot{}, fmt.Errorf("save lot: %w", err)
	}
	a.removeObject(ctx, key)
	a.publish(ctx, events.LotUpdated, lot.ProjectID, lot.ID)
	return lot, nil
}

// SetDiscrepancyRelevance marks one discrepancy, by index, as relevant or not.
func (a *App) SetDiscrepancyRelevance(ctx context.Context, lotID string, index int, relevant bool) (domain.Lot, error) {
	lot, err := a.getLot(lotID)
	if err != nil {
		return domain.Lot{}, err
	}
	if index < 0 || index >= len(lot.Details.Discrepancies) {
		return domain.Lot{}, ErrDiscrepancyNotFound
	}
	lot.Details.Discrepancies[index].IsRelevant = &relevant
	lot.UpdatedAt = a.now()
	if err := a.store.SaveLot(lot); err != nil {
		return domain.Lot{}, fmt.Errorf("save lot: %w", err)
	}
	a.publish(ctx, events.LotUpdated, lot.ProjectID, lot.ID)
	return lot, nil
}
