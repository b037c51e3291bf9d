package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"leilaoai/internal/util"
	"leilaoai/pkg/agent"
	"leilaoai/pkg/domain"
	"leilaoai/pkg/events"
	"leilaoai/pkg/finance"
	"leilaoai/pkg/store"
)

// LotPatch updates the fields that are set. RawText is the only way the raw
// source text of a lot changes.
type LotPatch struct {
	Title          *string                `json:"title"`
	City           *string                `json:"city"`
	State          *string                `json:"state"`
	Type           *string                `json:"type"`
	Size           *string                `json:"size"`
	Address        *string                `json:"address"`
	Price          *string                `json:"price"`
	EstimatedPrice *string                `json:"estimatedPrice"`
	AuctionPrices  *[]domain.AuctionPrice `json:"auctionPrices"`
	RawText        *string                `json:"rawText"`
	Details        *domain.LotDetails     `json:"details"`
}

// CreateManualLot extracts a lot from text pasted by the user and appends it
// to the project.
func (a *App) CreateManualLot(ctx context.Context, projectID, text string) (domain.Lot, error) {
	project, err := a.getProject(projectID)
	if err != nil {
		return domain.Lot{}, err
	}
	if strings.TrimSpace(text) == "" {
		return domain.Lot{}, ErrLotTextRequired
	}
	lot, err := a.agent.ExtractLotDetails(ctx, agent.RawLot{Text: text}, &project.GlobalInfo)
	if err != nil {
		return domain.Lot{}, err
	}
	existing, err := a.store.ListLotsByProject(projectID)
	if err != nil {
		return domain.Lot{}, err
	}
	now := a.now()
	lot.ID = util.NewID()
	lot.ProjectID = projectID
	lot.Position = nextPosition(existing)
	lot.Details.Manual = true
	lot.CreatedAt = now
	lot.UpdatedAt = now
	if err := a.store.SaveLot(lot); err != nil {
		return domain.Lot{}, fmt.Errorf("save lot: %w", err)
	}
	a.publish(ctx, events.LotCreated, projectID, lot.ID)
	return lot, nil
}

func nextPosition(lots []domain.Lot) int {
	next := 0
	for _, l := range lots {
		if l.Position >= next {
			next = l.Position + 1
		}
	}
	return next
}

func (a *App) GetLot(id string) (domain.Lot, error) {
	return a.getLot(id)
}

func (a *App) UpdateLot(ctx context.Context, id string, patch LotPatch) (domain.Lot, error) {
	lot, err := a.getLot(id)
	if err != nil {
		return domain.Lot{}, err
	}
	setTrimmed(&lot.Title, patch.Title)
	setTrimmed(&lot.City, patch.City)
	setTrimmed(&lot.Type, patch.Type)
	setTrimmed(&lot.Size, patch.Size)
	setTrimmed(&lot.Address, patch.Address)
	if patch.State != nil {
		lot.State = strings.ToUpper(strings.TrimSpace(*patch.State))
	}
	if patch.Price != nil {
		lot.Price = finance.NormalizeBRL(*patch.Price)
	}
	if patch.EstimatedPrice != nil {
		lot.EstimatedPrice = finance.NormalizeBRL(*patch.EstimatedPrice)
	}
	if patch.AuctionPrices != nil {
		prices := make([]domain.AuctionPrice, 0, len(*patch.AuctionPrices))
		for _, p := range *patch.AuctionPrices {
			prices = append(prices, domain.AuctionPrice{Label: strings.TrimSpace(p.Label), Value: finance.NormalizeBRL(p.Value)})
		}
		lot.AuctionPrices = prices
	}
	if patch.Details != nil {
		lot.Details = mergeDetails(lot.Details, *patch.Details)
	}
	if patch.RawText != nil {
		lot.RawText = *patch.RawText
		lot.Details.RawContent = *patch.RawText
	}
	lot.UpdatedAt = a.now()
	if err := a.store.SaveLot(lot); err != nil {
		return domain.Lot{}, fmt.Errorf("save lot: %w", err)
	}
	a.publish(ctx, events.LotUpdated, lot.ProjectID, lot.ID)
	return lot, nil
}

// mergeDetails applies an edited details record. The raw content, the
// manual marker, the matrícula and the discrepancies are never taken from the
// edit: the matrícula changes only through upload or removal and a
// discrepancy only through its relevance flag. Market cache and simulation
// inputs are kept unless the edit carries them.
func mergeDetails(current, edit domain.LotDetails) domain.LotDetails {
	edit.RawContent = current.RawContent
	edit.Manual = current.Manual
	edit.Matricula = current.Matricula
	edit.Discrepancies = current.Discrepancies
	if edit.Market == nil {
		edit.Market = current.Market
	}
	if edit.Financial == nil {
		edit.Financial = current.Financial
	}
	level := current.RiskLevel
	if edit.RiskLevel != "" {
		if normalized, ok := agent.NormalizeRiskLevel(string(edit.RiskLevel)); ok {
			level = normalized
		}
	}
	edit.SetRisk(domain.RiskAssessment{Level: level, Analysis: edit.RiskAnalysis})
	return edit
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

func (a *App) DeleteLot(ctx context.Context, id string) error {
	lot, err := a.getLot(id)
	if err != nil {
		return err
	}
	if err := a.store.DeleteLot(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrLotNotFound
		}
		return fmt.Errorf("delete lot: %w", err)
	}
	if lot.Details.Matricula != nil {
		a.removeObject(ctx, lot.Details.Matricula.DocumentKey)
	}
	a.publish(ctx, events.LotDeleted, lot.ProjectID, lot.ID)
	return nil
}

// ToggleFavorite flips the favorite flag.
func (a *App) ToggleFavorite(ctx context.Context, id string) (domain.Lot, error) {
	lot, err := a.getLot(id)
	if err != nil {
		return domain.Lot{}, err
	}
	lot.Favorite = !lot.Favorite
	lot.UpdatedAt = a.now()
	if err := a.store.SaveLot(lot); err != nil {
		return domain.Lot{}, fmt.Errorf("save lot: %w", err)
	}
	a.publish(ctx, events.LotUpdated, lot.ProjectID, lot.ID)
	return lot, nil
}

// ReanalyzeLot re-runs detail extraction over the lot's stored raw text. The
// raw text itself is never rewritten, and the user-owned state (favorite,
// matrícula, discrepancies, simulation inputs, market cache) is kept. When a
// matrícula exists its cross-validated risk assessment also stays.
func (a *App) ReanalyzeLot(ctx context.Context, id string) (domain.Lot, error) {
	lot, err := a.getLot(id)
	if err != nil {
		return domain.Lot{}, err
	}
	project, err := a.getProject(lot.ProjectID)
	if err != nil {
		return domain.Lot{}, err
	}
	raw := agent.RawLot{ID: lot.Details.LotNumber, Text: lot.RawText}
	extracted, err := a.agent.ExtractLotDetails(ctx, raw, &project.GlobalInfo)
	if err != nil {
		return domain.Lot{}, err
	}
	fresh := a.refreshedLot(lot, extracted)
	if err := a.store.SaveLot(fresh); err != nil {
		return domain.Lot{}, fmt.Errorf("save lot: %w", err)
	}
	a.publish(ctx, events.LotUpdated, fresh.ProjectID, fresh.ID)
	return fresh, nil
}

// refreshedLot takes the extracted fields of fresh and everything the user
// owns from prev: identity, position, raw text, favorite, matrícula,
// discrepancies, simulation inputs and market cache. A lot with a matrícula
// keeps its cross-validated risk.
func (a *App) refreshedLot(prev, fresh domain.Lot) domain.Lot {
	old := prev.Details
	fresh.Details.RawContent = old.RawContent
	fresh.Details.Manual = old.Manual
	fresh.Details.Matricula = old.Matricula
	fresh.Details.Discrepancies = old.Discrepancies
	fresh.Details.Financial = old.Financial
	fresh.Details.Market = old.Market
	if old.Matricula != nil {
		fresh.Details.SetRisk(domain.RiskAssessment{Level: old.RiskLevel, Analysis: old.RiskAnalysis})
	}

	fresh.ID = prev.ID
	fresh.ProjectID = prev.ProjectID
	fresh.Position = prev.Position
	fresh.Favorite = prev.Favorite
	fresh.RawText = prev.RawText
	fresh.CreatedAt = prev.CreatedAt
	fresh.UpdatedAt = a.now()
	return fresh
}
