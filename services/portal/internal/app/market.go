package app

import (
	"context"
	"fmt"
	"strings"

	"leilaoai/internal/util"
	"leilaoai/pkg/domain"
	"leilaoai/pkg/events"
	"leilaoai/pkg/finance"
	"leilaoai/pkg/market"
)

// MarketResult is the outcome of an opportunity search. NoOpportunities is
// set when the search succeeded with zero listings.
type MarketResult struct {
	Query           string                       `json:"query"`
	Entries         []domain.MarketAnalysisEntry `json:"entries"`
	NoOpportunities bool                         `json:"noOpportunities"`
}

// SearchMarket searches comparable listings for the lot and replaces the
// stored batch with the new one, so repeated searches never accumulate.
func (a *App) SearchMarket(ctx context.Context, lotID string) (MarketResult, error) {
	lot, err := a.getLot(lotID)
	if err != nil {
		return MarketResult{}, err
	}
	q := market.Query{
		City:         lot.City,
		State:        lot.State,
		Neighborhood: lot.Details.Neighborhood,
		Type:         lot.Type,
	}
	listings, err := a.market.Search(ctx, q)
	if err != nil {
		return MarketResult{}, err
	}

	now := a.now()
	entries := make([]domain.MarketAnalysisEntry, 0, len(listings))
	for _, l := range listings {
		entries = append(entries, domain.MarketAnalysisEntry{
			ID:          util.NewID(),
			LotID:       lot.ID,
			Title:       strings.TrimSpace(l.Title),
			Price:       finance.NormalizeBRL(l.Price),
			URL:         l.URL,
			Description: l.Description,
			Source:      domain.MarketSource,
			CreatedAt:   now,
		})
	}
	if err := a.store.ReplaceMarketEntries(lot.ID, entries); err != nil {
		return MarketResult{}, fmt.Errorf("save market entries: %w", err)
	}

	query := market.BuildQuery(q)
	lot.Details.Market = &domain.MarketSummary{Query: query, Count: len(entries), SearchedAt: now}
	lot.UpdatedAt = now
	if err := a.store.SaveLot(lot); err != nil {
		return MarketResult{}, fmt.Errorf("save lot: %w", err)
	}
	a.publish(ctx, events.MarketUpdated, lot.ProjectID, lot.ID)
	return MarketResult{Query: query, Entries: entries, NoOpportunities: len(entries) == 0}, nil
}

// ListMarket returns the stored opportunities of a lot.
func (a *App) ListMarket(lotID string) ([]domain.MarketAnalysisEntry, error) {
	if _, err := a.getLot(lotID); err != nil {
		return nil, err
	}
	return a.store.ListMarketEntries(lotID)
}
