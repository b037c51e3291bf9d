package agent

import (
	"context"
	"fmt"
	"strings"

	"leilaoai/pkg/domain"
)

// MaxStructureRunes bounds the edital text sent to the structure analyzer.
const MaxStructureRunes = 100_000

// RawLot is one lot span split out of an edital.
type RawLot struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Structure is the structure analyzer output.
type Structure struct {
	Global domain.GlobalAuctionInfo `json:"globalInfo"`
	Lots   []RawLot                 `json:"lots"`
}

type structureResponse struct {
	GlobalInfo struct {
		Bank         flexString `json:"bank"`
		AuctionDates StringList `json:"auctionDates"`
		Location     flexString `json:"location"`
		Auctioneer   flexString `json:"auctioneer"`
		EditalNumber flexString `json:"editalNumber"`
		RulesSummary flexString `json:"rulesSummary"`
	} `json:"globalInfo"`
	Lots []struct {
		ID      flexString `json:"id"`
		Text    string     `json:"text"`
		RawText string     `json:"rawText"`
	} `json:"lots"`
}

// AnalyzeStructure splits edital text into global auction info and verbatim
// per-lot spans.
func (a *Agent) AnalyzeStructure(ctx context.Context, text string) (Structure, error) {
	if !a.Configured() {
		return Structure{}, ErrNotConfigured
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Structure{}, fmt.Errorf("structure: %w: empty document", ErrExtractionFailed)
	}
	var resp structureResponse
	if err := a.generate(ctx, "structure", structureSystemPrompt, structureUserPrompt+truncateRunes(text, MaxStructureRunes), &resp); err != nil {
		return Structure{}, err
	}

	dates := []string(resp.GlobalInfo.AuctionDates)
	if dates == nil {
		dates = []string{}
	}
	out := Structure{
		Global: domain.GlobalAuctionInfo{
			Bank:         resp.GlobalInfo.Bank.String(),
			AuctionDates: dates,
			Location:     resp.GlobalInfo.Location.String(),
			Auctioneer:   resp.GlobalInfo.Auctioneer.String(),
			EditalNumber: resp.GlobalInfo.EditalNumber.String(),
			RulesSummary: resp.GlobalInfo.RulesSummary.String(),
		},
		Lots: make([]RawLot, 0, len(resp.Lots)),
	}
	for _, lot := range resp.Lots {
		// spans are kept byte for byte; whitespace only decides emptiness
		body := lot.Text
		if strings.TrimSpace(body) == "" {
			body = lot.RawText
		}
		if strings.TrimSpace(body) == "" {
			continue
		}
		out.Lots = append(out.Lots, RawLot{ID: lot.ID.String(), Text: body})
	}
	if len(out.Lots) == 0 {
		return Structure{}, fmt.Errorf("structure: %w: no lots found", ErrExtractionFailed)
	}
	return out, nil
}
