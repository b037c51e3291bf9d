package agent

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"leilaoai/pkg/domain"
	"leilaoai/pkg/finance"
)

const (
	placeholderLotNumber = "Único"
	placeholderLotType   = "Imóvel"
)

type auctionPriceResponse struct {
	Label flexString `json:"label"`
	Value flexString `json:"value"`
}

type lotResponse struct {
	LotNumber         flexString             `json:"lotNumber"`
	Type              flexString             `json:"type"`
	City              flexString             `json:"city"`
	State             flexString             `json:"state"`
	Neighborhood      flexString             `json:"neighborhood"`
	Street            flexString             `json:"street"`
	Number            flexString             `json:"number"`
	Complement        flexString             `json:"complement"`
	ZipCode           flexString             `json:"zipCode"`
	Address           flexString             `json:"address"`
	PrivateArea       flexString             `json:"privateArea"`
	TotalArea         flexString             `json:"totalArea"`
	LandArea          flexString             `json:"landArea"`
	Size              flexString             `json:"size"`
	Bedrooms          flexString             `json:"bedrooms"`
	ParkingSpaces     flexString             `json:"parkingSpaces"`
	Price             flexString             `json:"price"`
	EstimatedPrice    flexString             `json:"estimatedPrice"`
	AuctionPrices     []auctionPriceResponse `json:"auctionPrices"`
	Discount          flexString             `json:"discount"`
	Modality          flexString             `json:"modality"`
	MatriculaNumber   flexString             `json:"matriculaNumber"`
	RegistryOffice    flexString             `json:"registryOffice"`
	MunicipalRegistry flexString             `json:"municipalRegistry"`
	Owner             flexString             `json:"owner"`
	OccupancyStatus   flexString             `json:"occupancyStatus"`
	Debts             flexString             `json:"debts"`
	LegalActions      StringList             `json:"legalActions"`
	PaymentConditions flexString             `json:"paymentConditions"`
	AcceptsFinancing  flexBool               `json:"acceptsFinancing"`
	AcceptsFGTS       flexBool               `json:"acceptsFgts"`
	Description       flexString             `json:"description"`
	RiskLevel         flexString             `json:"riskLevel"`
	RiskAnalysis      flexString             `json:"riskAnalysis"`
}

// ExtractLotDetails turns one raw lot span into a structured lot. The raw
// span is kept verbatim as the lot's raw text.
func (a *Agent) ExtractLotDetails(ctx context.Context, raw RawLot, global *domain.GlobalAuctionInfo) (domain.Lot, error) {
	if !a.Configured() {
		return domain.Lot{}, ErrNotConfigured
	}
	if strings.TrimSpace(raw.Text) == "" {
		return domain.Lot{}, fmt.Errorf("lot details: %w: empty lot text", ErrExtractionFailed)
	}
	var user strings.Builder
	user.WriteString(lotUserPrompt)
	if global != nil {
		fmt.Fprintf(&user, "\nCONTEXTO DO EDITAL: comitente %q, local %q, datas %q.\n", global.Bank, global.Location, strings.Join(global.AuctionDates, "; "))
	}
	if raw.ID != "" {
		fmt.Fprintf(&user, "\nIDENTIFICADOR DO LOTE: %s\n", raw.ID)
	}
	user.WriteString("\nTEXTO DO LOTE:\n")
	user.WriteString(raw.Text)

	var resp lotResponse
	if err := a.generate(ctx, "lot details", lotSystemPrompt, user.String(), &resp); err != nil {
		return domain.Lot{}, err
	}
	return buildLot(raw, resp), nil
}

func buildLot(raw RawLot, resp lotResponse) domain.Lot {
	number := firstNonEmpty(resp.LotNumber.String(), raw.ID)
	typ := firstNonEmpty(resp.Type.String(), placeholderLotType)
	city := resp.City.String()
	state := strings.ToUpper(resp.State.String())

	address := resp.Address.String()
	if address == "" {
		address = joinNonEmpty(", ", resp.Street.String(), resp.Number.String(), resp.Complement.String(), resp.Neighborhood.String())
	}

	prices := make([]domain.AuctionPrice, 0, len(resp.AuctionPrices))
	for _, p := range resp.AuctionPrices {
		if p.Value.String() == "" {
			continue
		}
		prices = append(prices, domain.AuctionPrice{Label: p.Label.String(), Value: finance.NormalizeBRL(p.Value.String())})
	}

	details := domain.LotDetails{
		RawContent:        raw.Text,
		LotNumber:         number,
		Street:            resp.Street.String(),
		Number:            resp.Number.String(),
		Complement:        resp.Complement.String(),
		Neighborhood:      resp.Neighborhood.String(),
		ZipCode:           resp.ZipCode.String(),
		MatriculaNumber:   resp.MatriculaNumber.String(),
		RegistryOffice:    resp.RegistryOffice.String(),
		MunicipalRegistry: resp.MunicipalRegistry.String(),
		PrivateArea:       resp.PrivateArea.String(),
		TotalArea:         resp.TotalArea.String(),
		LandArea:          resp.LandArea.String(),
		Bedrooms:          resp.Bedrooms.String(),
		ParkingSpaces:     resp.ParkingSpaces.String(),
		Description:       resp.Description.String(),
		Owner:             resp.Owner.String(),
		OccupancyStatus:   resp.OccupancyStatus.String(),
		Debts:             resp.Debts.String(),
		LegalActions:      []string(resp.LegalActions),
		PaymentConditions: resp.PaymentConditions.String(),
		AcceptsFinancing:  bool(resp.AcceptsFinancing),
		AcceptsFGTS:       bool(resp.AcceptsFGTS),
		Discount:          resp.Discount.String(),
		Modality:          resp.Modality.String(),
	}
	level, ok := NormalizeRiskLevel(resp.RiskLevel.String())
	if !ok {
		level = domain.RiskMedium
	}
	details.SetRisk(domain.RiskAssessment{Level: level, Analysis: resp.RiskAnalysis.String()})

	return domain.Lot{
		Title:          LotTitle(number, typ, city, state),
		City:           city,
		State:          state,
		Type:           typ,
		Size:           firstNonEmpty(resp.Size.String(), resp.PrivateArea.String(), resp.TotalArea.String(), resp.LandArea.String()),
		Address:        address,
		Price:          finance.NormalizeBRL(resp.Price.String()),
		EstimatedPrice: finance.NormalizeBRL(resp.EstimatedPrice.String()),
		AuctionPrices:  prices,
		RawText:        raw.Text,
		Details:        details,
	}
}

// LotTitle renders "Lote {number} - {Type} {City} {State}" with placeholders
// for a missing number or type.
func LotTitle(number, typ, city, state string) string {
	number = firstNonEmpty(strings.TrimSpace(number), placeholderLotNumber)
	typ = firstNonEmpty(strings.TrimSpace(typ), placeholderLotType)
	return "Lote " + number + " - " + joinNonEmpty(" ", typ, strings.TrimSpace(city), strings.TrimSpace(state))
}

// ExtractLots runs ExtractLotDetails for every raw lot in parallel. Failed
// lots are logged and left out; the rest keep their input order.
func (a *Agent) ExtractLots(ctx context.Context, raws []RawLot, global *domain.GlobalAuctionInfo) []domain.Lot {
	slots := make([]*domain.Lot, len(raws))
	var g errgroup.Group
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for i, raw := range raws {
		i, raw := i, raw
		g.Go(func() error {
			lot, err := a.ExtractLotDetails(ctx, raw, global)
			if err != nil {
				a.logger.Warn("lot extraction failed", "lot_id", raw.ID, "index", i, "error", err)
				return nil
			}
			slots[i] = &lot
			return nil
		})
	}
	_ = g.Wait()

	lots := make([]domain.Lot, 0, len(raws))
	for _, lot := range slots {
		if lot != nil {
			lots = append(lots, *lot)
		}
	}
	return lots
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func joinNonEmpty(sep string, values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, sep)
}
