package domain

import "time"

type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// MarketSource is the only classifieds source searched today.
const MarketSource = "OLX"

type Project struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	EditalURL      string            `json:"editalUrl,omitempty"`
	EditalKey      string            `json:"-"`
	EditalText     string            `json:"-"`
	MunicipalURL   string            `json:"municipalUrl,omitempty"`
	MunicipalKey   string            `json:"-"`
	Price          string            `json:"price"`
	EstimatedPrice string            `json:"estimatedPrice"`
	GlobalInfo     GlobalAuctionInfo `json:"globalInfo"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// GlobalAuctionInfo holds the edital-wide data shared by every lot.
// Auction dates are kept as the human-readable strings found in the notice.
type GlobalAuctionInfo struct {
	Bank         string   `json:"bank"`
	AuctionDates []string `json:"auctionDates"`
	Location     string   `json:"location"`
	Auctioneer   string   `json:"auctioneer"`
	EditalNumber string   `json:"editalNumber"`
	RulesSummary string   `json:"rulesSummary"`
}

type AuctionPrice struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Lot struct {
	ID             string         `json:"id"`
	ProjectID      string         `json:"projectId"`
	Position       int            `json:"position"`
	Title          string         `json:"title"`
	City           string         `json:"city"`
	State          string         `json:"state"`
	Type           string         `json:"type"`
	Size           string         `json:"size"`
	Address        string         `json:"address"`
	Price          string         `json:"price"`
	EstimatedPrice string         `json:"estimatedPrice"`
	AuctionPrices  []AuctionPrice `json:"auctionPrices"`
	RawText        string         `json:"rawText"`
	Details        LotDetails     `json:"details"`
	Favorite       bool           `json:"favorite"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// LotDetails is the open-ended record persisted as JSON next to a lot.
type LotDetails struct {
	RawContent string `json:"rawContent"`
	LotNumber  string `json:"lotNumber,omitempty"`
	// Manual marks lots pasted by the user; project re-analysis leaves them alone.
	Manual bool `json:"manual,omitempty"`

	Street       string `json:"street,omitempty"`
	Number       string `json:"number,omitempty"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	ZipCode      string `json:"zipCode,omitempty"`

	MatriculaNumber   string `json:"matriculaNumber,omitempty"`
	RegistryOffice    string `json:"registryOffice,omitempty"`
	MunicipalRegistry string `json:"municipalRegistry,omitempty"`

	PrivateArea   string `json:"privateArea,omitempty"`
	TotalArea     string `json:"totalArea,omitempty"`
	LandArea      string `json:"landArea,omitempty"`
	Bedrooms      string `json:"bedrooms,omitempty"`
	ParkingSpaces string `json:"parkingSpaces,omitempty"`
	Description   string `json:"description,omitempty"`

	Owner             string   `json:"owner,omitempty"`
	OccupancyStatus   string   `json:"occupancyStatus,omitempty"`
	Debts             string   `json:"debts,omitempty"`
	LegalActions      []string `json:"legalActions,omitempty"`
	PaymentConditions string   `json:"paymentConditions,omitempty"`
	AcceptsFinancing  bool     `json:"acceptsFinancing"`
	AcceptsFGTS       bool     `json:"acceptsFgts"`
	Discount          string   `json:"discount,omitempty"`
	Modality          string   `json:"modality,omitempty"`

	RiskLevel    RiskLevel `json:"riskLevel,omitempty"`
	RiskAnalysis string    `json:"riskAnalysis,omitempty"`
	IsRisky      bool      `json:"isRisky"`

	Financial     *FinancialInputs `json:"financial,omitempty"`
	Market        *MarketSummary   `json:"market,omitempty"`
	Matricula     *MatriculaData   `json:"matricula,omitempty"`
	Discrepancies []Discrepancy    `json:"discrepancies,omitempty"`
}

// SetRisk overwrites the risk fields wholesale. IsRisky is derived here and
// never recomputed on read.
func (d *LotDetails) SetRisk(r RiskAssessment) {
	d.RiskLevel = r.Level
	d.RiskAnalysis = r.Analysis
	d.IsRisky = r.Level == RiskHigh
}

type RiskAssessment struct {
	Level    RiskLevel `json:"riskLevel"`
	Analysis string    `json:"riskAnalysis"`
}

// MatriculaData is what the registry extraction found. Encumbrance flags are
// always definite booleans; identifiers are nil when absent.
type MatriculaData struct {
	PenhoraJudicial     bool `json:"penhoraJudicial"`
	AlienacaoFiduciaria bool `json:"alienacaoFiduciaria"`
	Hipoteca            bool `json:"hipoteca"`
	Indisponibilidade   bool `json:"indisponibilidade"`
	Usufruto            bool `json:"usufruto"`
	AcaoJudicial        bool `json:"acaoJudicial"`

	NumeroContrato              *string `json:"numeroContrato"`
	Credor                      *string `json:"credor"`
	DevedoresCPFCNPJ            *string `json:"devedoresCpfCnpj"`
	DataPrimeiroLeilao          *string `json:"dataPrimeiroLeilao"`
	DataSegundoLeilao           *string `json:"dataSegundoLeilao"`
	RegistroAlienacaoFiduciaria *string `json:"registroAlienacaoFiduciaria"`
	AverbacaoConsolidacao       *string `json:"averbacaoConsolidacao"`

	ProcedimentoExtrajudicial bool      `json:"procedimentoExtrajudicial"`
	DocumentURL               string    `json:"documentUrl,omitempty"`
	DocumentKey               string    `json:"documentKey,omitempty"`
	ExtractedAt               time.Time `json:"extractedAt"`
}

type Discrepancy struct {
	Field          string   `json:"field"`
	EditalValue    string   `json:"editalValue"`
	MatriculaValue string   `json:"matriculaValue"`
	Severity       Severity `json:"severity"`
	Explanation    string   `json:"explanation"`
	IsRelevant     *bool    `json:"isRelevant,omitempty"`
}

// Relevant reports the display flag; an unset flag counts as relevant.
func (d Discrepancy) Relevant() bool {
	return d.IsRelevant == nil || *d.IsRelevant
}

// FinancialInputs are the user-editable assumptions of a lot simulation.
// Money fields are BRL strings, rates are percentages.
type FinancialInputs struct {
	BidPrice          string `json:"bidPrice"`
	SalePrice         string `json:"salePrice"`
	CommissionPercent string `json:"commissionPercent"`
	ITBIPercent       string `json:"itbiPercent"`
	RegistryCosts     string `json:"registryCosts"`
	RenovationCosts   string `json:"renovationCosts"`
	MonthlyCosts      string `json:"monthlyCosts"`
	HoldingMonths     int    `json:"holdingMonths"`
	OutstandingDebts  string `json:"outstandingDebts"`
	BrokeragePercent  string `json:"brokeragePercent"`
	IncomeTaxPercent  string `json:"incomeTaxPercent"`
}

// MarketSummary caches the outcome of the last opportunity search.
type MarketSummary struct {
	Query      string    `json:"query"`
	Count      int       `json:"count"`
	SearchedAt time.Time `json:"searchedAt"`
}

type MarketAnalysisEntry struct {
	ID          string    `json:"id"`
	LotID       string    `json:"lotId"`
	Title       string    `json:"title"`
	Price       string    `json:"price"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ProjectWithLots is the project detail view.
type ProjectWithLots struct {
	Project
	Lots []Lot `json:"lots"`
}

type Dashboard struct {
	Projects  int               `json:"projects"`
	Lots      int               `json:"lots"`
	Favorites int               `json:"favorites"`
	ByRisk    map[RiskLevel]int `json:"byRisk"`
}
