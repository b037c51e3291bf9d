package store

import (
	"time"

	"gorm.io/datatypes"

	"leilaoai/pkg/domain"
)

// GORM models used for persistence.
type ProjectModel struct {
	ID             string `gorm:"primaryKey"`
	Name           string `gorm:"not null"`
	Description    string
	EditalURL      string
	EditalKey      string
	EditalText     string `gorm:"type:text"`
	MunicipalURL   string
	MunicipalKey   string
	Price          string
	EstimatedPrice string
	GlobalInfo     datatypes.JSONType[domain.GlobalAuctionInfo] `gorm:"type:jsonb"`
	CreatedAt      time.Time                                    `gorm:"not null;index"`
	UpdatedAt      time.Time                                    `gorm:"not null"`
}

type LotModel struct {
	ID             string `gorm:"primaryKey"`
	ProjectID      string `gorm:"not null;index"`
	Position       int    `gorm:"not null;default:0"`
	Title          string `gorm:"not null"`
	City           string `gorm:"index"`
	State          string `gorm:"size:2"`
	Type           string
	Size           string
	Address        string
	Price          string
	EstimatedPrice string
	AuctionPrices  datatypes.JSONSlice[domain.AuctionPrice] `gorm:"type:jsonb"`
	RawText        string                                   `gorm:"type:text"`
	Details        datatypes.JSONType[domain.LotDetails]    `gorm:"type:jsonb"`
	Favorite       bool                                     `gorm:"not null;default:false;index"`
	CreatedAt      time.Time                                `gorm:"not null"`
	UpdatedAt      time.Time                                `gorm:"not null"`
}

type MarketEntryModel struct {
	ID          string `gorm:"primaryKey"`
	LotID       string `gorm:"not null;index"`
	Title       string `gorm:"not null"`
	Price       string
	URL         string
	Description string    `gorm:"type:text"`
	Source      string    `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null;index"`
}
