package store

import (
	"errors"

	"leilaoai/pkg/domain"
)

// ErrNotFound is returned by mutations that target a missing record.
var ErrNotFound = errors.New("record not found")

// Store defines persistence operations for projects, lots and market entries.
type Store interface {
	// projects
	SaveProject(domain.Project) error
	GetProject(id string) (domain.Project, bool, error)
	ListProjects() ([]domain.Project, error)
	// DeleteProject removes the project with its lots and their market entries.
	DeleteProject(id string) error

	// lots
	SaveLot(domain.Lot) error
	GetLot(id string) (domain.Lot, bool, error)
	ListLots() ([]domain.Lot, error)
	ListLotsByProject(projectID string) ([]domain.Lot, error)
	// SaveLots upserts a batch of lots atomically.
	SaveLots(lots []domain.Lot) error
	DeleteLot(id string) error

	// market analysis
	ReplaceMarketEntries(lotID string, entries []domain.MarketAnalysisEntry) error
	ListMarketEntries(lotID string) ([]domain.MarketAnalysisEntry, error)
}

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
