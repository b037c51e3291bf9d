package store

import (
	"sort"
	"sync"

	"leilaoai/pkg/domain"
)

// MemoryStore is an in-process Store used by tests and local runs without a
// database.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]domain.Project
	lots     map[string]domain.Lot
	market   map[string][]domain.MarketAnalysisEntry
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]domain.Project),
		lots:     make(map[string]domain.Lot),
		market:   make(map[string][]domain.MarketAnalysisEntry),
	}
}

func (s *MemoryStore) SaveProject(p domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[p.ID] = cloneProject(p)
	return nil
}

func (s *MemoryStore) GetProject(id string) (domain.Project, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return domain.Project{}, false, nil
	}
	return cloneProject(p), true, nil
}

func (s *MemoryStore) ListProjects() ([]domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]domain.Project, 0, len(s.projects))
	for _, p := range s.projects {
		res = append(res, cloneProject(p))
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID < res[j].ID
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (s *MemoryStore) DeleteProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return ErrNotFound
	}
	delete(s.projects, id)
	s.deleteLotsLocked(id)
	return nil
}

func (s *MemoryStore) deleteLotsLocked(projectID string) {
	for lotID, l := range s.lots {
		if l.ProjectID == projectID {
			delete(s.lots, lotID)
			delete(s.market, lotID)
		}
	}
}

func (s *MemoryStore) SaveLot(l domain.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lots[l.ID] = cloneLot(l)
	return nil
}

func (s *MemoryStore) GetLot(id string) (domain.Lot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lots[id]
	if !ok {
		return domain.Lot{}, false, nil
	}
	return cloneLot(l), true, nil
}

func (s *MemoryStore) ListLots() ([]domain.Lot, error) {
	return s.listLots(func(domain.Lot) bool { return true }), nil
}

func (s *MemoryStore) ListLotsByProject(projectID string) ([]domain.Lot, error) {
	return s.listLots(func(l domain.Lot) bool { return l.ProjectID == projectID }), nil
}

func (s *MemoryStore) listLots(keep func(domain.Lot) bool) []domain.Lot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]domain.Lot, 0)
	for _, l := range s.lots {
		if keep(l) {
			res = append(res, cloneLot(l))
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].Position != res[j].Position {
			return res[i].Position < res[j].Position
		}
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.Before(res[j].CreatedAt)
		}
		return res[i].ID < res[j].ID
	})
	return res
}

func (s *MemoryStore) SaveLots(lots []domain.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range lots {
		s.lots[l.ID] = cloneLot(l)
	}
	return nil
}

func (s *MemoryStore) DeleteLot(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lots[id]; !ok {
		return ErrNotFound
	}
	delete(s.lots, id)
	delete(s.market, id)
	return nil
}

func (s *MemoryStore) ReplaceMarketEntries(lotID string, entries []domain.MarketAnalysisEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := make([]domain.MarketAnalysisEntry, 0, len(entries))
	for _, e := range entries {
		e.LotID = lotID
		batch = append(batch, e)
	}
	s.market[lotID] = batch
	return nil
}

func (s *MemoryStore) ListMarketEntries(lotID string) ([]domain.MarketAnalysisEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.MarketAnalysisEntry{}, s.market[lotID]...), nil
}

func cloneProject(p domain.Project) domain.Project {
	p.GlobalInfo.AuctionDates = append([]string{}, p.GlobalInfo.AuctionDates...)
	return p
}

func cloneLot(l domain.Lot) domain.Lot {
	l.AuctionPrices = append([]domain.AuctionPrice{}, l.AuctionPrices...)
	d := &l.Details
	if d.LegalActions != nil {
		d.LegalActions = append([]string{}, d.LegalActions...)
	}
	if d.Discrepancies != nil {
		items := make([]domain.Discrepancy, len(d.Discrepancies))
		for i, item := range d.Discrepancies {
			if item.IsRelevant != nil {
				v := *item.IsRelevant
				item.IsRelevant = &v
			}
			items[i] = item
		}
		d.Discrepancies = items
	}
	if d.Financial != nil {
		v := *d.Financial
		d.Financial = &v
	}
	if d.Market != nil {
		v := *d.Market
		d.Market = &v
	}
	if d.Matricula != nil {
		v := *d.Matricula
		d.Matricula = &v
	}
	return l
}
