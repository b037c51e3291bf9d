package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"leilaoai/pkg/domain"
)

const migrateLockID int64 = 53455341

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, migrate); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func migrate(tx *gorm.DB) error {
	if err := tx.AutoMigrate(&ProjectModel{}, &LotModel{}, &MarketEntryModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := tx.Exec(`
		DO $$
		BEGIN
			DELETE FROM lot_models l
			WHERE NOT EXISTS (SELECT 1 FROM project_models p WHERE p.id = l.project_id);
			DELETE FROM market_entry_models m
			WHERE NOT EXISTS (SELECT 1 FROM lot_models l WHERE l.id = m.lot_id);
			IF NOT EXISTS (
				SELECT 1 FROM information_schema.table_constraints
				WHERE table_schema = 'public'
				AND table_name = 'lot_models'
				AND constraint_name = 'lot_models_project_id_fkey'
			) THEN
				ALTER TABLE lot_models
				ADD CONSTRAINT lot_models_project_id_fkey
				FOREIGN KEY (project_id) REFERENCES project_models(id) ON DELETE CASCADE;
			END IF;
			IF NOT EXISTS (
				SELECT 1 FROM information_schema.table_constraints
				WHERE table_schema = 'public'
				AND table_name = 'market_entry_models'
				AND constraint_name = 'market_entry_models_lot_id_fkey'
			) THEN
				ALTER TABLE market_entry_models
				ADD CONSTRAINT market_entry_models_lot_id_fkey
				FOREIGN KEY (lot_id) REFERENCES lot_models(id) ON DELETE CASCADE;
			END IF;
		END $$;
	`).Error; err != nil {
		return fmt.Errorf("ensure foreign keys: %w", err)
	}
	return nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// SaveProject stores or updates a project.
func (s *GormStore) SaveProject(p domain.Project) error {
	model := projectToModel(p)
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "description", "edital_url", "edital_key", "edital_text",
			"municipal_url", "municipal_key", "price", "estimated_price", "global_info", "updated_at",
		}),
	}).Create(&model).Error
}

// GetProject retrieves a project.
func (s *GormStore) GetProject(id string) (domain.Project, bool, error) {
	var model ProjectModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Project{}, false, nil
		}
		return domain.Project{}, false, err
	}
	return projectFromModel(model), true, nil
}

// ListProjects returns all projects, newest first.
func (s *GormStore) ListProjects() ([]domain.Project, error) {
	var models []ProjectModel
	if err := s.db.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Project, 0, len(models))
	for _, m := range models {
		res = append(res, projectFromModel(m))
	}
	return res, nil
}

// DeleteProject removes a project, its lots and their market entries.
func (s *GormStore) DeleteProject(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		lotIDs := tx.Model(&LotModel{}).Select("id").Where("project_id = ?", id)
		if err := tx.Delete(&MarketEntryModel{}, "lot_id IN (?)", lotIDs).Error; err != nil {
			return err
		}
		if err := tx.Delete(&LotModel{}, "project_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&ProjectModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

var lotUpsert = clause.OnConflict{
	Columns: []clause.Column{{Name: "id"}},
	DoUpdates: clause.AssignmentColumns([]string{
		"project_id", "position", "title", "city", "state", "type", "size", "address",
		"price", "estimated_price", "auction_prices", "raw_text", "details", "favorite", "updated_at",
	}),
}

// SaveLot stores or updates a lot.
func (s *GormStore) SaveLot(l domain.Lot) error {
	model := lotToModel(l)
	return s.db.Clauses(lotUpsert).Create(&model).Error
}

// GetLot retrieves a lot.
func (s *GormStore) GetLot(id string) (domain.Lot, bool, error) {
	var model LotModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Lot{}, false, nil
		}
		return domain.Lot{}, false, err
	}
	return lotFromModel(model), true, nil
}

// ListLots returns every lot.
func (s *GormStore) ListLots() ([]domain.Lot, error) {
	return s.listLots()
}

// ListLotsByProject returns the lots of a project in extraction order.
func (s *GormStore) ListLotsByProject(projectID string) ([]domain.Lot, error) {
	return s.listLots("project_id = ?", projectID)
}

func (s *GormStore) listLots(conds ...any) ([]domain.Lot, error) {
	var models []LotModel
	tx := s.db.Order("position ASC").Order("created_at ASC")
	if len(conds) > 0 {
		tx = tx.Where(conds[0], conds[1:]...)
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Lot, 0, len(models))
	for _, m := range models {
		res = append(res, lotFromModel(m))
	}
	return res, nil
}

// SaveLots upserts lots in one transaction.
func (s *GormStore) SaveLots(lots []domain.Lot) error {
	if len(lots) == 0 {
		return nil
	}
	models := make([]LotModel, 0, len(lots))
	for _, l := range lots {
		models = append(models, lotToModel(l))
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(lotUpsert).CreateInBatches(&models, 100).Error
	})
}

// DeleteLot removes a lot and its market entries.
func (s *GormStore) DeleteLot(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&MarketEntryModel{}, "lot_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&LotModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ReplaceMarketEntries replaces all market entries for a lot.
func (s *GormStore) ReplaceMarketEntries(lotID string, entries []domain.MarketAnalysisEntry) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&MarketEntryModel{}, "lot_id = ?", lotID).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		models := make([]MarketEntryModel, 0, len(entries))
		for _, e := range entries {
			model := marketEntryToModel(e)
			model.LotID = lotID
			models = append(models, model)
		}
		return tx.CreateInBatches(&models, 100).Error
	})
}

// ListMarketEntries returns the stored opportunities of a lot.
func (s *GormStore) ListMarketEntries(lotID string) ([]domain.MarketAnalysisEntry, error) {
	var models []MarketEntryModel
	if err := s.db.Where("lot_id = ?", lotID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	entries := make([]domain.MarketAnalysisEntry, 0, len(models))
	for _, m := range models {
		entries = append(entries, marketEntryFromModel(m))
	}
	return entries, nil
}

func projectToModel(p domain.Project) ProjectModel {
	return ProjectModel{
		ID:             p.ID,
		Name:           p.Name,
		Description:    p.Description,
		EditalURL:      p.EditalURL,
		EditalKey:      p.EditalKey,
		EditalText:     p.EditalText,
		MunicipalURL:   p.MunicipalURL,
		MunicipalKey:   p.MunicipalKey,
		Price:          p.Price,
		EstimatedPrice: p.EstimatedPrice,
		GlobalInfo:     datatypes.NewJSONType(p.GlobalInfo),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func projectFromModel(m ProjectModel) domain.Project {
	return domain.Project{
		ID:             m.ID,
		Name:           m.Name,
		Description:    m.Description,
		EditalURL:      m.EditalURL,
		EditalKey:      m.EditalKey,
		EditalText:     m.EditalText,
		MunicipalURL:   m.MunicipalURL,
		MunicipalKey:   m.MunicipalKey,
		Price:          m.Price,
		EstimatedPrice: m.EstimatedPrice,
		GlobalInfo:     m.GlobalInfo.Data(),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func lotToModel(l domain.Lot) LotModel {
	return LotModel{
		ID:             l.ID,
		ProjectID:      l.ProjectID,
		Position:       l.Position,
		Title:          l.Title,
		City:           l.City,
		State:          l.State,
		Type:           l.Type,
		Size:           l.Size,
		Address:        l.Address,
		Price:          l.Price,
		EstimatedPrice: l.EstimatedPrice,
		AuctionPrices:  datatypes.NewJSONSlice(l.AuctionPrices),
		RawText:        l.RawText,
		Details:        datatypes.NewJSONType(l.Details),
		Favorite:       l.Favorite,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

func lotFromModel(m LotModel) domain.Lot {
	prices := []domain.AuctionPrice(m.AuctionPrices)
	if prices == nil {
		prices = []domain.AuctionPrice{}
	}
	return domain.Lot{
		ID:             m.ID,
		ProjectID:      m.ProjectID,
		Position:       m.Position,
		Title:          m.Title,
		City:           m.City,
		State:          m.State,
		Type:           m.Type,
		Size:           m.Size,
		Address:        m.Address,
		Price:          m.Price,
		EstimatedPrice: m.EstimatedPrice,
		AuctionPrices:  prices,
		RawText:        m.RawText,
		Details:        m.Details.Data(),
		Favorite:       m.Favorite,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func marketEntryToModel(e domain.MarketAnalysisEntry) MarketEntryModel {
	return MarketEntryModel{
		ID:          e.ID,
		LotID:       e.LotID,
		Title:       e.Title,
		Price:       e.Price,
		URL:         e.URL,
		Description: e.Description,
		Source:      e.Source,
		CreatedAt:   e.CreatedAt,
	}
}

func marketEntryFromModel(m MarketEntryModel) domain.MarketAnalysisEntry {
	return domain.MarketAnalysisEntry{
		ID:          m.ID,
		LotID:       m.LotID,
		Title:       m.Title,
		Price:       m.Price,
		URL:         m.URL,
		Description: m.Description,
		Source:      m.Source,
		CreatedAt:   m.CreatedAt,
	}
}
