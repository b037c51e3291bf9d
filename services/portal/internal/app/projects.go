package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"leilaoai/internal/util"
	"leilaoai/pkg/agent"
	"leilaoai/pkg/domain"
	"leilaoai/pkg/events"
	"leilaoai/pkg/finance"
	"leilaoai/pkg/storage"
	"leilaoai/pkg/store"
)

// ProjectInput carries the form fields of a project.
type ProjectInput struct {
	Name           string
	Description    string
	Price          string
	EstimatedPrice string
}

// ProjectPatch updates the fields that are set.
type ProjectPatch struct {
	Name           *string                   `json:"name"`
	Description    *string                   `json:"description"`
	Price          *string                   `json:"price"`
	EstimatedPrice *string                   `json:"estimatedPrice"`
	GlobalInfo     *domain.GlobalAuctionInfo `json:"globalInfo"`
}

// CreateProject creates a project. With an edital upload it runs the
// pipeline: the PDF is stored, its text extracted, split into lots by the
// structure analyzer and every lot detailed concurrently. Without a file the
// project is created empty for manual lots.
//
// Stages do not roll back: a stored edital stays stored when extraction
// fails, and a project saved before the analysis fails can be re-analyzed.
func (a *App) CreateProject(ctx context.Context, in ProjectInput, edital *Upload, pages string) (domain.ProjectWithLots, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" && edital != nil {
		name = strings.TrimSuffix(filepath.Base(edital.Filename), filepath.Ext(edital.Filename))
	}
	if name == "" {
		return domain.ProjectWithLots{}, ErrNameRequired
	}
	now := a.now()
	project := domain.Project{
		ID:             util.NewID(),
		Name:           name,
		Description:    strings.TrimSpace(in.Description),
		Price:          finance.NormalizeBRL(in.Price),
		EstimatedPrice: finance.NormalizeBRL(in.EstimatedPrice),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if edital == nil {
		if err := a.store.SaveProject(project); err != nil {
			return domain.ProjectWithLots{}, fmt.Errorf("save project: %w", err)
		}
		a.publish(ctx, events.ProjectCreated, project.ID, "")
		return domain.ProjectWithLots{Project: project, Lots: []domain.Lot{}}, nil
	}

	if err := validatePDF(edital); err != nil {
		return domain.ProjectWithLots{}, err
	}
	if !a.agent.Configured() {
		return domain.ProjectWithLots{}, agent.ErrNotConfigured
	}
	selected, err := selectPages(edital, pages)
	if err != nil {
		return domain.ProjectWithLots{}, err
	}
	key, url, err := a.storeUpload(ctx, storage.FolderEditais, edital)
	if err != nil {
		return domain.ProjectWithLots{}, err
	}
	project.EditalKey, project.EditalURL = key, url

	text, err := a.extractor.ExtractText(edital.Data, selected)
	if err != nil {
		return domain.ProjectWithLots{}, fmt.Errorf("extract edital text: %w", err)
	}
	project.EditalText = text
	if err := a.store.SaveProject(project); err != nil {
		return domain.ProjectWithLots{}, fmt.Errorf("save project: %w", err)
	}
	a.publish(ctx, events.ProjectCreated, project.ID, "")

	return a.analyzeEdital(ctx, project)
}

// analyzeEdital runs structure analysis and lot extraction over the stored
// edital text and merges the result into the project's lots. An extracted
// lot matching an existing one refreshes it the way ReanalyzeLot does; the
// rest are appended. Manual lots and lots missing from the new extraction
// are kept as they are.
func (a *App) analyzeEdital(ctx context.Context, project domain.Project) (domain.ProjectWithLots, error) {
	structure, err := a.agent.AnalyzeStructure(ctx, project.EditalText)
	if err != nil {
		return domain.ProjectWithLots{}, err
	}
	project.GlobalInfo = structure.Global
	project.UpdatedAt = a.now()
	if err := a.store.SaveProject(project); err != nil {
		return domain.ProjectWithLots{}, fmt.Errorf("save project: %w", err)
	}

	extracted := a.agent.ExtractLots(ctx, structure.Lots, &structure.Global)
	if len(extracted) == 0 {
		return domain.ProjectWithLots{}, ErrNoLotsExtracted
	}
	if len(extracted) < len(structure.Lots) {
		a.logger.Info("some lots were not extracted", "project_id", project.ID, "requested", len(structure.Lots), "extracted", len(extracted))
	}
	existing, err := a.store.ListLotsByProject(project.ID)
	if err != nil {
		return domain.ProjectWithLots{}, err
	}
	if err := a.store.SaveLots(a.mergeExtracted(project.ID, existing, extracted)); err != nil {
		return domain.ProjectWithLots{}, fmt.Errorf("save lots: %w", err)
	}
	lots, err := a.store.ListLotsByProject(project.ID)
	if err != nil {
		return domain.ProjectWithLots{}, err
	}
	a.publish(ctx, events.ProjectUpdated, project.ID, "")
	return domain.ProjectWithLots{Project: project, Lots: lots}, nil
}

// mergeExtracted pairs extracted lots with the project's extracted lots by
// lot number, or by order when neither side has a number, and returns the
// lots to save.
func (a *App) mergeExtracted(projectID string, existing, extracted []domain.Lot) []domain.Lot {
	var auto []int
	byNumber := make(map[string]int)
	for i, l := range existing {
		if l.Details.Manual {
			continue
		}
		auto = append(auto, i)
		if k := lotNumberKey(l.Details.LotNumber); k != "" {
			if _, dup := byNumber[k]; !dup {
				byNumber[k] = i
			}
		}
	}

	matched := make(map[int]bool)
	next := nextPosition(existing)
	now := a.now()
	out := make([]domain.Lot, 0, len(extracted))
	for i, lot := range extracted {
		match := -1
		if k := lotNumberKey(lot.Details.LotNumber); k != "" {
			if j, ok := byNumber[k]; ok && !matched[j] {
				match = j
			}
		} else if i < len(auto) && !matched[auto[i]] && lotNumberKey(existing[auto[i]].Details.LotNumber) == "" {
			match = auto[i]
		}
		if match >= 0 {
			matched[match] = true
			out = append(out, a.refreshedLot(existing[match], lot))
			continue
		}
		lot.ID = util.NewID()
		lot.ProjectID = projectID
		lot.Position = next
		lot.CreatedAt = now
		lot.UpdatedAt = now
		next++
		out = append(out, lot)
	}
	if kept := len(auto) - len(matched); kept > 0 {
		a.logger.Info("lots missing from re-analysis were kept", "project_id", projectID, "count", kept)
	}
	return out
}

// lotNumberKey folds "Lote 01", "01" and "1" to the same key.
func lotNumberKey(number string) string {
	k := strings.ToLower(strings.TrimSpace(number))
	k = strings.TrimSpace(strings.TrimPrefix(k, "lote"))
	if trimmed := strings.TrimLeft(k, "0"); trimmed != "" {
		return trimmed
	}
	return k
}

// ReanalyzeProject re-runs the pipeline over the project's edital. A new
// upload replaces the stored edital first; otherwise the saved text is used.
// Existing lots keep their raw text and user state; see analyzeEdital.
func (a *App) ReanalyzeProject(ctx context.Context, id string, edital *Upload, pages string) (domain.ProjectWithLots, error) {
	project, err := a.getProject(id)
	if err != nil {
		return domain.ProjectWithLots{}, err
	}
	if !a.agent.Configured() {
		return domain.ProjectWithLots{}, agent.ErrNotConfigured
	}
	if edital != nil {
		if err := validatePDF(edital); err != nil {
			return domain.ProjectWithLots{}, err
		}
		selected, err := selectPages(edital, pages)
		if err != nil {
			return domain.ProjectWithLots{}, err
		}
		key, url, err := a.storeUpload(ctx, storage.FolderEditais, edital)
		if err != nil {
			return domain.ProjectWithLots{}, err
		}
		oldKey := project.EditalKey
		project.EditalKey, project.EditalURL = key, url
		text, err := a.extractor.ExtractText(edital.Data, selected)
		if err != nil {
			return domain.ProjectWithLots{}, fmt.Errorf("extract edital text: %w", err)
		}
		project.EditalText = text
		project.UpdatedAt = a.now()
		if err := a.store.SaveProject(project); err != nil {
			return domain.ProjectWithLots{}, fmt.Errorf("save project: %w", err)
		}
		a.removeObject(ctx, oldKey)
	}
	if strings.TrimSpace(project.EditalText) == "" {
		return domain.ProjectWithLots{}, ErrNoEditalText
	}
	return a.analyzeEdital(ctx, project)
}

func (a *App) ListProjects() ([]domain.Project, error) {
	return a.store.ListProjects()
}

// GetProject returns the project with its lots in extraction order.
func (a *App) GetProject(id string) (domain.ProjectWithLots, error) {
	project, err := a.getProject(id)
	if err != nil {
		return domain.ProjectWithLots{}, err
	}
	lots, err := a.store.ListLotsByProject(id)
	if err != nil {
		return domain.ProjectWithLots{}, err
	}
	return domain.ProjectWithLots{Project: project, Lots: lots}, nil
}

func (a *App) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (domain.Project, error) {
	project, err := a.getProject(id)
	if err != nil {
		return domain.Project{}, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return domain.Project{}, ErrNameRequired
		}
		project.Name = name
	}
	if patch.Description != nil {
		project.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Price != nil {
		project.Price = finance.NormalizeBRL(*patch.Price)
	}
	if patch.EstimatedPrice != nil {
		project.EstimatedPrice = finance.NormalizeBRL(*patch.EstimatedPrice)
	}
	if patch.GlobalInfo != nil {
		info := *patch.GlobalInfo
		if info.AuctionDates == nil {
			info.AuctionDates = []string{}
		}
		project.GlobalInfo = info
	}
	project.UpdatedAt = a.now()
	if err := a.store.SaveProject(project); err != nil {
		return domain.Project{}, fmt.Errorf("save project: %w", err)
	}
	a.publish(ctx, events.ProjectUpdated, project.ID, "")
	return project, nil
}

// DeleteProject removes the project, its lots and market entries, then the
// uploaded documents.
func (a *App) DeleteProject(ctx context.Context, id string) error {
	project, err := a.getProject(id)
	if err != nil {
		return err
	}
	lots, err := a.store.ListLotsByProject(id)
	if err != nil {
		return err
	}
	if err := a.store.DeleteProject(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("delete project: %w", err)
	}
	a.removeObject(ctx, project.EditalKey)
	a.removeObject(ctx, project.MunicipalKey)
	for _, lot := range lots {
		if lot.Details.Matricula != nil {
			a.removeObject(ctx, lot.Details.Matricula.DocumentKey)
		}
	}
	a.publish(ctx, events.ProjectDeleted, id, "")
	return nil
}

// AttachMunicipal stores the municipal document of a project, replacing a
// previous one.
func (a *App) AttachMunicipal(ctx context.Context, id string, doc *Upload) (domain.Project, error) {
	project, err := a.getProject(id)
	if err != nil {
		return domain.Project{}, err
	}
	key, url, err := a.storeUpload(ctx, storage.FolderMunicipal, doc)
	if err != nil {
		return domain.Project{}, err
	}
	oldKey := project.MunicipalKey
	project.MunicipalKey, project.MunicipalURL = key, url
	project.UpdatedAt = a.now()
	if err := a.store.SaveProject(project); err != nil {
		return domain.Project{}, fmt.Errorf("save project: %w", err)
	}
	a.removeObject(ctx, oldKey)
	a.publish(ctx, events.ProjectUpdated, project.ID, "")
	return project, nil
}

// EditalDownloadURL returns a short-lived link to the stored edital.
func (a *App) EditalDownloadURL(ctx context.Context, id string) (string, error) {
	project, err := a.getProject(id)
	if err != nil {
		return "", err
	}
	if project.EditalKey == "" {
		return "", ErrNoEdital
	}
	return a.objects.PresignGet(ctx, project.EditalKey, a.presignExpiry)
}

func (a *App) removeObject(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := a.objects.Delete(ctx, key); err != nil {
		a.logger.Warn("delete object failed", "key", key, "error", err)
	}
}
