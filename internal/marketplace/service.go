package marketplace

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/m3rciful/scriptbot/core/logger"
)

// Service combines the catalog and selections into rendered pages.
// Nothing is cached: every call re-reads the stores.
type Service struct {
	catalog    Catalog
	selections SelectionStore
	pageSize   int
}

// NewService returns a Service; pageSize < 1 selects DefaultPageSize.
func NewService(catalog Catalog, selections SelectionStore, pageSize int) *Service {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &Service{catalog: catalog, selections: selections, pageSize: pageSize}
}

// PageSize returns the configured page size.
func (s *Service) PageSize() int { return s.pageSize }

// Browse renders page index for the user.
func (s *Service) Browse(ctx context.Context, userID uuid.UUID, index int) (UserPage, error) {
	items, err := s.catalog.FindAll(ctx)
	if err != nil {
		return UserPage{}, fmt.Errorf("Service.Browse: catalog: %w", err)
	}
	sel, err := s.selections.LoadSelection(ctx, userID)
	if err != nil {
		return UserPage{}, fmt.Errorf("Service.Browse: selection: %w", err)
	}
	p := RenderForUser(items, sel, index, s.pageSize)
	logger.LogEvent(ctx, logger.SVCCatalog, slog.LevelDebug, "catalog.page",
		slog.Int("page", p.Index),
		slog.Int("pages", p.TotalPages),
		slog.Int("count", len(p.Items)),
	)
	return p, nil
}

// ToggleResult is the outcome of flipping one item.
type ToggleResult struct {
	Selected bool
	Page     UserPage
}

// ToggleAndLocate flips name in the user's selection, re-reads the catalog
// and renders the page where name now lives. The page the user was looking
// at is ignored because the catalog may have shifted since it was built.
func (s *Service) ToggleAndLocate(ctx context.Context, userID uuid.UUID, name string) (ToggleResult, error) {
	now, sel, err := Toggle(ctx, s.selections, userID, name)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("Service.ToggleAndLocate: %w", err)
	}
	items, err := s.catalog.FindAll(ctx)
	if err != nil {
		return ToggleResult{}, fmt.Errorf("Service.ToggleAndLocate: catalog: %w", err)
	}
	index := PageOf(items, name, s.pageSize)
	p := RenderForUser(items, sel, index, s.pageSize)
	logger.LogEvent(ctx, logger.SVCCatalog, slog.LevelInfo, "selection.toggle",
		slog.String("script", name),
		slog.Bool("selected", now),
		slog.Int("page", p.Index),
		slog.Int("count", sel.Len()),
	)
	return ToggleResult{Selected: now, Page: p}, nil
}
