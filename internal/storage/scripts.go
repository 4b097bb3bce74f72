package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/scriptbot/internal/marketplace"
)

type scriptRow struct {
	ID        int64     `db:"id"`
	Name      string    `db:"name"`
	Author    string    `db:"author"`
	Content   []byte    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

func (s scriptRow) item() marketplace.CatalogItem {
	return marketplace.CatalogItem{
		ID:        pointer.ToInt64(s.ID),
		Name:      s.Name,
		Author:    s.Author,
		Content:   s.Content,
		CreatedAt: s.CreatedAt,
	}
}

// ScriptRepository is the published script catalog.
type ScriptRepository struct {
	db *sqlx.DB
}

// NewScriptRepository returns a repository backed by db.
func NewScriptRepository(db *sqlx.DB) *ScriptRepository {
	return &ScriptRepository{db: db}
}

// FindAll returns every script in insertion order.
func (r *ScriptRepository) FindAll(ctx context.Context) ([]marketplace.CatalogItem, error) {
	var rows []scriptRow
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT id, name, author, content, created_at FROM scripts
		ORDER BY id
	`); err != nil {
		return nil, fmt.Errorf("ScriptRepository.FindAll: %w", err)
	}
	items := make([]marketplace.CatalogItem, len(rows))
	for i, row := range rows {
		items[i] = row.item()
	}
	return items, nil
}

// FindByName returns the script called name or ErrNotFound.
func (r *ScriptRepository) FindByName(ctx context.Context, name string) (marketplace.CatalogItem, error) {
	var row scriptRow
	if err := r.db.GetContext(ctx, &row, `
		SELECT id, name, author, content, created_at FROM scripts
		WHERE name = $1
	`, name); err != nil {
		return marketplace.CatalogItem{}, fmt.Errorf("ScriptRepository.FindByName: %w", notFound(err))
	}
	return row.item(), nil
}

// Save inserts item, or replaces author and content of the script with the
// same name. The stored item is returned with its ID.
func (r *ScriptRepository) Save(ctx context.Context, item marketplace.CatalogItem) (marketplace.CatalogItem, error) {
	var row scriptRow
	if err := r.db.GetContext(ctx, &row, `
		INSERT INTO scripts (name, author, content)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE
		SET author = EXCLUDED.author, content = EXCLUDED.content
		RETURNING id, name, author, content, created_at
	`, item.Name, item.Author, item.Content); err != nil {
		return marketplace.CatalogItem{}, fmt.Errorf("ScriptRepository.Save: %w", err)
	}
	return row.item(), nil
}

// Delete removes the script called item.Name.
func (r *ScriptRepository) Delete(ctx context.Context, item marketplace.CatalogItem) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM scripts WHERE name = $1`, item.Name)
	if err != nil {
		return fmt.Errorf("ScriptRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("ScriptRepository.Delete: %w", ErrNotFound)
	}
	return nil
}
