package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/jewel-storefront/internal/catalog"
	"github.com/shopspring/decimal"
)

// PostgresCatalogStore keeps the read model in the read_products table.
type PostgresCatalogStore struct {
	db *sql.DB
}

func NewPostgresCatalogStore(db *sql.DB) *PostgresCatalogStore {
	return &PostgresCatalogStore{db: db}
}

func (s *PostgresCatalogStore) Upsert(ctx context.Context, p catalog.Product) error {
	gallery := p.Gallery()
	if gallery == nil {
		gallery = []string{}
	}
	images, err := json.Marshal(gallery)
	if err != nil {
		return fmt.Errorf("failed to encode images: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO read_products (id, name, description, price, category, image, images, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name,
		     description = EXCLUDED.description,
		     price = EXCLUDED.price,
		     category = EXCLUDED.category,
		     image = EXCLUDED.image,
		     images = EXCLUDED.images,
		     updated_at = EXCLUDED.updated_at`,
		p.ID, p.Name, p.Description, p.Price.String(), p.Category, p.Image, images, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", p.ID, err)
	}
	return nil
}

func (s *PostgresCatalogStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM read_products WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

const productColumns = "id, name, description, price, category, image, images, created_at, updated_at"

func (s *PostgresCatalogStore) Get(ctx context.Context, id string) (catalog.Product, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM read_products WHERE id = $1", id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Product{}, false, nil
	}
	if err != nil {
		return catalog.Product{}, false, err
	}
	return p, true, nil
}

func (s *PostgresCatalogStore) List(ctx context.Context) ([]catalog.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM read_products ORDER BY created_at DESC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []catalog.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (catalog.Product, error) {
	var p catalog.Product
	var price string
	var images []byte
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Category, &p.Image, &images, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("failed to scan product: %w", err)
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return p, fmt.Errorf("invalid price for product %s: %w", p.ID, err)
	}
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return p, fmt.Errorf("invalid images for product %s: %w", p.ID, err)
	}
	return p, nil
}
