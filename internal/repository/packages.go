package repository

import (
	"context"
	"database/sql"
	"fmt"

	"aecoin-store-api/internal/model"

	"github.com/Masterminds/squirrel"
)

var packageColumns = []string{
	"id", "name", "aecoin_amount", "price", "bonus_label", "active", "sort_order", "created_at", "updated_at",
}

// PackageRepository stores the AECOIN catalog.
type PackageRepository struct {
	s *Store
}

func scanPackage(row interface{ Scan(...interface{}) error }) (*model.Package, error) {
	var p model.Package
	if err := row.Scan(&p.ID, &p.Name, &p.AecoinAmount, &p.Price, &p.BonusLabel, &p.Active, &p.SortOrder, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns packages ordered for display. activeOnly hides disabled ones.
func (r *PackageRepository) List(ctx context.Context, activeOnly bool) ([]model.Package, error) {
	q := r.s.sb.Select(packageColumns...).From("packages").OrderBy("sort_order ASC", "id ASC")
	if activeOnly {
		q = q.Where(squirrel.Eq{"active": true})
	}

	rows, err := r.s.query(ctx, r.s.db, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	packages := []model.Package{}
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		packages = append(packages, *p)
	}
	return packages, rows.Err()
}

// Get returns a package by id.
func (r *PackageRepository) Get(ctx context.Context, id int64) (*model.Package, error) {
	row, err := r.s.queryRow(ctx, r.s.db,
		r.s.sb.Select(packageColumns...).From("packages").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return nil, err
	}

	p, err := scanPackage(row)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// Create inserts p and sets its id and timestamps.
func (r *PackageRepository) Create(ctx context.Context, p *model.Package) error {
	ts := now()
	id, err := r.s.insert(ctx, r.s.db, r.s.sb.Insert("packages").
		Columns("name", "aecoin_amount", "price", "bonus_label", "active", "sort_order", "created_at", "updated_at").
		Values(p.Name, p.AecoinAmount, p.Price, p.BonusLabel, p.Active, p.SortOrder, ts, ts))
	if err != nil {
		return fmt.Errorf("failed to create package: %w", err)
	}

	p.ID = id
	p.CreatedAt = ts
	p.UpdatedAt = ts
	return nil
}

// Update overwrites every mutable field of p.
func (r *PackageRepository) Update(ctx context.Context, p *model.Package) error {
	ts := now()
	res, err := r.s.exec(ctx, r.s.db, r.s.sb.Update("packages").
		Set("name", p.Name).
		Set("aecoin_amount", p.AecoinAmount).
		Set("price", p.Price).
		Set("bonus_label", p.BonusLabel).
		Set("active", p.Active).
		Set("sort_order", p.SortOrder).
		Set("updated_at", ts).
		Where(squirrel.Eq{"id": p.ID}))
	if err != nil {
		return fmt.Errorf("failed to update package: %w", err)
	}
	if err := requireOne(res); err != nil {
		return err
	}

	p.UpdatedAt = ts
	return nil
}

// Delete removes a package.
func (r *PackageRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.s.exec(ctx, r.s.db, r.s.sb.Delete("packages").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("failed to delete package: %w", err)
	}
	return requireOne(res)
}

// Count returns the number of packages.
func (r *PackageRepository) Count(ctx context.Context) (int64, error) {
	row, err := r.s.queryRow(ctx, r.s.db, r.s.sb.Select("COUNT(*)").From("packages"))
	if err != nil {
		return 0, err
	}
	var n int64
	return n, row.Scan(&n)
}

// requireOne maps zero affected rows to ErrNotFound.
func requireOne(res sql.Result) error {
	n, err := affected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
