package repository

import (
	"context"
	"database/sql"
	"fmt"

	"aecoin-store-api/internal/model"

	"github.com/Masterminds/squirrel"
)

var heroColumns = []string{"id", "background_image", "video_thumbnail", "is_active", "updated_at"}

// HeroRepository stores storefront banners. Saving an active setting
// deactivates every other one in the same transaction.
type HeroRepository struct {
	s *Store
}

func scanHero(row interface{ Scan(...interface{}) error }) (*model.HeroSetting, error) {
	var (
		h     model.HeroSetting
		thumb sql.NullString
	)
	if err := row.Scan(&h.ID, &h.BackgroundImage, &thumb, &h.IsActive, &h.UpdatedAt); err != nil {
		return nil, err
	}
	if thumb.Valid {
		h.VideoThumbnail = &thumb.String
	}
	return &h, nil
}

// List returns all settings, most recently updated first.
func (r *HeroRepository) List(ctx context.Context) ([]model.HeroSetting, error) {
	rows, err := r.s.query(ctx, r.s.db,
		r.s.sb.Select(heroColumns...).From("hero_settings").OrderBy("updated_at DESC", "id DESC"))
	if err != nil {
		return nil, fmt.Errorf("failed to list hero settings: %w", err)
	}
	defer rows.Close()

	heroes := []model.HeroSetting{}
	for rows.Next() {
		h, err := scanHero(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hero setting: %w", err)
		}
		heroes = append(heroes, *h)
	}
	return heroes, rows.Err()
}

// Get returns a setting by id.
func (r *HeroRepository) Get(ctx context.Context, id int64) (*model.HeroSetting, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

// GetActive returns the active setting.
func (r *HeroRepository) GetActive(ctx context.Context) (*model.HeroSetting, error) {
	return r.getBy(ctx, squirrel.Eq{"is_active": true})
}

func (r *HeroRepository) getBy(ctx context.Context, where squirrel.Eq) (*model.HeroSetting, error) {
	row, err := r.s.queryRow(ctx, r.s.db,
		r.s.sb.Select(heroColumns...).From("hero_settings").Where(where).OrderBy("updated_at DESC").Limit(1))
	if err != nil {
		return nil, err
	}
	h, err := scanHero(row)
	if err != nil {
		return nil, translate(err)
	}
	return h, nil
}

// Create inserts h.
func (r *HeroRepository) Create(ctx context.Context, h *model.HeroSetting) error {
	ts := now()
	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		if h.IsActive {
			if err := r.deactivateOthers(ctx, tx, 0); err != nil {
				return err
			}
		}

		id, err := r.s.insert(ctx, tx, r.s.sb.Insert("hero_settings").
			Columns("background_image", "video_thumbnail", "is_active", "updated_at").
			Values(h.BackgroundImage, nullString(h.VideoThumbnail), h.IsActive, ts))
		if err != nil {
			return fmt.Errorf("failed to create hero setting: %w", err)
		}

		h.ID = id
		h.UpdatedAt = ts
		return nil
	})
}

// Update overwrites h by id.
func (r *HeroRepository) Update(ctx context.Context, h *model.HeroSetting) error {
	ts := now()
	return r.s.withTx(ctx, func(tx *sql.Tx) error {
		if h.IsActive {
			if err := r.deactivateOthers(ctx, tx, h.ID); err != nil {
				return err
			}
		}

		res, err := r.s.exec(ctx, tx, r.s.sb.Update("hero_settings").
			Set("background_image", h.BackgroundImage).
			Set("video_thumbnail", nullString(h.VideoThumbnail)).
			Set("is_active", h.IsActive).
			Set("updated_at", ts).
			Where(squirrel.Eq{"id": h.ID}))
		if err != nil {
			return fmt.Errorf("failed to update hero setting: %w", err)
		}
		if err := requireOne(res); err != nil {
			return err
		}

		h.UpdatedAt = ts
		return nil
	})
}

// Delete removes a setting.
func (r *HeroRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.s.exec(ctx, r.s.db, r.s.sb.Delete("hero_settings").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("failed to delete hero setting: %w", err)
	}
	return requireOne(res)
}

func (r *HeroRepository) deactivateOthers(ctx context.Context, tx *sql.Tx, keepID int64) error {
	_, err := r.s.exec(ctx, tx, r.s.sb.Update("hero_settings").
		Set("is_active", false).
		Where(squirrel.Eq{"is_active": true}).
		Where(squirrel.NotEq{"id": keepID}))
	if err != nil {
		return fmt.Errorf("failed to deactivate hero settings: %w", err)
	}
	return nil
}
