package repository

import (
	"context"
	"database/sql"
	"fmt"

	"aecoin-store-api/internal/model"

	"github.com/Masterminds/squirrel"
)

var rankingColumns = []string{"id", "user_id", "player_name", "stars", "ranking", "image_url", "updated_at"}

// RankingRepository stores the player leaderboard.
type RankingRepository struct {
	s *Store
}

func scanRanking(row interface{ Scan(...interface{}) error }) (*model.PlayerRanking, error) {
	var (
		p   model.PlayerRanking
		img sql.NullString
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.PlayerName, &p.Stars, &p.Rank, &img, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if img.Valid {
		p.ImageURL = &img.String
	}
	return &p, nil
}

// List returns the leaderboard by rank ascending.
func (r *RankingRepository) List(ctx context.Context) ([]model.PlayerRanking, error) {
	rows, err := r.s.query(ctx, r.s.db,
		r.s.sb.Select(rankingColumns...).From("player_rankings").OrderBy("ranking ASC", "id ASC"))
	if err != nil {
		return nil, fmt.Errorf("failed to list rankings: %w", err)
	}
	defer rows.Close()

	rankings := []model.PlayerRanking{}
	for rows.Next() {
		p, err := scanRanking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ranking: %w", err)
		}
		rankings = append(rankings, *p)
	}
	return rankings, rows.Err()
}

// Get returns a ranking by id.
func (r *RankingRepository) Get(ctx context.Context, id int64) (*model.PlayerRanking, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

// GetByUserID returns a ranking by player user id.
func (r *RankingRepository) GetByUserID(ctx context.Context, userID string) (*model.PlayerRanking, error) {
	return r.getBy(ctx, squirrel.Eq{"user_id": userID})
}

func (r *RankingRepository) getBy(ctx context.Context, where squirrel.Eq) (*model.PlayerRanking, error) {
	row, err := r.s.queryRow(ctx, r.s.db, r.s.sb.Select(rankingColumns...).From("player_rankings").Where(where))
	if err != nil {
		return nil, err
	}
	p, err := scanRanking(row)
	if err != nil {
		return nil, translate(err)
	}
	return p, nil
}

// Upsert inserts p or, when its user id exists, overwrites that row. p is
// refreshed from the stored row.
func (r *RankingRepository) Upsert(ctx context.Context, p *model.PlayerRanking) error {
	q := r.s.sb.Insert("player_rankings").
		Columns("user_id", "player_name", "stars", "ranking", "image_url", "updated_at").
		Values(p.UserID, p.PlayerName, p.Stars, p.Rank, nullString(p.ImageURL), now())

	if r.s.dialect == DialectMySQL {
		q = q.Suffix("ON DUPLICATE KEY UPDATE player_name = VALUES(player_name), stars = VALUES(stars), " +
			"ranking = VALUES(ranking), image_url = VALUES(image_url), updated_at = VALUES(updated_at)")
	} else {
		q = q.Suffix("ON CONFLICT (user_id) DO UPDATE SET player_name = excluded.player_name, stars = excluded.stars, " +
			"ranking = excluded.ranking, image_url = excluded.image_url, updated_at = excluded.updated_at")
	}

	if _, err := r.s.exec(ctx, r.s.db, q); err != nil {
		return fmt.Errorf("failed to upsert ranking: %w", err)
	}

	stored, err := r.GetByUserID(ctx, p.UserID)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// Update overwrites the mutable fields of p by id.
func (r *RankingRepository) Update(ctx context.Context, p *model.PlayerRanking) error {
	ts := now()
	res, err := r.s.exec(ctx, r.s.db, r.s.sb.Update("player_rankings").
		Set("user_id", p.UserID).
		Set("player_name", p.PlayerName).
		Set("stars", p.Stars).
		Set("ranking", p.Rank).
		Set("image_url", nullString(p.ImageURL)).
		Set("updated_at", ts).
		Where(squirrel.Eq{"id": p.ID}))
	if err != nil {
		return fmt.Errorf("failed to update ranking: %w", err)
	}
	if err := requireOne(res); err != nil {
		return err
	}
	p.UpdatedAt = ts
	return nil
}

// Delete removes a ranking.
func (r *RankingRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.s.exec(ctx, r.s.db, r.s.sb.Delete("player_rankings").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return fmt.Errorf("failed to delete ranking: %w", err)
	}
	return requireOne(res)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
