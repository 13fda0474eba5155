package service

import (
	"context"
	"errors"
	"fmt"

	"aecoin-store-api/internal/model"
	"aecoin-store-api/internal/repository"

	"go.uber.org/zap"
)

// SampleRankings fill leaderboard positions 4 to 10.
var SampleRankings = []model.PlayerRanking{
	{UserID: "player-4", PlayerName: "SHADOW KING", Stars: 850, Rank: 4},
	{UserID: "player-5", PlayerName: "VIPER ACE", Stars: 720, Rank: 5},
	{UserID: "player-6", PlayerName: "GHOST RIDER", Stars: 650, Rank: 6},
	{UserID: "player-7", PlayerName: "THUNDER BOLT", Stars: 580, Rank: 7},
	{UserID: "player-8", PlayerName: "IRON WOLF", Stars: 520, Rank: 8},
	{UserID: "player-9", PlayerName: "DARK PHOENIX", Stars: 460, Rank: 9},
	{UserID: "player-10", PlayerName: "STORM BREAKER", Stars: 400, Rank: 10},
}

// RankingPatch holds the ranking fields to change. Nil fields are kept.
type RankingPatch struct {
	PlayerName *string
	Stars      *int
	Rank       *int
	ImageURL   *string
}

// RankingService manages the leaderboard.
type RankingService struct {
	rankings repository.RankingStore
	logger   *zap.Logger
}

// NewRankingService creates a ranking service.
func NewRankingService(rankings repository.RankingStore, logger *zap.Logger) *RankingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RankingService{rankings: rankings, logger: logger.Named("rankings")}
}

// List returns the leaderboard by rank.
func (s *RankingService) List(ctx context.Context) ([]model.PlayerRanking, error) {
	return s.rankings.List(ctx)
}

// Get returns one entry.
func (s *RankingService) Get(ctx context.Context, id int64) (*model.PlayerRanking, error) {
	p, err := s.rankings.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRankingNotFound
	}
	return p, err
}

// Upsert inserts an entry or replaces the one with the same user id.
func (s *RankingService) Upsert(ctx context.Context, p *model.PlayerRanking) error {
	if err := validateRanking(p); err != nil {
		return err
	}
	return s.rankings.Upsert(ctx, p)
}

// Update applies patch to an entry and returns the result.
func (s *RankingService) Update(ctx context.Context, id int64, patch RankingPatch) (*model.PlayerRanking, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.PlayerName != nil {
		p.PlayerName = *patch.PlayerName
	}
	if patch.Stars != nil {
		p.Stars = *patch.Stars
	}
	if patch.Rank != nil {
		p.Rank = *patch.Rank
	}
	if patch.ImageURL != nil {
		if *patch.ImageURL == "" {
			p.ImageURL = nil
		} else {
			p.ImageURL = patch.ImageURL
		}
	}

	if err := validateRanking(p); err != nil {
		return nil, err
	}
	if err := s.rankings.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRankingNotFound
		}
		return nil, err
	}
	return p, nil
}

// Delete removes an entry.
func (s *RankingService) Delete(ctx context.Context, id int64) error {
	err := s.rankings.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrRankingNotFound
	}
	return err
}

// Seed upserts SampleRankings and returns the stored entries.
func (s *RankingService) Seed(ctx context.Context) ([]model.PlayerRanking, error) {
	out := make([]model.PlayerRanking, 0, len(SampleRankings))
	for _, sample := range SampleRankings {
		p := sample
		if err := s.rankings.Upsert(ctx, &p); err != nil {
			return out, fmt.Errorf("seed %s: %w", p.UserID, err)
		}
		s.logger.Info("ranking seeded",
			zap.String("player", p.PlayerName),
			zap.Int("rank", p.Rank),
			zap.Int("stars", p.Stars),
		)
		out = append(out, p)
	}
	return out, nil
}

func validateRanking(p *model.PlayerRanking) error {
	switch {
	case p.UserID == "":
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	case p.PlayerName == "":
		return fmt.Errorf("%w: player name is required", ErrInvalidInput)
	case p.Rank < 1:
		return fmt.Errorf("%w: rank must be at least 1", ErrInvalidInput)
	case p.Stars < 0:
		return fmt.Errorf("%w: stars cannot be negative", ErrInvalidInput)
	}
	return nil
}

// HeroPatch holds the hero fields to change. Nil fields are kept.
type HeroPatch struct {
	BackgroundImage *string
	VideoThumbnail  *string
	IsActive        *bool
}

// HeroService manages the storefront banner.
type HeroService struct {
	heroes repository.HeroStore
	logger *zap.Logger
}

// NewHeroService creates a hero service.
func NewHeroService(heroes repository.HeroStore, logger *zap.Logger) *HeroService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HeroService{heroes: heroes, logger: logger.Named("hero")}
}

// Active returns the active setting.
func (s *HeroService) Active(ctx context.Context) (*model.HeroSetting, error) {
	h, err := s.heroes.GetActive(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrHeroNotFound
	}
	return h, err
}

// List returns all settings.
func (s *HeroService) List(ctx context.Context) ([]model.HeroSetting, error) {
	return s.heroes.List(ctx)
}

// Create adds a setting. An active setting deactivates the others.
func (s *HeroService) Create(ctx context.Context, h *model.HeroSetting) error {
	if h.BackgroundImage == "" {
		return fmt.Errorf("%w: background image is required", ErrInvalidInput)
	}
	return s.heroes.Create(ctx, h)
}

// Update applies patch to a setting and returns the result.
func (s *HeroService) Update(ctx context.Context, id int64, patch HeroPatch) (*model.HeroSetting, error) {
	h, err := s.heroes.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrHeroNotFound
	}
	if err != nil {
		return nil, err
	}

	if patch.BackgroundImage != nil {
		if *patch.BackgroundImage == "" {
			return nil, fmt.Errorf("%w: background image is required", ErrInvalidInput)
		}
		h.BackgroundImage = *patch.BackgroundImage
	}
	if patch.VideoThumbnail != nil {
		if *patch.VideoThumbnail == "" {
			h.VideoThumbnail = nil
		} else {
			h.VideoThumbnail = patch.VideoThumbnail
		}
	}
	if patch.IsActive != nil {
		h.IsActive = *patch.IsActive
	}

	if err := s.heroes.Update(ctx, h); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrHeroNotFound
		}
		return nil, err
	}
	return h, nil
}

// Delete removes a setting.
func (s *HeroService) Delete(ctx context.Context, id int64) error {
	err := s.heroes.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrHeroNotFound
	}
	return err
}
